package entity

import "time"

const (
	CallbackStatusProcessed int32 = 10
	CallbackStatusRejected  int32 = 20
)

type GatewayCallback struct {
	ID uint64

	OrderID      *uint64
	MerchantTxID string
	Source       string
	PayloadJSON  string
	Status       int32
	Error        *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
