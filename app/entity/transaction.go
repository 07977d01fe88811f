package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EnvironmentLive    = "live"
	EnvironmentSandbox = "sandbox"
)

type Transaction struct {
	ID uint64

	MerchantTxID string
	OrderID      uint64

	Action      string
	Amount      decimal.Decimal
	Currency    string
	Environment string

	// Status is the last status reported by the gateway, empty until the first report.
	Status         string
	RefundedAmount decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}
