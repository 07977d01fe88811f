package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusOnHold    = "on-hold"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunded  = "refunded"
)

const (
	MetaPaymentStatus = "payment_status"
	MetaTransactionID = "transaction_id"
)

const (
	MessageKindSuccess = "success"
	MessageKindError   = "error"
)

type BillingAddress struct {
	FirstName  string
	LastName   string
	Street     string
	City       string
	PostalCode string
	Country    string
}

type Order struct {
	ID uint64

	Total    decimal.Decimal
	Currency string

	Billing BillingAddress

	Status   string
	Metadata map[string]string

	// Message is shown to the shopper on the next checkout-return render.
	Message     *string
	MessageKind *string

	PaidAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Settled reports whether the order reached a status no confirmation may move it out of.
func (o *Order) Settled() bool {
	switch o.Status {
	case OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded:
		return true
	default:
		return false
	}
}
