// Package reconciler maps gateway outcomes onto order lifecycle changes.
// It decides what should happen; the checkout service applies the plan.
package reconciler

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-cardgateway/app/entity"
	"github.com/vibast-solutions/ms-go-cardgateway/app/gateway"
)

type Context int

const (
	ContextConfirm Context = iota + 1
	ContextCapture
	ContextVoid
	ContextRefund
)

func (c Context) String() string {
	switch c {
	case ContextConfirm:
		return "confirm"
	case ContextCapture:
		return "capture"
	case ContextVoid:
		return "void"
	case ContextRefund:
		return "refund"
	default:
		return "unknown"
	}
}

const (
	MessagePaymentCompleted  = "Thank you for shopping with us. Your payment was successful."
	MessagePaymentOnHold     = "Thank you for shopping with us. Your payment is authorized and awaiting capture."
	MessagePaymentFailed     = "Your payment was declined. Please try again or use another card."
	MessagePaymentUnresolved = "We could not confirm your payment. Please contact us before trying again."
	MessageConnectionError   = "We could not reach the payment gateway. Your order is saved and will be checked again shortly."
	MessageRefundQueued      = "The order is in capture process queue, can not refund now!"
)

type Input struct {
	Context Context
	Result  *gateway.ExecutionResult

	CurrentStatus string
	OrderTotal    decimal.Decimal
	// RefundedBefore is the amount already refunded on the transaction.
	RefundedBefore decimal.Decimal
	// Amount is the capture or refund amount.
	Amount decimal.Decimal
}

type Message struct {
	Text string
	Kind string
}

type Plan struct {
	// Transition is the new order status, empty when the status stays.
	Transition    string
	PaymentStatus string
	MarkPaid      bool

	StoreTransactionID bool
	ReduceStock        bool
	EmptyCart          bool
	PaymentComplete    bool

	Notes   []string
	Message *Message

	// TransactionStatus is the gateway status to record on the transaction, empty to keep it.
	TransactionStatus string
	RefundedDelta     decimal.Decimal

	// Duplicate marks a repeated delivery for an order already past this point.
	Duplicate bool
}

// Changes reports whether applying the plan writes anything to the order.
func (p Plan) Changes() bool {
	return p.Transition != "" || p.PaymentStatus != "" || p.MarkPaid || p.StoreTransactionID ||
		len(p.Notes) > 0 || p.Message != nil
}

func Reconcile(in Input) Plan {
	result := in.Result
	if result == nil || result.Outcome == gateway.OutcomeTokenFailed {
		return Plan{}
	}

	var plan Plan
	switch in.Context {
	case ContextConfirm:
		if in.CurrentStatus == entity.OrderStatusCompleted ||
			in.CurrentStatus == entity.OrderStatusCancelled ||
			in.CurrentStatus == entity.OrderStatusRefunded {
			return Plan{Duplicate: true}
		}
		plan = confirm(result)
	case ContextCapture:
		plan = capture(result, in.Amount)
	case ContextVoid:
		plan = void(result)
	case ContextRefund:
		plan = refund(result, in)
	default:
		return Plan{}
	}

	if plan.Transition == "" || plan.Transition != in.CurrentStatus {
		return plan
	}
	if in.Context == ContextConfirm {
		return Plan{Duplicate: true}
	}
	// The gateway accepted the operation but the order is already there: keep the record, skip the hooks.
	plan.Transition = ""
	plan.PaymentStatus = ""
	plan.MarkPaid = false
	plan.PaymentComplete = false
	return plan
}

func confirm(result *gateway.ExecutionResult) Plan {
	switch result.Outcome {
	case gateway.OutcomeDeclined:
		return Plan{
			Transition:        entity.OrderStatusFailed,
			TransactionStatus: string(result.Status),
			Notes:             []string{withReason("Card payment failed.", result.Errors)},
			Message:           errorMessage(MessagePaymentFailed),
		}
	case gateway.OutcomeOnHold:
		return Plan{
			Transition:         entity.OrderStatusOnHold,
			PaymentStatus:      entity.OrderStatusOnHold,
			StoreTransactionID: true,
			TransactionStatus:  string(result.Status),
			Notes:              []string{"Card payment authorized. Transaction ID: " + result.MerchantTxID},
			Message:            successMessage(MessagePaymentOnHold),
		}
	case gateway.OutcomeApproved:
		return Plan{
			Transition:         entity.OrderStatusCompleted,
			PaymentStatus:      entity.OrderStatusCompleted,
			MarkPaid:           true,
			StoreTransactionID: true,
			ReduceStock:        true,
			EmptyCart:          true,
			PaymentComplete:    true,
			TransactionStatus:  string(result.Status),
			Notes:              []string{"Card payment completed. Transaction ID: " + result.MerchantTxID},
			Message:            successMessage(MessagePaymentCompleted),
		}
	case gateway.OutcomeTransportError:
		return Plan{
			Notes:   []string{withReason("Gateway connection error while confirming payment.", errText(result.Err))},
			Message: errorMessage(MessageConnectionError),
		}
	default:
		return Plan{
			Message: errorMessage(MessagePaymentUnresolved),
		}
	}
}

func capture(result *gateway.ExecutionResult, amount decimal.Decimal) Plan {
	if result.Outcome == gateway.OutcomeApproved {
		return Plan{
			Transition:        entity.OrderStatusCompleted,
			PaymentStatus:     entity.OrderStatusCompleted,
			MarkPaid:          true,
			PaymentComplete:   true,
			TransactionStatus: string(result.Status),
			Notes:             []string{fmt.Sprintf("Capture charge complete (Amount: %s)", amount.StringFixed(2))},
		}
	}
	return Plan{Notes: []string{failureNote("Capture error!", result)}}
}

func void(result *gateway.ExecutionResult) Plan {
	if result.Outcome == gateway.OutcomeApproved {
		return Plan{
			Transition:        entity.OrderStatusCancelled,
			PaymentStatus:     entity.OrderStatusCancelled,
			TransactionStatus: string(result.Status),
			Notes:             []string{"Payment void complete"},
		}
	}
	return Plan{Notes: []string{failureNote("Void error!", result)}}
}

func refund(result *gateway.ExecutionResult, in Input) Plan {
	switch result.Outcome {
	case gateway.OutcomeApproved:
		plan := Plan{
			TransactionStatus: string(result.Status),
			RefundedDelta:     in.Amount,
			Notes:             []string{fmt.Sprintf("Refund complete (Amount: %s)", in.Amount.StringFixed(2))},
		}
		if in.OrderTotal.IsPositive() && in.RefundedBefore.Add(in.Amount).GreaterThanOrEqual(in.OrderTotal) {
			plan.Transition = entity.OrderStatusRefunded
			plan.PaymentStatus = entity.OrderStatusRefunded
		}
		return plan
	case gateway.OutcomeNotYetCapturable:
		return Plan{Notes: []string{MessageRefundQueued}}
	default:
		return Plan{Notes: []string{failureNote("Refund error!", result)}}
	}
}

func failureNote(prefix string, result *gateway.ExecutionResult) string {
	if result.Outcome == gateway.OutcomeTransportError {
		return withReason(prefix+" Gateway connection error.", errText(result.Err))
	}
	reason := result.Errors
	if reason == "" && result.Status != "" {
		reason = "status " + string(result.Status)
	}
	if reason == "" {
		reason = errText(result.Err)
	}
	return withReason(prefix, reason)
}

func withReason(text, reason string) string {
	if reason == "" {
		return text
	}
	return text + " " + reason
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func successMessage(text string) *Message {
	return &Message{Text: text, Kind: entity.MessageKindSuccess}
}

func errorMessage(text string) *Message {
	return &Message{Text: text, Kind: entity.MessageKindError}
}
