package mapper

import (
	"sort"
	"time"

	"github.com/vibast-solutions/ms-go-cardgateway/app/entity"
	"github.com/vibast-solutions/ms-go-cardgateway/app/gateway"
	"github.com/vibast-solutions/ms-go-cardgateway/app/service"
	"github.com/vibast-solutions/ms-go-cardgateway/app/types"
)

func OrderToResponse(item *entity.Order) *types.Order {
	if item == nil {
		return nil
	}

	return &types.Order{
		Id:            item.ID,
		Total:         item.Total.StringFixed(2),
		Currency:      item.Currency,
		Status:        item.Status,
		PaymentStatus: item.Metadata[entity.MetaPaymentStatus],
		TransactionId: item.Metadata[entity.MetaTransactionID],
		Message:       derefString(item.Message),
		MessageKind:   derefString(item.MessageKind),
		PaidAt:        formatTimePtr(item.PaidAt),
		CreatedAt:     formatTime(item.CreatedAt),
		UpdatedAt:     formatTime(item.UpdatedAt),
	}
}

func OrderDetailsToResponse(details *service.OrderDetails) *types.OrderDetailsResponse {
	if details == nil {
		return nil
	}

	notes := make([]*types.OrderNote, 0, len(details.Notes))
	for _, note := range details.Notes {
		notes = append(notes, &types.OrderNote{
			Id:        note.ID,
			Note:      note.Note,
			CreatedAt: formatTime(note.CreatedAt),
		})
	}

	return &types.OrderDetailsResponse{
		Order:        OrderToResponse(details.Order),
		Notes:        notes,
		Transactions: TransactionsToResponse(details.Transactions),
	}
}

func TransactionsToResponse(items []*entity.Transaction) []*types.Transaction {
	result := make([]*types.Transaction, 0, len(items))
	for _, item := range items {
		result = append(result, &types.Transaction{
			Id:             item.ID,
			MerchantTxId:   item.MerchantTxID,
			Action:         item.Action,
			Amount:         item.Amount.StringFixed(2),
			Currency:       item.Currency,
			Environment:    item.Environment,
			Status:         item.Status,
			RefundedAmount: item.RefundedAmount.StringFixed(2),
			CreatedAt:      formatTime(item.CreatedAt),
			UpdatedAt:      formatTime(item.UpdatedAt),
		})
	}
	return result
}

func CheckoutToResponse(orderID uint64, checkout *gateway.Checkout) *types.CheckoutResponse {
	if checkout == nil {
		return nil
	}
	return &types.CheckoutResponse{
		OrderId:      orderID,
		Mode:         string(checkout.Mode),
		MerchantTxId: checkout.MerchantTxID,
		Html:         checkout.HTML,
	}
}

// PaymentSolutionsToResponse lists the catalog ordered by id.
func PaymentSolutionsToResponse(catalog map[string]string) *types.PaymentSolutionsResponse {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	items := make([]*types.PaymentSolution, 0, len(ids))
	for _, id := range ids {
		items = append(items, &types.PaymentSolution{Id: id, Name: catalog[id]})
	}
	return &types.PaymentSolutionsResponse{PaymentSolutions: items}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func formatTimePtr(v *time.Time) string {
	if v == nil {
		return ""
	}
	return formatTime(*v)
}
