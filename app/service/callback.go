package service

import (
	"context"
	"errors"
	"strings"

	"github.com/vibast-solutions/ms-go-cardgateway/app/entity"
	"github.com/vibast-solutions/ms-go-cardgateway/app/gateway"
)

const (
	callbackStatusProcessed = "processed"
	callbackStatusRejected  = "rejected"
)

type gatewayCallbackRequest interface {
	GetOrderId() uint64
	GetMerchantTxId() string
	GetSource() string
	GetPayload() string
}

// HandleGatewayCallback confirms the payment a gateway notification or shopper return refers to
// and keeps an audit row of the delivery.
func (s *CheckoutService) HandleGatewayCallback(ctx context.Context, req gatewayCallbackRequest, env gateway.Environment) (*entity.Order, error) {
	if req.GetOrderId() == 0 {
		s.persistCallback(ctx, req, nil, entity.CallbackStatusRejected, "order id is missing")
		return nil, ErrInvalidRequest
	}

	orderID := req.GetOrderId()
	order, err := s.ConfirmPayment(ctx, orderID, req.GetMerchantTxId(), env)
	if err != nil {
		orderRef := &orderID
		if errors.Is(err, ErrOrderNotFound) {
			orderRef = nil
		}
		s.persistCallback(ctx, req, orderRef, entity.CallbackStatusRejected, err.Error())
		return order, err
	}

	s.persistCallback(ctx, req, &orderID, entity.CallbackStatusProcessed, "")
	return order, nil
}

func (s *CheckoutService) persistCallback(
	ctx context.Context,
	req gatewayCallbackRequest,
	orderID *uint64,
	status int32,
	reason string,
) {
	now := s.now()
	source := strings.ToLower(strings.TrimSpace(req.GetSource()))
	if source == "" {
		source = "notify"
	}

	callback := &entity.GatewayCallback{
		OrderID:      orderID,
		MerchantTxID: truncate(strings.TrimSpace(req.GetMerchantTxId()), 128),
		Source:       source,
		PayloadJSON:  req.GetPayload(),
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	statusLabel := callbackStatusProcessed
	if status == entity.CallbackStatusRejected {
		statusLabel = callbackStatusRejected
		reason = strings.TrimSpace(reason)
		if reason == "" {
			reason = "callback rejected"
		}
		trimmed := truncate(reason, 1024)
		callback.Error = &trimmed
	}

	if err := s.callbacks.Create(ctx, callback); err != nil {
		s.logger.WithError(err).Warn("failed to store gateway callback")
	}
	if s.observer != nil {
		s.observer.ObserveCallback(source, statusLabel)
	}
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
