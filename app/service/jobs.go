package service

import (
	"context"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-cardgateway/app/entity"
	"github.com/vibast-solutions/ms-go-cardgateway/app/gateway"
)

// reconcileMaxAge bounds how long an unconfirmed checkout keeps being polled.
const reconcileMaxAge = 24 * time.Hour

// RunReconcileBatch re-confirms checkout transactions the gateway never reported back on.
func (s *CheckoutService) RunReconcileBatch(ctx context.Context) error {
	now := s.now()
	items, err := s.transactions.ListUnconfirmed(ctx, now.Add(-reconcileMaxAge), now.Add(-s.cfg.Payments.ReconcileStaleAfter), s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, tx := range items {
		if tx == nil || tx.MerchantTxID == "" {
			continue
		}

		env := gateway.Environment{Sandbox: tx.Environment == entity.EnvironmentSandbox}
		if _, err := s.ConfirmPayment(ctx, tx.OrderID, tx.MerchantTxID, env); err != nil && !errors.Is(err, gateway.ErrDeclined) {
			s.logger.WithError(err).WithField("merchant_tx_id", tx.MerchantTxID).Warn("reconcile confirmation failed")
			firstErr = keepFirstErr(firstErr, err)
		}

		if err := s.touchUnconfirmed(ctx, tx.MerchantTxID); err != nil {
			firstErr = keepFirstErr(firstErr, err)
		}
	}

	return firstErr
}

// touchUnconfirmed moves a still unreported transaction to the back of the polling queue.
func (s *CheckoutService) touchUnconfirmed(ctx context.Context, merchantTxID string) error {
	current, err := s.transactions.FindByMerchantTxID(ctx, merchantTxID)
	if err != nil || current == nil || current.Status != "" {
		return err
	}
	current.UpdatedAt = s.now()
	return s.transactions.Update(ctx, current)
}

func keepFirstErr(current error, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
