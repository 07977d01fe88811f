package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-cardgateway/app/cache"
	"github.com/vibast-solutions/ms-go-cardgateway/app/entity"
	"github.com/vibast-solutions/ms-go-cardgateway/app/factory"
	"github.com/vibast-solutions/ms-go-cardgateway/app/gateway"
	"github.com/vibast-solutions/ms-go-cardgateway/app/reconciler"
	"github.com/vibast-solutions/ms-go-cardgateway/app/repository"
	"github.com/vibast-solutions/ms-go-cardgateway/app/storefront"
	"github.com/vibast-solutions/ms-go-cardgateway/config"
)

const defaultBatchSize = int32(100)

type orderStore interface {
	FindByID(ctx context.Context, id uint64) (*entity.Order, error)
	Save(ctx context.Context, order *entity.Order, expectedStatus string) error
}

type orderNoteStore interface {
	Create(ctx context.Context, note *entity.OrderNote) error
	ListByOrder(ctx context.Context, orderID uint64) ([]*entity.OrderNote, error)
}

type transactionStore interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	Update(ctx context.Context, tx *entity.Transaction) error
	FindByMerchantTxID(ctx context.Context, merchantTxID string) (*entity.Transaction, error)
	FindLatestByOrder(ctx context.Context, orderID uint64) (*entity.Transaction, error)
	ListByOrder(ctx context.Context, orderID uint64) ([]*entity.Transaction, error)
	ListUnconfirmed(ctx context.Context, after, before time.Time, limit int32) ([]*entity.Transaction, error)
}

type transactionEventStore interface {
	Create(ctx context.Context, event *entity.TransactionEvent) error
}

type gatewayCallbackStore interface {
	Create(ctx context.Context, callback *entity.GatewayCallback) error
}

type gatewayClient interface {
	Configured(env gateway.Environment) error
	AcquirePurchaseToken(ctx context.Context, env gateway.Environment, req gateway.PurchaseRequest) (string, error)
	BuildCheckout(req gateway.CheckoutRequest) (*gateway.Checkout, error)
	Execute(ctx context.Context, env gateway.Environment, op gateway.Operation) *gateway.ExecutionResult
	ListPaymentSolutions(ctx context.Context, env gateway.Environment, currency, country string) (map[string]string, error)
}

type storefrontHooks interface {
	ReduceStock(ctx context.Context, orderID uint64) error
	EmptyCart(ctx context.Context, orderID uint64) error
	PaymentComplete(ctx context.Context, orderID uint64) error
}

type catalogCache interface {
	Get(ctx context.Context, key string) (map[string]string, bool)
	Set(ctx context.Context, key string, catalog map[string]string)
}

type checkoutObserver interface {
	ObserveTransition(operation, from, to string)
	ObserveCallback(source, status string)
}

type CheckoutConfig struct {
	Mode     gateway.Mode
	AuthOnly bool
	Payments config.PaymentsConfig
}

// OrderDetails is an order together with its notes and gateway transactions.
type OrderDetails struct {
	Order        *entity.Order
	Notes        []*entity.OrderNote
	Transactions []*entity.Transaction
}

type CheckoutService struct {
	orders       orderStore
	notes        orderNoteStore
	transactions transactionStore
	events       transactionEventStore
	callbacks    gatewayCallbackStore
	client       gatewayClient
	hooks        storefrontHooks
	storefront   storefront.Context
	cfg          CheckoutConfig

	catalog  catalogCache
	observer checkoutObserver
	logger   logrus.FieldLogger
	now      func() time.Time
}

func NewCheckoutService(
	orders orderStore,
	notes orderNoteStore,
	transactions transactionStore,
	events transactionEventStore,
	callbacks gatewayCallbackStore,
	client gatewayClient,
	hooks storefrontHooks,
	storefrontCtx storefront.Context,
	cfg CheckoutConfig,
) *CheckoutService {
	if cfg.Mode == "" {
		cfg.Mode = gateway.ModeEmbedded
	}

	return &CheckoutService{
		orders:       orders,
		notes:        notes,
		transactions: transactions,
		events:       events,
		callbacks:    callbacks,
		client:       client,
		hooks:        hooks,
		storefront:   storefrontCtx,
		cfg:          cfg,
		logger:       factory.NewModuleLogger("checkout"),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *CheckoutService) SetCatalogCache(catalog catalogCache) {
	s.catalog = catalog
}

func (s *CheckoutService) SetObserver(observer checkoutObserver) {
	s.observer = observer
}

// InitiatePayment acquires a checkout token for the order and renders the configured checkout artifact.
func (s *CheckoutService) InitiatePayment(ctx context.Context, orderID uint64, env gateway.Environment) (*gateway.Checkout, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.OrderStatusPending && order.Status != entity.OrderStatusFailed {
		return nil, ErrOrderNotPayable
	}
	if err := s.client.Configured(env); err != nil {
		return nil, err
	}

	action := s.checkoutAction()
	currency := order.Currency
	if currency == "" {
		currency = s.storefront.Currency
	}
	merchantTxID := uuid.NewString()

	token, err := s.client.AcquirePurchaseToken(ctx, env, gateway.PurchaseRequest{
		Action:          action,
		MerchantTxID:    merchantTxID,
		Amount:          order.Total,
		Currency:        currency,
		Country:         s.storefront.BaseCountry,
		Language:        gateway.LanguageCode(s.storefront.Locale),
		NotificationURL: s.storefront.NotificationURL(order.ID),
		LandingURL:      s.storefront.ReturnURL(order.ID),
		FirstName:       order.Billing.FirstName,
		LastName:        order.Billing.LastName,
		Street:          order.Billing.Street,
		City:            order.Billing.City,
		PostalCode:      order.Billing.PostalCode,
		BillingCountry:  order.Billing.Country,
	})
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("checkout token request failed")
		return nil, err
	}

	checkout, err := s.client.BuildCheckout(gateway.CheckoutRequest{
		Env:          env,
		Mode:         s.cfg.Mode,
		Token:        token,
		MerchantTxID: merchantTxID,
		ReturnURL:    s.storefront.ReturnURL(order.ID),
		Language:     s.storefront.Locale,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	tx := &entity.Transaction{
		MerchantTxID: merchantTxID,
		OrderID:      order.ID,
		Action:       string(action),
		Amount:       order.Total,
		Currency:     currency,
		Environment:  env.Name(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, err
	}
	s.recordEvent(ctx, tx, "transaction_created", "", nil)

	return checkout, nil
}

// ConfirmPayment asks the gateway for the transaction status and settles the order accordingly.
// An order that is already settled is returned untouched.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, orderID uint64, merchantTxID string, env gateway.Environment) (*entity.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Settled() {
		return order, nil
	}

	tx, txID, err := s.resolveTransaction(ctx, order, merchantTxID)
	if err != nil {
		return nil, err
	}

	result := s.client.Execute(ctx, env, gateway.Operation{Action: gateway.ActionGetStatus, MerchantTxID: txID})
	plan := reconciler.Reconcile(reconciler.Input{
		Context:       reconciler.ContextConfirm,
		Result:        result,
		CurrentStatus: order.Status,
		OrderTotal:    order.Total,
	})

	if tx == nil && plan.TransactionStatus != "" {
		// The gateway generated the id, so the first confirmation creates the record.
		now := s.now()
		tx = &entity.Transaction{
			MerchantTxID: result.MerchantTxID,
			OrderID:      order.ID,
			Action:       string(s.checkoutAction()),
			Amount:       order.Total,
			Currency:     order.Currency,
			Environment:  env.Name(),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.transactions.Create(ctx, tx); err != nil && !errors.Is(err, repository.ErrTransactionExists) {
			return nil, err
		}
	}

	if err := s.apply(ctx, reconciler.ContextConfirm, order, tx, plan, result); err != nil {
		return nil, err
	}

	switch result.Outcome {
	case gateway.OutcomeApproved, gateway.OutcomeOnHold, gateway.OutcomeDeclined:
		return order, nil
	default:
		return order, resultError(result)
	}
}

// Capture settles a previously authorized transaction. A zero amount captures the authorized amount.
func (s *CheckoutService) Capture(ctx context.Context, orderID uint64, merchantTxID string, amount decimal.Decimal, env gateway.Environment) (*entity.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	tx, txID, err := s.resolveTransaction(ctx, order, merchantTxID)
	if err != nil {
		return nil, err
	}

	if amount.IsNegative() {
		return nil, ErrInvalidRequest
	}
	if amount.IsZero() {
		amount = order.Total
		if tx != nil {
			amount = tx.Amount
		}
	}

	result := s.client.Execute(ctx, env, gateway.Operation{Action: gateway.ActionCapture, MerchantTxID: txID, Amount: &amount})
	plan := reconciler.Reconcile(reconciler.Input{
		Context:       reconciler.ContextCapture,
		Result:        result,
		CurrentStatus: order.Status,
		OrderTotal:    order.Total,
		Amount:        amount,
	})
	if err := s.apply(ctx, reconciler.ContextCapture, order, tx, plan, result); err != nil {
		return nil, err
	}

	return order, resultError(result)
}

func (s *CheckoutService) Void(ctx context.Context, orderID uint64, merchantTxID string, env gateway.Environment) (*entity.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	tx, txID, err := s.resolveTransaction(ctx, order, merchantTxID)
	if err != nil {
		return nil, err
	}

	result := s.client.Execute(ctx, env, gateway.Operation{Action: gateway.ActionVoid, MerchantTxID: txID})
	plan := reconciler.Reconcile(reconciler.Input{
		Context:       reconciler.ContextVoid,
		Result:        result,
		CurrentStatus: order.Status,
		OrderTotal:    order.Total,
	})
	if err := s.apply(ctx, reconciler.ContextVoid, order, tx, plan, result); err != nil {
		return nil, err
	}

	return order, resultError(result)
}

// Refund returns amount to the shopper. The order becomes refunded once the whole transaction amount is returned.
func (s *CheckoutService) Refund(ctx context.Context, orderID uint64, merchantTxID string, amount decimal.Decimal, env gateway.Environment) (*entity.Order, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidRequest
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	tx, txID, err := s.resolveTransaction(ctx, order, merchantTxID)
	if err != nil {
		return nil, err
	}

	total := order.Total
	refundedBefore := decimal.Zero
	if tx != nil {
		total = tx.Amount
		refundedBefore = tx.RefundedAmount
	}
	if total.IsPositive() && refundedBefore.Add(amount).GreaterThan(total) {
		return nil, ErrInvalidRequest
	}

	result := s.client.Execute(ctx, env, gateway.Operation{Action: gateway.ActionRefund, MerchantTxID: txID, Amount: &amount})
	plan := reconciler.Reconcile(reconciler.Input{
		Context:        reconciler.ContextRefund,
		Result:         result,
		CurrentStatus:  order.Status,
		OrderTotal:     total,
		RefundedBefore: refundedBefore,
		Amount:         amount,
	})
	if err := s.apply(ctx, reconciler.ContextRefund, order, tx, plan, result); err != nil {
		return nil, err
	}

	return order, resultError(result)
}

// ListPaymentSolutions returns the payment methods the gateway offers for the storefront currency and
// country. Failures yield an empty catalog.
func (s *CheckoutService) ListPaymentSolutions(ctx context.Context, env gateway.Environment) map[string]string {
	key := cache.CatalogKey(env.Name(), s.storefront.Currency, s.storefront.BaseCountry)
	if s.catalog != nil {
		if catalog, ok := s.catalog.Get(ctx, key); ok {
			return catalog
		}
	}

	catalog, err := s.client.ListPaymentSolutions(ctx, env, s.storefront.Currency, s.storefront.BaseCountry)
	if err != nil {
		s.logger.WithError(err).Warn("payment solutions lookup failed")
		return map[string]string{}
	}

	if s.catalog != nil {
		s.catalog.Set(ctx, key, catalog)
	}
	return catalog
}

func (s *CheckoutService) GetOrder(ctx context.Context, id uint64) (*OrderDetails, error) {
	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	notes, err := s.notes.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.transactions.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	return &OrderDetails{Order: order, Notes: notes, Transactions: transactions}, nil
}

func (s *CheckoutService) loadOrder(ctx context.Context, id uint64) (*entity.Order, error) {
	if id == 0 {
		return nil, ErrInvalidRequest
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Metadata == nil {
		order.Metadata = map[string]string{}
	}
	return order, nil
}

// resolveTransaction picks the transaction an operation targets: the given id, the id stored on the
// order, or the latest transaction of the order. The record may be nil when only the id is known.
func (s *CheckoutService) resolveTransaction(ctx context.Context, order *entity.Order, merchantTxID string) (*entity.Transaction, string, error) {
	id := strings.TrimSpace(merchantTxID)
	if id == "" {
		id = strings.TrimSpace(order.Metadata[entity.MetaTransactionID])
	}

	if id != "" {
		tx, err := s.transactions.FindByMerchantTxID(ctx, id)
		if err != nil {
			return nil, "", err
		}
		if tx != nil && tx.OrderID != order.ID {
			return nil, "", ErrTransactionMismatch
		}
		return tx, id, nil
	}

	tx, err := s.transactions.FindLatestByOrder(ctx, order.ID)
	if err != nil {
		return nil, "", err
	}
	if tx == nil {
		return nil, "", ErrInvalidRequest
	}
	return tx, tx.MerchantTxID, nil
}

// apply persists plan. Order fields are written with a conditional save; notes, the transaction record
// and storefront hooks follow only when that save wins.
func (s *CheckoutService) apply(
	ctx context.Context,
	op reconciler.Context,
	order *entity.Order,
	tx *entity.Transaction,
	plan reconciler.Plan,
	result *gateway.ExecutionResult,
) error {
	logger := s.logger.WithFields(logrus.Fields{
		"order_id":  order.ID,
		"operation": op.String(),
		"outcome":   outcomeName(result),
	})

	if plan.Duplicate {
		logger.Info("order already reconciled, duplicate confirmation ignored")
		return nil
	}

	now := s.now()
	previous := order.Status
	if plan.Changes() {
		if plan.Transition != "" {
			order.Status = plan.Transition
		}
		if plan.PaymentStatus != "" {
			order.Metadata[entity.MetaPaymentStatus] = plan.PaymentStatus
		}
		if plan.StoreTransactionID && result.MerchantTxID != "" {
			order.Metadata[entity.MetaTransactionID] = result.MerchantTxID
		}
		if plan.MarkPaid && order.PaidAt == nil {
			paidAt := now
			order.PaidAt = &paidAt
		}
		if plan.Message != nil {
			text := plan.Message.Text
			kind := plan.Message.Kind
			order.Message = &text
			order.MessageKind = &kind
		}
		order.UpdatedAt = now

		if err := s.orders.Save(ctx, order, previous); err != nil {
			switch {
			case errors.Is(err, repository.ErrOrderConflict):
				logger.Warn("order changed concurrently, side effects skipped")
				return ErrOrderConflict
			case errors.Is(err, repository.ErrOrderNotFound):
				return ErrOrderNotFound
			default:
				return err
			}
		}

		for _, text := range plan.Notes {
			note := &entity.OrderNote{OrderID: order.ID, Note: text, CreatedAt: now}
			if err := s.notes.Create(ctx, note); err != nil {
				logger.WithError(err).Warn("failed to store order note")
			}
		}
	}

	if tx != nil {
		s.updateTransaction(ctx, op, tx, plan, result, now, logger)
	}

	if plan.Transition != "" && s.observer != nil {
		s.observer.ObserveTransition(op.String(), previous, order.Status)
	}

	if plan.ReduceStock {
		if err := s.hooks.ReduceStock(ctx, order.ID); err != nil {
			logger.WithError(err).Error("reduce stock hook failed")
		}
	}
	if plan.EmptyCart {
		if err := s.hooks.EmptyCart(ctx, order.ID); err != nil {
			logger.WithError(err).Error("empty cart hook failed")
		}
	}
	if plan.PaymentComplete {
		if err := s.hooks.PaymentComplete(ctx, order.ID); err != nil {
			logger.WithError(err).Error("payment complete hook failed")
		}
	}

	return nil
}

func (s *CheckoutService) updateTransaction(
	ctx context.Context,
	op reconciler.Context,
	tx *entity.Transaction,
	plan reconciler.Plan,
	result *gateway.ExecutionResult,
	now time.Time,
	logger logrus.FieldLogger,
) {
	if plan.TransactionStatus == "" && plan.RefundedDelta.IsZero() {
		return
	}

	oldStatus := tx.Status
	if plan.TransactionStatus != "" {
		tx.Status = plan.TransactionStatus
	}
	tx.RefundedAmount = tx.RefundedAmount.Add(plan.RefundedDelta)
	tx.UpdatedAt = now

	if err := s.transactions.Update(ctx, tx); err != nil {
		logger.WithError(err).Warn("failed to update transaction record")
		return
	}
	s.recordEvent(ctx, tx, transactionEventType(op), oldStatus, result)
}

type eventPayload struct {
	Outcome string `json:"outcome"`
	Status  string `json:"status,omitempty"`
	Errors  string `json:"errors,omitempty"`
}

func (s *CheckoutService) recordEvent(ctx context.Context, tx *entity.Transaction, eventType, oldStatus string, result *gateway.ExecutionResult) {
	var oldStatusPtr *string
	if oldStatus != "" && oldStatus != tx.Status {
		oldStatusPtr = &oldStatus
	}

	var payloadPtr *string
	if result != nil {
		payload, err := json.Marshal(eventPayload{
			Outcome: result.Outcome.String(),
			Status:  string(result.Status),
			Errors:  result.Errors,
		})
		if err == nil {
			payloadJSON := string(payload)
			payloadPtr = &payloadJSON
		}
	}

	_ = s.events.Create(ctx, &entity.TransactionEvent{
		TransactionID: tx.ID,
		EventType:     eventType,
		OldStatus:     oldStatusPtr,
		NewStatus:     tx.Status,
		PayloadJSON:   payloadPtr,
		CreatedAt:     s.now(),
	})
}

func (s *CheckoutService) checkoutAction() gateway.Action {
	if s.cfg.AuthOnly {
		return gateway.ActionAuth
	}
	return gateway.ActionPurchase
}

func (s *CheckoutService) batchSize() int32 {
	if s.cfg.Payments.JobBatchSize <= 0 {
		return defaultBatchSize
	}
	return s.cfg.Payments.JobBatchSize
}

func transactionEventType(op reconciler.Context) string {
	switch op {
	case reconciler.ContextConfirm:
		return "transaction_confirmed"
	case reconciler.ContextCapture:
		return "transaction_captured"
	case reconciler.ContextVoid:
		return "transaction_voided"
	case reconciler.ContextRefund:
		return "transaction_refunded"
	default:
		return "transaction_updated"
	}
}

// resultError maps a gateway result onto the operation error; nil when the gateway approved.
func resultError(result *gateway.ExecutionResult) error {
	if result == nil {
		return gateway.ErrProtocol
	}
	switch result.Outcome {
	case gateway.OutcomeApproved, gateway.OutcomeOnHold:
		return nil
	}
	if result.Err != nil {
		return result.Err
	}
	return gateway.ErrDeclined
}

func outcomeName(result *gateway.ExecutionResult) string {
	if result == nil {
		return "none"
	}
	return result.Outcome.String()
}
