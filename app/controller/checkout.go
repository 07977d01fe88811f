package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-cardgateway/app/factory"
	"github.com/vibast-solutions/ms-go-cardgateway/app/gateway"
	"github.com/vibast-solutions/ms-go-cardgateway/app/mapper"
	"github.com/vibast-solutions/ms-go-cardgateway/app/reconciler"
	"github.com/vibast-solutions/ms-go-cardgateway/app/service"
	"github.com/vibast-solutions/ms-go-cardgateway/app/storefront"
	"github.com/vibast-solutions/ms-go-cardgateway/app/types"
)

type CheckoutController struct {
	checkoutService *service.CheckoutService
	storefront      storefront.Context
	env             gateway.Environment
	logger          logrus.FieldLogger
}

func NewCheckoutController(checkoutService *service.CheckoutService, storefrontCtx storefront.Context, env gateway.Environment) *CheckoutController {
	return &CheckoutController{
		checkoutService: checkoutService,
		storefront:      storefrontCtx,
		env:             env,
		logger:          factory.NewModuleLogger("checkout-controller"),
	}
}

func (c *CheckoutController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *CheckoutController) InitiatePayment(ctx echo.Context) error {
	req, err := types.NewInitiatePaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	checkout, err := c.checkoutService.InitiatePayment(ctx.Request().Context(), req.GetOrderId(), c.env)
	if err != nil {
		return c.writeServiceError(ctx, err, "Initiate payment failed")
	}

	return ctx.JSON(http.StatusCreated, mapper.CheckoutToResponse(req.GetOrderId(), checkout))
}

// GatewayNotify acknowledges a gateway notification once the order has been reconciled.
func (c *CheckoutController) GatewayNotify(ctx echo.Context) error {
	req, err := types.NewGatewayCallbackRequestFromContext(ctx, "notify")
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	_, err = c.checkoutService.HandleGatewayCallback(ctx.Request().Context(), req, c.env)
	if err != nil {
		logger := factory.LoggerWithContext(c.logger, ctx).WithError(err).WithField("order_id", req.GetOrderId())
		if !acknowledged(err) {
			logger.Error("Gateway notification failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
		logger.Warn("Gateway notification did not settle the order")
	}

	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "Notification processed"})
}

// GatewayReturn reconciles the order a shopper comes back with and sends them to the shop landing page.
func (c *CheckoutController) GatewayReturn(ctx echo.Context) error {
	req, err := types.NewGatewayCallbackRequestFromContext(ctx, "return")
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	if _, err := c.checkoutService.HandleGatewayCallback(ctx.Request().Context(), req, c.env); err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).WithField("order_id", req.GetOrderId()).
			Warn("Shopper return did not settle the order")
	}

	return ctx.Redirect(http.StatusFound, c.storefront.ShopLandingURL(req.GetOrderId()))
}

func (c *CheckoutController) GetOrder(ctx echo.Context) error {
	req, err := types.NewGetOrderRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	details, err := c.checkoutService.GetOrder(ctx.Request().Context(), req.GetId())
	if err != nil {
		return c.writeServiceError(ctx, err, "Get order failed")
	}

	return ctx.JSON(http.StatusOK, mapper.OrderDetailsToResponse(details))
}

func (c *CheckoutController) Capture(ctx echo.Context) error {
	req, err := types.NewOrderOperationRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(false); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	order, err := c.checkoutService.Capture(ctx.Request().Context(), req.GetOrderId(), req.GetMerchantTxId(), req.AmountValue(), c.env)
	if err != nil {
		return c.writeServiceError(ctx, err, "Capture failed")
	}

	return ctx.JSON(http.StatusOK, &types.OrderEnvelopeResponse{Order: mapper.OrderToResponse(order)})
}

func (c *CheckoutController) Void(ctx echo.Context) error {
	req, err := types.NewOrderOperationRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(false); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	order, err := c.checkoutService.Void(ctx.Request().Context(), req.GetOrderId(), req.GetMerchantTxId(), c.env)
	if err != nil {
		return c.writeServiceError(ctx, err, "Void failed")
	}

	return ctx.JSON(http.StatusOK, &types.OrderEnvelopeResponse{Order: mapper.OrderToResponse(order)})
}

func (c *CheckoutController) Refund(ctx echo.Context) error {
	req, err := types.NewOrderOperationRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(true); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	order, err := c.checkoutService.Refund(ctx.Request().Context(), req.GetOrderId(), req.GetMerchantTxId(), req.AmountValue(), c.env)
	if err != nil {
		return c.writeServiceError(ctx, err, "Refund failed")
	}

	return ctx.JSON(http.StatusOK, &types.OrderEnvelopeResponse{Order: mapper.OrderToResponse(order)})
}

func (c *CheckoutController) ListPaymentSolutions(ctx echo.Context) error {
	catalog := c.checkoutService.ListPaymentSolutions(ctx.Request().Context(), c.env)
	return ctx.JSON(http.StatusOK, mapper.PaymentSolutionsToResponse(catalog))
}

func (c *CheckoutController) writeServiceError(ctx echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrTransactionMismatch):
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrOrderNotFound):
		return c.writeError(ctx, http.StatusNotFound, "order not found")
	case errors.Is(err, service.ErrOrderNotPayable), errors.Is(err, service.ErrOrderConflict):
		return c.writeError(ctx, http.StatusConflict, err.Error())
	case errors.Is(err, gateway.ErrNotYetCapturable):
		return c.writeError(ctx, http.StatusConflict, reconciler.MessageRefundQueued)
	case errors.Is(err, gateway.ErrDeclined):
		return c.writeError(ctx, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, gateway.ErrConfiguration):
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error(action)
		return c.writeError(ctx, http.StatusServiceUnavailable, "payment gateway is not configured")
	case errors.Is(err, gateway.ErrTransport), errors.Is(err, gateway.ErrProtocol), errors.Is(err, gateway.ErrTokenRejected):
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Warn(action)
		return c.writeError(ctx, http.StatusBadGateway, err.Error())
	default:
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error(action)
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}
}

func (c *CheckoutController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}

// acknowledged reports whether a notification error is a settled answer the gateway should not retry.
func acknowledged(err error) bool {
	return errors.Is(err, service.ErrOrderNotFound) ||
		errors.Is(err, service.ErrInvalidRequest) ||
		errors.Is(err, service.ErrTransactionMismatch) ||
		errors.Is(err, service.ErrOrderConflict) ||
		errors.Is(err, gateway.ErrDeclined) ||
		errors.Is(err, gateway.ErrConfiguration) ||
		errors.Is(err, gateway.ErrTokenRejected) ||
		errors.Is(err, gateway.ErrTransport) ||
		errors.Is(err, gateway.ErrProtocol)
}
