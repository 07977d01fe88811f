package grpc

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-cardgateway/app/gateway"
	"github.com/vibast-solutions/ms-go-cardgateway/app/mapper"
	"github.com/vibast-solutions/ms-go-cardgateway/app/reconciler"
	"github.com/vibast-solutions/ms-go-cardgateway/app/service"
	"github.com/vibast-solutions/ms-go-cardgateway/app/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Server struct {
	checkoutService *service.CheckoutService
	env             gateway.Environment
}

func NewServer(checkoutService *service.CheckoutService, env gateway.Environment) *Server {
	return &Server{checkoutService: checkoutService, env: env}
}

func (s *Server) Health(_ context.Context, _ *types.HealthRequest) (*types.HealthResponse, error) {
	return &types.HealthResponse{Status: "ok"}, nil
}

func (s *Server) InitiatePayment(ctx context.Context, req *types.InitiatePaymentRequest) (*types.CheckoutResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	checkout, err := s.checkoutService.InitiatePayment(ctx, req.GetOrderId(), s.env)
	if err != nil {
		return nil, statusFromError(ctx, err, "Initiate payment failed")
	}

	return mapper.CheckoutToResponse(req.GetOrderId(), checkout), nil
}

// ConfirmPayment re-queries the gateway for the order's transaction and applies the result.
func (s *Server) ConfirmPayment(ctx context.Context, req *types.OrderOperationRequest) (*types.OrderEnvelopeResponse, error) {
	if err := req.Validate(false); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	order, err := s.checkoutService.ConfirmPayment(ctx, req.GetOrderId(), req.GetMerchantTxId(), s.env)
	if err != nil {
		return nil, statusFromError(ctx, err, "Confirm payment failed")
	}

	return &types.OrderEnvelopeResponse{Order: mapper.OrderToResponse(order)}, nil
}

func (s *Server) GetOrder(ctx context.Context, req *types.GetOrderRequest) (*types.OrderDetailsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	details, err := s.checkoutService.GetOrder(ctx, req.GetId())
	if err != nil {
		return nil, statusFromError(ctx, err, "Get order failed")
	}

	return mapper.OrderDetailsToResponse(details), nil
}

func (s *Server) Capture(ctx context.Context, req *types.OrderOperationRequest) (*types.OrderEnvelopeResponse, error) {
	if err := req.Validate(false); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	order, err := s.checkoutService.Capture(ctx, req.GetOrderId(), req.GetMerchantTxId(), req.AmountValue(), s.env)
	if err != nil {
		return nil, statusFromError(ctx, err, "Capture failed")
	}

	return &types.OrderEnvelopeResponse{Order: mapper.OrderToResponse(order)}, nil
}

func (s *Server) Void(ctx context.Context, req *types.OrderOperationRequest) (*types.OrderEnvelopeResponse, error) {
	if err := req.Validate(false); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	order, err := s.checkoutService.Void(ctx, req.GetOrderId(), req.GetMerchantTxId(), s.env)
	if err != nil {
		return nil, statusFromError(ctx, err, "Void failed")
	}

	return &types.OrderEnvelopeResponse{Order: mapper.OrderToResponse(order)}, nil
}

func (s *Server) Refund(ctx context.Context, req *types.OrderOperationRequest) (*types.OrderEnvelopeResponse, error) {
	if err := req.Validate(true); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	order, err := s.checkoutService.Refund(ctx, req.GetOrderId(), req.GetMerchantTxId(), req.AmountValue(), s.env)
	if err != nil {
		return nil, statusFromError(ctx, err, "Refund failed")
	}

	return &types.OrderEnvelopeResponse{Order: mapper.OrderToResponse(order)}, nil
}

func (s *Server) ListPaymentSolutions(ctx context.Context, _ *types.ListPaymentSolutionsRequest) (*types.PaymentSolutionsResponse, error) {
	return mapper.PaymentSolutionsToResponse(s.checkoutService.ListPaymentSolutions(ctx, s.env)), nil
}

func statusFromError(ctx context.Context, err error, action string) error {
	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrTransactionMismatch):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrOrderNotFound):
		return status.Error(codes.NotFound, "order not found")
	case errors.Is(err, gateway.ErrNotYetCapturable):
		return status.Error(codes.FailedPrecondition, reconciler.MessageRefundQueued)
	case errors.Is(err, service.ErrOrderNotPayable), errors.Is(err, gateway.ErrDeclined):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, service.ErrOrderConflict):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, gateway.ErrConfiguration):
		loggerWithContext(ctx).WithError(err).Error(action)
		return status.Error(codes.Unavailable, "payment gateway is not configured")
	case errors.Is(err, gateway.ErrTransport), errors.Is(err, gateway.ErrProtocol), errors.Is(err, gateway.ErrTokenRejected):
		loggerWithContext(ctx).WithError(err).Warn(action)
		return status.Error(codes.Unavailable, err.Error())
	default:
		loggerWithContext(ctx).WithError(err).Error(action)
		return status.Error(codes.Internal, "internal server error")
	}
}
