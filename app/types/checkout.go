package types

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func NewInitiatePaymentRequestFromContext(ctx echo.Context) (*InitiatePaymentRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &InitiatePaymentRequest{OrderId: id}, nil
}

func (r *InitiatePaymentRequest) Validate() error {
	if r.GetOrderId() == 0 {
		return errors.New("invalid order id")
	}
	return nil
}

func NewGetOrderRequestFromContext(ctx echo.Context) (*GetOrderRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &GetOrderRequest{Id: id}, nil
}

func (r *GetOrderRequest) Validate() error {
	if r.GetId() == 0 {
		return errors.New("invalid order id")
	}
	return nil
}

// NewGatewayCallbackRequestFromContext reads order_id from the query and merchantTxId from the
// query or the posted form. The raw query and body are kept as the audit payload.
func NewGatewayCallbackRequestFromContext(ctx echo.Context, source string) (*GatewayCallbackRequest, error) {
	httpReq := ctx.Request()

	var rawBody []byte
	if httpReq.Method == http.MethodPost && httpReq.Body != nil {
		body, err := io.ReadAll(httpReq.Body)
		if err != nil {
			return nil, err
		}
		rawBody = body
	}

	form := url.Values{}
	if len(rawBody) > 0 && strings.HasPrefix(httpReq.Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm) {
		parsed, err := url.ParseQuery(string(rawBody))
		if err != nil {
			return nil, err
		}
		form = parsed
	}

	req := &GatewayCallbackRequest{
		Source:  source,
		Payload: httpReq.URL.RawQuery,
	}
	if len(rawBody) > 0 {
		req.Payload = strings.TrimPrefix(req.Payload+"&"+string(rawBody), "&")
	}

	orderRaw := strings.TrimSpace(ctx.QueryParam("order_id"))
	if orderRaw == "" {
		orderRaw = strings.TrimSpace(form.Get("order_id"))
	}
	if orderRaw != "" {
		id, err := strconv.ParseUint(orderRaw, 10, 64)
		if err != nil {
			return nil, err
		}
		req.OrderId = id
	}

	req.MerchantTxId = strings.TrimSpace(form.Get("merchantTxId"))
	if req.MerchantTxId == "" {
		req.MerchantTxId = strings.TrimSpace(ctx.QueryParam("merchantTxId"))
	}

	return req, nil
}

func (r *GatewayCallbackRequest) Validate() error {
	if r.GetOrderId() == 0 {
		return errors.New("order_id is required")
	}
	return nil
}

func NewOrderOperationRequestFromContext(ctx echo.Context) (*OrderOperationRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}

	var body OrderOperationRequest
	if err = ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	body.OrderId = id
	body.MerchantTxId = strings.TrimSpace(body.MerchantTxId)
	body.Amount = strings.TrimSpace(body.Amount)

	return &body, nil
}

// Validate checks the operation; amountRequired is set for refunds.
func (r *OrderOperationRequest) Validate(amountRequired bool) error {
	if r.GetOrderId() == 0 {
		return errors.New("invalid order id")
	}
	if r.GetAmount() == "" {
		if amountRequired {
			return errors.New("amount is required")
		}
		return nil
	}
	amount, err := decimal.NewFromString(r.GetAmount())
	if err != nil {
		return errors.New("amount must be a decimal number")
	}
	if !amount.IsPositive() {
		return errors.New("amount must be > 0")
	}
	return nil
}

// AmountValue returns the parsed amount, zero when none was given.
func (r *OrderOperationRequest) AmountValue() decimal.Decimal {
	amount, err := decimal.NewFromString(r.GetAmount())
	if err != nil {
		return decimal.Zero
	}
	return amount
}
