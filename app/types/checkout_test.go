package types

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestNewGatewayCallbackRequestFromForm(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/gateway/return?order_id=42", bytes.NewBufferString("merchantTxId=+tx-1+&status=SUCCESS"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	ctx := e.NewContext(req, httptest.NewRecorder())

	parsed, err := NewGatewayCallbackRequestFromContext(ctx, "return")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if parsed.GetOrderId() != 42 {
		t.Fatalf("expected order 42, got %d", parsed.GetOrderId())
	}
	if parsed.GetMerchantTxId() != "tx-1" {
		t.Fatalf("expected trimmed merchant tx id, got %q", parsed.GetMerchantTxId())
	}
	if parsed.GetPayload() != "order_id=42&merchantTxId=+tx-1+&status=SUCCESS" {
		t.Fatalf("unexpected payload: %q", parsed.GetPayload())
	}
	if parsed.GetSource() != "return" {
		t.Fatalf("unexpected source: %q", parsed.GetSource())
	}
}

func TestNewGatewayCallbackRequestFromQuery(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/gateway/notify?order_id=7&merchantTxId=tx-9", nil)
	ctx := e.NewContext(req, httptest.NewRecorder())

	parsed, err := NewGatewayCallbackRequestFromContext(ctx, "notify")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if parsed.GetOrderId() != 7 || parsed.GetMerchantTxId() != "tx-9" {
		t.Fatalf("unexpected request: %+v", parsed)
	}
}

func TestGatewayCallbackRequestValidate(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/gateway/notify", nil)
	ctx := e.NewContext(req, httptest.NewRecorder())

	parsed, err := NewGatewayCallbackRequestFromContext(ctx, "notify")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := parsed.Validate(); err == nil {
		t.Fatal("expected order_id validation error")
	}

	req = httptest.NewRequest(http.MethodGet, "/gateway/notify?order_id=abc", nil)
	ctx = e.NewContext(req, httptest.NewRecorder())
	if _, err := NewGatewayCallbackRequestFromContext(ctx, "notify"); err == nil {
		t.Fatal("expected parse error for non numeric order id")
	}
}

func TestNewOrderOperationRequestFromContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/orders/42/refund", bytes.NewBufferString(`{"merchant_tx_id":" tx-1 ","amount":"12.50"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	ctx := e.NewContext(req, httptest.NewRecorder())
	ctx.SetParamNames("id")
	ctx.SetParamValues("42")

	parsed, err := NewOrderOperationRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if parsed.GetOrderId() != 42 || parsed.GetMerchantTxId() != "tx-1" {
		t.Fatalf("unexpected request: %+v", parsed)
	}
	if err := parsed.Validate(true); err != nil {
		t.Fatalf("expected valid refund, got %v", err)
	}
	if parsed.AmountValue().String() != "12.5" {
		t.Fatalf("unexpected amount: %s", parsed.AmountValue())
	}
}

func TestOrderOperationRequestValidate(t *testing.T) {
	cases := []struct {
		name           string
		req            *OrderOperationRequest
		amountRequired bool
		wantErr        bool
	}{
		{"missing order", &OrderOperationRequest{}, false, true},
		{"capture without amount", &OrderOperationRequest{OrderId: 1}, false, false},
		{"refund without amount", &OrderOperationRequest{OrderId: 1}, true, true},
		{"not a number", &OrderOperationRequest{OrderId: 1, Amount: "ten"}, false, true},
		{"negative", &OrderOperationRequest{OrderId: 1, Amount: "-1"}, true, true},
		{"zero", &OrderOperationRequest{OrderId: 1, Amount: "0"}, true, true},
		{"valid", &OrderOperationRequest{OrderId: 1, Amount: "0.01"}, true, false},
	}

	for _, tc := range cases {
		err := tc.req.Validate(tc.amountRequired)
		if (err != nil) != tc.wantErr {
			t.Fatalf("%s: expected error=%v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestNewInitiatePaymentRequestFromContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/orders/x/checkout", nil)
	ctx := e.NewContext(req, httptest.NewRecorder())
	ctx.SetParamNames("id")
	ctx.SetParamValues("x")

	if _, err := NewInitiatePaymentRequestFromContext(ctx); err == nil {
		t.Fatal("expected parse error")
	}
	if err := (&InitiatePaymentRequest{}).Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}
