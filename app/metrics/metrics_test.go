package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read metrics failed: %v", err)
	}
	return string(body)
}

func TestMetricsSeries(t *testing.T) {
	m := New()
	m.ObserveGatewayCall("token", "PURCHASE", "ok", 120*time.Millisecond)
	m.ObserveGatewayCall("token", "PURCHASE", "ok", 80*time.Millisecond)
	m.ObserveTransition("confirm", "pending", "completed")
	m.ObserveCallback("return", "rejected")

	body := scrape(t, m)
	for _, series := range []string{
		`cardgateway_gateway_requests_total{action="PURCHASE",endpoint="token",result="ok"} 2`,
		`cardgateway_gateway_request_duration_seconds_count{action="PURCHASE",endpoint="token"} 2`,
		`cardgateway_order_transitions_total{from="pending",operation="confirm",to="completed"} 1`,
		`cardgateway_gateway_callbacks_total{source="return",status="rejected"} 1`,
	} {
		if !strings.Contains(body, series) {
			t.Fatalf("expected %s in output:\n%s", series, body)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveGatewayCall("token", "VOID", "ok", time.Second)
	m.ObserveTransition("void", "on-hold", "cancelled")
	m.ObserveCallback("notify", "processed")
}
