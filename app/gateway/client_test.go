package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"
)

type recordedCall struct {
	path   string
	values url.Values
}

type fakeGateway struct {
	mu          sync.Mutex
	calls       []recordedCall
	tokenBody   string
	paymentBody string
	tokenDelay  time.Duration
}

func newFakeGateway(t *testing.T) (*fakeGateway, *httptest.Server) {
	t.Helper()
	gw := &fakeGateway{
		tokenBody:   `{"result":"success","token":"tok-1"}`,
		paymentBody: `{"result":"success","status":"SET_FOR_CAPTURE"}`,
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form failed: %v", err)
		}
		gw.mu.Lock()
		gw.calls = append(gw.calls, recordedCall{path: r.URL.Path, values: r.PostForm})
		tokenBody := gw.tokenBody
		paymentBody := gw.paymentBody
		delay := gw.tokenDelay
		gw.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/token":
			if delay > 0 {
				time.Sleep(delay)
			}
			_, _ = w.Write([]byte(tokenBody))
		case "/payments":
			_, _ = w.Write([]byte(paymentBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return gw, server
}

func (g *fakeGateway) callsTo(path string) []recordedCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]recordedCall, 0, len(g.calls))
	for _, call := range g.calls {
		if call.path == path {
			out = append(out, call)
		}
	}
	return out
}

func testEndpoints(baseURL string) Endpoints {
	return Endpoints{
		TokenURL:   baseURL + "/token",
		PaymentURL: baseURL + "/payments",
		CashierURL: baseURL + "/ui/cashier",
		ScriptURL:  baseURL + "/js/api.js",
	}
}

func newTestClient(baseURL string, mutate func(*Config)) *Client {
	cfg := Config{
		Live:             Credentials{MerchantID: "merchant-1", Password: "secret", BrandID: "brand-1"},
		Sandbox:          Credentials{MerchantID: "sandbox-1", Password: "sandbox-secret", BrandID: "brand-s"},
		LiveEndpoints:    testEndpoints(baseURL),
		SandboxEndpoints: testEndpoints(baseURL),
		OriginURL:        "https://shop.example.com:8443/checkout?step=2",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewClient(cfg, WithClock(func() time.Time { return time.UnixMilli(1700000000123) }))
}

func TestAcquireTokenSendsCredentialsAndOrigin(t *testing.T) {
	gw, server := newFakeGateway(t)
	client := newTestClient(server.URL, nil)

	token, err := client.AcquireToken(context.Background(), Environment{}, ActionGetStatus, url.Values{"merchantTxId": {"tx-1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "tok-1" {
		t.Fatalf("unexpected token: %s", token)
	}

	calls := gw.callsTo("/token")
	if len(calls) != 1 {
		t.Fatalf("expected one token call, got %d", len(calls))
	}
	form := calls[0].values
	expected := map[string]string{
		"merchantId":     "merchant-1",
		"password":       "secret",
		"action":         "GET_STATUS",
		"timestamp":      "1700000000123",
		"allowOriginUrl": "https://shop.example.com:8443",
		"merchantTxId":   "tx-1",
	}
	for key, want := range expected {
		if got := form.Get(key); got != want {
			t.Fatalf("expected %s=%q, got %q", key, want, got)
		}
	}
	if form.Has("brandId") {
		t.Fatal("brandId is only sent for purchase tokens")
	}
}

func TestAcquireTokenUsesSandboxAccount(t *testing.T) {
	gw, server := newFakeGateway(t)
	client := newTestClient(server.URL, nil)

	if _, err := client.AcquireToken(context.Background(), Environment{Sandbox: true}, ActionVoid, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := gw.callsTo("/token")[0].values.Get("merchantId"); got != "sandbox-1" {
		t.Fatalf("expected sandbox merchant, got %q", got)
	}
}

func TestAcquireTokenMissingCredentials(t *testing.T) {
	gw, server := newFakeGateway(t)
	client := newTestClient(server.URL, func(cfg *Config) {
		cfg.Live.Password = ""
	})

	_, err := client.AcquireToken(context.Background(), Environment{}, ActionPurchase, nil)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if len(gw.callsTo("/token")) != 0 {
		t.Fatal("expected no network call without credentials")
	}
}

func TestAcquireTokenRejected(t *testing.T) {
	gw, server := newFakeGateway(t)
	gw.tokenBody = `{"result":"failure","errors":[{"messageCode":"E1","message":"invalid merchant"}]}`
	client := newTestClient(server.URL, nil)

	_, err := client.AcquireToken(context.Background(), Environment{}, ActionPurchase, nil)
	if !errors.Is(err, ErrTokenRejected) {
		t.Fatalf("expected ErrTokenRejected, got %v", err)
	}
}

func TestAcquireTokenProtocolErrors(t *testing.T) {
	for _, body := range []string{"<html>oops</html>", `{}`, `{"token":"tok"}`} {
		gw, server := newFakeGateway(t)
		gw.tokenBody = body
		client := newTestClient(server.URL, nil)

		_, err := client.AcquireToken(context.Background(), Environment{}, ActionPurchase, nil)
		if !errors.Is(err, ErrProtocol) {
			t.Fatalf("body %q: expected ErrProtocol, got %v", body, err)
		}
	}
}

func TestAcquireTokenTimeoutIsTransportError(t *testing.T) {
	gw, server := newFakeGateway(t)
	gw.tokenDelay = 200 * time.Millisecond
	client := newTestClient(server.URL, func(cfg *Config) {
		cfg.HTTPTimeout = 20 * time.Millisecond
	})

	_, err := client.AcquireToken(context.Background(), Environment{}, ActionPurchase, nil)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestAcquireTokenStopsAfterRedirectLimit(t *testing.T) {
	var hops int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hops, 1)
		http.Redirect(w, r, "/token", http.StatusFound)
	}))
	defer server.Close()
	client := newTestClient(server.URL, nil)

	_, err := client.AcquireToken(context.Background(), Environment{}, ActionPurchase, nil)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if got := atomic.LoadInt32(&hops); got != 5 {
		t.Fatalf("expected 5 requests before giving up, got %d", got)
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	_, server := newFakeGateway(t)
	client := newTestClient(server.URL, func(cfg *Config) {
		cfg.RequestsPerSecond = 0.001
	})

	if _, err := client.AcquireToken(context.Background(), Environment{}, ActionVoid, nil); err != nil {
		t.Fatalf("first call should use the burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := client.AcquireToken(ctx, Environment{}, ActionVoid, nil)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport from limiter, got %v", err)
	}
}

type recordingObserver struct {
	calls []string
}

func (o *recordingObserver) ObserveGatewayCall(endpoint, action, result string, _ time.Duration) {
	o.calls = append(o.calls, endpoint+":"+action+":"+result)
}

func TestObserverSeesEveryCall(t *testing.T) {
	_, server := newFakeGateway(t)
	observer := &recordingObserver{}
	client := NewClient(Config{
		Live:          Credentials{MerchantID: "m", Password: "p"},
		LiveEndpoints: testEndpoints(server.URL),
	}, WithObserver(observer))

	client.Execute(context.Background(), Environment{}, Operation{Action: ActionCapture, MerchantTxID: "tx"})
	if len(observer.calls) != 2 {
		t.Fatalf("expected two observed calls, got %v", observer.calls)
	}
	if observer.calls[0] != "token:CAPTURE:ok" || observer.calls[1] != "payment:CAPTURE:ok" {
		t.Fatalf("unexpected observations: %v", observer.calls)
	}
}

func TestNormalizeOrigin(t *testing.T) {
	cases := map[string]string{
		"https://shop.example.com/path?q=1": "https://shop.example.com",
		"http://localhost:8080/":            "http://localhost:8080",
		"not a url":                         "",
		"":                                  "",
	}
	for in, want := range cases {
		if got := NormalizeOrigin(in); got != want {
			t.Fatalf("NormalizeOrigin(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFlattenErrors(t *testing.T) {
	cases := map[string]string{
		`"plain"`: "plain",
		`[{"messageCode":"E1","message":"bad amount"}]`: "bad amount; E1",
		`{"field":"amount"}`: "amount",
		``:                   "",
	}
	for in, want := range cases {
		if got := flattenErrors([]byte(in)); got != want {
			t.Fatalf("flattenErrors(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestLanguageCode(t *testing.T) {
	cases := []struct {
		locale string
		want   string
	}{
		{"en_US", "en"},
		{" DE_de ", "de"},
		{"fr", "fr"},
		{"x", "en"},
		{"", "en"},
		{"ελ_GR", "ελ"},
	}

	for _, tc := range cases {
		got := LanguageCode(tc.locale)
		if got != tc.want {
			t.Fatalf("LanguageCode(%q) = %q, want %q", tc.locale, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("LanguageCode(%q) returned invalid utf-8 %q", tc.locale, got)
		}
	}
}
