package gateway

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildCheckoutEmbedded(t *testing.T) {
	client := newTestClient("https://gw.example.com", nil)

	checkout, err := client.BuildCheckout(CheckoutRequest{
		Mode:         ModeEmbedded,
		Token:        "tok-abc",
		MerchantTxID: "tx-1",
		ReturnURL:    "https://shop.example.com/gateway/return?order_id=42",
		Language:     "de_DE",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if checkout.Mode != ModeEmbedded || checkout.MerchantTxID != "tx-1" {
		t.Fatalf("unexpected checkout: %+v", checkout)
	}

	for _, fragment := range []string{
		`<form id="mmbForm" method="post" action="https://shop.example.com/gateway/return?order_id=42">`,
		`id="merchantTxId"`,
		`<div id="mmbCashierDiv"></div>`,
		`<script src="https://gw.example.com/js/api.js"></script>`,
		`com.myriadpayments.api.cashier()`,
		`token: "tok-abc"`,
		`merchantId: "merchant-1"`,
		`language: "de"`,
		`successCallback: handleResult`,
		`failureCallback: handleResult`,
		`cancelCallback: handleResult`,
	} {
		if !strings.Contains(checkout.HTML, fragment) {
			t.Fatalf("expected %q in:\n%s", fragment, checkout.HTML)
		}
	}

	// Failure and cancel callbacks must not post the return form.
	guard := strings.Index(checkout.HTML, `if (result == "success") {`)
	submit := strings.Index(checkout.HTML, `document.getElementById("mmbForm").submit();`)
	if guard < 0 || submit < guard {
		t.Fatalf("expected form submit inside the success check:\n%s", checkout.HTML)
	}
	if !strings.Contains(checkout.HTML, `name="merchantTxId" value=""`) {
		t.Fatalf("expected empty merchantTxId field:\n%s", checkout.HTML)
	}
	if strings.Contains(checkout.HTML, `value="tx-1"`) {
		t.Fatalf("merchantTxId must come from the widget result:\n%s", checkout.HTML)
	}
}

func TestBuildCheckoutForms(t *testing.T) {
	client := newTestClient("https://gw.example.com", nil)

	cases := map[Mode]string{
		ModeRedirect:   "standalone",
		ModeHostedPage: "hostedPayPage",
	}
	for mode, marker := range cases {
		checkout, err := client.BuildCheckout(CheckoutRequest{Mode: mode, Token: "tok-abc"})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", mode, err)
		}
		for _, fragment := range []string{
			`method="get" action="https://gw.example.com/ui/cashier"`,
			`name="token" value="tok-abc"`,
			`name="merchantId" value="merchant-1"`,
			`name="integrationMode" value="` + marker + `"`,
		} {
			if !strings.Contains(checkout.HTML, fragment) {
				t.Fatalf("%s: expected %q in:\n%s", mode, fragment, checkout.HTML)
			}
		}
	}
}

func TestBuildCheckoutEscapesValues(t *testing.T) {
	client := newTestClient("https://gw.example.com", nil)
	payload := `"><img src=x onerror=alert(1)>`

	for _, mode := range []Mode{ModeEmbedded, ModeRedirect, ModeHostedPage} {
		checkout, err := client.BuildCheckout(CheckoutRequest{
			Mode:         mode,
			Token:        payload,
			MerchantTxID: payload,
			ReturnURL:    "https://shop.example.com/return?order_id=" + payload,
		})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", mode, err)
		}
		if strings.Contains(checkout.HTML, "<img") {
			t.Fatalf("%s: unescaped markup in:\n%s", mode, checkout.HTML)
		}
	}
}

func TestBuildCheckoutRequiresCredentials(t *testing.T) {
	client := newTestClient("https://gw.example.com", func(cfg *Config) {
		cfg.Sandbox.MerchantID = ""
	})

	_, err := client.BuildCheckout(CheckoutRequest{Env: Environment{Sandbox: true}, Mode: ModeRedirect, Token: "t"})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"":              ModeEmbedded,
		"iframe":        ModeEmbedded,
		"redirect":      ModeRedirect,
		"hostedPayPage": ModeHostedPage,
	}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("popup"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
