package gateway

import (
	"bytes"
	"fmt"
	"html/template"
)

var embeddedTemplate = template.Must(template.New("embedded").Parse(`<form id="mmbForm" method="post" action="{{.ReturnURL}}">
<input type="hidden" id="merchantTxId" name="merchantTxId" value="">
</form>
<div id="mmbCashierDiv"></div>
<script src="{{.ScriptURL}}"></script>
<script>
function handleResult(result, data) {
	if (result == "success") {
		document.getElementById("merchantTxId").value = data.merchantTxId;
		document.getElementById("mmbForm").submit();
	}
}
var cashier = com.myriadpayments.api.cashier();
cashier.init({baseUrl: {{.CashierURL}}});
cashier.show({
	containerId: "mmbCashierDiv",
	token: {{.Token}},
	merchantId: {{.MerchantID}},
	language: {{.Language}},
	integrationMode: "iframe",
	successCallback: handleResult,
	failureCallback: handleResult,
	cancelCallback: handleResult
});
</script>
`))

var formTemplate = template.Must(template.New("form").Parse(`<form id="mmbPaymentForm" method="get" action="{{.CashierURL}}">
<input type="hidden" name="token" value="{{.Token}}">
<input type="hidden" name="merchantId" value="{{.MerchantID}}">
<input type="hidden" name="integrationMode" value="{{.IntegrationMode}}">
<input type="submit" class="button alt" id="submit_mmb_payment_form" value="Pay with BOIPA">
</form>
`))

type CheckoutRequest struct {
	Env          Environment
	Mode         Mode
	Token        string
	MerchantTxID string
	// ReturnURL receives the embedded widget's callback form and carries the order id.
	ReturnURL string
	Language  string
}

type Checkout struct {
	Mode         Mode
	HTML         string
	MerchantTxID string
}

type checkoutView struct {
	ReturnURL       string
	ScriptURL       string
	CashierURL      string
	Token           string
	MerchantID      string
	Language        string
	IntegrationMode string
}

// BuildCheckout renders the checkout artifact for req.Mode. All values are contextually escaped.
func (c *Client) BuildCheckout(req CheckoutRequest) (*Checkout, error) {
	if err := c.Configured(req.Env); err != nil {
		return nil, err
	}

	endpoints := c.endpoints(req.Env)
	view := checkoutView{
		ReturnURL:       req.ReturnURL,
		ScriptURL:       endpoints.ScriptURL,
		CashierURL:      endpoints.CashierURL,
		Token:           req.Token,
		MerchantID:      c.credentials(req.Env).MerchantID,
		Language:        LanguageCode(req.Language),
		IntegrationMode: req.Mode.integrationMode(),
	}

	tmpl := formTemplate
	switch req.Mode {
	case ModeEmbedded:
		tmpl = embeddedTemplate
	case ModeRedirect, ModeHostedPage:
	default:
		return nil, fmt.Errorf("unknown payment mode %q", req.Mode)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return nil, err
	}

	return &Checkout{
		Mode:         req.Mode,
		HTML:         buf.String(),
		MerchantTxID: req.MerchantTxID,
	}, nil
}
