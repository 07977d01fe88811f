package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type tokenResponse struct {
	Result string          `json:"result"`
	Token  string          `json:"token"`
	Errors json.RawMessage `json:"errors"`
}

// AcquireToken requests a single-use token for action. Every call hits the token endpoint.
func (c *Client) AcquireToken(ctx context.Context, env Environment, action Action, params url.Values) (string, error) {
	if err := c.Configured(env); err != nil {
		return "", err
	}
	creds := c.credentials(env)

	values := url.Values{}
	for key, items := range params {
		for _, item := range items {
			values.Add(key, item)
		}
	}
	values.Set("merchantId", creds.MerchantID)
	values.Set("password", creds.Password)
	values.Set("action", string(action))
	values.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))
	values.Set("allowOriginUrl", c.origin)
	if action == ActionPurchase || action == ActionAuth {
		values.Set("brandId", creds.BrandID)
	}

	body, err := c.postForm(ctx, "token", action, c.endpoints(env).TokenURL, values)
	if err != nil {
		return "", err
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: token response: %v", ErrProtocol, err)
	}
	if strings.TrimSpace(resp.Result) == "" {
		return "", fmt.Errorf("%w: token response has no result", ErrProtocol)
	}
	if resp.Result != "success" || strings.TrimSpace(resp.Token) == "" {
		reason := flattenErrors(resp.Errors)
		c.logger.WithFields(logrus.Fields{
			"action": action,
			"result": resp.Result,
		}).Warnf("gateway token rejected: %s", reason)
		return "", fmt.Errorf("%w: %s", ErrTokenRejected, reason)
	}

	return resp.Token, nil
}

// PurchaseRequest carries the order-derived fields of a PURCHASE or AUTH token request.
type PurchaseRequest struct {
	Action       Action
	MerchantTxID string
	Amount       decimal.Decimal
	Currency     string
	Country      string
	Language     string

	NotificationURL string
	LandingURL      string

	FirstName      string
	LastName       string
	Street         string
	City           string
	PostalCode     string
	BillingCountry string
}

func (r PurchaseRequest) values() url.Values {
	values := url.Values{}
	values.Set("merchantTxId", r.MerchantTxID)
	values.Set("amount", r.Amount.StringFixed(2))
	values.Set("currency", r.Currency)
	values.Set("country", r.Country)
	values.Set("language", LanguageCode(r.Language))
	values.Set("paymentSolutionId", "")
	values.Set("channel", "ECOM")
	values.Set("merchantNotificationUrl", r.NotificationURL)
	values.Set("merchantLandingPageUrl", r.LandingURL)
	values.Set("customerFirstName", r.FirstName)
	values.Set("customerLastName", r.LastName)
	values.Set("customerBillingAddressStreet", r.Street)
	values.Set("customerBillingAddressCity", r.City)
	values.Set("customerBillingAddressPostalCode", r.PostalCode)
	values.Set("customerBillingAddressCountry", r.BillingCountry)
	return values
}

func (c *Client) AcquirePurchaseToken(ctx context.Context, env Environment, req PurchaseRequest) (string, error) {
	action := req.Action
	if action != ActionAuth {
		action = ActionPurchase
	}
	return c.AcquireToken(ctx, env, action, req.values())
}

// LanguageCode turns a locale such as en_US into its two-letter language.
func LanguageCode(locale string) string {
	runes := []rune(strings.TrimSpace(locale))
	if len(runes) < 2 {
		return "en"
	}
	return strings.ToLower(string(runes[:2]))
}
