package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

type paymentSolution struct {
	ID   flexString `json:"ID"`
	Name string     `json:"NAME"`
}

type paysolsResponse struct {
	Result string            `json:"result"`
	Data   []paymentSolution `json:"data"`
	Errors json.RawMessage   `json:"errors"`
}

// ListPaymentSolutions returns the payment solutions enabled for currency and country, keyed by id.
func (c *Client) ListPaymentSolutions(ctx context.Context, env Environment, currency, country string) (map[string]string, error) {
	params := url.Values{}
	params.Set("currency", currency)
	params.Set("country", country)

	token, err := c.AcquireToken(ctx, env, ActionGetAvailablePaysols, params)
	if err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("merchantId", c.credentials(env).MerchantID)
	values.Set("token", token)

	body, err := c.postForm(ctx, "payment", ActionGetAvailablePaysols, c.endpoints(env).PaymentURL, values)
	if err != nil {
		return nil, err
	}

	var resp paysolsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: payment solutions response: %v", ErrProtocol, err)
	}
	if resp.Result != "success" {
		return nil, fmt.Errorf("%w: %s", ErrDeclined, flattenErrors(resp.Errors))
	}

	catalog := make(map[string]string, len(resp.Data))
	for _, item := range resp.Data {
		id := strings.TrimSpace(string(item.ID))
		if id == "" {
			continue
		}
		catalog[id] = strings.TrimSpace(item.Name)
	}
	return catalog, nil
}
