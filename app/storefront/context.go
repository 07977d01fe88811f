package storefront

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/vibast-solutions/ms-go-cardgateway/config"
)

// Context is the storefront state the checkout needs: locale, country, currency and its public URLs.
type Context struct {
	Locale      string
	BaseCountry string
	Currency    string

	SiteURL       string
	ShopURL       string
	PublicBaseURL string
}

func NewContext(cfg config.StorefrontConfig) Context {
	return Context{
		Locale:        cfg.Locale,
		BaseCountry:   strings.ToUpper(strings.TrimSpace(cfg.BaseCountry)),
		Currency:      strings.ToUpper(strings.TrimSpace(cfg.Currency)),
		SiteURL:       strings.TrimSpace(cfg.SiteURL),
		ShopURL:       strings.TrimSpace(cfg.ShopURL),
		PublicBaseURL: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
	}
}

func (c Context) NotificationURL(orderID uint64) string {
	return c.PublicBaseURL + "/gateway/notify?order_id=" + strconv.FormatUint(orderID, 10)
}

func (c Context) ReturnURL(orderID uint64) string {
	return c.PublicBaseURL + "/gateway/return?order_id=" + strconv.FormatUint(orderID, 10)
}

// ShopLandingURL is where the shopper lands once the return has been processed.
func (c Context) ShopLandingURL(orderID uint64) string {
	parsed, err := url.Parse(c.ShopURL)
	if err != nil {
		return c.ShopURL
	}
	query := parsed.Query()
	query.Set("order_id", strconv.FormatUint(orderID, 10))
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
