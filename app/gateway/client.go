package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-cardgateway/app/factory"
	"golang.org/x/time/rate"
)

const (
	defaultHTTPTimeout  = 45 * time.Second
	defaultMaxRedirects = 5
)

type Credentials struct {
	MerchantID string
	Password   string
	BrandID    string
}

func (c Credentials) configured() bool {
	return strings.TrimSpace(c.MerchantID) != "" && strings.TrimSpace(c.Password) != ""
}

type Endpoints struct {
	TokenURL   string
	PaymentURL string
	CashierURL string
	ScriptURL  string
}

// Environment selects the live or sandbox account and endpoint set.
type Environment struct {
	Sandbox bool
}

func (e Environment) Name() string {
	if e.Sandbox {
		return "sandbox"
	}
	return "live"
}

type Config struct {
	Live    Credentials
	Sandbox Credentials

	LiveEndpoints    Endpoints
	SandboxEndpoints Endpoints

	// OriginURL is the storefront origin sent as allowOriginUrl.
	OriginURL string

	HTTPTimeout       time.Duration
	MaxRedirects      int
	RequestsPerSecond float64
}

type CallObserver interface {
	ObserveGatewayCall(endpoint, action, result string, elapsed time.Duration)
}

type Option func(*Client)

func WithObserver(observer CallObserver) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

type Client struct {
	cfg      Config
	origin   string
	http     *http.Client
	limiter  *rate.Limiter
	observer CallObserver
	now      func() time.Time
	logger   logrus.FieldLogger
}

func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = defaultMaxRedirects
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &Client{
		cfg:    cfg,
		origin: NormalizeOrigin(cfg.OriginURL),
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
		logger:  factory.NewModuleLogger("gateway"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured fails with ErrConfiguration when the environment has no merchant id or password.
func (c *Client) Configured(env Environment) error {
	if !c.credentials(env).configured() {
		return fmt.Errorf("%w: %s account", ErrConfiguration, env.Name())
	}
	return nil
}

func (c *Client) credentials(env Environment) Credentials {
	if env.Sandbox {
		return c.cfg.Sandbox
	}
	return c.cfg.Live
}

func (c *Client) endpoints(env Environment) Endpoints {
	if env.Sandbox {
		return c.cfg.SandboxEndpoints
	}
	return c.cfg.LiveEndpoints
}

func (c *Client) postForm(ctx context.Context, endpoint string, action Action, target string, values url.Values) ([]byte, error) {
	started := c.now()
	body, err := c.doPost(ctx, target, values)
	result := "ok"
	if err != nil {
		result = "transport_error"
	}
	if c.observer != nil {
		c.observer.ObserveGatewayCall(endpoint, string(action), result, c.now().Sub(started))
	}
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"endpoint": endpoint,
			"action":   action,
		}).WithError(err).Warn("gateway request failed")
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return body, nil
}

func (c *Client) doPost(ctx context.Context, target string, values url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// NormalizeOrigin reduces a URL to scheme://host[:port].
func NormalizeOrigin(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// flattenErrors renders the loosely shaped errors field of a gateway response as text.
func flattenErrors(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return strings.TrimSpace(string(raw))
	}
	parts := make([]string, 0, 2)
	collectErrorText(decoded, &parts)
	return strings.Join(parts, "; ")
}

func collectErrorText(value interface{}, parts *[]string) {
	switch v := value.(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			*parts = append(*parts, s)
		}
	case []interface{}:
		for _, item := range v {
			collectErrorText(item, parts)
		}
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectErrorText(v[k], parts)
		}
	case nil:
	default:
		*parts = append(*parts, fmt.Sprint(v))
	}
}

// flexString accepts both JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("expected string or number")
	}
	*f = flexString(n.String())
	return nil
}
