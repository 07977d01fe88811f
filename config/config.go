package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App               AppConfig
	HTTP              ServerConfig
	GRPC              ServerConfig
	MySQL             MySQLConfig
	Log               LogConfig
	InternalEndpoints InternalEndpointsConfig
	Gateway           GatewayConfig
	Storefront        StorefrontConfig
	Redis             RedisConfig
	Kafka             KafkaConfig
	Payments          PaymentsConfig
	Jobs              JobsConfig
}

type AppConfig struct {
	ServiceName string
	APIKey      string
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type InternalEndpointsConfig struct {
	AuthGRPCAddr string
}

type CredentialsConfig struct {
	MerchantID string
	Password   string
	BrandID    string
}

type EndpointsConfig struct {
	TokenURL   string
	PaymentURL string
	CashierURL string
	ScriptURL  string
}

type GatewayConfig struct {
	Sandbox bool
	// Mode is one of iframe, redirect, hostedPayPage.
	Mode string
	// AuthOnly switches new payments from PURCHASE to AUTH.
	AuthOnly bool

	Live           CredentialsConfig
	SandboxAccount CredentialsConfig

	LiveEndpoints    EndpointsConfig
	SandboxEndpoints EndpointsConfig

	HTTPTimeout       time.Duration
	MaxRedirects      int
	RequestsPerSecond float64
}

type StorefrontConfig struct {
	SiteURL       string
	ShopURL       string
	PublicBaseURL string
	Locale        string
	BaseCountry   string
	Currency      string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type PaymentsConfig struct {
	ReconcileStaleAfter time.Duration
	CatalogCacheTTL     time.Duration
	JobBatchSize        int32
}

type JobsConfig struct {
	ReconcileInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "cardgateway-service"),
			APIKey:      getEnv("APP_API_KEY", ""),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		GRPC: ServerConfig{
			Host: getEnv("GRPC_HOST", "0.0.0.0"),
			Port: getEnv("GRPC_PORT", "9090"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		InternalEndpoints: InternalEndpointsConfig{
			AuthGRPCAddr: getEnv("AUTH_SERVICE_GRPC_ADDR", "localhost:9090"),
		},
		Gateway: GatewayConfig{
			Sandbox:  getBoolEnv("GATEWAY_SANDBOX", true),
			Mode:     getEnv("GATEWAY_PAYMENT_MODE", "iframe"),
			AuthOnly: getBoolEnv("GATEWAY_AUTH_ONLY", false),
			Live: CredentialsConfig{
				MerchantID: getEnv("GATEWAY_MERCHANT_ID", ""),
				Password:   getEnv("GATEWAY_PASSWORD", ""),
				BrandID:    getEnv("GATEWAY_BRAND_ID", ""),
			},
			SandboxAccount: CredentialsConfig{
				MerchantID: getEnv("GATEWAY_SANDBOX_MERCHANT_ID", ""),
				Password:   getEnv("GATEWAY_SANDBOX_PASSWORD", ""),
				BrandID:    getEnv("GATEWAY_SANDBOX_BRAND_ID", ""),
			},
			LiveEndpoints: EndpointsConfig{
				TokenURL:   getEnv("GATEWAY_TOKEN_URL", "https://api.boipapaymentgateway.com/token"),
				PaymentURL: getEnv("GATEWAY_PAYMENT_URL", "https://api.boipapaymentgateway.com/payments"),
				CashierURL: getEnv("GATEWAY_CASHIER_URL", "https://cashierui.boipapaymentgateway.com/ui/cashier"),
				ScriptURL:  getEnv("GATEWAY_SCRIPT_URL", "https://cashierui.boipapaymentgateway.com/js/api.js"),
			},
			SandboxEndpoints: EndpointsConfig{
				TokenURL:   getEnv("GATEWAY_SANDBOX_TOKEN_URL", "https://apiuat.test.boipapaymentgateway.com/token"),
				PaymentURL: getEnv("GATEWAY_SANDBOX_PAYMENT_URL", "https://apiuat.test.boipapaymentgateway.com/payments"),
				CashierURL: getEnv("GATEWAY_SANDBOX_CASHIER_URL", "https://cashierui-apiuat.test.boipapaymentgateway.com/ui/cashier"),
				ScriptURL:  getEnv("GATEWAY_SANDBOX_SCRIPT_URL", "https://cashierui-apiuat.test.boipapaymentgateway.com/js/api.js"),
			},
			HTTPTimeout:       getSecondsEnv("GATEWAY_HTTP_TIMEOUT_SECONDS", 45*time.Second),
			MaxRedirects:      getIntEnv("GATEWAY_MAX_REDIRECTS", 5),
			RequestsPerSecond: getFloatEnv("GATEWAY_REQUESTS_PER_SECOND", 0),
		},
		Storefront: StorefrontConfig{
			SiteURL:       getEnv("STOREFRONT_SITE_URL", "http://localhost"),
			ShopURL:       getEnv("STOREFRONT_SHOP_URL", "http://localhost/shop"),
			PublicBaseURL: getEnv("STOREFRONT_PUBLIC_BASE_URL", "http://localhost:8080"),
			Locale:        getEnv("STOREFRONT_LOCALE", "en_US"),
			BaseCountry:   getEnv("STOREFRONT_BASE_COUNTRY", "IE"),
			Currency:      getEnv("STOREFRONT_CURRENCY", "EUR"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getListEnv("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_STOREFRONT_TOPIC", "storefront.order-events"),
		},
		Payments: PaymentsConfig{
			ReconcileStaleAfter: getMinutesEnv("PAYMENTS_RECONCILE_STALE_AFTER_MINUTES", 15*time.Minute),
			CatalogCacheTTL:     getSecondsEnv("PAYMENTS_CATALOG_CACHE_TTL_SECONDS", 5*time.Minute),
			JobBatchSize:        int32(getIntEnv("PAYMENTS_JOB_BATCH_SIZE", 100)),
		},
		Jobs: JobsConfig{
			ReconcileInterval: getMinutesEnv("PAYMENTS_RECONCILE_INTERVAL_MINUTES", 2*time.Minute),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	items := make([]string, 0, 4)
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
