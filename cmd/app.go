package cmd

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-cardgateway/app/cache"
	"github.com/vibast-solutions/ms-go-cardgateway/app/gateway"
	"github.com/vibast-solutions/ms-go-cardgateway/app/metrics"
	"github.com/vibast-solutions/ms-go-cardgateway/app/repository"
	"github.com/vibast-solutions/ms-go-cardgateway/app/service"
	"github.com/vibast-solutions/ms-go-cardgateway/app/storefront"
	"github.com/vibast-solutions/ms-go-cardgateway/config"
)

// application is the wired checkout service with the collaborators the commands expose.
type application struct {
	cfg        *config.Config
	checkout   *service.CheckoutService
	metrics    *metrics.Metrics
	storefront storefront.Context
	env        gateway.Environment
}

func mustCreateCheckoutService() (*application, func()) {
	cfg := mustLoadConfig()

	mode, err := gateway.ParseMode(cfg.Gateway.Mode)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid gateway payment mode")
	}

	db := mustOpenDatabase(cfg)
	closers := []func() error{db.Close}
	m := metrics.New()
	storefrontCtx := storefront.NewContext(cfg.Storefront)

	client := gateway.NewClient(gatewayConfig(cfg), gateway.WithObserver(m))

	var hooks storefront.Hooks = storefront.NewLogHooks()
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := storefront.NewSyncProducer(cfg.Kafka.Brokers)
		if err != nil {
			_ = db.Close()
			logrus.WithError(err).Fatal("Failed to connect to Kafka")
		}
		kafkaHooks := storefront.NewKafkaHooks(producer, cfg.Kafka.Topic)
		closers = append(closers, kafkaHooks.Close)
		hooks = kafkaHooks
	}

	checkoutService := service.NewCheckoutService(
		repository.NewOrderRepository(db),
		repository.NewOrderNoteRepository(db),
		repository.NewTransactionRepository(db),
		repository.NewTransactionEventRepository(db),
		repository.NewGatewayCallbackRepository(db),
		client,
		hooks,
		storefrontCtx,
		service.CheckoutConfig{
			Mode:     mode,
			AuthOnly: cfg.Gateway.AuthOnly,
			Payments: cfg.Payments,
		},
	)
	checkoutService.SetObserver(m)

	if cfg.Redis.Addr != "" {
		redisClient := cache.NewRedisClient(cfg.Redis)
		closers = append(closers, redisClient.Close)
		checkoutService.SetCatalogCache(cache.NewCatalogCache(redisClient, cfg.Payments.CatalogCacheTTL))
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logrus.WithError(err).Warn("Failed to close resource")
			}
		}
	}

	return &application{
		cfg:        cfg,
		checkout:   checkoutService,
		metrics:    m,
		storefront: storefrontCtx,
		env:        gateway.Environment{Sandbox: cfg.Gateway.Sandbox},
	}, cleanup
}

func gatewayConfig(cfg *config.Config) gateway.Config {
	return gateway.Config{
		Live:              credentials(cfg.Gateway.Live),
		Sandbox:           credentials(cfg.Gateway.SandboxAccount),
		LiveEndpoints:     endpoints(cfg.Gateway.LiveEndpoints),
		SandboxEndpoints:  endpoints(cfg.Gateway.SandboxEndpoints),
		OriginURL:         cfg.Storefront.SiteURL,
		HTTPTimeout:       cfg.Gateway.HTTPTimeout,
		MaxRedirects:      cfg.Gateway.MaxRedirects,
		RequestsPerSecond: cfg.Gateway.RequestsPerSecond,
	}
}

func credentials(c config.CredentialsConfig) gateway.Credentials {
	return gateway.Credentials{MerchantID: c.MerchantID, Password: c.Password, BrandID: c.BrandID}
}

func endpoints(e config.EndpointsConfig) gateway.Endpoints {
	return gateway.Endpoints{TokenURL: e.TokenURL, PaymentURL: e.PaymentURL, CashierURL: e.CashierURL, ScriptURL: e.ScriptURL}
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}
	return cfg
}

func mustOpenDatabase(cfg *config.Config) *sql.DB {
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}
	return db
}
