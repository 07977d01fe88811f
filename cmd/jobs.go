package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-cardgateway/app/service"
	"github.com/vibast-solutions/ms-go-cardgateway/config"
)

var workerMode bool

// job is a batch the service can run once or on an interval with --worker.
type job struct {
	name     string
	interval func(cfg *config.Config) time.Duration
	run      func(ctx context.Context, s *service.CheckoutService) error
}

var reconcileJob = job{
	name:     "reconcile",
	interval: func(cfg *config.Config) time.Duration { return cfg.Jobs.ReconcileInterval },
	run: func(ctx context.Context, s *service.CheckoutService) error {
		return s.RunReconcileBatch(ctx)
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Re-confirm gateway transactions that never received a notification",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(reconcileJob)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	rootCmd.PersistentFlags().BoolVar(&workerMode, "worker", false, "Run continuously using configured interval")
}

func runCommand(j job) {
	app, cleanup := mustCreateCheckoutService()
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !workerMode {
		runJob(j.name, func() error { return j.run(ctx, app.checkout) })
		return
	}

	interval := j.interval(app.cfg)
	if interval <= 0 {
		logrus.WithField("job", j.name).Fatal("invalid worker interval")
	}
	runWorker(ctx, j, interval, app.checkout)
}

func runWorker(ctx context.Context, j job, interval time.Duration, checkoutService *service.CheckoutService) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger := logrus.WithField("job", j.name).WithField("interval", interval.String())
	logger.Info("Worker started")

	for {
		runJob(j.name, func() error { return j.run(ctx, checkoutService) })

		select {
		case <-ctx.Done():
			logger.Info("Worker shutdown requested")
			return
		case <-ticker.C:
		}
	}
}

func runJob(name string, fn func() error) {
	start := time.Now()
	err := fn()
	entry := logrus.WithField("job", name).WithField("latency", time.Since(start).String())
	if err != nil {
		entry.WithError(err).Error("job_failed")
		return
	}
	entry.Info("job_completed")
}
