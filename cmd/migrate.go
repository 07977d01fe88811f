package cmd

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-cardgateway/migrations"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the order and gateway transaction schema",
	Run:   runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "Roll back the latest migration instead")
}

func runMigrate(_ *cobra.Command, _ []string) {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	runner := migrations.NewRunner(db, migrations.Files())
	run := runner.Up
	if migrateDown {
		run = runner.Down
	}

	if err := run(context.Background()); err != nil {
		logrus.WithError(err).Fatal("Migration failed")
	}
	logrus.Info("Migrations complete")
}
