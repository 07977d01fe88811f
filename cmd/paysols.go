package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-cardgateway/app/mapper"
)

var paysolsCmd = &cobra.Command{
	Use:   "paysols",
	Short: "Print the payment solutions the gateway offers for the storefront currency and country",
	Run:   runPaysols,
}

func init() {
	rootCmd.AddCommand(paysolsCmd)
}

func runPaysols(_ *cobra.Command, _ []string) {
	app, cleanup := mustCreateCheckoutService()
	defer cleanup()

	catalog := app.checkout.ListPaymentSolutions(context.Background(), app.env)
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(mapper.PaymentSolutionsToResponse(catalog)); err != nil {
		logrus.WithError(err).Fatal("Failed to write payment solutions")
	}
}
