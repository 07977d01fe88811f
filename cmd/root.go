package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cardgateway",
	Short: "Card payment gateway microservice",
	Long:  "A card payment gateway microservice for storefront checkouts, gateway notifications, and capture/void/refund operations.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
