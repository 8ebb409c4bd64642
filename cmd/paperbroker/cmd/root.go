package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "paperbroker",
	Short: "A paper-money stock trading service",
	Long: `Paperbroker is a simulated cash-account stock broker written in Go.

It provides:
  - Google sign-in with session cookies
  - Market buy and sell orders priced at live quotes
  - Cash and holdings tracked to the cent in SQLite or Postgres
  - Portfolio valuation against fresh market data
  - An optional Kafka feed of executed transactions

Complete documentation is available at https://github.com/rustyeddy/paperbroker`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
