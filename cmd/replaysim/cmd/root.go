package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "replaysim",
	Short: "A bar-by-bar market replay simulator with tax-lot accounting",
	Long: `Replaysim replays historical bar data through trading strategies and
keeps an exact cash/position ledger.

It provides tools for:
  - Replaying CSV bar datasets through strategy stacks
  - Tax-lot position accounting with full closed-lot audit history
  - Recording runs to CSV or SQLite journals
  - Per-run performance metrics (CAGR, profit factor, max drawdown)`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
