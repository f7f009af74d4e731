package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "barsim",
	Short: "A bar-replay trading simulator",
	Long: `Barsim replays historical bar data through a simulated order book.

It provides tools for:
  - Replaying intraday bar series with an optional linked derivative
  - Placing market, limit and stop orders against replayed bars
  - Position bookkeeping with weighted-average entries
  - Equity and drawdown curves derived from every tick
  - Journaling orders, trades and equity to CSV or SQLite`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
