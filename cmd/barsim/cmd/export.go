package cmd

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/optbacktest/barsim/journal"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a SQLite journal to CSV files",
	Long: `Read orders, trades and equity snapshots out of a SQLite journal
and write them as CSV, one file per table. Only the requested tables are
written.

Example:
  barsim export -d replay.db --trades trades.csv --equity equity.csv`,
	RunE: runExport,
}

var (
	exportDBPath     string
	exportOrdersPath string
	exportTradesPath string
	exportEquityPath string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportDBPath, "db", "d", "", "path to SQLite journal (required)")
	exportCmd.Flags().StringVar(&exportOrdersPath, "orders", "", "output CSV for orders")
	exportCmd.Flags().StringVar(&exportTradesPath, "trades", "", "output CSV for trades")
	exportCmd.Flags().StringVar(&exportEquityPath, "equity", "", "output CSV for equity snapshots")
	exportCmd.MarkFlagRequired("db")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportOrdersPath == "" && exportTradesPath == "" && exportEquityPath == "" {
		return fmt.Errorf("nothing to export: pass at least one of --orders, --trades, --equity")
	}

	j, err := journal.NewSQLite(exportDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	if exportOrdersPath != "" {
		orders, err := j.ListOrders()
		if err != nil {
			return fmt.Errorf("query orders: %w", err)
		}
		rows := make([][]string, len(orders))
		for i, o := range orders {
			rows[i] = o.Row()
		}
		if err := writeCSV(exportOrdersPath, journal.OrderColumns, rows); err != nil {
			return err
		}
		fmt.Printf("wrote %d orders to %s\n", len(orders), exportOrdersPath)
	}

	if exportTradesPath != "" {
		trades, err := j.ListTrades()
		if err != nil {
			return fmt.Errorf("query trades: %w", err)
		}
		rows := make([][]string, len(trades))
		for i, t := range trades {
			rows[i] = t.Row()
		}
		if err := writeCSV(exportTradesPath, journal.TradeColumns, rows); err != nil {
			return err
		}
		fmt.Printf("wrote %d trades to %s\n", len(trades), exportTradesPath)
	}

	if exportEquityPath != "" {
		equity, err := j.ListEquity()
		if err != nil {
			return fmt.Errorf("query equity: %w", err)
		}
		rows := make([][]string, len(equity))
		for i, e := range equity {
			rows[i] = e.Row()
		}
		if err := writeCSV(exportEquityPath, journal.EquityColumns, rows); err != nil {
			return err
		}
		fmt.Printf("wrote %d equity snapshots to %s\n", len(equity), exportEquityPath)
	}
	return nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
