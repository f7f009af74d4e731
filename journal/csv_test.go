package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVAppendsEventRows(t *testing.T) {
	dir := t.TempDir()
	orders := filepath.Join(dir, "orders.csv")
	trades := filepath.Join(dir, "trades.csv")
	equity := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(orders, trades, equity)
	require.NoError(t, err)

	ts := time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC)
	rec := OrderRecord{
		OrderID:    "01ORDER",
		Time:       ts,
		Side:       "BUY",
		Type:       "MARKET",
		Quantity:   10,
		Instrument: "under",
		Status:     "OPEN",
	}
	require.NoError(t, j.RecordOrder(rec))

	rec.Status = "FILLED"
	rec.FillTime = ptr(ts)
	rec.FillPrice = ptr(100.0)
	require.NoError(t, j.RecordOrder(rec))

	require.NoError(t, j.RecordTrade(TradeRecord{
		TradeID:    "01TRADE",
		Direction:  "LONG",
		Quantity:   10,
		EntryTime:  ts,
		EntryPrice: 100,
		ExitTime:   ts.Add(10 * time.Minute),
		ExitPrice:  106,
		RealizedPL: 60,
	}))
	require.NoError(t, j.RecordEquity(EquitySnapshot{Time: ts, Equity: 10_000, RunningMax: 10_000}))
	require.NoError(t, j.Close())

	orderRows := readRows(t, orders)
	require.Len(t, orderRows, 3) // header plus one row per status event
	assert.Equal(t, OrderColumns, orderRows[0])
	assert.Equal(t, "OPEN", orderRows[1][7])
	assert.Equal(t, "FILLED", orderRows[2][7])
	assert.Equal(t, "", orderRows[1][9]) // no fill price while open
	assert.Equal(t, "100.000000", orderRows[2][9])

	tradeRows := readRows(t, trades)
	require.Len(t, tradeRows, 2)
	assert.Equal(t, TradeColumns, tradeRows[0])
	assert.Equal(t, "2024-06-03T14:40:00Z", tradeRows[1][5])
	assert.Equal(t, "60.000000", tradeRows[1][7])

	equityRows := readRows(t, equity)
	require.Len(t, equityRows, 2)
	assert.Equal(t, EquityColumns, equityRows[0])
	assert.Equal(t, "10000.000000", equityRows[1][1])
}

func TestCSVCreateFailure(t *testing.T) {
	_, err := NewCSV("/no/such/dir/orders.csv", "t.csv", "e.csv")
	assert.Error(t, err)
}
