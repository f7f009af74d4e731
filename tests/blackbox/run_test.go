//go:build blackbox

package blackbox

import (
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

const barsCSV = `time,open,high,low,close,volume
2024-06-03T14:30:00Z,99,102,98,100,10
2024-06-03T14:40:00Z,100,103,99,102,12
2024-06-03T14:50:00Z,102,107,101,106,9
2024-06-03T15:00:00Z,106,108,103,104,14
`

const scriptCSV = `time,event,args
2024-06-03T14:30:00Z,PLACE,BUY,MARKET,10,under
2024-06-03T14:50:00Z,FLATTEN
`

func TestRunWithSQLiteJournal(t *testing.T) {
	dir := t.TempDir()
	bars := writeFile(t, dir, "bars.csv", barsCSV)
	script := writeFile(t, dir, "orders.csv", scriptCSV)
	db := filepath.Join(dir, "replay.db")

	cfgPath := writeFile(t, dir, "replay.yaml", `
session:
  instrument: TEST
  initial_capital: 10000
data:
  base_csv: `+bars+`
journal:
  type: sqlite
  db_path: `+db+`
`)

	out := run(t, "run", "-f", cfgPath, "--script", script)

	// Buy 10 @ 100 on the first bar, flatten @ 106 on the third.
	if !strings.Contains(out, "Trades:        1") {
		t.Fatalf("missing trade count in summary:\n%s", out)
	}
	if !strings.Contains(out, "Net P/L:       60.00") {
		t.Fatalf("missing net P/L in summary:\n%s", out)
	}
	if !strings.Contains(out, "End Equity:    10060.00") {
		t.Fatalf("missing end equity in summary:\n%s", out)
	}

	conn, err := sql.Open("sqlite3", db)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var trades, orders, equity int
	if err := conn.QueryRow("SELECT COUNT(*) FROM trades").Scan(&trades); err != nil {
		t.Fatal(err)
	}
	if err := conn.QueryRow("SELECT COUNT(*) FROM orders").Scan(&orders); err != nil {
		t.Fatal(err)
	}
	if err := conn.QueryRow("SELECT COUNT(*) FROM equity").Scan(&equity); err != nil {
		t.Fatal(err)
	}
	if trades != 1 || orders != 2 || equity != 4 {
		t.Fatalf("unexpected journal counts: trades=%d orders=%d equity=%d", trades, orders, equity)
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	bars := writeFile(t, dir, "bars.csv", barsCSV)
	script := writeFile(t, dir, "orders.csv", scriptCSV)
	db := filepath.Join(dir, "replay.db")

	cfgPath := writeFile(t, dir, "replay.yaml", `
session:
  instrument: TEST
  initial_capital: 10000
data:
  base_csv: `+bars+`
journal:
  type: sqlite
  db_path: `+db+`
`)
	run(t, "run", "-f", cfgPath, "--script", script)

	tradesOut := filepath.Join(dir, "trades.csv")
	run(t, "export", "-d", db, "--trades", tradesOut)

	f, err := os.Open(tradesOut)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("want header plus one trade, got %d rows", len(rows))
	}
	if rows[0][0] != "id" || rows[1][1] != "LONG" {
		t.Fatalf("unexpected export rows: %v", rows)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "replay.yaml")

	out := run(t, "config", "init", "-o", cfgPath)
	if !strings.Contains(out, "Created default configuration") {
		t.Fatalf("unexpected init output:\n%s", out)
	}

	// The default config has no data file yet, so validation should fail.
	out = runExpectError(t, "config", "validate", "-f", cfgPath)
	if !strings.Contains(out, "base_csv") {
		t.Fatalf("expected base_csv validation error, got:\n%s", out)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "bad.yaml", `
session:
  instrument: TEST
  initial_capital: -5
data:
  base_csv: bars.csv
`)
	out := runExpectError(t, "run", "-f", cfgPath)
	if !strings.Contains(out, "initial_capital") {
		t.Fatalf("expected initial_capital error, got:\n%s", out)
	}
}
