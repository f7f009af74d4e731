package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// RecordOrder upserts on order_id, so the row always reflects the order's
// latest status.
func (j *SQLite) RecordOrder(o OrderRecord) error {
	_, err := j.db.Exec(`
		INSERT OR REPLACE INTO orders
		(order_id, time, side, type, price, quantity, instrument, status, fill_time, fill_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OrderID, o.Time, o.Side, o.Type, o.Price,
		o.Quantity, o.Instrument, o.Status, o.FillTime, o.FillPrice,
	)
	return err
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, direction, quantity, entry_time, entry_price, exit_time, exit_price, realized_pl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Direction, t.Quantity, t.EntryTime,
		t.EntryPrice, t.ExitTime, t.ExitPrice, t.RealizedPL,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(time, equity, running_max, drawdown)
		VALUES (?, ?, ?, ?)`,
		e.Time, e.Equity, e.RunningMax, e.Drawdown,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
