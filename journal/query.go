package journal

import (
	"database/sql"
	"fmt"
)

// ListOrders returns every order row in placement order.
func (j *SQLite) ListOrders() ([]OrderRecord, error) {
	rows, err := j.db.Query(`
		SELECT order_id, time, side, type, price, quantity, instrument, status, fill_time, fill_price
		FROM orders
		ORDER BY order_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderRecord
	for rows.Next() {
		var rec OrderRecord
		if err := rows.Scan(
			&rec.OrderID,
			&rec.Time,
			&rec.Side,
			&rec.Type,
			&rec.Price,
			&rec.Quantity,
			&rec.Instrument,
			&rec.Status,
			&rec.FillTime,
			&rec.FillPrice,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT trade_id, direction, quantity, entry_time, entry_price, exit_time, exit_price, realized_pl
		FROM trades
		WHERE trade_id = ?`, tradeID)

	var rec TradeRecord
	err := row.Scan(
		&rec.TradeID,
		&rec.Direction,
		&rec.Quantity,
		&rec.EntryTime,
		&rec.EntryPrice,
		&rec.ExitTime,
		&rec.ExitPrice,
		&rec.RealizedPL,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTrades returns every trade ordered by exit time.
func (j *SQLite) ListTrades() ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, direction, quantity, entry_time, entry_price, exit_time, exit_price, realized_pl
		FROM trades
		ORDER BY exit_time ASC, trade_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.TradeID,
			&rec.Direction,
			&rec.Quantity,
			&rec.EntryTime,
			&rec.EntryPrice,
			&rec.ExitTime,
			&rec.ExitPrice,
			&rec.RealizedPL,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquity returns the equity curve ordered by time.
func (j *SQLite) ListEquity() ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT time, equity, running_max, drawdown
		FROM equity
		ORDER BY time ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var rec EquitySnapshot
		if err := rows.Scan(&rec.Time, &rec.Equity, &rec.RunningMax, &rec.Drawdown); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
