package journal

import "time"

// OrderRecord is one row of the orders log. Terminal transitions re-record
// the same OrderID with the updated status; sinks either upsert (SQLite) or
// append an event row (CSV).
type OrderRecord struct {
	OrderID    string
	Time       time.Time
	Side       string
	Type       string
	Price      *float64 // nil for market orders
	Quantity   float64
	Instrument string
	Status     string
	FillTime   *time.Time
	FillPrice  *float64
}

// TradeRecord is one completed round trip.
type TradeRecord struct {
	TradeID    string
	Direction  string
	Quantity   float64
	EntryTime  time.Time
	EntryPrice float64
	ExitTime   time.Time
	ExitPrice  float64
	RealizedPL float64
}

// EquitySnapshot is one point of the equity/drawdown curve.
type EquitySnapshot struct {
	Time       time.Time
	Equity     float64
	RunningMax float64
	Drawdown   float64 // fraction, <= 0
}

type Journal interface {
	RecordOrder(OrderRecord) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Discard is a Journal that drops every record. Useful for interactive
// sessions that only need the engine's in-memory tables.
type Discard struct{}

func (Discard) RecordOrder(OrderRecord) error     { return nil }
func (Discard) RecordTrade(TradeRecord) error     { return nil }
func (Discard) RecordEquity(EquitySnapshot) error { return nil }
func (Discard) Close() error                      { return nil }
