package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// Fixed export column orders. External consumers depend on these.
var (
	OrderColumns  = []string{"id", "timestamp", "side", "type", "price", "quantity", "instrument", "status", "fill_timestamp", "fill_price"}
	TradeColumns  = []string{"id", "side", "quantity", "entry_timestamp", "entry_price", "exit_timestamp", "exit_price", "realized_pl"}
	EquityColumns = []string{"time", "equity", "running_max", "drawdown"}
)

// CSV appends one row per record. Unlike the SQLite journal it never
// rewrites a prior row, so an order that fills appears twice: once OPEN,
// once FILLED.
type CSV struct {
	orders *csv.Writer
	trades *csv.Writer
	equity *csv.Writer

	of, tf, ef *os.File
}

func NewCSV(ordersPath, tradesPath, equityPath string) (*CSV, error) {
	of, err := os.Create(ordersPath)
	if err != nil {
		return nil, err
	}
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		return nil, err
	}

	ow := csv.NewWriter(of)
	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	for _, w := range []struct {
		wr  *csv.Writer
		hdr []string
	}{{ow, OrderColumns}, {tw, TradeColumns}, {ew, EquityColumns}} {
		if err := w.wr.Write(w.hdr); err != nil {
			return nil, err
		}
		w.wr.Flush()
		if err := w.wr.Error(); err != nil {
			return nil, err
		}
	}

	return &CSV{ow, tw, ew, of, tf, ef}, nil
}

func (j *CSV) RecordOrder(o OrderRecord) error {
	if err := j.orders.Write(o.Row()); err != nil {
		return err
	}
	j.orders.Flush()
	return j.orders.Error()
}

func (j *CSV) RecordTrade(t TradeRecord) error {
	if err := j.trades.Write(t.Row()); err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSV) RecordEquity(e EquitySnapshot) error {
	if err := j.equity.Write(e.Row()); err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

// Row formats the record in OrderColumns order.
func (o OrderRecord) Row() []string {
	return []string{
		o.OrderID,
		o.Time.Format(time.RFC3339),
		o.Side,
		o.Type,
		fopt(o.Price),
		f(o.Quantity),
		o.Instrument,
		o.Status,
		topt(o.FillTime),
		fopt(o.FillPrice),
	}
}

// Row formats the record in TradeColumns order.
func (t TradeRecord) Row() []string {
	return []string{
		t.TradeID,
		t.Direction,
		f(t.Quantity),
		t.EntryTime.Format(time.RFC3339),
		f(t.EntryPrice),
		t.ExitTime.Format(time.RFC3339),
		f(t.ExitPrice),
		f(t.RealizedPL),
	}
}

// Row formats the record in EquityColumns order.
func (e EquitySnapshot) Row() []string {
	return []string{
		e.Time.Format(time.RFC3339),
		f(e.Equity),
		f(e.RunningMax),
		f(e.Drawdown),
	}
}

func (j *CSV) Close() error {
	for _, w := range []*csv.Writer{j.orders, j.trades, j.equity} {
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
	}
	for _, fl := range []*os.File{j.of, j.tf, j.ef} {
		if err := fl.Close(); err != nil {
			return err
		}
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func fopt(x *float64) string {
	if x == nil {
		return ""
	}
	return f(*x)
}

func topt(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
