package sim

import (
	"sync"
	"time"

	"github.com/optbacktest/barsim/journal"
	"github.com/optbacktest/barsim/market"
	"github.com/optbacktest/barsim/pkg/id"
)

// Input is consumed once at engine construction.
type Input struct {
	Base         *market.Series // required; empty means an idle engine
	Derivative   *market.Series // optional linked option series
	DailyHistory *market.Series // optional server-supplied daily prefix

	Location         *time.Location // day-boundary timezone; nil = UTC
	AggregateMinutes int            // derived bar interval; default 30
	DailyLookback    int            // merged daily bars kept; default 100
	InitialCapital   float64
	StartAt          time.Time // optional; playhead starts at-or-before
	Params           Params
}

const (
	defaultAggregateMinutes = 30
	defaultDailyLookback    = 100
)

// Engine replays a base bar series under a moving playhead and keeps all
// simulation state: pending orders, the position ledger, the trade log and
// the equity curve. A full tick (match, ledger, trades, equity) runs under
// one lock, so no caller observes a partially updated state. Two engines
// never share state.
type Engine struct {
	mu sync.Mutex

	base      *market.Series
	deriv     *market.Series
	dailyHist *market.Series
	loc       *time.Location
	aggMin    int
	lookback  int
	capital   float64
	params    Params

	startIdx int
	idx      int

	orders      []*Order
	pos         Position
	trades      []Trade
	equity      equityCurve
	realized    float64
	commissions float64
	revision    uint64

	journal journal.Journal
	jerr    error
}

func NewEngine(in Input, j journal.Journal) *Engine {
	if j == nil {
		j = journal.Discard{}
	}
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	aggMin := in.AggregateMinutes
	if aggMin <= 0 {
		aggMin = defaultAggregateMinutes
	}
	lookback := in.DailyLookback
	if lookback <= 0 {
		lookback = defaultDailyLookback
	}

	e := &Engine{
		base:      in.Base,
		deriv:     in.Derivative,
		dailyHist: in.DailyHistory,
		loc:       loc,
		aggMin:    aggMin,
		lookback:  lookback,
		capital:   in.InitialCapital,
		params:    in.Params,
		startIdx:  1,
		idx:       1,
		journal:   j,
	}

	if !in.StartAt.IsZero() && e.base.Len() > 0 {
		i := market.IndexAtOrBefore(e.base.Millis(), in.StartAt.UnixMilli()) + 1
		if i < 1 {
			i = 1
		}
		e.startIdx = i
		e.idx = i
	}

	if e.base.Len() > 0 {
		e.mu.Lock()
		e.tickLocked()
		e.mu.Unlock()
	}
	return e
}

func (e *Engine) Len() int { return e.base.Len() }

func (e *Engine) Index() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.idx
}

func (e *Engine) StartIndex() int { return e.startIdx }

func (e *Engine) AtEnd() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.base.Len() == 0 || e.idx >= e.base.Len()
}

// JournalErr reports the first journal write failure, if any. The engine
// keeps running on journal errors; the in-memory state stays authoritative.
func (e *Engine) JournalErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.jerr
}

func (e *Engine) Params() Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// SetParams swaps the execution-cost parameters. Already-filled orders keep
// their prices.
func (e *Engine) SetParams(p Params) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params = p
}

// Step moves the playhead by delta bars, clamped to [start, length]. A step
// that actually changes the index runs one full tick; step(0) is a pure
// snapshot read.
func (e *Engine) Step(delta int) Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.base.Len() == 0 {
		return e.snapshotLocked()
	}

	next := e.idx + delta
	if next < e.startIdx {
		next = e.startIdx
	}
	if next > e.base.Len() {
		next = e.base.Len()
	}
	if next != e.idx {
		e.idx = next
		e.tickLocked()
	}
	return e.snapshotLocked()
}

// SeekStart rewinds the playhead to the starting index. Orders already
// filled stay filled: replay history is monotonic even when the visible
// index moves back.
func (e *Engine) SeekStart() Snapshot {
	e.mu.Lock()
	start := e.startIdx
	cur := e.idx
	e.mu.Unlock()
	return e.Step(start - cur)
}

// Reset clears position, orders, trades and equity history and rewinds the
// playhead. The input series are untouched.
func (e *Engine) Reset() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.orders = nil
	e.pos = Position{}
	e.trades = nil
	e.equity.reset()
	e.realized = 0
	e.commissions = 0
	e.idx = e.startIdx
	e.revision++

	if e.base.Len() > 0 {
		e.tickLocked()
	}
	return e.snapshotLocked()
}

// PlaceOrder creates an OPEN order and immediately tries to match it (and
// any other open orders) against the current bar, so a market order fills
// on the bar the user is looking at. Returns nil without any state change
// when the quantity is not positive, when a LIMIT/STOP order has no
// positive limit price, or when there is no base series.
func (e *Engine) PlaceOrder(req OrderRequest) *Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	if req.Quantity <= 0 || e.base.Len() == 0 {
		return nil
	}
	if (req.Type == Limit || req.Type == Stop) && req.Limit <= 0 {
		return nil
	}

	bar := e.base.Bars[e.idx-1]
	o := &Order{
		ID:        id.New(),
		Side:      req.Side,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Class:     req.Class,
		TIF:       req.TIF,
		Status:    Open,
		CreatedAt: bar.Time,
	}
	if o.Class == "" {
		o.Class = market.Underlying
	}
	if o.TIF == "" {
		o.TIF = Day
	}
	if req.Type != Market {
		lim := req.Limit
		o.Limit = &lim
	}
	e.orders = append(e.orders, o)
	e.jot(e.journal.RecordOrder(orderRecord(o)))

	e.matchAllLocked()
	e.revision++

	out := *o
	return &out
}

// CancelOrder transitions a matching OPEN order to CANCELLED. Cancelling an
// already-terminal or unknown order reports false and changes nothing.
func (e *Engine) CancelOrder(orderID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, o := range e.orders {
		if o.ID == orderID && o.Status == Open {
			o.Status = Cancelled
			e.jot(e.journal.RecordOrder(orderRecord(o)))
			e.revision++
			return true
		}
	}
	return false
}

// CancelAll cancels every OPEN order and reports how many it cancelled.
func (e *Engine) CancelAll() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, o := range e.orders {
		if o.Status == Open {
			o.Status = Cancelled
			e.jot(e.journal.RecordOrder(orderRecord(o)))
			n++
		}
	}
	if n > 0 {
		e.revision++
	}
	return n
}

// Flatten places a market order opposite the open position for its full
// quantity. Returns nil when already flat.
func (e *Engine) Flatten() *Order {
	e.mu.Lock()
	pos := e.pos
	e.mu.Unlock()

	if pos.Flat() {
		return nil
	}
	side := Sell
	if pos.Quantity < 0 {
		side = Buy
	}
	return e.PlaceOrder(OrderRequest{
		Side:     side,
		Type:     Market,
		Quantity: absQty(pos.Quantity),
		Class:    pos.Class,
		TIF:      Day,
	})
}

// Orders returns a copy of the order table in placement order.
func (e *Engine) Orders() []Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Order, len(e.orders))
	for i, o := range e.orders {
		out[i] = *o
	}
	return out
}

// Trades returns a copy of the completed round trips.
func (e *Engine) Trades() []Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Trade(nil), e.trades...)
}

// EquityCurve returns a copy of the equity points recorded so far.
func (e *Engine) EquityCurve() []EquityPoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]EquityPoint(nil), e.equity.points...)
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// tickLocked runs one full tick for the current index: match open orders,
// fold fills into the ledger, then append an equity point. Derived series
// are pure functions of the visible range and are built per snapshot.
func (e *Engine) tickLocked() {
	bar := e.base.Bars[e.idx-1]

	e.matchAllLocked()

	mtm := 0.0
	if last, ok := e.lastPriceLocked(); ok {
		mtm = e.pos.MarkToMarket(last)
	}
	pt := e.equity.append(bar.Time, e.capital+e.realized+mtm)
	e.jot(e.journal.RecordEquity(journal.EquitySnapshot{
		Time:       pt.Time,
		Equity:     pt.Equity,
		RunningMax: pt.RunningMax,
		Drawdown:   pt.Drawdown,
	}))
	e.revision++
}

// matchAllLocked re-evaluates every OPEN order against the current bar of
// its instrument. Orders that do not trigger stay OPEN for the next bar.
func (e *Engine) matchAllLocked() {
	barU := e.base.Bars[e.idx-1]
	barO, haveO := e.derivBarLocked()

	for _, o := range e.orders {
		if o.Status != Open {
			continue
		}
		bar := barU
		if o.Class == market.Derivative {
			if !haveO {
				continue // no derivative price this tick, keep waiting
			}
			bar = barO
		}

		raw, ok := o.rawFillPrice(bar)
		if !ok {
			continue
		}
		px := e.params.Slip(raw, o.Side)
		comm := e.params.Commission(o.Quantity, o.Class)

		o.Status = Filled
		ft := bar.Time
		o.FilledAt = &ft
		fp := px
		o.FillPrice = &fp

		e.applyFill(o.signedQuantity(), px, o.Class, comm, bar.Time)
		e.jot(e.journal.RecordOrder(orderRecord(o)))
	}
}

// derivBarLocked returns the latest derivative bar at or before the current
// base bar's timestamp.
func (e *Engine) derivBarLocked() (market.Bar, bool) {
	if e.deriv.Len() == 0 || e.base.Len() == 0 {
		return market.Bar{}, false
	}
	k := market.IndexAtOrBefore(e.deriv.Millis(), e.base.Millis()[e.idx-1])
	if k < 0 {
		return market.Bar{}, false
	}
	return e.deriv.Bars[k], true
}

// lastPriceLocked is the mark price for the open position: the derivative
// close when the position is in the derivative and a derivative price
// exists for this tick, otherwise the underlying close.
func (e *Engine) lastPriceLocked() (float64, bool) {
	if e.base.Len() == 0 {
		return 0, false
	}
	if e.pos.Class == market.Derivative {
		if b, ok := e.derivBarLocked(); ok {
			return b.Close, true
		}
	}
	return e.base.Bars[e.idx-1].Close, true
}

func (e *Engine) recordTrade(closedQty, entryPx, exitPx float64, entryTs, exitTs time.Time, class market.Class) {
	dir := "LONG"
	if closedQty < 0 {
		dir = "SHORT"
	}
	t := Trade{
		ID:         id.New(),
		Direction:  dir,
		Quantity:   absQty(closedQty),
		EntryTime:  entryTs,
		EntryPrice: entryPx,
		ExitTime:   exitTs,
		ExitPrice:  exitPx,
	}
	per := exitPx - entryPx
	if closedQty < 0 {
		per = entryPx - exitPx
	}
	t.RealizedPL = per * t.Quantity * class.Multiplier()

	e.trades = append(e.trades, t)
	e.jot(e.journal.RecordTrade(journal.TradeRecord{
		TradeID:    t.ID,
		Direction:  t.Direction,
		Quantity:   t.Quantity,
		EntryTime:  t.EntryTime,
		EntryPrice: t.EntryPrice,
		ExitTime:   t.ExitTime,
		ExitPrice:  t.ExitPrice,
		RealizedPL: t.RealizedPL,
	}))
}

func (e *Engine) jot(err error) {
	if err != nil && e.jerr == nil {
		e.jerr = err
	}
}

func orderRecord(o *Order) journal.OrderRecord {
	return journal.OrderRecord{
		OrderID:    o.ID,
		Time:       o.CreatedAt,
		Side:       string(o.Side),
		Type:       string(o.Type),
		Price:      o.Limit,
		Quantity:   o.Quantity,
		Instrument: string(o.Class),
		Status:     string(o.Status),
		FillTime:   o.FilledAt,
		FillPrice:  o.FillPrice,
	}
}

func absQty(q float64) float64 {
	if q < 0 {
		return -q
	}
	return q
}
