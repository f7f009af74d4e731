package sim

import (
	"time"

	"github.com/optbacktest/barsim/market"
)

// PositionView is the read-only position summary inside a Snapshot.
type PositionView struct {
	Side     string // LONG, SHORT or FLAT
	Quantity float64
	Entry    *float64 // nil when flat
	Class    market.Class
}

// Snapshot is a consistent view of the engine at one playhead position.
// Every series it carries is a fresh header sliced up to the visible index,
// so a caller can render it without holding any engine lock. Revision
// increments whenever engine state changes, which lets callers skip redraws
// for snapshots they have already seen.
type Snapshot struct {
	Revision uint64
	Index    int
	Length   int
	Time     time.Time // current bar time; zero when the base series is empty

	Base       *market.Series // visible base bars [1..Index]
	Derivative *market.Series // visible derivative bars, time-aligned to Base
	Aggregate  *market.Series // visible base re-binned to the engine interval
	Daily      *market.Series // daily history merged with visible live days

	Position     PositionView
	LastPrice    *float64 // underlying close at the playhead
	MarkToMarket float64
	RealizedPL   float64 // net of commissions
	Commissions  float64
	TotalPL      float64 // RealizedPL + MarkToMarket
	Equity       []EquityPoint
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Revision:    e.revision,
		Index:       e.idx,
		Length:      e.base.Len(),
		RealizedPL:  e.realized,
		Commissions: e.commissions,
		Equity:      append([]EquityPoint(nil), e.equity.points...),
	}

	snap.Position = PositionView{Side: e.pos.Direction(), Class: e.pos.Class}
	if !e.pos.Flat() {
		snap.Position.Quantity = e.pos.Quantity
		entry := e.pos.Entry
		snap.Position.Entry = &entry
	}

	if e.base.Len() == 0 {
		return snap
	}

	bar := e.base.Bars[e.idx-1]
	snap.Time = bar.Time
	last := bar.Close
	snap.LastPrice = &last

	if mark, ok := e.lastPriceLocked(); ok {
		snap.MarkToMarket = e.pos.MarkToMarket(mark)
	}
	snap.TotalPL = snap.RealizedPL + snap.MarkToMarket

	snap.Base = e.base.Slice(e.startIdx, e.idx)
	snap.Derivative = e.visibleDerivLocked()
	snap.Aggregate = market.AggregateMinutes(e.base, e.aggMin, e.startIdx, e.idx)
	snap.Daily = market.MergeDailyHistory(
		e.dailyHist,
		market.AggregateDaily(e.base, e.startIdx, e.idx, e.loc),
		e.lookback,
		e.loc,
	)
	return snap
}

// visibleDerivLocked slices the derivative series to the bars between the
// replay start and the current base bar's timestamp.
func (e *Engine) visibleDerivLocked() *market.Series {
	if e.deriv.Len() == 0 {
		return nil
	}
	millis := e.base.Millis()
	k := market.IndexAtOrBefore(e.deriv.Millis(), millis[e.idx-1]) + 1
	if k < 1 {
		return nil
	}
	// First derivative bar at or after the start bar's time.
	lo := market.IndexAtOrBefore(e.deriv.Millis(), millis[e.startIdx-1]-1) + 2
	if lo < 1 {
		lo = 1
	}
	if lo > k {
		return nil
	}
	return e.deriv.Slice(lo, k)
}
