package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optbacktest/barsim/market"
)

// ledger returns an idle engine for exercising applyFill directly.
func ledger(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(Input{}, nil)
}

func TestApplyFillOpens(t *testing.T) {
	e := ledger(t)
	ts := time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC)

	e.applyFill(10, 100, market.Underlying, 0, ts)

	assert.Equal(t, 10.0, e.pos.Quantity)
	assert.Equal(t, 100.0, e.pos.Entry)
	assert.Equal(t, ts, e.pos.OpenedAt)
	assert.Empty(t, e.trades)
}

func TestApplyFillAveragesSameDirection(t *testing.T) {
	e := ledger(t)
	ts := time.Now()

	e.applyFill(10, 100, market.Underlying, 0, ts)
	e.applyFill(30, 104, market.Underlying, 0, ts)

	assert.Equal(t, 40.0, e.pos.Quantity)
	assert.InDelta(t, 103, e.pos.Entry, 1e-9) // (100*10 + 104*30) / 40
	assert.Empty(t, e.trades)
}

func TestApplyFillPartialClose(t *testing.T) {
	e := ledger(t)
	ts := time.Now()

	e.applyFill(10, 100, market.Underlying, 0, ts)
	e.applyFill(-4, 110, market.Underlying, 0, ts)

	assert.Equal(t, 6.0, e.pos.Quantity)
	assert.Equal(t, 100.0, e.pos.Entry) // entry unchanged on partial close
	assert.InDelta(t, 40, e.realized, 1e-9)

	require.Len(t, e.trades, 1)
	assert.Equal(t, "LONG", e.trades[0].Direction)
	assert.Equal(t, 4.0, e.trades[0].Quantity)
	assert.InDelta(t, 40, e.trades[0].RealizedPL, 1e-9)
}

func TestApplyFillPartialCloseShort(t *testing.T) {
	e := ledger(t)
	ts := time.Now()

	e.applyFill(-10, 100, market.Underlying, 0, ts)
	e.applyFill(4, 95, market.Underlying, 0, ts)

	assert.Equal(t, -6.0, e.pos.Quantity)
	assert.Equal(t, 100.0, e.pos.Entry)
	assert.InDelta(t, 20, e.realized, 1e-9)

	require.Len(t, e.trades, 1)
	assert.Equal(t, "SHORT", e.trades[0].Direction)
	assert.Equal(t, 4.0, e.trades[0].Quantity)
}

func TestApplyFillFullCloseGoesFlat(t *testing.T) {
	e := ledger(t)
	ts := time.Now()

	e.applyFill(-5, 200, market.Underlying, 0, ts)
	e.applyFill(5, 190, market.Underlying, 0, ts)

	assert.True(t, e.pos.Flat())
	assert.InDelta(t, 50, e.realized, 1e-9)
	require.Len(t, e.trades, 1)
	assert.Equal(t, "SHORT", e.trades[0].Direction)
}

func TestApplyFillFlipsThroughFlat(t *testing.T) {
	e := ledger(t)
	ts := time.Now()

	e.applyFill(10, 100, market.Underlying, 0, ts)
	e.applyFill(-25, 110, market.Underlying, 0, ts)

	// The first 10 close the long; the remaining 15 open a short at 110.
	assert.Equal(t, -15.0, e.pos.Quantity)
	assert.Equal(t, 110.0, e.pos.Entry)
	assert.InDelta(t, 100, e.realized, 1e-9)

	require.Len(t, e.trades, 1)
	assert.Equal(t, "LONG", e.trades[0].Direction)
	assert.Equal(t, 10.0, e.trades[0].Quantity)
}

func TestApplyFillClassSwitchForcesClose(t *testing.T) {
	e := ledger(t)
	ts := time.Now()

	e.applyFill(10, 100, market.Underlying, 0, ts)
	e.applyFill(2, 5, market.Derivative, 0, ts.Add(time.Minute))

	assert.Equal(t, 2.0, e.pos.Quantity)
	assert.Equal(t, market.Derivative, e.pos.Class)
	assert.Equal(t, 5.0, e.pos.Entry)

	// The underlying position was closed at the derivative fill price.
	require.Len(t, e.trades, 1)
	assert.Equal(t, 10.0, e.trades[0].Quantity)
	assert.InDelta(t, (5.0-100.0)*10, e.trades[0].RealizedPL, 1e-9)
}

func TestApplyFillDeductsCommission(t *testing.T) {
	e := ledger(t)
	ts := time.Now()

	e.applyFill(10, 100, market.Underlying, 1.5, ts)
	e.applyFill(-10, 100, market.Underlying, 1.5, ts)

	assert.InDelta(t, -3, e.realized, 1e-9)
	assert.InDelta(t, 3, e.commissions, 1e-9)
	require.Len(t, e.trades, 1)
	assert.InDelta(t, 0, e.trades[0].RealizedPL, 1e-9) // trade PnL excludes commission
}

func TestDerivativePLUsesMultiplier(t *testing.T) {
	e := ledger(t)
	ts := time.Now()

	e.applyFill(2, 5.00, market.Derivative, 0, ts)
	e.applyFill(-2, 5.40, market.Derivative, 0, ts)

	require.Len(t, e.trades, 1)
	assert.InDelta(t, 0.40*2*100, e.trades[0].RealizedPL, 1e-9)
	assert.InDelta(t, 80, e.realized, 1e-9)
}

func TestMarkToMarket(t *testing.T) {
	long := Position{Quantity: 10, Entry: 100, Class: market.Underlying}
	assert.InDelta(t, 50, long.MarkToMarket(105), 1e-9)

	short := Position{Quantity: -10, Entry: 100, Class: market.Underlying}
	assert.InDelta(t, -50, short.MarkToMarket(105), 1e-9)

	opt := Position{Quantity: 2, Entry: 5, Class: market.Derivative}
	assert.InDelta(t, 0.5*2*100, opt.MarkToMarket(5.5), 1e-9)

	assert.Zero(t, Position{}.MarkToMarket(123))
}

func TestDirection(t *testing.T) {
	assert.Equal(t, "LONG", Position{Quantity: 1}.Direction())
	assert.Equal(t, "SHORT", Position{Quantity: -1}.Direction())
	assert.Equal(t, "FLAT", Position{}.Direction())
}
