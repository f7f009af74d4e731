package replay

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optbacktest/barsim/sim"
)

func TestReadScript(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		"time,event,args",
		"2024-06-03T14:30:00Z,PLACE,BUY,MARKET,10,under",
		"2024-06-03T14:32:00Z,SET_PARAMS,10,1,0.05",
		"2024-06-03T14:33:00Z,FLATTEN",
	}, "\n"))

	script, err := ReadScript(in)
	require.NoError(t, err)
	require.Len(t, script, 3)
	assert.Equal(t, "PLACE", script[0].Kind)
	assert.Equal(t, []string{"BUY", "MARKET", "10", "under"}, script[0].Args)
	assert.Equal(t, "FLATTEN", script[2].Kind)
	assert.Equal(t, time.Date(2024, 6, 3, 14, 33, 0, 0, time.UTC), script[2].Time)
}

func TestReadScriptRejectsOutOfOrder(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		"2024-06-03T14:32:00Z,FLATTEN",
		"2024-06-03T14:30:00Z,CANCEL_ALL",
	}, "\n"))

	_, err := ReadScript(in)
	assert.ErrorContains(t, err, "out of order")
}

func TestReadScriptRejectsBadTime(t *testing.T) {
	_, err := ReadScript(strings.NewReader("yesterday,FLATTEN"))
	assert.ErrorContains(t, err, "bad time")
}

func TestRunAppliesEventsAtTheirBars(t *testing.T) {
	e := newEngine(t, 100, 101, 105, 106)

	script := Script{
		{Time: t0, Kind: "PLACE", Args: []string{"BUY", "MARKET", "10", "under"}},
		{Time: t0.Add(2 * time.Minute), Kind: "FLATTEN"},
	}
	require.NoError(t, Run(context.Background(), e, script))

	require.True(t, e.AtEnd())
	trades := e.Trades()
	require.Len(t, trades, 1)
	// Entry at bar 1 close, exit at bar 3 close.
	assert.InDelta(t, 100, trades[0].EntryPrice, 1e-9)
	assert.InDelta(t, 105, trades[0].ExitPrice, 1e-9)
	assert.InDelta(t, 50, trades[0].RealizedPL, 1e-9)
}

func TestRunSetParamsTakesEffect(t *testing.T) {
	e := newEngine(t, 100, 101, 102)

	script := Script{
		{Time: t0, Kind: "SET_PARAMS", Args: []string{"10", "0", "0"}},
		{Time: t0.Add(time.Minute), Kind: "PLACE", Args: []string{"BUY", "MARKET", "10", "under"}},
	}
	require.NoError(t, Run(context.Background(), e, script))

	orders := e.Orders()
	require.Len(t, orders, 1)
	require.NotNil(t, orders[0].FillPrice)
	assert.InDelta(t, 101*1.001, *orders[0].FillPrice, 1e-9)
}

func TestRunCancelByPlacementIndex(t *testing.T) {
	e := newEngine(t, 100, 101, 102)

	script := Script{
		{Time: t0, Kind: "PLACE", Args: []string{"BUY", "LIMIT", "5", "under", "50"}},
		{Time: t0.Add(time.Minute), Kind: "CANCEL", Args: []string{"1"}},
	}
	require.NoError(t, Run(context.Background(), e, script))

	orders := e.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, sim.Cancelled, orders[0].Status)

	e2 := newEngine(t, 100, 101)
	err := Run(context.Background(), e2, Script{{Time: t0, Kind: "CANCEL", Args: []string{"9"}}})
	assert.ErrorContains(t, err, "out of range")
}

func TestRunRejectsUnknownEvent(t *testing.T) {
	e := newEngine(t, 100, 101)
	err := Run(context.Background(), e, Script{{Time: t0, Kind: "EXPLODE"}})
	assert.ErrorContains(t, err, "unknown event")
}

func TestRunHonorsContext(t *testing.T) {
	e := newEngine(t, 100, 101, 102)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, e, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEventsAfterLastBarNeverFire(t *testing.T) {
	e := newEngine(t, 100, 101)

	script := Script{
		{Time: t0.Add(time.Hour), Kind: "PLACE", Args: []string{"BUY", "MARKET", "1", "under"}},
	}
	require.NoError(t, Run(context.Background(), e, script))
	assert.Empty(t, e.Orders())
}

func TestParsePlace(t *testing.T) {
	req, err := parsePlace([]string{"SELL", "LIMIT", "5", "option", "4.5", "GTC"})
	require.NoError(t, err)
	assert.Equal(t, sim.Sell, req.Side)
	assert.Equal(t, sim.Limit, req.Type)
	assert.Equal(t, 5.0, req.Quantity)
	assert.Equal(t, 4.5, req.Limit)
	assert.Equal(t, sim.GTC, req.TIF)

	_, err = parsePlace([]string{"HOLD", "MARKET", "5", "under"})
	assert.ErrorContains(t, err, "bad side")

	_, err = parsePlace([]string{"BUY", "MARKET"})
	assert.ErrorContains(t, err, "need side")
}
