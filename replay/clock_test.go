package replay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optbacktest/barsim/market"
	"github.com/optbacktest/barsim/sim"
)

var t0 = time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC)

func minuteSeries(closes ...float64) *market.Series {
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Time:   t0.Add(time.Duration(i) * time.Minute),
			Open:   c - 1,
			High:   c + 2,
			Low:    c - 2,
			Close:  c,
			Volume: 10,
		}
	}
	return market.NewSeries("TEST · 1m", market.Underlying, bars)
}

func newEngine(t *testing.T, closes ...float64) *sim.Engine {
	t.Helper()
	return sim.NewEngine(sim.Input{
		Base:           minuteSeries(closes...),
		InitialCapital: 10_000,
	}, nil)
}

func TestClockPlaysToEndAndPauses(t *testing.T) {
	e := newEngine(t, 100, 101, 102, 103)
	c := NewClock(e, time.Millisecond)

	c.Play()
	require.True(t, c.Playing())

	assert.Eventually(t, e.AtEnd, 2*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return !c.Playing() }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 4, e.Index())
}

func TestClockPlayAtEndIsNoop(t *testing.T) {
	e := newEngine(t, 100, 101)
	e.Step(10)
	require.True(t, e.AtEnd())

	c := NewClock(e, 0)
	c.Play()
	assert.False(t, c.Playing())
}

func TestClockStepPausesPlayback(t *testing.T) {
	e := newEngine(t, 100, 101, 102, 103, 104)
	c := NewClock(e, 0)

	c.Play()
	snap := c.Step(1)
	assert.False(t, c.Playing())
	assert.GreaterOrEqual(t, snap.Index, 2)
}

func TestClockStartRewinds(t *testing.T) {
	e := newEngine(t, 100, 101, 102)
	c := NewClock(e, 0)

	c.Step(2)
	snap := c.Start()
	assert.Equal(t, 1, snap.Index)
	assert.False(t, c.Playing())
}

func TestClockSpeed(t *testing.T) {
	c := NewClock(newEngine(t, 100, 101), 0)

	assert.Equal(t, 1.0, c.Speed())
	c.SetSpeed(4)
	assert.Equal(t, 4.0, c.Speed())
	c.SetSpeed(0) // ignored
	assert.Equal(t, 4.0, c.Speed())
	c.SetSpeed(-2) // ignored
	assert.Equal(t, 4.0, c.Speed())
}

func TestClockSetSpeedWhilePlaying(t *testing.T) {
	e := newEngine(t, 100, 101, 102, 103)
	c := NewClock(e, 0)

	c.Play()
	c.SetSpeed(600)
	assert.True(t, c.Playing())
	assert.Eventually(t, e.AtEnd, 2*time.Second, 5*time.Millisecond)
	c.Pause()
}
