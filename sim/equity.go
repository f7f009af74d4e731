package sim

import "time"

// EquityPoint is one append-only sample of the equity/drawdown curve.
type EquityPoint struct {
	Time       time.Time
	Equity     float64
	RunningMax float64
	Drawdown   float64 // equity/runningMax - 1, or 0 when runningMax <= 0
}

type equityCurve struct {
	points []EquityPoint
}

func (c *equityCurve) append(ts time.Time, equity float64) EquityPoint {
	runMax := equity
	if n := len(c.points); n > 0 && c.points[n-1].RunningMax > runMax {
		runMax = c.points[n-1].RunningMax
	}
	dd := 0.0
	if runMax > 0 {
		dd = equity/runMax - 1
	}
	p := EquityPoint{Time: ts, Equity: equity, RunningMax: runMax, Drawdown: dd}
	c.points = append(c.points, p)
	return p
}

func (c *equityCurve) reset() { c.points = nil }
