package sim

import (
	"math"

	"github.com/optbacktest/barsim/market"
)

// Params are the execution-cost knobs, mutable at runtime.
type Params struct {
	SlippageBPS       float64
	CommissionFixed   float64
	CommissionPerUnit float64
}

// Slip applies signed slippage: buys pay up, sells receive less.
func (p Params) Slip(px float64, side Side) float64 {
	adj := p.SlippageBPS / 10_000
	if side == Sell {
		return px * (1 - adj)
	}
	return px * (1 + adj)
}

// Commission is charged on every fill, whether it opens, extends, reduces
// or closes a position.
func (p Params) Commission(qty float64, class market.Class) float64 {
	return p.CommissionPerUnit*math.Abs(qty)*class.Multiplier() + p.CommissionFixed
}
