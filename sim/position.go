package sim

import (
	"math"
	"time"

	"github.com/optbacktest/barsim/market"
)

// Position is the single weighted-average lot currently held. Quantity is
// signed: positive long, negative short, zero flat. Entry is meaningless
// when flat.
type Position struct {
	Quantity float64
	Entry    float64
	Class    market.Class
	OpenedAt time.Time
}

func (p Position) Flat() bool { return p.Quantity == 0 }

// Direction reports LONG, SHORT or FLAT.
func (p Position) Direction() string {
	switch {
	case p.Quantity > 0:
		return "LONG"
	case p.Quantity < 0:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// closePL realizes PnL on a closing segment of qty units (signed with the
// position) exiting at px.
func (p Position) closePL(qty, px float64) float64 {
	per := px - p.Entry
	if p.Quantity < 0 {
		per = p.Entry - px
	}
	return per * math.Abs(qty) * p.Class.Multiplier()
}

// MarkToMarket values the open position at the given last price; zero when
// flat.
func (p Position) MarkToMarket(last float64) float64 {
	if p.Quantity == 0 {
		return 0
	}
	d := last - p.Entry
	if p.Quantity < 0 {
		d = p.Entry - last
	}
	return d * math.Abs(p.Quantity) * p.Class.Multiplier()
}

// applyFill folds one fill into the position ledger. Commission is deducted
// from realized PnL up front. The fill then either opens a position, forces
// a class switch, extends with a re-weighted average entry, or closes some
// or all of the position, possibly flipping to the opposite side in the
// same call.
func (e *Engine) applyFill(qty, px float64, class market.Class, comm float64, ts time.Time) {
	e.realized -= comm
	e.commissions += comm

	if e.pos.Flat() {
		e.pos = Position{Quantity: qty, Entry: px, Class: class, OpenedAt: ts}
		return
	}

	// Instrument-class switches are never partially mixed: close the whole
	// position at the fill price, then open fresh.
	if e.pos.Class != class {
		e.realized += e.pos.closePL(e.pos.Quantity, px)
		e.recordTrade(e.pos.Quantity, e.pos.Entry, px, e.pos.OpenedAt, ts, e.pos.Class)
		e.pos = Position{Quantity: qty, Entry: px, Class: class, OpenedAt: ts}
		return
	}

	newQty := e.pos.Quantity + qty
	if e.pos.Quantity*qty > 0 {
		// Same-direction add: re-weight the average entry.
		oldAbs := math.Abs(e.pos.Quantity)
		addAbs := math.Abs(qty)
		e.pos.Entry = (e.pos.Entry*oldAbs + px*addAbs) / (oldAbs + addAbs)
		e.pos.Quantity = newQty
		return
	}

	// Opposite sign: close up to the smaller of the two quantities.
	closing := math.Min(math.Abs(e.pos.Quantity), math.Abs(qty))
	if e.pos.Quantity < 0 {
		closing = -closing
	}
	e.realized += e.pos.closePL(closing, px)
	e.recordTrade(closing, e.pos.Entry, px, e.pos.OpenedAt, ts, e.pos.Class)

	if newQty == 0 {
		e.pos = Position{}
		return
	}
	// Flip: the remainder opens a new position at the fill price.
	e.pos = Position{Quantity: newQty, Entry: px, Class: class, OpenedAt: ts}
}
