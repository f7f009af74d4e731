package sim

import (
	"time"

	"github.com/optbacktest/barsim/market"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type OrderType string

const (
	Market OrderType = "MARKET"
	Limit  OrderType = "LIMIT"
	Stop   OrderType = "STOP"
)

type Status string

const (
	Open      Status = "OPEN"
	Filled    Status = "FILLED"
	Cancelled Status = "CANCELLED"
)

// TIF is recorded on orders but not enforced: an unfilled order stays OPEN
// until filled or cancelled regardless of its time in force.
type TIF string

const (
	Day TIF = "DAY"
	GTC TIF = "GTC"
)

// Order is a simulated order. FILLED and CANCELLED are terminal; an order
// fills all-or-nothing, never partially.
type Order struct {
	ID        string
	Side      Side
	Type      OrderType
	Limit     *float64 // required for LIMIT and STOP, nil for MARKET
	Quantity  float64
	Class     market.Class
	TIF       TIF
	Status    Status
	CreatedAt time.Time
	FilledAt  *time.Time
	FillPrice *float64
}

// OrderRequest is the input to Engine.PlaceOrder.
type OrderRequest struct {
	Side     Side
	Type     OrderType
	Limit    float64 // ignored for MARKET
	Quantity float64
	Class    market.Class
	TIF      TIF
}

// rawFillPrice decides whether the bar's OHLC envelope triggers the order
// and at what price, before slippage.
//
// Market orders fill at the close. Limit orders get price improvement when
// the bar opens through the limit (gap fill at the open). Stop orders fill
// at the worse of open or stop, since a triggered stop takes liquidity in a
// moving market.
func (o *Order) rawFillPrice(b market.Bar) (float64, bool) {
	switch o.Type {
	case Market:
		return b.Close, true

	case Limit:
		if o.Limit == nil {
			return 0, false
		}
		lim := *o.Limit
		if o.Side == Buy && b.Low <= lim {
			return min(b.Open, lim), true
		}
		if o.Side == Sell && b.High >= lim {
			return max(b.Open, lim), true
		}

	case Stop:
		if o.Limit == nil {
			return 0, false
		}
		lim := *o.Limit
		if o.Side == Buy && b.High >= lim {
			return max(b.Open, lim), true
		}
		if o.Side == Sell && b.Low <= lim {
			return min(b.Open, lim), true
		}
	}
	return 0, false
}

// signedQuantity maps BUY to +qty and SELL to -qty.
func (o *Order) signedQuantity() float64 {
	if o.Side == Sell {
		return -o.Quantity
	}
	return o.Quantity
}
