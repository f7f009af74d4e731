package market

import "time"

// Bar is a single OHLCV candle. Bars are immutable once ingested; callers
// are trusted to supply low <= open,close <= high.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Class identifies which instrument a series, order or position refers to.
type Class string

const (
	Underlying Class = "under"
	Derivative Class = "option"
)

// Multiplier is the contract size scalar applied to every quantity-scaled
// monetary amount (PnL, commission). Option contracts cover 100 units.
func (c Class) Multiplier() float64 {
	if c == Derivative {
		return 100
	}
	return 1
}
