package sim

import "time"

// Trade is one completed round trip: a closed position segment with entry
// and exit both recorded. A fill that closes an old position and opens an
// opposite one produces a Trade for the closed segment plus a fresh
// Position, never a single merged record.
type Trade struct {
	ID         string
	Direction  string // LONG or SHORT
	Quantity   float64
	EntryTime  time.Time
	EntryPrice float64
	ExitTime   time.Time
	ExitPrice  float64
	RealizedPL float64
}
