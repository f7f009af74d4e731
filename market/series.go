package market

import (
	"errors"
	"sort"
)

var ErrIndexOutOfRange = errors.New("bar index out of range")

// Series is an ordered sequence of bars with strictly increasing timestamps,
// tagged with a resolution title and an instrument class.
type Series struct {
	Title string
	Class Class
	Bars  []Bar

	millis []int64
}

// NewSeries builds a series and caches the epoch-millisecond timestamps used
// for all time-bucket math.
func NewSeries(title string, class Class, bars []Bar) *Series {
	ms := make([]int64, len(bars))
	for i, b := range bars {
		ms[i] = b.Time.UnixMilli()
	}
	return &Series{Title: title, Class: class, Bars: bars, millis: ms}
}

func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// At returns the bar at a 1-based index.
func (s *Series) At(i int) (Bar, error) {
	if s == nil || i < 1 || i > len(s.Bars) {
		return Bar{}, ErrIndexOutOfRange
	}
	return s.Bars[i-1], nil
}

// Millis returns the cached epoch-millisecond timestamps, parallel to Bars.
func (s *Series) Millis() []int64 {
	if s == nil {
		return nil
	}
	return s.millis
}

// Slice returns the sub-series covering the 1-based range [from, upTo],
// clamped to valid bounds. The returned series shares backing storage with
// the receiver; neither is mutated.
func (s *Series) Slice(from, upTo int) *Series {
	if s.Len() == 0 {
		return &Series{Title: s.title(), Class: s.class()}
	}
	from, upTo = clampRange(from, upTo, len(s.Bars))
	return &Series{
		Title:  s.Title,
		Class:  s.Class,
		Bars:   s.Bars[from-1 : upTo],
		millis: s.millis[from-1 : upTo],
	}
}

func (s *Series) title() string {
	if s == nil {
		return ""
	}
	return s.Title
}

func (s *Series) class() Class {
	if s == nil {
		return Underlying
	}
	return s.Class
}

// IndexAtOrBefore returns the greatest 0-based index i with millis[i] <= ms,
// or -1 when every timestamp is after ms.
func IndexAtOrBefore(millis []int64, ms int64) int {
	return sort.Search(len(millis), func(i int) bool { return millis[i] > ms }) - 1
}

func clampRange(from, upTo, n int) (int, int) {
	if from < 1 {
		from = 1
	}
	if from > n {
		return n + 1, n // empty range
	}
	if upTo > n {
		upTo = n
	}
	if upTo < from {
		upTo = from
	}
	return from, upTo
}
