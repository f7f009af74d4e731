package market

import (
	"fmt"
	"strings"
	"time"
)

// Aggregation derives coarser-timeframe series from a base series. Each
// function recomputes its output from scratch over the requested index range;
// outputs are pure functions of (base, from, upTo) so a moving playhead never
// has to patch previously emitted bars.

// AggregateMinutes rolls the 1-based base range [from, upTo] into n-minute
// bars. A new output bar starts whenever floor(ms / n*60000) changes; open is
// the first bar's open, high/low the running extremes, close the last bar's
// close and volume the running sum.
func AggregateMinutes(s *Series, n, from, upTo int) *Series {
	title := fmt.Sprintf("%s · %dm", baseName(s.title()), n)
	if s.Len() == 0 || n <= 0 {
		return NewSeries(title, s.class(), nil)
	}
	from, upTo = clampRange(from, upTo, s.Len())

	bin := int64(n) * 60_000
	ms := s.Millis()
	key := func(i int) int64 { return ms[i-1] / bin * bin }
	return accumulate(s, from, upTo, title, func(i int) any { return key(i) })
}

// AggregateDaily rolls the 1-based base range [from, upTo] into calendar-day
// bars. The bucket key is the calendar date of the bar's timestamp in loc
// (not UTC), so day boundaries line up with any server-supplied daily
// history. A nil loc means UTC.
func AggregateDaily(s *Series, from, upTo int, loc *time.Location) *Series {
	title := fmt.Sprintf("%s · 1d", baseName(s.title()))
	if s.Len() == 0 {
		return NewSeries(title, s.class(), nil)
	}
	from, upTo = clampRange(from, upTo, s.Len())
	return accumulate(s, from, upTo, title, func(i int) any {
		return dayKey(s.Bars[i-1].Time, loc)
	})
}

func accumulate(s *Series, from, upTo int, title string, key func(i int) any) *Series {
	var (
		out  []Bar
		cur  any
		have bool
		acc  Bar
	)
	flush := func() {
		if have {
			out = append(out, acc)
		}
	}
	for i := from; i <= upTo; i++ {
		b := s.Bars[i-1]
		k := key(i)
		if !have || k != cur {
			flush()
			cur, have = k, true
			acc = b
			continue
		}
		if b.High > acc.High {
			acc.High = b.High
		}
		if b.Low < acc.Low {
			acc.Low = b.Low
		}
		acc.Close = b.Close
		acc.Volume += b.Volume
	}
	flush()
	return NewSeries(title, s.class(), out)
}

// MergeDailyHistory merges a server-supplied daily prefix with a
// live-computed daily series: all history bars strictly before the calendar
// day of live's first bar, then all of live, truncated to the most recent
// maxLookback bars. maxLookback <= 0 means unbounded.
func MergeDailyHistory(hist, live *Series, maxLookback int, loc *time.Location) *Series {
	title := live.title()
	if title == "" {
		title = hist.title()
	}
	class := live.class()

	var out []Bar
	if live.Len() > 0 {
		firstLive := dayKey(live.Bars[0].Time, loc)
		for i := 0; i < hist.Len(); i++ {
			if dayKey(hist.Bars[i].Time, loc) >= firstLive {
				break
			}
			out = append(out, hist.Bars[i])
		}
	} else if hist != nil {
		out = append(out, hist.Bars...)
	}
	if live != nil {
		out = append(out, live.Bars...)
	}
	if maxLookback > 0 && len(out) > maxLookback {
		out = out[len(out)-maxLookback:]
	}
	return NewSeries(title, class, out)
}

// FilterSession keeps only bars whose local hour in loc falls inside
// [openHour, closeHour). A window wrapping midnight (openHour > closeHour)
// keeps bars outside (closeHour, openHour]. Equal hours return the series
// unchanged.
func FilterSession(s *Series, openHour, closeHour int, loc *time.Location) *Series {
	if s.Len() == 0 || openHour == closeHour {
		return s
	}
	if loc == nil {
		loc = time.UTC
	}
	var out []Bar
	for _, b := range s.Bars {
		t := b.Time.In(loc)
		h := float64(t.Hour()) + float64(t.Minute())/60
		in := h >= float64(openHour) && h < float64(closeHour)
		if openHour > closeHour {
			in = h >= float64(openHour) || h < float64(closeHour)
		}
		if in {
			out = append(out, b)
		}
	}
	return NewSeries(s.Title, s.Class, out)
}

// dayKey encodes the calendar date of t in loc as yyyymmdd.
func dayKey(t time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return y*10_000 + int(m)*100 + d
}

// baseName strips any resolution suffix from a derived series title, e.g.
// "AAPL · 30m" -> "AAPL".
func baseName(title string) string {
	name, _, _ := strings.Cut(title, "·")
	name = strings.TrimSpace(name)
	if name == "" {
		return "series"
	}
	return name
}
