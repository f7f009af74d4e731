package replay

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/optbacktest/barsim/market"
	"github.com/optbacktest/barsim/sim"
)

// Event is one scripted action, applied once the playhead reaches a bar at
// or after its timestamp.
type Event struct {
	Time time.Time
	Kind string // PLACE, CANCEL, CANCEL_ALL, FLATTEN, SET_PARAMS
	Args []string
}

// Script is a time-ordered list of events for a headless run.
type Script []Event

// LoadScript reads a script from a CSV file.
//
// Row format (an optional "time,..." header row is skipped):
//
//	time,event,args...
//
// Events (case-insensitive):
//
//	PLACE:      arg1=side arg2=type arg3=quantity arg4=class [arg5=limit [arg6=tif]]
//	CANCEL:     arg1=N, the 1-based placement index of the order
//	CANCEL_ALL: no args
//	FLATTEN:    no args
//	SET_PARAMS: arg1=slippageBPS arg2=commissionFixed arg3=commissionPerUnit
func LoadScript(path string) (Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadScript(f)
}

func ReadScript(r io.Reader) (Script, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var script Script
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "time") {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("row %d: need at least time,event", line)
		}

		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad time %q: %w", line, row[0], err)
		}
		ev := Event{
			Time: ts,
			Kind: strings.ToUpper(strings.TrimSpace(row[1])),
		}
		for _, a := range row[2:] {
			ev.Args = append(ev.Args, strings.TrimSpace(a))
		}
		if len(script) > 0 && ev.Time.Before(script[len(script)-1].Time) {
			return nil, fmt.Errorf("row %d: events out of order at %s", line, row[0])
		}
		script = append(script, ev)
	}
	return script, nil
}

// Run replays the engine bar by bar to the end, applying scripted events.
// Each bar ticks first, then every not-yet-applied event with a timestamp
// at or before the bar's time fires, so orders match against the bar the
// user would be looking at. Events dated after the last bar never fire.
func Run(ctx context.Context, e *sim.Engine, script Script) error {
	next := 0
	snap := e.Snapshot()
	for {
		for next < len(script) && !script[next].Time.After(snap.Time) {
			if err := apply(e, script[next]); err != nil {
				return fmt.Errorf("event at %s: %w", script[next].Time.Format(time.RFC3339), err)
			}
			next++
		}
		if e.AtEnd() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		snap = e.Step(1)
	}
}

func apply(e *sim.Engine, ev Event) error {
	switch ev.Kind {
	case "PLACE":
		req, err := parsePlace(ev.Args)
		if err != nil {
			return fmt.Errorf("PLACE: %w", err)
		}
		if o := e.PlaceOrder(req); o == nil {
			return fmt.Errorf("PLACE: order rejected: %v", ev.Args)
		}
		return nil

	case "CANCEL":
		if len(ev.Args) < 1 {
			return fmt.Errorf("CANCEL: need order index")
		}
		n, err := strconv.Atoi(ev.Args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("CANCEL: bad order index %q", ev.Args[0])
		}
		orders := e.Orders()
		if n > len(orders) {
			return fmt.Errorf("CANCEL: order index %d out of range (%d placed)", n, len(orders))
		}
		e.CancelOrder(orders[n-1].ID)
		return nil

	case "CANCEL_ALL":
		e.CancelAll()
		return nil

	case "FLATTEN":
		e.Flatten()
		return nil

	case "SET_PARAMS":
		p, err := parseParams(ev.Args)
		if err != nil {
			return fmt.Errorf("SET_PARAMS: %w", err)
		}
		e.SetParams(p)
		return nil

	default:
		return fmt.Errorf("unknown event %q", ev.Kind)
	}
}

func parsePlace(args []string) (sim.OrderRequest, error) {
	var req sim.OrderRequest
	if len(args) < 4 {
		return req, fmt.Errorf("need side,type,quantity,class")
	}

	switch strings.ToUpper(args[0]) {
	case "BUY":
		req.Side = sim.Buy
	case "SELL":
		req.Side = sim.Sell
	default:
		return req, fmt.Errorf("bad side %q", args[0])
	}

	switch strings.ToUpper(args[1]) {
	case "MARKET":
		req.Type = sim.Market
	case "LIMIT":
		req.Type = sim.Limit
	case "STOP":
		req.Type = sim.Stop
	default:
		return req, fmt.Errorf("bad type %q", args[1])
	}

	qty, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return req, fmt.Errorf("bad quantity %q: %w", args[2], err)
	}
	req.Quantity = qty

	switch strings.ToLower(args[3]) {
	case string(market.Underlying):
		req.Class = market.Underlying
	case string(market.Derivative):
		req.Class = market.Derivative
	default:
		return req, fmt.Errorf("bad class %q", args[3])
	}

	if len(args) >= 5 && args[4] != "" {
		lim, err := strconv.ParseFloat(args[4], 64)
		if err != nil {
			return req, fmt.Errorf("bad limit %q: %w", args[4], err)
		}
		req.Limit = lim
	}
	if len(args) >= 6 && args[5] != "" {
		switch strings.ToUpper(args[5]) {
		case "DAY":
			req.TIF = sim.Day
		case "GTC":
			req.TIF = sim.GTC
		default:
			return req, fmt.Errorf("bad tif %q", args[5])
		}
	}
	return req, nil
}

func parseParams(args []string) (sim.Params, error) {
	var p sim.Params
	if len(args) < 3 {
		return p, fmt.Errorf("need slippageBPS,commissionFixed,commissionPerUnit")
	}
	vals := make([]float64, 3)
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return p, fmt.Errorf("bad value %q: %w", args[i], err)
		}
		vals[i] = v
	}
	p.SlippageBPS = vals[0]
	p.CommissionFixed = vals[1]
	p.CommissionPerUnit = vals[2]
	return p, nil
}
