package sim

import (
	"fmt"
	"io"
)

// Summary is a lightweight statistics rollup of a finished (or paused) run.
type Summary struct {
	Trades int
	Wins   int
	Losses int

	WinRate      float64 // percent
	GrossProfit  float64
	GrossLoss    float64 // positive magnitude
	ProfitFactor float64 // 0 when no losses
	NetPL        float64
	Commissions  float64

	StartEquity    float64
	EndEquity      float64
	ReturnPct      float64
	MaxDrawdownPct float64 // positive magnitude, percent
}

// Summarize computes run statistics from the engine's trades and equity
// curve. A trade with zero realized PnL counts as a loss.
func (e *Engine) Summarize() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()

	mtm, _ := e.markLocked()
	s := Summary{
		NetPL:       e.realized + mtm,
		Commissions: e.commissions,
		StartEquity: e.capital,
	}

	for _, t := range e.trades {
		s.Trades++
		if t.RealizedPL > 0 {
			s.Wins++
			s.GrossProfit += t.RealizedPL
		} else {
			s.Losses++
			s.GrossLoss += -t.RealizedPL
		}
	}
	if s.Trades > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Trades) * 100
	}
	if s.GrossLoss > 0 {
		s.ProfitFactor = s.GrossProfit / s.GrossLoss
	}

	s.EndEquity = s.StartEquity
	for _, p := range e.equity.points {
		s.EndEquity = p.Equity
		if dd := -p.Drawdown * 100; dd > s.MaxDrawdownPct {
			s.MaxDrawdownPct = dd
		}
	}
	if s.StartEquity != 0 {
		s.ReturnPct = (s.EndEquity/s.StartEquity - 1) * 100
	}
	return s
}

func (e *Engine) markLocked() (float64, bool) {
	if last, ok := e.lastPriceLocked(); ok {
		return e.pos.MarkToMarket(last), true
	}
	return 0, false
}

func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Replay Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", s.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", s.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", s.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", s.WinRate)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Equity:  %.2f\n", s.StartEquity)
	fmt.Fprintf(w, "End Equity:    %.2f\n", s.EndEquity)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", s.NetPL)
	fmt.Fprintf(w, "Commissions:   %.2f\n", s.Commissions)
	fmt.Fprintf(w, "Return:        %.2f%%\n", s.ReturnPct)

	if s.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", s.ProfitFactor)
	}
	if s.MaxDrawdownPct > 0 {
		fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", s.MaxDrawdownPct)
	}

	fmt.Fprintln(w)
}
