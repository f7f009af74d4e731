package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/optbacktest/barsim/config"
	"github.com/optbacktest/barsim/journal"
	"github.com/optbacktest/barsim/market"
	"github.com/optbacktest/barsim/replay"
	"github.com/optbacktest/barsim/sim"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a headless replay from a config file",
	Long: `Replay a bar series end to end, applying an optional event script,
and print a run summary.

Example:
  barsim run -f examples/configs/spy.yaml --script orders.csv`,
	RunE: runRun,
}

var (
	runConfigPath string
	runScriptPath string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().StringVar(&runScriptPath, "script", "", "event script CSV (overrides replay.script from the config)")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	engine, j, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer j.Close()

	scriptPath := runScriptPath
	if scriptPath == "" {
		scriptPath = cfg.Replay.Script
	}
	var script replay.Script
	if scriptPath != "" {
		script, err = replay.LoadScript(scriptPath)
		if err != nil {
			return fmt.Errorf("load script: %w", err)
		}
	}

	if err := replay.Run(context.Background(), engine, script); err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	sim.PrintSummary(os.Stdout, engine.Summarize())

	if err := engine.JournalErr(); err != nil {
		fmt.Fprintf(os.Stderr, "journal: %v\n", err)
	}
	return nil
}

// buildEngine assembles series, journal and engine from a validated config.
func buildEngine(cfg *config.Config) (*sim.Engine, journal.Journal, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	playFrom, err := cfg.PlayFrom()
	if err != nil {
		return nil, nil, err
	}

	base, err := market.LoadSeriesCSV(cfg.Data.BaseCSV, cfg.Session.Instrument, market.Underlying)
	if err != nil {
		return nil, nil, fmt.Errorf("load base series: %w", err)
	}
	if cfg.Session.OpenHour != cfg.Session.CloseHour {
		base = market.FilterSession(base, cfg.Session.OpenHour, cfg.Session.CloseHour, loc)
	}

	var deriv *market.Series
	if cfg.Data.DerivativeCSV != "" {
		title := cfg.Data.DerivativeTitle
		if title == "" {
			title = cfg.Session.Instrument
		}
		deriv, err = market.LoadSeriesCSV(cfg.Data.DerivativeCSV, title, market.Derivative)
		if err != nil {
			return nil, nil, fmt.Errorf("load derivative series: %w", err)
		}
	}

	var daily *market.Series
	if cfg.Data.DailyHistoryCSV != "" {
		daily, err = market.LoadSeriesCSV(cfg.Data.DailyHistoryCSV, cfg.Session.Instrument, market.Underlying)
		if err != nil {
			return nil, nil, fmt.Errorf("load daily history: %w", err)
		}
	}

	j, err := openJournal(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create journal: %w", err)
	}

	engine := sim.NewEngine(sim.Input{
		Base:             base,
		Derivative:       deriv,
		DailyHistory:     daily,
		Location:         loc,
		AggregateMinutes: cfg.Session.AggregateMinutes,
		DailyLookback:    cfg.Session.DailyLookback,
		InitialCapital:   cfg.Session.InitialCapital,
		StartAt:          playFrom,
		Params: sim.Params{
			SlippageBPS:       cfg.Params.SlippageBPS,
			CommissionFixed:   cfg.Params.CommissionFixed,
			CommissionPerUnit: cfg.Params.CommissionPerUnit,
		},
	}, j)
	return engine, j, nil
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(cfg.Journal.OrdersFile, cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return journal.Discard{}, nil
	}
}
