package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete replay configuration
type Config struct {
	Session Session `json:"session" yaml:"session"`
	Data    Data    `json:"data" yaml:"data"`
	Params  Params  `json:"params" yaml:"params"`
	Journal Journal `json:"journal" yaml:"journal"`
	Replay  Replay  `json:"replay" yaml:"replay"`
}

// Session describes the instrument, session window and starting account.
type Session struct {
	Instrument       string  `json:"instrument" yaml:"instrument"`
	Timezone         string  `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	InitialCapital   float64 `json:"initial_capital" yaml:"initial_capital"`
	AggregateMinutes int     `json:"aggregate_minutes,omitempty" yaml:"aggregate_minutes,omitempty"`
	DailyLookback    int     `json:"daily_lookback,omitempty" yaml:"daily_lookback,omitempty"`
	PlayFrom         string  `json:"play_from,omitempty" yaml:"play_from,omitempty"` // RFC3339

	// Session hours filter in the session timezone. Both zero disables it.
	OpenHour  int `json:"open_hour,omitempty" yaml:"open_hour,omitempty"`
	CloseHour int `json:"close_hour,omitempty" yaml:"close_hour,omitempty"`
}

// Data points at the bar files. CSVs may be xz-compressed.
type Data struct {
	BaseCSV         string `json:"base_csv" yaml:"base_csv"`
	DerivativeCSV   string `json:"derivative_csv,omitempty" yaml:"derivative_csv,omitempty"`
	DerivativeTitle string `json:"derivative_title,omitempty" yaml:"derivative_title,omitempty"`
	DailyHistoryCSV string `json:"daily_history_csv,omitempty" yaml:"daily_history_csv,omitempty"`
}

// Params contains execution-cost parameters
type Params struct {
	SlippageBPS       float64 `json:"slippage_bps,omitempty" yaml:"slippage_bps,omitempty"`
	CommissionFixed   float64 `json:"commission_fixed,omitempty" yaml:"commission_fixed,omitempty"`
	CommissionPerUnit float64 `json:"commission_per_unit,omitempty" yaml:"commission_per_unit,omitempty"`
}

// Journal contains journaling parameters
type Journal struct {
	Type       string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	OrdersFile string `json:"orders_file,omitempty" yaml:"orders_file,omitempty"`
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// Replay contains playback parameters
type Replay struct {
	Speed  float64 `json:"speed,omitempty" yaml:"speed,omitempty"`
	Script string  `json:"script,omitempty" yaml:"script,omitempty"`
}

// Default returns a configuration with sensible defaults for a quick run.
func Default() *Config {
	return &Config{
		Session: Session{
			Instrument:       "SPY",
			Timezone:         "America/New_York",
			InitialCapital:   100_000,
			AggregateMinutes: 30,
			DailyLookback:    100,
		},
		Journal: Journal{Type: "none"},
		Replay:  Replay{Speed: 1},
	}
}

// LoadFromFile loads configuration from a file (YAML or JSON)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Location resolves the session timezone; empty means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Session.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Session.Timezone)
	if err != nil {
		return nil, fmt.Errorf("session.timezone: %w", err)
	}
	return loc, nil
}

// PlayFrom parses the optional starting timestamp.
func (c *Config) PlayFrom() (time.Time, error) {
	if c.Session.PlayFrom == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, c.Session.PlayFrom)
	if err != nil {
		return time.Time{}, fmt.Errorf("session.play_from: %w", err)
	}
	return ts, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Session.Instrument == "" {
		return fmt.Errorf("session.instrument is required")
	}
	if c.Session.InitialCapital <= 0 {
		return fmt.Errorf("session.initial_capital must be positive")
	}
	if c.Session.AggregateMinutes < 0 {
		return fmt.Errorf("session.aggregate_minutes must not be negative")
	}
	if h := c.Session.OpenHour; h < 0 || h > 23 {
		return fmt.Errorf("session.open_hour must be in [0, 23]")
	}
	if h := c.Session.CloseHour; h < 0 || h > 24 {
		return fmt.Errorf("session.close_hour must be in [0, 24]")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.PlayFrom(); err != nil {
		return err
	}
	if c.Data.BaseCSV == "" {
		return fmt.Errorf("data.base_csv is required")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.OrdersFile == "" || c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal orders_file, trades_file and equity_file required for csv type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}

	if c.Replay.Speed < 0 {
		return fmt.Errorf("replay.speed must not be negative")
	}
	return nil
}
