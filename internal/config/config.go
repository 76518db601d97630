// Package config loads the YAML configuration file and applies environment
// overrides for infrastructure endpoints. Scrape settings follow a
// global-defaults + per-adapter-overrides model: an adapter's own values
// always win over the global ones.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"jobscout/internal/logger"
)

// AdapterOptions are the effective settings one adapter runs with.
type AdapterOptions struct {
	Keywords       []string `yaml:"keywords"`
	Location       string   `yaml:"location"`
	MaxPages       int      `yaml:"max_pages"`
	DelayMinMS     int      `yaml:"delay_min_ms"`
	DelayMaxMS     int      `yaml:"delay_max_ms"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// AdapterOverride holds optional per-adapter values; nil/empty fields fall
// back to the global defaults.
type AdapterOverride struct {
	Enabled        *bool    `yaml:"enabled"`
	Keywords       []string `yaml:"keywords"`
	Location       *string  `yaml:"location"`
	MaxPages       *int     `yaml:"max_pages"`
	DelayMinMS     *int     `yaml:"delay_min_ms"`
	DelayMaxMS     *int     `yaml:"delay_max_ms"`
	TimeoutSeconds *int     `yaml:"timeout_seconds"`
}

// ScrapeConfig drives one orchestration run.
type ScrapeConfig struct {
	Global   AdapterOptions             `yaml:"global"`
	Adapters map[string]AdapterOverride `yaml:"adapters"`
	Parallel bool                       `yaml:"parallel"`
	Workers  int                        `yaml:"workers"`
}

// SalaryConfig tunes the salary parser.
type SalaryConfig struct {
	// MonthlyCutoff is the monthly-vs-annual plausibility bound in yen.
	MonthlyCutoff int `yaml:"monthly_cutoff"`
}

// MatchConfig tunes the match scorer.
type MatchConfig struct {
	TitleWeight       int `yaml:"title_weight"`
	DescriptionWeight int `yaml:"description_weight"`
	LocationWeight    int `yaml:"location_weight"`
	SalaryWeight      int `yaml:"salary_weight"`
	MinScore          int `yaml:"min_score"`
}

// SchedulerConfig drives cron mode.
type SchedulerConfig struct {
	ScrapeSpec string `yaml:"scrape_spec"` // e.g. "@every 6h"
	SweepSpec  string `yaml:"sweep_spec"`  // e.g. "@daily"
	SweepDays  int    `yaml:"sweep_days"`
}

// Config is the full runtime configuration.
type Config struct {
	DatabaseURL string          `yaml:"database_url"`
	RedisURL    string          `yaml:"redis_url"`
	Logger      logger.Config   `yaml:"logger"`
	Salary      SalaryConfig    `yaml:"salary"`
	Match       MatchConfig     `yaml:"match"`
	Scrape      ScrapeConfig    `yaml:"scrape"`
	Scheduler   SchedulerConfig `yaml:"scheduler"`
}

// Load reads the YAML file at path (optional — an empty path yields pure
// defaults), then applies DATABASE_URL / REDIS_URL environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Logger: logger.Config{Level: "info", Format: "json"},
		Salary: SalaryConfig{MonthlyCutoff: 2_500_000},
		Match: MatchConfig{
			TitleWeight:       40,
			DescriptionWeight: 30,
			LocationWeight:    15,
			SalaryWeight:      15,
			MinScore:          50,
		},
		Scrape: ScrapeConfig{
			Global: AdapterOptions{
				Keywords:       []string{"デザイナー"},
				Location:       "東京",
				MaxPages:       2,
				DelayMinMS:     2000,
				DelayMaxMS:     3000,
				TimeoutSeconds: 30,
			},
			Parallel: true,
			Workers:  3,
		},
		Scheduler: SchedulerConfig{
			ScrapeSpec: "@every 6h",
			SweepSpec:  "@daily",
			SweepDays:  7,
		},
	}
}

func (c *Config) validate() error {
	w := c.Match
	if sum := w.TitleWeight + w.DescriptionWeight + w.LocationWeight + w.SalaryWeight; sum != 100 {
		return fmt.Errorf("match weights must sum to 100, got %d", sum)
	}
	if c.Scrape.Workers < 1 {
		return fmt.Errorf("scrape.workers must be at least 1, got %d", c.Scrape.Workers)
	}
	if c.Scrape.Global.DelayMinMS > c.Scrape.Global.DelayMaxMS {
		return fmt.Errorf("scrape.global delay range inverted: %d > %d",
			c.Scrape.Global.DelayMinMS, c.Scrape.Global.DelayMaxMS)
	}
	return nil
}

// Enabled reports whether the named adapter should run. Adapters are enabled
// unless explicitly switched off.
func (s ScrapeConfig) Enabled(name string) bool {
	ov, ok := s.Adapters[name]
	if !ok || ov.Enabled == nil {
		return true
	}
	return *ov.Enabled
}

// ScrapeOverrides are one-off command-line overrides for a single run. Zero
// fields leave the loaded configuration untouched.
type ScrapeOverrides struct {
	Keywords   []string
	Location   string
	MaxPages   int
	Sequential bool
	// Only restricts the run to the named adapters; everything else is
	// disabled.
	Only []string
}

// Apply folds the overrides into s. adapterNames is the full set of known
// adapters, needed so Only can disable the ones it does not name.
func (o ScrapeOverrides) Apply(s *ScrapeConfig, adapterNames []string) {
	if len(o.Keywords) > 0 {
		s.Global.Keywords = o.Keywords
	}
	if o.Location != "" {
		s.Global.Location = o.Location
	}
	if o.MaxPages > 0 {
		s.Global.MaxPages = o.MaxPages
	}
	if o.Sequential {
		s.Parallel = false
	}
	if len(o.Only) > 0 {
		wanted := map[string]bool{}
		for _, name := range o.Only {
			wanted[name] = true
		}
		if s.Adapters == nil {
			s.Adapters = map[string]AdapterOverride{}
		}
		for _, name := range adapterNames {
			enabled := wanted[name]
			ov := s.Adapters[name]
			ov.Enabled = &enabled
			s.Adapters[name] = ov
		}
	}
}

// Merged returns the effective options for the named adapter: global
// defaults with any per-adapter overrides applied on top.
func (s ScrapeConfig) Merged(name string) AdapterOptions {
	opts := s.Global
	ov, ok := s.Adapters[name]
	if !ok {
		return opts
	}
	if len(ov.Keywords) > 0 {
		opts.Keywords = ov.Keywords
	}
	if ov.Location != nil {
		opts.Location = *ov.Location
	}
	if ov.MaxPages != nil {
		opts.MaxPages = *ov.MaxPages
	}
	if ov.DelayMinMS != nil {
		opts.DelayMinMS = *ov.DelayMinMS
	}
	if ov.DelayMaxMS != nil {
		opts.DelayMaxMS = *ov.DelayMaxMS
	}
	if ov.TimeoutSeconds != nil {
		opts.TimeoutSeconds = *ov.TimeoutSeconds
	}
	return opts
}
