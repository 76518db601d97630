// Package logger configures the process-wide zerolog logger. Components
// never log through a package singleton of their own — they receive a scoped
// child logger (With().Str("adapter", …)) from their constructor.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config controls log level and output format.
type Config struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or pretty
}

// New builds the root logger. Unknown levels fall back to info; "pretty"
// writes a human console format, anything else JSON.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if cfg.Format == "pretty" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
