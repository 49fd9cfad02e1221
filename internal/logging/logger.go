// Package logging provides the zerolog setup shared by all components,
// plus a slog.Handler adapter so slog-only libraries (sutureslog) write
// through the same logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic"`

	// Format is json or console.
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

// New builds a zerolog.Logger per the config, writing to out (os.Stderr
// when nil). Unknown levels fall back to info.
func New(cfg Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
