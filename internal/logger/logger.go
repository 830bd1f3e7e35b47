// Package logger builds the zerolog logger used for diagnostics. Hook
// commands share stdout and stderr with Claude Code, so everything goes to
// stderr and the default level keeps normal runs silent.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLevel is used when the configured level is empty or unknown.
const DefaultLevel = zerolog.WarnLevel

// Config holds logger configuration.
type Config struct {
	Level  string    // trace, debug, info, warn, error, disabled
	Pretty bool      // human-readable console output
	Out    io.Writer // defaults to os.Stderr
}

// New creates a logger from cfg.
func New(cfg Config) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}
	}

	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("component", "session-saver").
		Logger()
}

// ParseLevel maps a level name to a zerolog level, falling back to DefaultLevel.
func ParseLevel(s string) zerolog.Level {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return DefaultLevel
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		return DefaultLevel
	}
	return level
}
