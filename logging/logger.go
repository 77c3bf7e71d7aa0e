// SPDX-License-Identifier: MIT

// Package logging builds the structured loggers used across gcem.
//
// Everything logs through log/slog. New turns a Config into a
// *slog.Logger writing text (interactive terminals) or JSON (pipes, files,
// log collectors) to stderr or a custom writer, tagged with a service name.
//
//	logger := logging.New(logging.Config{Level: logging.LevelDebug, Service: "gcem"})
//	logger.Info("training emulator", "rows", n, "active_dims", dims)
//
// Long streaming runs report progress through ProgressObserver, which
// rate-limits its output so million-row runs do not flood the log.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Level is a log severity. Debug < Info < Warn < Error.
type Level int

// The zero value is LevelInfo.
const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
)

// String returns "DEBUG", "INFO", "WARN", "ERROR" or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel accepts debug, info, warn/warning and error (any case).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}

	return LevelInfo, fmt.Errorf("logging: unknown level %q", s)
}

// Config configures New. The zero value logs Info+ as text to stderr.
type Config struct {
	// Level sets the minimum level. Default: LevelInfo.
	Level Level

	// JSON selects the JSON handler instead of text.
	JSON bool

	// Service, when set, is attached to every record as "service".
	Service string

	// Writer overrides the destination. Default: os.Stderr.
	Writer io.Writer
}

// New returns a logger for cfg.
func New(cfg Config) *slog.Logger {
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level.toSlogLevel()}

	var h slog.Handler
	if cfg.JSON {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(h)
	if cfg.Service != "" {
		logger = logger.With(slog.String("service", cfg.Service))
	}

	return logger
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

// IsTerminal reports whether w is an interactive terminal. Callers use it
// to default to text output on a TTY and JSON otherwise.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()

	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
