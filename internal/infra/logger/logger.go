package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	slogmulti "github.com/samber/slog-multi"
)

type Config struct {
	// Verbosity: 0 warn, 1 info, 2+ debug with source locations.
	Verbosity int
	// Format of the console stream: "text" (default) or "json".
	Format string
	// File, when set, additionally receives JSON lines.
	File string
	// Console defaults to os.Stderr.
	Console io.Writer
}

// New builds a run-scoped logger. The returned cleanup closes the log file, if any.
func New(cfg Config) (*slog.Logger, func() error, error) {
	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	level := Level(cfg.Verbosity)
	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   cfg.Verbosity >= 2,
		ReplaceAttr: utcTime,
	}

	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text":
		h = slog.NewTextHandler(console, opts)
	case "json":
		h = slog.NewJSONHandler(console, opts)
	default:
		return Discard(), noop, fmt.Errorf("unsupported log format %q (expected text|json)", cfg.Format)
	}

	cleanup := noop
	if strings.TrimSpace(cfg.File) != "" {
		path := filepath.Clean(cfg.File)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return Discard(), noop, err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return Discard(), noop, err
		}
		// The file always records at least info so post-mortems have the aligner command line.
		fileLevel := level
		if fileLevel > slog.LevelInfo {
			fileLevel = slog.LevelInfo
		}
		fh := slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level:       fileLevel,
			AddSource:   opts.AddSource,
			ReplaceAttr: utcTime,
		})
		// Each handler filters on its own level.
		h = slogmulti.Fanout(h, fh)
		cleanup = f.Close
	}

	l := slog.New(h)
	l.Debug("logger.initialized", "verbosity", cfg.Verbosity, "file", cfg.File)
	return l, cleanup, nil
}

func Level(verbosity int) slog.Level {
	switch {
	case verbosity <= 0:
		return slog.LevelWarn
	case verbosity == 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func noop() error { return nil }

func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		t := a.Value.Time().UTC()
		a.Value = slog.StringValue(t.Format(time.RFC3339Nano))
	}
	return a
}
