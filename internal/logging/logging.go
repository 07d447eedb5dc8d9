// Package logging configures the process-wide structured logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Component names attached to log records.
const (
	CompHistory  = "history"
	CompStorage  = "storage"
	CompAutosave = "autosave"
	CompConfig   = "config"
	CompCLI      = "cli"
)

// Config holds logging configuration.
type Config struct {
	// Dir is the directory holding File. Empty with Stderr false discards
	// all output.
	Dir  string
	File string

	// Level is "debug", "info", "warn" or "error".
	Level string

	// Format is "json" (default) or "text".
	Format string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Stderr mirrors records to standard error.
	Stderr bool
}

var (
	globalMu     sync.RWMutex
	globalLogger *slog.Logger
	rotator      *lumberjack.Logger
)

// Init installs the global logger described by cfg.
func Init(cfg Config) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = 10
	}
	if cfg.File == "" {
		cfg.File = "visitlog.log"
	}

	var writers []io.Writer
	if cfg.Dir != "" {
		if rotator != nil {
			rotator.Close()
		}
		rotator = &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, cfg.File),
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		writers = append(writers, rotator)
	}
	if cfg.Stderr {
		writers = append(writers, os.Stderr)
	}
	if len(writers) == 0 {
		globalLogger = discard()
		return
	}

	globalLogger = slog.New(newHandler(io.MultiWriter(writers...), cfg))
}

// Close flushes and closes the rotating file, if any.
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = nil
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	return err
}

// SetOutput routes the global logger to w. Intended for tests.
func SetOutput(w io.Writer, level string) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = slog.New(newHandler(w, Config{Level: level, Format: "json"}))
}

// Logger returns the global logger. Safe to call before Init.
func Logger() *slog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		return discard()
	}
	return globalLogger
}

// ForComponent returns a logger tagged with component. It resolves the
// global handler at log time, so package-level loggers created before
// Init still reach the configured output.
func ForComponent(name string) *slog.Logger {
	return slog.New(&dynamicHandler{component: name})
}

func newHandler(w io.Writer, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type dynamicHandler struct {
	component string
	attrs     []slog.Attr
	groups    []string
}

func (h *dynamicHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return Logger().Handler().Enabled(ctx, level)
}

func (h *dynamicHandler) Handle(ctx context.Context, r slog.Record) error {
	handler := Logger().Handler().WithAttrs([]slog.Attr{slog.String("component", h.component)})
	if len(h.attrs) > 0 {
		handler = handler.WithAttrs(h.attrs)
	}
	for _, g := range h.groups {
		handler = handler.WithGroup(g)
	}
	return handler.Handle(ctx, r)
}

func (h *dynamicHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &dynamicHandler{component: h.component, groups: h.groups}
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return next
}

func (h *dynamicHandler) WithGroup(name string) slog.Handler {
	next := &dynamicHandler{component: h.component, attrs: h.attrs}
	next.groups = append(append([]string(nil), h.groups...), name)
	return next
}
