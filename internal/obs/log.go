package obs

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	loggerMu sync.RWMutex
	logger   *slog.Logger

	logOutput io.Writer = os.Stdout
	logLevel            = new(slog.LevelVar)
	logFormat           = "json"
	logAttrs  []any
)

// LogOptions controls the shared logger.
type LogOptions struct {
	Level   string
	Format  string
	Service string
	Version string
}

// Configure rebuilds the shared logger from options.
func Configure(opts LogOptions) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logLevel.Set(parseLevel(opts.Level))
	if f := strings.ToLower(strings.TrimSpace(opts.Format)); f != "" {
		logFormat = f
	}
	logAttrs = nil
	if opts.Service != "" {
		logAttrs = append(logAttrs, "service", opts.Service)
	}
	if opts.Version != "" {
		logAttrs = append(logAttrs, "version", opts.Version)
	}
	logger = build()
}

// SetOutput redirects the shared logger. Mostly useful in tests.
func SetOutput(w io.Writer) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	logOutput = w
	logger = build()
}

// Logger returns the shared structured logger used across the service.
func Logger() *slog.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger == nil {
		logger = build()
	}
	return logger
}

func build() *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel}
	var h slog.Handler
	if logFormat == "text" {
		h = slog.NewTextHandler(logOutput, opts)
	} else {
		h = slog.NewJSONHandler(logOutput, opts)
	}
	l := slog.New(h)
	if len(logAttrs) > 0 {
		l = l.With(logAttrs...)
	}
	return l
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
