package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logger settings read from the environment.
type Config struct {
	Level     string // debug, info, warn, error
	Format    string // "json" or "text"
	Output    string // "stdout", "stderr" or a file path
	Component string
}

// DefaultConfig returns a text logger at info level on stdout.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
		Output: "stdout",
	}
}

// Logger wraps slog.Logger and remembers its output so it can be closed.
type Logger struct {
	*slog.Logger
	output io.Writer
}

// New builds a Logger from cfg. Unknown levels fall back to info and an
// unopenable output file falls back to stdout.
func New(cfg Config) *Logger {
	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		if f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			output = f
		} else {
			output = os.Stdout
		}
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	l := slog.New(handler)
	if cfg.Component != "" {
		l = l.With("component", cfg.Component)
	}
	return &Logger{Logger: l, output: output}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), output: io.Discard}
}

// WithComponent returns a child logger tagged with component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With("component", component), output: l.output}
}

// Close closes the underlying file, if any.
func (l *Logger) Close() error {
	if f, ok := l.output.(*os.File); ok && f != os.Stdout && f != os.Stderr {
		return f.Close()
	}
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
