// Package logging provides structured logging for capitalens built on zerolog.
//
// The package supports console (human-readable) and JSON output, optional
// file logging with graceful fallback to stderr, and per-request trace IDs
// carried through context.Context.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	// Level is the minimum level to emit: trace, debug, info, warn, error.
	// Invalid or empty values default to info.
	Level string
	// Format selects the encoding: "console" for human-readable output or
	// "json" for machine-readable output. Defaults to console.
	Format string
	// Output selects the destination: "stderr", "stdout", or "file".
	// Defaults to stderr.
	Output string
	// File is the log file path, used when Output is "file".
	File string
	// Caller adds the file:line of the call site to each event.
	Caller bool
}

// LogPathResult describes where logs ended up after New resolved the Config.
// When file output was requested but could not be opened, the logger falls
// back to stderr and FallbackUsed records why.
type LogPathResult struct {
	// Logger is the configured root logger.
	Logger zerolog.Logger
	// FilePath is the resolved log file path when UsingFile is true.
	FilePath string
	// UsingFile reports whether log output is going to FilePath.
	UsingFile bool
	// FallbackUsed reports that file output was requested but unavailable.
	FallbackUsed bool
	// FallbackReason explains the fallback when FallbackUsed is true.
	FallbackReason string

	file *os.File
}

// Close releases the log file handle, if any. Safe to call on a console-only
// result.
func (r *LogPathResult) Close() error {
	if r.file == nil {
		return nil
	}
	f := r.file
	r.file = nil
	return f.Close()
}

// New constructs a logger from cfg. It is a convenience wrapper around
// NewLoggerWithPath for callers that do not care about file placement.
func New(cfg Config) zerolog.Logger {
	result := NewLoggerWithPath(cfg)
	return result.Logger
}

// NewLoggerWithPath constructs a logger from cfg and reports where output was
// routed. File output failures never fail construction: the logger falls back
// to stderr and the result carries the reason.
func NewLoggerWithPath(cfg Config) LogPathResult {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	result := LogPathResult{}

	var out io.Writer
	switch cfg.Output {
	case "file":
		file, openErr := openLogFile(cfg.File)
		if openErr != nil {
			result.FallbackUsed = true
			result.FallbackReason = openErr.Error()
			out = os.Stderr
		} else {
			result.UsingFile = true
			result.FilePath = cfg.File
			result.file = file
			out = file
		}
	case "stdout":
		out = os.Stdout
	default:
		out = os.Stderr
	}

	// File logs stay JSON regardless of Format so they remain parseable.
	if cfg.Format != "json" && !result.UsingFile {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	logCtx := zerolog.New(out).Level(lvl).With().Timestamp()
	if cfg.Caller {
		logCtx = logCtx.Caller()
	}
	result.Logger = logCtx.Logger()
	return result
}

// openLogFile creates the parent directory and opens path for appending.
func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

// ComponentLogger returns a child logger tagged with a component name so log
// lines can be attributed to a subsystem (cli, server, engine, ...).
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// FromContext returns the logger attached to ctx, or a disabled logger when
// none was attached. Attach one with logger.WithContext(ctx).
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// PrintLogPathMessage tells the user where file logs are being written.
func PrintLogPathMessage(w io.Writer, path string) {
	_, _ = fmt.Fprintf(w, "Logging to %s\n", path)
}

// PrintFallbackWarning tells the user that file logging was requested but
// logs are going to stderr instead.
func PrintFallbackWarning(w io.Writer, reason string) {
	_, _ = fmt.Fprintf(w, "Warning: file logging unavailable (%s), logging to stderr\n", reason)
}
