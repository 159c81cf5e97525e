// Package logging holds the process-wide zerolog logger.
//
// Diagnostics go to stderr through this package; the report meant for the
// user (previews, commentary) is written to stdout by the pipeline.
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//	storeLog := logging.With().Str("component", "store").Logger()
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the level, format and destination of log output.
type Config struct {
	// Level is one of trace, debug, info, warn, error or disabled.
	Level string

	// Format is json or console.
	Format string

	// Caller adds file:line to every entry.
	Caller bool

	// Timestamp adds the event time to every entry.
	Timestamp bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// levels maps every accepted level name, including aliases, to zerolog's level.
var levels = map[string]zerolog.Level{
	"trace":    zerolog.TraceLevel,
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"disabled": zerolog.Disabled,
	"off":      zerolog.Disabled,
}

var (
	mu     sync.RWMutex
	global zerolog.Logger
)

//nolint:gochecknoinits // packages may log before main calls Init
func init() {
	Init(Config{Timestamp: true})
}

// Init replaces the global logger. Empty fields fall back to info, console
// and stderr. It is safe to call more than once.
func Init(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	output := cfg.Output
	if cfg.Format != "json" {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(output).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}

	mu.Lock()
	global = ctx.Logger()
	mu.Unlock()
}

// parseLevel resolves a level name case-insensitively; unknown names mean info.
func parseLevel(level string) zerolog.Level {
	if l, ok := levels[strings.ToLower(level)]; ok {
		return l
	}
	return zerolog.InfoLevel
}

// ValidLevel reports whether level names a level Init understands.
func ValidLevel(level string) bool {
	_, ok := levels[strings.ToLower(level)]
	return ok
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// With creates a child logger context, used for component loggers.
func With() zerolog.Context {
	l := current()
	return l.With()
}

// Err starts an error-level message carrying err.
func Err(err error) *zerolog.Event {
	l := current()
	return l.Err(err)
}
