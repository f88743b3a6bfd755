// Package logging holds the process-wide zap logger. Diagnostics go to stderr;
// stdout is reserved for command output.
package logging

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global atomic.Pointer[zap.Logger]

// Options configure Init.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means warn.
	Level string
	// Format is "json" (production encoder) or "console".
	Format string
	// Debug forces debug level and caller annotations.
	Debug bool
	// OutputPaths defaults to stderr.
	OutputPaths []string
}

// L returns the global logger; a no-op logger until Init succeeds.
func L() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// Init builds a logger from opts and installs it as the global logger.
func Init(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	var config zap.Config
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "json":
		config = zap.NewProductionConfig()
	case "console", "text":
		config = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q (use json or console)", opts.Format)
	}
	config.Level = zap.NewAtomicLevelAt(level)
	config.DisableCaller = !opts.Debug
	config.DisableStacktrace = !opts.Debug
	config.OutputPaths = []string{"stderr"}
	if len(opts.OutputPaths) > 0 {
		config.OutputPaths = opts.OutputPaths
	}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	global.Store(logger)
	return logger, nil
}

// Set installs l as the global logger (nil restores the no-op logger).
func Set(l *zap.Logger) {
	global.Store(l)
}

// Sync flushes the global logger.
func Sync() {
	if l := global.Load(); l != nil {
		_ = l.Sync()
	}
}

// ParseLevel maps a config string to a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zapcore.WarnLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return lvl, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}
