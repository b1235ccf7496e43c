// Estatelake - Real Estate Listing Lakehouse Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/estatelake

package logging

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every log line as the "service" field.
const ServiceName = "estatelake"

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string

	// Format is the output format: json or console.
	// Default: json
	Format string

	// Caller includes caller file and line number in logs.
	Caller bool

	// Timestamp enables timestamps in log output.
	// Default: true
	Timestamp bool

	// Output is the writer for log output. Stdout carries command results,
	// so logs go to stderr.
	// Default: os.Stderr
	Output io.Writer
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

// global holds the current logger. Stages may log from extractor
// goroutines while a test swaps the logger.
var global atomic.Pointer[zerolog.Logger]

//nolint:gochecknoinits // logging works before the command line is parsed
func init() {
	Init(DefaultConfig())
}

// Init configures the global logger. Later calls replace it.
func Init(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.MessageFieldName = "message"

	output := cfg.Output
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.TimeOnly}
	}

	c := zerolog.New(output).With().Str("service", ServiceName)
	if cfg.Timestamp {
		c = c.Timestamp()
	}
	if cfg.Caller {
		c = c.Caller()
	}
	SetLogger(c.Logger())
}

// parseLevel maps a configured level to zerolog. Empty or unknown levels
// fall back to info.
func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	if level == "" {
		return zerolog.InfoLevel
	}
	l, err := zerolog.ParseLevel(level)
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// ValidLevel reports whether level names a known log level.
func ValidLevel(level string) bool {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return true
	}
	l, err := zerolog.ParseLevel(level)
	return err == nil && l != zerolog.NoLevel
}

// Logger returns a copy of the global logger.
func Logger() zerolog.Logger {
	return *global.Load()
}

// SetLogger replaces the global logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func SetLogger(l zerolog.Logger) {
	global.Store(&l)
}

// With creates a child logger with additional context.
//
//	lakeLogger := logging.With().Str("component", "lake").Logger()
func With() zerolog.Context {
	return global.Load().With()
}

// Debug starts a new message with debug level.
func Debug() *zerolog.Event {
	return global.Load().Debug()
}

// Info starts a new message with info level.
func Info() *zerolog.Event {
	return global.Load().Info()
}

// Warn starts a new message with warning level.
func Warn() *zerolog.Event {
	return global.Load().Warn()
}

// Error starts a new message with error level.
func Error() *zerolog.Event {
	return global.Load().Error()
}

// Err starts a new message with error level and adds the error.
func Err(err error) *zerolog.Event {
	return global.Load().Err(err)
}

// NewTestLogger creates a logger that writes to the provided writer.
//
//	var buf bytes.Buffer
//	logging.SetLogger(logging.NewTestLogger(&buf))
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
