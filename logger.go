package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the logging verbosity level
type LogLevel int

const (
	LogLevelSilent  LogLevel = iota // Only errors
	LogLevelNormal                  // Basic progress info (default)
	LogLevelVerbose                 // Detailed operational info
	LogLevelDebug                   // Full diagnostic info
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelSilent:
		return "silent"
	case LogLevelNormal:
		return "normal"
	case LogLevelVerbose:
		return "verbose"
	case LogLevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLogLevel parses a string into a LogLevel
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(s) {
	case "silent":
		return LogLevelSilent, nil
	case "normal":
		return LogLevelNormal, nil
	case "verbose":
		return LogLevelVerbose, nil
	case "debug":
		return LogLevelDebug, nil
	default:
		return LogLevelNormal, fmt.Errorf("invalid log level: %s (valid: silent, normal, verbose, debug)", s)
	}
}

// Zerolog maps the user-facing level onto zerolog's.
func (l LogLevel) Zerolog() zerolog.Level {
	switch l {
	case LogLevelSilent:
		return zerolog.ErrorLevel
	case LogLevelVerbose:
		return zerolog.DebugLevel
	case LogLevelDebug:
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates the run logger. format "json" writes JSON lines, anything
// else a human-readable console format.
func NewLogger(level LogLevel, format string, w io.Writer) zerolog.Logger {
	out := w
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: !isTerminal(w)}
	}

	ctx := zerolog.New(out).Level(level.Zerolog()).With().Timestamp()
	if level >= LogLevelDebug {
		// trace events are dropped below the global level, which defaults to debug
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}
