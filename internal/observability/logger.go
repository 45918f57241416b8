// Package observability wires structured logging and metrics for the chat client.
package observability

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// AppName is attached to every log line.
const AppName = "pingpong-chat"

// LogFormat selects the log encoding.
type LogFormat string

const (
	LogFormatConsole LogFormat = "console"
	LogFormatJSON    LogFormat = "json"
)

// LogOptions configures NewLogger.
type LogOptions struct {
	Level   zerolog.Level
	Format  LogFormat
	NoColor bool
}

// NewLogger builds the process logger writing to w.
func NewLogger(w io.Writer, opts LogOptions) zerolog.Logger {
	out := w
	if opts.Format != LogFormatJSON {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    opts.NoColor,
		}
	}
	return zerolog.New(out).
		Level(opts.Level).
		With().
		Timestamp().
		Str("app", AppName).
		Logger()
}

// ParseLevel maps a level name to a zerolog level.
// The boolean is false for an empty or unknown name.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

// ParseFormat maps a format name to a LogFormat.
func ParseFormat(raw string) (LogFormat, bool) {
	switch LogFormat(strings.ToLower(strings.TrimSpace(raw))) {
	case LogFormatConsole:
		return LogFormatConsole, true
	case LogFormatJSON:
		return LogFormatJSON, true
	default:
		return LogFormatConsole, false
	}
}
