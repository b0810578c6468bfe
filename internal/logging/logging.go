// Package logging builds the structured logger shared by the server and
// socialctl.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w. level is a charm log level name
// (debug, info, warn, error) and falls back to info when unrecognized.
// format selects json, logfmt or the default human-readable text output.
func New(level, format string, w io.Writer) *log.Logger {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}

	opts := log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lvl,
		Prefix:          "socialgate",
	}
	switch strings.ToLower(format) {
	case "json":
		opts.Formatter = log.JSONFormatter
	case "logfmt":
		opts.Formatter = log.LogfmtFormatter
	default:
		opts.Formatter = log.TextFormatter
	}

	return log.NewWithOptions(w, opts)
}

// Discard returns a logger that drops everything. Used as the default when a
// component is built without one.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
