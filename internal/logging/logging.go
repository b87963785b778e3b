// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// Prefix is shown in front of every log line.
const Prefix = "taskdesk"

// New returns a slog logger that writes human-readable lines to w through a
// charmbracelet/log handler. Debug enables debug-level records.
func New(w io.Writer, debug bool) *slog.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       log.TextFormatter,
		ReportTimestamp: debug,
		Prefix:          Prefix,
	})
	return slog.New(handler)
}

// Setup builds the logger like New and installs it as the slog default.
func Setup(w io.Writer, debug bool) *slog.Logger {
	logger := New(w, debug)
	slog.SetDefault(logger)
	return logger
}
