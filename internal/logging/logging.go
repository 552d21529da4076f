// Package logging builds the slog loggers shared by the engines.
package logging

import (
	"io"
	"log/slog"
	"os"
)

var debugOn = os.Getenv("CRZETA_DEBUG") == "1"

// New returns a text logger on w at Info, or Debug when CRZETA_DEBUG=1.
func New(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if debugOn {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

var discard = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))

// Discard drops every record.
func Discard() *slog.Logger { return discard }

// Or returns l, or Discard when l is nil.
func Or(l *slog.Logger) *slog.Logger {
	if l == nil {
		return discard
	}
	return l
}
