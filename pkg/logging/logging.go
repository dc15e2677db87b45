// Package logging installs the slog backend shared by the firmware and the
// host tools.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Format selects the handler output format.
type Format int

const (
	FormatText Format = iota // key=value, also used on the wire by the firmware
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "text"
}

// Options configures a logger.
type Options struct {
	Level  slog.Level
	Format Format
	// OmitTime drops the time attribute. Boards without an RTC have no
	// meaningful wall clock; the host stamps lines on receipt.
	OmitTime bool
}

// level is shared by every logger installed with Init.
var level = new(slog.LevelVar)

// SetLevel changes the minimum level of loggers installed with Init.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// Level returns the current minimum level.
func Level() slog.Level {
	return level.Level()
}

// New builds a logger writing to w with a fixed minimum level.
func New(w io.Writer, opts Options) *slog.Logger {
	return newLogger(w, opts, opts.Level)
}

// Init builds a logger writing to w and installs it as the process default.
// Its level follows SetLevel.
func Init(w io.Writer, opts Options) *slog.Logger {
	level.Set(opts.Level)
	l := newLogger(w, opts, level)
	slog.SetDefault(l)
	return l
}

func newLogger(w io.Writer, opts Options, lvl slog.Leveler) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: lvl}
	if opts.OmitTime {
		hopts.ReplaceAttr = dropTime
	}

	if opts.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat parses text or json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q", s)
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
