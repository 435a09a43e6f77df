// Package logging configures the zerolog logger shared by tskit packages.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup replaces the global logger with one writing to stderr at the given
// level and format ("console" or "json").
func Setup(level, format string) error {
	l, err := New(os.Stderr, level, format)
	if err != nil {
		return err
	}
	log.Logger = l
	return nil
}

// New builds a logger writing to w.
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}

	var out io.Writer
	switch format {
	case "json":
		out = w
	case "console", "":
		if f, ok := w.(*os.File); ok {
			out = ConsoleWriter(f)
		} else {
			out = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.DateTime}
		}
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", format)
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// For returns the global logger tagged with a subsystem name.
func For(sys string) zerolog.Logger {
	return log.With().Str("sys", sys).Logger()
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ConsoleWriter returns a writer for zerolog that has NoColor:isTerminal(f).
func ConsoleWriter(f *os.File) io.Writer {
	noColor := !isTerminal(f)

	w := zerolog.ConsoleWriter{Out: f, NoColor: noColor, TimeFormat: time.DateTime}

	if !noColor {
		w.FormatPrepare = func(m map[string]any) error {
			// show the subsystem as a message prefix
			if sys, ok := m["sys"].(string); ok {
				m["message"] = fmt.Sprintf("[%s] %v", sys, m["message"])
				delete(m, "sys")
			}
			return nil
		}
	}

	return w
}
