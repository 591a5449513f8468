package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Terminal formats accepted by Init.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// ErrUnknownFormat is returned by Init for a format other than FormatJSON or FormatConsole.
var ErrUnknownFormat = errors.New("unknown log format")

// Options configures the global logger.
type Options struct {
	// Level is any zerolog level name; empty or unknown means info.
	Level string
	// Format of the terminal output, FormatJSON when empty.
	Format string
	// File additionally receives every line as JSON.
	File string
	// Out is the terminal writer, os.Stderr when nil.
	Out io.Writer
}

// Log is the package-global logger configured by Init. It writes JSON to
// stderr until then.
var Log = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Get returns a pointer to the package-global logger
func Get() *zerolog.Logger {
	return &Log
}

// Init replaces the global logger and returns a func closing the log file.
func Init(o Options) (func(), error) {
	term, err := terminalWriter(o)
	if err != nil {
		return nil, err
	}

	closeFile := func() {}
	w := term
	if o.File != "" {
		f, err := openLogFile(o.File)
		if err != nil {
			return nil, err
		}
		closeFile = func() { _ = f.Close() }
		w = zerolog.MultiLevelWriter(term, f)
	}

	zerolog.SetGlobalLevel(level(o.Level))
	Log = zerolog.New(w).With().Timestamp().Logger()
	return closeFile, nil
}

func level(name string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

func terminalWriter(o Options) (io.Writer, error) {
	out := o.Out
	if out == nil {
		out = os.Stderr
	}
	switch strings.ToLower(o.Format) {
	case "", FormatJSON:
		return out, nil
	case FormatConsole:
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime, NoColor: out != os.Stderr}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, o.Format)
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
