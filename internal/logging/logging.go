// Package logging builds the zerolog logger shared by tempo's components.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// FileName is the log file created inside the state directory.
const FileName = "tempo.log"

// StderrMode controls whether log events are mirrored to stderr.
type StderrMode string

const (
	// StderrAuto mirrors when the level is debug or stderr is not a terminal.
	StderrAuto   StderrMode = "auto"
	StderrAlways StderrMode = "always"
	// StderrNever is used by the TUI, which owns the terminal.
	StderrNever StderrMode = "never"
)

// Options configures New.
type Options struct {
	Level  string
	Format string // json or console
	Dir    string // log file directory; empty disables the file sink
	Stderr StderrMode
}

// New returns a logger and a closer for its file sink. Unknown levels fall
// back to info. A log file that cannot be opened is not fatal: the logger
// keeps whatever other sinks remain.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer
	var closer io.Closer = nopCloser{}
	var fileErr error

	if opts.Dir != "" {
		f, err := openLogFile(opts.Dir)
		if err != nil {
			fileErr = err
		} else {
			writers = append(writers, f)
			closer = f
		}
	}

	if shouldLogToStderr(opts.Stderr, level) {
		if opts.Format == "console" {
			writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
		} else {
			writers = append(writers, os.Stderr)
		}
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = zerolog.MultiLevelWriter(writers...)
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Str("service", "tempo").Logger()
	if fileErr != nil {
		logger.Warn().Err(fileErr).Msg("log file unavailable")
	}
	return logger, closer, nil
}

// Component returns l tagged with a component field.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("logging: create dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("logging: open file: %w", err)
	}
	return f, nil
}

func shouldLogToStderr(mode StderrMode, level zerolog.Level) bool {
	switch mode {
	case StderrAlways:
		return true
	case StderrNever:
		return false
	default:
		fd := os.Stderr.Fd()
		interactive := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		return level <= zerolog.DebugLevel || !interactive
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
