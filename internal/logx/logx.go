// Package logx configures zerolog for a single cargowrap invocation: a
// timestamped log file in the project and a human-readable console stream.
package logx

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"cargowrap/internal/paths"
)

// Options controls the console side of the logger. The log file always
// records debug and above.
type Options struct {
	// Command names the log file, e.g. "build".
	Command string
	// Console receives entries at Level and above. Nil disables console output.
	Console io.Writer
	Level   zerolog.Level
	NoColor bool
}

// Session is an open logger plus the file backing it.
type Session struct {
	Logger zerolog.Logger
	Path   string
	file   *os.File
}

// Close flushes and closes the log file.
func (s *Session) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}

// Writer returns the log file for raw output such as child process streams.
func (s *Session) Writer() io.Writer {
	if s == nil || s.file == nil {
		return io.Discard
	}
	return s.file
}

// New creates a logger writing to a timestamped file inside the project's
// logs directory. When the project directory is not writable the global XDG
// logs directory is used instead.
func New(p paths.ProjectPaths, opts Options) (*Session, error) {
	dir := p.LogsDir
	if err := p.EnsureMetaDirs(); err != nil {
		global, gerr := paths.GlobalLogsDir()
		if gerr != nil {
			return nil, eris.Wrap(err, "ensure logs directory")
		}
		dir = global
	}
	return open(dir, opts)
}

// Console returns a logger with no file, for commands that only inspect.
func Console(opts Options) zerolog.Logger {
	if opts.Console == nil {
		return zerolog.Nop()
	}
	return zerolog.New(consoleWriter(opts.Console, opts.NoColor)).Level(opts.Level).With().Timestamp().Logger()
}

func open(dir string, opts Options) (*Session, error) {
	name := time.Now().Format("20060102-150405")
	if cmd := sanitize(opts.Command); cmd != "" {
		name += "-" + cmd
	}
	path := filepath.Join(dir, name+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, eris.Wrapf(err, "open log file %s", path)
	}

	fileWriter := consoleWriter(file, true)
	var w io.Writer = fileWriter
	if opts.Console != nil {
		w = zerolog.MultiLevelWriter(
			fileWriter,
			levelFilter{w: consoleWriter(opts.Console, opts.NoColor), min: opts.Level},
		)
	}

	logger := zerolog.New(w).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	return &Session{Logger: logger, Path: path, file: file}, nil
}

func consoleWriter(out io.Writer, noColor bool) zerolog.ConsoleWriter {
	writer := zerolog.ConsoleWriter{Out: out, NoColor: noColor}
	writer.TimeFormat = "15:04:05"
	return writer
}

// levelFilter drops entries below min.
type levelFilter struct {
	w   io.Writer
	min zerolog.Level
}

func (f levelFilter) Write(p []byte) (int, error) {
	return f.w.Write(p)
}

func (f levelFilter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < f.min {
		return len(p), nil
	}
	return f.w.Write(p)
}

// Level maps the --verbose and --quiet flags to a console level.
func Level(verbose, quiet bool) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// Describe renders err for display; verbose output includes the wrap chain
// and stack recorded by eris.
func Describe(err error, verbose bool) string {
	if err == nil {
		return ""
	}
	if verbose {
		return eris.ToString(err, true)
	}
	return err.Error()
}

func sanitize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '-'
		}
	}, s)
}
