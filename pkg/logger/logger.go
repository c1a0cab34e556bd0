package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how the process logger is built.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // "console" or "json"
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultOptions returns console output at info level.
func DefaultOptions() Options {
	return Options{
		Level:  "info",
		Format: "console",
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

var logger = New(DefaultOptions())

// New builds a logger that routes debug/info/warn to stdout and error and above to stderr.
func New(opts Options) zerolog.Logger {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	var out, errOut io.Writer = opts.Stdout, opts.Stderr
	if opts.Format != "json" {
		out = zerolog.ConsoleWriter{Out: opts.Stdout, TimeFormat: time.RFC3339}
		errOut = zerolog.ConsoleWriter{Out: opts.Stderr, TimeFormat: time.RFC3339}
	}

	writer := zerolog.MultiLevelWriter(
		SpecificLevelWriter{
			Writer: out,
			Levels: []zerolog.Level{
				zerolog.TraceLevel, zerolog.DebugLevel, zerolog.InfoLevel, zerolog.WarnLevel,
			},
		},
		SpecificLevelWriter{
			Writer: errOut,
			Levels: []zerolog.Level{
				zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel,
			},
		},
	)
	return zerolog.New(writer).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, falling back to info.
func ParseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// SetDefault replaces the package-level logger used by the helper functions.
func SetDefault(l zerolog.Logger) {
	logger = l
}

// Debugf logs through the package-level logger. Packages without an injected
// logger use it.
func Debugf(format string, args ...interface{}) {
	logger.Debug().Msgf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	logger.Error().Msgf(format, args...)
}

// multilevel writer from https://stackoverflow.com/questions/76858037/how-to-use-zerolog-to-filter-info-logs-to-stdout-and-error-logs-to-stderr
type SpecificLevelWriter struct {
	io.Writer
	Levels []zerolog.Level
}

func (w SpecificLevelWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	for _, l := range w.Levels {
		if l == level {
			return w.Write(p)
		}
	}
	return len(p), nil
}
