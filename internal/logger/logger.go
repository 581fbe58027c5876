package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures a Logger.
type Options struct {
	Level         string
	HumanReadable bool
	Writer        io.Writer
	Component     string
}

// Logger is the zerolog-backed diagnostics logger used while palettes are
// loaded, before the structured application logger exists. Fields are
// alternating key/value pairs.
type Logger struct {
	base zerolog.Logger
}

// New builds a Logger. An empty level means info.
func New(opts Options) (*Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}
	if opts.HumanReadable {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: true}
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if opts.Component != "" {
		ctx = ctx.Str("component", opts.Component)
	}
	return &Logger{base: ctx.Logger()}, nil
}

func parseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(strings.ToLower(s))
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{base: zerolog.Nop()}
}

// Component tags every entry of the derived logger with the component name.
func (l *Logger) Component(name string) *Logger {
	return l.with("component", name)
}

// Source tags every entry with where palettes are read from: "builtin" or a
// directory path.
func (l *Logger) Source(source string) *Logger {
	return l.with("source", source)
}

func (l *Logger) with(key, value string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{base: l.base.With().Str(key, value).Logger()}
}

func (l *Logger) Info(msg string, kv ...any) {
	if l != nil {
		l.base.Info().Fields(kv).Msg(msg)
	}
}

func (l *Logger) Debug(msg string, kv ...any) {
	if l != nil {
		l.base.Debug().Fields(kv).Msg(msg)
	}
}

func (l *Logger) Warn(msg string, kv ...any) {
	if l != nil {
		l.base.Warn().Fields(kv).Msg(msg)
	}
}

// Error logs at error level; err may be nil.
func (l *Logger) Error(err error, msg string, kv ...any) {
	if l == nil {
		return
	}
	event := l.base.Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Fields(kv).Msg(msg)
}
