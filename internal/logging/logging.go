// Package logging provides the small leveled logger Edison's CLI and
// internal packages use for operator-facing messages: colorized lines to
// stderr via fatih/color when attached to a TTY, plain lines otherwise.
// Durable, queryable history (state transitions, evidence, audit) is the
// job of the JSON Lines audit trail, not this logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level orders the four severities a Logger accepts.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger writes leveled, optionally colorized lines to an output writer,
// and optionally mirrors them uncolored to a rotating file sink.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	file   io.Writer
	level  Level
	color  bool
	prefix string
}

// Option configures a Logger at construction.
type Option func(*Logger)

// WithLevel sets the minimum level that reaches the output.
func WithLevel(level Level) Option {
	return func(l *Logger) { l.level = level }
}

// WithPrefix tags every line with a fixed component name, e.g. "[repo]".
func WithPrefix(prefix string) Option {
	return func(l *Logger) { l.prefix = prefix }
}

// WithFileSink mirrors every line (uncolored) to a lumberjack-rotated file
// at path, rotating at maxSizeMB and keeping maxBackups old files.
func WithFileSink(path string, maxSizeMB, maxBackups int) Option {
	return func(l *Logger) {
		l.file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			Compress:   true,
		}
	}
}

// New builds a Logger writing to out, colorizing when out is a TTY
// (detected via fatih/color's NoColor default, which already accounts for
// NO_COLOR and non-terminal stdout/stderr).
func New(out io.Writer, opts ...Option) *Logger {
	l := &Logger{
		out:   out,
		level: LevelInfo,
		color: !color.NoColor,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Default returns a Logger writing to os.Stderr at LevelInfo, the one
// most CLI commands reach for.
func Default() *Logger {
	return New(os.Stderr)
}

func (l *Logger) levelColor(level Level) *color.Color {
	switch level {
	case LevelDebug:
		return color.New(color.FgHiBlack)
	case LevelInfo:
		return color.New(color.FgCyan)
	case LevelWarn:
		return color.New(color.FgYellow)
	case LevelError:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New()
	}
}

func (l *Logger) log(level Level, format string, args ...any) {
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		msg = l.prefix + " " + msg
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.color {
		tag := l.levelColor(level).Sprintf("[%s]", level)
		fmt.Fprintf(l.out, "%s %s\n", tag, msg)
	} else {
		fmt.Fprintf(l.out, "[%s] %s\n", level, msg)
	}
	if l.file != nil {
		fmt.Fprintf(l.file, "[%s] %s\n", level, msg)
	}
}

func (l *Logger) Debug(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...any) { l.log(LevelError, format, args...) }

// With returns a child Logger sharing this one's output and level but
// tagged with an additional prefix segment, for per-component loggers
// (e.g. logger.With("composition")).
func (l *Logger) With(component string) *Logger {
	prefix := "[" + component + "]"
	if l.prefix != "" {
		prefix = l.prefix + " " + prefix
	}
	return &Logger{out: l.out, file: l.file, level: l.level, color: l.color, prefix: prefix}
}
