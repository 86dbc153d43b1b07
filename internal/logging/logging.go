// Package logging provides the single leveled logger shared by every
// component, in place of loom's scattered stdlib log.Printf calls.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level is a logging severity.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel parses "debug", "info", "warn", "error" (case-insensitive),
// defaulting to LevelInfo for anything else.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger is a small leveled logging facade. The zero value is not usable;
// construct with New.
type Logger struct {
	std        *log.Logger
	level      atomic.Int32
	namePrefix string
}

// New creates a Logger writing to w at the given minimum level.
func New(w io.Writer, level Level) *Logger {
	l := &Logger{std: log.New(w, "", log.LstdFlags|log.Lmicroseconds)}
	l.level.Store(int32(level))
	return l
}

// Default returns a Logger writing to stderr at LevelInfo, matching the
// teacher's convention of logging operational noise to stderr and keeping
// stdout reserved for the stdio transport's framed JSON-RPC traffic.
func Default() *Logger {
	return New(os.Stderr, LevelInfo)
}

// SetLevel adjusts the minimum level dynamically.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *Logger) log(level Level, format string, args ...any) {
	if Level(l.level.Load()) > level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.namePrefix != "" {
		l.std.Printf("[%s] %s: %s", level, l.namePrefix, msg)
		return
	}
	l.std.Printf("[%s] %s", level, msg)
}

func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, format, args...) }

// With returns a child logger that prefixes every message with name,
// e.g. logger.With("lsp").Infof("starting gopls") logs "[INFO] lsp: starting gopls".
func (l *Logger) With(name string) *Logger {
	child := &Logger{
		std:        log.New(l.std.Writer(), "", l.std.Flags()),
		namePrefix: name,
	}
	child.level.Store(l.level.Load())
	return child
}
