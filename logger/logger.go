// Package logger is the leveled logger shared by the CLI and the report
// assembler. Output goes through the standard log package.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level 日志级别。
type Level int

const (
	LevelOff Level = iota
	LevelNormal
	LevelVerbose
)

// ParseLevel accepts "off", "normal"/"info" and "verbose"/"debug".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "quiet", "none":
		return LevelOff, nil
	case "", "normal", "info":
		return LevelNormal, nil
	case "verbose", "debug":
		return LevelVerbose, nil
	}
	return LevelNormal, fmt.Errorf("未知的日志级别 %q", s)
}

// Logger writes [DBG]/[INF]/[WRN]/[ERR] prefixed lines. Safe for concurrent use.
type Logger struct {
	mu     sync.RWMutex
	level  Level
	debug  *log.Logger
	info   *log.Logger
	warn   *log.Logger
	errLog *log.Logger
}

// New creates a logger writing to out (stderr when nil).
func New(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	flags := log.Ltime
	return &Logger{
		level:  level,
		debug:  log.New(out, "[DBG] ", flags),
		info:   log.New(out, "[INF] ", flags),
		warn:   log.New(out, "[WRN] ", flags),
		errLog: log.New(out, "[ERR] ", flags),
	}
}

// Discard returns a logger that prints nothing.
func Discard() *Logger {
	return New(LevelOff, io.Discard)
}

var (
	defaultOnce sync.Once
	defaultLog  *Logger
)

// Default returns the process-wide logger (normal level, stderr).
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLog = New(LevelNormal, os.Stderr)
	})
	return defaultLog
}

// SetLevel changes the level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the current level.
func (l *Logger) Level() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *Logger) output(min Level, dst *log.Logger, format string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.level >= min {
		_ = dst.Output(3, fmt.Sprintf(format, args...))
	}
}

// Debug 仅在 verbose 级别输出。
func (l *Logger) Debug(format string, args ...any) { l.output(LevelVerbose, l.debug, format, args...) }

// Info logs at info level.
func (l *Logger) Info(format string, args ...any) { l.output(LevelNormal, l.info, format, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...any) { l.output(LevelNormal, l.warn, format, args...) }

// Error logs at error level.
func (l *Logger) Error(format string, args ...any) { l.output(LevelNormal, l.errLog, format, args...) }
