package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Leveled logger shared by the quiz API and the maintenance jobs.
// Package-level functions write without a component; With returns a scoped
// Logger that prefixes every line with its component name.

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu     sync.RWMutex
	logger *log.Logger = log.New(os.Stdout, "", 0)
	level  Level       = LevelInfo
)

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Unknown values fall back to info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	level = parseLevel(l)
}

func parseLevel(l string) Level {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	}
	return LevelInfo
}

// SetOutput redirects all log output. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, "", 0)
}

func header(lvl, component string) string {
	h := fmt.Sprintf("%s [%s] ", time.Now().Format(time.RFC3339), strings.ToUpper(lvl))
	if component != "" {
		h += component + ": "
	}
	return h
}

func shouldLog(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

func output(l Level, lvl, component, format string, v ...interface{}) {
	if l < LevelFatal && !shouldLog(l) {
		return
	}
	mu.RLock()
	out := logger
	mu.RUnlock()
	out.Printf(header(lvl, component)+format, v...)
}

func Debugf(format string, v ...interface{}) { output(LevelDebug, "debug", "", format, v...) }
func Infof(format string, v ...interface{})  { output(LevelInfo, "info", "", format, v...) }
func Warnf(format string, v ...interface{})  { output(LevelWarn, "warn", "", format, v...) }
func Errorf(format string, v ...interface{}) { output(LevelError, "error", "", format, v...) }

func Fatalf(format string, v ...interface{}) {
	output(LevelFatal, "fatal", "", format, v...)
	os.Exit(1)
}

// Debug/Info/Warn/Error helpers that accept a single string
func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	switch level {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "info"
}

// Logger is a component-scoped view of the package logger.
type Logger struct {
	component string
}

// With returns a Logger whose lines carry the given component name.
func With(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	output(LevelDebug, "debug", l.component, format, v...)
}

func (l *Logger) Infof(format string, v ...interface{}) {
	output(LevelInfo, "info", l.component, format, v...)
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	output(LevelWarn, "warn", l.component, format, v...)
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	output(LevelError, "error", l.component, format, v...)
}
