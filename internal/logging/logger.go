package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// ParseLevel maps a configuration string to a LogLevel. Unknown strings
// fall back to INFO.
func ParseLevel(s string) LogLevel {
	switch s {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger defines a minimal, printf-style logging contract.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type componentLogger struct {
	mu        sync.Mutex
	out       io.Writer
	level     LogLevel
	component string
}

var (
	defaultMu    sync.RWMutex
	defaultOut   io.Writer = os.Stderr
	defaultLevel           = INFO
)

// SetDefaultOutput redirects component loggers created afterwards.
func SetDefaultOutput(w io.Writer) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultOut = w
}

// SetDefaultLevel sets the minimum level for loggers created afterwards.
func SetDefaultLevel(level LogLevel) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLevel = level
}

// NewComponentLogger creates a logger scoped to a component name.
func NewComponentLogger(component string) Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return &componentLogger{
		out:       defaultOut,
		level:     defaultLevel,
		component: component,
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}

func (l *componentLogger) log(level LogLevel, format string, args ...any) {
	if level < l.level {
		return
	}

	// Format: 2006-01-02 15:04:05 [INFO] [Component] - Message
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s [%s] [%s] - %s\n",
		timestamp, levelToString(level), l.component, message)

	line = sanitizeLogLine(line)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := io.WriteString(l.out, line); err != nil {
		log.Printf("log write failed: %v", err)
	}
}

func (l *componentLogger) Debug(format string, args ...any) {
	l.log(DEBUG, format, args...)
}

func (l *componentLogger) Info(format string, args ...any) {
	l.log(INFO, format, args...)
}

func (l *componentLogger) Warn(format string, args ...any) {
	l.log(WARN, format, args...)
}

func (l *componentLogger) Error(format string, args ...any) {
	l.log(ERROR, format, args...)
}

func levelToString(level LogLevel) string {
	switch level {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
