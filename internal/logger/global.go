package logger

import (
	"os"
	"strings"
	"sync"
)

var (
	globalMu     sync.RWMutex
	globalLogger = fromEnv()
)

// fromEnv builds the default logger honouring LOG_LEVEL and LOG_FORMAT
func fromEnv() *Logger {
	l := NewDefault()
	if level, ok := ParseLevel(os.Getenv("LOG_LEVEL")); ok {
		l.SetLevel(level)
	}
	if format, ok := ParseFormat(os.Getenv("LOG_FORMAT")); ok {
		l.SetFormat(format)
	}
	return l
}

// ParseLevel parses a log level name
func ParseLevel(level string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG, true
	case "INFO":
		return INFO, true
	case "WARN", "WARNING":
		return WARN, true
	case "ERROR":
		return ERROR, true
	case "FATAL":
		return FATAL, true
	default:
		return INFO, false
	}
}

// ParseFormat parses a log format name
func ParseFormat(format string) (LogFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return JSONFormat, true
	case "text":
		return TextFormat, true
	default:
		return JSONFormat, false
	}
}

// Global returns the process-wide logger
func Global() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetGlobal replaces the process-wide logger
func SetGlobal(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// Component is shorthand for Global().WithComponent(name)
func Component(name string) *Logger {
	return Global().WithComponent(name)
}

// Info logs an info message using the global logger
func Info(message string, fields ...Fields) {
	Global().Info(message, fields...)
}

// Warn logs a warning message using the global logger
func Warn(message string, fields ...Fields) {
	Global().Warn(message, fields...)
}

// Error logs an error message using the global logger
func Error(message string, err error, fields ...Fields) {
	Global().Error(message, err, fields...)
}

// Fatal logs a fatal message using the global logger and exits
func Fatal(message string, err error, fields ...Fields) {
	Global().Fatal(message, err, fields...)
}
