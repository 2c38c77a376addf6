package logger

import (
	"fmt"
	"os"
	"time"
)

// Level is a log severity level.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

var levelColors = map[Level]string{
	DEBUG: "\033[36m", // cyan
	INFO:  "\033[32m", // green
	WARN:  "\033[33m", // yellow
	ERROR: "\033[31m", // red
}

const resetColor = "\033[0m"

// Logger is a module-tagged leveled logger.
type Logger struct {
	module string
	level  Level
}

// Global default level, applied to loggers created after it is set.
var globalLevel = INFO

// SetGlobalLevel sets the default level for new loggers.
func SetGlobalLevel(level Level) {
	globalLevel = level
}

// New creates a logger tagged with the given module name.
func New(module string) *Logger {
	return &Logger{
		module: module,
		level:  globalLevel,
	}
}

func (l *Logger) log(level Level, format string, args ...any) {
	if level < l.level {
		return
	}

	timestamp := time.Now().Format("15:04:05.000")
	msg := fmt.Sprintf(format, args...)

	color := levelColors[level]
	levelName := levelNames[level]

	fmt.Fprintf(os.Stderr, "%s%s%s [%s] %s: %s\n",
		color, levelName, resetColor,
		timestamp, l.module, msg)
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(format string, args ...any) {
	l.log(DEBUG, format, args...)
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...any) {
	l.log(INFO, format, args...)
}

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...any) {
	l.log(WARN, format, args...)
}

// Error logs at ERROR level.
func (l *Logger) Error(format string, args ...any) {
	l.log(ERROR, format, args...)
}
