package logger

import (
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Output formats.
const (
	ConsoleFormat = "console"
	JSONFormat    = "json"
)

var (
	// globalLogger holds the process-wide logger used by main.
	globalLogger *Logger
	once         sync.Once
)

// Get returns a singleton console logger configured with the provided level.
// The first call initializes the logger; subsequent calls ignore the level
// and return the already initialized instance.
func Get(level string) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(level, ConsoleFormat)
	})
	return globalLogger
}

// Configure replaces the singleton with a logger built from config values.
// Call it once, right after the config file has been read.
func Configure(level, format string) *Logger {
	once.Do(func() {})
	globalLogger = newZapLogger(level, format)
	return globalLogger
}

