package logging

import (
	"os"
	"sync"
)

var std struct {
	sync.Mutex
	logger Logger
}

// DefaultLogger returns the process-wide logger. It is created on first use
// at the level named by LOG_LEVEL.
func DefaultLogger() Logger {
	std.Lock()
	defer std.Unlock()
	if std.logger == nil {
		std.logger = NewJSONLogger(os.Stderr, ParseLevel(os.Getenv("LOG_LEVEL")))
	}
	return std.logger
}

// SetDefaultLogger replaces the process-wide logger. nil restores the
// LOG_LEVEL default on next use.
func SetDefaultLogger(logger Logger) {
	std.Lock()
	defer std.Unlock()
	std.logger = logger
}

// OrDefault returns logger, or the default logger when logger is nil
func OrDefault(logger Logger) Logger {
	if logger == nil {
		return DefaultLogger()
	}
	return logger
}
