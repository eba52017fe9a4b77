// Package logging provides the shared structured logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Logger is the global logger instance. It defaults to stderr so library
// output never mixes with rendered content on stdout.
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      time.RFC3339,
	Level:           log.InfoLevel,
})

// SetOutput redirects log output, e.g. to a file.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetVerbose enables debug-level output.
func SetVerbose(v bool) {
	if v {
		Logger.SetLevel(log.DebugLevel)
	} else {
		Logger.SetLevel(log.InfoLevel)
	}
}

// Debug logs a debug message with optional key/value pairs.
func Debug(msg string, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

// Info logs an info message with optional key/value pairs.
func Info(msg string, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// Warn logs a warning message with optional key/value pairs.
func Warn(msg string, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error message with optional key/value pairs.
func Error(msg string, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}
