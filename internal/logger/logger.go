// Package logger holds the process-wide charm logger and its component
// sub-loggers.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

var Logger *log.Logger

// Initialize sets up the global logger with text output
func Initialize(logLevel string) {
	InitializeWithFormat(logLevel, "text")
}

// InitializeWithFormat sets up the global logger on stderr, emitting JSON
// lines when format is "json"
func InitializeWithFormat(logLevel, format string) {
	Logger = New(os.Stderr, logLevel, format)
	Logger.Debug("Logger initialized", "level", Logger.GetLevel(), "format", format)
}

// New builds a logger writing to w. Unknown levels fall back to info.
func New(w io.Writer, logLevel, format string) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    true,
		Prefix:          "eventhub",
	})
	if strings.EqualFold(format, "json") {
		l.SetFormatter(log.JSONFormatter)
	}

	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(logLevel)))
	if err != nil {
		if strings.EqualFold(logLevel, "warning") {
			level = log.WarnLevel
		} else {
			level = log.InfoLevel
		}
	}
	l.SetLevel(level)
	return l
}

// Get returns the global logger instance
func Get() *log.Logger {
	if Logger == nil {
		Initialize("info")
	}
	return Logger
}

// WithContext creates a new logger with additional context fields
func WithContext(fields ...any) *log.Logger {
	return Get().With(fields...)
}

// Service creates a logger for a specific service
func Service(serviceName string) *log.Logger {
	return WithContext("service", serviceName)
}

func Database() *log.Logger {
	return WithContext("component", "database")
}

func HTTP() *log.Logger {
	return WithContext("component", "http")
}

func Migration() *log.Logger {
	return WithContext("component", "migration")
}

func Blob() *log.Logger {
	return WithContext("component", "blob")
}

func Auth() *log.Logger {
	return WithContext("component", "auth")
}

// Repository creates a logger for one storage repository
func Repository(repoName string) *log.Logger {
	return WithContext("component", "repository", "repository", repoName)
}

// Handler creates a logger for HTTP handlers
func Handler(handlerName string) *log.Logger {
	return WithContext("component", "handler", "handler", handlerName)
}
