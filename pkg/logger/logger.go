// Package logger provides structured logging built on logrus. Services
// receive a *Logger and derive entries with WithField/WithFields; a nil
// logger handed to a constructor should be replaced with NewDefault.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus entry carrying the component field.
type Logger struct {
	*logrus.Entry
}

// Config controls log output. Zero values fall back to sensible defaults
// (info level, text format, stderr).
type Config struct {
	Level  string
	Format string // "json" or "text"
	Output io.Writer
}

// New creates a logger for the named component.
func New(component string, cfg Config) *Logger {
	l := logrus.New()

	if cfg.Output != nil {
		l.SetOutput(cfg.Output)
	} else {
		l.SetOutput(os.Stderr)
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &Logger{Entry: l.WithField("component", component)}
}

// NewDefault creates a logger for the component using defaults plus the
// LOG_LEVEL and LOG_FORMAT environment variables when set.
func NewDefault(component string) *Logger {
	return New(component, Config{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	})
}

// Component derives a logger for a sub-component sharing the same output.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Entry: l.Logger.WithField("component", name)}
}
