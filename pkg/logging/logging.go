// Package logging provides the structured logging facade used across the
// scoring engine. It is a thin layer over logrus so that packages depend on a
// small interface instead of a concrete logging backend.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is a map of structured log fields.
type Fields map[string]any

// Logger is the logging interface used by all components.
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(err error, msg string, fields ...Fields)
	WithFields(fields Fields) Logger
}

type logrusLogger struct {
	entry *logrus.Entry
}

var defaultLogger = newRootLogger()

func newRootLogger() *logrusLogger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

// NewDefaultLogger returns the process-wide default logger.
func NewDefaultLogger() Logger {
	return defaultLogger
}

// SetLevel adjusts the default logger's level ("debug", "info", "warn", "error").
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	defaultLogger.entry.Logger.SetLevel(parsed)
}

// WithFields returns a logger pre-populated with the given fields.
func WithFields(fields Fields) Logger {
	return defaultLogger.WithFields(fields)
}

func (l *logrusLogger) merge(fields []Fields) *logrus.Entry {
	entry := l.entry
	for _, f := range fields {
		entry = entry.WithFields(logrus.Fields(f))
	}
	return entry
}

func (l *logrusLogger) Debug(msg string, fields ...Fields) {
	l.merge(fields).Debug(msg)
}

func (l *logrusLogger) Info(msg string, fields ...Fields) {
	l.merge(fields).Info(msg)
}

func (l *logrusLogger) Warn(msg string, fields ...Fields) {
	l.merge(fields).Warn(msg)
}

func (l *logrusLogger) Error(err error, msg string, fields ...Fields) {
	entry := l.merge(fields)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Error(msg)
}

func (l *logrusLogger) WithFields(fields Fields) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}
