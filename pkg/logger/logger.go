// Package logger is a thin structured-logging layer over logrus. Fields are
// plain key/value strings, loggers are immutable, and a correlation id is
// carried through context.Context and the X-Correlation-ID header.
package logger

import (
	"io"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the logging surface used across the service.
type Logger interface {
	Debug(msg string, fields ...LogField)
	Info(msg string, fields ...LogField)
	Warn(msg string, fields ...LogField)
	Error(msg string, fields ...LogField)
	// WithFields returns a child logger; the receiver is not modified.
	WithFields(fields ...LogField) Logger
	WithCorrelationID(id string) Logger
	HTTPMiddleware(next http.Handler) http.Handler
}

// Config represents logger configuration.
type Config struct {
	Level   Level
	Format  string // "json" (default) or "text"
	Service string
	Output  io.Writer // defaults to os.Stdout
}

type logger struct {
	entry  *logrus.Logger
	fields []LogField
}

// NewLogger creates a logger from config.
func NewLogger(config Config) Logger {
	l := logrus.New()

	if config.Format == "text" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	if config.Output != nil {
		l.SetOutput(config.Output)
	} else {
		l.SetOutput(os.Stdout)
	}

	l.SetLevel(config.Level.logrus())

	var fields []LogField
	if config.Service != "" {
		fields = append(fields, StringField("service", config.Service))
	}
	return &logger{entry: l, fields: fields}
}

// NewNop returns a logger that discards everything. Useful in tests.
func NewNop() Logger {
	return NewLogger(Config{Level: ErrorLevel, Output: io.Discard})
}

// WithFields returns a new logger with additional fields (immutable)
func (l *logger) WithFields(fields ...LogField) Logger {
	merged := make([]LogField, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &logger{entry: l.entry, fields: merged}
}

// WithCorrelationID returns a new logger with correlation ID field
func (l *logger) WithCorrelationID(id string) Logger {
	return l.WithFields(CorrelationIDField(id))
}

// Debug, Info, Warn and Error log msg at their level with optional fields.
func (l *logger) Debug(msg string, fields ...LogField) { l.log(logrus.DebugLevel, msg, fields) }
func (l *logger) Info(msg string, fields ...LogField)  { l.log(logrus.InfoLevel, msg, fields) }
func (l *logger) Warn(msg string, fields ...LogField)  { l.log(logrus.WarnLevel, msg, fields) }
func (l *logger) Error(msg string, fields ...LogField) { l.log(logrus.ErrorLevel, msg, fields) }

func (l *logger) log(level logrus.Level, msg string, fields []LogField) {
	if !l.entry.IsLevelEnabled(level) {
		return
	}
	data := make(logrus.Fields, len(l.fields)+len(fields))
	for _, f := range l.fields {
		data[f.Key] = f.Value
	}
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	l.entry.WithFields(data).Log(level, msg)
}
