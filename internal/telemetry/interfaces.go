package telemetry

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"coop-defense/server/logging"
)

// Logger exposes the logging capabilities required by server components.
// Both *logrus.Logger and *logrus.Entry satisfy it.
type Logger interface {
	Printf(format string, args ...any)
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// LoggerFunc adapts functions into the Logger interface. Every level is
// forwarded with a level prefix.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger for LoggerFunc.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

func (f LoggerFunc) Debugf(format string, args ...any) { f.Printf("debug: "+format, args...) }

func (f LoggerFunc) Warnf(format string, args ...any) { f.Printf("warn: "+format, args...) }

func (f LoggerFunc) Errorf(format string, args ...any) { f.Printf("error: "+format, args...) }

// LogConfig selects the process logger's level, format and destination.
type LogConfig struct {
	Level  string
	Format string
	Output io.Writer
}

// NewLogrus builds the process logger. Unknown levels fall back to info.
func NewLogrus(cfg LogConfig) *logrus.Logger {
	logger := logrus.New()
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	logger.SetOutput(out)
	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// WithFields scopes a logger with structured fields. Loggers that are not
// logrus-backed are returned unchanged.
func WithFields(logger Logger, fields map[string]any) Logger {
	switch l := logger.(type) {
	case *logrus.Logger:
		return l.WithFields(logrus.Fields(fields))
	case *logrus.Entry:
		return l.WithFields(logrus.Fields(fields))
	case nil:
		return Discard()
	default:
		return logger
	}
}

// Discard returns a logger that drops everything.
func Discard() Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// Metrics exposes the telemetry methods required by server components.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}

// WrapMetrics adapts the logging metrics registry into the Metrics interface.
func WrapMetrics(metrics *logging.Metrics) Metrics {
	return &metricsAdapter{metrics: metrics}
}

type metricsAdapter struct {
	metrics *logging.Metrics
}

func (m *metricsAdapter) Add(key string, delta uint64) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Add(key, delta)
}

func (m *metricsAdapter) Store(key string, value uint64) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Store(key, value)
}
