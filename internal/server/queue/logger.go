package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dmitrijs2005/filevault/internal/logging"
)

var _ watermill.LoggerAdapter = (*loggerAdapter)(nil)

// loggerAdapter bridges the project logger to watermill's LoggerAdapter.
type loggerAdapter struct {
	base logging.Logger
}

// NewLoggerAdapter wraps a logging.Logger for use by watermill components.
func NewLoggerAdapter(base logging.Logger) watermill.LoggerAdapter {
	return &loggerAdapter{base: base}
}

func (l *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.withFields(fields).Error(context.Background(), msg, "error", err)
}

func (l *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	l.withFields(fields).Info(context.Background(), msg)
}

func (l *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	l.withFields(fields).Debug(context.Background(), msg)
}

func (l *loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	l.withFields(fields).Debug(context.Background(), msg)
}

func (l *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &loggerAdapter{base: l.withFields(fields)}
}

func (l *loggerAdapter) withFields(fields watermill.LogFields) logging.Logger {
	logger := l.base
	for k, v := range fields {
		logger = logger.With(k, v)
	}
	return logger
}
