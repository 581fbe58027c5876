package logging

import (
	"context"

	"github.com/alexisbeaulieu97/prism/internal/ports"
)

// NoOpLogger discards every entry. The zero value is ready to use.
type NoOpLogger struct{}

var discard ports.Logger = NoOpLogger{}

func (NoOpLogger) Debug(context.Context, string, ...interface{}) {}
func (NoOpLogger) Info(context.Context, string, ...interface{})  {}
func (NoOpLogger) Warn(context.Context, string, ...interface{})  {}
func (NoOpLogger) Error(context.Context, string, ...interface{}) {}

func (n NoOpLogger) With(...interface{}) ports.Logger { return n }

// NewNoOpLogger returns the discarding logger.
func NewNoOpLogger() ports.Logger {
	return discard
}

// OrNoOp returns logger, or the discarding logger when logger is nil or a
// nil *Logger.
func OrNoOp(logger ports.Logger) ports.Logger {
	switch l := logger.(type) {
	case nil:
		return discard
	case *Logger:
		if l == nil {
			return discard
		}
	}
	return logger
}
