// Package vpnlog wraps zap's SugaredLogger with the category/event keyword
// convention the original Python session package logged with
// (logger.info(route, category="api", event="request")), expressed as
// structured fields.
package vpnlog

import (
	"go.uber.org/zap"
)

// Logger is a thin façade over zap.SugaredLogger. The zero value and a nil
// *Logger discard every entry; construct one with New, NewDevelopment or
// NewNop.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New builds a production Logger (JSON encoding, info level and above).
func New() (*Logger, error) {
	zl, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: zl.Sugar()}, nil
}

// NewDevelopment builds a human-readable console Logger for the demo CLI.
func NewDevelopment() (*Logger, error) {
	zl, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return &Logger{sugar: zl.Sugar()}, nil
}

// NewNop builds a Logger that discards everything, for tests.
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

// Debug logs at debug level with category/event-style key-value pairs.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Debugw(msg, keysAndValues...)
}

// Info logs at info level with category/event-style key-value pairs.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Infow(msg, keysAndValues...)
}

// Warn logs at warn level with category/event-style key-value pairs.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Warnw(msg, keysAndValues...)
}

// Error logs at error level with category/event-style key-value pairs.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Errorw(msg, keysAndValues...)
}

// Sync flushes any buffered log entries. Call before process exit.
func (l *Logger) Sync() error {
	if l == nil || l.sugar == nil {
		return nil
	}
	return l.sugar.Sync()
}
