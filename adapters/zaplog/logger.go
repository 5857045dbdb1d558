// Package zaplog binds a zap logger to the session.Logger interface.
package zaplog

import (
	"go.uber.org/zap"
)

// Logger adapts zap's sugared logger to session.Logger.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New wraps l.
func New(l *zap.Logger) *Logger {
	return &Logger{sugar: l.Sugar()}
}

func (l *Logger) Debug(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}
