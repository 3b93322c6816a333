// Package logger holds the process-wide zap logger used by the LMS binaries
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the shared logger, initialized by Init
var Logger = zap.NewNop()

// Init builds the shared logger for the given level.
// "debug" switches to the development encoder.
func Init(level string) error {
	l, err := New(level)
	if err != nil {
		return err
	}
	Logger = l
	return nil
}

// New builds a zap logger for the given level without touching the shared one
func New(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l, nil
}

// Sync flushes buffered log entries
func Sync() {
	_ = Logger.Sync()
}
