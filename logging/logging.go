// Package logging provides the structured logger shared by Director and
// Actor, built on go.uber.org/zap the way the teacher wires a Logger field
// into StdApplication (see application_lifecycle_test.go's logger field and
// Info/Error calls).
package logging

import "go.uber.org/zap"

// New builds a development-friendly, console-encoded SugaredLogger at the
// given level ("debug", "info", "warn", "error"; anything else falls back
// to "info").
func New(level string) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		lvl = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.Level = lvl
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

// Nop returns a logger that discards everything, used as a safe default
// when a caller does not configure one.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// Child returns a logger annotated with the given key/value pair, mirroring
// the teacher's per-module child-logger convention.
func Child(logger *zap.SugaredLogger, key, value string) *zap.SugaredLogger {
	if logger == nil {
		logger = Nop()
	}
	return logger.With(key, value)
}
