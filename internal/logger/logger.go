// Package logger builds the application-wide zap logger.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options carries the identity fields stamped on every log line.
type Options struct {
	Service     string
	Version     string
	Environment string
	Level       string
}

// New builds a zap.Logger at the requested level and installs it as
// the global logger. Development environments get console encoding,
// everything else logs JSON.
func New(opts Options) (*zap.Logger, error) {
	level := opts.Level
	if level == "" {
		level = "info"
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if opts.Environment == "development" {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	log = log.With(
		zap.String("service", opts.Service),
		zap.String("version", opts.Version),
	)

	zap.ReplaceGlobals(log)
	return log, nil
}
