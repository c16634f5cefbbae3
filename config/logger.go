package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns a JSON logger, or a colored console one in development.
func NewLogger(env string) (*zap.Logger, error) {
	switch env {
	case EnvDevelopment:
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	case EnvTest:
		return zap.NewNop(), nil
	}
	return zap.NewProduction()
}
