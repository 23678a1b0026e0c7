package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New - логгер сервиса: JSON в stdout, в режиме debug - цветная консоль
func New(level string) (*zap.Logger, error) {
	return build(level, "stdout")
}

// NewStderr - логгер для CLI, где stdout занят результатом команды
func NewStderr(level string) (*zap.Logger, error) {
	return build(level, "stderr")
}

func build(level, output string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if zapLevel == zapcore.DebugLevel {
		config.Development = true
		config.Encoding = "console"
		config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return config.Build()
}
