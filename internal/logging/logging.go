package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"shop-chat/internal/config"
)

// New construye el logger del proceso: JSON a stdout y, si LOG_FILE esta definido,
// una copia rotada en disco.
func New(cfg *config.Config) *zap.Logger {
	level := zap.InfoLevel
	if cfg != nil && cfg.LogDebug {
		level = zap.DebugLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	}
	if cfg != nil && cfg.LogFile != "" {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(&lumberjack.Logger{
			Filename: cfg.LogFile,
			MaxSize:  100,
			MaxAge:   28,
			Compress: true,
		}), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}
