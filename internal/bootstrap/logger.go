package bootstrap

import (
	"go-attendance/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the process logger and installs it as the zap global.
// With LOG_FILE set, JSON lines are also written to a rotating file.
func NewLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}

	if cfg.LogFile != "" {
		logger = logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore(cfg.LogFile, level(cfg)))
		}))
	}

	zap.ReplaceGlobals(logger)
	return logger, nil
}

func fileCore(path string, lvl zapcore.Level) zapcore.Core {
	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	})
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zapcore.NewCore(enc, w, lvl)
}

func level(cfg config.Config) zapcore.Level {
	if cfg.IsProduction() {
		return zapcore.InfoLevel
	}
	return zapcore.DebugLevel
}
