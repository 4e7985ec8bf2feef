package logging

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *zap.SugaredLogger
	once   sync.Once
)

// Init builds the process logger: JSON to a rotating file, plus a console
// core outside production. Safe to call more than once; later calls are
// no-ops.
func Init(logDir, environment string) {
	once.Do(func() {
		if logDir == "" {
			logDir = "logs"
		}
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			// Fall back to console-only logging rather than refusing to start.
			logger = zap.Must(zap.NewProduction()).Sugar()
			logger.Warnw("could not create log directory, logging to stderr only", "dir", logDir, "error", err)
			return
		}

		rotating := &lumberjack.Logger{
			Filename:   filepath.Join(logDir, "dealerwatch.log"),
			MaxSize:    10, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}

		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(rotating),
			zap.InfoLevel,
		)

		var core zapcore.Core
		if environment == "production" {
			core = fileCore
		} else {
			consoleCore := zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.Lock(os.Stdout),
				zap.DebugLevel,
			)
			core = zapcore.NewTee(fileCore, consoleCore)
		}

		logger = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).Sugar()
	})
}

// L returns the process logger, initializing a default one if Init was never
// called (tests, one-off tools).
func L() *zap.SugaredLogger {
	if logger == nil {
		Init("logs", os.Getenv("ENVIRONMENT"))
	}
	return logger
}

// Named returns a child logger labelled with the subsystem name.
func Named(name string) *zap.SugaredLogger {
	return L().Named(name)
}

// SetNop replaces the process logger with a no-op logger. Test helper.
func SetNop() {
	logger = zap.NewNop().Sugar()
}
