// Package log builds zap loggers that write to stderr, to a rotated file, or
// to both.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

func New(opts ...Option) (*zap.Logger, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	var syncers []zapcore.WriteSyncer
	if !cfg.disableLogToStderr {
		syncers = append(syncers, zapcore.Lock(zapcore.AddSync(os.Stderr)))
	}
	if len(cfg.path) > 0 {
		syncers = append(syncers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.path,
			LocalTime:  cfg.localTime,
			Compress:   cfg.compress,
			MaxSize:    cfg.maxSizeMB,
			MaxBackups: cfg.maxBackups,
			MaxAge:     cfg.maxAgeDays,
		}))
	}

	var encoder zapcore.Encoder
	if cfg.humanFriendly {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	core := zapcore.NewCore(encoder, zap.CombineWriteSyncers(syncers...), zap.NewAtomicLevelAt(cfg.level))

	zapOpts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)}
	zapOpts = append(zapOpts, cfg.zapOpts...)
	return zap.New(core, zapOpts...), nil
}
