package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ZapLogger struct {
	log *zap.SugaredLogger
}

// NewZapLogger создаёт production-логгер zap с заданным уровнем.
func NewZapLogger(level string) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &ZapLogger{log: l.Sugar()}, nil
}

func (z *ZapLogger) Debugf(format string, args ...any) {
	z.log.Debugf(format, args...)
}

func (z *ZapLogger) Infof(format string, args ...any) {
	z.log.Infof(format, args...)
}

func (z *ZapLogger) Warnf(format string, args ...any) {
	z.log.Warnf(format, args...)
}

func (z *ZapLogger) Errorf(err error, format string, args ...any) {
	z.log.With(zap.Error(err)).Errorf(format, args...)
}

// Sync сбрасывает буферы zap. Вызывается при завершении приложения.
func (z *ZapLogger) Sync() error {
	return z.log.Sync()
}
