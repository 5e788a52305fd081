// Package logger описывает единый интерфейс логирования сервиса и его реализации
// поверх log/slog и go.uber.org/zap.
package logger

import "strings"

// Logger: минимальный интерфейс логгера, используемый во всех слоях приложения.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
}

const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// New возвращает логгер для указанного бэкенда. Неизвестный бэкенд даёт slog.
func New(backend string, level string) Logger {
	switch strings.ToLower(backend) {
	case BackendZap:
		if l, err := NewZapLogger(level); err == nil {
			return l
		}
	}

	return NewSlogLoggerWithLevel(level)
}

// Nop возвращает логгер, отбрасывающий все сообщения. Используется в тестах.
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)        {}
func (nopLogger) Infof(string, ...any)         {}
func (nopLogger) Warnf(string, ...any)         {}
func (nopLogger) Errorf(error, string, ...any) {}
