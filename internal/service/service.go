// Package service реализует операции расписания поверх репозиториев.
// Все изменяющие операции выполняются под общей блокировкой.
package service

import (
	"errors"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/apperr"
	"go.uber.org/zap"
)

// Clock источник текущего времени
type Clock func() time.Time

// inconsistent оборачивает ошибку хранилища; уже типизированные ошибки пропускаются как есть
func inconsistent(err error, format string, args ...any) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Inconsistent(err, format, args...)
}

// outcome метка исхода операции для метрик
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperr.KindOf(err))
}

// warn фиксирует сбой внешнего сервиса: пишет в лог и возвращает текст предупреждения
func warn(logger *zap.Logger, err error, format string, args ...any) string {
	ext := apperr.External(err, format, args...)
	logger.Warn("External service failure", zap.Error(ext))
	return ext.Error()
}
