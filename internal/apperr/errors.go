// Package apperr описывает типизированные ошибки операций расписания.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation         Kind = "validation"          // Некорректный ввод, повтор без исправления бессмыслен
	KindNotFound           Kind = "not_found"           // Запись с указанным id отсутствует
	KindConflict           Kind = "conflict"            // Текущее состояние запрещает переход
	KindLockTimeout        Kind = "lock_timeout"        // Система занята, можно повторить
	KindStoreInconsistency Kind = "store_inconsistency" // Хранилище в неожиданном состоянии
	KindExternalService    Kind = "external_service"    // Сбой календаря или уведомлений
	KindForbidden          Kind = "forbidden"           // Недостаточно прав
)

// Error ошибка операции с указанием вида
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is позволяет сравнивать ошибки по виду: errors.Is(err, apperr.ErrConflict)
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Сентинелы для errors.Is
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrLockTimeout        = &Error{Kind: KindLockTimeout}
	ErrStoreInconsistency = &Error{Kind: KindStoreInconsistency}
	ErrExternalService    = &Error{Kind: KindExternalService}
	ErrForbidden          = &Error{Kind: KindForbidden}
)

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func LockTimeout(name string, err error) *Error {
	return &Error{Kind: KindLockTimeout, Message: fmt.Sprintf("system busy: lock %q not acquired", name), Err: err}
}

// Inconsistent оборачивает сбой записи или неожиданное отсутствие строки
func Inconsistent(err error, format string, args ...any) *Error {
	return &Error{Kind: KindStoreInconsistency, Message: fmt.Sprintf(format, args...), Err: err}
}

// External оборачивает сбой внешнего сервиса; наружу он уходит только как предупреждение
func External(err error, format string, args ...any) *Error {
	return &Error{Kind: KindExternalService, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf возвращает вид ошибки; для нетипизированных ошибок KindStoreInconsistency
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreInconsistency
}

// IsKind проверяет вид ошибки в цепочке
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Retryable сообщает, имеет ли смысл повторить операцию без изменений
func Retryable(err error) bool {
	return IsKind(err, KindLockTimeout)
}
