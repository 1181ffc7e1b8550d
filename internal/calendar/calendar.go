// Package calendar описывает внешний календарь, куда выгружаются забронированные занятия.
package calendar

import (
	"context"
	"time"
)

// Event занятие для выгрузки в календарь
type Event struct {
	Title       string
	Start       time.Time
	End         time.Time
	Description string
	Guests      []string
}

// Calendar внешний календарь. Ошибки считаются сбоем внешнего сервиса и не
// откатывают бронирование.
type Calendar interface {
	// Upsert создаёт событие или обновляет существующее (ref не пустой) и возвращает его ссылку
	Upsert(ctx context.Context, ref string, event Event) (string, error)
	// Delete удаляет событие; пустой ref игнорируется
	Delete(ctx context.Context, ref string) error
}
