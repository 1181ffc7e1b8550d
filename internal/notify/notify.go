// Package notify доставляет уведомления о бронированиях учителям.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/school_scheduler/internal/model"
)

type Event string

const (
	EventBooked    Event = "booked"
	EventCancelled Event = "cancelled"
)

type CalendarOutcome string

const (
	CalendarSynced  CalendarOutcome = "synced"
	CalendarFailed  CalendarOutcome = "failed"
	CalendarSkipped CalendarOutcome = "skipped"
)

// Payload уведомление об изменении бронирования
type Payload struct {
	Event      Event
	Recipients []string
	Booking    model.Booking
	Instance   model.ScheduleInstance
	Calendar   CalendarOutcome
}

// Notifier канал доставки уведомлений
type Notifier interface {
	Notify(ctx context.Context, p Payload) error
}

// Recipients собирает адресатов: реальный учитель и все основные учителя слота,
// без повторов и в исходном порядке
func Recipients(realTeacher string, mainTeachers []string) []string {
	seen := make(map[string]struct{}, len(mainTeachers)+1)
	var out []string
	for _, name := range append([]string{realTeacher}, mainTeachers...) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Summary короткое описание для лога и текста сообщения
func (p Payload) Summary() string {
	return fmt.Sprintf("%s %s: %s %s %s, group %s, teacher %s",
		p.Booking.Type,
		p.Event,
		p.Booking.RealDiscipline,
		p.Instance.Date.Format(model.DateLayout),
		p.Instance.StartTime,
		p.Booking.BookedGroup,
		p.Booking.RealTeacher,
	)
}
