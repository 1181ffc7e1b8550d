package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type OccupancyStatus string

const (
	OccupancyAvailable             OccupancyStatus = "Available"
	OccupancyReplacementScheduled  OccupancyStatus = "ReplacementScheduled"
	OccupancySubstitutionScheduled OccupancyStatus = "SubstitutionScheduled"
)

// ParseOccupancyStatus разбирает статус занятости из строки хранилища
func ParseOccupancyStatus(s string) (OccupancyStatus, error) {
	switch OccupancyStatus(strings.TrimSpace(s)) {
	case OccupancyAvailable:
		return OccupancyAvailable, nil
	case OccupancyReplacementScheduled:
		return OccupancyReplacementScheduled, nil
	case OccupancySubstitutionScheduled:
		return OccupancySubstitutionScheduled, nil
	}
	return "", fmt.Errorf("unknown occupancy status %q", s)
}

// DateLayout формат даты экземпляра в ключах и хранилище
const DateLayout = "2006-01-02"

// ScheduleInstance конкретное датированное занятие, развёрнутое из шаблона
type ScheduleInstance struct {
	InstanceID       string          `json:"instance_id"`
	TemplateID       string          `json:"template_id"`
	Group            string          `json:"group"`
	MainTeachers     []string        `json:"main_teachers"`
	Date             time.Time       `json:"date"` // полночь в часовом поясе школы
	DayOfWeek        time.Weekday    `json:"day_of_week"`
	StartTime        string          `json:"start_time"`
	OriginalKind     SlotKind        `json:"original_kind"`
	OccupancyStatus  OccupancyStatus `json:"occupancy_status"`
	BookingID        string          `json:"booking_id,omitempty"`
	ExternalEventRef string          `json:"external_event_ref,omitempty"`
	AbsentTeachers   []string        `json:"absent_teachers,omitempty"`
}

// InstanceKey уникальный ключ экземпляра: шаблон + дата + время начала
type InstanceKey struct {
	TemplateID string
	Date       string // DateLayout
	StartTime  string
}

// Key возвращает ключ уникальности экземпляра
func (i *ScheduleInstance) Key() InstanceKey {
	return InstanceKey{
		TemplateID: i.TemplateID,
		Date:       i.Date.Format(DateLayout),
		StartTime:  i.StartTime,
	}
}

// IsAvailableVacant проверяет, что это свободное незабронированное окно
func (i *ScheduleInstance) IsAvailableVacant() bool {
	return i.OriginalKind == SlotKindVacant && i.OccupancyStatus == OccupancyAvailable
}

// HasMainTeacher проверяет, закреплён ли учитель за слотом
func (i *ScheduleInstance) HasMainTeacher(name string) bool {
	return slices.Contains(i.MainTeachers, name)
}

// StartsAt возвращает момент начала занятия
func (i *ScheduleInstance) StartsAt() (time.Time, error) {
	clock, err := time.Parse("15:04", i.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start time: %w", err)
	}
	y, m, d := i.Date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, i.Date.Location()), nil
}

// Clone возвращает копию экземпляра без общих срезов
func (i *ScheduleInstance) Clone() *ScheduleInstance {
	c := *i
	c.MainTeachers = slices.Clone(i.MainTeachers)
	c.AbsentTeachers = slices.Clone(i.AbsentTeachers)
	return &c
}

// DayStart возвращает полночь дня t в указанном часовом поясе
func DayStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
