package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type SlotKind string

const (
	SlotKindFixed  SlotKind = "Fixed"  // За слотом закреплён основной учитель
	SlotKindVacant SlotKind = "Vacant" // Свободное окно без учителя
)

// ParseSlotKind разбирает тип слота из строки хранилища
func ParseSlotKind(s string) (SlotKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed":
		return SlotKindFixed, nil
	case "vacant":
		return SlotKindVacant, nil
	}
	return "", fmt.Errorf("unknown slot kind %q", s)
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday разбирает название дня недели (Monday, monday, MONDAY)
func ParseWeekday(s string) (time.Weekday, error) {
	day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("invalid weekday %q", s)
	}
	return day, nil
}

// NormalizeStartTime приводит время начала к формату HH:MM ("9:00" -> "09:00")
func NormalizeStartTime(s string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid start time %q", s)
	}
	return t.Format("15:04"), nil
}

// BaseTemplate представляет недельный шаблон занятия
type BaseTemplate struct {
	ID                string       `json:"id"`
	DayOfWeek         time.Weekday `json:"day_of_week"`
	StartTime         string       `json:"start_time"` // HH:MM
	Kind              SlotKind     `json:"kind"`
	Group             string       `json:"group"`
	DefaultDiscipline string       `json:"default_discipline"`
	MainTeachers      []string     `json:"main_teachers"` // только для Fixed
}

var (
	ErrTemplateMissingID      = errors.New("template id is missing")
	ErrTemplateMissingTime    = errors.New("template start time is missing")
	ErrTemplateMissingKind    = errors.New("template kind is missing")
	ErrTemplateInvalidDay     = errors.New("template weekday is invalid")
	ErrTemplateFixedNoTeacher = errors.New("fixed template has no main teacher")
)

// Validate проверяет, что шаблон пригоден для генерации экземпляров
func (t BaseTemplate) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrTemplateMissingID
	}
	if t.DayOfWeek < time.Sunday || t.DayOfWeek > time.Saturday {
		return ErrTemplateInvalidDay
	}
	if strings.TrimSpace(t.StartTime) == "" {
		return ErrTemplateMissingTime
	}
	if _, err := NormalizeStartTime(t.StartTime); err != nil {
		return err
	}
	switch t.Kind {
	case SlotKindFixed:
		if len(t.MainTeachers) == 0 {
			return ErrTemplateFixedNoTeacher
		}
	case SlotKindVacant:
	case "":
		return ErrTemplateMissingKind
	default:
		return fmt.Errorf("unknown slot kind %q", t.Kind)
	}
	return nil
}

// TemplateRejection описывает шаблон, исключённый из генерации
type TemplateRejection struct {
	TemplateID string `json:"template_id"`
	Row        int    `json:"row,omitempty"` // номер строки в хранилище, если известен
	Reason     string `json:"reason"`
}
