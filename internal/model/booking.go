package model

import (
	"fmt"
	"strings"
	"time"
)

type BookingType string

const (
	BookingTypeReplacement  BookingType = "Replacement"  // Занятие в свободном окне
	BookingTypeSubstitution BookingType = "Substitution" // Замена основного учителя
)

// ParseBookingType разбирает тип бронирования
func ParseBookingType(s string) (BookingType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "replacement":
		return BookingTypeReplacement, nil
	case "substitution":
		return BookingTypeSubstitution, nil
	}
	return "", fmt.Errorf("unknown booking type %q", s)
}

type BookingStatus string

const (
	BookingStatusScheduled BookingStatus = "Scheduled"
	BookingStatusCancelled BookingStatus = "Cancelled"
)

// ParseBookingStatus разбирает статус бронирования
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(strings.TrimSpace(s)) {
	case BookingStatusScheduled:
		return BookingStatusScheduled, nil
	case BookingStatusCancelled:
		return BookingStatusCancelled, nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

type Booking struct {
	BookingID       string        `json:"booking_id"`
	Type            BookingType   `json:"type"`
	InstanceID      string        `json:"instance_id"`
	RealTeacher     string        `json:"real_teacher"`
	OriginalTeacher string        `json:"original_teacher,omitempty"` // только для Substitution
	Students        string        `json:"students"`
	BookedGroup     string        `json:"booked_group"`
	RealDiscipline  string        `json:"real_discipline"`
	EffectiveStart  time.Time     `json:"effective_start"`
	Status          BookingStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	CreatedBy       string        `json:"created_by"`
}

// IsScheduled проверяет, что бронирование активно
func (b *Booking) IsScheduled() bool {
	return b.Status == BookingStatusScheduled
}
