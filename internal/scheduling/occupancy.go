package scheduling

import (
	"github.com/Freeeeeet/school_scheduler/internal/apperr"
	"github.com/Freeeeeet/school_scheduler/internal/model"
)

// Event событие, меняющее статус занятости экземпляра
type Event int

const (
	EventReplacementBooked Event = iota + 1
	EventSubstitutionBooked
	EventBookingCancelled
)

func (e Event) String() string {
	switch e {
	case EventReplacementBooked:
		return "replacement booked"
	case EventSubstitutionBooked:
		return "substitution booked"
	case EventBookingCancelled:
		return "booking cancelled"
	}
	return "unknown event"
}

// Сообщения нарушенных правил; их видит пользователь
const (
	RuleReplacementVacantOnly    = "Replacement only allowed on Vacant slots"
	RuleSubstitutionFixedOnly    = "Substitution only allowed on Fixed slots"
	RuleReplacementAlreadyBooked = "slot already has a replacement scheduled"
	RuleSubstitutionOverReplaced = "Substitution not allowed while slot is ReplacementScheduled"
	RuleNothingToCancel          = "slot has no scheduled booking to cancel"
)

// EventForBooking возвращает событие бронирования для типа
func EventForBooking(t model.BookingType) Event {
	if t == model.BookingTypeSubstitution {
		return EventSubstitutionBooked
	}
	return EventReplacementBooked
}

// NextStatus применяет событие к текущему статусу экземпляра.
//
//	Available             --replacement-->  ReplacementScheduled   (только Vacant)
//	Available             --substitution--> SubstitutionScheduled  (только Fixed)
//	SubstitutionScheduled --substitution--> SubstitutionScheduled  (только Fixed)
//	Replacement/SubstitutionScheduled --cancel--> Available
//
// Любой другой переход возвращает apperr.KindConflict с названием правила.
func NextStatus(kind model.SlotKind, current model.OccupancyStatus, ev Event) (model.OccupancyStatus, error) {
	switch ev {
	case EventReplacementBooked:
		if kind != model.SlotKindVacant {
			return "", apperr.Conflict(RuleReplacementVacantOnly)
		}
		if current != model.OccupancyAvailable {
			return "", apperr.Conflict(RuleReplacementAlreadyBooked)
		}
		return model.OccupancyReplacementScheduled, nil

	case EventSubstitutionBooked:
		if current == model.OccupancyReplacementScheduled {
			return "", apperr.Conflict(RuleSubstitutionOverReplaced)
		}
		if kind != model.SlotKindFixed {
			return "", apperr.Conflict(RuleSubstitutionFixedOnly)
		}
		if current != model.OccupancyAvailable && current != model.OccupancySubstitutionScheduled {
			return "", apperr.Conflict("unexpected occupancy status %q", current)
		}
		return model.OccupancySubstitutionScheduled, nil

	case EventBookingCancelled:
		if current != model.OccupancyReplacementScheduled && current != model.OccupancySubstitutionScheduled {
			return "", apperr.Conflict(RuleNothingToCancel)
		}
		return model.OccupancyAvailable, nil
	}

	return "", apperr.Conflict("unsupported transition %q from %q", ev, current)
}
