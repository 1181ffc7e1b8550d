package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/school_scheduler/internal/apperr"
	"github.com/Freeeeeet/school_scheduler/internal/calendar"
	"github.com/Freeeeeet/school_scheduler/internal/config"
	"github.com/Freeeeeet/school_scheduler/internal/lock"
	"github.com/Freeeeeet/school_scheduler/internal/metrics"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/notify"
	"github.com/Freeeeeet/school_scheduler/internal/repository"
	"github.com/Freeeeeet/school_scheduler/internal/scheduling"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookRequest запрос на бронирование экземпляра
type BookRequest struct {
	InstanceID     string `json:"instance_id"`
	Type           string `json:"type"`
	RealTeacher    string `json:"real_teacher"`
	RealDiscipline string `json:"real_discipline"`
	Students       string `json:"students"`
}

func (r BookRequest) validate() (model.BookingType, error) {
	if strings.TrimSpace(r.InstanceID) == "" {
		return "", apperr.Validation("instance_id is required")
	}
	if strings.TrimSpace(r.Type) == "" {
		return "", apperr.Validation("type is required")
	}
	bookingType, err := model.ParseBookingType(r.Type)
	if err != nil {
		return "", apperr.Validation("%v", err)
	}
	if strings.TrimSpace(r.RealTeacher) == "" {
		return "", apperr.Validation("real_teacher is required")
	}
	if strings.TrimSpace(r.RealDiscipline) == "" {
		return "", apperr.Validation("real_discipline is required")
	}
	return bookingType, nil
}

// BookResult итог бронирования
type BookResult struct {
	Booking    *model.Booking          `json:"booking"`
	Instance   *model.ScheduleInstance `json:"instance"`
	Recipients []string                `json:"recipients"`
	Warnings   []string                `json:"warnings,omitempty"`
}

// CancelResult итог отмены
type CancelResult struct {
	BookingID  string `json:"booking_id"`
	InstanceID string `json:"instance_id"`
	// InstanceReleased false, если экземпляр уже ссылается на другое бронирование
	InstanceReleased bool     `json:"instance_released"`
	Warnings         []string `json:"warnings,omitempty"`
}

type BookingService struct {
	instances  *repository.InstanceRepository
	bookings   *repository.BookingRepository
	guard      lock.Guard
	calendar   calendar.Calendar
	notifier   notify.Notifier
	scheduling *SchedulingService
	cleanup    *CleanupService
	metrics    *metrics.Metrics
	cfg        config.Scheduling
	now        Clock
	newID      func() string
	logger     *zap.Logger
}

func NewBookingService(
	instances *repository.InstanceRepository,
	bookings *repository.BookingRepository,
	guard lock.Guard,
	cal calendar.Calendar,
	notifier notify.Notifier,
	schedulingService *SchedulingService,
	cleanupService *CleanupService,
	m *metrics.Metrics,
	cfg config.Scheduling,
	now Clock,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		instances:  instances,
		bookings:   bookings,
		guard:      guard,
		calendar:   cal,
		notifier:   notifier,
		scheduling: schedulingService,
		cleanup:    cleanupService,
		metrics:    m,
		cfg:        cfg,
		now:        now,
		newID:      uuid.NewString,
		logger:     logger,
	}
}

// Book бронирует экземпляр: Replacement для свободного окна, Substitution для замены
// основного учителя. Состояние экземпляра перечитывается под блокировкой.
func (s *BookingService) Book(ctx context.Context, requester model.Requester, req BookRequest) (*BookResult, error) {
	bookingType, err := req.validate()
	if err != nil {
		s.metrics.Booking(string(bookingType), outcome(err))
		return nil, err
	}

	var (
		result     *BookResult
		calOutcome notify.CalendarOutcome
	)
	err = s.guard.WithLock(ctx, s.cfg.LockName, func(ctx context.Context) error {
		var err error
		result, calOutcome, err = s.book(ctx, requester, bookingType, req)
		return err
	})
	s.metrics.Booking(string(bookingType), outcome(err))
	if err != nil {
		s.logger.Warn("Booking rejected",
			zap.String("instance_id", req.InstanceID),
			zap.String("type", string(bookingType)),
			zap.String("requester", requester.Identity()),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Slot booked",
		zap.String("booking_id", result.Booking.BookingID),
		zap.String("instance_id", result.Instance.InstanceID),
		zap.String("type", string(bookingType)),
		zap.String("real_teacher", result.Booking.RealTeacher),
	)

	err = s.notifier.Notify(ctx, notify.Payload{
		Event:      notify.EventBooked,
		Recipients: result.Recipients,
		Booking:    *result.Booking,
		Instance:   *result.Instance,
		Calendar:   calOutcome,
	})
	if err != nil {
		result.Warnings = append(result.Warnings, warn(s.logger, err, "notify recipients of booking %s", result.Booking.BookingID))
	}

	// Занятый Vacant слот может довести день группы до порога
	if _, err := s.cleanup.PruneExcessVacant(ctx, 0); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("capacity cleanup after booking failed: %v", err))
	}

	return result, nil
}

func (s *BookingService) book(
	ctx context.Context,
	requester model.Requester,
	bookingType model.BookingType,
	req BookRequest,
) (*BookResult, notify.CalendarOutcome, error) {
	inst, err := s.instances.GetByID(ctx, req.InstanceID)
	if err != nil {
		return nil, "", inconsistent(err, "read instance %s", req.InstanceID)
	}
	if inst == nil {
		return nil, "", apperr.NotFound("instance %s not found", req.InstanceID)
	}

	next, err := scheduling.NextStatus(inst.OriginalKind, inst.OccupancyStatus, scheduling.EventForBooking(bookingType))
	if err != nil {
		return nil, "", err
	}
	if bookingType == model.BookingTypeSubstitution && len(inst.MainTeachers) == 0 {
		return nil, "", apperr.Inconsistent(nil, "fixed instance %s has no main teacher", inst.InstanceID)
	}

	start, err := inst.StartsAt()
	if err != nil {
		return nil, "", apperr.Inconsistent(err, "instance %s has malformed start time", inst.InstanceID)
	}

	booking := &model.Booking{
		BookingID:      s.newID(),
		Type:           bookingType,
		InstanceID:     inst.InstanceID,
		RealTeacher:    strings.TrimSpace(req.RealTeacher),
		Students:       req.Students,
		BookedGroup:    inst.Group,
		RealDiscipline: strings.TrimSpace(req.RealDiscipline),
		EffectiveStart: start,
		Status:         model.BookingStatusScheduled,
		CreatedAt:      s.now(),
		CreatedBy:      requester.Identity(),
	}
	if bookingType == model.BookingTypeSubstitution {
		booking.OriginalTeacher = inst.MainTeachers[0]
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, "", inconsistent(err, "append booking for instance %s", inst.InstanceID)
	}

	updated := inst.Clone()
	updated.OccupancyStatus = next
	updated.BookingID = booking.BookingID
	if err := s.instances.Update(ctx, updated); err != nil {
		return nil, "", inconsistent(err, "booking %s written but instance %s not updated", booking.BookingID, inst.InstanceID)
	}

	result := &BookResult{
		Booking:    booking,
		Instance:   updated,
		Recipients: notify.Recipients(booking.RealTeacher, inst.MainTeachers),
	}

	ref, err := s.upsertEvent(ctx, updated, booking, result.Recipients)
	if err != nil {
		result.Warnings = append(result.Warnings, warn(s.logger, err, "calendar upsert for booking %s", booking.BookingID))
		return result, notify.CalendarFailed, nil
	}
	if ref != updated.ExternalEventRef {
		updated.ExternalEventRef = ref
		if err := s.instances.Update(ctx, updated); err != nil {
			return nil, "", inconsistent(err, "store calendar event of instance %s", inst.InstanceID)
		}
	}

	return result, notify.CalendarSynced, nil
}

func (s *BookingService) upsertEvent(
	ctx context.Context,
	inst *model.ScheduleInstance,
	booking *model.Booking,
	guests []string,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CalendarTimeout)
	defer cancel()

	description := fmt.Sprintf("%s, teacher %s", booking.Type, booking.RealTeacher)
	if booking.OriginalTeacher != "" {
		description += fmt.Sprintf(" instead of %s", booking.OriginalTeacher)
	}
	if booking.Students != "" {
		description += "\nStudents: " + booking.Students
	}

	return s.calendar.Upsert(ctx, inst.ExternalEventRef, calendar.Event{
		Title:       fmt.Sprintf("%s, %s", booking.RealDiscipline, booking.BookedGroup),
		Start:       booking.EffectiveStart,
		End:         booking.EffectiveStart.Add(s.cfg.SlotDuration),
		Description: description,
		Guests:      guests,
	})
}

// Cancel отменяет бронирование и освобождает экземпляр.
// Отменить может администратор, завуч или автор бронирования.
// Если экземпляр уже ссылается на другое бронирование (повторная замена),
// отменяется только само бронирование: экземпляр и событие календаря не меняются,
// в результате InstanceReleased = false.
func (s *BookingService) Cancel(ctx context.Context, requester model.Requester, bookingID string) (*CancelResult, error) {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		err := apperr.Validation("booking_id is required")
		s.metrics.Cancellation(outcome(err))
		return nil, err
	}

	var (
		result   *CancelResult
		booking  *model.Booking
		released *model.ScheduleInstance
		eventRef string
	)
	err := s.guard.WithLock(ctx, s.cfg.LockName, func(ctx context.Context) error {
		var err error
		booking, err = s.bookings.GetByID(ctx, bookingID)
		if err != nil {
			return inconsistent(err, "read booking %s", bookingID)
		}
		if booking == nil {
			return apperr.NotFound("booking %s not found", bookingID)
		}
		if !requester.IsPrivileged() && booking.CreatedBy != requester.Identity() {
			return apperr.Forbidden("only the booking author or an administrator can cancel booking %s", bookingID)
		}
		if !booking.IsScheduled() {
			return apperr.Conflict("booking %s is already cancelled", bookingID)
		}

		result = &CancelResult{BookingID: booking.BookingID, InstanceID: booking.InstanceID}

		inst, err := s.instances.GetByID(ctx, booking.InstanceID)
		if err != nil {
			return inconsistent(err, "read instance %s", booking.InstanceID)
		}
		if inst == nil {
			// Бронирование не должно зависнуть: отменяем его и сообщаем о расхождении
			if err := s.bookings.UpdateStatus(ctx, booking, model.BookingStatusCancelled); err != nil {
				return inconsistent(err, "cancel booking %s", bookingID)
			}
			return apperr.Inconsistent(nil, "booking %s cancelled but its instance %s is missing", bookingID, booking.InstanceID)
		}

		if inst.BookingID == booking.BookingID {
			next, err := scheduling.NextStatus(inst.OriginalKind, inst.OccupancyStatus, scheduling.EventBookingCancelled)
			if err != nil {
				return apperr.Inconsistent(err, "instance %s references booking %s", inst.InstanceID, bookingID)
			}

			eventRef = inst.ExternalEventRef
			released = inst.Clone()
			released.OccupancyStatus = next
			released.BookingID = ""
			released.ExternalEventRef = ""
			if err := s.instances.Update(ctx, released); err != nil {
				return inconsistent(err, "release instance %s", inst.InstanceID)
			}
			result.InstanceReleased = true
		} else {
			s.logger.Warn("Cancelling booking no longer referenced by its instance",
				zap.String("booking_id", bookingID),
				zap.String("instance_id", inst.InstanceID),
				zap.String("current_booking_id", inst.BookingID),
			)
		}

		if err := s.bookings.UpdateStatus(ctx, booking, model.BookingStatusCancelled); err != nil {
			return inconsistent(err, "instance %s released but booking %s not cancelled", inst.InstanceID, bookingID)
		}
		return nil
	})
	s.metrics.Cancellation(outcome(err))
	if err != nil {
		s.logger.Warn("Cancellation failed", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Booking canceled",
		zap.String("booking_id", bookingID),
		zap.String("instance_id", result.InstanceID),
		zap.Bool("instance_released", result.InstanceReleased),
	)

	calendarOutcome := notify.CalendarSkipped
	if eventRef != "" {
		calCtx, cancel := context.WithTimeout(ctx, s.cfg.CalendarTimeout)
		err := s.calendar.Delete(calCtx, eventRef)
		cancel()
		if err != nil {
			calendarOutcome = notify.CalendarFailed
			result.Warnings = append(result.Warnings, warn(s.logger, err, "calendar delete for booking %s", bookingID))
		} else {
			calendarOutcome = notify.CalendarSynced
		}
	}

	if released != nil {
		err := s.notifier.Notify(ctx, notify.Payload{
			Event:      notify.EventCancelled,
			Recipients: notify.Recipients(booking.RealTeacher, released.MainTeachers),
			Booking:    *booking,
			Instance:   *released,
			Calendar:   calendarOutcome,
		})
		if err != nil {
			result.Warnings = append(result.Warnings, warn(s.logger, err, "notify cancellation of booking %s", bookingID))
		}
	}

	// Освободившийся слот может вернуть ёмкость для Vacant окон
	if _, err := s.scheduling.GenerateInstances(ctx); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("generation after cancellation failed: %v", err))
	}

	return result, nil
}
