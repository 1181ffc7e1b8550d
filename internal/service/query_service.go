package service

import (
	"context"
	"strings"

	"github.com/Freeeeeet/school_scheduler/internal/apperr"
	"github.com/Freeeeeet/school_scheduler/internal/config"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/repository"
)

// TemplateListing шаблоны и причины отклонения некорректных
type TemplateListing struct {
	Templates []model.BaseTemplate      `json:"templates"`
	Rejected  []model.TemplateRejection `json:"rejected,omitempty"`
}

// QueryService операции чтения; выполняются без блокировки и могут вернуть устаревшие данные
type QueryService struct {
	templates *repository.TemplateRepository
	instances *repository.InstanceRepository
	bookings  *repository.BookingRepository
	cfg       config.Scheduling
	now       Clock
}

func NewQueryService(
	templates *repository.TemplateRepository,
	instances *repository.InstanceRepository,
	bookings *repository.BookingRepository,
	cfg config.Scheduling,
	now Clock,
) *QueryService {
	return &QueryService{
		templates: templates,
		instances: instances,
		bookings:  bookings,
		cfg:       cfg,
		now:       now,
	}
}

// AvailableInstances свободные экземпляры начиная с сегодняшнего дня
func (s *QueryService) AvailableInstances(ctx context.Context) ([]*model.ScheduleInstance, error) {
	available, err := s.instances.ListAvailable(ctx, model.DayStart(s.now(), s.cfg.Location))
	if err != nil {
		return nil, inconsistent(err, "list available instances")
	}
	return available, nil
}

func (s *QueryService) Templates(ctx context.Context) (*TemplateListing, error) {
	templates, rejected, err := s.templates.ReadAll(ctx)
	if err != nil {
		return nil, inconsistent(err, "read templates")
	}
	return &TemplateListing{Templates: templates, Rejected: rejected}, nil
}

func (s *QueryService) Booking(ctx context.Context, id string) (*model.Booking, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.Validation("booking_id is required")
	}

	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, inconsistent(err, "read booking %s", id)
	}
	if booking == nil {
		return nil, apperr.NotFound("booking %s not found", id)
	}
	return booking, nil
}
