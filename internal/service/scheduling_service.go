package service

import (
	"context"
	"io"

	"github.com/Freeeeeet/school_scheduler/internal/apperr"
	"github.com/Freeeeeet/school_scheduler/internal/config"
	"github.com/Freeeeeet/school_scheduler/internal/lock"
	"github.com/Freeeeeet/school_scheduler/internal/metrics"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/repository"
	"github.com/Freeeeeet/school_scheduler/internal/scheduling"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateReport итог генерации экземпляров
type GenerateReport struct {
	WindowStart string                    `json:"window_start"`
	WindowEnd   string                    `json:"window_end"`
	Created     int                       `json:"created"`
	Throttled   int                       `json:"throttled"`
	Rejected    []model.TemplateRejection `json:"rejected,omitempty"`
}

type SchedulingService struct {
	templates *repository.TemplateRepository
	instances *repository.InstanceRepository
	guard     lock.Guard
	metrics   *metrics.Metrics
	cfg       config.Scheduling
	now       Clock
	newID     func() string
	logger    *zap.Logger
}

func NewSchedulingService(
	templates *repository.TemplateRepository,
	instances *repository.InstanceRepository,
	guard lock.Guard,
	m *metrics.Metrics,
	cfg config.Scheduling,
	now Clock,
	logger *zap.Logger,
) *SchedulingService {
	return &SchedulingService{
		templates: templates,
		instances: instances,
		guard:     guard,
		metrics:   m,
		cfg:       cfg,
		now:       now,
		newID:     uuid.NewString,
		logger:    logger,
	}
}

// GenerateInstances разворачивает шаблоны в экземпляры на ближайшие WindowWeeks недель.
// Повторный запуск без изменений шаблонов ничего не создаёт.
func (s *SchedulingService) GenerateInstances(ctx context.Context) (*GenerateReport, error) {
	var report *GenerateReport
	err := s.guard.WithLock(ctx, s.cfg.LockName, func(ctx context.Context) error {
		var err error
		report, err = s.generate(ctx)
		return err
	})
	if err != nil {
		s.logger.Error("Instance generation failed", zap.Error(err))
		return nil, err
	}

	s.metrics.Generated(report.Created, report.Throttled)
	s.logger.Info("Instances generated",
		zap.String("window_start", report.WindowStart),
		zap.Int("created", report.Created),
		zap.Int("throttled", report.Throttled),
		zap.Int("rejected", len(report.Rejected)),
	)

	return report, nil
}

func (s *SchedulingService) generate(ctx context.Context) (*GenerateReport, error) {
	templates, rejected, err := s.templates.ReadAll(ctx)
	if err != nil {
		return nil, inconsistent(err, "read templates")
	}
	for _, r := range rejected {
		s.logger.Warn("Template rejected",
			zap.String("template_id", r.TemplateID),
			zap.Int("row", r.Row),
			zap.String("reason", r.Reason),
		)
	}

	existing, err := s.instances.ReadAll(ctx)
	if err != nil {
		return nil, inconsistent(err, "read instances")
	}

	today := model.DayStart(s.now(), s.cfg.Location)
	start := scheduling.WindowStart(today)

	res := scheduling.Generate(scheduling.GenerateParams{
		Templates:   templates,
		Existing:    existing,
		WindowStart: start,
		WindowWeeks: s.cfg.WindowWeeks,
		Threshold:   s.cfg.VacantThreshold,
		Today:       today,
		NewID:       s.newID,
	})

	if err := s.instances.Create(ctx, res.Created...); err != nil {
		return nil, inconsistent(err, "append %d generated instances", len(res.Created))
	}

	return &GenerateReport{
		WindowStart: start.Format(model.DateLayout),
		WindowEnd:   start.AddDate(0, 0, s.cfg.WindowWeeks*7-1).Format(model.DateLayout),
		Created:     len(res.Created),
		Throttled:   res.Throttled,
		Rejected:    append(rejected, res.Rejected...),
	}, nil
}

// SeedTemplates загружает шаблоны из CSV, если таблица шаблонов пуста
func (s *SchedulingService) SeedTemplates(ctx context.Context, src io.Reader) (int, error) {
	var imported int
	err := s.guard.WithLock(ctx, s.cfg.LockName, func(ctx context.Context) error {
		count, err := s.templates.Count(ctx)
		if err != nil {
			return inconsistent(err, "count templates")
		}
		if count > 0 {
			return nil
		}

		imported, err = s.templates.ImportCSV(ctx, src)
		if err != nil {
			return apperr.Validation("import templates: %v", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if imported > 0 {
		s.logger.Info("Templates seeded", zap.Int("count", imported))
	}
	return imported, nil
}
