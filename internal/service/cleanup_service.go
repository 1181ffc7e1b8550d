package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/archive"
	"github.com/Freeeeeet/school_scheduler/internal/config"
	"github.com/Freeeeeet/school_scheduler/internal/lock"
	"github.com/Freeeeeet/school_scheduler/internal/metrics"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/repository"
	"github.com/Freeeeeet/school_scheduler/internal/scheduling"
	"go.uber.org/zap"
)

const (
	PruneReasonExpired      = "expired"
	PruneReasonExcessVacant = "excess_vacant"
)

// PruneReport итог уплотнения таблицы экземпляров
type PruneReport struct {
	Reason     string   `json:"reason"`
	Cutoff     string   `json:"cutoff,omitempty"`
	Threshold  int      `json:"threshold,omitempty"`
	Removed    int      `json:"removed"`
	Kept       int      `json:"kept"`
	RemovedIDs []string `json:"removed_ids,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

type CleanupService struct {
	instances *repository.InstanceRepository
	archiver  archive.Archiver
	guard     lock.Guard
	metrics   *metrics.Metrics
	cfg       config.Scheduling
	now       Clock
	logger    *zap.Logger
}

func NewCleanupService(
	instances *repository.InstanceRepository,
	archiver archive.Archiver,
	guard lock.Guard,
	m *metrics.Metrics,
	cfg config.Scheduling,
	now Clock,
	logger *zap.Logger,
) *CleanupService {
	return &CleanupService{
		instances: instances,
		archiver:  archiver,
		guard:     guard,
		metrics:   m,
		cfg:       cfg,
		now:       now,
		logger:    logger,
	}
}

// PruneExpired удаляет экземпляры с датой раньше cutoff.
// Нулевой cutoff означает сегодня минус RetentionDays.
func (s *CleanupService) PruneExpired(ctx context.Context, cutoff time.Time) (*PruneReport, error) {
	if cutoff.IsZero() {
		cutoff = s.today().AddDate(0, 0, -s.cfg.RetentionDays)
	} else {
		cutoff = model.DayStart(cutoff, s.cfg.Location)
	}

	report := &PruneReport{Reason: PruneReasonExpired, Cutoff: cutoff.Format(model.DateLayout)}
	err := s.compact(ctx, report, func(instances []*model.ScheduleInstance) scheduling.Compaction {
		return scheduling.SelectExpired(instances, cutoff)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// PruneExcessVacant удаляет свободные Vacant экземпляры в группах и днях,
// где ёмкость уже достигла порога. threshold <= 0 означает порог из конфига.
func (s *CleanupService) PruneExcessVacant(ctx context.Context, threshold int) (*PruneReport, error) {
	if threshold <= 0 {
		threshold = s.cfg.VacantThreshold
	}

	report := &PruneReport{Reason: PruneReasonExcessVacant, Threshold: threshold}
	err := s.compact(ctx, report, func(instances []*model.ScheduleInstance) scheduling.Compaction {
		return scheduling.SelectExcessVacant(instances, threshold, s.today())
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *CleanupService) compact(
	ctx context.Context,
	report *PruneReport,
	selectRows func([]*model.ScheduleInstance) scheduling.Compaction,
) error {
	err := s.guard.WithLock(ctx, s.cfg.LockName, func(ctx context.Context) error {
		instances, err := s.instances.ReadAll(ctx)
		if err != nil {
			return inconsistent(err, "read instances")
		}

		c := selectRows(instances)
		report.Kept = len(c.Kept)
		if !c.Changed() {
			return nil
		}

		batch := archive.Batch{
			Table:  s.instances.Table().Name(),
			Reason: report.Reason,
			At:     s.now(),
			Header: s.instances.Header(),
			Rows:   s.instances.Records(c.Removed),
		}
		if err := s.archiver.Archive(ctx, batch); err != nil {
			report.Warnings = append(report.Warnings, warn(s.logger, err, "archive %d removed instances", len(c.Removed)))
		}

		if err := s.instances.Rewrite(ctx, c.Kept); err != nil {
			return inconsistent(err, "rewrite instances after %s cleanup", report.Reason)
		}

		report.Removed = len(c.Removed)
		for _, inst := range c.Removed {
			report.RemovedIDs = append(report.RemovedIDs, inst.InstanceID)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Cleanup failed", zap.String("reason", report.Reason), zap.Error(err))
		return err
	}

	s.metrics.Pruned(report.Reason, report.Removed)
	if report.Removed > 0 {
		s.logger.Info("Instances pruned",
			zap.String("reason", report.Reason),
			zap.Int("removed", report.Removed),
			zap.Int("kept", report.Kept),
		)
	}
	return nil
}

func (s *CleanupService) today() time.Time {
	return model.DayStart(s.now(), s.cfg.Location)
}
