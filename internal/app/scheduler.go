package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/service"
	"go.uber.org/zap"
)

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	scheduling    *service.SchedulingService
	cleanup       *service.CleanupService
	generateEvery time.Duration
	cleanupEvery  time.Duration
	logger        *zap.Logger
}

// NewScheduler создаёт новый планировщик
func NewScheduler(
	scheduling *service.SchedulingService,
	cleanup *service.CleanupService,
	generateEvery, cleanupEvery time.Duration,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		scheduling:    scheduling,
		cleanup:       cleanup,
		generateEvery: generateEvery,
		cleanupEvery:  cleanupEvery,
		logger:        logger,
	}
}

// Run запускает фоновые задачи и блокируется до отмены ctx
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting background scheduler",
		zap.Duration("generate_every", s.generateEvery),
		zap.Duration("cleanup_every", s.cleanupEvery),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.loop(ctx, "cleanup", s.cleanupEvery, s.runCleanup)
	}()
	s.loop(ctx, "generation", s.generateEvery, s.runGeneration)
	<-done

	s.logger.Info("Background scheduler stopped")
	return nil
}

// loop выполняет задачу сразу при старте, затем с периодом every
func (s *Scheduler) loop(ctx context.Context, name string, every time.Duration, task func(context.Context)) {
	task(ctx)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			task(ctx)
		case <-ctx.Done():
			s.logger.Info("Background task cancelled", zap.String("task", name))
			return
		}
	}
}

func (s *Scheduler) runGeneration(ctx context.Context) {
	report, err := s.scheduling.GenerateInstances(ctx)
	if err != nil {
		s.logger.Error("Scheduled generation failed", zap.Error(err))
		return
	}
	s.logger.Debug("Scheduled generation completed", zap.Int("created", report.Created))
}

// runCleanup удаляет прошедшие экземпляры, затем лишние свободные окна
func (s *Scheduler) runCleanup(ctx context.Context) {
	if _, err := s.cleanup.PruneExpired(ctx, time.Time{}); err != nil {
		s.logger.Error("Scheduled expired cleanup failed", zap.Error(err))
	}
	if _, err := s.cleanup.PruneExcessVacant(ctx, 0); err != nil {
		s.logger.Error("Scheduled vacant cleanup failed", zap.Error(err))
	}
}
