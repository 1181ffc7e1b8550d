package service

import (
	"context"
	"slices"
	"strings"

	"github.com/Freeeeeet/school_scheduler/internal/apperr"
	"github.com/Freeeeeet/school_scheduler/internal/config"
	"github.com/Freeeeeet/school_scheduler/internal/lock"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/repository"
	"go.uber.org/zap"
)

// AbsenceResult итог отметки об отсутствии
type AbsenceResult struct {
	Instance *model.ScheduleInstance `json:"instance"`
	// AlreadyReported true, если учитель уже был отмечен
	AlreadyReported bool `json:"already_reported"`
}

type AbsenceService struct {
	instances *repository.InstanceRepository
	guard     lock.Guard
	cfg       config.Scheduling
	now       Clock
	logger    *zap.Logger
}

func NewAbsenceService(
	instances *repository.InstanceRepository,
	guard lock.Guard,
	cfg config.Scheduling,
	now Clock,
	logger *zap.Logger,
) *AbsenceService {
	return &AbsenceService{
		instances: instances,
		guard:     guard,
		cfg:       cfg,
		now:       now,
		logger:    logger,
	}
}

// ReportAbsence отмечает основного учителя Fixed занятия как отсутствующего.
// Отметить может администратор, завуч или сам учитель.
func (s *AbsenceService) ReportAbsence(ctx context.Context, requester model.Requester, instanceID, teacherName string) (*AbsenceResult, error) {
	instanceID = strings.TrimSpace(instanceID)
	teacherName = strings.TrimSpace(teacherName)
	if instanceID == "" {
		return nil, apperr.Validation("instance_id is required")
	}
	if teacherName == "" {
		return nil, apperr.Validation("teacher_name is required")
	}
	if !requester.IsPrivileged() && requester.Name != teacherName {
		return nil, apperr.Forbidden("teachers can only report their own absence")
	}

	var result *AbsenceResult
	err := s.guard.WithLock(ctx, s.cfg.LockName, func(ctx context.Context) error {
		inst, err := s.instances.GetByID(ctx, instanceID)
		if err != nil {
			return inconsistent(err, "read instance %s", instanceID)
		}
		if inst == nil {
			return apperr.NotFound("instance %s not found", instanceID)
		}
		if inst.OriginalKind != model.SlotKindFixed {
			return apperr.Conflict("absence can only be reported for Fixed slots")
		}
		today := model.DayStart(s.now(), s.cfg.Location)
		if inst.Date.Before(today) {
			return apperr.Conflict("instance %s is in the past", instanceID)
		}
		if !inst.HasMainTeacher(teacherName) {
			return apperr.Validation("%s is not a main teacher of instance %s", teacherName, instanceID)
		}

		if slices.Contains(inst.AbsentTeachers, teacherName) {
			result = &AbsenceResult{Instance: inst, AlreadyReported: true}
			return nil
		}

		updated := inst.Clone()
		updated.AbsentTeachers = append(updated.AbsentTeachers, teacherName)
		if err := s.instances.Update(ctx, updated); err != nil {
			return inconsistent(err, "update absences of instance %s", instanceID)
		}
		result = &AbsenceResult{Instance: updated}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Absence reported",
		zap.String("instance_id", instanceID),
		zap.String("teacher", teacherName),
		zap.String("requester", requester.Identity()),
		zap.Bool("already_reported", result.AlreadyReported),
	)
	return result, nil
}
