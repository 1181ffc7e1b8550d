package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/apperr"
	"github.com/Freeeeeet/school_scheduler/internal/config"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(instances []*model.ScheduleInstance) []string {
	out := make([]string, 0, len(instances))
	for _, inst := range instances {
		out = append(out, inst.InstanceID)
	}
	return out
}

func TestPruneExcessVacantAtThreshold(t *testing.T) {
	e := newEnv(t)
	e.addInstances(t,
		instance("f1", "A", day(3), model.SlotKindFixed, model.OccupancyAvailable, "Alice"),
		instance("v1", "A", day(3), model.SlotKindVacant, model.OccupancyAvailable),
		instance("f2", "A", day(3), model.SlotKindFixed, model.OccupancySubstitutionScheduled, "Carol"),
		instance("v2", "A", day(3), model.SlotKindVacant, model.OccupancyReplacementScheduled),
		instance("v3", "B", day(3), model.SlotKindVacant, model.OccupancyAvailable),
	)

	report, err := e.cleanup.PruneExcessVacant(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, 4, report.Kept)
	assert.Equal(t, 3, report.Threshold)
	assert.Equal(t, []string{"v1"}, report.RemovedIDs)
	assert.Empty(t, report.Warnings)

	assert.Equal(t, []string{"f1", "f2", "v2", "v3"}, ids(e.allInstances(t)))

	require.Len(t, e.archiver.batches, 1)
	batch := e.archiver.batches[0]
	assert.Equal(t, repository.InstancesTable, batch.Table)
	assert.Equal(t, PruneReasonExcessVacant, batch.Reason)
	require.Len(t, batch.Rows, 1)
	assert.Equal(t, "v1", batch.Rows[0][0])
}

func TestPruneExcessVacantBelowThresholdKeepsEverything(t *testing.T) {
	e := newEnv(t)
	e.addInstances(t,
		instance("f1", "A", day(3), model.SlotKindFixed, model.OccupancyAvailable, "Alice"),
		instance("v1", "A", day(3), model.SlotKindVacant, model.OccupancyAvailable),
	)

	report, err := e.cleanup.PruneExcessVacant(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, report.Removed)
	assert.Equal(t, 2, report.Kept)
	assert.Empty(t, e.archiver.batches)
}

func TestPruneExcessVacantExplicitThreshold(t *testing.T) {
	e := newEnv(t)
	e.addInstances(t,
		instance("f1", "A", day(3), model.SlotKindFixed, model.OccupancyAvailable, "Alice"),
		instance("v1", "A", day(3), model.SlotKindVacant, model.OccupancyAvailable),
	)

	report, err := e.cleanup.PruneExcessVacant(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, report.RemovedIDs)
}

func TestPruneExpiredDefaultCutoff(t *testing.T) {
	e := newEnv(t, func(c *config.Scheduling) { c.RetentionDays = 7 })
	old := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	edge := time.Date(2024, 5, 25, 0, 0, 0, 0, time.UTC)
	e.addInstances(t,
		instance("old", "A", old, model.SlotKindFixed, model.OccupancySubstitutionScheduled, "Alice"),
		instance("edge", "A", edge, model.SlotKindVacant, model.OccupancyAvailable),
		instance("next", "A", day(3), model.SlotKindFixed, model.OccupancyAvailable, "Alice"),
	)

	report, err := e.cleanup.PruneExpired(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-25", report.Cutoff)
	assert.Equal(t, []string{"old"}, report.RemovedIDs)
	assert.Equal(t, []string{"edge", "next"}, ids(e.allInstances(t)))
}

func TestPruneExpiredExplicitCutoff(t *testing.T) {
	e := newEnv(t)
	e.addInstances(t,
		instance("a", "A", day(3), model.SlotKindFixed, model.OccupancyAvailable, "Alice"),
		instance("b", "A", day(4), model.SlotKindFixed, model.OccupancyAvailable, "Alice"),
	)

	report, err := e.cleanup.PruneExpired(context.Background(), day(4).Add(15*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "2024-06-04", report.Cutoff)
	assert.Equal(t, []string{"a"}, report.RemovedIDs)
}

func TestPruneArchiveFailureIsWarning(t *testing.T) {
	e := newEnv(t)
	e.archiver.fail = true
	e.addInstances(t,
		instance("old", "A", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), model.SlotKindFixed, model.OccupancyAvailable, "Alice"),
	)

	report, err := e.cleanup.PruneExpired(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Removed)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "archive")
	assert.Empty(t, e.allInstances(t))
}

func TestPruneLockTimeout(t *testing.T) {
	e := buildEnv(t, config.DefaultScheduling(), busyGuard{})
	e.addInstances(t,
		instance("old", "A", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), model.SlotKindFixed, model.OccupancyAvailable, "Alice"),
	)

	_, err := e.cleanup.PruneExpired(context.Background(), time.Time{})
	assert.True(t, apperr.IsKind(err, apperr.KindLockTimeout))
	assert.Len(t, e.allInstances(t), 1)
}
