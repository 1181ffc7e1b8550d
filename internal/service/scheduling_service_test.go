package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/apperr"
	"github.com/Freeeeeet/school_scheduler/internal/config"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSingleFixedTemplate(t *testing.T) {
	e := newEnv(t)
	e.addTemplates(t, fixed("T1", time.Monday, "09:00", "A", "Alice"))

	report, err := e.scheduling.GenerateInstances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, "2024-06-03", report.WindowStart)
	assert.Equal(t, "2024-06-09", report.WindowEnd)

	all := e.allInstances(t)
	require.Len(t, all, 1)
	inst := all[0]
	assert.Equal(t, "T1", inst.TemplateID)
	assert.Equal(t, "2024-06-03", inst.Date.Format(model.DateLayout))
	assert.Equal(t, "09:00", inst.StartTime)
	assert.Equal(t, model.OccupancyAvailable, inst.OccupancyStatus)
	assert.Equal(t, []string{"Alice"}, inst.MainTeachers)
	assert.Empty(t, inst.BookingID)
}

func TestGenerateIsIdempotentThroughStore(t *testing.T) {
	e := newEnv(t, func(c *config.Scheduling) { c.WindowWeeks = 2 })
	e.addTemplates(t,
		fixed("T1", time.Monday, "09:00", "A", "Alice"),
		fixed("T2", time.Wednesday, "10:00", "B", "Carol"),
		vacant("V1", time.Friday, "11:00", "A"),
	)

	first, err := e.scheduling.GenerateInstances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, first.Created)

	second, err := e.scheduling.GenerateInstances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)

	seen := make(map[model.InstanceKey]bool)
	for _, inst := range e.allInstances(t) {
		assert.False(t, seen[inst.Key()], "duplicate key %v", inst.Key())
		seen[inst.Key()] = true
	}
	assert.Len(t, seen, 6)
}

func TestGenerateReportsRejectedRows(t *testing.T) {
	e := newEnv(t)
	e.addTemplates(t,
		fixed("T1", time.Monday, "09:00", "A", "Alice"),
		fixed("T2", time.Tuesday, "09:00", "A"),
	)

	report, err := e.scheduling.GenerateInstances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, "T2", report.Rejected[0].TemplateID)
	assert.Equal(t, 3, report.Rejected[0].Row)
}

func TestGenerateThrottlesVacantByExistingCapacity(t *testing.T) {
	e := newEnv(t, func(c *config.Scheduling) { c.VacantThreshold = 2 })
	e.addTemplates(t, vacant("V1", time.Monday, "12:00", "A"))
	e.addInstances(t,
		instance("f1", "A", day(3), model.SlotKindFixed, model.OccupancyAvailable, "Alice"),
		instance("r1", "A", day(3), model.SlotKindVacant, model.OccupancyReplacementScheduled),
	)

	report, err := e.scheduling.GenerateInstances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 1, report.Throttled)
}

func TestGenerateLockTimeout(t *testing.T) {
	e := buildEnv(t, config.DefaultScheduling(), busyGuard{})
	e.addTemplates(t, fixed("T1", time.Monday, "09:00", "A", "Alice"))

	_, err := e.scheduling.GenerateInstances(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Retryable(err))
	assert.Empty(t, e.allInstances(t))
}

func TestSeedTemplatesOnlyIntoEmptyTable(t *testing.T) {
	e := newEnv(t)
	csv := "template_id,day_of_week,start_time,kind,group,default_discipline,main_teachers\n" +
		"T1,Monday,09:00,Fixed,A,Math,Alice\n"

	n, err := e.scheduling.SeedTemplates(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = e.scheduling.SeedTemplates(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	listing, err := e.query.Templates(context.Background())
	require.NoError(t, err)
	assert.Len(t, listing.Templates, 1)
}
