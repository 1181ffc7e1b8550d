package service

import (
	"context"
	"testing"

	"github.com/Freeeeeet/school_scheduler/internal/apperr"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportAbsence(t *testing.T) {
	e := newEnv(t)
	e.addInstances(t, instance("f1", "A", day(3), model.SlotKindFixed, model.OccupancyAvailable, "Alice", "Carol"))

	res, err := e.absence.ReportAbsence(context.Background(), alice, "f1", "Alice")
	require.NoError(t, err)
	assert.False(t, res.AlreadyReported)
	assert.Equal(t, []string{"Alice"}, res.Instance.AbsentTeachers)

	res, err = e.absence.ReportAbsence(context.Background(), admin, "f1", "Alice")
	require.NoError(t, err)
	assert.True(t, res.AlreadyReported)

	stored := e.instance(t, "f1")
	assert.Equal(t, []string{"Alice"}, stored.AbsentTeachers)
	assert.Equal(t, model.OccupancyAvailable, stored.OccupancyStatus)
}

func TestReportAbsenceErrors(t *testing.T) {
	e := newEnv(t)
	e.addInstances(t,
		instance("f1", "A", day(3), model.SlotKindFixed, model.OccupancyAvailable, "Alice"),
		instance("v1", "A", day(3), model.SlotKindVacant, model.OccupancyAvailable),
		instance("past", "A", day(1).AddDate(0, 0, -5), model.SlotKindFixed, model.OccupancyAvailable, "Alice"),
	)

	tests := []struct {
		name       string
		requester  model.Requester
		instanceID string
		teacher    string
		kind       apperr.Kind
	}{
		{"empty instance", admin, "", "Alice", apperr.KindValidation},
		{"empty teacher", admin, "f1", "", apperr.KindValidation},
		{"someone else", bob, "f1", "Alice", apperr.KindForbidden},
		{"unknown instance", admin, "missing", "Alice", apperr.KindNotFound},
		{"vacant slot", admin, "v1", "Alice", apperr.KindConflict},
		{"past slot", admin, "past", "Alice", apperr.KindConflict},
		{"not a main teacher", bob, "f1", "Bob", apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.absence.ReportAbsence(context.Background(), tt.requester, tt.instanceID, tt.teacher)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err), err.Error())
		})
	}

	assert.Empty(t, e.instance(t, "f1").AbsentTeachers)
}
