package service

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/apperr"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableInstancesFromToday(t *testing.T) {
	e := newEnv(t)
	e.addInstances(t,
		instance("yesterday", "A", time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), model.SlotKindVacant, model.OccupancyAvailable),
		instance("today", "A", day(1), model.SlotKindVacant, model.OccupancyAvailable),
		instance("booked", "A", day(3), model.SlotKindVacant, model.OccupancyReplacementScheduled),
		instance("fixed", "A", day(3), model.SlotKindFixed, model.OccupancyAvailable, "Alice"),
	)

	available, err := e.query.AvailableInstances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"today", "fixed"}, ids(available))
}

func TestTemplatesListing(t *testing.T) {
	e := newEnv(t)
	e.addTemplates(t,
		fixed("T1", time.Monday, "9:00", "A", "Alice"),
		vacant("V1", time.Friday, "11:00", "B"),
	)

	listing, err := e.query.Templates(context.Background())
	require.NoError(t, err)
	require.Len(t, listing.Templates, 2)
	assert.Equal(t, "09:00", listing.Templates[0].StartTime)
	assert.Empty(t, listing.Rejected)
}

func TestQueryBooking(t *testing.T) {
	e := newEnv(t)

	_, err := e.query.Booking(context.Background(), "")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = e.query.Booking(context.Background(), "missing")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
