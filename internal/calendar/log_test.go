package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLogUpsertKeepsRef(t *testing.T) {
	ctx := context.Background()
	cal := NewLog(zap.NewNop())
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	ref, err := cal.Upsert(ctx, "", Event{Title: "Math 7A", Start: start, End: start.Add(45 * time.Minute)})
	require.NoError(t, err)
	assert.NotEmpty(t, ref)

	again, err := cal.Upsert(ctx, ref, Event{Title: "Physics 7A", Start: start})
	require.NoError(t, err)
	assert.Equal(t, ref, again)

	e, ok := cal.Event(ref)
	require.True(t, ok)
	assert.Equal(t, "Physics 7A", e.Title)

	require.NoError(t, cal.Delete(ctx, ref))
	_, ok = cal.Event(ref)
	assert.False(t, ok)

	assert.NoError(t, cal.Delete(ctx, ""))
}
