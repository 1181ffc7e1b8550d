package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSerializesMutations(t *testing.T) {
	guard := NewLocal(5*time.Second, nil)

	var (
		active  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := guard.WithLock(context.Background(), "schedule", func(ctx context.Context) error {
				n := atomic.AddInt32(&active, 1)
				if n > atomic.LoadInt32(&maxSeen) {
					atomic.StoreInt32(&maxSeen, n)
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
}

func TestLocalTimesOut(t *testing.T) {
	var timeouts int32
	guard := NewLocal(20*time.Millisecond, func(name string, wait time.Duration, acquired bool) {
		if !acquired {
			atomic.AddInt32(&timeouts, 1)
		}
	})

	holding := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = guard.WithLock(context.Background(), "schedule", func(ctx context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	called := false
	err := guard.WithLock(context.Background(), "schedule", func(ctx context.Context) error {
		called = true
		return nil
	})
	close(release)

	require.Error(t, err)
	assert.True(t, apperr.Retryable(err))
	assert.False(t, called)
	assert.Equal(t, int32(1), atomic.LoadInt32(&timeouts))
}

func TestLocalNamesAreIndependent(t *testing.T) {
	guard := NewLocal(20*time.Millisecond, nil)

	err := guard.WithLock(context.Background(), "a", func(ctx context.Context) error {
		return guard.WithLock(ctx, "b", func(ctx context.Context) error { return nil })
	})
	assert.NoError(t, err)
}

func TestLocalReleasesOnError(t *testing.T) {
	guard := NewLocal(20*time.Millisecond, nil)
	boom := errors.New("boom")

	err := guard.WithLock(context.Background(), "schedule", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = guard.WithLock(context.Background(), "schedule", func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestAdvisoryKeyIsStable(t *testing.T) {
	assert.Equal(t, AdvisoryKey("schedule-mutations"), AdvisoryKey("schedule-mutations"))
	assert.NotEqual(t, AdvisoryKey("schedule-mutations"), AdvisoryKey("other"))
}

func TestLocalMarksContextAsHeld(t *testing.T) {
	guard := NewLocal(20*time.Millisecond, nil)
	ctx := context.Background()
	assert.False(t, Held(ctx))

	err := guard.WithLock(ctx, "schedule", func(ctx context.Context) error {
		assert.True(t, Held(ctx))
		return nil
	})
	require.NoError(t, err)
	assert.False(t, Held(ctx))
}
