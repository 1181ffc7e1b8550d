package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	err := Conflict("Replacement only allowed on Vacant slots")
	wrapped := fmt.Errorf("book: %w", err)

	assert.True(t, errors.Is(wrapped, ErrConflict))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.True(t, IsKind(wrapped, KindConflict))
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, "Replacement only allowed on Vacant slots", err.Error())
}

func TestInconsistentUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := Inconsistent(cause, "append booking %s", "b-1")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "append booking b-1: disk full", err.Error())
	assert.Equal(t, KindStoreInconsistency, KindOf(err))
}

func TestKindOfUntyped(t *testing.T) {
	assert.Equal(t, KindStoreInconsistency, KindOf(errors.New("boom")))
	assert.False(t, Retryable(errors.New("boom")))
	assert.True(t, Retryable(LockTimeout("schedule-mutations", nil)))
}
