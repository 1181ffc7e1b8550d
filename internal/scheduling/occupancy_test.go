package scheduling

import (
	"testing"

	"github.com/Freeeeeet/school_scheduler/internal/apperr"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	const (
		fixed  = model.SlotKindFixed
		vacant = model.SlotKindVacant

		available    = model.OccupancyAvailable
		replaced     = model.OccupancyReplacementScheduled
		substituted  = model.OccupancySubstitutionScheduled
		replacement  = EventReplacementBooked
		substitution = EventSubstitutionBooked
		cancel       = EventBookingCancelled
	)

	tests := []struct {
		name    string
		kind    model.SlotKind
		current model.OccupancyStatus
		event   Event
		want    model.OccupancyStatus
		rule    string
	}{
		{"replacement on vacant", vacant, available, replacement, replaced, ""},
		{"substitution on fixed", fixed, available, substitution, substituted, ""},
		{"substitution over substitution", fixed, substituted, substitution, substituted, ""},
		{"cancel replacement", vacant, replaced, cancel, available, ""},
		{"cancel substitution", fixed, substituted, cancel, available, ""},

		{"replacement on fixed", fixed, available, replacement, "", RuleReplacementVacantOnly},
		{"replacement on substituted fixed", fixed, substituted, replacement, "", RuleReplacementVacantOnly},
		{"replacement twice", vacant, replaced, replacement, "", RuleReplacementAlreadyBooked},
		{"substitution on vacant", vacant, available, substitution, "", RuleSubstitutionFixedOnly},
		{"substitution over replacement", vacant, replaced, substitution, "", RuleSubstitutionOverReplaced},
		{"cancel available", fixed, available, cancel, "", RuleNothingToCancel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextStatus(tt.kind, tt.current, tt.event)
			if tt.rule == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrConflict)
			assert.Contains(t, err.Error(), tt.rule)
		})
	}
}

func TestEventForBooking(t *testing.T) {
	assert.Equal(t, EventReplacementBooked, EventForBooking(model.BookingTypeReplacement))
	assert.Equal(t, EventSubstitutionBooked, EventForBooking(model.BookingTypeSubstitution))
}
