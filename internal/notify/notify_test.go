package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent []int64
	fail map[int64]bool
}

func (f *fakeSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	id := params.ChatID.(int64)
	if f.fail[id] {
		return nil, errors.New("blocked")
	}
	f.sent = append(f.sent, id)
	return &models.Message{}, nil
}

func TestRecipientsDeduplicates(t *testing.T) {
	assert.Equal(t,
		[]string{"Smirnov", "Ivanova", "Petrov"},
		Recipients("Smirnov", []string{"Ivanova", "Smirnov", "Petrov", ""}),
	)
	assert.Equal(t, []string{"Ivanova"}, Recipients("", []string{"Ivanova"}))
}

func TestTelegramSendsToKnownChats(t *testing.T) {
	sender := &fakeSender{fail: map[int64]bool{}}
	tg := newTelegram(sender, map[string]int64{"Ivanova": 1, "Smirnov": 2}, zap.NewNop())

	err := tg.Notify(context.Background(), payload("Smirnov", "Ivanova", "Unknown"))
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, sender.sent)
}

func TestTelegramAggregatesFailures(t *testing.T) {
	sender := &fakeSender{fail: map[int64]bool{1: true}}
	tg := newTelegram(sender, map[string]int64{"Ivanova": 1, "Smirnov": 2}, zap.NewNop())

	err := tg.Notify(context.Background(), payload("Smirnov", "Ivanova"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "Ivanova")
	assert.Equal(t, []int64{2}, sender.sent)
}

func payload(recipients ...string) Payload {
	return Payload{
		Event:      EventBooked,
		Recipients: recipients,
		Booking: model.Booking{
			BookingID:      "b1",
			Type:           model.BookingTypeSubstitution,
			RealTeacher:    "Smirnov",
			BookedGroup:    "7A",
			RealDiscipline: "Math",
		},
		Instance: model.ScheduleInstance{
			Date:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			StartTime: "09:00",
		},
	}
}
