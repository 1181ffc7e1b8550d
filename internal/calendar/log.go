package calendar

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Log календарь, который только пишет события в лог и хранит их в памяти.
// Используется, пока интеграция с внешним календарём не настроена.
type Log struct {
	logger *zap.Logger

	mu     sync.Mutex
	events map[string]Event
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger, events: make(map[string]Event)}
}

func (l *Log) Upsert(ctx context.Context, ref string, event Event) (string, error) {
	if ref == "" {
		ref = uuid.NewString()
	}

	l.mu.Lock()
	l.events[ref] = event
	l.mu.Unlock()

	l.logger.Info("Calendar event upserted",
		zap.String("ref", ref),
		zap.String("title", event.Title),
		zap.Time("start", event.Start),
		zap.Time("end", event.End),
		zap.String("guests", strings.Join(event.Guests, ",")),
	)
	return ref, nil
}

func (l *Log) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}

	l.mu.Lock()
	delete(l.events, ref)
	l.mu.Unlock()

	l.logger.Info("Calendar event deleted", zap.String("ref", ref))
	return nil
}

// Event возвращает сохранённое событие
func (l *Log) Event(ref string) (Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.events[ref]
	return e, ok
}
