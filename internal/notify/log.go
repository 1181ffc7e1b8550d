package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Log пишет уведомления в лог вместо отправки
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, p Payload) error {
	l.logger.Info("Notification",
		zap.String("event", string(p.Event)),
		zap.String("booking_id", p.Booking.BookingID),
		zap.String("recipients", strings.Join(p.Recipients, ",")),
		zap.String("summary", p.Summary()),
	)
	return nil
}
