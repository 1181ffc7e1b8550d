package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/repository/base"
	"github.com/Freeeeeet/school_scheduler/internal/repository/table"
)

// BookingsTable имя таблицы бронирований
const BookingsTable = "bookings"

// BookingHeader порядок столбцов таблицы бронирований
var BookingHeader = []string{
	"booking_id",
	"type",
	"instance_id",
	"real_teacher",
	"original_teacher",
	"students",
	"booked_group",
	"real_discipline",
	"effective_start",
	"status",
	"created_at",
	"created_by",
}

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(t table.Table) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(t, BookingHeader)}
}

// Create дописывает новое бронирование
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if err := r.Table().Append(ctx, encodeBooking(booking)); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID получает бронирование по ID; nil, если его нет
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	row, ok, err := r.FindRow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking by id: %w", err)
	}
	if !ok {
		return nil, nil
	}

	booking, err := decodeBooking(row)
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", id, err)
	}
	return booking, nil
}

// ReadAll читает все бронирования в порядке хранения
func (r *BookingRepository) ReadAll(ctx context.Context) ([]*model.Booking, error) {
	rows, err := r.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read bookings: %w", err)
	}

	bookings := make([]*model.Booking, 0, len(rows))
	for i, row := range rows {
		b, err := decodeBooking(row)
		if err != nil {
			return nil, fmt.Errorf("booking at row %d: %w", i+base.FirstDataRow, err)
		}
		bookings = append(bookings, b)
	}

	return bookings, nil
}

// UpdateStatus обновляет статус бронирования
func (r *BookingRepository) UpdateStatus(ctx context.Context, booking *model.Booking, status model.BookingStatus) error {
	updated := *booking
	updated.Status = status

	if err := r.Table().Update(ctx, booking.BookingID, encodeBooking(&updated)); err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}

	booking.Status = status
	return nil
}

func decodeBooking(row table.Row) (*model.Booking, error) {
	bookingType, err := model.ParseBookingType(row[1])
	if err != nil {
		return nil, err
	}
	status, err := model.ParseBookingStatus(row[9])
	if err != nil {
		return nil, err
	}
	effective, err := parseTimestamp(row[8])
	if err != nil {
		return nil, fmt.Errorf("parse effective start: %w", err)
	}
	created, err := parseTimestamp(row[10])
	if err != nil {
		return nil, fmt.Errorf("parse created at: %w", err)
	}

	return &model.Booking{
		BookingID:       row[0],
		Type:            bookingType,
		InstanceID:      strings.TrimSpace(row[2]),
		RealTeacher:     row[3],
		OriginalTeacher: row[4],
		Students:        row[5],
		BookedGroup:     row[6],
		RealDiscipline:  row[7],
		EffectiveStart:  effective,
		Status:          status,
		CreatedAt:       created,
		CreatedBy:       row[11],
	}, nil
}

func encodeBooking(b *model.Booking) table.Row {
	return table.Row{
		b.BookingID,
		string(b.Type),
		b.InstanceID,
		b.RealTeacher,
		b.OriginalTeacher,
		b.Students,
		b.BookedGroup,
		b.RealDiscipline,
		formatTimestamp(b.EffectiveStart),
		string(b.Status),
		formatTimestamp(b.CreatedAt),
		b.CreatedBy,
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
