package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/apperr"
	"github.com/Freeeeeet/school_scheduler/internal/archive"
	"github.com/Freeeeeet/school_scheduler/internal/calendar"
	"github.com/Freeeeeet/school_scheduler/internal/config"
	"github.com/Freeeeeet/school_scheduler/internal/lock"
	"github.com/Freeeeeet/school_scheduler/internal/metrics"
	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/notify"
	"github.com/Freeeeeet/school_scheduler/internal/repository"
	"github.com/Freeeeeet/school_scheduler/internal/repository/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Суббота: окно генерации начинается с понедельника 2024-06-03
var testNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

type fakeCalendar struct {
	mu      sync.Mutex
	upserts []calendar.Event
	deleted []string
	fail    bool
	seq     int
}

func (f *fakeCalendar) Upsert(ctx context.Context, ref string, event calendar.Event) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return "", errors.New("calendar unavailable")
	}
	f.upserts = append(f.upserts, event)
	if ref != "" {
		return ref, nil
	}
	f.seq++
	return fmt.Sprintf("event-%d", f.seq), nil
}

func (f *fakeCalendar) Delete(ctx context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("calendar unavailable")
	}
	f.deleted = append(f.deleted, ref)
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	payloads []notify.Payload
	fail     bool
}

func (f *fakeNotifier) Notify(ctx context.Context, p notify.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("telegram unavailable")
	}
	f.payloads = append(f.payloads, p)
	return nil
}

type fakeArchiver struct {
	batches []archive.Batch
	fail    bool
}

func (f *fakeArchiver) Archive(ctx context.Context, b archive.Batch) error {
	if f.fail {
		return errors.New("bucket unavailable")
	}
	f.batches = append(f.batches, b)
	return nil
}

// busyGuard имитирует блокировку, которую не удаётся получить
type busyGuard struct{}

func (busyGuard) WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return apperr.LockTimeout(name, context.DeadlineExceeded)
}

type env struct {
	cfg config.Scheduling

	templates *repository.TemplateRepository
	instances *repository.InstanceRepository
	bookings  *repository.BookingRepository

	calendar *fakeCalendar
	notifier *fakeNotifier
	archiver *fakeArchiver

	scheduling *SchedulingService
	cleanup    *CleanupService
	booking    *BookingService
	absence    *AbsenceService
	query      *QueryService
}

func newEnv(t *testing.T, opts ...func(*config.Scheduling)) *env {
	t.Helper()

	cfg := config.DefaultScheduling()
	cfg.WindowWeeks = 1
	cfg.LockTimeout = time.Second
	for _, opt := range opts {
		opt(&cfg)
	}

	return buildEnv(t, cfg, lock.NewLocal(cfg.LockTimeout, nil))
}

func buildEnv(t *testing.T, cfg config.Scheduling, guard lock.Guard) *env {
	t.Helper()
	return buildEnvOn(t, cfg, guard, func(tbl table.Table) table.Table { return tbl })
}

// newCachedEnv собирает окружение с таблицами за общим кэшем, как в рабочей сборке
func newCachedEnv(t *testing.T) *env {
	t.Helper()

	cfg := config.DefaultScheduling()
	cfg.WindowWeeks = 1
	cfg.LockTimeout = 5 * time.Second
	cache := table.NewCache(8, time.Minute)
	return buildEnvOn(t, cfg, lock.NewLocal(cfg.LockTimeout, nil), cache.Wrap)
}

func buildEnvOn(t *testing.T, cfg config.Scheduling, guard lock.Guard, wrap func(table.Table) table.Table) *env {
	t.Helper()

	now := func() time.Time { return testNow }
	logger := zap.NewNop()
	m := metrics.New(prometheus.NewRegistry())

	e := &env{
		cfg:       cfg,
		templates: repository.NewTemplateRepository(wrap(table.NewMemory(repository.TemplatesTable, repository.TemplateHeader))),
		instances: repository.NewInstanceRepository(wrap(table.NewMemory(repository.InstancesTable, repository.InstanceHeader)), cfg.Location),
		bookings:  repository.NewBookingRepository(wrap(table.NewMemory(repository.BookingsTable, repository.BookingHeader))),
		calendar:  &fakeCalendar{},
		notifier:  &fakeNotifier{},
		archiver:  &fakeArchiver{},
	}

	e.scheduling = NewSchedulingService(e.templates, e.instances, guard, m, cfg, now, logger)
	e.cleanup = NewCleanupService(e.instances, e.archiver, guard, m, cfg, now, logger)
	e.booking = NewBookingService(e.instances, e.bookings, guard, e.calendar, e.notifier, e.scheduling, e.cleanup, m, cfg, now, logger)
	e.absence = NewAbsenceService(e.instances, guard, cfg, now, logger)
	e.query = NewQueryService(e.templates, e.instances, e.bookings, cfg, now)
	return e
}

func (e *env) addTemplates(t *testing.T, templates ...model.BaseTemplate) {
	t.Helper()
	require.NoError(t, e.templates.Create(context.Background(), templates...))
}

func (e *env) addInstances(t *testing.T, instances ...*model.ScheduleInstance) {
	t.Helper()
	require.NoError(t, e.instances.Create(context.Background(), instances...))
}

func (e *env) instance(t *testing.T, id string) *model.ScheduleInstance {
	t.Helper()
	inst, err := e.instances.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, inst, "instance %s", id)
	return inst
}

func (e *env) allInstances(t *testing.T) []*model.ScheduleInstance {
	t.Helper()
	all, err := e.instances.ReadAll(context.Background())
	require.NoError(t, err)
	return all
}

func (e *env) findByTemplate(t *testing.T, templateID string) *model.ScheduleInstance {
	t.Helper()
	for _, inst := range e.allInstances(t) {
		if inst.TemplateID == templateID {
			return inst
		}
	}
	t.Fatalf("no instance for template %s", templateID)
	return nil
}

func fixed(id string, weekday time.Weekday, start, group string, teachers ...string) model.BaseTemplate {
	return model.BaseTemplate{
		ID:                id,
		DayOfWeek:         weekday,
		StartTime:         start,
		Kind:              model.SlotKindFixed,
		Group:             group,
		DefaultDiscipline: "Math",
		MainTeachers:      teachers,
	}
}

func vacant(id string, weekday time.Weekday, start, group string) model.BaseTemplate {
	return model.BaseTemplate{ID: id, DayOfWeek: weekday, StartTime: start, Kind: model.SlotKindVacant, Group: group}
}

func instance(id, group string, date time.Time, kind model.SlotKind, status model.OccupancyStatus, teachers ...string) *model.ScheduleInstance {
	return &model.ScheduleInstance{
		InstanceID:      id,
		TemplateID:      "tpl-" + id,
		Group:           group,
		MainTeachers:    teachers,
		Date:            date,
		DayOfWeek:       date.Weekday(),
		StartTime:       "09:00",
		OriginalKind:    kind,
		OccupancyStatus: status,
	}
}

var (
	admin = model.Requester{ID: "admin@school", Name: "Admin", Role: model.RoleAdmin}
	bob   = model.Requester{ID: "bob@school", Name: "Bob", Role: model.RoleTeacher}
	alice = model.Requester{ID: "alice@school", Name: "Alice", Role: model.RoleTeacher}
)
