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

// InstancesTable имя таблицы экземпляров
const InstancesTable = "schedule_instances"

// InstanceHeader порядок столбцов таблицы экземпляров
var InstanceHeader = []string{
	"instance_id",
	"template_id",
	"group",
	"main_teachers",
	"date",
	"day_of_week",
	"start_time",
	"original_kind",
	"occupancy_status",
	"booking_id",
	"external_event_ref",
	"absent_teachers",
}

type InstanceRepository struct {
	*base.Repository
	loc *time.Location
}

// NewInstanceRepository создаёт репозиторий; даты читаются в часовом поясе loc
func NewInstanceRepository(t table.Table, loc *time.Location) *InstanceRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &InstanceRepository{Repository: base.NewRepository(t, InstanceHeader), loc: loc}
}

// ReadAll читает все экземпляры в порядке хранения
func (r *InstanceRepository) ReadAll(ctx context.Context) ([]*model.ScheduleInstance, error) {
	rows, err := r.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("read instances: %w", err)
	}

	instances := make([]*model.ScheduleInstance, 0, len(rows))
	for i, row := range rows {
		inst, err := r.decode(row)
		if err != nil {
			return nil, fmt.Errorf("instance at row %d: %w", i+base.FirstDataRow, err)
		}
		instances = append(instances, inst)
	}

	return instances, nil
}

// GetByID получает экземпляр по ID; nil, если его нет
func (r *InstanceRepository) GetByID(ctx context.Context, id string) (*model.ScheduleInstance, error) {
	row, ok, err := r.FindRow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get instance by id: %w", err)
	}
	if !ok {
		return nil, nil
	}

	inst, err := r.decode(row)
	if err != nil {
		return nil, fmt.Errorf("instance %s: %w", id, err)
	}
	return inst, nil
}

// ListAvailable возвращает свободные экземпляры с датой не раньше from
func (r *InstanceRepository) ListAvailable(ctx context.Context, from time.Time) ([]*model.ScheduleInstance, error) {
	instances, err := r.ReadAll(ctx)
	if err != nil {
		return nil, err
	}

	limit := from.Format(model.DateLayout)
	var available []*model.ScheduleInstance
	for _, inst := range instances {
		if inst.OccupancyStatus != model.OccupancyAvailable {
			continue
		}
		if inst.Date.Format(model.DateLayout) < limit {
			continue
		}
		available = append(available, inst)
	}

	return available, nil
}

// Create дописывает экземпляры в конец таблицы
func (r *InstanceRepository) Create(ctx context.Context, instances ...*model.ScheduleInstance) error {
	if len(instances) == 0 {
		return nil
	}

	if err := r.Table().Append(ctx, encodeInstances(instances)...); err != nil {
		return fmt.Errorf("create instances: %w", err)
	}

	return nil
}

// Update перезаписывает строку экземпляра
func (r *InstanceRepository) Update(ctx context.Context, inst *model.ScheduleInstance) error {
	if err := r.Table().Update(ctx, inst.InstanceID, encodeInstance(inst)); err != nil {
		return fmt.Errorf("update instance %s: %w", inst.InstanceID, err)
	}

	return nil
}

// Rewrite заменяет содержимое таблицы на instances, заголовок сохраняется
func (r *InstanceRepository) Rewrite(ctx context.Context, instances []*model.ScheduleInstance) error {
	if err := r.Table().Rewrite(ctx, encodeInstances(instances)); err != nil {
		return fmt.Errorf("rewrite instances: %w", err)
	}

	return nil
}

func (r *InstanceRepository) decode(row table.Row) (*model.ScheduleInstance, error) {
	date, err := time.ParseInLocation(model.DateLayout, strings.TrimSpace(row[4]), r.loc)
	if err != nil {
		return nil, fmt.Errorf("parse date: %w", err)
	}
	day, err := model.ParseWeekday(row[5])
	if err != nil {
		return nil, err
	}
	start, err := model.NormalizeStartTime(row[6])
	if err != nil {
		return nil, err
	}
	kind, err := model.ParseSlotKind(row[7])
	if err != nil {
		return nil, err
	}
	status, err := model.ParseOccupancyStatus(row[8])
	if err != nil {
		return nil, err
	}

	return &model.ScheduleInstance{
		InstanceID:       row[0],
		TemplateID:       strings.TrimSpace(row[1]),
		Group:            strings.TrimSpace(row[2]),
		MainTeachers:     base.SplitList(row[3]),
		Date:             date,
		DayOfWeek:        day,
		StartTime:        start,
		OriginalKind:     kind,
		OccupancyStatus:  status,
		BookingID:        strings.TrimSpace(row[9]),
		ExternalEventRef: strings.TrimSpace(row[10]),
		AbsentTeachers:   base.SplitList(row[11]),
	}, nil
}

func encodeInstance(inst *model.ScheduleInstance) table.Row {
	return table.Row{
		inst.InstanceID,
		inst.TemplateID,
		inst.Group,
		base.JoinList(inst.MainTeachers),
		inst.Date.Format(model.DateLayout),
		inst.DayOfWeek.String(),
		inst.StartTime,
		string(inst.OriginalKind),
		string(inst.OccupancyStatus),
		inst.BookingID,
		inst.ExternalEventRef,
		base.JoinList(inst.AbsentTeachers),
	}
}

// Records кодирует экземпляры в строки таблицы, например для архива
func (r *InstanceRepository) Records(instances []*model.ScheduleInstance) [][]string {
	rows := encodeInstances(instances)
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out
}

func encodeInstances(instances []*model.ScheduleInstance) []table.Row {
	rows := make([]table.Row, len(instances))
	for i, inst := range instances {
		rows[i] = encodeInstance(inst)
	}
	return rows
}
