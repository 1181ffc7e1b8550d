package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/Freeeeeet/school_scheduler/internal/repository/base"
	"github.com/Freeeeeet/school_scheduler/internal/repository/table"
)

// TemplatesTable имя таблицы шаблонов
const TemplatesTable = "base_templates"

// TemplateHeader порядок столбцов таблицы шаблонов
var TemplateHeader = []string{
	"template_id",
	"day_of_week",
	"start_time",
	"kind",
	"group",
	"default_discipline",
	"main_teachers",
}

type TemplateRepository struct {
	*base.Repository
}

func NewTemplateRepository(t table.Table) *TemplateRepository {
	return &TemplateRepository{Repository: base.NewRepository(t, TemplateHeader)}
}

// ReadAll читает шаблоны. Строки, не прошедшие проверку, возвращаются
// отдельно с номером строки и причиной; остальные шаблоны пригодны к генерации.
func (r *TemplateRepository) ReadAll(ctx context.Context) ([]model.BaseTemplate, []model.TemplateRejection, error) {
	rows, err := r.Rows(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read templates: %w", err)
	}

	var (
		templates []model.BaseTemplate
		rejected  []model.TemplateRejection
	)
	for i, row := range rows {
		tpl := decodeTemplate(row)
		if err := tpl.Validate(); err != nil {
			rejected = append(rejected, model.TemplateRejection{
				TemplateID: tpl.ID,
				Row:        i + base.FirstDataRow,
				Reason:     err.Error(),
			})
			continue
		}
		tpl.StartTime, _ = model.NormalizeStartTime(tpl.StartTime)
		templates = append(templates, tpl)
	}

	return templates, rejected, nil
}

// Count возвращает количество строк в таблице шаблонов
func (r *TemplateRepository) Count(ctx context.Context) (int, error) {
	rows, err := r.Rows(ctx)
	if err != nil {
		return 0, fmt.Errorf("count templates: %w", err)
	}
	return len(rows), nil
}

// Create дописывает шаблоны в таблицу
func (r *TemplateRepository) Create(ctx context.Context, templates ...model.BaseTemplate) error {
	rows := make([]table.Row, len(templates))
	for i, tpl := range templates {
		rows[i] = encodeTemplate(tpl)
	}

	if err := r.Table().Append(ctx, rows...); err != nil {
		return fmt.Errorf("create templates: %w", err)
	}

	return nil
}

// ImportCSV загружает шаблоны из CSV с заголовком TemplateHeader.
// Строки копируются как есть: проверка происходит при чтении.
func (r *TemplateRepository) ImportCSV(ctx context.Context, src io.Reader) (int, error) {
	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = len(TemplateHeader)

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if !slices.Equal(header, TemplateHeader) {
		return 0, fmt.Errorf("csv header %v does not match %v", header, TemplateHeader)
	}

	var rows []table.Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, table.Row(record))
	}

	if len(rows) == 0 {
		return 0, nil
	}
	if err := r.Table().Append(ctx, rows...); err != nil {
		return 0, fmt.Errorf("import templates: %w", err)
	}

	return len(rows), nil
}

func decodeTemplate(row table.Row) model.BaseTemplate {
	tpl := model.BaseTemplate{
		ID:                strings.TrimSpace(row[0]),
		StartTime:         strings.TrimSpace(row[2]),
		Group:             strings.TrimSpace(row[4]),
		DefaultDiscipline: strings.TrimSpace(row[5]),
		MainTeachers:      base.SplitList(row[6]),
	}

	// Некорректные день и тип оставляем невалидными, их отсеет Validate
	if day, err := model.ParseWeekday(row[1]); err == nil {
		tpl.DayOfWeek = day
	} else {
		tpl.DayOfWeek = -1
	}
	if kind, err := model.ParseSlotKind(row[3]); err == nil {
		tpl.Kind = kind
	} else {
		tpl.Kind = model.SlotKind(strings.TrimSpace(row[3]))
	}

	return tpl
}

func encodeTemplate(tpl model.BaseTemplate) table.Row {
	return table.Row{
		tpl.ID,
		tpl.DayOfWeek.String(),
		tpl.StartTime,
		string(tpl.Kind),
		tpl.Group,
		tpl.DefaultDiscipline,
		base.JoinList(tpl.MainTeachers),
	}
}
