package scheduling

import (
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/model"
	"github.com/google/uuid"
)

// WindowStart возвращает ближайший понедельник (сегодня, если сегодня понедельник)
func WindowStart(today time.Time) time.Time {
	day := model.DayStart(today, today.Location())
	offset := (int(time.Monday) - int(day.Weekday()) + 7) % 7
	return day.AddDate(0, 0, offset)
}

// GenerateParams входные данные одного прогона генерации
type GenerateParams struct {
	Templates   []model.BaseTemplate
	Existing    []*model.ScheduleInstance
	WindowStart time.Time
	WindowWeeks int
	Threshold   int
	// Today граница снимка ёмкости; экземпляры раньше этой даты не учитываются
	Today time.Time
	// NewID генератор идентификаторов экземпляров, по умолчанию uuid
	NewID func() string
}

// GenerateResult итог прогона
type GenerateResult struct {
	Created   []*model.ScheduleInstance
	Throttled int // Vacant экземпляры, пропущенные из-за порога
	Rejected  []model.TemplateRejection
}

// Generate разворачивает шаблоны в экземпляры на окно из WindowWeeks недель.
//
// Повторный запуск с теми же шаблонами и результатом предыдущего прогона в Existing
// не создаёт ни одного экземпляра. Решения о Vacant слотах принимаются по снимку
// ёмкости на начало прогона: экземпляры, созданные в этом прогоне, снимок не меняют.
func Generate(p GenerateParams) GenerateResult {
	newID := p.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}

	var res GenerateResult
	valid := make([]model.BaseTemplate, 0, len(p.Templates))
	for _, tpl := range p.Templates {
		if err := tpl.Validate(); err != nil {
			res.Rejected = append(res.Rejected, model.TemplateRejection{TemplateID: tpl.ID, Reason: err.Error()})
			continue
		}
		tpl.StartTime, _ = model.NormalizeStartTime(tpl.StartTime)
		valid = append(valid, tpl)
	}

	index := NewKeyIndex(p.Existing)
	snapshot := BuildSnapshot(p.Existing, p.Today)

	start := model.DayStart(p.WindowStart, p.WindowStart.Location())
	days := p.WindowWeeks * 7
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		for _, tpl := range valid {
			if tpl.DayOfWeek != date.Weekday() {
				continue
			}
			key := model.InstanceKey{
				TemplateID: tpl.ID,
				Date:       date.Format(model.DateLayout),
				StartTime:  tpl.StartTime,
			}
			if index.Has(key) {
				continue
			}
			if tpl.Kind == model.SlotKindVacant &&
				snapshot.AtCapacity(BucketKey{Date: key.Date, Group: tpl.Group}, p.Threshold) {
				res.Throttled++
				continue
			}
			res.Created = append(res.Created, newInstance(newID(), tpl, date))
			index.Add(key)
		}
	}

	return res
}

func newInstance(id string, tpl model.BaseTemplate, date time.Time) *model.ScheduleInstance {
	teachers := make([]string, len(tpl.MainTeachers))
	copy(teachers, tpl.MainTeachers)
	return &model.ScheduleInstance{
		InstanceID:      id,
		TemplateID:      tpl.ID,
		Group:           tpl.Group,
		MainTeachers:    teachers,
		Date:            date,
		DayOfWeek:       date.Weekday(),
		StartTime:       tpl.StartTime,
		OriginalKind:    tpl.Kind,
		OccupancyStatus: model.OccupancyAvailable,
	}
}
