package scheduling

import (
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/model"
)

// Compaction результат отбора строк для перезаписи хранилища.
// Kept сохраняет относительный порядок исходных строк.
type Compaction struct {
	Kept    []*model.ScheduleInstance
	Removed []*model.ScheduleInstance
}

// Changed сообщает, нужно ли перезаписывать хранилище
func (c Compaction) Changed() bool {
	return len(c.Removed) > 0
}

func partition(instances []*model.ScheduleInstance, drop func(*model.ScheduleInstance) bool) Compaction {
	c := Compaction{Kept: make([]*model.ScheduleInstance, 0, len(instances))}
	for _, inst := range instances {
		if drop(inst) {
			c.Removed = append(c.Removed, inst)
			continue
		}
		c.Kept = append(c.Kept, inst)
	}
	return c
}

// SelectExpired оставляет экземпляры с датой не раньше cutoff.
// Статус бронирования не учитывается: бронирование остаётся как история.
func SelectExpired(instances []*model.ScheduleInstance, cutoff time.Time) Compaction {
	limit := cutoff.Format(model.DateLayout)
	return partition(instances, func(inst *model.ScheduleInstance) bool {
		return inst.Date.Format(model.DateLayout) < limit
	})
}

// SelectExcessVacant помечает на удаление все свободные Vacant экземпляры в корзинах
// (дата, группа), где Fixed + забронированные Vacant достигли порога.
// Fixed и забронированные экземпляры не трогаются никогда.
func SelectExcessVacant(instances []*model.ScheduleInstance, threshold int, today time.Time) Compaction {
	snapshot := BuildSnapshot(instances, today)
	from := today.Format(model.DateLayout)
	return partition(instances, func(inst *model.ScheduleInstance) bool {
		if !inst.IsAvailableVacant() {
			return false
		}
		date := inst.Date.Format(model.DateLayout)
		if date < from {
			return false
		}
		return snapshot.AtCapacity(BucketKey{Date: date, Group: inst.Group}, threshold)
	})
}
