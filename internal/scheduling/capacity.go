// Package scheduling содержит чистые алгоритмы расписания: развёртывание шаблонов,
// переходы статуса занятости и отбор строк для уплотнения хранилища.
// Пакет не обращается к хранилищу и не берёт блокировок.
package scheduling

import (
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/model"
)

// KeyIndex множество ключей (templateId, date, startTime) существующих экземпляров
type KeyIndex map[model.InstanceKey]struct{}

// NewKeyIndex строит индекс по существующим экземплярам
func NewKeyIndex(instances []*model.ScheduleInstance) KeyIndex {
	idx := make(KeyIndex, len(instances))
	for _, inst := range instances {
		idx[inst.Key()] = struct{}{}
	}
	return idx
}

func (idx KeyIndex) Has(key model.InstanceKey) bool {
	_, ok := idx[key]
	return ok
}

func (idx KeyIndex) Add(key model.InstanceKey) {
	idx[key] = struct{}{}
}

// BucketKey корзина подсчёта ёмкости: дата и группа
type BucketKey struct {
	Date  string
	Group string
}

// CapacityCounter агрегат по корзине
type CapacityCounter struct {
	Fixed        int
	BookedVacant int
}

// Occupied возвращает занятую ёмкость корзины
func (c CapacityCounter) Occupied() int {
	return c.Fixed + c.BookedVacant
}

// CapacitySnapshot снимок счётчиков на начало прогона; внутри прогона не меняется
type CapacitySnapshot map[BucketKey]CapacityCounter

// BuildSnapshot считает Fixed и забронированные Vacant экземпляры начиная с onOrAfter
func BuildSnapshot(instances []*model.ScheduleInstance, onOrAfter time.Time) CapacitySnapshot {
	from := onOrAfter.Format(model.DateLayout)
	snap := make(CapacitySnapshot)
	for _, inst := range instances {
		date := inst.Date.Format(model.DateLayout)
		if date < from {
			continue
		}
		key := BucketKey{Date: date, Group: inst.Group}
		c := snap[key]
		switch {
		case inst.OriginalKind == model.SlotKindFixed:
			c.Fixed++
		case inst.OriginalKind == model.SlotKindVacant && inst.OccupancyStatus == model.OccupancyReplacementScheduled:
			c.BookedVacant++
		default:
			continue
		}
		snap[key] = c
	}
	return snap
}

// Get возвращает счётчик корзины (нулевой, если корзины нет)
func (s CapacitySnapshot) Get(date time.Time, group string) CapacityCounter {
	return s[BucketKey{Date: date.Format(model.DateLayout), Group: group}]
}

// AtCapacity проверяет, достигнут ли порог в корзине
func (s CapacitySnapshot) AtCapacity(key BucketKey, threshold int) bool {
	return s[key].Occupied() >= threshold
}
