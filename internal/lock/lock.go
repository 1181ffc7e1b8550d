// Package lock реализует именованную взаимоисключающую секцию с ограниченным ожиданием.
// Ей оборачивается каждая изменяющая операция расписания.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/apperr"
)

// Guard выполняет fn, удерживая именованную блокировку.
// Если блокировку не удалось взять за отведённое время, возвращается apperr.KindLockTimeout,
// а fn не вызывается.
type Guard interface {
	WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

type heldKey struct{}

// Held сообщает, что ctx передан внутрь WithLock. Чтения под блокировкой
// должны видеть текущее состояние хранилища, а не кэш.
func Held(ctx context.Context) bool {
	held, _ := ctx.Value(heldKey{}).(bool)
	return held
}

func withHeld(ctx context.Context) context.Context {
	return context.WithValue(ctx, heldKey{}, true)
}

// Observer получает время ожидания блокировки; используется для метрик
type Observer func(name string, wait time.Duration, acquired bool)

// Local блокировка в пределах процесса: по одному буферизованному каналу на имя
type Local struct {
	timeout  time.Duration
	observer Observer

	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocal создаёт локальную блокировку с ожиданием не дольше timeout
func NewLocal(timeout time.Duration, observer Observer) *Local {
	return &Local{
		timeout:  timeout,
		observer: observer,
		slots:    make(map[string]chan struct{}),
	}
}

func (l *Local) slot(name string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.slots[name]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[name] = ch
	}
	return ch
}

// WithLock реализует Guard
func (l *Local) WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ch := l.slot(name)
	started := time.Now()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
	case <-timer.C:
		l.observe(name, time.Since(started), false)
		return apperr.LockTimeout(name, nil)
	case <-ctx.Done():
		l.observe(name, time.Since(started), false)
		return apperr.LockTimeout(name, ctx.Err())
	}
	l.observe(name, time.Since(started), true)

	defer func() { <-ch }()
	return fn(withHeld(ctx))
}

func (l *Local) observe(name string, wait time.Duration, acquired bool) {
	if l.observer != nil {
		l.observer(name, wait, acquired)
	}
}
