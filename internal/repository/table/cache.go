package table

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/lock"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache кэш снимков таблиц по имени; общий для всех обёрнутых таблиц.
// Под удерживаемой блокировкой (lock.Held) чтения идут мимо кэша.
type Cache struct {
	lru *expirable.LRU[string, Snapshot]

	mu          sync.Mutex
	generations map[string]uint64
}

// NewCache создаёт кэш на size таблиц со сроком жизни записи ttl
func NewCache(size int, ttl time.Duration) *Cache {
	return &Cache{
		lru:         expirable.NewLRU[string, Snapshot](size, nil, ttl),
		generations: make(map[string]uint64),
	}
}

// Wrap возвращает таблицу, читающую через кэш. Любая запись сбрасывает снимок.
func (c *Cache) Wrap(t Table) Table {
	return &cached{inner: t, cache: c}
}

func (c *Cache) generation(name string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[name]
}

// fill кладёт снимок, только если с начала чтения таблицу никто не менял
func (c *Cache) fill(name string, gen uint64, snap Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[name] != gen {
		return
	}
	c.lru.Add(name, snap)
}

func (c *Cache) invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[name]++
	c.lru.Remove(name)
}

type cached struct {
	inner Table
	cache *Cache
}

func (c *cached) Name() string { return c.inner.Name() }

func (c *cached) ReadAll(ctx context.Context) (Snapshot, error) {
	if lock.Held(ctx) {
		return c.inner.ReadAll(ctx)
	}

	name := c.inner.Name()
	if snap, ok := c.cache.lru.Get(name); ok {
		return snap.Clone(), nil
	}

	gen := c.cache.generation(name)
	snap, err := c.inner.ReadAll(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	c.cache.fill(name, gen, snap.Clone())
	return snap, nil
}

func (c *cached) Append(ctx context.Context, rows ...Row) error {
	defer c.invalidate()
	return c.inner.Append(ctx, rows...)
}

func (c *cached) Update(ctx context.Context, key string, row Row) error {
	defer c.invalidate()
	return c.inner.Update(ctx, key, row)
}

func (c *cached) Rewrite(ctx context.Context, rows []Row) error {
	defer c.invalidate()
	return c.inner.Rewrite(ctx, rows)
}

// Сбрасываем и при ошибке: запись могла примениться частично
func (c *cached) invalidate() {
	c.cache.invalidate(c.inner.Name())
}
