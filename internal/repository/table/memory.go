package table

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Memory таблица в памяти процесса; для тестов и STORE_DRIVER=memory
type Memory struct {
	name   string
	header []string

	mu   sync.RWMutex
	rows []Row
}

// NewMemory создаёт пустую таблицу с заголовком
func NewMemory(name string, header []string) *Memory {
	return &Memory{name: name, header: slices.Clone(header)}
}

func (m *Memory) Name() string { return m.name }

func (m *Memory) ReadAll(ctx context.Context) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{Header: m.header, Rows: m.rows}
	return snap.Clone(), nil
}

func (m *Memory) Append(ctx context.Context, rows ...Row) error {
	if err := checkRows(m.name, m.header, rows); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	all := append(slices.Clone(m.rows), rows...)
	if err := checkUniqueKeys(m.name, all); err != nil {
		return err
	}
	for _, r := range rows {
		m.rows = append(m.rows, slices.Clone(r))
	}
	return nil
}

func (m *Memory) Update(ctx context.Context, key string, row Row) error {
	if err := checkRows(m.name, m.header, []Row{row}); err != nil {
		return err
	}
	if row.Key() != key {
		return fmt.Errorf("table %s: row key %q does not match %q", m.name, row.Key(), key)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.rows {
		if r.Key() == key {
			m.rows[i] = slices.Clone(row)
			return nil
		}
	}
	return fmt.Errorf("table %s: %w: %s", m.name, ErrRowNotFound, key)
}

func (m *Memory) Rewrite(ctx context.Context, rows []Row) error {
	if err := checkRows(m.name, m.header, rows); err != nil {
		return err
	}
	if err := checkUniqueKeys(m.name, rows); err != nil {
		return err
	}

	next := make([]Row, len(rows))
	for i, r := range rows {
		next[i] = slices.Clone(r)
	}

	m.mu.Lock()
	m.rows = next
	m.mu.Unlock()
	return nil
}
