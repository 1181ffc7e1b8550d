// Package table описывает построчное хранилище со схемой по позиции столбца:
// заголовок плюс упорядоченные строки. Первый столбец строки является её ключом.
package table

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Row строка таблицы; значения по позициям заголовка
type Row []string

// Key возвращает ключ строки (первый столбец)
func (r Row) Key() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

// Snapshot содержимое таблицы на момент чтения
type Snapshot struct {
	Header []string
	Rows   []Row
}

// Clone возвращает глубокую копию снимка
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Header: slices.Clone(s.Header), Rows: make([]Row, len(s.Rows))}
	for i, r := range s.Rows {
		out.Rows[i] = slices.Clone(r)
	}
	return out
}

var (
	ErrRowNotFound  = errors.New("table: row not found")
	ErrDuplicateKey = errors.New("table: duplicate row key")
)

// Table операции построчного хранилища
type Table interface {
	Name() string
	// ReadAll читает заголовок и все строки в порядке хранения
	ReadAll(ctx context.Context) (Snapshot, error)
	// Append дописывает строки в конец
	Append(ctx context.Context, rows ...Row) error
	// Update заменяет строку с ключом key
	Update(ctx context.Context, key string, row Row) error
	// Rewrite заменяет все строки, сохраняя заголовок; используется для уплотнения
	Rewrite(ctx context.Context, rows []Row) error
}

func checkRows(name string, header []string, rows []Row) error {
	for _, r := range rows {
		if len(r) != len(header) {
			return fmt.Errorf("table %s: row %q has %d cells, header has %d", name, r.Key(), len(r), len(header))
		}
		if r.Key() == "" {
			return fmt.Errorf("table %s: row without key", name)
		}
	}
	return nil
}

func checkUniqueKeys(name string, rows []Row) error {
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.Key()]; ok {
			return fmt.Errorf("table %s: %w %q", name, ErrDuplicateKey, r.Key())
		}
		seen[r.Key()] = struct{}{}
	}
	return nil
}
