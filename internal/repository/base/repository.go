package base

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/school_scheduler/internal/repository/table"
)

// FirstDataRow номер первой строки данных: строка 1 занята заголовком
const FirstDataRow = 2

// ListSeparator разделитель списков внутри ячейки ("Ivanova;Petrov")
const ListSeparator = ";"

// Repository базовый репозиторий с общими методами поверх таблицы
type Repository struct {
	table  table.Table
	header []string
}

// NewRepository создаёт новый базовый репозиторий
func NewRepository(t table.Table, header []string) *Repository {
	return &Repository{table: t, header: header}
}

// Table возвращает таблицу
func (r *Repository) Table() table.Table {
	return r.table
}

// Header возвращает ожидаемый заголовок таблицы
func (r *Repository) Header() []string {
	return r.header
}

// Rows читает все строки и сверяет ширину с заголовком
func (r *Repository) Rows(ctx context.Context) ([]table.Row, error) {
	snap, err := r.table.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.table.Name(), err)
	}
	if len(snap.Header) != len(r.header) {
		return nil, fmt.Errorf("table %s: header has %d columns, want %d", r.table.Name(), len(snap.Header), len(r.header))
	}
	return snap.Rows, nil
}

// FindRow ищет строку по ключу; ok=false, если строки нет
func (r *Repository) FindRow(ctx context.Context, key string) (table.Row, bool, error) {
	rows, err := r.Rows(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, row := range rows {
		if row.Key() == key {
			return row, true, nil
		}
	}
	return nil, false, nil
}

// JoinList упаковывает список в ячейку
func JoinList(items []string) string {
	return strings.Join(items, ListSeparator)
}

// SplitList распаковывает список из ячейки, пропуская пустые элементы
func SplitList(cell string) []string {
	var out []string
	for _, item := range strings.Split(cell, ListSeparator) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
