// Package archive сохраняет строки, удаляемые при уплотнении таблиц.
package archive

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"
)

// Batch набор удаляемых строк одной таблицы
type Batch struct {
	Table  string
	Reason string // expired, excess_vacant
	At     time.Time
	Header []string
	Rows   [][]string
}

// Key путь объекта в архиве
func (b Batch) Key() string {
	return fmt.Sprintf("%s/%s/%s.csv", b.Table, b.Reason, b.At.UTC().Format("20060102T150405.000000000Z"))
}

// Encode сериализует пакет в CSV с заголовком
func (b Batch) Encode() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(b.Header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(b.Rows); err != nil {
		return nil, fmt.Errorf("write rows: %w", err)
	}
	return buf.Bytes(), nil
}

// Archiver хранилище архива
type Archiver interface {
	Archive(ctx context.Context, b Batch) error
}

// Nop архив отключён
type Nop struct{}

func (Nop) Archive(ctx context.Context, b Batch) error { return nil }
