package table

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres таблица поверх sheet_headers/sheet_rows (см. миграции app/migrations/postgres)
type Postgres struct {
	pool   *pgxpool.Pool
	name   string
	header []string
}

// OpenPostgres регистрирует заголовок таблицы, если его ещё нет, и сверяет существующий
func OpenPostgres(ctx context.Context, pool *pgxpool.Pool, name string, header []string) (*Postgres, error) {
	_, err := pool.Exec(ctx, `
		INSERT INTO sheet_headers (sheet, columns)
		VALUES ($1, $2)
		ON CONFLICT (sheet) DO NOTHING
	`, name, header)
	if err != nil {
		return nil, fmt.Errorf("register header %s: %w", name, err)
	}

	var stored []string
	err = pool.QueryRow(ctx, `SELECT columns FROM sheet_headers WHERE sheet = $1`, name).Scan(&stored)
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", name, err)
	}
	if !slices.Equal(stored, header) {
		return nil, fmt.Errorf("table %s: stored header %v does not match %v", name, stored, header)
	}

	return &Postgres{pool: pool, name: name, header: slices.Clone(header)}, nil
}

func (p *Postgres) Name() string { return p.name }

func (p *Postgres) ReadAll(ctx context.Context) (Snapshot, error) {
	query := `
		SELECT cells
		FROM sheet_rows
		WHERE sheet = $1
		ORDER BY position
	`

	rows, err := p.pool.Query(ctx, query, p.name)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read table %s: %w", p.name, err)
	}
	defer rows.Close()

	snap := Snapshot{Header: slices.Clone(p.header)}
	for rows.Next() {
		var cells []string
		if err := rows.Scan(&cells); err != nil {
			return Snapshot{}, fmt.Errorf("scan row: %w", err)
		}
		snap.Rows = append(snap.Rows, Row(cells))
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("read table %s: %w", p.name, err)
	}

	return snap, nil
}

func (p *Postgres) Append(ctx context.Context, rows ...Row) error {
	if len(rows) == 0 {
		return nil
	}
	if err := checkRows(p.name, p.header, rows); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		// Заголовок служит замком таблицы на время вычисления позиций
		if _, err := tx.Exec(ctx, `SELECT 1 FROM sheet_headers WHERE sheet = $1 FOR UPDATE`, p.name); err != nil {
			return fmt.Errorf("lock table %s: %w", p.name, err)
		}

		var last int64
		err := tx.QueryRow(ctx, `SELECT COALESCE(MAX(position), 0) FROM sheet_rows WHERE sheet = $1`, p.name).Scan(&last)
		if err != nil {
			return fmt.Errorf("read last position: %w", err)
		}

		return p.copyRows(ctx, tx, last, rows)
	})
}

func (p *Postgres) Update(ctx context.Context, key string, row Row) error {
	if err := checkRows(p.name, p.header, []Row{row}); err != nil {
		return err
	}
	if row.Key() != key {
		return fmt.Errorf("table %s: row key %q does not match %q", p.name, row.Key(), key)
	}

	query := `
		UPDATE sheet_rows
		SET cells = $3
		WHERE sheet = $1 AND row_key = $2
	`

	result, err := p.pool.Exec(ctx, query, p.name, key, []string(row))
	if err != nil {
		return fmt.Errorf("update row %s: %w", key, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("table %s: %w: %s", p.name, ErrRowNotFound, key)
	}

	return nil
}

func (p *Postgres) Rewrite(ctx context.Context, rows []Row) error {
	if err := checkRows(p.name, p.header, rows); err != nil {
		return err
	}
	if err := checkUniqueKeys(p.name, rows); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT 1 FROM sheet_headers WHERE sheet = $1 FOR UPDATE`, p.name); err != nil {
			return fmt.Errorf("lock table %s: %w", p.name, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM sheet_rows WHERE sheet = $1`, p.name); err != nil {
			return fmt.Errorf("clear table %s: %w", p.name, err)
		}
		return p.copyRows(ctx, tx, 0, rows)
	})
}

func (p *Postgres) copyRows(ctx context.Context, tx pgx.Tx, after int64, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	data := make([][]any, len(rows))
	for i, r := range rows {
		data[i] = []any{p.name, after + int64(i) + 1, r.Key(), []string(r)}
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"sheet_rows"},
		[]string{"sheet", "position", "row_key", "cells"},
		pgx.CopyFromRows(data),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("table %s: %w: %s", p.name, ErrDuplicateKey, pgErr.Detail)
		}
		return fmt.Errorf("copy rows into %s: %w", p.name, err)
	}

	return nil
}
