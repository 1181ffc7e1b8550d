package table

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// SQLite таблица поверх sheet_headers/sheet_rows в SQLite; ячейки хранятся JSON-массивом
type SQLite struct {
	db     *sql.DB
	name   string
	header []string
}

// OpenSQLite регистрирует заголовок таблицы, если его ещё нет, и сверяет существующий
func OpenSQLite(ctx context.Context, db *sql.DB, name string, header []string) (*SQLite, error) {
	encoded, err := json.Marshal(header)
	if err != nil {
		return nil, fmt.Errorf("encode header %s: %w", name, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO sheet_headers (sheet, columns)
		VALUES (?, ?)
		ON CONFLICT (sheet) DO NOTHING
	`, name, string(encoded))
	if err != nil {
		return nil, fmt.Errorf("register header %s: %w", name, err)
	}

	var raw string
	if err := db.QueryRowContext(ctx, `SELECT columns FROM sheet_headers WHERE sheet = ?`, name).Scan(&raw); err != nil {
		return nil, fmt.Errorf("read header %s: %w", name, err)
	}

	var stored []string
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("decode header %s: %w", name, err)
	}
	if !slices.Equal(stored, header) {
		return nil, fmt.Errorf("table %s: stored header %v does not match %v", name, stored, header)
	}

	return &SQLite{db: db, name: name, header: slices.Clone(header)}, nil
}

func (s *SQLite) Name() string { return s.name }

func (s *SQLite) ReadAll(ctx context.Context) (Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cells
		FROM sheet_rows
		WHERE sheet = ?
		ORDER BY position
	`, s.name)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read table %s: %w", s.name, err)
	}
	defer rows.Close()

	snap := Snapshot{Header: slices.Clone(s.header)}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return Snapshot{}, fmt.Errorf("scan row: %w", err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return Snapshot{}, fmt.Errorf("decode row: %w", err)
		}
		snap.Rows = append(snap.Rows, Row(cells))
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("read table %s: %w", s.name, err)
	}

	return snap, nil
}

func (s *SQLite) Append(ctx context.Context, rows ...Row) error {
	if len(rows) == 0 {
		return nil
	}
	if err := checkRows(s.name, s.header, rows); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var last int64
		err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) FROM sheet_rows WHERE sheet = ?`, s.name).Scan(&last)
		if err != nil {
			return fmt.Errorf("read last position: %w", err)
		}
		return s.insertRows(ctx, tx, last, rows)
	})
}

func (s *SQLite) Update(ctx context.Context, key string, row Row) error {
	if err := checkRows(s.name, s.header, []Row{row}); err != nil {
		return err
	}
	if row.Key() != key {
		return fmt.Errorf("table %s: row key %q does not match %q", s.name, row.Key(), key)
	}

	encoded, err := json.Marshal([]string(row))
	if err != nil {
		return fmt.Errorf("encode row %s: %w", key, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE sheet_rows
		SET cells = ?
		WHERE sheet = ? AND row_key = ?
	`, string(encoded), s.name, key)
	if err != nil {
		return fmt.Errorf("update row %s: %w", key, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update row %s: %w", key, err)
	}
	if affected == 0 {
		return fmt.Errorf("table %s: %w: %s", s.name, ErrRowNotFound, key)
	}

	return nil
}

func (s *SQLite) Rewrite(ctx context.Context, rows []Row) error {
	if err := checkRows(s.name, s.header, rows); err != nil {
		return err
	}
	if err := checkUniqueKeys(s.name, rows); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sheet_rows WHERE sheet = ?`, s.name); err != nil {
			return fmt.Errorf("clear table %s: %w", s.name, err)
		}
		return s.insertRows(ctx, tx, 0, rows)
	})
}

func (s *SQLite) insertRows(ctx context.Context, tx *sql.Tx, after int64, rows []Row) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sheet_rows (sheet, position, row_key, cells)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		encoded, err := json.Marshal([]string(r))
		if err != nil {
			return fmt.Errorf("encode row %s: %w", r.Key(), err)
		}
		if _, err := stmt.ExecContext(ctx, s.name, after+int64(i)+1, r.Key(), string(encoded)); err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return fmt.Errorf("table %s: %w %q", s.name, ErrDuplicateKey, r.Key())
			}
			return fmt.Errorf("insert row %s: %w", r.Key(), err)
		}
	}

	return nil
}

func (s *SQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
