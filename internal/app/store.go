package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Freeeeeet/school_scheduler/internal/config"
	"github.com/Freeeeeet/school_scheduler/internal/repository"
	"github.com/Freeeeeet/school_scheduler/internal/repository/table"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store таблицы хранилища выбранного драйвера
type Store struct {
	Templates table.Table
	Instances table.Table
	Bookings  table.Table

	// Pool заполнен только для драйвера postgres
	Pool *pgxpool.Pool

	db *sql.DB
}

// OpenStore открывает хранилище, применяет миграции и оборачивает SQL таблицы кешем чтения
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("Using in-memory store, data is lost on restart")
		return &Store{
			Templates: table.NewMemory(repository.TemplatesTable, repository.TemplateHeader),
			Instances: table.NewMemory(repository.InstancesTable, repository.InstanceHeader),
			Bookings:  table.NewMemory(repository.BookingsTable, repository.BookingHeader),
		}, nil
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	case config.DriverSQLite:
		return openSQLite(ctx, cfg, logger)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (s *Store, err error) {
	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	s = &Store{Pool: pool}
	defer func() {
		if err != nil {
			pool.Close()
		}
	}()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Connected to PostgreSQL")

	migrator, err := NewPostgresMigrator(pool, logger)
	if err != nil {
		return nil, err
	}
	err = multierr.Append(migrator.Run(ctx), migrator.Close())
	if err != nil {
		return nil, err
	}

	open := func(name string, header []string) (table.Table, error) {
		return table.OpenPostgres(ctx, pool, name, header)
	}
	if err := s.openTables(cfg, open); err != nil {
		return nil, err
	}
	return s, nil
}

func openSQLite(ctx context.Context, cfg *config.Config, logger *zap.Logger) (s *Store, err error) {
	db, err := sql.Open("sqlite", cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
	}
	// sqlite допускает одного писателя
	db.SetMaxOpenConns(1)
	s = &Store{db: db}
	defer func() {
		if err != nil {
			_ = db.Close()
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	logger.Info("Opened SQLite store", zap.String("path", cfg.SQLitePath))

	migrator, err := NewSQLiteMigrator(db, logger)
	if err != nil {
		return nil, err
	}
	if err := migrator.Run(ctx); err != nil {
		return nil, err
	}

	open := func(name string, header []string) (table.Table, error) {
		return table.OpenSQLite(ctx, db, name, header)
	}
	if err := s.openTables(cfg, open); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) openTables(cfg *config.Config, open func(name string, header []string) (table.Table, error)) error {
	cache := table.NewCache(8, cfg.Scheduling.CacheTTL)

	var err error
	if s.Templates, err = open(repository.TemplatesTable, repository.TemplateHeader); err != nil {
		return err
	}
	if s.Instances, err = open(repository.InstancesTable, repository.InstanceHeader); err != nil {
		return err
	}
	if s.Bookings, err = open(repository.BookingsTable, repository.BookingHeader); err != nil {
		return err
	}

	s.Templates = cache.Wrap(s.Templates)
	s.Instances = cache.Wrap(s.Instances)
	s.Bookings = cache.Wrap(s.Bookings)
	return nil
}

// Close закрывает соединения хранилища
func (s *Store) Close() error {
	var err error
	if s.Pool != nil {
		s.Pool.Close()
	}
	if s.db != nil {
		err = multierr.Append(err, s.db.Close())
	}
	return err
}
