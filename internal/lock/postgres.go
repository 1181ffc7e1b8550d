package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/school_scheduler/internal/apperr"
	"github.com/cespare/xxhash/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

var errNotAcquired = errors.New("advisory lock is held by another session")

// Postgres блокировка между процессами на advisory lock PostgreSQL.
// Ключ это xxhash имени; блокировка живёт на выделенном соединении из пула.
type Postgres struct {
	pool     *pgxpool.Pool
	timeout  time.Duration
	poll     time.Duration
	observer Observer
	logger   *zap.Logger
}

// NewPostgres создаёт блокировку поверх пула соединений
func NewPostgres(pool *pgxpool.Pool, timeout time.Duration, observer Observer, logger *zap.Logger) *Postgres {
	return &Postgres{
		pool:     pool,
		timeout:  timeout,
		poll:     200 * time.Millisecond,
		observer: observer,
		logger:   logger,
	}
}

// AdvisoryKey возвращает ключ advisory lock для имени
func AdvisoryKey(name string) int64 {
	return int64(xxhash.Sum64String(name))
}

// WithLock реализует Guard
func (p *Postgres) WithLock(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	started := time.Now()
	key := AdvisoryKey(name)

	waitCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.pool.Acquire(waitCtx)
	if err != nil {
		p.observe(name, time.Since(started), false)
		return apperr.LockTimeout(name, fmt.Errorf("acquire connection: %w", err))
	}
	defer conn.Release()

	backoff := retry.WithMaxDuration(p.timeout, retry.NewConstant(p.poll))
	err = retry.Do(waitCtx, backoff, func(ctx context.Context) error {
		var ok bool
		if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&ok); err != nil {
			return fmt.Errorf("try advisory lock: %w", err)
		}
		if !ok {
			return retry.RetryableError(errNotAcquired)
		}
		return nil
	})
	if err != nil {
		p.observe(name, time.Since(started), false)
		return apperr.LockTimeout(name, err)
	}
	p.observe(name, time.Since(started), true)

	defer func() {
		// Снимаем блокировку даже если ctx запроса уже отменён
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(unlockCtx, `SELECT pg_advisory_unlock($1)`, key); err != nil {
			p.logger.Error("Failed to release advisory lock, closing session",
				zap.String("lock", name),
				zap.Error(err),
			)
			// Сессия с неснятой блокировкой не должна вернуться в пул
			_ = conn.Hijack().Close(unlockCtx)
		}
	}()

	return fn(withHeld(ctx))
}

func (p *Postgres) observe(name string, wait time.Duration, acquired bool) {
	if p.observer != nil {
		p.observer(name, wait, acquired)
	}
}
