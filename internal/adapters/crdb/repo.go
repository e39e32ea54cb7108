package crdb

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robertarktes/venue-sync/internal/domain"
)

const (
	SerializationFailureCode = "40001"
)

const schema = `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

// Repository is the shared store backend on CockroachDB (or Postgres). Each
// collection is one row of the kv table.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		err = tx.Commit(ctx)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == SerializationFailureCode {
			return domain.ErrSerializationFailure
		}
		return err
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT key, value FROM kv WHERE key = ANY($1)`, keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (r *Repository) CompareAndSwap(ctx context.Context, expect, writes map[string]string) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		for k, want := range expect {
			var got string
			err := tx.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1 FOR UPDATE`, k).Scan(&got)
			if err == pgx.ErrNoRows {
				got = ""
			} else if err != nil {
				return err
			}
			if got != want {
				return domain.ErrSerializationFailure
			}
		}
		for k, v := range writes {
			_, err := tx.Exec(ctx, `
				INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
				ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
			`, k, v)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
