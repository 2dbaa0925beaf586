package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore backs idempotency with a plain table and ON CONFLICT DO
// NOTHING, the same conditional-insert idea the gift-card repository used
// for unique redemption codes, generalized to "first writer wins" instead
// of "reject duplicates". A conflicting row that has already expired is
// replaced.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT value, expires_at FROM idempotency_records WHERE key = $1`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if time.Now().After(expiresAt) {
		return nil, false, nil
	}
	return value, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, []byte, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO idempotency_records (key, value, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO NOTHING`,
		key, value, time.Now().Add(ttl),
	)
	if err != nil {
		return false, nil, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil, nil
	}

	existing, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, nil, err
	}
	if !ok {
		now := time.Now()
		tag, err = s.pool.Exec(ctx,
			`UPDATE idempotency_records SET value = $2, expires_at = $3
			 WHERE key = $1 AND expires_at < $4`,
			key, value, now.Add(ttl), now,
		)
		if err != nil {
			return false, nil, err
		}
		return tag.RowsAffected() == 1, nil, nil
	}
	return false, existing, nil
}
