package receipt

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore relies on the primary key (namespace, receipt_id) to make
// ON CONFLICT DO NOTHING the linearizability boundary, the same technique
// idempotency.PostgresStore uses.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) ConsumeOnce(ctx context.Context, namespace, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO consumed_receipts (namespace, receipt_id) VALUES ($1, $2)
		 ON CONFLICT (namespace, receipt_id) DO NOTHING`,
		namespace, id,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
