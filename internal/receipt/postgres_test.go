//go:build integration

package receipt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visadirect-sdk-go/internal/database"
)

func TestPostgresStore_ConsumeOnce(t *testing.T) {
	db := database.SetupTestDB(t)
	defer db.Close()
	defer database.CleanupTestDB(t, db)

	s := NewPostgresStore(db.Pool())
	ctx := context.Background()

	consumed, err := s.ConsumeOnce(ctx, "aft", "pg-receipt-1")
	require.NoError(t, err)
	assert.True(t, consumed)

	consumed, err = s.ConsumeOnce(ctx, "aft", "pg-receipt-1")
	require.NoError(t, err)
	assert.False(t, consumed)
}
