package storage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	ctx := context.Background()
	store, err := Open(ctx, DriverPostgres, dsn, quietLogger())
	require.NoError(t, err)
	defer store.Close()

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	user, err := Create(ctx, store.Gateway, Users, map[string]any{"name": "pg-" + suffix, "display_name": "PG"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	_, err = Create(ctx, store.Gateway, Users, map[string]any{"name": "pg-" + suffix, "display_name": "PG"})
	assert.ErrorIs(t, err, ErrUniqueViolation)

	affected, err := Update(ctx, store.Gateway, Users, Eq("id", user.ID), map[string]any{"display_name": "Postgres"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)
}
