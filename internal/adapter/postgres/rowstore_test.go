package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"clientportal/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	d, err := Open(dsn)
	require.NoError(t, err)

	table := fmt.Sprintf("test_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = d.sql.Exec("DELETE FROM row_headers WHERE table_name=$1;", table)
		_ = d.Close()
	})
	return d, table
}

func TestRowStoreLifecycle(t *testing.T) {
	d, table := openTestDB(t)
	ctx := context.Background()

	rows, err := d.ReadAll(ctx, table)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, d.Append(ctx, table, domain.NewRecord().Set("client_id", "a").Set("email", "a@example.com")))
	require.NoError(t, d.Append(ctx, table, domain.NewRecord().Set("email", "b@example.com").Set("client_id", "b").Set("extra", "x")))
	require.NoError(t, d.Append(ctx, table, domain.NewRecord().Set("client_id", "c")))

	rows, err = d.ReadAll(ctx, table)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 2, rows[0].Position)
	assert.Equal(t, "b@example.com", rows[1].Get("email"))
	assert.Equal(t, "", rows[2].Get("email"))

	require.NoError(t, d.UpdateAt(ctx, table, rows[1].Ref(), domain.NewRecord().Set("client_id", "b2")))
	err = d.UpdateAt(ctx, table, rows[1].Ref(), domain.NewRecord().Set("client_id", "b3"))
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, d.DeleteAt(ctx, table, rows[0].Ref()))
	rows, err = d.ReadAll(ctx, table)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b2", rows[0].Get("client_id"))
	assert.Equal(t, "", rows[0].Get("email"))
	assert.Equal(t, 2, rows[0].Position)

	err = d.DeleteAt(ctx, table, domain.RowRef{Position: 10})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	err = d.DeleteAt(ctx, "missing_"+table, domain.RowRef{Position: 2})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
