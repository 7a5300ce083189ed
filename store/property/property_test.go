package property

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/purselabs/purse/store/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsenart/nap"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *nap.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := nap.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.Migrate(conn.Master()))
	return conn
}

func TestSetGetRoundtrip(t *testing.T) {
	s := New(setupDB(t))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "flag", true))

	var flag bool
	require.NoError(t, s.Get(ctx, "flag", &flag))
	assert.True(t, flag)

	require.NoError(t, s.Set(ctx, "flag", false))
	require.NoError(t, s.Get(ctx, "flag", &flag))
	assert.False(t, flag)
}

func TestGetMissingLeavesValueUntouched(t *testing.T) {
	s := New(setupDB(t))

	value := 42
	require.NoError(t, s.Get(context.Background(), "absent", &value))
	assert.Equal(t, 42, value)
}
