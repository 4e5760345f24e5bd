package repository

import (
	"context"
	"testing"

	"github.com/reflectlab/unmask/internal/db"
	"github.com/reflectlab/unmask/internal/exercise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both stores must satisfy the controller's contract.
var (
	_ exercise.SnapshotStore = (*SQLiteSnapshotRepo)(nil)
	_ exercise.SnapshotStore = (*RedisSnapshotStore)(nil)
)

func newSQLiteRepo(t *testing.T) *SQLiteSnapshotRepo {
	t.Helper()
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewSQLiteSnapshotRepo(conn)
}

func TestSQLite_LoadMissingReturnsNil(t *testing.T) {
	repo := newSQLiteRepo(t)

	raw, err := repo.Load(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestSQLite_SaveLoadDelete(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "s1", []byte(`{"stepIndex":2}`)))

	raw, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"stepIndex":2}`, string(raw))

	// Save overwrites.
	require.NoError(t, repo.Save(ctx, "s1", []byte(`{"stepIndex":3}`)))
	raw, err = repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"stepIndex":3}`, string(raw))

	require.NoError(t, repo.Delete(ctx, "s1"))
	raw, err = repo.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestSQLite_SessionsAreIndependent(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "a", []byte(`{"stepIndex":1}`)))
	require.NoError(t, repo.Save(ctx, "b", []byte(`{"stepIndex":4}`)))
	require.NoError(t, repo.Delete(ctx, "a"))

	raw, err := repo.Load(ctx, "b")
	require.NoError(t, err)
	assert.JSONEq(t, `{"stepIndex":4}`, string(raw))
}

func TestSQLite_DeleteMissingIsNoError(t *testing.T) {
	repo := newSQLiteRepo(t)
	assert.NoError(t, repo.Delete(context.Background(), "absent"))
}
