package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKV(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "ohm.db")

	d, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	assert.Equal(t, path, d.Path())

	_, err = d.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, d.Set(ctx, "k", "v1"))
	require.NoError(t, d.Set(ctx, "k", "v2"))
	got, err := d.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", got)

	require.NoError(t, d.Delete(ctx, "k"))
	require.NoError(t, d.Delete(ctx, "k"))
	_, err = d.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ohm.db")

	d, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, d.Set(ctx, "board", "{}"))
	require.NoError(t, d.Close())

	d, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	got, err := d.Get(ctx, "board")
	require.NoError(t, err)
	assert.Equal(t, "{}", got)
}
