package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("hello")
	require.NoError(t, store.Put(ctx, "v1/b", data))
	require.NoError(t, store.Put(ctx, "v1/a", []byte("x")))
	data[0] = 'j' // Put keeps a copy

	got, err := store.Get(ctx, "v1/b")
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
	got[0] = 'y' // Get returns a copy

	got, err = store.Get(ctx, "v1/b")
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))

	names, err := store.List(ctx, "v1/")
	require.NoError(t, err)
	require.Equal(t, []string{"v1/a", "v1/b"}, names)

	store.Delete("v1/b")
	_, err = store.Get(ctx, "v1/b")
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, store.Put(ctx, "", nil), ErrInvalidName)
}

func TestMemoryStore_RejectsEscapingNames(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for _, name := range []string{"../x", "/etc/passwd", "a/../../b"} {
		require.ErrorIs(t, store.Put(ctx, name, []byte("x")), ErrInvalidName, name)
		_, err := store.Get(ctx, name)
		require.ErrorIs(t, err, ErrInvalidName, name)
	}
}
