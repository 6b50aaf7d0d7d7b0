package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, ok, err := store.Get(ctx, "hotaru_guild-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "hotaru_guild-1", []byte(`{"a":1}`)))

	value, ok, err := store.Get(ctx, "hotaru_guild-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`{"a":1}`), value)

	require.NoError(t, store.Delete(ctx, "hotaru_guild-1"))
	_, ok, err = store.Get(ctx, "hotaru_guild-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	original := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", original))

	original[0] = 'x'
	value, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), value)

	value[0] = 'y'
	again, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMemory_ListByPrefix(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.Set(ctx, "hotaru_b", nil))
	require.NoError(t, store.Set(ctx, "hotaru_a", nil))
	require.NoError(t, store.Set(ctx, "other_c", nil))

	keys, err := store.List(ctx, "hotaru_")
	require.NoError(t, err)
	assert.Equal(t, []string{"hotaru_a", "hotaru_b"}, keys)
}
