// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwaldhauer/scilit/pkg/types"
)

func testRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(types.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func TestRedisStore_SetGet(t *testing.T) {
	s, _ := testRedisStore(t)
	ctx := context.Background()

	_, found := s.Get(ctx, "crossref:doi:10.1000/xyz")
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "crossref:doi:10.1000/xyz", []byte(`{"title":"X"}`), time.Hour))

	value, found := s.Get(ctx, "crossref:doi:10.1000/xyz")
	require.True(t, found)
	assert.Equal(t, []byte(`{"title":"X"}`), value)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	s, mr := testRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "openalex:query:q", []byte("v"), time.Minute))

	mr.FastForward(2 * time.Minute)

	_, found := s.Get(ctx, "openalex:query:q")
	assert.False(t, found)
}

func TestRedisStore_ClearByPrefix(t *testing.T) {
	s, _ := testRedisStore(t)
	ctx := context.Background()

	for _, key := range []string{
		"crossref:doi:10.1/a",
		"crossref:query:title b",
		"openlib:isbn:123",
	} {
		require.NoError(t, s.Set(ctx, key, []byte("v"), time.Hour))
	}

	n, err := s.Clear(ctx, "crossref:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, found := s.Get(ctx, "openlib:isbn:123")
	assert.True(t, found)
}

func TestRedisStore_ConnectFailure(t *testing.T) {
	_, err := NewRedisStore(types.RedisConfig{Address: "localhost:1"})
	require.Error(t, err)
}
