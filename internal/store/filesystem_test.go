package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcjansen/mapproxy/internal/geo"
)

func testKey(z, x, y int) Key {
	return Key{
		Cache:    "osm",
		Grid:     "webmercator",
		Metatile: geo.Metatile{Z: z, X: x, Y: y},
	}
}

func TestFileStoreAbsentIsNotAnError(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	data, ok, err := s.Get(context.Background(), testKey(3, 2, 4))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestFileStorePutGet(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	key := testKey(3, 2, 4)
	payload := []byte("meta-tile bytes")

	require.NoError(t, s.Put(ctx, key, payload))

	data, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload, data)
}

func TestFileStoreKeysDoNotCollide(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	a := Key{Cache: "osm", Grid: "webmercator", Metatile: geo.Metatile{Z: 1, X: 0, Y: 0}}
	b := Key{Cache: "osm", Grid: "geodetic", Metatile: geo.Metatile{Z: 1, X: 0, Y: 0}}
	c := Key{Cache: "aerial", Grid: "webmercator", Metatile: geo.Metatile{Z: 1, X: 0, Y: 0}}

	require.NoError(t, s.Put(ctx, a, []byte("a")))
	require.NoError(t, s.Put(ctx, b, []byte("b")))
	require.NoError(t, s.Put(ctx, c, []byte("c")))

	got, _, err := s.Get(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)

	got, _, err = s.Get(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)
}

func TestFileStoreSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	key := testKey(8, 10, 20)

	s1, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s1.Put(ctx, key, []byte("persisted")))

	// a fresh store over the same directory must resolve the same path
	s2, err := NewFileStore(dir)
	require.NoError(t, err)

	data, ok, err := s2.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("persisted"), data)
}

func TestFileStoreOverwrite(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	key := testKey(2, 1, 1)

	require.NoError(t, s.Put(ctx, key, []byte("first")))
	require.NoError(t, s.Put(ctx, key, []byte("second")))

	data, _, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}
