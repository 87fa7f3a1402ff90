package store

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/marcjansen/mapproxy/internal/geo"
	"github.com/marcjansen/mapproxy/pkg/logger"
)

const (
	smallTileSize = 10 * 1024  // 10KB
	largeTileSize = 256 * 1024 // a 2x2 meta-tile raster
)

func generateTileData(size int) []byte {
	data := make([]byte, size)
	rand.Read(data)
	return data
}

func benchKey(i int) Key {
	return Key{
		Cache:    "bench",
		Grid:     "webmercator",
		Metatile: geo.Metatile{Z: i % 20, X: i % 1000, Y: (i * 7) % 1000},
	}
}

func setupFileStore(b *testing.B) *FileStore {
	b.Helper()
	s, err := NewFileStore(b.TempDir())
	if err != nil {
		b.Fatalf("Failed to create file store: %v", err)
	}
	return s
}

func setupSQLiteStore(b *testing.B) *SQLiteStore {
	b.Helper()
	s, err := NewSQLiteStore(filepath.Join(b.TempDir(), "bench.db"), logger.NewNoOp())
	if err != nil {
		b.Fatalf("Failed to create sqlite store: %v", err)
	}
	b.Cleanup(func() { s.Close() })
	return s
}

func BenchmarkPut_File_Small(b *testing.B) {
	s := setupFileStore(b)
	data := generateTileData(smallTileSize)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Put(ctx, benchKey(i), data); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}
}

func BenchmarkPut_File_Large(b *testing.B) {
	s := setupFileStore(b)
	data := generateTileData(largeTileSize)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Put(ctx, benchKey(i), data); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}
}

func BenchmarkPut_SQLite_Small(b *testing.B) {
	s := setupSQLiteStore(b)
	data := generateTileData(smallTileSize)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Put(ctx, benchKey(i), data); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}
}

func BenchmarkGet_File_Small(b *testing.B) {
	s := setupFileStore(b)
	data := generateTileData(smallTileSize)
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		if err := s.Put(ctx, benchKey(i), data); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := s.Get(ctx, benchKey(i%100)); err != nil {
			b.Fatalf("Get failed: %v", err)
		}
	}
}

func BenchmarkGet_SQLite_Small(b *testing.B) {
	s := setupSQLiteStore(b)
	data := generateTileData(smallTileSize)
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		if err := s.Put(ctx, benchKey(i), data); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := s.Get(ctx, benchKey(i%100)); err != nil {
			b.Fatalf("Get failed: %v", err)
		}
	}
}
