package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// FileStore keeps each meta-tile as one file under the base directory.
// Layout: {base}/{cache}_{grid}/{z}/{x}/{y}.bin — derived purely from
// the key, so entries stay addressable across restarts.
type FileStore struct {
	baseDir string
}

var _ TileStore = (*FileStore)(nil)

func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) entryPath(k Key) string {
	return filepath.Join(
		s.baseDir,
		fmt.Sprintf("%s_%s", k.Cache, k.Grid),
		fmt.Sprintf("%02d", k.Metatile.Z),
		fmt.Sprintf("%d", k.Metatile.X),
		fmt.Sprintf("%d.bin", k.Metatile.Y),
	)
}

func (s *FileStore) Get(ctx context.Context, k Key) ([]byte, bool, error) {
	data, err := os.ReadFile(s.entryPath(k))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read tile entry %s: %w", k, err)
	}
	return data, true, nil
}

func (s *FileStore) Put(ctx context.Context, k Key, data []byte) error {
	path := s.entryPath(k)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create tile directory: %w", err)
	}

	// write-to-temp-then-rename keeps concurrent readers off partial
	// entries
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write tile entry %s: %w", k, err)
	}
	return nil
}
