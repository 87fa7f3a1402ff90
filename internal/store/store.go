// Package store persists meta-tile rasters keyed by cache, grid and
// meta-tile coordinate. Absence is the normal cache-miss signal, not an
// error. Put is atomic with respect to concurrent Gets of the same key.
package store

import (
	"context"
	"fmt"

	"github.com/marcjansen/mapproxy/internal/geo"
	"github.com/marcjansen/mapproxy/pkg/config"
	"github.com/marcjansen/mapproxy/pkg/logger"
)

// Key addresses one stored meta-tile entry.
type Key struct {
	Cache    string
	Grid     string
	Metatile geo.Metatile
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%d/%d/%d", k.Cache, k.Grid, k.Metatile.Z, k.Metatile.X, k.Metatile.Y)
}

type TileStore interface {
	// Get returns the stored bytes and whether the entry exists.
	Get(ctx context.Context, k Key) ([]byte, bool, error)
	// Put stores the entry; readers never observe a partial write.
	Put(ctx context.Context, k Key, data []byte) error
}

// New builds the store backend selected by configuration.
func New(cfg config.Store, l logger.Logger) (TileStore, error) {
	switch cfg.Backend {
	case "file":
		l.Info("using file tile store", "base_dir", cfg.BaseDir)
		return NewFileStore(cfg.BaseDir)
	case "sqlite":
		l.Info("using sqlite tile store", "path", cfg.SQLitePath)
		return NewSQLiteStore(cfg.SQLitePath, l)
	case "redis":
		l.Info("using redis tile store", "addr", cfg.Redis.Addr)
		return NewRedisStore(RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.TTL,
		})
	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: file, sqlite, redis)", cfg.Backend)
	}
}
