// Package cache orchestrates tile requests: store lookup, per-meta-tile
// locking, upstream dispatch, meta-tile assembly and output encoding.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/marcjansen/mapproxy/internal/geo"
	"github.com/marcjansen/mapproxy/internal/imaging"
	"github.com/marcjansen/mapproxy/internal/source"
	"github.com/marcjansen/mapproxy/internal/store"
	"github.com/marcjansen/mapproxy/pkg/logger"
	"github.com/marcjansen/mapproxy/pkg/metrics"
)

// upstream fetches always request PNG so re-encoding to the cache's
// declared format never loses alpha
const upstreamFormat = imaging.MimePNG

// Cache binds an output format, the grids it serves and the sources it
// may draw from. Immutable after construction; safe for concurrent use.
type Cache struct {
	name    string
	format  imaging.Format
	grids   []*geo.Grid
	sources []source.Source
	meta    geo.Meta
	store   store.TileStore
	locker  *Locker
	log     logger.Logger
}

type CacheOptions struct {
	Name    string
	Format  imaging.Format
	Grids   []*geo.Grid
	Sources []source.Source
	Meta    geo.Meta
	Store   store.TileStore
	Locker  *Locker
	Logger  logger.Logger
}

func New(opts CacheOptions) (*Cache, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("cache name is required")
	}
	if len(opts.Grids) == 0 {
		return nil, fmt.Errorf("cache %s: at least one grid is required", opts.Name)
	}
	if len(opts.Sources) == 0 {
		return nil, fmt.Errorf("cache %s: at least one source is required", opts.Name)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("cache %s: tile store is required", opts.Name)
	}
	meta := opts.Meta
	if meta.W == 0 && meta.H == 0 {
		meta = geo.Meta{W: 1, H: 1}
	}
	locker := opts.Locker
	if locker == nil {
		locker = NewLocker()
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOp()
	}

	return &Cache{
		name:    opts.Name,
		format:  opts.Format,
		grids:   opts.Grids,
		sources: opts.Sources,
		meta:    meta,
		store:   opts.Store,
		locker:  locker,
		log:     log,
	}, nil
}

func (c *Cache) Name() string           { return c.name }
func (c *Cache) Format() imaging.Format { return c.format }

// Grid resolves a grid by name; empty name selects the first grid.
func (c *Cache) Grid(name string) (*geo.Grid, error) {
	if name == "" {
		return c.grids[0], nil
	}
	for _, g := range c.grids {
		if g.Name() == name {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: cache %s has no grid %s", ErrUnknownGrid, c.name, name)
}

// GetTile returns the encoded image for one tile, fetching and caching
// its meta-tile on miss. At most one upstream fetch is in flight per
// meta-tile key; requests for distinct keys proceed independently.
func (c *Cache) GetTile(ctx context.Context, g *geo.Grid, t geo.Tile) ([]byte, error) {
	metrics.TileRequests.Inc()

	if err := g.ValidTile(t); err != nil {
		return nil, err
	}

	mt := c.meta.MetatileFor(t)
	key := store.Key{Cache: c.name, Grid: g.Name(), Metatile: mt}

	// fast path, no lock
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("tile store get: %w", err)
	}
	if ok {
		metrics.TileCacheHits.Inc()
		return c.tileFromMetatile(data, g, mt, t)
	}
	metrics.TileCacheMisses.Inc()

	lockStart := time.Now()
	release, err := c.locker.Lock(ctx, key.String())
	if err != nil {
		return nil, err
	}
	metrics.TileLockWait.Observe(time.Since(lockStart).Seconds())

	// another waiter may have populated the entry while we blocked
	data, ok, err = c.store.Get(ctx, key)
	if err != nil {
		release()
		return nil, fmt.Errorf("tile store get: %w", err)
	}
	if ok {
		release()
		return c.tileFromMetatile(data, g, mt, t)
	}

	data, err = c.fetchMetatile(ctx, g, mt)
	if err != nil {
		// no entry is written, so the next request retries
		release()
		return nil, err
	}

	if err := c.store.Put(ctx, key, data); err != nil {
		release()
		return nil, fmt.Errorf("tile store put: %w", err)
	}
	release()

	c.log.Debug("meta-tile populated", "cache", c.name, "grid", g.Name(), "metatile", mt.String())

	return c.tileFromMetatile(data, g, mt, t)
}

// fetchMetatile selects an eligible source and retrieves the raster
// covering the meta-tile, buffer included.
func (c *Cache) fetchMetatile(ctx context.Context, g *geo.Grid, mt geo.Metatile) ([]byte, error) {
	res, err := g.Resolution(mt.Z)
	if err != nil {
		return nil, err
	}

	src, err := c.selectSource(res)
	if err != nil {
		return nil, err
	}

	bbox, w, h, err := c.meta.Coverage(g, mt)
	if err != nil {
		return nil, err
	}

	c.log.Debug("fetching meta-tile", "cache", c.name, "source", src.Name(), "metatile", mt.String())

	return src.Fetch(ctx, source.Request{
		BBox:   bbox,
		Width:  w,
		Height: h,
		SRS:    g.SRS(),
		Format: upstreamFormat,
	})
}

// tileFromMetatile decodes the stored raster, splits it and encodes the
// requested member tile in the cache's output format.
func (c *Cache) tileFromMetatile(data []byte, g *geo.Grid, mt geo.Metatile, t geo.Tile) ([]byte, error) {
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode meta-tile %s: %w", mt, err)
	}

	tiles, err := imaging.SplitMetatile(img, g, c.meta, mt)
	if err != nil {
		return nil, err
	}

	sub, ok := tiles[t]
	if !ok {
		return nil, fmt.Errorf("tile %s missing from meta-tile %s split", t, mt)
	}

	return imaging.Encode(sub, c.format)
}

// GetFeatureInfo dispatches an info query for a tile position. Info
// responses are never cached and take no lock.
func (c *Cache) GetFeatureInfo(ctx context.Context, g *geo.Grid, t geo.Tile, i, j int, infoFormat string) ([]byte, error) {
	if err := g.ValidTile(t); err != nil {
		return nil, err
	}

	res, err := g.Resolution(t.Z)
	if err != nil {
		return nil, err
	}

	src, err := c.selectInfoSource(res)
	if err != nil {
		return nil, err
	}

	bbox, err := g.TileBBox(t)
	if err != nil {
		return nil, err
	}
	tw, th := g.TileSize()

	return src.FetchInfo(ctx, source.InfoRequest{
		Request: source.Request{
			BBox:   bbox,
			Width:  tw,
			Height: th,
			SRS:    g.SRS(),
			Format: upstreamFormat,
		},
		I:          i,
		J:          j,
		InfoFormat: infoFormat,
	})
}
