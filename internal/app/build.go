package app

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/marcjansen/mapproxy/internal/cache"
	"github.com/marcjansen/mapproxy/internal/geo"
	"github.com/marcjansen/mapproxy/internal/imaging"
	"github.com/marcjansen/mapproxy/internal/source"
	"github.com/marcjansen/mapproxy/internal/store"
	"github.com/marcjansen/mapproxy/pkg/config"
	"github.com/marcjansen/mapproxy/pkg/logger"
)

// buildLayers turns validated definitions into the immutable object
// graph: grids, sources, caches and the layer registry. Everything is
// resolved here so request handling never sees a dangling reference.
func buildLayers(cfg *config.Config, defs *config.ServiceDefinitions, ts store.TileStore, l logger.Logger) (*cache.Layers, error) {
	formats, err := imaging.NewRegistry(defs.Formats)
	if err != nil {
		return nil, err
	}

	grids, err := buildGrids(defs.Grids)
	if err != nil {
		return nil, err
	}

	sources, err := buildSources(cfg, defs.Sources, l)
	if err != nil {
		return nil, err
	}

	locker := cache.NewLocker()

	caches := make(map[string]*cache.Cache, len(defs.Caches))
	for _, def := range defs.Caches {
		format, err := formats.Resolve(def.Format)
		if err != nil {
			return nil, fmt.Errorf("cache %s: %w", def.Name, err)
		}

		cacheGrids := make([]*geo.Grid, 0, len(def.Grids))
		for _, name := range def.Grids {
			g, ok := grids[name]
			if !ok {
				return nil, fmt.Errorf("cache %s references unknown grid %s", def.Name, name)
			}
			cacheGrids = append(cacheGrids, g)
		}

		cacheSources := make([]source.Source, 0, len(def.Sources))
		for _, name := range def.Sources {
			src, ok := sources[name]
			if !ok {
				return nil, fmt.Errorf("cache %s references unknown source %s", def.Name, name)
			}
			cacheSources = append(cacheSources, src)
		}

		meta := geo.Meta{W: 1, H: 1}
		if len(def.MetaSize) == 2 {
			meta, err = geo.NewMeta(def.MetaSize[0], def.MetaSize[1], def.MetaBuffer)
			if err != nil {
				return nil, fmt.Errorf("cache %s: %w", def.Name, err)
			}
		} else {
			meta.Buffer = def.MetaBuffer
		}

		c, err := cache.New(cache.CacheOptions{
			Name:    def.Name,
			Format:  format,
			Grids:   cacheGrids,
			Sources: cacheSources,
			Meta:    meta,
			Store:   ts,
			Locker:  locker,
			Logger:  l,
		})
		if err != nil {
			return nil, err
		}
		caches[def.Name] = c
	}

	layers := make([]*cache.Layer, 0, len(defs.Layers))
	for _, def := range defs.Layers {
		layerCaches := make([]*cache.Cache, 0, len(def.Caches))
		for _, name := range def.Caches {
			c, ok := caches[name]
			if !ok {
				return nil, fmt.Errorf("layer %s references unknown cache %s", def.Name, name)
			}
			layerCaches = append(layerCaches, c)
		}
		layer, err := cache.NewLayer(def.Name, def.Title, layerCaches)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}

	return cache.NewLayers(layers)
}

func buildGrids(defs []config.GridDef) (map[string]*geo.Grid, error) {
	grids := make(map[string]*geo.Grid, len(defs)+2)

	for _, def := range defs {
		opts := geo.GridOptions{
			Name:        def.Name,
			SRS:         def.SRS,
			Resolutions: def.Resolutions,
			Levels:      def.Levels,
		}

		switch def.Base {
		case "web_mercator":
			opts.Extent = geo.WebMercatorExtent
			if opts.SRS == "" {
				opts.SRS = "EPSG:3857"
			}
		case "geodetic":
			opts.Extent = geo.GeodeticExtent
			if opts.SRS == "" {
				opts.SRS = "EPSG:4326"
			}
		default:
			if len(def.BBox) != 4 {
				return nil, fmt.Errorf("grid %s: bbox is required without a base", def.Name)
			}
		}
		if len(def.BBox) == 4 {
			opts.Extent = orb.Bound{
				Min: orb.Point{def.BBox[0], def.BBox[1]},
				Max: orb.Point{def.BBox[2], def.BBox[3]},
			}
		}

		origin, err := geo.ParseOrigin(def.Origin)
		if err != nil {
			return nil, fmt.Errorf("grid %s: %w", def.Name, err)
		}
		opts.Origin = origin

		if len(def.TileSize) == 2 {
			opts.TileWidth = def.TileSize[0]
			opts.TileHeight = def.TileSize[1]
		}

		g, err := geo.NewGrid(opts)
		if err != nil {
			return nil, err
		}
		grids[def.Name] = g
	}

	return grids, nil
}

func buildSources(cfg *config.Config, defs []config.SourceDef, l logger.Logger) (map[string]source.Source, error) {
	sources := make(map[string]source.Source, len(defs))

	for _, def := range defs {
		switch def.Type {
		case "wms":
			src, err := source.NewWMS(source.WMSConfig{
				Name:          def.Name,
				URL:           def.URL,
				Layers:        def.Layers,
				Version:       def.Version,
				FeatureInfo:   def.FeatureInfo,
				SupportedSRS:  def.SupportedSRS,
				Range:         source.ResRange{Min: def.MinRes, Max: def.MaxRes},
				Timeout:       cfg.Upstream.Timeout,
				RetryAttempts: cfg.Upstream.RetryAttempts,
				RetryBackoff:  cfg.Upstream.RetryBackoff,
			}, l)
			if err != nil {
				return nil, err
			}
			sources[def.Name] = src
		default:
			return nil, fmt.Errorf("source %s: unknown type %s", def.Name, def.Type)
		}
	}

	return sources, nil
}
