package cache

import (
	"errors"
	"fmt"

	"github.com/marcjansen/mapproxy/internal/geo"
	"github.com/marcjansen/mapproxy/internal/source"
)

var (
	// ErrNoEligibleSource means no configured source covers the
	// requested resolution. Client-visible, never retried.
	ErrNoEligibleSource = errors.New("no source eligible for resolution")
	ErrUnknownLayer     = errors.New("unknown layer")
	ErrUnknownGrid      = errors.New("unknown grid")
)

// selectSource filters the cache's sources to those whose resolution
// range contains res and picks the first match. Declaration order is
// the tie-breaker, which keeps routing deterministic.
func (c *Cache) selectSource(res float64) (source.Source, error) {
	for _, src := range c.sources {
		if src.ResolutionRange().Contains(res) {
			return src, nil
		}
	}
	return nil, fmt.Errorf("%w: cache %s, resolution %g", ErrNoEligibleSource, c.name, res)
}

// selectInfoSource additionally requires the featureinfo capability.
func (c *Cache) selectInfoSource(res float64) (source.Source, error) {
	for _, src := range c.sources {
		if src.ResolutionRange().Contains(res) && src.SupportsFeatureInfo() {
			return src, nil
		}
	}
	for _, src := range c.sources {
		if src.ResolutionRange().Contains(res) {
			// an eligible source exists but cannot answer info queries
			return nil, fmt.Errorf("%w: %s", source.ErrNoFeatureInfo, src.Name())
		}
	}
	return nil, fmt.Errorf("%w: cache %s, resolution %g", ErrNoEligibleSource, c.name, res)
}

// Layer is a client-facing name over one or more caches. Pure routing
// metadata.
type Layer struct {
	Name   string
	Title  string
	caches []*Cache
}

func NewLayer(name, title string, caches []*Cache) (*Layer, error) {
	if name == "" {
		return nil, errors.New("layer name is required")
	}
	if len(caches) == 0 {
		return nil, fmt.Errorf("layer %s: at least one cache is required", name)
	}
	return &Layer{Name: name, Title: title, caches: caches}, nil
}

// CacheForGrid picks the first cache serving the named grid; empty grid
// selects the layer's first cache with its default grid.
func (l *Layer) CacheForGrid(gridName string) (*Cache, *geo.Grid, error) {
	if gridName == "" {
		g, err := l.caches[0].Grid("")
		return l.caches[0], g, err
	}
	for _, c := range l.caches {
		if g, err := c.Grid(gridName); err == nil {
			return c, g, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: layer %s has no cache serving grid %s", ErrUnknownGrid, l.Name, gridName)
}

// Layers is the immutable layer registry built at startup.
type Layers struct {
	byName map[string]*Layer
	order  []*Layer
}

func NewLayers(layers []*Layer) (*Layers, error) {
	byName := make(map[string]*Layer, len(layers))
	for _, l := range layers {
		if _, exists := byName[l.Name]; exists {
			return nil, fmt.Errorf("duplicate layer %s", l.Name)
		}
		byName[l.Name] = l
	}
	return &Layers{byName: byName, order: layers}, nil
}

func (ls *Layers) Layer(name string) (*Layer, error) {
	l, ok := ls.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLayer, name)
	}
	return l, nil
}

func (ls *Layers) All() []*Layer {
	return ls.order
}
