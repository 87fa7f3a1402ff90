package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcjansen/mapproxy/internal/geo"
	"github.com/marcjansen/mapproxy/internal/imaging"
	"github.com/marcjansen/mapproxy/internal/source"
)

func newRoutedCache(t *testing.T, sources ...source.Source) (*Cache, *geo.Grid) {
	t.Helper()
	g := newTestGrid(t)
	c, err := New(CacheOptions{
		Name:    "routed",
		Format:  imaging.Format{Name: "png", MimeType: imaging.MimePNG},
		Grids:   []*geo.Grid{g},
		Sources: sources,
		Meta:    geo.Meta{W: 1, H: 1},
		Store:   &memStore{},
	})
	require.NoError(t, err)
	return c, g
}

func TestSelectSourceFirstMatchWins(t *testing.T) {
	overview := &fakeSource{resRange: source.ResRange{Min: 100000}} // anything at or finer than 100000
	detail := &fakeSource{resRange: source.ResRange{}}              // unbounded
	c, _ := newRoutedCache(t, detail, overview)

	src, err := c.selectSource(500)
	require.NoError(t, err)
	// both qualify at 500; declaration order decides
	assert.Same(t, detail, src)
}

func TestSelectSourceByResolutionRange(t *testing.T) {
	restricted := &fakeSource{resRange: source.ResRange{Min: 250000000, Max: 1}}
	c, _ := newRoutedCache(t, restricted)

	src, err := c.selectSource(1000)
	require.NoError(t, err)
	assert.NotNil(t, src)

	_, err = c.selectSource(0.5)
	assert.ErrorIs(t, err, ErrNoEligibleSource)

	_, err = c.selectSource(300000000)
	assert.ErrorIs(t, err, ErrNoEligibleSource)
}

func TestGetTileSurfacesNoEligibleSource(t *testing.T) {
	// source only valid for very fine resolutions; level 0 is coarse
	restricted := &fakeSource{resRange: source.ResRange{Min: 1}}
	c, g := newRoutedCache(t, restricted)

	_, err := c.GetTile(context.Background(), g, geo.Tile{Z: 0, X: 0, Y: 0})
	assert.ErrorIs(t, err, ErrNoEligibleSource)
	assert.Equal(t, int64(0), restricted.fetchCount())
}

func TestCacheGridLookup(t *testing.T) {
	c, g := newRoutedCache(t, &fakeSource{})

	got, err := c.Grid("")
	require.NoError(t, err)
	assert.Same(t, g, got)

	got, err = c.Grid("webmercator")
	require.NoError(t, err)
	assert.Same(t, g, got)

	_, err = c.Grid("utm32")
	assert.ErrorIs(t, err, ErrUnknownGrid)
}

func TestLayersRegistry(t *testing.T) {
	c, _ := newRoutedCache(t, &fakeSource{})

	layer, err := NewLayer("osm", "OpenStreetMap", []*Cache{c})
	require.NoError(t, err)

	layers, err := NewLayers([]*Layer{layer})
	require.NoError(t, err)

	got, err := layers.Layer("osm")
	require.NoError(t, err)
	assert.Equal(t, "osm", got.Name)

	_, err = layers.Layer("missing")
	assert.ErrorIs(t, err, ErrUnknownLayer)

	_, err = NewLayers([]*Layer{layer, layer})
	assert.Error(t, err, "duplicate layer names rejected")
}

func TestLayerCacheForGrid(t *testing.T) {
	c, g := newRoutedCache(t, &fakeSource{})
	layer, err := NewLayer("osm", "", []*Cache{c})
	require.NoError(t, err)

	gotCache, gotGrid, err := layer.CacheForGrid("")
	require.NoError(t, err)
	assert.Same(t, c, gotCache)
	assert.Same(t, g, gotGrid)

	_, _, err = layer.CacheForGrid("unknown")
	assert.ErrorIs(t, err, ErrUnknownGrid)
}

func TestFeatureInfoRequiresCapability(t *testing.T) {
	noInfo := &fakeSource{}
	c, g := newRoutedCache(t, noInfo)

	_, err := c.GetFeatureInfo(context.Background(), g, geo.Tile{Z: 4, X: 2, Y: 3}, 0, 0, "text/plain")
	assert.ErrorIs(t, err, source.ErrNoFeatureInfo)
}
