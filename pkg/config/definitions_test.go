package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDefinitions = `
grids:
  - name: webmercator
    base: web_mercator
    origin: nw
    levels: 19
  - name: geodetic
    base: geodetic
    origin: sw
    levels: 18
    tile_size: [256, 256]

sources:
  - name: osm_wms
    type: wms
    url: https://maps.example.com/service
    layers: [roads, landuse]
    version: "1.3.0"
    featureinfo: true
    supported_srs: ["EPSG:3857", "EPSG:4326"]
    min_res: 250000000
    max_res: 1

caches:
  - name: osm
    format: png8
    grids: [webmercator, geodetic]
    sources: [osm_wms]
    meta_size: [4, 4]
    meta_buffer: 80

layers:
  - name: osm
    title: OpenStreetMap
    caches: [osm]

formats:
  - name: png8
    mime_type: image/png
    colors: 256
`

func writeDefinitions(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapproxy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefinitions(t *testing.T) {
	defs, err := LoadDefinitions(writeDefinitions(t, sampleDefinitions))
	require.NoError(t, err)

	require.Len(t, defs.Grids, 2)
	assert.Equal(t, "webmercator", defs.Grids[0].Name)
	assert.Equal(t, "nw", defs.Grids[0].Origin)
	assert.Equal(t, 19, defs.Grids[0].Levels)

	require.Len(t, defs.Sources, 1)
	src := defs.Sources[0]
	assert.Equal(t, "wms", src.Type)
	assert.True(t, src.FeatureInfo)
	assert.Equal(t, float64(250000000), src.MinRes)
	assert.Equal(t, float64(1), src.MaxRes)

	require.Len(t, defs.Caches, 1)
	assert.Equal(t, []int{4, 4}, defs.Caches[0].MetaSize)
	assert.Equal(t, 80, defs.Caches[0].MetaBuffer)

	require.Len(t, defs.Formats, 1)
	assert.Equal(t, 256, defs.Formats[0].Colors)
}

func TestLoadDefinitionsMissingFile(t *testing.T) {
	_, err := LoadDefinitions(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadDefinitionsRejectsIncomplete(t *testing.T) {
	// caches without sources fail validation
	_, err := LoadDefinitions(writeDefinitions(t, `
caches:
  - name: broken
    format: png
    grids: [g]
    sources: [s]
layers:
  - name: l
    caches: [broken]
`))
	assert.Error(t, err)
}

func TestLoadDefinitionsRejectsBadSourceType(t *testing.T) {
	_, err := LoadDefinitions(writeDefinitions(t, `
sources:
  - name: tiles
    type: tms
    url: https://example.com
    layers: [a]
caches:
  - name: c
    format: png
    grids: [g]
    sources: [tiles]
layers:
  - name: l
    caches: [c]
`))
	assert.Error(t, err)
}
