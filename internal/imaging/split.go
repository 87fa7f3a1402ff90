package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/marcjansen/mapproxy/internal/geo"
)

// ErrGeometryMismatch reports a fetched raster whose pixel dimensions
// do not match the meta-tile coverage. This is a configuration or
// programming defect, never retried.
var ErrGeometryMismatch = errors.New("meta-tile raster geometry mismatch")

// SplitMetatile crops a meta-tile raster into its member tiles,
// discarding the buffer margin. Tiles past the grid edge are skipped.
// The raster must be exactly the size Coverage declared.
func SplitMetatile(raster image.Image, g *geo.Grid, meta geo.Meta, mt geo.Metatile) (map[geo.Tile]image.Image, error) {
	wantW, wantH := meta.PixelSize(g)
	bounds := raster.Bounds()
	if bounds.Dx() != wantW || bounds.Dy() != wantH {
		return nil, fmt.Errorf("%w: meta-tile %s expects %dx%d px, got %dx%d",
			ErrGeometryMismatch, mt, wantW, wantH, bounds.Dx(), bounds.Dy())
	}

	tiles := make(map[geo.Tile]image.Image, meta.W*meta.H)
	for _, t := range meta.Tiles(mt) {
		if err := g.ValidTile(t); err != nil {
			continue
		}
		x0, y0, tw, th, err := meta.TileRect(g, mt, t)
		if err != nil {
			return nil, err
		}

		rect := image.Rect(bounds.Min.X+x0, bounds.Min.Y+y0, bounds.Min.X+x0+tw, bounds.Min.Y+y0+th)
		tile := image.NewRGBA(image.Rect(0, 0, tw, th))
		draw.Draw(tile, tile.Bounds(), raster, rect.Min, draw.Src)
		tiles[t] = tile
	}

	return tiles, nil
}
