package geo

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Meta describes the meta-tile geometry of a cache: the block size in
// tiles and the pixel buffer rendered around the block to avoid edge
// artifacts. The zero value is not valid; use NewMeta.
type Meta struct {
	W      int
	H      int
	Buffer int
}

func NewMeta(w, h, buffer int) (Meta, error) {
	if w < 1 || h < 1 {
		return Meta{}, fmt.Errorf("meta size must be at least 1x1, got %dx%d", w, h)
	}
	if buffer < 0 {
		return Meta{}, fmt.Errorf("meta buffer must not be negative, got %d", buffer)
	}
	return Meta{W: w, H: h, Buffer: buffer}, nil
}

// Metatile addresses a block of W x H tiles. X and Y are the block's
// minimum tile coordinates, always multiples of W and H.
type Metatile struct {
	Z int
	X int
	Y int
}

func (m Metatile) String() string {
	return fmt.Sprintf("%d/%d/%d", m.Z, m.X, m.Y)
}

// MetatileFor rounds a tile down to its meta-tile block.
func (m Meta) MetatileFor(t Tile) Metatile {
	return Metatile{
		Z: t.Z,
		X: (t.X / m.W) * m.W,
		Y: (t.Y / m.H) * m.H,
	}
}

// Tiles enumerates the block's member tiles in row-major order. Tiles
// past the grid edge are included; callers validate against the grid.
func (m Meta) Tiles(mt Metatile) []Tile {
	tiles := make([]Tile, 0, m.W*m.H)
	for dy := 0; dy < m.H; dy++ {
		for dx := 0; dx < m.W; dx++ {
			tiles = append(tiles, Tile{Z: mt.Z, X: mt.X + dx, Y: mt.Y + dy})
		}
	}
	return tiles
}

// PixelSize is the rendered raster size of a meta-tile including the
// buffer margin on all sides.
func (m Meta) PixelSize(g *Grid) (w, h int) {
	tw, th := g.TileSize()
	return m.W*tw + 2*m.Buffer, m.H*th + 2*m.Buffer
}

// Coverage returns the geographic box a meta-tile raster must be
// rendered for, buffer included, along with its pixel dimensions. All
// buffer arithmetic lives here and in TileRect; callers never compute
// pixel offsets themselves.
func (m Meta) Coverage(g *Grid, mt Metatile) (orb.Bound, int, int, error) {
	res, err := g.Resolution(mt.Z)
	if err != nil {
		return orb.Bound{}, 0, 0, err
	}

	first := g.tileBounds(Tile{Z: mt.Z, X: mt.X, Y: mt.Y}, res)
	last := g.tileBounds(Tile{Z: mt.Z, X: mt.X + m.W - 1, Y: mt.Y + m.H - 1}, res)
	box := first.Union(last)

	buf := float64(m.Buffer) * res
	box.Min[0] -= buf
	box.Min[1] -= buf
	box.Max[0] += buf
	box.Max[1] += buf

	w, h := m.PixelSize(g)
	return box, w, h, nil
}

// TileRect locates a member tile inside the meta-tile raster. The
// raster's top row of pixels is the block's northern edge regardless of
// grid origin, so a sw-origin grid flips the row offset. Returns the
// top-left pixel and the tile's pixel dimensions.
func (m Meta) TileRect(g *Grid, mt Metatile, t Tile) (x0, y0, w, h int, err error) {
	dx := t.X - mt.X
	dy := t.Y - mt.Y
	if t.Z != mt.Z || dx < 0 || dx >= m.W || dy < 0 || dy >= m.H {
		return 0, 0, 0, 0, fmt.Errorf("tile %s not part of meta-tile %s", t, mt)
	}

	if g.Origin() == OriginSW {
		dy = m.H - 1 - dy
	}

	tw, th := g.TileSize()
	return m.Buffer + dx*tw, m.Buffer + dy*th, tw, th, nil
}
