// Package geo holds the tile grid math: per-level resolutions, origin
// handling and the conversions between geographic coordinates and tile
// addresses. Everything here is pure computation over immutable state.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

var (
	ErrInvalidLevel = errors.New("level outside the grid's resolution list")
	ErrOutOfBounds  = errors.New("tile outside the grid extent")
)

// Origin names the corner of the extent that tile (0, 0) is anchored to.
// With OriginNW row 0 is the northernmost row; with OriginSW it is the
// southernmost.
type Origin int

const (
	OriginSW Origin = iota
	OriginNW
)

func ParseOrigin(s string) (Origin, error) {
	switch s {
	case "", "sw":
		return OriginSW, nil
	case "nw":
		return OriginNW, nil
	default:
		return OriginSW, fmt.Errorf("unknown grid origin %q", s)
	}
}

// Tile addresses a single tile within a grid: zoom level Z, column X,
// row Y.
type Tile struct {
	Z int
	X int
	Y int
}

func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// Preset extents for the two common grid bases.
var (
	// WebMercatorExtent is the square EPSG:3857 world extent.
	WebMercatorExtent = orb.Bound{
		Min: orb.Point{-20037508.342789244, -20037508.342789244},
		Max: orb.Point{20037508.342789244, 20037508.342789244},
	}
	// GeodeticExtent is the full EPSG:4326 extent in degrees.
	GeodeticExtent = orb.Bound{
		Min: orb.Point{-180, -90},
		Max: orb.Point{180, 90},
	}
)

type GridOptions struct {
	Name   string
	SRS    string
	Extent orb.Bound
	Origin Origin
	// Resolutions is the ladder of ground units per pixel, one entry
	// per level, strictly decreasing. If empty, Levels halving steps
	// are derived from the extent and tile size.
	Resolutions []float64
	Levels      int
	TileWidth   int
	TileHeight  int
}

// Grid is an immutable tile pyramid definition. Safe for concurrent use.
type Grid struct {
	name        string
	srs         string
	extent      orb.Bound
	origin      Origin
	resolutions []float64
	tileW       int
	tileH       int
}

// boundary tolerance for float comparisons, in fractions of a tile
const tileEpsilon = 1e-9

func NewGrid(opts GridOptions) (*Grid, error) {
	if opts.Name == "" {
		return nil, errors.New("grid name is required")
	}
	if opts.Extent.Min[0] >= opts.Extent.Max[0] || opts.Extent.Min[1] >= opts.Extent.Max[1] {
		return nil, fmt.Errorf("grid %s: invalid extent", opts.Name)
	}

	tileW, tileH := opts.TileWidth, opts.TileHeight
	if tileW == 0 {
		tileW = 256
	}
	if tileH == 0 {
		tileH = 256
	}
	if tileW < 0 || tileH < 0 {
		return nil, fmt.Errorf("grid %s: invalid tile size %dx%d", opts.Name, tileW, tileH)
	}

	resolutions := opts.Resolutions
	if len(resolutions) == 0 {
		levels := opts.Levels
		if levels <= 0 {
			levels = 20
		}
		resolutions = defaultResolutions(opts.Extent, tileW, levels)
	}
	for i := 1; i < len(resolutions); i++ {
		if resolutions[i] >= resolutions[i-1] {
			return nil, fmt.Errorf("grid %s: resolutions must strictly decrease (level %d: %g >= %g)",
				opts.Name, i, resolutions[i], resolutions[i-1])
		}
	}
	if resolutions[0] <= 0 || resolutions[len(resolutions)-1] <= 0 {
		return nil, fmt.Errorf("grid %s: resolutions must be positive", opts.Name)
	}

	return &Grid{
		name:        opts.Name,
		srs:         opts.SRS,
		extent:      opts.Extent,
		origin:      opts.Origin,
		resolutions: append([]float64(nil), resolutions...),
		tileW:       tileW,
		tileH:       tileH,
	}, nil
}

// defaultResolutions builds a halving ladder where level 0 covers the
// extent width with a single tile.
func defaultResolutions(extent orb.Bound, tileW, levels int) []float64 {
	res := make([]float64, levels)
	width := extent.Max[0] - extent.Min[0]
	res[0] = width / float64(tileW)
	for i := 1; i < levels; i++ {
		res[i] = res[i-1] / 2
	}
	return res
}

func (g *Grid) Name() string      { return g.name }
func (g *Grid) SRS() string       { return g.srs }
func (g *Grid) Origin() Origin    { return g.origin }
func (g *Grid) Extent() orb.Bound { return g.extent }
func (g *Grid) Levels() int       { return len(g.resolutions) }

func (g *Grid) TileSize() (w, h int) { return g.tileW, g.tileH }

// Resolution returns the ground units per pixel at the given level.
func (g *Grid) Resolution(level int) (float64, error) {
	if level < 0 || level >= len(g.resolutions) {
		return 0, fmt.Errorf("%w: level %d, grid %s has %d levels",
			ErrInvalidLevel, level, g.name, len(g.resolutions))
	}
	return g.resolutions[level], nil
}

// Dimensions returns the number of tile columns and rows at a level.
func (g *Grid) Dimensions(level int) (cols, rows int, err error) {
	res, err := g.Resolution(level)
	if err != nil {
		return 0, 0, err
	}
	width := g.extent.Max[0] - g.extent.Min[0]
	height := g.extent.Max[1] - g.extent.Min[1]
	cols = int(math.Ceil(width/(res*float64(g.tileW)) - tileEpsilon))
	rows = int(math.Ceil(height/(res*float64(g.tileH)) - tileEpsilon))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return cols, rows, nil
}

// ValidTile checks that the tile address exists within the grid.
func (g *Grid) ValidTile(t Tile) error {
	cols, rows, err := g.Dimensions(t.Z)
	if err != nil {
		return err
	}
	if t.X < 0 || t.X >= cols || t.Y < 0 || t.Y >= rows {
		return fmt.Errorf("%w: tile %s, level has %dx%d tiles", ErrOutOfBounds, t, cols, rows)
	}
	return nil
}

// TileCoord maps a point in grid units to the tile containing it.
// Points on the far edge of the extent are clamped into the last
// column/row so the extent boundary itself remains addressable.
func (g *Grid) TileCoord(p orb.Point, level int) (Tile, error) {
	res, err := g.Resolution(level)
	if err != nil {
		return Tile{}, err
	}
	cols, rows, _ := g.Dimensions(level)

	fx := (p[0] - g.extent.Min[0]) / (res * float64(g.tileW))
	var fy float64
	if g.origin == OriginNW {
		fy = (g.extent.Max[1] - p[1]) / (res * float64(g.tileH))
	} else {
		fy = (p[1] - g.extent.Min[1]) / (res * float64(g.tileH))
	}

	x := int(math.Floor(fx + tileEpsilon))
	y := int(math.Floor(fy + tileEpsilon))

	// clamp the far extent edge into the outermost tile
	if x == cols && fx-float64(cols) < tileEpsilon {
		x = cols - 1
	}
	if y == rows && fy-float64(rows) < tileEpsilon {
		y = rows - 1
	}

	t := Tile{Z: level, X: x, Y: y}
	if err := g.ValidTile(t); err != nil {
		return Tile{}, err
	}
	return t, nil
}

// TileBBox returns the bounding box of a tile in grid units.
func (g *Grid) TileBBox(t Tile) (orb.Bound, error) {
	if err := g.ValidTile(t); err != nil {
		return orb.Bound{}, err
	}
	res := g.resolutions[t.Z]
	return g.tileBounds(t, res), nil
}

// tileBounds computes the box without validity checks. Meta-tile
// coverage needs this for blocks extending past the extent edge.
func (g *Grid) tileBounds(t Tile, res float64) orb.Bound {
	w := res * float64(g.tileW)
	h := res * float64(g.tileH)

	x0 := g.extent.Min[0] + float64(t.X)*w
	var y0 float64
	if g.origin == OriginNW {
		y0 = g.extent.Max[1] - float64(t.Y+1)*h
	} else {
		y0 = g.extent.Min[1] + float64(t.Y)*h
	}

	return orb.Bound{
		Min: orb.Point{x0, y0},
		Max: orb.Point{x0 + w, y0 + h},
	}
}
