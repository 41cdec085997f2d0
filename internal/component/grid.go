package component

import "github.com/gridforge/editor/internal/geom"

// Coord2 marks a committed tile and the grid cell it occupies. At most one
// entity holds a given value; the tile editor enforces it.
type Coord2 struct {
	X int
	Z int
}

func CoordOf(c geom.Cell) Coord2 { return Coord2{X: c.X, Z: c.Z} }

func (c Coord2) Cell() geom.Cell { return geom.Cell{X: c.X, Z: c.Z} }

// Tile is the level metadata of a tile entity. X and Z record the cell the
// tile was last placed at, including while it is held.
type Tile struct {
	Model     string
	X         int
	Z         int
	YRotation float64 // degrees in [0, 360)
}
