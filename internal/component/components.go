package component

import (
	"github.com/gridforge/editor/internal/core/ecs"
	"github.com/gridforge/editor/internal/physics"
	"github.com/gridforge/editor/internal/render"
)

// Components registers every component store of the editor on one world.
type Components struct {
	World   *ecs.World
	Names   *ecs.Store[Name]
	Models  *ecs.Store[render.Instance]
	Physics *ecs.Store[physics.Component]
	Coords  *ecs.Store[Coord2]
	Tiles   *ecs.Store[Tile]

	// Committed matches placed tiles: Coord2 and Tile.
	Committed ecs.Family
}

func New(w *ecs.World) *Components {
	c := &Components{
		World:   w,
		Names:   ecs.NewStore[Name](w, "name"),
		Models:  ecs.NewStore[render.Instance](w, "model"),
		Physics: ecs.NewStore[physics.Component](w, "physics"),
		Coords:  ecs.NewStore[Coord2](w, "coord2"),
		Tiles:   ecs.NewStore[Tile](w, "tile"),
	}
	c.Committed = ecs.All(c.Coords.Tag(), c.Tiles.Tag())
	return c
}

// NameOf returns the entity's display name, or "" when it has none.
func (c *Components) NameOf(id ecs.EntityID) string {
	if n, ok := c.Names.Get(id); ok {
		return n.Value
	}
	return ""
}

// Occupant returns the committed tile at cell.
func (c *Components) Occupant(cell Coord2) (ecs.EntityID, bool) {
	found := ecs.NoEntity
	c.World.Each(c.Committed, func(id ecs.EntityID) bool {
		if pos, ok := c.Coords.Get(id); ok && *pos == cell {
			found = id
			return false
		}
		return true
	})
	return found, found != ecs.NoEntity
}

// Listing is one row of the entities listing.
type Listing struct {
	ID    ecs.EntityID
	Name  string
	Coord *Coord2
}

// Named lists every named entity, with its grid cell when it has one.
func (c *Components) Named() []Listing {
	var out []Listing
	c.Names.Each(func(id ecs.EntityID, n *Name) {
		row := Listing{ID: id, Name: n.Value}
		if pos, ok := c.Coords.Get(id); ok {
			p := *pos
			row.Coord = &p
		}
		out = append(out, row)
	})
	return out
}
