// Package editor is the interactive tile editor: a two-state machine that
// holds at most one tile at a time, plus the per-frame systems around it.
package editor

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/gridforge/editor/internal/component"
	"github.com/gridforge/editor/internal/core/ecs"
	"github.com/gridforge/editor/internal/data"
	"github.com/gridforge/editor/internal/factory"
	"github.com/gridforge/editor/internal/geom"
	"github.com/gridforge/editor/internal/physics"
)

var (
	ErrCellOccupied = errors.New("grid cell occupied")
	ErrNotHolding   = errors.New("no tile held")
	ErrNoGround     = errors.New("pick ray misses the ground plane")
	ErrUnknownModel = errors.New("unknown tile model")
)

// State is the editor state.
type State uint8

const (
	Idle State = iota
	Holding
)

func (s State) String() string {
	if s == Holding {
		return "holding"
	}
	return "idle"
}

// Editor places, rotates and removes tiles on the grid. Single-goroutine access only.
type Editor struct {
	comps   *component.Components
	physics *physics.World
	factory *factory.Factory
	camera  Camera
	pack    *data.ModelPack
	log     *zap.Logger

	tileSize float64
	active   string

	state   State
	held    ecs.EntityID
	preview preview
	named   int
}

func New(comps *component.Components, pw *physics.World, f *factory.Factory, camera Camera,
	pack *data.ModelPack, activeModel string, log *zap.Logger) *Editor {
	e := &Editor{
		comps:    comps,
		physics:  pw,
		factory:  f,
		camera:   camera,
		pack:     pack,
		log:      log,
		tileSize: f.Config().TileSize,
		active:   pack.Default(),
	}
	if pack.Has(activeModel) {
		e.active = activeModel
	}
	return e
}

func (e *Editor) State() State        { return e.state }
func (e *Editor) Camera() Camera      { return e.camera }
func (e *Editor) ActiveModel() string { return e.active }
func (e *Editor) TileSize() float64   { return e.tileSize }

// Held returns the held entity, if any.
func (e *Editor) Held() (ecs.EntityID, bool) {
	e.validate()
	return e.held, e.state == Holding
}

// SetActiveModel selects the model used for new tiles.
func (e *Editor) SetActiveModel(name string) error {
	if !e.pack.Has(name) {
		return fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	e.active = name
	return nil
}

func (e *Editor) NextModel() string { e.active = e.pack.Next(e.active); return e.active }
func (e *Editor) PrevModel() string { e.active = e.pack.Prev(e.active); return e.active }

// CellAt returns the grid cell under a screen point.
func (e *Editor) CellAt(screenX, screenY float64) (geom.Cell, error) {
	hit, ok := e.camera.PickRay(screenX, screenY).IntersectPlaneY(0)
	if !ok {
		return geom.Cell{}, ErrNoGround
	}
	return geom.CellAt(hit, e.tileSize), nil
}

// Pick holds the tile under the cursor, creating one with the active model if
// the cell is empty. Picking while holding keeps the current tile.
func (e *Editor) Pick(screenX, screenY float64) (ecs.EntityID, error) {
	if id, holding := e.Held(); holding {
		return id, nil
	}
	cell, err := e.CellAt(screenX, screenY)
	if err != nil {
		return ecs.NoEntity, err
	}
	id, occupied := e.comps.Occupant(component.CoordOf(cell))
	if !occupied {
		id, err = e.factory.Tile(e.active, cell, 0)
		if err != nil {
			return ecs.NoEntity, err
		}
	}

	inst, ok := e.comps.Models.Get(id)
	if !ok {
		return ecs.NoEntity, fmt.Errorf("pick entity %d: no model instance", id)
	}
	e.comps.Coords.Remove(id)
	if phys, ok := e.comps.Physics.Get(id); ok {
		e.physics.RemoveFromWorld(phys)
	}
	e.preview.apply(inst)
	e.held = id
	e.state = Holding
	e.log.Debug("tile picked",
		zap.Int("x", cell.X), zap.Int("z", cell.Z),
		zap.Bool("reopened", occupied),
	)
	return id, nil
}

// Drag snaps the held tile to the cell under the cursor. Occupancy is only
// checked on commit.
func (e *Editor) Drag(screenX, screenY float64) error {
	if _, holding := e.Held(); !holding {
		return ErrNotHolding
	}
	cell, err := e.CellAt(screenX, screenY)
	if err != nil {
		return err
	}
	e.moveTo(cell)
	return nil
}

func (e *Editor) moveTo(cell geom.Cell) {
	inst, _ := e.comps.Models.Get(e.held)
	geom.SetTranslation(inst.Transform, cell.Center(e.tileSize))
	if phys, ok := e.comps.Physics.Get(e.held); ok {
		phys.Sync()
	}
	if tile, ok := e.comps.Tiles.Get(e.held); ok {
		tile.X, tile.Z = cell.X, cell.Z
	}
}

// RotateCW turns the held tile a quarter turn clockwise seen from above.
func (e *Editor) RotateCW() error { return e.rotate(-90) }

// RotateCCW turns the held tile a quarter turn counter-clockwise seen from above.
func (e *Editor) RotateCCW() error { return e.rotate(90) }

// rotate rebuilds the transform from the current yaw plus delta so repeated
// turns do not accumulate error in the other axes.
func (e *Editor) rotate(deltaDeg float64) error {
	if _, holding := e.Held(); !holding {
		return ErrNotHolding
	}
	inst, _ := e.comps.Models.Get(e.held)
	yaw := geom.NormalizeDegrees(geom.YawDegrees(*inst.Transform) + deltaDeg)
	// snap to the nearest quarter turn so yaw stays exact under repetition
	if q := math.Round(yaw / 90); math.Abs(yaw-q*90) < 1e-6 {
		yaw = geom.NormalizeDegrees(q * 90)
	}
	*inst.Transform = geom.Compose(inst.Position(), mgl64.DegToRad(yaw), mgl64.Ident4())
	if phys, ok := e.comps.Physics.Get(e.held); ok {
		phys.Sync()
	}
	if tile, ok := e.comps.Tiles.Get(e.held); ok {
		tile.YRotation = yaw
	}
	return nil
}

// Commit places the held tile in the cell it sits on. If that cell is taken
// the tile stays held and ErrCellOccupied is returned.
func (e *Editor) Commit() (ecs.EntityID, error) {
	id, holding := e.Held()
	if !holding {
		return ecs.NoEntity, ErrNotHolding
	}
	inst, _ := e.comps.Models.Get(id)
	cell := geom.CellAt(inst.Position(), e.tileSize)
	if other, taken := e.comps.Occupant(component.CoordOf(cell)); taken && other != id {
		e.log.Warn("commit rejected",
			zap.Int("x", cell.X), zap.Int("z", cell.Z),
			zap.String("occupant", e.comps.NameOf(other)),
		)
		return ecs.NoEntity, fmt.Errorf("commit at (%d, %d): %w", cell.X, cell.Z, ErrCellOccupied)
	}

	e.preview.restore(inst)
	if phys, ok := e.comps.Physics.Get(id); ok {
		e.physics.AddToWorld(phys)
	}
	e.finish(id, cell)
	e.held = ecs.NoEntity
	e.state = Idle
	e.log.Debug("tile committed", zap.Int("x", cell.X), zap.Int("z", cell.Z))
	return id, nil
}

// finish marks id as a committed tile at cell.
func (e *Editor) finish(id ecs.EntityID, cell geom.Cell) {
	e.comps.Coords.Set(id, &component.Coord2{X: cell.X, Z: cell.Z})
	if tile, ok := e.comps.Tiles.Get(id); ok {
		tile.X, tile.Z = cell.X, cell.Z
	}
	if name, ok := e.comps.Names.Get(id); !ok || name.Value == factory.HeldTileName {
		e.comps.Names.Set(id, &component.Name{Value: fmt.Sprintf("tile %d", e.named)})
		e.named++
	}
}

// Cancel destroys the held tile.
func (e *Editor) Cancel() error {
	id, holding := e.Held()
	if !holding {
		return ErrNotHolding
	}
	e.held = ecs.NoEntity
	e.state = Idle
	e.preview.saved = e.preview.saved[:0]
	e.comps.World.Destroy(id)
	return nil
}

// Place creates and commits a tile directly, without holding it.
func (e *Editor) Place(model string, cell geom.Cell, yawDeg float64) (ecs.EntityID, error) {
	if other, taken := e.comps.Occupant(component.CoordOf(cell)); taken {
		return ecs.NoEntity, fmt.Errorf("place at (%d, %d) occupied by %q: %w",
			cell.X, cell.Z, e.comps.NameOf(other), ErrCellOccupied)
	}
	id, err := e.factory.Tile(model, cell, yawDeg)
	if err != nil {
		return ecs.NoEntity, err
	}
	e.finish(id, cell)
	return id, nil
}

// Tiles lists the committed tiles in iteration order.
func (e *Editor) Tiles() []ecs.EntityID {
	return e.comps.World.Query(e.comps.Committed)
}

// Clear cancels any held tile and destroys every committed tile.
func (e *Editor) Clear() int {
	if _, holding := e.Held(); holding {
		_ = e.Cancel()
	}
	ids := e.Tiles()
	for _, id := range ids {
		e.comps.World.Destroy(id)
	}
	return len(ids)
}

// validate drops a held entity that was destroyed behind the editor's back.
func (e *Editor) validate() {
	if e.state == Holding && !e.comps.World.Alive(e.held) {
		e.log.Warn("held tile vanished", zap.Uint64("entity", uint64(e.held)))
		e.held = ecs.NoEntity
		e.state = Idle
		e.preview.saved = e.preview.saved[:0]
	}
}
