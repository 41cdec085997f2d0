package editor

import (
	"math/rand"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridforge/editor/internal/component"
	"github.com/gridforge/editor/internal/core/ecs"
	"github.com/gridforge/editor/internal/core/event"
	"github.com/gridforge/editor/internal/data"
	"github.com/gridforge/editor/internal/factory"
	"github.com/gridforge/editor/internal/geom"
	"github.com/gridforge/editor/internal/physics"
	"github.com/gridforge/editor/internal/physics/simple"
	"github.com/gridforge/editor/internal/provider"
)

const testPack = `
model_pack:
  prefix: minigolf/
  suffix: .g3dj
  default: straight
  models:
    - name: straight
    - name: block
      height: 0.5
    - name: side
      walls: true
`

type rig struct {
	comps   *component.Components
	backend *simple.Backend
	bus     *event.Bus
	physics *physics.World
	factory *factory.Factory
	camera  *OrthoCamera
	editor  *Editor
}

func newRig(t *testing.T) *rig {
	t.Helper()
	log := zap.NewNop()
	pack, err := data.ParseModelPack([]byte(testPack))
	require.NoError(t, err)

	comps := component.New(ecs.NewWorld())
	backend := simple.New(simple.DefaultConfig())
	bus := event.NewBus()
	pw := physics.NewWorld(comps.World, comps.Physics, backend, bus, physics.DefaultConfig(), log)
	shapes, err := provider.NewShapeProvider(backend, log)
	require.NoError(t, err)
	models := provider.NewModelProvider(provider.TileLoader(pack), log)
	f := factory.New(comps, models, shapes, backend, pack, factory.DefaultConfig(), log)
	cam := NewOrthoCamera(1280, 720, 0.1, 100)

	return &rig{
		comps:   comps,
		backend: backend,
		bus:     bus,
		physics: pw,
		factory: f,
		camera:  cam,
		editor:  New(comps, pw, f, cam, pack, "", log),
	}
}

// screen returns the screen point over the center of cell.
func (r *rig) screen(x, z int) (float64, float64) {
	return r.camera.ScreenOf(geom.Cell{X: x, Z: z}.Center(r.editor.TileSize()))
}

func (r *rig) coordsOf(id ecs.EntityID) (component.Coord2, bool) {
	c, ok := r.comps.Coords.Get(id)
	if !ok {
		return component.Coord2{}, false
	}
	return *c, true
}

func (r *rig) state(id ecs.EntityID) physics.BodyState {
	c, _ := r.comps.Physics.Get(id)
	return c.Body.State()
}

func TestPickAndCommit(t *testing.T) {
	r := newRig(t)
	e := r.editor

	cell, err := e.CellAt(890, 310)
	require.NoError(t, err)
	require.Equal(t, geom.Cell{X: 2, Z: -1}, cell)

	id, err := e.Pick(890, 310)
	require.NoError(t, err)
	require.Equal(t, Holding, e.State())
	held, ok := e.Held()
	require.True(t, ok)
	require.Equal(t, id, held)
	require.Equal(t, physics.BodyUnregistered, r.state(id))
	tile, _ := r.comps.Tiles.Get(id)
	require.Equal(t, 2, tile.X)
	require.Equal(t, -1, tile.Z)
	require.Equal(t, "straight", tile.Model)

	committed, err := e.Commit()
	require.NoError(t, err)
	require.Equal(t, id, committed)
	require.Equal(t, Idle, e.State())

	coord, ok := r.coordsOf(id)
	require.True(t, ok)
	require.Equal(t, component.Coord2{X: 2, Z: -1}, coord)
	require.Equal(t, physics.BodyInWorld, r.state(id))
	require.Equal(t, "tile 0", r.comps.NameOf(id))

	rows := r.comps.Named()
	require.Len(t, rows, 1)
	require.Equal(t, &component.Coord2{X: 2, Z: -1}, rows[0].Coord)
}

func TestRepickOccupiedCell(t *testing.T) {
	r := newRig(t)
	e := r.editor
	sx, sy := r.screen(0, 0)

	first, err := e.Pick(sx, sy)
	require.NoError(t, err)
	_, err = e.Commit()
	require.NoError(t, err)

	again, err := e.Pick(sx, sy)
	require.NoError(t, err)
	require.Equal(t, first, again)
	_, occupied := r.comps.Occupant(component.Coord2{})
	require.False(t, occupied, "held tiles free their cell")
	require.Equal(t, physics.BodyUnregistered, r.state(first))
	require.Equal(t, 1, r.comps.World.Len())

	_, err = e.Commit()
	require.NoError(t, err)
	require.Equal(t, "tile 0", r.comps.NameOf(first), "names persist across edits")
	id, occupied := r.comps.Occupant(component.Coord2{})
	require.True(t, occupied)
	require.Equal(t, first, id)
}

func TestPickWhileHoldingIsNoop(t *testing.T) {
	r := newRig(t)
	e := r.editor
	id, err := e.Pick(r.screen(1, 1))
	require.NoError(t, err)

	other, err := e.Pick(r.screen(5, 5))
	require.NoError(t, err)
	require.Equal(t, id, other)
	require.Equal(t, 1, r.comps.World.Len())
}

func TestDragSnapsRenderAndBody(t *testing.T) {
	r := newRig(t)
	e := r.editor
	id, err := e.Pick(r.screen(0, 0))
	require.NoError(t, err)

	// off-center point inside cell (3, -2)
	require.NoError(t, e.Drag(r.camera.ScreenOf(mgl64.Vec3{31, 0, -19})))
	inst, _ := r.comps.Models.Get(id)
	require.Equal(t, mgl64.Vec3{35, 0, -15}, inst.Position())

	phys, _ := r.comps.Physics.Get(id)
	require.Equal(t, mgl64.Vec3{35, 0, -15}, geom.Translation(phys.Body.WorldTransform()))
	tile, _ := r.comps.Tiles.Get(id)
	require.Equal(t, 3, tile.X)
	require.Equal(t, -2, tile.Z)

	_, err = e.Commit()
	require.NoError(t, err)
	coord, _ := r.coordsOf(id)
	require.Equal(t, component.Coord2{X: 3, Z: -2}, coord)
}

func TestRotation(t *testing.T) {
	r := newRig(t)
	e := r.editor
	id, err := e.Pick(r.screen(4, 2))
	require.NoError(t, err)
	inst, _ := r.comps.Models.Get(id)
	phys, _ := r.comps.Physics.Get(id)
	start := *inst.Transform
	startBody := phys.Body.WorldTransform()

	t.Run("four quarter turns are identity", func(t *testing.T) {
		for i := 0; i < 4; i++ {
			require.NoError(t, e.RotateCW())
		}
		require.True(t, inst.Transform.ApproxEqualThreshold(start, 1e-9))
		require.True(t, phys.Body.WorldTransform().ApproxEqualThreshold(startBody, 1e-9))
	})

	t.Run("directions", func(t *testing.T) {
		require.NoError(t, e.RotateCW())
		tile, _ := r.comps.Tiles.Get(id)
		require.Equal(t, 270.0, tile.YRotation)
		require.NoError(t, e.RotateCCW())
		require.NoError(t, e.RotateCCW())
		require.Equal(t, 90.0, tile.YRotation)
		require.InDelta(t, 90, geom.YawDegrees(phys.Body.WorldTransform()), 1e-9)
	})

	t.Run("position is preserved", func(t *testing.T) {
		for i := 0; i < 37; i++ {
			require.NoError(t, e.RotateCCW())
		}
		require.Equal(t, geom.Translation(start), inst.Position())
	})

	t.Run("axis correction survives", func(t *testing.T) {
		want := inst.Transform.Mul4(geom.AxisCorrection)
		require.True(t, phys.Body.WorldTransform().ApproxEqualThreshold(want, 1e-9))
	})
}

func TestCommitOntoOccupiedCellKeepsHolding(t *testing.T) {
	r := newRig(t)
	e := r.editor
	placed, err := e.Place("block", geom.Cell{X: 3, Z: 3}, 0)
	require.NoError(t, err)

	id, err := e.Pick(r.screen(1, 1))
	require.NoError(t, err)
	require.NoError(t, e.Drag(r.screen(3, 3)))

	_, err = e.Commit()
	require.ErrorIs(t, err, ErrCellOccupied)
	require.Equal(t, Holding, e.State())
	held, _ := e.Held()
	require.Equal(t, id, held)
	require.False(t, r.comps.Coords.Has(id))
	require.Equal(t, physics.BodyUnregistered, r.state(id))
	inst, _ := r.comps.Models.Get(id)
	require.Equal(t, previewOpacity, inst.Materials[0].Opacity)

	require.NoError(t, e.Drag(r.screen(3, 4)))
	_, err = e.Commit()
	require.NoError(t, err)

	occupant, _ := r.comps.Occupant(component.Coord2{X: 3, Z: 3})
	require.Equal(t, placed, occupant)
}

func TestCancelDestroysHeldTile(t *testing.T) {
	r := newRig(t)
	e := r.editor
	shapesBefore := r.backend.ShapeCount()

	id, err := e.Pick(r.screen(0, 0))
	require.NoError(t, err)
	require.Equal(t, shapesBefore+1, r.backend.ShapeCount())

	require.NoError(t, e.Cancel())
	require.Equal(t, Idle, e.State())
	require.False(t, r.comps.World.Alive(id))
	require.Equal(t, shapesBefore, r.backend.ShapeCount())
	live, _ := r.backend.BodyCount()
	require.Zero(t, live)

	require.ErrorIs(t, e.Cancel(), ErrNotHolding)
	require.ErrorIs(t, e.Drag(0, 0), ErrNotHolding)
	require.ErrorIs(t, e.RotateCW(), ErrNotHolding)
	_, err = e.Commit()
	require.ErrorIs(t, err, ErrNotHolding)
}

func TestPreviewMaterialRestored(t *testing.T) {
	r := newRig(t)
	e := r.editor
	id, err := e.Pick(r.screen(0, 0))
	require.NoError(t, err)

	inst, _ := r.comps.Models.Get(id)
	for _, m := range inst.Materials {
		require.Equal(t, mgl64.Vec4{1, 1, 1, 1}, m.Diffuse)
		require.True(t, m.Blended)
		require.Equal(t, previewOpacity, m.Opacity)
	}

	_, err = e.Commit()
	require.NoError(t, err)
	require.Equal(t, inst.Mesh.Materials, inst.Materials)
}

func TestModelSelection(t *testing.T) {
	r := newRig(t)
	e := r.editor
	require.Equal(t, "straight", e.ActiveModel())
	require.Equal(t, "block", e.NextModel())
	require.Equal(t, "straight", e.PrevModel())
	require.Equal(t, "side", e.PrevModel())
	require.ErrorIs(t, e.SetActiveModel("windmill"), ErrUnknownModel)
	require.NoError(t, e.SetActiveModel("block"))

	id, err := e.Pick(r.screen(0, 0))
	require.NoError(t, err)
	tile, _ := r.comps.Tiles.Get(id)
	require.Equal(t, "block", tile.Model)
}

func TestHeldTileDestroyedElsewhere(t *testing.T) {
	r := newRig(t)
	e := r.editor
	id, err := e.Pick(r.screen(0, 0))
	require.NoError(t, err)

	r.comps.World.Destroy(id)
	_, holding := e.Held()
	require.False(t, holding)
	require.Equal(t, Idle, e.State())
}

func TestClear(t *testing.T) {
	r := newRig(t)
	e := r.editor
	for x := 0; x < 3; x++ {
		_, err := e.Place("straight", geom.Cell{X: x}, 0)
		require.NoError(t, err)
	}
	_, err := e.Pick(r.screen(9, 9))
	require.NoError(t, err)

	require.Equal(t, 3, e.Clear())
	require.Zero(t, r.comps.World.Len())
	require.Equal(t, Idle, e.State())
}

func TestCellUniquenessUnderRandomEdits(t *testing.T) {
	r := newRig(t)
	e := r.editor
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		sx, sy := r.screen(rng.Intn(4)-2, rng.Intn(4)-2)
		switch rng.Intn(6) {
		case 0, 1:
			_, _ = e.Pick(sx, sy)
		case 2:
			_ = e.Drag(sx, sy)
		case 3:
			_, _ = e.Commit()
		case 4:
			_ = e.RotateCW()
		case 5:
			if rng.Intn(4) == 0 {
				_ = e.Cancel()
			}
		}

		seen := map[component.Coord2]ecs.EntityID{}
		for _, id := range e.Tiles() {
			c, _ := r.coordsOf(id)
			_, dup := seen[c]
			require.False(t, dup, "cell %v committed twice", c)
			seen[c] = id
			require.Equal(t, physics.BodyInWorld, r.state(id))
		}
		if held, ok := e.Held(); ok {
			require.False(t, r.comps.Coords.Has(held))
			require.Equal(t, physics.BodyUnregistered, r.state(held))
		}
	}
}

func TestPointerSystem(t *testing.T) {
	r := newRig(t)
	ps := NewPointerSystem(r.editor, r.factory, zap.NewNop())

	sx, sy := r.screen(1, 2)
	ps.Push(Pointer{Kind: PointerPrimary, X: sx, Y: sy})
	require.Equal(t, Idle, r.editor.State(), "events wait for the editor phase")
	ps.Update(time.Second / 60)
	require.Equal(t, Holding, r.editor.State())

	ps.Push(Pointer{Kind: PointerRotateCCW})
	ps.Push(Pointer{Kind: PointerPrimary})
	ps.Update(time.Second / 60)
	require.Equal(t, Idle, r.editor.State())
	require.Len(t, r.editor.Tiles(), 1)

	ps.Push(Pointer{Kind: PointerSecondary})
	ps.Update(time.Second / 60)
	require.ErrorIs(t, ps.LastErr, ErrNotHolding)

	ps.Push(Pointer{Kind: PointerShoot, X: 640, Y: 360})
	ps.Update(time.Second / 60)
	require.Equal(t, 2, r.comps.World.Len())
	require.Zero(t, ps.Pending())

	ps.LastErr = nil
	ps.Push(Pointer{Kind: PointerCommit})
	ps.Update(time.Second / 60)
	require.ErrorIs(t, ps.LastErr, ErrNotHolding)

	sx, sy = r.screen(-3, 0)
	ps.Push(Pointer{Kind: PointerPick, X: sx, Y: sy})
	ps.Push(Pointer{Kind: PointerCommit})
	ps.Update(time.Second / 60)
	require.Len(t, r.editor.Tiles(), 2)
	id, ok := r.comps.Occupant(component.Coord2{X: -3, Z: 0})
	require.True(t, ok)
	require.Equal(t, "tile 1", r.comps.NameOf(id))
}

func TestSpawner(t *testing.T) {
	r := newRig(t)
	s := NewSpawner(r.factory, 500*time.Millisecond, 15, zap.NewNop())

	s.Update(time.Second)
	require.Zero(t, s.Spawned(), "disabled by default")

	require.True(t, s.Toggle())
	for i := 0; i < 60; i++ {
		s.Update(time.Second / 60)
	}
	require.Equal(t, 1, s.Spawned())
	require.Equal(t, 1, r.comps.World.Len())
	require.Equal(t, 15.0, s.Position().Y())

	for i := 0; i < 30; i++ {
		s.Update(time.Second / 60)
	}
	require.Equal(t, 2, s.Spawned())
	require.False(t, s.Toggle())
}

func TestHighlighterTintsGroundContactsNextFrame(t *testing.T) {
	r := newRig(t)
	h := NewHighlighter(r.comps, r.bus)
	_, err := r.factory.Floor()
	require.NoError(t, err)
	crate, err := r.factory.Crate(mgl64.Vec3{0, .53, 0})
	require.NoError(t, err)
	inst, _ := r.comps.Models.Get(crate)

	r.physics.Update(time.Second / 60)
	h.Update(0)
	require.False(t, h.Lit(crate))

	r.bus.SwapBuffers()
	r.bus.DispatchAll()
	h.Update(0)
	require.True(t, h.Lit(crate))
	require.Equal(t, HighlightTint, inst.Tint)

	// no contacts in the next frame clears the tint
	r.bus.SwapBuffers()
	r.bus.DispatchAll()
	h.Update(0)
	require.False(t, h.Lit(crate))
	require.Equal(t, mgl64.Vec4{}, inst.Tint)
}

func TestOrthoCameraPickRay(t *testing.T) {
	cam := NewOrthoCamera(1280, 720, 0.1, 100)
	ray := cam.PickRay(890, 310)
	hit, ok := ray.IntersectPlaneY(0)
	require.True(t, ok)
	require.InDelta(t, 25, hit.X(), 1e-9)
	require.InDelta(t, -5, hit.Z(), 1e-9)

	sx, sy := cam.ScreenOf(hit)
	require.InDelta(t, 890, sx, 1e-9)
	require.InDelta(t, 310, sy, 1e-9)
}
