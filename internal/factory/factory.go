// Package factory assembles the spawnable entities. Every constructor builds
// its physics component before creating the entity, so a failure never leaves
// a half-built entity behind, and attaches physics last, which registers the
// body with the physics world.
package factory

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/gridforge/editor/internal/component"
	"github.com/gridforge/editor/internal/core/ecs"
	"github.com/gridforge/editor/internal/data"
	"github.com/gridforge/editor/internal/geom"
	"github.com/gridforge/editor/internal/physics"
	"github.com/gridforge/editor/internal/provider"
	"github.com/gridforge/editor/internal/render"
)

// HeldTileName names a tile until it is committed.
const HeldTileName = "held tile"

// Config holds spawn tunables.
type Config struct {
	TileSize     float64
	FloorSize    float64
	ShotDistance float64 // spawn distance along the pick ray
	ShotImpulse  float64
	OutOfBoundsY float64
}

func DefaultConfig() Config {
	return Config{
		TileSize:     10,
		FloorSize:    80,
		ShotDistance: 2,
		ShotImpulse:  30,
		OutOfBoundsY: physics.DefaultOutOfBoundsY,
	}
}

// Factory builds entities from the providers. Counters are per factory.
type Factory struct {
	comps   *component.Components
	models  *provider.ModelProvider
	shapes  *provider.ShapeProvider
	backend physics.Backend
	pack    *data.ModelPack
	cfg     Config
	log     *zap.Logger

	crates int
	shots  int
	tiles  int
}

func New(comps *component.Components, models *provider.ModelProvider, shapes *provider.ShapeProvider,
	backend physics.Backend, pack *data.ModelPack, cfg Config, log *zap.Logger) *Factory {
	return &Factory{
		comps:   comps,
		models:  models,
		shapes:  shapes,
		backend: backend,
		pack:    pack,
		cfg:     cfg,
		log:     log,
	}
}

func (f *Factory) Config() Config { return f.cfg }

// Floor is a static patch scaled to FloorSize with a flat rect collider.
func (f *Factory) Floor() (ecs.EntityID, error) {
	mesh, err := f.models.Get(provider.NodePatch)
	if err != nil {
		return ecs.NoEntity, f.fail("floor", err)
	}
	half := f.cfg.FloorSize / 2
	shape, err := f.shapes.GetOrCreate("floor", physics.Rect(half, 0, half))
	if err != nil {
		return ecs.NoEntity, f.fail("floor", err)
	}
	inst := render.NewInstance(mesh, mgl64.Ident4())
	inst.Scale = mgl64.Vec3{f.cfg.FloorSize, 1, f.cfg.FloorSize}
	phys, err := f.physics(0, shape, inst.Transform, mgl64.Ident4())
	if err != nil {
		return ecs.NoEntity, f.fail("floor", err)
	}
	return f.assemble("floor", inst, phys), nil
}

// Origin marks the world origin. Render only.
func (f *Factory) Origin() (ecs.EntityID, error) {
	mesh, err := f.models.Get(provider.NodeAxes)
	if err != nil {
		return ecs.NoEntity, f.fail("origin", err)
	}
	return f.assemble("origin", render.NewInstance(mesh, mgl64.Ident4()), nil), nil
}

// Crate drops a unit box at position.
func (f *Factory) Crate(position mgl64.Vec3) (ecs.EntityID, error) {
	mesh, err := f.models.Get(provider.NodeCube)
	if err != nil {
		return ecs.NoEntity, f.fail("crate", err)
	}
	shape, err := f.shapes.Get(provider.ShapeBox)
	if err != nil {
		return ecs.NoEntity, f.fail("crate", err)
	}
	inst := render.NewInstance(mesh, mgl64.Translate3D(position[0], position[1], position[2]))
	setTexture(inst, "crate.png")
	phys, err := f.physics(1, shape, inst.Transform, mgl64.Ident4())
	if err != nil {
		return ecs.NoEntity, f.fail("crate", err)
	}
	name := fmt.Sprintf("crate %d", f.crates)
	f.crates++
	return f.assemble(name, inst, phys), nil
}

// Shot launches a sphere along ray, starting ShotDistance from its origin.
func (f *Factory) Shot(ray geom.Ray) (ecs.EntityID, error) {
	mesh, err := f.models.Get(provider.NodeSphere)
	if err != nil {
		return ecs.NoEntity, f.fail("shot", err)
	}
	shape, err := f.shapes.Get(provider.ShapeSphere)
	if err != nil {
		return ecs.NoEntity, f.fail("shot", err)
	}
	dir := ray.Direction.Normalize()
	pos := ray.Origin.Add(dir.Mul(f.cfg.ShotDistance))
	inst := render.NewInstance(mesh, mgl64.Translate3D(pos[0], pos[1], pos[2]))
	setTexture(inst, "metal.png")
	phys, err := f.physics(1, shape, inst.Transform, mgl64.Ident4())
	if err != nil {
		return ecs.NoEntity, f.fail("shot", err)
	}
	name := fmt.Sprintf("shot %d", f.shots)
	f.shots++
	id := f.assemble(name, inst, phys)
	phys.Body.ApplyCentralImpulse(dir.Mul(f.cfg.ShotImpulse))
	return id, nil
}

// Tile places a tile of model at cell, rotated yawDeg about the vertical axis.
// The tile carries Tile metadata but no Coord2; committing it is up to the
// caller. Its collision shape is a per-tile mesh owned by the body.
func (f *Factory) Tile(model string, cell geom.Cell, yawDeg float64) (ecs.EntityID, error) {
	if !f.pack.Has(model) {
		return ecs.NoEntity, f.fail("tile", &provider.NotFoundError{Kind: "tile model", Key: model})
	}
	mesh, err := f.models.Load(f.pack.Key(model))
	if err != nil {
		return ecs.NoEntity, f.fail("tile", err)
	}
	if mesh.Geometry == nil {
		return ecs.NoEntity, f.fail("tile", fmt.Errorf("model %q has no geometry", model))
	}
	key := fmt.Sprintf("%s-%d", model, f.tiles)
	shape, err := f.shapes.Build(key, physics.Custom(mesh.Geometry))
	if err != nil {
		return ecs.NoEntity, f.fail("tile", err)
	}
	ts := f.cfg.TileSize
	shape.SetLocalScaling(mgl64.Vec3{ts, ts, ts})

	yaw := geom.NormalizeDegrees(yawDeg)
	inst := render.NewInstance(mesh, geom.Compose(cell.Center(ts), mgl64.DegToRad(yaw), mgl64.Ident4()))
	inst.Scale = mgl64.Vec3{ts, ts, ts}
	phys, err := f.physics(0, shape, inst.Transform, geom.AxisCorrection)
	if err != nil {
		shape.Dispose()
		return ecs.NoEntity, f.fail("tile", err)
	}
	f.tiles++

	w := f.comps.World
	id := w.CreateEntity()
	f.comps.Names.Set(id, &component.Name{Value: HeldTileName})
	f.comps.Models.Set(id, inst)
	f.comps.Tiles.Set(id, &component.Tile{Model: model, X: cell.X, Z: cell.Z, YRotation: yaw})
	f.comps.Physics.Set(id, phys)
	return id, nil
}

func (f *Factory) physics(mass float64, shape *physics.Shape, xf *mgl64.Mat4, offset mgl64.Mat4) (*physics.Component, error) {
	bounds := f.cfg.OutOfBoundsY
	return physics.NewComponent(f.backend, physics.Options{
		Mass:         mass,
		Shape:        shape,
		Transform:    xf,
		Offset:       offset,
		OutOfBoundsY: &bounds,
	})
}

func (f *Factory) assemble(name string, inst *render.Instance, phys *physics.Component) ecs.EntityID {
	id := f.comps.World.CreateEntity()
	f.comps.Names.Set(id, &component.Name{Value: name})
	f.comps.Models.Set(id, inst)
	if phys != nil {
		f.comps.Physics.Set(id, phys)
	}
	return id
}

func (f *Factory) fail(kind string, err error) error {
	f.log.Error("factory failed", zap.String("kind", kind), zap.Error(err))
	return fmt.Errorf("create %s: %w", kind, err)
}

func setTexture(inst *render.Instance, texture string) {
	if len(inst.Materials) > 0 {
		inst.Materials[0].Texture = texture
	}
}
