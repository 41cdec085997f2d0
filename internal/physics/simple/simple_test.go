package simple

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/gridforge/editor/internal/geom"
	"github.com/gridforge/editor/internal/physics"
)

type transformState struct{ m mgl64.Mat4 }

func (s *transformState) WorldTransform() mgl64.Mat4     { return s.m }
func (s *transformState) SetWorldTransform(m mgl64.Mat4) { s.m = m }

func addBody(t *testing.T, b *Backend, def physics.ShapeDef, mass float64, ms *transformState, group, mask uint16) physics.BodyHandle {
	t.Helper()
	sh, err := b.CreateShape(def)
	require.NoError(t, err)
	h, err := b.CreateBody(physics.BodyInfo{Mass: mass, Shape: sh, Motion: ms, Group: group, Mask: mask})
	require.NoError(t, err)
	b.AddBody(h)
	return h
}

func TestCrateComesToRestOnFloor(t *testing.T) {
	b := New(DefaultConfig())
	floor := &transformState{m: mgl64.Ident4()}
	crate := &transformState{m: mgl64.Translate3D(1, 5, 1)}
	all := physics.GroupGround | physics.GroupObject
	fh := addBody(t, b, physics.Rect(40, 0, 40), 0, floor, physics.GroupGround, all)
	ch := addBody(t, b, physics.Box(.5, .5, .5), 1, crate, physics.GroupObject, all)

	for i := 0; i < 120; i++ {
		b.Step(1.0/30, 5)
	}
	require.InDelta(t, margin+.5, crate.m[13], 0.05)
	require.InDelta(t, 1.0, crate.m[12], 1e-9)
	require.Equal(t, mgl64.Ident4(), floor.m, "static bodies never move")

	contacts := b.Contacts()
	require.Len(t, contacts, 1)
	require.Equal(t, fh, contacts[0].A)
	require.Equal(t, ch, contacts[0].B)
	require.Equal(t, mgl64.Vec3{0, 1, 0}, contacts[0].Normal)
}

func TestFreeFallLeavesBounds(t *testing.T) {
	b := New(DefaultConfig())
	crate := &transformState{m: mgl64.Translate3D(0, 50, 0)}
	addBody(t, b, physics.Box(.5, .5, .5), 1, crate, physics.GroupObject, physics.GroupGround)

	for i := 0; i < 200; i++ {
		b.Step(1.0/30, 5)
	}
	require.Less(t, crate.m[13], -10.0)
	require.Empty(t, b.Contacts())
}

func TestImpulseSetsVelocity(t *testing.T) {
	b := New(Config{})
	shot := &transformState{m: mgl64.Ident4()}
	h := addBody(t, b, physics.Sphere(.5), 2, shot, physics.GroupObject, 0)

	b.ApplyCentralImpulse(h, mgl64.Vec3{0, 0, 30})
	require.Equal(t, mgl64.Vec3{0, 0, 15}, b.LinearVelocity(h))

	b.Step(1, 4)
	require.InDelta(t, 15, shot.m[14], 1e-9)
}

func TestMaskFiltersContactsButNotResponse(t *testing.T) {
	b := New(DefaultConfig())
	floor := &transformState{m: mgl64.Ident4()}
	crate := &transformState{m: mgl64.Translate3D(0, 2, 0)}
	addBody(t, b, physics.Box(5, .5, 5), 0, floor, physics.GroupGround, 0)
	addBody(t, b, physics.Box(.5, .5, .5), 1, crate, physics.GroupObject, 0)

	for i := 0; i < 90; i++ {
		b.Step(1.0/30, 5)
	}
	require.InDelta(t, 1.0, crate.m[13], 0.05)
	require.Empty(t, b.Contacts())
}

func TestRemovedBodiesDoNotSimulate(t *testing.T) {
	b := New(DefaultConfig())
	crate := &transformState{m: mgl64.Translate3D(0, 5, 0)}
	h := addBody(t, b, physics.Box(.5, .5, .5), 1, crate, physics.GroupObject, 0)
	b.RemoveBody(h)

	b.Step(1.0/30, 5)
	require.InDelta(t, 5.0, crate.m[13], 1e-9)

	live, inWorld := b.BodyCount()
	require.Equal(t, 1, live)
	require.Equal(t, 0, inWorld)

	b.DisposeBody(h)
	live, _ = b.BodyCount()
	require.Equal(t, 0, live)
}

func TestKinematicBodyReadsMotionState(t *testing.T) {
	b := New(DefaultConfig())
	tile := &transformState{m: mgl64.Ident4()}
	h := addBody(t, b, physics.Box(5, .5, 5), 0, tile, physics.GroupGround, 0)

	tile.m = mgl64.Translate3D(10, 0, 0)
	b.Step(1.0/60, 1)
	require.Equal(t, tile.m, b.WorldTransform(h))
}

func TestScaledCustomShapeBounds(t *testing.T) {
	b := New(DefaultConfig())
	mesh := physics.Custom(slab())
	sh, err := b.CreateShape(mesh)
	require.NoError(t, err)
	b.SetShapeScaling(sh, mgl64.Vec3{10, 10, 10})
	h, err := b.CreateBody(physics.BodyInfo{Shape: sh, Transform: mgl64.HomogRotate3DX(-mgl64.DegToRad(90))})
	require.NoError(t, err)

	min, max := b.bounds(b.bodies[h])
	require.InDelta(t, -5, min[0], 1e-9)
	require.InDelta(t, 5, max[0], 1e-9)
	require.InDelta(t, 0, min[1], 1e-9)
	require.InDelta(t, 1, max[1], 1e-9)
}

func TestCreateBodyRejectsUnknownShape(t *testing.T) {
	b := New(DefaultConfig())
	_, err := b.CreateBody(physics.BodyInfo{Shape: 42})
	require.Error(t, err)

	b.Close()
	_, err = b.CreateShape(physics.Sphere(1))
	require.Error(t, err)
}

// slab is a z-up tile: one unit square, a tenth thick.
func slab() *geom.TriangleMesh {
	return geom.Slab(mgl64.Vec3{-.5, -.5, 0}, mgl64.Vec3{.5, .5, .1})
}
