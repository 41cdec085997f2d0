package render

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridforge/editor/internal/core/ecs"
)

func TestInstanceCopiesMaterials(t *testing.T) {
	mesh := &Mesh{Key: "cube", Node: "cube", Materials: []Material{{ID: "m0", Opacity: 1}}}
	a := NewInstance(mesh, mgl64.Ident4())
	b := NewInstance(mesh, mgl64.Ident4())

	m, ok := a.Material("m0")
	require.True(t, ok)
	m.Opacity = .5

	require.Equal(t, .5, a.Materials[0].Opacity)
	require.Equal(t, 1.0, b.Materials[0].Opacity)
	require.Equal(t, 1.0, mesh.Materials[0].Opacity)

	_, ok = a.Material("missing")
	require.False(t, ok)
}

func TestInstanceMatrixAppliesScaleLast(t *testing.T) {
	inst := NewInstance(&Mesh{}, mgl64.Translate3D(1, 2, 3))
	inst.Scale = mgl64.Vec3{10, 10, 10}

	p := inst.Matrix().Mul4x1(mgl64.Vec4{1, 0, 0, 1})
	require.Equal(t, mgl64.Vec4{11, 2, 3, 1}, p)
	require.Equal(t, mgl64.Vec3{1, 2, 3}, inst.Position())
}

func TestMeshDisposeOnce(t *testing.T) {
	m := &Mesh{}
	require.True(t, m.Dispose())
	require.False(t, m.Dispose())
	require.True(t, m.Disposed())
}

func TestSystemSubmitsLiveInstances(t *testing.T) {
	w := ecs.NewWorld()
	store := ecs.NewStore[Instance](w, "model")
	out := NewStatsSubmitter(1, zap.NewNop())
	sys := NewSystem(store, out)

	cube := &Mesh{Node: "cube"}
	gone := &Mesh{Node: "sphere"}
	gone.Dispose()
	for _, m := range []*Mesh{cube, cube, gone} {
		store.Set(w.CreateEntity(), NewInstance(m, mgl64.Ident4()))
	}

	sys.Update(time.Second / 60)
	sys.Update(time.Second / 60)
	require.Equal(t, 2, out.Frames)
	require.Equal(t, 2, out.LastFrame)
	require.Equal(t, 4, out.Submissions)
	require.Equal(t, 4, out.ByNode["cube"])
	require.Zero(t, out.ByNode["sphere"])
}
