package geom

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

func TestCellAt(t *testing.T) {
	require.Equal(t, Cell{X: 2, Z: -1}, CellAt(mgl64.Vec3{25, 0, -5}, 10))
	require.Equal(t, Cell{X: 0, Z: 0}, CellAt(mgl64.Vec3{0, 0, 9.99}, 10))
	require.Equal(t, Cell{X: -1, Z: -1}, CellAt(mgl64.Vec3{-0.01, 0, -10}, 10))
	require.Equal(t, mgl64.Vec3{25, 0, -5}, Cell{X: 2, Z: -1}.Center(10))
}

func TestIntersectPlaneY(t *testing.T) {
	r := Ray{Origin: mgl64.Vec3{3, 100, 4}, Direction: mgl64.Vec3{0, -1, 0}}
	p, ok := r.IntersectPlaneY(0)
	require.True(t, ok)
	require.InDelta(t, 3, p.X(), 1e-9)
	require.InDelta(t, 0, p.Y(), 1e-9)
	require.InDelta(t, 4, p.Z(), 1e-9)

	_, ok = Ray{Origin: mgl64.Vec3{0, 1, 0}, Direction: mgl64.Vec3{1, 0, 0}}.IntersectPlaneY(0)
	require.False(t, ok)
	_, ok = Ray{Origin: mgl64.Vec3{0, 1, 0}, Direction: mgl64.Vec3{0, 1, 0}}.IntersectPlaneY(0)
	require.False(t, ok)
}

func TestYawSurvivesAxisCorrection(t *testing.T) {
	for _, deg := range []float64{0, 90, 180, 270, 33} {
		yaw := mgl64.DegToRad(deg)
		m := Compose(mgl64.Vec3{1, 2, 3}, yaw, AxisCorrection)
		require.InDelta(t, deg, YawDegrees(m), 1e-9)

		scaled := Compose(mgl64.Vec3{1, 2, 3}, yaw, mgl64.Scale3D(10, 10, 10))
		require.InDelta(t, deg, YawDegrees(scaled), 1e-9)
		require.InDelta(t, 0, Translation(scaled).Sub(mgl64.Vec3{1, 2, 3}).Len(), 1e-12)
	}
}

func TestNormalizeDegrees(t *testing.T) {
	require.InDelta(t, 270, NormalizeDegrees(-90), 1e-12)
	require.InDelta(t, 0, NormalizeDegrees(360), 1e-12)
	require.InDelta(t, 0, NormalizeDegrees(-1e-12), 1e-9)
	require.InDelta(t, 45, NormalizeDegrees(765), 1e-12)
}

func TestDegXform(t *testing.T) {
	require.InDelta(t, 20, SinDegXform(45, 0, 20, 2, 0), 1e-9)
	require.InDelta(t, 5, CosDegXform(90, 5, 20, 2, 45), 1e-9)
}
