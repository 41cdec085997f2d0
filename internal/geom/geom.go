// Package geom holds the small amount of 3D math shared by the editor, the
// factories and the physics backend: pick rays, grid cells, and transform
// decomposition on top of mgl64.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Up is the world vertical axis.
var Up = mgl64.Vec3{0, 1, 0}

// AxisCorrection maps z-up collision geometry into the y-up world.
var AxisCorrection = mgl64.HomogRotate3DX(-math.Pi / 2)

// Ray is a half-line used for picking.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// EndPoint returns the point distance units along the ray.
func (r Ray) EndPoint(distance float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(distance))
}

// IntersectPlaneY returns where the ray crosses the horizontal plane at height y.
// Rays parallel to the plane or pointing away from it do not intersect.
func (r Ray) IntersectPlaneY(y float64) (mgl64.Vec3, bool) {
	dy := r.Direction.Y()
	if math.Abs(dy) < 1e-9 {
		return mgl64.Vec3{}, false
	}
	t := (y - r.Origin.Y()) / dy
	if t < 0 {
		return mgl64.Vec3{}, false
	}
	return r.EndPoint(t), true
}

// Cell is an integer grid coordinate on the XZ plane.
type Cell struct {
	X, Z int
}

// CellAt floor-divides a world position by the tile size.
func CellAt(p mgl64.Vec3, tileSize float64) Cell {
	return Cell{
		X: int(math.Floor(p.X() / tileSize)),
		Z: int(math.Floor(p.Z() / tileSize)),
	}
}

// Center returns the world position of the middle of the cell on the ground plane.
func (c Cell) Center(tileSize float64) mgl64.Vec3 {
	offset := tileSize / 2
	return mgl64.Vec3{float64(c.X)*tileSize + offset, 0, float64(c.Z)*tileSize + offset}
}

// Translation extracts the translation column of m.
func Translation(m mgl64.Mat4) mgl64.Vec3 {
	return mgl64.Vec3{m[12], m[13], m[14]}
}

// SetTranslation overwrites the translation column of m, leaving rotation and scale alone.
func SetTranslation(m *mgl64.Mat4, p mgl64.Vec3) {
	m[12], m[13], m[14] = p.X(), p.Y(), p.Z()
}

// Yaw returns the rotation about the vertical axis encoded in m, in radians.
// It reads the transformed X axis, so uniform scale and any rotation about
// the local X axis (such as AxisCorrection) do not disturb it.
func Yaw(m mgl64.Mat4) float64 {
	return math.Atan2(-m[2], m[0])
}

// YawDegrees is Yaw normalized to [0, 360).
func YawDegrees(m mgl64.Mat4) float64 {
	return NormalizeDegrees(mgl64.RadToDeg(Yaw(m)))
}

// NormalizeDegrees wraps an angle into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// fold values that round to a full turn back to zero
	if 360-deg < 1e-9 {
		deg = 0
	}
	return deg
}

// Compose builds translate * rotateY(yaw) * tail. The rotation is rebuilt from
// the angle rather than accumulated, so repeated edits do not drift.
func Compose(position mgl64.Vec3, yaw float64, tail mgl64.Mat4) mgl64.Mat4 {
	return mgl64.Translate3D(position.X(), position.Y(), position.Z()).
		Mul4(mgl64.HomogRotate3DY(yaw)).
		Mul4(tail)
}

// SinDegXform returns restPos + amplitude*sin(frequency*(angle-phase)), angles in degrees.
func SinDegXform(angle, restPos, amplitude, frequency, phase float64) float64 {
	return restPos + amplitude*math.Sin(mgl64.DegToRad(frequency*(angle-phase)))
}

// CosDegXform returns restPos + amplitude*cos(frequency*(angle-phase)), angles in degrees.
func CosDegXform(angle, restPos, amplitude, frequency, phase float64) float64 {
	return restPos + amplitude*math.Cos(mgl64.DegToRad(frequency*(angle-phase)))
}
