package editor

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/gridforge/editor/internal/geom"
)

// Camera turns screen coordinates into pick rays.
type Camera interface {
	PickRay(screenX, screenY float64) geom.Ray
	Position() mgl64.Vec3
}

// OrthoCamera looks straight down at the XZ plane. Screen y grows towards +Z.
type OrthoCamera struct {
	Width  float64
	Height float64
	Zoom   float64 // world units per pixel
	Center mgl64.Vec3
	Elev   float64
}

// NewOrthoCamera centers the view on the world origin.
func NewOrthoCamera(width, height, zoom, elevation float64) *OrthoCamera {
	return &OrthoCamera{Width: width, Height: height, Zoom: zoom, Elev: elevation}
}

func (c *OrthoCamera) PickRay(screenX, screenY float64) geom.Ray {
	x := c.Center.X() + (screenX-c.Width/2)*c.Zoom
	z := c.Center.Z() + (screenY-c.Height/2)*c.Zoom
	return geom.Ray{
		Origin:    mgl64.Vec3{x, c.Center.Y() + c.Elev, z},
		Direction: mgl64.Vec3{0, -1, 0},
	}
}

func (c *OrthoCamera) Position() mgl64.Vec3 {
	return c.Center.Add(mgl64.Vec3{0, c.Elev, 0})
}

// ScreenOf is the inverse of PickRay for a point on the ground.
func (c *OrthoCamera) ScreenOf(p mgl64.Vec3) (float64, float64) {
	return (p.X()-c.Center.X())/c.Zoom + c.Width/2, (p.Z()-c.Center.Z())/c.Zoom + c.Height/2
}
