package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// recorder is a Backend that records every call.
type recorder struct {
	nextShape ShapeHandle
	nextBody  BodyHandle

	shapesDisposed map[ShapeHandle]int
	bodiesDisposed map[BodyHandle]int
	added          map[BodyHandle]int
	removed        map[BodyHandle]int
	infos          map[BodyHandle]BodyInfo
	transforms     map[BodyHandle]mgl64.Mat4
	impulses       map[BodyHandle]mgl64.Vec3
	scales         map[ShapeHandle]mgl64.Vec3

	steps    []float64
	subSteps []int
	contacts []Contact
	onStep   func(r *recorder)
	closed   bool
}

func newRecorder() *recorder {
	return &recorder{
		shapesDisposed: map[ShapeHandle]int{},
		bodiesDisposed: map[BodyHandle]int{},
		added:          map[BodyHandle]int{},
		removed:        map[BodyHandle]int{},
		infos:          map[BodyHandle]BodyInfo{},
		transforms:     map[BodyHandle]mgl64.Mat4{},
		impulses:       map[BodyHandle]mgl64.Vec3{},
		scales:         map[ShapeHandle]mgl64.Vec3{},
	}
}

func (r *recorder) CreateShape(ShapeDef) (ShapeHandle, error) {
	r.nextShape++
	return r.nextShape, nil
}

func (r *recorder) SetShapeScaling(h ShapeHandle, s mgl64.Vec3) { r.scales[h] = s }
func (r *recorder) DisposeShape(h ShapeHandle)                  { r.shapesDisposed[h]++ }

func (r *recorder) CreateBody(info BodyInfo) (BodyHandle, error) {
	r.nextBody++
	r.infos[r.nextBody] = info
	r.transforms[r.nextBody] = info.Transform
	return r.nextBody, nil
}

func (r *recorder) DisposeBody(h BodyHandle) { r.bodiesDisposed[h]++ }
func (r *recorder) AddBody(h BodyHandle)     { r.added[h]++ }
func (r *recorder) RemoveBody(h BodyHandle)  { r.removed[h]++ }

func (r *recorder) WorldTransform(h BodyHandle) mgl64.Mat4           { return r.transforms[h] }
func (r *recorder) SetWorldTransform(h BodyHandle, m mgl64.Mat4)     { r.transforms[h] = m }
func (r *recorder) ApplyCentralImpulse(h BodyHandle, imp mgl64.Vec3) { r.impulses[h] = imp }
func (r *recorder) LinearVelocity(h BodyHandle) mgl64.Vec3           { return r.impulses[h] }

func (r *recorder) Step(dt float64, subSteps int) {
	r.steps = append(r.steps, dt)
	r.subSteps = append(r.subSteps, subSteps)
	if r.onStep != nil {
		r.onStep(r)
	}
}

func (r *recorder) Contacts() []Contact { return r.contacts }
func (r *recorder) Close()              { r.closed = true }
