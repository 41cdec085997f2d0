package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyState tracks a body's membership in the simulation.
type BodyState uint8

const (
	BodyUnregistered BodyState = iota
	BodyInWorld
	BodyRemoved
)

func (s BodyState) String() string {
	switch s {
	case BodyUnregistered:
		return "unregistered"
	case BodyInWorld:
		return "in-world"
	case BodyRemoved:
		return "removed"
	}
	return fmt.Sprintf("BodyState(%d)", s)
}

// Body is a rigid body created on a backend. Registration is driven by World.
type Body struct {
	backend  Backend
	handle   BodyHandle
	shape    *Shape
	mass     float64
	group    uint16
	mask     uint16
	state    BodyState
	disposed bool
	motion   MotionState
}

func newBody(backend Backend, shape *Shape, info BodyInfo) (*Body, error) {
	if shape == nil || shape.Disposed() {
		return nil, fmt.Errorf("create body: shape is missing or disposed")
	}
	if info.Mass < 0 {
		return nil, fmt.Errorf("create body: negative mass %v", info.Mass)
	}
	info.Shape = shape.Handle()
	h, err := backend.CreateBody(info)
	if err != nil {
		return nil, fmt.Errorf("create body on %q: %w", shape.Key(), err)
	}
	shape.retain()
	return &Body{
		backend: backend,
		handle:  h,
		shape:   shape,
		mass:    info.Mass,
		group:   info.Group,
		mask:    info.Mask,
		motion:  info.Motion,
	}, nil
}

func (b *Body) Handle() BodyHandle { return b.handle }
func (b *Body) Shape() *Shape      { return b.shape }
func (b *Body) Mass() float64      { return b.mass }
func (b *Body) Group() uint16      { return b.group }
func (b *Body) Mask() uint16       { return b.mask }
func (b *Body) State() BodyState   { return b.state }
func (b *Body) Disposed() bool     { return b.disposed }

// Kinematic reports whether the body has zero mass.
func (b *Body) Kinematic() bool { return b.mass == 0 }

func (b *Body) WorldTransform() mgl64.Mat4 {
	return b.backend.WorldTransform(b.handle)
}

func (b *Body) SetWorldTransform(m mgl64.Mat4) {
	if b.disposed {
		return
	}
	b.backend.SetWorldTransform(b.handle, m)
}

func (b *Body) ApplyCentralImpulse(impulse mgl64.Vec3) {
	if b.disposed {
		return
	}
	b.backend.ApplyCentralImpulse(b.handle, impulse)
}

func (b *Body) LinearVelocity() mgl64.Vec3 {
	return b.backend.LinearVelocity(b.handle)
}

func (b *Body) register() bool {
	if b.disposed || b.state == BodyInWorld {
		return false
	}
	b.backend.AddBody(b.handle)
	b.state = BodyInWorld
	return true
}

func (b *Body) unregister() bool {
	if b.disposed || b.state != BodyInWorld {
		return false
	}
	b.backend.RemoveBody(b.handle)
	b.state = BodyUnregistered
	return true
}

// dispose frees the body and drops its shape reference, exactly once.
func (b *Body) dispose() bool {
	if b.disposed {
		return false
	}
	b.unregister()
	b.backend.DisposeBody(b.handle)
	b.disposed = true
	b.state = BodyRemoved
	b.shape.release()
	return true
}
