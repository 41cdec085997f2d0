// Package physics wraps a rigid-body backend behind opaque handles and keeps
// body lifecycles in step with the entity world.
package physics

import "github.com/go-gl/mathgl/mgl64"

type (
	ShapeHandle uint32
	BodyHandle  uint32
)

// Contact filter groups. A pair reports a contact when either body's group
// intersects the other's mask.
const (
	GroupGround uint16 = 1 << 8
	GroupObject uint16 = 1 << 9
)

// MotionState links a body to an external transform. Backends read it for
// kinematic bodies before each step and write it for dynamic bodies after.
type MotionState interface {
	WorldTransform() mgl64.Mat4
	SetWorldTransform(mgl64.Mat4)
}

// BodyInfo is the construction info for one rigid body.
type BodyInfo struct {
	Mass      float64
	Shape     ShapeHandle
	Motion    MotionState // nil: the body owns Transform
	Transform mgl64.Mat4
	Group     uint16
	Mask      uint16
}

// Contact is one touching pair reported by the last step.
type Contact struct {
	A, B   BodyHandle
	Normal mgl64.Vec3 // from A towards B
	Depth  float64
}

// Backend is the rigid-body engine. Handles are only valid until disposed.
type Backend interface {
	CreateShape(def ShapeDef) (ShapeHandle, error)
	SetShapeScaling(h ShapeHandle, scale mgl64.Vec3)
	DisposeShape(h ShapeHandle)

	CreateBody(info BodyInfo) (BodyHandle, error)
	DisposeBody(h BodyHandle)
	AddBody(h BodyHandle)
	RemoveBody(h BodyHandle)

	WorldTransform(h BodyHandle) mgl64.Mat4
	SetWorldTransform(h BodyHandle, m mgl64.Mat4)
	ApplyCentralImpulse(h BodyHandle, impulse mgl64.Vec3)
	LinearVelocity(h BodyHandle) mgl64.Vec3

	// Step advances the simulation by dt split into subSteps fixed steps.
	Step(dt float64, subSteps int)
	// Contacts returns the pairs touching after the last Step.
	Contacts() []Contact
	Close()
}
