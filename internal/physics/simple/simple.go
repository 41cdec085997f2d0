// Package simple is a small deterministic rigid-body backend: point-mass
// integration and axis-aligned box contacts. Bodies never rotate.
package simple

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gridforge/editor/internal/geom"
	"github.com/gridforge/editor/internal/physics"
)

// margin gives flat shapes a thickness so thin ground planes still collide.
const margin = 0.04

type shape struct {
	def      physics.ShapeDef
	min, max mgl64.Vec3
	scale    mgl64.Vec3
}

type body struct {
	handle    physics.BodyHandle
	shape     physics.ShapeHandle
	invMass   float64
	motion    physics.MotionState
	transform mgl64.Mat4
	velocity  mgl64.Vec3
	group     uint16
	mask      uint16
	inWorld   bool
}

func (b *body) dynamic() bool { return b.invMass > 0 }

// Config tunes the backend.
type Config struct {
	Gravity     mgl64.Vec3
	Restitution float64
	Friction    float64 // fraction of tangential velocity lost per contact step
}

func DefaultConfig() Config {
	return Config{Gravity: mgl64.Vec3{0, -10, 0}, Restitution: 0.2, Friction: 0.05}
}

// Backend implements physics.Backend. Not safe for concurrent use.
type Backend struct {
	cfg       Config
	shapes    map[physics.ShapeHandle]*shape
	bodies    map[physics.BodyHandle]*body
	active    []*body // in-world bodies in insertion order
	nextShape physics.ShapeHandle
	nextBody  physics.BodyHandle
	contacts  []physics.Contact
	closed    bool
}

var _ physics.Backend = (*Backend)(nil)

func New(cfg Config) *Backend {
	return &Backend{
		cfg:    cfg,
		shapes: make(map[physics.ShapeHandle]*shape),
		bodies: make(map[physics.BodyHandle]*body),
	}
}

func (b *Backend) CreateShape(def physics.ShapeDef) (physics.ShapeHandle, error) {
	if b.closed {
		return 0, fmt.Errorf("backend closed")
	}
	if err := def.Validate(); err != nil {
		return 0, err
	}
	b.nextShape++
	min, max := def.LocalBounds()
	b.shapes[b.nextShape] = &shape{def: def, min: min, max: max, scale: mgl64.Vec3{1, 1, 1}}
	return b.nextShape, nil
}

func (b *Backend) SetShapeScaling(h physics.ShapeHandle, scale mgl64.Vec3) {
	if s, ok := b.shapes[h]; ok {
		s.scale = scale
	}
}

func (b *Backend) DisposeShape(h physics.ShapeHandle) { delete(b.shapes, h) }

func (b *Backend) CreateBody(info physics.BodyInfo) (physics.BodyHandle, error) {
	if b.closed {
		return 0, fmt.Errorf("backend closed")
	}
	if _, ok := b.shapes[info.Shape]; !ok {
		return 0, fmt.Errorf("unknown shape handle %d", info.Shape)
	}
	b.nextBody++
	bd := &body{
		handle:    b.nextBody,
		shape:     info.Shape,
		motion:    info.Motion,
		transform: info.Transform,
		group:     info.Group,
		mask:      info.Mask,
	}
	if info.Mass > 0 {
		bd.invMass = 1 / info.Mass
	}
	if bd.motion != nil {
		bd.transform = bd.motion.WorldTransform()
	}
	b.bodies[bd.handle] = bd
	return bd.handle, nil
}

func (b *Backend) DisposeBody(h physics.BodyHandle) {
	b.RemoveBody(h)
	delete(b.bodies, h)
}

func (b *Backend) AddBody(h physics.BodyHandle) {
	bd, ok := b.bodies[h]
	if !ok || bd.inWorld {
		return
	}
	if bd.motion != nil {
		bd.transform = bd.motion.WorldTransform()
	}
	bd.inWorld = true
	b.active = append(b.active, bd)
}

func (b *Backend) RemoveBody(h physics.BodyHandle) {
	bd, ok := b.bodies[h]
	if !ok || !bd.inWorld {
		return
	}
	bd.inWorld = false
	for i, a := range b.active {
		if a == bd {
			b.active = append(b.active[:i], b.active[i+1:]...)
			break
		}
	}
}

func (b *Backend) WorldTransform(h physics.BodyHandle) mgl64.Mat4 {
	if bd, ok := b.bodies[h]; ok {
		return bd.transform
	}
	return mgl64.Ident4()
}

func (b *Backend) SetWorldTransform(h physics.BodyHandle, m mgl64.Mat4) {
	if bd, ok := b.bodies[h]; ok {
		bd.transform = m
	}
}

func (b *Backend) ApplyCentralImpulse(h physics.BodyHandle, impulse mgl64.Vec3) {
	if bd, ok := b.bodies[h]; ok && bd.dynamic() {
		bd.velocity = bd.velocity.Add(impulse.Mul(bd.invMass))
	}
}

func (b *Backend) LinearVelocity(h physics.BodyHandle) mgl64.Vec3 {
	if bd, ok := b.bodies[h]; ok {
		return bd.velocity
	}
	return mgl64.Vec3{}
}

// BodyCount returns the number of live bodies and how many are in the world.
func (b *Backend) BodyCount() (live, inWorld int) { return len(b.bodies), len(b.active) }

// ShapeCount returns the number of live shapes.
func (b *Backend) ShapeCount() int { return len(b.shapes) }

func (b *Backend) Step(dt float64, subSteps int) {
	if b.closed || dt <= 0 {
		return
	}
	if subSteps < 1 {
		subSteps = 1
	}
	h := dt / float64(subSteps)
	for _, bd := range b.active {
		if !bd.dynamic() && bd.motion != nil {
			bd.transform = bd.motion.WorldTransform()
		}
	}
	touching := make(map[[2]physics.BodyHandle]physics.Contact)
	for i := 0; i < subSteps; i++ {
		b.integrate(h)
		b.collide(touching)
	}
	for _, bd := range b.active {
		if bd.dynamic() && bd.motion != nil {
			bd.motion.SetWorldTransform(bd.transform)
		}
	}
	b.contacts = b.contacts[:0]
	for _, c := range touching {
		b.contacts = append(b.contacts, c)
	}
	sort.Slice(b.contacts, func(i, j int) bool {
		if b.contacts[i].A != b.contacts[j].A {
			return b.contacts[i].A < b.contacts[j].A
		}
		return b.contacts[i].B < b.contacts[j].B
	})
}

func (b *Backend) Contacts() []physics.Contact { return b.contacts }

func (b *Backend) Close() {
	b.closed = true
	b.active = nil
	b.contacts = nil
	clear(b.bodies)
	clear(b.shapes)
}

func (b *Backend) integrate(h float64) {
	for _, bd := range b.active {
		if !bd.dynamic() {
			continue
		}
		bd.velocity = bd.velocity.Add(b.cfg.Gravity.Mul(h))
		pos := geom.Translation(bd.transform).Add(bd.velocity.Mul(h))
		bd.transform[12], bd.transform[13], bd.transform[14] = pos[0], pos[1], pos[2]
	}
}

func (b *Backend) collide(touching map[[2]physics.BodyHandle]physics.Contact) {
	for i := 0; i < len(b.active); i++ {
		for j := i + 1; j < len(b.active); j++ {
			x, y := b.active[i], b.active[j]
			if !x.dynamic() && !y.dynamic() {
				continue
			}
			normal, depth, ok := b.overlap(x, y)
			if !ok {
				continue
			}
			b.resolve(x, y, normal, depth)
			if x.group&y.mask == 0 && y.group&x.mask == 0 {
				continue
			}
			a, c := x, y
			n := normal
			if c.handle < a.handle {
				a, c, n = c, a, normal.Mul(-1)
			}
			touching[[2]physics.BodyHandle{a.handle, c.handle}] = physics.Contact{A: a.handle, B: c.handle, Normal: n, Depth: depth}
		}
	}
}

// overlap returns the separating axis of least penetration, pointing from x to y.
func (b *Backend) overlap(x, y *body) (mgl64.Vec3, float64, bool) {
	xmin, xmax := b.bounds(x)
	ymin, ymax := b.bounds(y)
	best, axis := math.Inf(1), -1
	sign := 1.0
	for i := 0; i < 3; i++ {
		d1 := xmax[i] - ymin[i]
		d2 := ymax[i] - xmin[i]
		if d1 <= 0 || d2 <= 0 {
			return mgl64.Vec3{}, 0, false
		}
		if d1 < best {
			best, axis, sign = d1, i, 1
		}
		if d2 < best {
			best, axis, sign = d2, i, -1
		}
	}
	var n mgl64.Vec3
	n[axis] = sign
	return n, best, true
}

func (b *Backend) resolve(x, y *body, n mgl64.Vec3, depth float64) {
	total := x.invMass + y.invMass
	if total == 0 {
		return
	}
	move(x, n.Mul(-depth*x.invMass/total))
	move(y, n.Mul(depth*y.invMass/total))

	rel := y.velocity.Sub(x.velocity).Dot(n)
	if rel >= 0 {
		return
	}
	j := -(1 + b.cfg.Restitution) * rel / total
	x.velocity = x.velocity.Sub(n.Mul(j * x.invMass))
	y.velocity = y.velocity.Add(n.Mul(j * y.invMass))
	for _, bd := range []*body{x, y} {
		if !bd.dynamic() {
			continue
		}
		vn := n.Mul(bd.velocity.Dot(n))
		vt := bd.velocity.Sub(vn).Mul(1 - b.cfg.Friction)
		bd.velocity = vn.Add(vt)
	}
}

// bounds returns the world-space AABB of a body's scaled shape.
func (b *Backend) bounds(bd *body) (mgl64.Vec3, mgl64.Vec3) {
	s, ok := b.shapes[bd.shape]
	if !ok {
		p := geom.Translation(bd.transform)
		return p, p
	}
	var center, half mgl64.Vec3
	for i := 0; i < 3; i++ {
		lo, hi := s.min[i]*s.scale[i], s.max[i]*s.scale[i]
		if lo > hi {
			lo, hi = hi, lo
		}
		center[i] = (lo + hi) / 2
		half[i] = math.Max((hi-lo)/2, margin)
	}
	m := bd.transform
	wc := m.Mul4x1(center.Vec4(1)).Vec3()
	var wh mgl64.Vec3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			wh[row] += math.Abs(m.At(row, col)) * half[col]
		}
	}
	return wc.Sub(wh), wc.Add(wh)
}

func move(bd *body, d mgl64.Vec3) {
	if !bd.dynamic() {
		return
	}
	bd.transform[12] += d[0]
	bd.transform[13] += d[1]
	bd.transform[14] += d[2]
}
