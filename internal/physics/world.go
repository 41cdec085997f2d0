package physics

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/gridforge/editor/internal/core/ecs"
	"github.com/gridforge/editor/internal/core/event"
	"github.com/gridforge/editor/internal/core/system"
)

// Config holds the simulation tunables.
type Config struct {
	MaxFrameStep time.Duration // frame deltas are clamped to this
	SubSteps     int
}

// DefaultConfig steps at most 1/30 s per frame in 4 sub-steps.
func DefaultConfig() Config {
	return Config{MaxFrameStep: time.Second / 30, SubSteps: 4}
}

// ContactEvent is emitted for every touching pair after a step. Delivered on
// the following frame.
type ContactEvent struct {
	A, B   ecs.EntityID
	Ground bool // one of the bodies is in GroupGround
}

// Stats counts simulation activity since creation.
type Stats struct {
	Steps      int
	Contacts   int
	OutOfRange int
	Disposed   int
}

// World is the physics system. It keeps backend bodies in step with the
// entities that carry a physics Component.
type World struct {
	ecs     *ecs.World
	store   *ecs.Store[Component]
	backend Backend
	bus     *event.Bus
	cfg     Config
	log     *zap.Logger

	owners map[BodyHandle]ecs.EntityID
	stats  Stats
}

// NewWorld subscribes to the physics family of store: attaching a component
// adds its body to the simulation, detaching disposes the body.
func NewWorld(w *ecs.World, store *ecs.Store[Component], backend Backend, bus *event.Bus, cfg Config, log *zap.Logger) *World {
	if cfg.SubSteps <= 0 {
		cfg.SubSteps = DefaultConfig().SubSteps
	}
	if cfg.MaxFrameStep <= 0 {
		cfg.MaxFrameStep = DefaultConfig().MaxFrameStep
	}
	pw := &World{
		ecs:     w,
		store:   store,
		backend: backend,
		bus:     bus,
		cfg:     cfg,
		log:     log,
		owners:  make(map[BodyHandle]ecs.EntityID),
	}
	w.Subscribe(store.Family(), pw.attached, pw.detached)
	store.OnReplace(pw.replaced)
	return pw
}

func (pw *World) Phase() system.Phase { return system.PhasePhysics }
func (pw *World) Backend() Backend    { return pw.backend }
func (pw *World) Stats() Stats        { return pw.stats }

func (pw *World) attached(id ecs.EntityID) {
	c, ok := pw.store.Get(id)
	if !ok || c.Body == nil {
		return
	}
	pw.owners[c.Body.Handle()] = id
	pw.AddToWorld(c)
}

func (pw *World) detached(id ecs.EntityID) {
	c, ok := pw.store.Get(id)
	if !ok {
		return
	}
	pw.release(c)
}

// replaced disposes the body of an overwritten component and registers the new one.
func (pw *World) replaced(id ecs.EntityID, old, c *Component) {
	if old != nil && (c == nil || old.Body != c.Body) {
		pw.release(old)
	}
	if c == nil || c.Body == nil {
		return
	}
	pw.owners[c.Body.Handle()] = id
	pw.AddToWorld(c)
}

func (pw *World) release(c *Component) {
	if c == nil || c.Body == nil {
		return
	}
	delete(pw.owners, c.Body.Handle())
	if c.Body.dispose() {
		pw.stats.Disposed++
	}
}

// AddToWorld registers the body with the simulation. Returns false when it
// already is, or when the body was disposed.
func (pw *World) AddToWorld(c *Component) bool {
	if c == nil || c.Body == nil {
		return false
	}
	c.Sync()
	return c.Body.register()
}

// RemoveFromWorld takes the body out of the simulation without disposing it.
func (pw *World) RemoveFromWorld(c *Component) bool {
	if c == nil || c.Body == nil {
		return false
	}
	return c.Body.unregister()
}

// Owner returns the entity a body belongs to.
func (pw *World) Owner(h BodyHandle) (ecs.EntityID, bool) {
	id, ok := pw.owners[h]
	return id, ok
}

// Update discards out-of-bounds bodies, steps the simulation by the clamped
// frame delta and publishes contacts.
func (pw *World) Update(dt time.Duration) {
	pw.store.Each(func(id ecs.EntityID, c *Component) {
		if c.OutOfBounds {
			pw.log.Debug("body out of bounds", zap.Uint64("entity", uint64(id)), zap.Float64("bounds_y", c.boundsY))
			pw.ecs.MarkForDestruction(id)
			pw.stats.OutOfRange++
		}
	})
	pw.ecs.FlushDestroyQueue()

	step := math.Min(dt.Seconds(), pw.cfg.MaxFrameStep.Seconds())
	if step <= 0 {
		return
	}
	pw.backend.Step(step, pw.cfg.SubSteps)
	pw.stats.Steps++

	for _, ct := range pw.backend.Contacts() {
		a, okA := pw.owners[ct.A]
		b, okB := pw.owners[ct.B]
		if !okA || !okB {
			continue
		}
		ground := pw.isGround(a) || pw.isGround(b)
		event.Emit(pw.bus, ContactEvent{A: a, B: b, Ground: ground})
		pw.stats.Contacts++
	}
}

func (pw *World) isGround(id ecs.EntityID) bool {
	c, ok := pw.store.Get(id)
	return ok && c.Body.Group()&GroupGround != 0
}

// Close disposes every remaining body, then the backend.
func (pw *World) Close() {
	for _, id := range pw.ecs.Query(pw.store.Family()) {
		pw.detached(id)
	}
	pw.backend.Close()
}
