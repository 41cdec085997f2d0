package system

import (
	"time"

	"github.com/gridforge/editor/internal/core/ecs"
	"github.com/gridforge/editor/internal/core/event"
	coresys "github.com/gridforge/editor/internal/core/system"
)

// FlushSystem applies deferred destroys, then delivers the events emitted
// during the previous frame. Phase 1 (Flush).
type FlushSystem struct {
	world *ecs.World
	bus   *event.Bus
}

func NewFlushSystem(world *ecs.World, bus *event.Bus) *FlushSystem {
	return &FlushSystem{world: world, bus: bus}
}

func (s *FlushSystem) Phase() coresys.Phase { return coresys.PhaseFlush }

func (s *FlushSystem) Update(_ time.Duration) {
	s.world.FlushDestroyQueue()
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
