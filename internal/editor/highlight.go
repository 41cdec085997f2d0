package editor

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/gridforge/editor/internal/component"
	"github.com/gridforge/editor/internal/core/ecs"
	"github.com/gridforge/editor/internal/core/event"
	"github.com/gridforge/editor/internal/core/system"
	"github.com/gridforge/editor/internal/physics"
)

// HighlightTint marks dynamic bodies resting on the ground.
var HighlightTint = mgl64.Vec4{1, .6, .2, 1}

// Highlighter tints dynamic bodies that touched the ground in the previous
// step. It only reads contacts from the bus, so the simulation is never
// touched from inside a contact report.
type Highlighter struct {
	comps   *component.Components
	touched map[ecs.EntityID]struct{}
	lit     map[ecs.EntityID]struct{}
}

func NewHighlighter(comps *component.Components, bus *event.Bus) *Highlighter {
	h := &Highlighter{
		comps:   comps,
		touched: make(map[ecs.EntityID]struct{}),
		lit:     make(map[ecs.EntityID]struct{}),
	}
	event.Subscribe(bus, h.onContact)
	return h
}

func (h *Highlighter) Phase() system.Phase { return system.PhaseUpdate }

// Lit reports whether id is currently tinted.
func (h *Highlighter) Lit(id ecs.EntityID) bool {
	_, ok := h.lit[id]
	return ok
}

func (h *Highlighter) onContact(e physics.ContactEvent) {
	if !e.Ground {
		return
	}
	for _, id := range []ecs.EntityID{e.A, e.B} {
		if c, ok := h.comps.Physics.Get(id); ok && !c.Body.Kinematic() {
			h.touched[id] = struct{}{}
		}
	}
}

func (h *Highlighter) Update(_ time.Duration) {
	for id := range h.lit {
		if _, still := h.touched[id]; still {
			continue
		}
		if inst, ok := h.comps.Models.Get(id); ok {
			inst.Tint = mgl64.Vec4{}
		}
	}
	for id := range h.touched {
		if inst, ok := h.comps.Models.Get(id); ok {
			inst.Tint = HighlightTint
		}
	}
	h.lit, h.touched = h.touched, h.lit
	clear(h.touched)
}
