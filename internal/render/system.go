package render

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/gridforge/editor/internal/core/ecs"
	"github.com/gridforge/editor/internal/core/system"
)

// Submitter receives one call per visible instance, then Present once per frame.
type Submitter interface {
	Submit(mesh *Mesh, transform mgl64.Mat4, materials []Material, tint mgl64.Vec4)
	Present()
}

// System submits every model instance in the render phase.
type System struct {
	store *ecs.Store[Instance]
	out   Submitter
}

func NewSystem(store *ecs.Store[Instance], out Submitter) *System {
	return &System{store: store, out: out}
}

func (s *System) Phase() system.Phase { return system.PhaseRender }

func (s *System) Update(_ time.Duration) {
	s.store.Each(func(_ ecs.EntityID, inst *Instance) {
		if inst.Mesh == nil || inst.Mesh.Disposed() {
			return
		}
		s.out.Submit(inst.Mesh, inst.Matrix(), inst.Materials, inst.Tint)
	})
	s.out.Present()
}

// StatsSubmitter is the headless renderer: it counts what would be drawn.
type StatsSubmitter struct {
	Frames      int
	LastFrame   int
	Submissions int
	ByNode      map[string]int

	current int
	every   int
	log     *zap.Logger
}

// NewStatsSubmitter logs a frame summary every n frames; n <= 0 disables it.
func NewStatsSubmitter(every int, log *zap.Logger) *StatsSubmitter {
	return &StatsSubmitter{ByNode: make(map[string]int), every: every, log: log}
}

func (s *StatsSubmitter) Submit(mesh *Mesh, _ mgl64.Mat4, _ []Material, _ mgl64.Vec4) {
	s.current++
	s.Submissions++
	s.ByNode[mesh.Node]++
}

func (s *StatsSubmitter) Present() {
	s.Frames++
	s.LastFrame = s.current
	s.current = 0
	if s.every > 0 && s.Frames%s.every == 0 {
		s.log.Debug("render frame",
			zap.Int("frame", s.Frames),
			zap.Int("instances", s.LastFrame),
		)
	}
}
