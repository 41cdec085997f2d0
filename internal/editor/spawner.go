package editor

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/gridforge/editor/internal/core/system"
	"github.com/gridforge/editor/internal/factory"
	"github.com/gridforge/editor/internal/geom"
)

// Spawner drops crates on a spiral while enabled.
type Spawner struct {
	factory  *factory.Factory
	interval time.Duration
	height   float64
	log      *zap.Logger

	enabled bool
	timer   time.Duration
	angle   float64
	spawned int
}

func NewSpawner(f *factory.Factory, interval time.Duration, height float64, log *zap.Logger) *Spawner {
	return &Spawner{factory: f, interval: interval, height: height, log: log, timer: interval}
}

func (s *Spawner) Phase() system.Phase { return system.PhaseUpdate }
func (s *Spawner) Enabled() bool       { return s.enabled }
func (s *Spawner) Spawned() int        { return s.spawned }

// Toggle flips spawning and returns the new setting.
func (s *Spawner) Toggle() bool {
	s.enabled = !s.enabled
	return s.enabled
}

// Position is the current spawn point.
func (s *Spawner) Position() mgl64.Vec3 {
	amplitude := geom.SinDegXform(s.angle, 0, 20, 2, 0)
	return mgl64.Vec3{
		geom.SinDegXform(s.angle, 0, amplitude, 20, 0),
		s.height,
		geom.CosDegXform(s.angle, 0, amplitude, 20, 0),
	}
}

func (s *Spawner) Update(dt time.Duration) {
	if !s.enabled {
		return
	}
	s.angle += dt.Seconds()
	s.timer -= dt
	if s.timer > 0 {
		return
	}
	s.timer = s.interval
	if _, err := s.factory.Crate(s.Position()); err != nil {
		s.log.Error("spawn crate", zap.Error(err))
		return
	}
	s.spawned++
}
