package editor

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/gridforge/editor/internal/core/system"
	"github.com/gridforge/editor/internal/factory"
)

// PointerKind is the kind of a queued pointer event.
type PointerKind uint8

const (
	PointerPrimary   PointerKind = iota // pick when idle, commit when holding
	PointerSecondary                    // cancel
	PointerMove                         // drag
	PointerRotateCW
	PointerRotateCCW
	PointerShoot
	PointerPick   // pick only
	PointerCommit // commit only
)

// Pointer is one input event in screen coordinates.
type Pointer struct {
	Kind PointerKind
	X, Y float64
}

// PointerSystem applies queued pointer events to the editor during the
// editor phase, so input never mutates the world mid-simulation.
type PointerSystem struct {
	editor  *Editor
	factory *factory.Factory
	queue   []Pointer
	log     *zap.Logger

	// LastErr is the error of the last event that failed.
	LastErr error
}

func NewPointerSystem(e *Editor, f *factory.Factory, log *zap.Logger) *PointerSystem {
	return &PointerSystem{editor: e, factory: f, log: log}
}

func (s *PointerSystem) Phase() system.Phase { return system.PhaseEditor }

// Push queues an event for the next editor phase.
func (s *PointerSystem) Push(p Pointer) { s.queue = append(s.queue, p) }

func (s *PointerSystem) Pending() int { return len(s.queue) }

func (s *PointerSystem) Update(_ time.Duration) {
	queue := s.queue
	s.queue = nil
	for _, p := range queue {
		if err := s.apply(p); err != nil {
			s.LastErr = err
			if errors.Is(err, ErrNotHolding) {
				s.log.Debug("pointer ignored", zap.Uint8("kind", uint8(p.Kind)), zap.Error(err))
				continue
			}
			s.log.Warn("pointer event failed", zap.Uint8("kind", uint8(p.Kind)), zap.Error(err))
		}
	}
}

func (s *PointerSystem) apply(p Pointer) error {
	e := s.editor
	switch p.Kind {
	case PointerPrimary:
		if e.State() == Holding {
			_, err := e.Commit()
			return err
		}
		_, err := e.Pick(p.X, p.Y)
		return err
	case PointerPick:
		_, err := e.Pick(p.X, p.Y)
		return err
	case PointerCommit:
		_, err := e.Commit()
		return err
	case PointerSecondary:
		return e.Cancel()
	case PointerMove:
		return e.Drag(p.X, p.Y)
	case PointerRotateCW:
		return e.RotateCW()
	case PointerRotateCCW:
		return e.RotateCCW()
	case PointerShoot:
		_, err := s.factory.Shot(e.Camera().PickRay(p.X, p.Y))
		return err
	}
	return nil
}
