package system

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	coresys "github.com/gridforge/editor/internal/core/system"
)

// ErrStop, returned by an Exec func, stops draining for the rest of the frame.
var ErrStop = errors.New("stop input")

// Exec runs one console line.
type Exec func(ctx context.Context, line string) error

// InputSystem drains queued console lines and runs them. Phase 0 (Input).
type InputSystem struct {
	lines      <-chan string
	exec       Exec
	maxPerTick int
	log        *zap.Logger

	stopped bool
}

// NewInputSystem drains at most maxPerTick lines a frame; 0 means no limit.
func NewInputSystem(lines <-chan string, exec Exec, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{lines: lines, exec: exec, maxPerTick: maxPerTick, log: log}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Stopped reports whether an Exec func returned ErrStop. No more lines are
// drained after that.
func (s *InputSystem) Stopped() bool { return s.stopped }

func (s *InputSystem) Update(_ time.Duration) {
	for n := 0; !s.stopped && (s.maxPerTick <= 0 || n < s.maxPerTick); n++ {
		select {
		case line := <-s.lines:
			err := s.exec(context.Background(), line)
			if errors.Is(err, ErrStop) {
				s.stopped = true
				s.log.Debug("input stopped", zap.String("line", line))
			}
		default:
			return
		}
	}
}
