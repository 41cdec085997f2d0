package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseInput   Phase = iota // 0: drain console and pointer queues
	PhaseFlush                // 1: deferred destroys, last frame's events
	PhaseUpdate               // 2: spawners and other gameplay logic
	PhasePhysics              // 3: simulation step
	PhaseEditor               // 4: tile editor transitions
	PhaseRender               // 5: render submission
)

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

// Func adapts a plain function into a System.
type Func struct {
	P  Phase
	Fn func(dt time.Duration)
}

func (f Func) Phase() Phase            { return f.P }
func (f Func) Update(dt time.Duration) { f.Fn(dt) }
