// Package session wires the editor's components into one frame-driven unit.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/gridforge/editor/internal/component"
	"github.com/gridforge/editor/internal/config"
	"github.com/gridforge/editor/internal/console"
	"github.com/gridforge/editor/internal/core/ecs"
	"github.com/gridforge/editor/internal/core/event"
	coresys "github.com/gridforge/editor/internal/core/system"
	"github.com/gridforge/editor/internal/data"
	"github.com/gridforge/editor/internal/editor"
	"github.com/gridforge/editor/internal/factory"
	"github.com/gridforge/editor/internal/geom"
	"github.com/gridforge/editor/internal/level"
	"github.com/gridforge/editor/internal/physics"
	"github.com/gridforge/editor/internal/physics/simple"
	"github.com/gridforge/editor/internal/provider"
	"github.com/gridforge/editor/internal/render"
	"github.com/gridforge/editor/internal/scripting"
	"github.com/gridforge/editor/internal/system"
)

var _ scripting.Host = (*Session)(nil)

// inputBuffer bounds console lines waiting for the next frame.
const inputBuffer = 64

// Session owns the registry, physics world and providers for the lifetime
// of one editor screen. Everything except Submit runs on the frame goroutine.
type Session struct {
	Comps     *component.Components
	Bus       *event.Bus
	Backend   *simple.Backend
	Physics   *physics.World
	Meshes    *provider.ModelProvider
	Shapes    *provider.ShapeProvider
	Pack      *data.ModelPack
	Factory   *factory.Factory
	Camera    *editor.OrthoCamera
	Editor    *editor.Editor
	Pointer   *editor.PointerSystem
	Spawner   *editor.Spawner
	Highlight *editor.Highlighter
	Levels    *level.Levels
	Scripts   *scripting.Engine
	Console   *console.Console
	Stats     *render.StatsSubmitter

	runner *coresys.Runner
	input  chan string
	reader *system.InputSystem
	out    io.Writer
	quit   bool
	frames int
	closed bool
	log    *zap.Logger
}

// New builds a session from cfg. Command output is written to out.
func New(cfg *config.Config, pack *data.ModelPack, store level.Store, out io.Writer, log *zap.Logger) (*Session, error) {
	s := &Session{
		Comps:  component.New(ecs.NewWorld()),
		Bus:    event.NewBus(),
		Pack:   pack,
		runner: coresys.NewRunner(),
		input:  make(chan string, inputBuffer),
		out:    out,
		log:    log,
	}

	s.Backend = simple.New(simple.Config{
		Gravity:     mgl64.Vec3{0, cfg.Physics.Gravity, 0},
		Restitution: cfg.Physics.Restitution,
		Friction:    cfg.Physics.Friction,
	})
	s.Physics = physics.NewWorld(s.Comps.World, s.Comps.Physics, s.Backend, s.Bus, physics.Config{
		MaxFrameStep: cfg.Physics.MaxFrameStep,
		SubSteps:     cfg.Physics.SubSteps,
	}, log.Named("physics"))

	shapes, err := provider.NewShapeProvider(s.Backend, log.Named("shapes"))
	if err != nil {
		s.Physics.Close()
		return nil, fmt.Errorf("shape provider: %w", err)
	}
	s.Shapes = shapes
	s.Meshes = provider.NewModelProvider(provider.TileLoader(pack), log.Named("models"))

	s.Factory = factory.New(s.Comps, s.Meshes, s.Shapes, s.Backend, pack, factory.Config{
		TileSize:     cfg.Editor.TileSize,
		FloorSize:    cfg.Editor.FloorSize,
		ShotDistance: factory.DefaultConfig().ShotDistance,
		ShotImpulse:  cfg.Editor.ShotImpulse,
		OutOfBoundsY: cfg.Physics.OutOfBoundsY,
	}, log.Named("factory"))

	s.Camera = editor.NewOrthoCamera(cfg.Camera.Width, cfg.Camera.Height, cfg.Camera.Zoom, cfg.Camera.Elevation)
	s.Editor = editor.New(s.Comps, s.Physics, s.Factory, s.Camera, pack, cfg.Editor.ActiveModel, log.Named("editor"))
	s.Pointer = editor.NewPointerSystem(s.Editor, s.Factory, log.Named("pointer"))
	s.Spawner = editor.NewSpawner(s.Factory, cfg.Editor.SpawnInterval, cfg.Editor.SpawnHeight, log.Named("spawner"))
	s.Highlight = editor.NewHighlighter(s.Comps, s.Bus)
	s.Levels = level.New(store, s.Editor, s.Comps, pack.Has, log.Named("levels"))
	s.Stats = render.NewStatsSubmitter(cfg.Loop.StatsEvery, log.Named("render"))

	if _, err := s.Factory.Floor(); err != nil {
		s.Close()
		return nil, err
	}
	if _, err := s.Factory.Origin(); err != nil {
		s.Close()
		return nil, err
	}

	scripts, err := scripting.NewEngine(cfg.Scripting.Dir, s, log.Named("lua"))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("scripting: %w", err)
	}
	s.Scripts = scripts

	s.Console = console.New(&console.Deps{
		Comps:   s.Comps,
		Editor:  s.Editor,
		Pointer: s.Pointer,
		Spawner: s.Spawner,
		Levels:  s.Levels,
		Pack:    pack,
		Scripts: scripts,
	}, log.Named("console"))

	s.register(cfg.Loop.MaxLinesPerFrame)
	return s, nil
}

func (s *Session) register(maxLines int) {
	s.reader = system.NewInputSystem(s.input, s.execLine, maxLines, s.log.Named("input"))
	s.runner.Register(s.reader)
	s.runner.Register(system.NewFlushSystem(s.Comps.World, s.Bus))
	s.runner.Register(s.Spawner)
	s.runner.Register(s.Highlight)
	s.runner.Register(s.Physics)
	s.runner.Register(s.Pointer)
	s.runner.Register(render.NewSystem(s.Comps.Models, s.Stats))
}

// Submit queues a console line for the next frame's input phase. It is the
// only method safe to call from another goroutine.
func (s *Session) Submit(ctx context.Context, line string) error {
	select {
	case s.input <- line:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Frame runs one frame. It returns console.ErrQuit once quit was requested.
func (s *Session) Frame(dt time.Duration) error {
	if s.quit {
		return console.ErrQuit
	}
	s.runner.Tick(dt)
	s.frames++
	if s.quit {
		return console.ErrQuit
	}
	return nil
}

func (s *Session) Frames() int { return s.frames }

// Execute runs a console line immediately and writes its output.
func (s *Session) Execute(ctx context.Context, line string) error {
	text, err := s.Console.Execute(ctx, line)
	if text != "" {
		fmt.Fprint(s.out, text)
		if text[len(text)-1] != '\n' {
			fmt.Fprintln(s.out)
		}
	}
	if errors.Is(err, console.ErrQuit) {
		s.quit = true
		return err
	}
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
	return err
}

func (s *Session) execLine(ctx context.Context, line string) error {
	if errors.Is(s.Execute(ctx, line), console.ErrQuit) {
		return system.ErrStop
	}
	return nil
}

// Close tears the session down: scripts, then the physics world, then the
// providers. Safe to call twice.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.Scripts != nil {
		s.Scripts.Close()
	}
	s.Physics.Close()
	s.Shapes.Dispose()
	s.Meshes.Dispose()
	s.log.Info("session closed", zap.Int("frames", s.frames))
}

// Entities, Place, Clear, ActiveModel, SetActiveModel, Models and Crate
// expose the session to scripts.

func (s *Session) Entities() []component.Listing { return s.Comps.Named() }

func (s *Session) Place(model string, x, z int, yawDeg float64) (ecs.EntityID, error) {
	return s.Editor.Place(model, geom.Cell{X: x, Z: z}, yawDeg)
}

func (s *Session) Clear() int { return s.Editor.Clear() }
func (s *Session) ActiveModel() string { return s.Editor.ActiveModel() }
func (s *Session) SetActiveModel(name string) error { return s.Editor.SetActiveModel(name) }
func (s *Session) Models() []string { return s.Pack.Names() }

func (s *Session) Crate(x, y, z float64) (ecs.EntityID, error) {
	return s.Factory.Crate(mgl64.Vec3{x, y, z})
}
