package console

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gridforge/editor/internal/component"
	"github.com/gridforge/editor/internal/data"
	"github.com/gridforge/editor/internal/editor"
	"github.com/gridforge/editor/internal/level"
	"github.com/gridforge/editor/internal/scripting"
)

// ErrQuit is returned by the quit command. The host loop stops on it.
var ErrQuit = errors.New("quit")

var errUsage = errors.New("usage")

// Deps holds what console commands operate on. Scripts may be nil.
type Deps struct {
	Comps   *component.Components
	Editor  *editor.Editor
	Pointer *editor.PointerSystem
	Spawner *editor.Spawner
	Levels  *level.Levels
	Pack    *data.ModelPack
	Scripts *scripting.Engine
}

// Console dispatches text commands. It must be called from the goroutine
// that runs frames.
type Console struct {
	deps *Deps
	log  *zap.Logger
}

func New(deps *Deps, log *zap.Logger) *Console {
	return &Console{deps: deps, log: log}
}

var builtins = []struct{ name, usage string }{
	{"help", "help - list commands"},
	{"spawn", "spawn - toggle periodic crate spawning"},
	{"entities", "entities - list named entities and their cells"},
	{"quit", "quit - exit the editor"},
	{"save", "save <name> - save placed tiles as a level"},
	{"load", "load <name> - replace placed tiles with a saved level"},
	{"levels", "levels - list saved levels"},
	{"info", "info <name> - show a saved level's tiles and checksum"},
	{"delete", "delete <name> - remove a saved level"},
	{"model", "model [name|next|prev|list] - show or change the active tile model"},
	{"pick", "pick <sx> <sy> - pick up or create a tile at a screen point"},
	{"drag", "drag <sx> <sy> - move the held tile"},
	{"commit", "commit - place the held tile"},
	{"cancel", "cancel - discard the held tile"},
	{"rotate", "rotate [cw|ccw] - turn the held tile a quarter"},
	{"shoot", "shoot <sx> <sy> - fire a shot along the pick ray"},
	{"lua", "lua <code> - run a Lua chunk"},
}

// Execute runs one command line and returns its output.
func (c *Console) Execute(ctx context.Context, line string) (string, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "", nil
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	c.log.Debug("console command", zap.String("command", cmd), zap.Strings("args", args))

	switch cmd {
	case "help", "?":
		return c.help(), nil
	case "spawn":
		if c.deps.Spawner.Toggle() {
			return "crate spawning on", nil
		}
		return "crate spawning off", nil
	case "entities":
		return c.entities(), nil
	case "quit", "exit":
		return "", ErrQuit
	case "save":
		return c.save(ctx, args)
	case "load":
		return c.load(ctx, args)
	case "levels":
		return c.levels(ctx)
	case "info":
		return c.info(ctx, args)
	case "delete":
		if len(args) != 1 {
			return "", fmt.Errorf("%w: delete <name>", errUsage)
		}
		if err := c.deps.Levels.Delete(ctx, args[0]); err != nil {
			return "", err
		}
		return "deleted " + args[0], nil
	case "model":
		return c.model(args)
	case "pick":
		return c.point(editor.PointerPick, args)
	case "drag":
		return c.point(editor.PointerMove, args)
	case "shoot":
		return c.point(editor.PointerShoot, args)
	case "commit":
		return c.push(editor.Pointer{Kind: editor.PointerCommit}), nil
	case "cancel":
		return c.push(editor.Pointer{Kind: editor.PointerSecondary}), nil
	case "rotate":
		return c.rotate(args)
	case "lua":
		return c.lua(line)
	}

	if s := c.deps.Scripts; s != nil && s.HasCommand(cmd) {
		return s.RunCommand(cmd, args)
	}
	return "", fmt.Errorf("unknown command %q, try help", cmd)
}

func (c *Console) help() string {
	var b strings.Builder
	for _, cmd := range builtins {
		b.WriteString(cmd.usage)
		b.WriteByte('\n')
	}
	if c.deps.Scripts != nil {
		for _, cmd := range c.deps.Scripts.Commands() {
			b.WriteString(cmd.Help)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (c *Console) entities() string {
	rows := c.deps.Comps.Named()
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	var b strings.Builder
	for _, row := range rows {
		if row.Coord != nil {
			fmt.Fprintf(&b, "%s (%d, %d)\n", row.Name, row.Coord.X, row.Coord.Z)
			continue
		}
		fmt.Fprintf(&b, "%s\n", row.Name)
	}
	return b.String()
}

func (c *Console) save(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: save <name>", errUsage)
	}
	n, err := c.deps.Levels.Save(ctx, args[0])
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "nothing to save", nil
	}
	return fmt.Sprintf("saved %d tiles to %s", n, args[0]), nil
}

func (c *Console) load(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: load <name>", errUsage)
	}
	n, err := c.deps.Levels.Load(ctx, args[0])
	if err != nil {
		return "", err
	}
	if n == 0 {
		return fmt.Sprintf("%s has no tiles, nothing changed", args[0]), nil
	}
	return fmt.Sprintf("loaded %d tiles from %s", n, args[0]), nil
}

func (c *Console) levels(ctx context.Context) (string, error) {
	names, err := c.deps.Levels.List(ctx)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "no saved levels", nil
	}
	return strings.Join(names, "\n") + "\n", nil
}

func (c *Console) info(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%w: info <name>", errUsage)
	}
	in, err := c.deps.Levels.Info(ctx, args[0])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s: %d tiles, revision %d, checksum %016x, updated %s",
		in.Name, in.Tiles, in.Revision, in.Checksum, in.UpdatedAt.Format(time.RFC3339)), nil
}

func (c *Console) model(args []string) (string, error) {
	e := c.deps.Editor
	if len(args) > 0 {
		switch arg := strings.ToLower(args[0]); arg {
		case "next":
			e.NextModel()
		case "prev":
			e.PrevModel()
		case "list":
			return c.modelList(), nil
		default:
			if err := e.SetActiveModel(arg); err != nil {
				return "", err
			}
		}
	}
	m := c.deps.Pack.Get(e.ActiveModel())
	return fmt.Sprintf("model %s (%s)", m.Name, m.DisplayName()), nil
}

func (c *Console) modelList() string {
	active := c.deps.Editor.ActiveModel()
	var b strings.Builder
	for _, name := range c.deps.Pack.Names() {
		mark := " "
		if name == active {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %-28s %s\n", mark, name, c.deps.Pack.Get(name).DisplayName())
	}
	return b.String()
}

func (c *Console) point(kind editor.PointerKind, args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("%w: <sx> <sy>", errUsage)
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return "", fmt.Errorf("screen x %q: %w", args[0], err)
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return "", fmt.Errorf("screen y %q: %w", args[1], err)
	}
	return c.push(editor.Pointer{Kind: kind, X: x, Y: y}), nil
}

func (c *Console) rotate(args []string) (string, error) {
	dir := "cw"
	if len(args) > 0 {
		dir = strings.ToLower(args[0])
	}
	switch dir {
	case "cw":
		return c.push(editor.Pointer{Kind: editor.PointerRotateCW}), nil
	case "ccw":
		return c.push(editor.Pointer{Kind: editor.PointerRotateCCW}), nil
	}
	return "", fmt.Errorf("%w: rotate [cw|ccw]", errUsage)
}

// push queues a pointer event; it applies during the next editor phase.
func (c *Console) push(p editor.Pointer) string {
	c.deps.Pointer.Push(p)
	return "queued"
}

func (c *Console) lua(line string) (string, error) {
	if c.deps.Scripts == nil {
		return "", errors.New("scripting disabled")
	}
	code := strings.TrimSpace(line)
	code = strings.TrimSpace(code[len("lua"):])
	if code == "" {
		return "", fmt.Errorf("%w: lua <code>", errUsage)
	}
	return c.deps.Scripts.Exec(code)
}
