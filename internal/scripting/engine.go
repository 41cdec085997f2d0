package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/gridforge/editor/internal/component"
	"github.com/gridforge/editor/internal/core/ecs"
)

// APIVersion is exposed to scripts as the API_VERSION global.
const APIVersion = 1

var ErrUnknownCommand = errors.New("unknown script command")

// Host is the slice of the editor session that scripts may drive.
type Host interface {
	Entities() []component.Listing
	Place(model string, x, z int, yawDeg float64) (ecs.EntityID, error)
	Clear() int
	ActiveModel() string
	SetActiveModel(name string) error
	Models() []string
	Crate(x, y, z float64) (ecs.EntityID, error)
}

// Command is a console command defined by a script.
type Command struct {
	Name string
	Help string
	fn   *lua.LFunction
}

// Engine wraps a single gopher-lua VM. Single-goroutine access only (frame loop).
type Engine struct {
	vm       *lua.LState
	host     Host
	commands map[string]*Command
	out      *strings.Builder
	log      *zap.Logger
}

// NewEngine creates a Lua engine bound to host and loads the scripts under
// dir: core/ first, then console/. Missing directories are skipped.
func NewEngine(dir string, host Host, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(APIVersion))

	e := &Engine{vm: vm, host: host, commands: make(map[string]*Command), log: log}
	e.install()

	if dir == "" {
		return e, nil
	}
	for _, sub := range []string{"core", "console"} {
		if err := e.loadDir(filepath.Join(dir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// install registers the print override, the command() global and the editor table.
func (e *Engine) install() {
	e.vm.SetGlobal("print", e.vm.NewFunction(e.luaPrint))
	e.vm.SetGlobal("command", e.vm.NewFunction(e.luaCommand))
	e.vm.SetGlobal("editor", e.vm.SetFuncs(e.vm.NewTable(), map[string]lua.LGFunction{
		"entities": e.luaEntities,
		"place":    e.luaPlace,
		"clear":    e.luaClear,
		"model":    e.luaModel,
		"models":   e.luaModels,
		"crate":    e.luaCrate,
		"log":      e.luaLog,
	}))
}

// Commands lists the script commands sorted by name.
func (e *Engine) Commands() []Command {
	out := make([]Command, 0, len(e.commands))
	for _, c := range e.commands {
		out = append(out, Command{Name: c.Name, Help: c.Help})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (e *Engine) HasCommand(name string) bool {
	_, ok := e.commands[name]
	return ok
}

// RunCommand calls a script command with string arguments. The returned
// text is everything the command printed followed by its return value.
func (e *Engine) RunCommand(name string, args []string) (string, error) {
	cmd, ok := e.commands[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	largs := make([]lua.LValue, len(args))
	for i, a := range args {
		largs[i] = lua.LString(a)
	}
	return e.capture(func() error {
		if err := e.vm.CallByParam(lua.P{Fn: cmd.fn, NRet: 1, Protect: true}, largs...); err != nil {
			return err
		}
		ret := e.vm.Get(-1)
		e.vm.Pop(1)
		if ret != lua.LNil {
			e.out.WriteString(ret.String())
			e.out.WriteByte('\n')
		}
		return nil
	}, name)
}

// Exec runs a chunk of Lua source and returns what it printed.
func (e *Engine) Exec(code string) (string, error) {
	return e.capture(func() error { return e.vm.DoString(code) }, "chunk")
}

func (e *Engine) capture(run func() error, what string) (string, error) {
	var b strings.Builder
	e.out = &b
	defer func() { e.out = nil }()
	if err := run(); err != nil {
		e.log.Error("lua error", zap.String("script", what), zap.Error(err))
		return b.String(), fmt.Errorf("lua %s: %w", what, err)
	}
	return b.String(), nil
}

func (e *Engine) Close() {
	e.vm.Close()
}

func (e *Engine) luaPrint(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	line := strings.Join(parts, "\t")
	if e.out != nil {
		e.out.WriteString(line)
		e.out.WriteByte('\n')
		return 0
	}
	e.log.Info("lua print", zap.String("text", line))
	return 0
}

// command(name, help, fn)
func (e *Engine) luaCommand(L *lua.LState) int {
	name := strings.ToLower(L.CheckString(1))
	help := L.OptString(2, "")
	fn := L.CheckFunction(3)
	if _, dup := e.commands[name]; dup {
		e.log.Warn("lua command redefined", zap.String("command", name))
	}
	e.commands[name] = &Command{Name: name, Help: help, fn: fn}
	return 0
}

func (e *Engine) luaEntities(L *lua.LState) int {
	list := L.NewTable()
	for _, row := range e.host.Entities() {
		t := L.NewTable()
		t.RawSetString("id", lua.LNumber(row.ID))
		t.RawSetString("name", lua.LString(row.Name))
		if row.Coord != nil {
			t.RawSetString("x", lua.LNumber(row.Coord.X))
			t.RawSetString("z", lua.LNumber(row.Coord.Z))
		}
		list.Append(t)
	}
	L.Push(list)
	return 1
}

// editor.place(model, x, z [, yaw]) -> id | nil, err
func (e *Engine) luaPlace(L *lua.LState) int {
	model := L.CheckString(1)
	x, z := L.CheckInt(2), L.CheckInt(3)
	yaw := float64(L.OptNumber(4, 0))
	id, err := e.host.Place(model, x, z, yaw)
	return pushResult(L, id, err)
}

func (e *Engine) luaClear(L *lua.LState) int {
	L.Push(lua.LNumber(e.host.Clear()))
	return 1
}

// editor.model([name]) -> active | nil, err
func (e *Engine) luaModel(L *lua.LState) int {
	if L.GetTop() >= 1 {
		if err := e.host.SetActiveModel(L.CheckString(1)); err != nil {
			L.Push(lua.LNil)
			L.Push(lua.LString(err.Error()))
			return 2
		}
	}
	L.Push(lua.LString(e.host.ActiveModel()))
	return 1
}

func (e *Engine) luaModels(L *lua.LState) int {
	list := L.NewTable()
	for _, name := range e.host.Models() {
		list.Append(lua.LString(name))
	}
	L.Push(list)
	return 1
}

func (e *Engine) luaCrate(L *lua.LState) int {
	id, err := e.host.Crate(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)), float64(L.CheckNumber(3)))
	return pushResult(L, id, err)
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("text", L.CheckString(1)))
	return 0
}

func pushResult(L *lua.LState, id ecs.EntityID, err error) int {
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LNumber(id))
	return 1
}
