package scripting

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	lua "github.com/yuin/gopher-lua"

	"github.com/zeusync/scenery/internal/core/entity"
	"github.com/zeusync/scenery/internal/core/observability/log"
	"github.com/zeusync/scenery/internal/core/rtti"
)

// Kind identifies Lua behaviours.
var Kind = rtti.Define[*Behaviour]("LuaBehaviour", entity.ComponentType)

var (
	ErrLoad = errors.New("load lua script")
	ErrHook = errors.New("lua hook failed")
)

// Behaviour is a component driven by a Lua script. Each behaviour owns its own
// VM, so it must only be used from the goroutine that runs its hooks.
//
// The script may define global functions awake, start, update, finish and
// sleep; each runs from the matching component hook. The host exposes
// object_name(), get_position(), set_position(x, y, z) and log(msg).
type Behaviour struct {
	entity.Base

	name string
	vm   *lua.LState
	log  log.Log
	err  error
}

// New compiles source under the chunk name name.
func New(name, source string, logger log.Log) (*Behaviour, error) {
	b := newBehaviour(name, logger)
	if err := b.vm.DoString(source); err != nil {
		b.vm.Close()
		return nil, fmt.Errorf("%w %s: %w", ErrLoad, name, err)
	}
	return b, nil
}

// NewFromFile loads the script at path.
func NewFromFile(path string, logger log.Log) (*Behaviour, error) {
	b := newBehaviour(path, logger)
	if err := b.vm.DoFile(path); err != nil {
		b.vm.Close()
		return nil, fmt.Errorf("%w %s: %w", ErrLoad, path, err)
	}
	return b, nil
}

func newBehaviour(name string, logger log.Log) *Behaviour {
	if logger == nil {
		logger = log.Nop()
	}
	b := &Behaviour{
		name: name,
		vm:   lua.NewState(),
		log:  logger.With(log.String("script", name)),
	}
	b.vm.SetGlobal("object_name", b.vm.NewFunction(b.luaObjectName))
	b.vm.SetGlobal("get_position", b.vm.NewFunction(b.luaGetPosition))
	b.vm.SetGlobal("set_position", b.vm.NewFunction(b.luaSetPosition))
	b.vm.SetGlobal("log", b.vm.NewFunction(b.luaLog))
	return b
}

func (b *Behaviour) Type() *rtti.Type { return Kind.Type() }

func (b *Behaviour) Name() string { return b.name }

// Err returns the last hook error, nil when every hook succeeded.
func (b *Behaviour) Err() error { return b.err }

// Global reads a global variable of the script.
func (b *Behaviour) Global(name string) lua.LValue {
	if b.vm == nil {
		return lua.LNil
	}
	return b.vm.GetGlobal(name)
}

func (b *Behaviour) Awake() { b.call("awake") }
func (b *Behaviour) Start() { b.call("start") }
func (b *Behaviour) Update() { b.call("update") }
func (b *Behaviour) Finish() { b.call("finish") }
func (b *Behaviour) Sleep() { b.call("sleep") }

// Dispose closes the VM.
func (b *Behaviour) Dispose() {
	if b.vm == nil {
		return
	}
	b.vm.Close()
	b.vm = nil
}

func (b *Behaviour) call(hook string) {
	if b.vm == nil {
		return
	}
	fn := b.vm.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return
	}

	if err := b.vm.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
		b.err = fmt.Errorf("%w: %s: %w", ErrHook, hook, err)
		b.log.Warn("lua hook failed", log.String("hook", hook), log.Error(err))
	}
}

func (b *Behaviour) luaObjectName(L *lua.LState) int {
	if g := b.GameObject(); g != nil {
		L.Push(lua.LString(g.Name()))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

func (b *Behaviour) luaGetPosition(L *lua.LState) int {
	t := b.Transform()
	if t == nil {
		L.RaiseError("behaviour is not attached")
		return 0
	}
	p := t.LocalPosition()
	L.Push(lua.LNumber(p.X()))
	L.Push(lua.LNumber(p.Y()))
	L.Push(lua.LNumber(p.Z()))
	return 3
}

func (b *Behaviour) luaSetPosition(L *lua.LState) int {
	t := b.Transform()
	if t == nil {
		L.RaiseError("behaviour is not attached")
		return 0
	}
	x, y, z := L.CheckNumber(1), L.CheckNumber(2), L.CheckNumber(3)
	t.SetLocalPosition(mgl64.Vec3{float64(x), float64(y), float64(z)})
	return 0
}

func (b *Behaviour) luaLog(L *lua.LState) int {
	b.log.Info(L.CheckString(1))
	return 0
}
