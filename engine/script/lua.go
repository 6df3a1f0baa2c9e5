package script

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/nathoo/trogdor/engine/event"
	"github.com/nathoo/trogdor/engine/world"
)

const entityTypeName = "trogdor.entity"

// Lua is a Runtime backed by a single sandboxed gopher-lua state. Calls are
// serialized; a handler that calls back into the engine and fires another
// scripted trigger would deadlock, so handlers only read entities and send
// messages.
type Lua struct {
	mu      sync.Mutex
	L       *lua.LState
	logger  *zap.Logger
	timeout time.Duration
}

// Option configures a Lua runtime.
type Option func(*Lua)

// WithLogger sets the logger used for runtime diagnostics and the script
// log() function.
func WithLogger(l *zap.Logger) Option {
	return func(r *Lua) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCallTimeout bounds the wall-clock time of a single handler call.
// Zero disables the limit.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Lua) { r.timeout = d }
}

// NewLua creates a sandboxed runtime with no scripts loaded.
func NewLua(opts ...Option) *Lua {
	r := &Lua{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}

	r.L = NewState()
	r.registerAPI()
	return r
}

// NewState returns a bare Lua state with only the safe standard libraries
// open. The world loader runs definition files in one.
func NewState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)
	return L
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Scripts share the game's dice; reseeding Lua's would hide that.
	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		tbl.RawSetString("randomseed", lua.LNil)
	}
}

func (r *Lua) registerAPI() {
	L := r.L
	mt := L.NewTypeMetatable(entityTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"name":     entityName,
		"kind":     entityKind,
		"title":    entityTitle,
		"alive":    entityAlive,
		"health":   entityHealth,
		"location": r.entityLocation,
		"hasTag":   entityHasTag,
		"message":  entityMessage,
	}))
	L.SetField(mt, "__tostring", L.NewFunction(entityName))

	logFn := L.NewFunction(r.luaLog)
	L.SetGlobal("log", logFn)
	L.SetGlobal("print", logFn)
}

// Load runs src in the runtime's global environment, typically to define
// handler functions. name is used in error messages.
func (r *Lua) Load(name, src string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.L == nil {
		return ErrClosed
	}
	if err := r.L.DoString(src); err != nil {
		return fmt.Errorf("loading script %s: %w", name, err)
	}
	return nil
}

// LoadFile runs the Lua file at path.
func (r *Lua) LoadFile(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.L == nil {
		return ErrClosed
	}
	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("loading script %s: %w", path, err)
	}
	return nil
}

// Has reports whether a global function with the given name is defined.
func (r *Lua) Has(function string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.L == nil {
		return false
	}
	return r.L.GetGlobal(function).Type() == lua.LTFunction
}

// Call runs the named handler. On any error the returned verdict is
// (true, true) so callers that ignore the error proceed normally.
func (r *Lua) Call(function string, args []event.Argument) (bool, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.L == nil {
		return true, true, ErrClosed
	}

	fn := r.L.GetGlobal(function)
	if fn.Type() != lua.LTFunction {
		return true, true, fmt.Errorf("%s: %w", function, ErrNoFunction)
	}

	params := make([]lua.LValue, 0, len(args))
	for _, a := range args {
		if a.Kind() == event.KindGame {
			continue
		}
		params = append(params, r.toLua(a))
	}

	if r.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		r.L.SetContext(ctx)
		defer r.L.RemoveContext()
	}

	if err := r.L.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true}, params...); err != nil {
		return true, true, fmt.Errorf("calling %s: %w", function, err)
	}
	ret1, ret2 := r.L.Get(-2), r.L.Get(-1)
	r.L.Pop(2)

	cont, ok1 := ret1.(lua.LBool)
	allow, ok2 := ret2.(lua.LBool)
	if !ok1 || !ok2 {
		return true, true, fmt.Errorf("%s returned (%s, %s): %w",
			function, ret1.Type(), ret2.Type(), ErrBadReturn)
	}
	return bool(cont), bool(allow), nil
}

// Close releases the Lua state. Later calls return ErrClosed.
func (r *Lua) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.L != nil {
		r.L.Close()
		r.L = nil
	}
}

func (r *Lua) toLua(a event.Argument) lua.LValue {
	switch a.Kind() {
	case event.KindInt:
		v, _ := a.AsInt()
		return lua.LNumber(v)
	case event.KindDouble:
		v, _ := a.AsDouble()
		return lua.LNumber(v)
	case event.KindBool:
		v, _ := a.AsBool()
		return lua.LBool(v)
	case event.KindString:
		v, _ := a.AsString()
		return lua.LString(v)
	case event.KindEntity:
		e, _ := a.Entity()
		return r.entityValue(r.L, e)
	default:
		return lua.LNil
	}
}

func (r *Lua) entityValue(L *lua.LState, e event.Entity) lua.LValue {
	if e == nil {
		return lua.LNil
	}
	ud := L.NewUserData()
	ud.Value = e
	L.SetMetatable(ud, L.GetTypeMetatable(entityTypeName))
	return ud
}

func checkEntity(L *lua.LState) event.Entity {
	ud := L.CheckUserData(1)
	e, ok := ud.Value.(event.Entity)
	if !ok {
		L.ArgError(1, "entity expected")
		return nil
	}
	return e
}

func entityName(L *lua.LState) int {
	L.Push(lua.LString(checkEntity(L).Name()))
	return 1
}

func entityKind(L *lua.LState) int {
	if we, ok := checkEntity(L).(world.Entity); ok {
		L.Push(lua.LString(we.Kind().String()))
	} else {
		L.Push(lua.LString("unknown"))
	}
	return 1
}

func entityTitle(L *lua.LState) int {
	e := checkEntity(L)
	if we, ok := e.(world.Entity); ok {
		L.Push(lua.LString(we.Title()))
	} else {
		L.Push(lua.LString(e.Name()))
	}
	return 1
}

func entityAlive(L *lua.LState) int {
	b, ok := checkEntity(L).(world.BeingEntity)
	L.Push(lua.LBool(ok && b.AsBeing().Alive()))
	return 1
}

func entityHealth(L *lua.LState) int {
	if b, ok := checkEntity(L).(world.BeingEntity); ok {
		L.Push(lua.LNumber(b.AsBeing().Health()))
	} else {
		L.Push(lua.LNumber(0))
	}
	return 1
}

func (r *Lua) entityLocation(L *lua.LState) int {
	we, ok := checkEntity(L).(world.Entity)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	loc := we.Location()
	if loc == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(r.entityValue(L, loc))
	return 1
}

func entityHasTag(L *lua.LState) int {
	e := checkEntity(L)
	tag := L.CheckString(2)
	we, ok := e.(world.Entity)
	L.Push(lua.LBool(ok && we.HasTag(tag)))
	return 1
}

// message sends text to a player, or to everyone in a room.
func entityMessage(L *lua.LState) int {
	e := checkEntity(L)
	text := L.CheckString(2)
	switch v := e.(type) {
	case *world.Player:
		v.Out(text)
	case *world.Room:
		v.Announce(text)
	}
	return 0
}

func (r *Lua) luaLog(L *lua.LState) int {
	parts := make([]string, 0, L.GetTop())
	for i := 1; i <= L.GetTop(); i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	r.logger.Info("script", zap.String("text", strings.Join(parts, " ")))
	return 0
}
