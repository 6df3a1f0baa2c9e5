package loader

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/trogdor/engine/world"
)

// registerAPI registers all Lua constructors as globals.
func registerAPI(L *lua.LState, coll *collector) {
	// Game { title = "...", start = "...", player = { ... } }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	L.SetGlobal("Room", curried(L, coll, world.KindRoom))
	L.SetGlobal("Object", curried(L, coll, world.KindObject))
	L.SetGlobal("Item", curried(L, coll, world.KindObject))
	L.SetGlobal("Creature", curried(L, coll, world.KindCreature))
	L.SetGlobal("NPC", curried(L, coll, world.KindCreature))

	// On("event", "function") binds a handler to the global listener.
	L.SetGlobal("On", L.NewFunction(func(L *lua.LState) int {
		ev := L.CheckString(1)
		fn := L.CheckString(2)
		coll.handlers = append(coll.handlers, rawHandler{event: ev, function: fn})
		return 0
	}))
}

// curried builds a constructor used as Kind "name" { ... }: the call with
// the name returns a function that takes the table.
func curried(L *lua.LState, coll *collector, kind world.Kind) *lua.LFunction {
	return L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.defs = append(coll.defs, rawDef{name: name, kind: kind, table: tbl})
			return 0
		}))
		return 1
	})
}
