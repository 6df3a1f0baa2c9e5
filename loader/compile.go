package loader

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/trogdor/engine/world"
)

// rawDef holds a Room, Object or Creature table before compilation.
type rawDef struct {
	name  string
	kind  world.Kind
	table *lua.LTable
}

// rawHandler holds a global On(event, function) binding.
type rawHandler struct {
	event    string
	function string
}

type gameDef struct {
	Title   string
	Author  string
	Version string
	Start   string
	Intro   string
	Player  beingDef
}

// thingDef holds the fields every entity has.
type thingDef struct {
	Name        string
	Kind        world.Kind
	Title       string
	Description string
	Aliases     []string
	Tags        []string
	Messages    map[string]string
	On          []eventBinding
	Guards      []guardDef
}

type eventBinding struct {
	Event    string
	Function string
}

// guardDef holds one entry of a guards table, its conditions still raw.
type guardDef struct {
	Event   string
	When    map[string]any
	Message string
}

type roomDef struct {
	thingDef
	Exits map[string]string
}

type objectDef struct {
	thingDef
	Location  string // a room, or a being that starts out carrying it
	Weight    int
	Damage    int
	Text      string
	Weapon    bool
	Takeable  bool
	Droppable bool
}

type beingDef struct {
	MaxHealth  int
	Capacity   int
	Damage     int
	WoundRate  float64
	Attackable bool
	Attributes map[string]int
	Respawn    world.RespawnSettings
}

type creatureDef struct {
	thingDef
	beingDef
	Location      string
	Allegiance    string
	CounterAttack bool
	AutoAttack    world.AutoAttackSettings
	Wander        world.WanderSettings
}

// defs is everything a set of definition files declared, in source order.
type defs struct {
	Game      gameDef
	Rooms     []roomDef
	Objects   []objectDef
	Creatures []creatureDef
	Handlers  []eventBinding
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getNumber returns a numeric field from a Lua table, or the default if
// missing.
func getNumber(tbl *lua.LTable, key string, def float64) float64 {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return def
}

func getInt(tbl *lua.LTable, key string, def int) int {
	return int(getNumber(tbl, key, float64(def)))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// tableToStringMap converts a Lua table to a map[string]string.
func tableToStringMap(tbl *lua.LTable) map[string]string {
	if tbl == nil {
		return nil
	}
	m := map[string]string{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			if vs, ok := v.(lua.LString); ok {
				m[string(ks)] = string(vs)
			}
		}
	})
	return m
}

// tableToIntMap converts a Lua table to a map[string]int.
func tableToIntMap(tbl *lua.LTable) map[string]int {
	if tbl == nil {
		return nil
	}
	m := map[string]int{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			if n, ok := v.(lua.LNumber); ok {
				m[string(ks)] = int(n)
			}
		}
	})
	return m
}

// tableToAnyMap converts a Lua table with string keys to plain Go values:
// strings, float64 numbers, bools and nested maps.
func tableToAnyMap(tbl *lua.LTable) map[string]any {
	if tbl == nil {
		return nil
	}
	m := map[string]any{}
	tbl.ForEach(func(k, v lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok {
			return
		}
		switch val := v.(type) {
		case lua.LString:
			m[string(ks)] = string(val)
		case lua.LNumber:
			m[string(ks)] = float64(val)
		case lua.LBool:
			m[string(ks)] = bool(val)
		case *lua.LTable:
			m[string(ks)] = tableToAnyMap(val)
		}
	})
	return m
}

// sortedKeys returns the string keys of tbl in order.
func sortedKeys(tbl *lua.LTable) []string {
	var keys []string
	tbl.ForEach(func(k, _ lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			keys = append(keys, string(ks))
		}
	})
	sort.Strings(keys)
	return keys
}

// stringList reads a field holding either one string or an array of them.
func stringList(v lua.LValue) []string {
	switch val := v.(type) {
	case lua.LString:
		return []string{string(val)}
	case *lua.LTable:
		var out []string
		for i := 1; i <= val.MaxN(); i++ {
			if s, ok := val.RawGetInt(i).(lua.LString); ok {
				out = append(out, string(s))
			}
		}
		return out
	default:
		return nil
	}
}

// compile converts all collected Lua data into defs.
func compile(coll *collector) (*defs, error) {
	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	d := &defs{Game: compileGame(coll.game)}

	for _, raw := range coll.defs {
		switch raw.kind {
		case world.KindRoom:
			d.Rooms = append(d.Rooms, compileRoom(raw))
		case world.KindObject:
			d.Objects = append(d.Objects, compileObject(raw))
		case world.KindCreature:
			c, err := compileCreature(raw)
			if err != nil {
				return nil, fmt.Errorf("compiling creature %s: %w", raw.name, err)
			}
			d.Creatures = append(d.Creatures, c)
		}
	}

	for _, h := range coll.handlers {
		d.Handlers = append(d.Handlers, eventBinding{Event: h.event, Function: h.function})
	}
	return d, nil
}

func compileGame(tbl *lua.LTable) gameDef {
	g := gameDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Start:   getString(tbl, "start"),
		Intro:   getString(tbl, "intro"),
		Player: beingDef{
			Attackable: true,
			WoundRate:  world.DefaultWoundRate,
			Damage:     world.DefaultDamageBareHands,
			Respawn:    world.RespawnSettings{Lives: world.DefaultRespawnLives},
		},
	}
	if p := getTable(tbl, "player"); p != nil {
		g.Player = compileBeing(p)
	}
	return g
}

func compileThing(raw rawDef) thingDef {
	tbl := raw.table
	t := thingDef{
		Name:        raw.name,
		Kind:        raw.kind,
		Title:       getString(tbl, "title"),
		Description: getString(tbl, "description"),
		Aliases:     stringList(tbl.RawGetString("aliases")),
		Tags:        stringList(tbl.RawGetString("tags")),
		Messages:    tableToStringMap(getTable(tbl, "messages")),
	}

	// on = { afterTake = "fn" } or { afterTake = { "fn1", "fn2" } }.
	// Event names are sorted so bindings come out in a stable order.
	if on := getTable(tbl, "on"); on != nil {
		for _, ev := range sortedKeys(on) {
			for _, fn := range stringList(on.RawGetString(ev)) {
				t.On = append(t.On, eventBinding{Event: ev, Function: fn})
			}
		}
	}

	// guards = { beforeGotoLocation = { when = { has_item = "lamp" }, message = "..." } }.
	if guards := getTable(tbl, "guards"); guards != nil {
		for _, ev := range sortedKeys(guards) {
			g, ok := guards.RawGetString(ev).(*lua.LTable)
			if !ok {
				continue
			}
			t.Guards = append(t.Guards, guardDef{
				Event:   ev,
				When:    tableToAnyMap(getTable(g, "when")),
				Message: getString(g, "message"),
			})
		}
	}
	return t
}

func compileRoom(raw rawDef) roomDef {
	return roomDef{
		thingDef: compileThing(raw),
		Exits:    tableToStringMap(getTable(raw.table, "exits")),
	}
}

func compileObject(raw rawDef) objectDef {
	tbl := raw.table
	return objectDef{
		thingDef:  compileThing(raw),
		Location:  getString(tbl, "location"),
		Weight:    getInt(tbl, "weight", 0),
		Damage:    getInt(tbl, "damage", 0),
		Text:      getString(tbl, "text"),
		Weapon:    getBool(tbl, "weapon", false),
		Takeable:  getBool(tbl, "takeable", true),
		Droppable: getBool(tbl, "droppable", true),
	}
}

func compileBeing(tbl *lua.LTable) beingDef {
	b := beingDef{
		MaxHealth:  getInt(tbl, "max_health", 0),
		Capacity:   getInt(tbl, "capacity", 0),
		Damage:     getInt(tbl, "damage", world.DefaultDamageBareHands),
		WoundRate:  getNumber(tbl, "wound_rate", world.DefaultWoundRate),
		Attackable: getBool(tbl, "attackable", true),
		Attributes: tableToIntMap(getTable(tbl, "attributes")),
		Respawn:    world.RespawnSettings{Lives: world.DefaultRespawnLives},
	}
	if r := getTable(tbl, "respawn"); r != nil {
		b.Respawn = world.RespawnSettings{
			Enabled:  getBool(r, "enabled", true),
			Interval: getInt(r, "interval", 0),
			Lives:    getInt(r, "lives", world.DefaultRespawnLives),
		}
	}
	return b
}

func compileCreature(raw rawDef) (creatureDef, error) {
	tbl := raw.table
	c := creatureDef{
		thingDef:      compileThing(raw),
		beingDef:      compileBeing(tbl),
		Location:      getString(tbl, "location"),
		Allegiance:    getString(tbl, "allegiance"),
		CounterAttack: getBool(tbl, "counter_attack", true),
		AutoAttack:    world.AutoAttackSettings{Interval: world.DefaultAutoAttackInterval},
		Wander:        world.WanderSettings{Interval: world.DefaultWanderInterval, Lust: world.DefaultWanderLust},
	}
	if a := getTable(tbl, "auto_attack"); a != nil {
		c.AutoAttack = world.AutoAttackSettings{
			Enabled:  getBool(a, "enabled", true),
			Interval: getInt(a, "interval", world.DefaultAutoAttackInterval),
			Repeat:   getBool(a, "repeat", false),
		}
	}
	if w := getTable(tbl, "wander"); w != nil {
		c.Wander = world.WanderSettings{
			Enabled:  getBool(w, "enabled", true),
			Interval: getInt(w, "interval", world.DefaultWanderInterval),
			Lust:     getNumber(w, "lust", world.DefaultWanderLust),
		}
	}
	if c.Wander.Lust < 0 || c.Wander.Lust > 1 {
		return c, fmt.Errorf("wander lust %v is not a probability", c.Wander.Lust)
	}
	return c, nil
}

// sortedLuaFiles returns .lua files in a directory, with game.lua first
// and the rest sorted alphabetically.
func sortedLuaFiles(files []string) []string {
	var gameFile string
	var others []string
	for _, f := range files {
		if f == "game.lua" {
			gameFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if gameFile != "" {
		return append([]string{gameFile}, others...)
	}
	return others
}
