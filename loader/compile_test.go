package loader

import (
	"reflect"
	"testing"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/trogdor/engine/script"
	"github.com/nathoo/trogdor/engine/world"
)

// newTestVM creates a sandboxed Lua VM with the API registered and a fresh collector.
func newTestVM() (*lua.LState, *collector) {
	L := script.NewState()
	coll := &collector{}
	registerAPI(L, coll)
	return L, coll
}

func run(t *testing.T, L *lua.LState, src string) {
	t.Helper()
	if err := L.DoString(src); err != nil {
		t.Fatal(err)
	}
}

func TestCompileGame(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	run(t, L, `
		return {
			title = "Test Game",
			author = "Author",
			version = "1.0",
			start = "hall",
			intro = "Welcome!"
		}
	`)

	game := compileGame(L.CheckTable(-1))

	if game.Title != "Test Game" {
		t.Errorf("Title = %q, want %q", game.Title, "Test Game")
	}
	if game.Author != "Author" {
		t.Errorf("Author = %q, want %q", game.Author, "Author")
	}
	if game.Version != "1.0" {
		t.Errorf("Version = %q, want %q", game.Version, "1.0")
	}
	if game.Start != "hall" {
		t.Errorf("Start = %q, want %q", game.Start, "hall")
	}
	if game.Intro != "Welcome!" {
		t.Errorf("Intro = %q, want %q", game.Intro, "Welcome!")
	}

	// No player table: the defaults every new being gets.
	p := game.Player
	if !p.Attackable {
		t.Error("default player should be attackable")
	}
	if p.Damage != world.DefaultDamageBareHands {
		t.Errorf("Damage = %d, want %d", p.Damage, world.DefaultDamageBareHands)
	}
	if p.WoundRate != world.DefaultWoundRate {
		t.Errorf("WoundRate = %v, want %v", p.WoundRate, world.DefaultWoundRate)
	}
	if p.Respawn.Lives != world.DefaultRespawnLives {
		t.Errorf("Respawn.Lives = %d, want %d", p.Respawn.Lives, world.DefaultRespawnLives)
	}
}

func TestCompileGame_Player(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	run(t, L, `
		return {
			title = "T",
			player = {
				max_health = 20,
				capacity = 15,
				damage = 3,
				wound_rate = 0.5,
				attributes = { strength = 12 },
				respawn = { interval = 4 },
			},
		}
	`)

	p := compileGame(L.CheckTable(-1)).Player
	if p.MaxHealth != 20 || p.Capacity != 15 || p.Damage != 3 {
		t.Errorf("player = %+v", p)
	}
	if p.WoundRate != 0.5 {
		t.Errorf("WoundRate = %v, want 0.5", p.WoundRate)
	}
	if p.Attributes["strength"] != 12 {
		t.Errorf("strength = %d, want 12", p.Attributes["strength"])
	}
	want := world.RespawnSettings{Enabled: true, Interval: 4, Lives: world.DefaultRespawnLives}
	if p.Respawn != want {
		t.Errorf("Respawn = %+v, want %+v", p.Respawn, want)
	}
}

func TestCompileRoom_Exits(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	run(t, L, `
		Room "hall" {
			title = "Great Hall",
			description = "A grand hall.",
			exits = { north = "library", south = "courtyard" },
		}
	`)

	if len(coll.defs) != 1 {
		t.Fatalf("collected %d defs, want 1", len(coll.defs))
	}
	room := compileRoom(coll.defs[0])
	if room.Name != "hall" || room.Kind != world.KindRoom {
		t.Errorf("room = %q (%s)", room.Name, room.Kind)
	}
	if room.Title != "Great Hall" {
		t.Errorf("Title = %q, want %q", room.Title, "Great Hall")
	}
	want := map[string]string{"north": "library", "south": "courtyard"}
	if !reflect.DeepEqual(room.Exits, want) {
		t.Errorf("Exits = %v, want %v", room.Exits, want)
	}
}

func TestCompileObject_Defaults(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	run(t, L, `
		Object "lamp" { location = "hall" }
		Item "anchor" { location = "hall", takeable = false, droppable = false, weight = 50 }
	`)

	lamp := compileObject(coll.defs[0])
	if !lamp.Takeable || !lamp.Droppable {
		t.Errorf("lamp takeable=%v droppable=%v, want both true", lamp.Takeable, lamp.Droppable)
	}
	if lamp.Weapon {
		t.Error("lamp should not be a weapon")
	}

	anchor := compileObject(coll.defs[1])
	if anchor.Kind != world.KindObject {
		t.Errorf("Item kind = %s, want object", anchor.Kind)
	}
	if anchor.Takeable || anchor.Droppable {
		t.Errorf("anchor takeable=%v droppable=%v, want both false", anchor.Takeable, anchor.Droppable)
	}
	if anchor.Weight != 50 {
		t.Errorf("Weight = %d, want 50", anchor.Weight)
	}
}

func TestCompileThing_Lists(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	run(t, L, `
		Object "key" {
			aliases = "brass key",
			tags = { "shiny", "small" },
			messages = { take = "Got it." },
		}
	`)

	key := compileObject(coll.defs[0])
	if !reflect.DeepEqual(key.Aliases, []string{"brass key"}) {
		t.Errorf("Aliases = %v", key.Aliases)
	}
	if !reflect.DeepEqual(key.Tags, []string{"shiny", "small"}) {
		t.Errorf("Tags = %v", key.Tags)
	}
	if key.Messages["take"] != "Got it." {
		t.Errorf("Messages = %v", key.Messages)
	}
}

func TestCompileThing_EventBindingsSorted(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	run(t, L, `
		Object "idol" {
			on = {
				beforeTake = "curse",
				afterTake = { "rumble", "close_door" },
			},
		}
	`)

	got := compileObject(coll.defs[0]).On
	want := []eventBinding{
		{Event: "afterTake", Function: "rumble"},
		{Event: "afterTake", Function: "close_door"},
		{Event: "beforeTake", Function: "curse"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("On = %v, want %v", got, want)
	}
}

func TestCompileThing_Guards(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	run(t, L, `
		Room "vault" {
			guards = {
				beforeGotoLocation = {
					when = { has_item = "lamp", health_gt = 2, ["not"] = { tagged = "cursed" } },
					message = "Too dark.",
				},
				beforeDrop = { when = { alive = true } },
				afterTake = "not a table",
			},
		}
	`)

	got := compileRoom(coll.defs[0]).Guards
	want := []guardDef{
		{Event: "beforeDrop", When: map[string]any{"alive": true}},
		{
			Event: "beforeGotoLocation",
			When: map[string]any{
				"has_item":  "lamp",
				"health_gt": float64(2),
				"not":       map[string]any{"tagged": "cursed"},
			},
			Message: "Too dark.",
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Guards = %#v, want %#v", got, want)
	}
}

func TestCompileCreature(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	run(t, L, `
		Creature "troll" {
			location = "cave",
			allegiance = "enemy",
			max_health = 30,
			counter_attack = false,
			auto_attack = { interval = 2, ["repeat"] = true },
			respawn = { enabled = false },
		}
		NPC "cat" { wander = { lust = 0.9 } }
	`)

	troll, err := compileCreature(coll.defs[0])
	if err != nil {
		t.Fatal(err)
	}
	if troll.MaxHealth != 30 || troll.Allegiance != "enemy" || troll.Location != "cave" {
		t.Errorf("troll = %+v", troll)
	}
	if troll.CounterAttack {
		t.Error("counter_attack = false was ignored")
	}
	wantAttack := world.AutoAttackSettings{Enabled: true, Interval: 2, Repeat: true}
	if troll.AutoAttack != wantAttack {
		t.Errorf("AutoAttack = %+v, want %+v", troll.AutoAttack, wantAttack)
	}
	if troll.Wander.Enabled {
		t.Error("troll has no wander table and should not wander")
	}
	if troll.Respawn.Enabled {
		t.Error("respawn.enabled = false was ignored")
	}

	cat, err := compileCreature(coll.defs[1])
	if err != nil {
		t.Fatal(err)
	}
	if cat.Kind != world.KindCreature {
		t.Errorf("NPC kind = %s, want creature", cat.Kind)
	}
	if !cat.CounterAttack {
		t.Error("counter_attack should default to true")
	}
	wantWander := world.WanderSettings{Enabled: true, Interval: world.DefaultWanderInterval, Lust: 0.9}
	if cat.Wander != wantWander {
		t.Errorf("Wander = %+v, want %+v", cat.Wander, wantWander)
	}
	if cat.AutoAttack.Enabled {
		t.Error("cat should not auto-attack")
	}
}

func TestCompileCreature_BadLust(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	run(t, L, `
		Game { title = "T", start = "cave" }
		Creature "bat" { wander = { lust = 2 } }
	`)

	if _, err := compile(coll); err == nil {
		t.Fatal("expected an error for lust 2")
	}
}

func TestCompile_GlobalHandlers(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	run(t, L, `
		Game { title = "T", start = "hall" }
		On("afterDie", "mourn")
		On("afterRespawn", "cheer")
	`)

	d, err := compile(coll)
	if err != nil {
		t.Fatal(err)
	}
	want := []eventBinding{
		{Event: "afterDie", Function: "mourn"},
		{Event: "afterRespawn", Function: "cheer"},
	}
	if !reflect.DeepEqual(d.Handlers, want) {
		t.Errorf("Handlers = %v, want %v", d.Handlers, want)
	}
}

func TestCompile_NoGame(t *testing.T) {
	L, coll := newTestVM()
	defer L.Close()

	run(t, L, `Room "hall" {}`)

	if _, err := compile(coll); err == nil {
		t.Fatal("expected an error without a Game definition")
	}
}

func TestSortedLuaFiles(t *testing.T) {
	got := sortedLuaFiles([]string{"rooms.lua", "game.lua", "creatures.lua"})
	want := []string{"game.lua", "creatures.lua", "rooms.lua"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sortedLuaFiles = %v, want %v", got, want)
	}
}
