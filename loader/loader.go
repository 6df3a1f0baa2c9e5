// Package loader builds a world from Lua definition files. Definitions
// run in a throwaway Lua VM; handler scripts, which must stay around while
// the game runs, live in a separate scripts/ directory and are loaded into
// the game's script runtime.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/nathoo/trogdor/engine/rules"
	"github.com/nathoo/trogdor/engine/script"
	"github.com/nathoo/trogdor/engine/world"
)

// ScriptDir is the subdirectory of a game directory holding handler
// scripts.
const ScriptDir = "scripts"

// collector accumulates Lua definitions during file execution.
type collector struct {
	game     *lua.LTable
	defs     []rawDef
	handlers []rawHandler
}

// Binding attaches a script function to an event on one entity's listener.
// An empty Entity means the global listener.
type Binding struct {
	Entity   string
	Event    string
	Function string
}

// Guard vetoes an event on one entity's listener for any being failing
// When. An empty Entity means the global listener.
type Guard struct {
	Entity  string
	Event   string
	When    []rules.Condition
	Message string
}

// Game is a loaded game: its world and the script bindings and guards to
// install once the engine is running.
type Game struct {
	Title    string
	Author   string
	Version  string
	Intro    string
	Start    string
	World    *world.World
	Bindings []Binding
	Guards   []Guard

	player beingDef
}

// Option configures Load.
type Option func(*options)

type options struct {
	logger *zap.Logger
	rng    *world.RNG
}

// WithLogger sets where validation warnings go.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRNG sets the world's dice.
func WithRNG(rng *world.RNG) Option {
	return func(o *options) { o.rng = rng }
}

// Load reads all .lua files from dir, compiles them into definitions,
// validates references and builds the world. The Lua VM is discarded after
// loading.
func Load(dir string, opts ...Option) (*Game, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	luaFiles, err := luaFilesIn(dir)
	if err != nil {
		return nil, fmt.Errorf("reading game directory %s: %w", dir, err)
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}
	luaFiles = sortedLuaFiles(luaFiles)

	L := script.NewState()
	defer L.Close()

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		if err := L.DoFile(filepath.Join(dir, f)); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	d, err := compile(coll)
	if err != nil {
		return nil, fmt.Errorf("compiling game data: %w", err)
	}

	ve := validate(d)
	for _, w := range ve.Warnings {
		o.logger.Warn("game definition", zap.String("warning", w))
	}
	if len(ve.Errors) > 0 {
		return nil, ve
	}

	return build(d, o.rng)
}

// LoadScripts loads every .lua file in dir/scripts into rt, in name
// order. A game without a scripts directory has nothing to load.
func LoadScripts(dir string, rt *script.Lua) error {
	sdir := filepath.Join(dir, ScriptDir)
	files, err := luaFilesIn(sdir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading script directory %s: %w", sdir, err)
	}
	for _, f := range sortedLuaFiles(files) {
		if err := rt.LoadFile(filepath.Join(sdir, f)); err != nil {
			return err
		}
	}
	return nil
}

// CheckBindings reports bindings whose function rt does not define.
func CheckBindings(g *Game, rt interface{ Has(string) bool }) error {
	ve := &ValidationError{}
	for _, b := range g.Bindings {
		if !rt.Has(b.Function) {
			owner := b.Entity
			if owner == "" {
				owner = "global listener"
			}
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s: %s handler %q is not defined by any script", owner, b.Event, b.Function))
		}
	}
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// NewPlayer creates a player with the game's player settings. It is not
// inserted into the world.
func (g *Game) NewPlayer(name string) *world.Player {
	p := world.NewPlayer(name)
	applyBeing(&p.Being, g.player)
	return p
}

// StartRoom is where new players appear.
func (g *Game) StartRoom() *world.Room {
	return g.World.Room(g.Start)
}

func luaFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			files = append(files, e.Name())
		}
	}
	return files, nil
}

// build turns validated definitions into a world. Rooms come first so
// that everything else has somewhere to go; objects carried by creatures
// are handed over after the creatures exist.
func build(d *defs, rng *world.RNG) (*Game, error) {
	w := world.New(rng)
	g := &Game{
		Title:   d.Game.Title,
		Author:  d.Game.Author,
		Version: d.Game.Version,
		Intro:   d.Game.Intro,
		Start:   d.Game.Start,
		World:   w,
		player:  d.Game.Player,
	}

	for _, rd := range d.Rooms {
		r := world.NewRoom(rd.Name)
		applyThing(r, rd.thingDef)
		if err := w.Insert(r); err != nil {
			return nil, err
		}
	}
	for _, rd := range d.Rooms {
		r := w.Room(rd.Name)
		for dir, target := range rd.Exits {
			r.Connect(dir, w.Room(target))
		}
	}

	for _, cd := range d.Creatures {
		c := world.NewCreature(cd.Name)
		applyThing(c, cd.thingDef)
		applyBeing(&c.Being, cd.beingDef)
		if cd.Allegiance != "" {
			a, err := world.ParseAllegiance(cd.Allegiance)
			if err != nil {
				return nil, fmt.Errorf("creature %s: %w", cd.Name, err)
			}
			c.SetAllegiance(a)
		}
		c.SetCounterAttack(cd.CounterAttack)
		c.SetAutoAttack(cd.AutoAttack)
		c.SetWander(cd.Wander)
		if err := w.Insert(c); err != nil {
			return nil, err
		}
		w.Place(c, w.Room(cd.Location))
	}

	for _, od := range d.Objects {
		o := world.NewObject(od.Name)
		applyThing(o, od.thingDef)
		o.SetWeight(od.Weight)
		o.SetDamage(od.Damage)
		o.SetText(od.Text)
		if od.Weapon {
			o.SetTag(world.TagWeapon)
		}
		if !od.Takeable {
			o.SetTag(world.TagUntakeable)
		}
		if !od.Droppable {
			o.SetTag(world.TagUndroppable)
		}
		if err := w.Insert(o); err != nil {
			return nil, err
		}
		if b := w.Being(od.Location); b != nil {
			if err := w.Give(b, o); err != nil {
				return nil, fmt.Errorf("object %s: %w", od.Name, err)
			}
		} else {
			w.Place(o, w.Room(od.Location))
		}
	}

	for _, h := range d.Handlers {
		g.Bindings = append(g.Bindings, Binding{Event: h.Event, Function: h.Function})
	}
	addBindings := func(t thingDef) error {
		for _, on := range t.On {
			g.Bindings = append(g.Bindings, Binding{Entity: t.Name, Event: on.Event, Function: on.Function})
		}
		for _, gd := range t.Guards {
			when, err := rules.Parse(gd.When)
			if err != nil {
				return fmt.Errorf("%s %s guard: %w", t.Name, gd.Event, err)
			}
			g.Guards = append(g.Guards, Guard{Entity: t.Name, Event: gd.Event, When: when, Message: gd.Message})
		}
		return nil
	}
	things := make([]thingDef, 0, len(d.Rooms)+len(d.Creatures)+len(d.Objects))
	for _, rd := range d.Rooms {
		things = append(things, rd.thingDef)
	}
	for _, cd := range d.Creatures {
		things = append(things, cd.thingDef)
	}
	for _, od := range d.Objects {
		things = append(things, od.thingDef)
	}
	for _, t := range things {
		if err := addBindings(t); err != nil {
			return nil, err
		}
	}
	return g, nil
}

type describable interface {
	SetTitle(string)
	SetDescription(string)
	AddAlias(string)
	SetTag(string)
	SetMessage(key, msg string)
}

func applyThing(e describable, t thingDef) {
	if t.Title != "" {
		e.SetTitle(t.Title)
	}
	e.SetDescription(t.Description)
	for _, a := range t.Aliases {
		e.AddAlias(a)
	}
	for _, tag := range t.Tags {
		e.SetTag(tag)
	}
	for k, m := range t.Messages {
		e.SetMessage(k, m)
	}
}

func applyBeing(b *world.Being, d beingDef) {
	b.SetMaxHealth(d.MaxHealth)
	b.SetInventoryCapacity(d.Capacity)
	b.SetDamageBareHands(d.Damage)
	b.SetWoundRate(d.WoundRate)
	b.SetAttackable(d.Attackable)
	for k, v := range d.Attributes {
		b.SetAttribute(k, v)
	}
	b.SetRespawn(d.Respawn)
}
