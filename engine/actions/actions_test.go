package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/trogdor/engine/event"
	"github.com/nathoo/trogdor/engine/world"
	"github.com/nathoo/trogdor/types"
)

type fakeEnv struct {
	w     *world.World
	ticks int
}

func (e *fakeEnv) World() *world.World { return e.w }
func (e *fakeEnv) Tick() { e.ticks++ }

type fixture struct {
	env    *fakeEnv
	disp   *event.Dispatcher
	fired  *[]event.Event
	hall   *world.Room
	yard   *world.Room
	player *world.Player
	troll  *world.Creature
	sword  *world.Object
	rock   *world.Object
	scroll *world.Object
	table  Table
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	w := world.New(world.NewRNG(1))
	fired := &[]event.Event{}
	disp := event.NewDispatcher(nil)
	for _, name := range []string{"beforeObserve", "afterObserve", "beforeRead", "afterRead", "beforeTake", "afterTake"} {
		disp.Global().Add(name, event.TriggerFunc("record", func(e event.Event) event.Verdict {
			*fired = append(*fired, e)
			return event.Proceed
		}))
	}
	w.SetEvents(disp, "game")

	f := &fixture{
		env:    &fakeEnv{w: w},
		disp:   disp,
		fired:  fired,
		hall:   world.NewRoom("hall"),
		yard:   world.NewRoom("yard"),
		player: world.NewPlayer("player"),
		troll:  world.NewCreature("troll"),
		sword:  world.NewObject("sword"),
		rock:   world.NewObject("rock"),
		scroll: world.NewObject("scroll"),
		table:  Default(),
	}
	for _, e := range []world.Entity{f.hall, f.yard, f.player, f.troll, f.sword, f.rock, f.scroll} {
		require.NoError(t, w.Insert(e))
	}
	f.hall.Connect("north", f.yard)
	f.yard.Connect("south", f.hall)
	f.sword.SetTag(world.TagWeapon)
	f.sword.SetDamage(5)
	f.scroll.SetText("Beware the troll.")
	f.troll.SetMaxHealth(10)
	for _, e := range []world.Entity{f.player, f.troll, f.sword, f.rock, f.scroll} {
		w.Place(e, f.hall)
	}
	return f
}

func (f *fixture) run(input types.Command) (Outcome, []string) {
	out := f.table.Execute(f.player, input, f.env)
	return out, f.player.Drain()
}

func (f *fixture) firedNames() []string {
	var names []string
	for _, e := range *f.fired {
		names = append(names, e.Name())
	}
	return names
}

func (f *fixture) veto(name string) {
	f.disp.Global().Add(name, event.TriggerFunc("veto", func(event.Event) event.Verdict {
		return event.Veto
	}))
}

func TestExecute_UnknownAndSyntax(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		cmd    types.Command
		status Status
		output string
	}{
		{types.Command{}, Invalid, "What do you want to do?"},
		{types.Command{Verb: "dance"}, Unknown, "I don't understand that."},
		{types.Command{Verb: "take"}, Invalid, "Take what?"},
		{types.Command{Verb: "go"}, Invalid, "Go where?"},
		{types.Command{Verb: "inventory", DirectObject: "sword"}, Invalid, "Just say inventory."},
	}
	for _, tt := range tests {
		out, lines := f.run(tt.cmd)
		assert.Equal(t, tt.status, out.Status, "%+v", tt.cmd)
		assert.Equal(t, []string{tt.output}, lines, "%+v", tt.cmd)
	}
}

func TestLook_Room(t *testing.T) {
	f := newFixture(t)

	out, lines := f.run(types.Command{Verb: "look"})
	assert.Equal(t, Done, out.Status)
	assert.Equal(t, []string{
		"hall",
		"troll is here.",
		"You see sword.",
		"You see rock.",
		"You see scroll.",
		"Exits: north.",
	}, lines)

	assert.Equal(t, []string{"beforeObserve", "afterObserve"}, f.firedNames())
	before := (*f.fired)[0]
	assert.Equal(t, 3, before.NumArgs())
	assert.Equal(t, "hall", before.EntityArg(2).Name())
}

func TestLook_Thing(t *testing.T) {
	f := newFixture(t)

	_, lines := f.run(types.Command{Verb: "look", DirectObject: "troll"})
	assert.Equal(t, []string{"You see nothing special about troll.", "Health: 10/10"}, lines)

	f.rock.SetDescription("A grey rock.")
	_, lines = f.run(types.Command{Verb: "look", DirectObject: "rock"})
	assert.Equal(t, []string{"A grey rock."}, lines)
}

func TestLook_Vetoed(t *testing.T) {
	f := newFixture(t)
	f.veto("beforeObserve")

	out, lines := f.run(types.Command{Verb: "look"})
	assert.Equal(t, Vetoed, out.Status)
	assert.Empty(t, lines)
}

func TestRead(t *testing.T) {
	f := newFixture(t)

	out, lines := f.run(types.Command{Verb: "read", DirectObject: "scroll"})
	assert.Equal(t, Done, out.Status)
	assert.Equal(t, []string{"Beware the troll."}, lines)
	assert.Equal(t, []string{"beforeRead", "afterRead"}, f.firedNames())

	read := (*f.fired)[0]
	assert.Equal(t, []*event.Listener{f.disp.Global(), f.player.Listener(), f.scroll.Listener()}, read.Listeners())
	assert.Equal(t, "player", read.EntityArg(1).Name())
	assert.Equal(t, "scroll", read.EntityArg(2).Name())

	out, lines = f.run(types.Command{Verb: "read", DirectObject: "rock"})
	assert.Equal(t, Invalid, out.Status)
	assert.Equal(t, []string{"There's nothing written on rock."}, lines)
}

func TestRead_Vetoed(t *testing.T) {
	f := newFixture(t)
	f.scroll.Listener().Add("beforeRead", event.TriggerFunc("blind", func(event.Event) event.Verdict {
		return event.Veto
	}))

	out, lines := f.run(types.Command{Verb: "read", DirectObject: "scroll"})
	assert.Equal(t, Vetoed, out.Status)
	assert.Empty(t, lines)
}

func TestTake(t *testing.T) {
	f := newFixture(t)

	out, lines := f.run(types.Command{Verb: "take", DirectObject: "sword"})
	assert.Equal(t, Done, out.Status)
	assert.Equal(t, []string{"You take the sword."}, lines)
	assert.True(t, f.player.Carries(f.sword))

	out, lines = f.run(types.Command{Verb: "take", DirectObject: "sword"})
	assert.Equal(t, Invalid, out.Status)
	assert.Equal(t, []string{"You already have that."}, lines)

	f.rock.SetTag(world.TagUntakeable)
	f.rock.SetMessage("untakeable", "It's stuck fast.")
	out, lines = f.run(types.Command{Verb: "take", DirectObject: "rock"})
	assert.Equal(t, Invalid, out.Status)
	assert.ErrorIs(t, out.Err, world.ErrUntakeable)
	assert.Equal(t, []string{"It's stuck fast."}, lines)

	_, lines = f.run(types.Command{Verb: "take", DirectObject: "troll"})
	assert.Equal(t, []string{"You can't take troll!"}, lines)

	out, lines = f.run(types.Command{Verb: "take", DirectObject: "banana"})
	assert.Equal(t, NotFound, out.Status)
	assert.Equal(t, []string{"You don't see banana here."}, lines)
}

func TestTake_TooHeavy(t *testing.T) {
	f := newFixture(t)
	f.player.SetInventoryCapacity(3)
	f.rock.SetWeight(5)

	out, lines := f.run(types.Command{Verb: "take", DirectObject: "rock"})
	assert.Equal(t, Invalid, out.Status)
	assert.Equal(t, []string{"That's too heavy for you to carry."}, lines)
}

func TestTake_AmbiguousThenClarified(t *testing.T) {
	f := newFixture(t)
	w := f.env.w
	rusty, golden := world.NewObject("rusty_key"), world.NewObject("golden_key")
	rusty.SetTitle("rusty key")
	golden.SetTitle("golden key")
	for _, o := range []*world.Object{rusty, golden} {
		require.NoError(t, w.Insert(o))
		w.Place(o, f.hall)
	}

	out, lines := f.run(types.Command{Verb: "take", DirectObject: "key"})
	assert.Equal(t, Ambiguous, out.Status)
	assert.Equal(t, []string{"which key? (rusty_key, golden_key)"}, lines)

	pc := f.player.TakePending()
	require.NotNil(t, pc)
	assert.Equal(t, []string{"rusty_key", "golden_key"}, pc.Candidates)
	assert.False(t, pc.Indirect)

	_, ok := Clarify(pc, "banana")
	assert.False(t, ok)

	cmd, ok := Clarify(pc, " Golden_Key ")
	require.True(t, ok)
	assert.Equal(t, types.Command{Verb: "take", DirectObject: "golden_key"}, cmd)

	out, _ = f.run(cmd)
	assert.Equal(t, Done, out.Status)
	assert.True(t, f.player.Carries(golden))
	assert.False(t, f.player.Carries(rusty))
}

func TestDrop(t *testing.T) {
	f := newFixture(t)

	out, lines := f.run(types.Command{Verb: "drop", DirectObject: "sword"})
	assert.Equal(t, Invalid, out.Status)
	assert.Equal(t, []string{"You don't have that."}, lines)

	require.NoError(t, f.env.w.Give(f.player, f.sword))
	f.sword.SetTag(world.TagUndroppable)
	_, lines = f.run(types.Command{Verb: "drop", DirectObject: "sword"})
	assert.Equal(t, []string{"You can't drop that!"}, lines)

	f.sword.RemoveTag(world.TagUndroppable)
	out, lines = f.run(types.Command{Verb: "drop", DirectObject: "sword"})
	assert.Equal(t, Done, out.Status)
	assert.Equal(t, []string{"You drop the sword."}, lines)
	assert.True(t, f.hall.Contains(f.sword))
}

func TestAttack(t *testing.T) {
	f := newFixture(t)
	f.player.SetAttribute("strength", 100)
	f.player.SetAttribute("dexterity", 0)
	f.player.SetAttribute("intelligence", 0)
	f.troll.SetWoundRate(1)
	f.troll.SetCounterAttack(false)

	_, lines := f.run(types.Command{Verb: "attack", DirectObject: "rock"})
	assert.Equal(t, []string{"You can't attack rock!"}, lines)

	out, _ := f.run(types.Command{Verb: "attack", DirectObject: "troll", IndirectObject: "rock"})
	assert.ErrorIs(t, out.Err, world.ErrNotWeapon)

	_, lines = f.run(types.Command{Verb: "attack", DirectObject: "troll", IndirectObject: "sword"})
	assert.Equal(t, []string{"You don't have sword."}, lines)

	require.NoError(t, f.env.w.Give(f.player, f.sword))
	out, _ = f.run(types.Command{Verb: "attack", DirectObject: "troll", IndirectObject: "sword"})
	assert.Equal(t, Done, out.Status)
	assert.Equal(t, 5, f.troll.Health())

	out, _ = f.run(types.Command{Verb: "attack", DirectObject: "troll", IndirectObject: "sword"})
	assert.Equal(t, Done, out.Status)
	assert.False(t, f.troll.Alive())

	out, lines = f.run(types.Command{Verb: "attack", DirectObject: "troll"})
	assert.Equal(t, Invalid, out.Status)
	assert.Equal(t, []string{"troll is already dead."}, lines)
}

func TestAttack_Self(t *testing.T) {
	f := newFixture(t)
	f.player.SetMaxHealth(10)

	out, lines := f.run(types.Command{Verb: "attack", DirectObject: "player"})
	assert.Equal(t, Done, out.Status)
	assert.False(t, f.player.Alive())
	assert.Contains(t, lines, "You die.")
}

func TestMove(t *testing.T) {
	f := newFixture(t)

	out, lines := f.run(types.Command{Verb: "go", DirectObject: "west"})
	assert.Equal(t, Invalid, out.Status)
	assert.Equal(t, []string{"You can't go that way."}, lines)

	out, lines = f.run(types.Command{Verb: "go", DirectObject: "north"})
	assert.Equal(t, Done, out.Status)
	assert.Same(t, f.yard, f.player.Location())
	assert.Equal(t, []string{"yard", "Exits: south."}, lines)
}

func TestMove_Vetoed(t *testing.T) {
	f := newFixture(t)
	f.yard.Listener().Add("beforeGotoLocation", event.TriggerFunc("locked", func(event.Event) event.Verdict {
		return event.Veto
	}))

	out, _ := f.run(types.Command{Verb: "go", DirectObject: "north"})
	assert.Equal(t, Vetoed, out.Status)
	assert.Same(t, f.hall, f.player.Location())
}

func TestInventory(t *testing.T) {
	f := newFixture(t)

	_, lines := f.run(types.Command{Verb: "inventory"})
	assert.Equal(t, []string{"You don't have anything!"}, lines)

	f.player.SetInventoryCapacity(20)
	f.sword.SetWeight(3)
	require.NoError(t, f.env.w.Give(f.player, f.sword))
	_, lines = f.run(types.Command{Verb: "inventory"})
	assert.Equal(t, []string{"You're carrying:", "  sword", "Total weight: 3/20"}, lines)
}

func TestWait(t *testing.T) {
	f := newFixture(t)

	out, lines := f.run(types.Command{Verb: "wait"})
	assert.Equal(t, Done, out.Status)
	assert.Equal(t, []string{"Time passes."}, lines)
	assert.Equal(t, 1, f.env.ticks)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "vetoed", Vetoed.String())
	assert.Equal(t, "not found", NotFound.String())
}
