package resolve

import (
	"errors"
	"testing"

	"github.com/nathoo/trogdor/engine/world"
	"github.com/nathoo/trogdor/types"
)

type fixture struct {
	player    *world.Player
	hall      *world.Room
	rustyKey  *world.Object
	goldenKey *world.Object
	door      *world.Object
	guard     *world.Creature
}

func testWorld(t *testing.T) *fixture {
	t.Helper()
	w := world.New(nil)
	f := &fixture{
		player:    world.NewPlayer("player"),
		hall:      world.NewRoom("hall"),
		rustyKey:  world.NewObject("rusty_key"),
		goldenKey: world.NewObject("golden_key"),
		door:      world.NewObject("iron_door"),
		guard:     world.NewCreature("guard"),
	}
	f.rustyKey.SetTitle("Rusty Key")
	f.goldenKey.SetTitle("Golden Key")
	f.door.SetTitle("Iron Door")
	f.guard.SetTitle("Old Guard")
	f.guard.AddAlias("watchman")

	for _, e := range []world.Entity{f.hall, f.player, f.rustyKey, f.goldenKey, f.door, f.guard} {
		if err := w.Insert(e); err != nil {
			t.Fatalf("insert %s: %v", e.Name(), err)
		}
	}
	for _, e := range []world.Entity{f.player, f.rustyKey, f.door, f.guard} {
		w.Place(e, f.hall)
	}
	return f
}

func TestResolve_ExactName(t *testing.T) {
	f := testWorld(t)

	res, err := Resolve(f.player, types.Command{Verb: "take", DirectObject: "rusty_key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Direct != world.Entity(f.rustyKey) {
		t.Errorf("Direct = %v, want rusty_key", res.Direct)
	}
	if res.Indirect != nil {
		t.Errorf("Indirect = %v, want nil", res.Indirect)
	}
}

func TestResolve_ByTitleAndAlias(t *testing.T) {
	f := testWorld(t)

	tests := []struct {
		word string
		want world.Entity
	}{
		{"rusty key", f.rustyKey},
		{"RUSTY KEY", f.rustyKey},
		{"key", f.rustyKey},
		{"door", f.door},
		{"watchman", f.guard},
		{"old guard", f.guard},
		{"hall", f.hall},
		{"player", f.player},
	}
	for _, tt := range tests {
		got, err := Name(f.player, tt.word)
		if err != nil {
			t.Errorf("Name(%q): unexpected error: %v", tt.word, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Name(%q) = %s, want %s", tt.word, got.Name(), tt.want.Name())
		}
	}
}

func TestResolve_NotVisible(t *testing.T) {
	f := testWorld(t)

	_, err := Name(f.player, "golden key")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Name != "golden key" {
		t.Errorf("Name = %q, want %q", nf.Name, "golden key")
	}
}

func TestResolve_AmbiguousAcrossInventoryAndRoom(t *testing.T) {
	f := testWorld(t)
	w := f.hall.World()
	if err := w.Give(f.player, f.goldenKey); err != nil {
		t.Fatal(err)
	}

	_, err := Resolve(f.player, types.Command{Verb: "take", DirectObject: "key"})
	var amb *AmbiguityError
	if !errors.As(err, &amb) {
		t.Fatalf("expected AmbiguityError, got %v", err)
	}
	if amb.Indirect {
		t.Error("direct object ambiguity reported as indirect")
	}
	want := []string{"golden_key", "rusty_key"}
	if len(amb.Candidates) != 2 || amb.Candidates[0] != want[0] || amb.Candidates[1] != want[1] {
		t.Errorf("Candidates = %v, want %v (inventory first)", amb.Candidates, want)
	}
	if amb.Error() != "which key? (golden_key, rusty_key)" {
		t.Errorf("Error() = %q", amb.Error())
	}

	_, err = Resolve(f.player, types.Command{Verb: "attack", DirectObject: "guard", IndirectObject: "key"})
	if !errors.As(err, &amb) || !amb.Indirect {
		t.Fatalf("expected indirect AmbiguityError, got %v", err)
	}
}

func TestResolve_NowhereSeesOnlyInventory(t *testing.T) {
	p := world.NewPlayer("lost")
	w := world.New(nil)
	coin := world.NewObject("coin")
	for _, e := range []world.Entity{p, coin} {
		if err := w.Insert(e); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Give(p, coin); err != nil {
		t.Fatal(err)
	}

	got := Visible(p)
	if len(got) != 2 || got[0] != world.Entity(coin) || got[1] != world.Entity(p) {
		t.Errorf("Visible = %v", got)
	}
}
