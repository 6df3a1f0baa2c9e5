package world

import (
	"fmt"
	"sync"

	"github.com/nathoo/trogdor/engine/event"
)

// EventFirer dispatches a named event. engine.Game implements it with the
// dispatcher and its global listener.
type EventFirer interface {
	Fire(name string, listeners []*event.Listener, args ...event.Argument) bool
}

// World is the name-indexed table of every entity in a game.
type World struct {
	mu       sync.RWMutex
	entities map[string]Entity
	order    []string

	events EventFirer
	game   any
	rng    *RNG
}

// New creates an empty world drawing randomness from rng. A nil rng gets a
// fixed seed.
func New(rng *RNG) *World {
	if rng == nil {
		rng = NewRNG(1)
	}
	return &World{
		entities: make(map[string]Entity),
		rng:      rng,
	}
}

// SetEvents connects the world to an event dispatcher. game is passed as
// the first argument of every event the world fires.
func (w *World) SetEvents(f EventFirer, game any) {
	w.mu.Lock()
	w.events = f
	w.game = game
	w.mu.Unlock()
}

func (w *World) RNG() *RNG {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.rng
}

func (w *World) SetRNG(rng *RNG) {
	w.mu.Lock()
	w.rng = rng
	w.mu.Unlock()
}

// Fire dispatches an event with the game reference prepended to args. With
// no dispatcher attached every action is allowed.
func (w *World) Fire(name string, listeners []*event.Listener, args ...event.Argument) bool {
	w.mu.RLock()
	f, game := w.events, w.game
	w.mu.RUnlock()

	if f == nil {
		return true
	}
	full := make([]event.Argument, 0, len(args)+1)
	full = append(full, event.GameRef(game))
	full = append(full, args...)
	return f.Fire(name, listeners, full...)
}

// Insert adds e to the world. Names are unique across all kinds.
func (w *World) Insert(e Entity) error {
	if IsNil(e) {
		return fmt.Errorf("insert: %w", ErrNoSuchEntity)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.entities[e.Name()]; ok {
		return fmt.Errorf("insert %q: %w", e.Name(), ErrDuplicateName)
	}
	t := e.thing()
	t.mu.Lock()
	t.world = w
	t.destroyed = false
	t.mu.Unlock()

	w.entities[e.Name()] = e
	w.order = append(w.order, e.Name())
	return nil
}

// Remove destroys e: it is marked destroyed, dropped from the index and
// pulled out of its room. A being's inventory falls to the floor and a
// held object leaves its owner. No events fire. Timer jobs and triggers
// that still hold e see Destroyed() and stand down.
func (w *World) Remove(name string) (Entity, error) {
	w.mu.Lock()
	e, ok := w.entities[name]
	if ok {
		delete(w.entities, name)
		for i, n := range w.order {
			if n == name {
				w.order = append(w.order[:i], w.order[i+1:]...)
				break
			}
		}
	}
	w.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("remove %q: %w", name, ErrNoSuchEntity)
	}

	switch v := e.(type) {
	case *Object:
		if owner := v.Owner(); owner != nil {
			owner.removeFromInventory(v)
			v.setOwner(nil)
		}
	case *Room:
		for _, inside := range v.unlinkAll() {
			inside.thing().setLocation(nil)
		}
		for _, other := range w.Rooms() {
			other.disconnect(v)
		}
	case BeingEntity:
		b := v.AsBeing()
		loc := b.Location()
		for _, o := range b.Inventory() {
			b.removeFromInventory(o)
			o.setOwner(nil)
			if loc != nil {
				o.setLocation(loc)
				loc.insert(o)
			}
		}
	}

	t := e.thing()
	if loc := t.Location(); loc != nil {
		loc.remove(e)
	}
	t.mu.Lock()
	t.destroyed = true
	t.location = nil
	t.mu.Unlock()
	e.Listener().Clear()
	return e, nil
}

// Place puts e into room r without firing events. Loaders use it to lay
// out the initial world; r nil takes e out of its room.
func (w *World) Place(e Entity, r *Room) {
	if _, ok := e.(*Room); ok {
		return
	}
	if o, ok := e.(*Object); ok {
		if owner := o.Owner(); owner != nil {
			owner.removeFromInventory(o)
			o.setOwner(nil)
		}
	}
	place(e, r)
}

// Give puts o straight into b's inventory, ignoring weight and tags and
// firing no events.
func (w *World) Give(b BeingEntity, o *Object) error {
	being := b.AsBeing()
	if being.Carries(o) {
		return nil
	}
	if err := being.insertIntoInventory(o, false); err != nil {
		return err
	}
	if loc := o.Location(); loc != nil {
		loc.remove(o)
		o.setLocation(nil)
	}
	if prev := o.Owner(); prev != nil {
		prev.removeFromInventory(o)
	}
	o.setOwner(being)
	return nil
}

// Entity looks up any entity by name.
func (w *World) Entity(name string) (Entity, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.entities[name]
	return e, ok
}

func (w *World) Room(name string) *Room {
	e, _ := w.Entity(name)
	r, _ := e.(*Room)
	return r
}

func (w *World) Object(name string) *Object {
	e, _ := w.Entity(name)
	o, _ := e.(*Object)
	return o
}

func (w *World) Creature(name string) *Creature {
	e, _ := w.Entity(name)
	c, _ := e.(*Creature)
	return c
}

func (w *World) Player(name string) *Player {
	e, _ := w.Entity(name)
	p, _ := e.(*Player)
	return p
}

// Being looks up a player or creature by name.
func (w *World) Being(name string) BeingEntity {
	e, _ := w.Entity(name)
	b, _ := e.(BeingEntity)
	return b
}

// Entities returns every entity in insertion order.
func (w *World) Entities() []Entity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Entity, 0, len(w.order))
	for _, name := range w.order {
		out = append(out, w.entities[name])
	}
	return out
}

func (w *World) Rooms() []*Room {
	var out []*Room
	for _, e := range w.Entities() {
		if r, ok := e.(*Room); ok {
			out = append(out, r)
		}
	}
	return out
}

func (w *World) Creatures() []*Creature {
	var out []*Creature
	for _, e := range w.Entities() {
		if c, ok := e.(*Creature); ok {
			out = append(out, c)
		}
	}
	return out
}

func (w *World) Players() []*Player {
	var out []*Player
	for _, e := range w.Entities() {
		if p, ok := e.(*Player); ok {
			out = append(out, p)
		}
	}
	return out
}

func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.entities)
}
