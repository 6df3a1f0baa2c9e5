// Package world holds the entities that events and timer jobs act on:
// rooms, objects, players and creatures.
//
// Every entity carries its own RWMutex. It is taken around single
// read-modify-write steps and released before any event is fired, so a
// trigger may freely touch the entity that fired it. Operations that move
// things between containers lock each container in turn, never two at once.
package world

import (
	"sort"
	"strings"
	"sync"

	"github.com/nathoo/trogdor/engine/event"
)

// Kind is the concrete type of an entity.
type Kind int

const (
	KindRoom Kind = iota
	KindObject
	KindCreature
	KindPlayer
)

func (k Kind) String() string {
	switch k {
	case KindRoom:
		return "room"
	case KindObject:
		return "object"
	case KindCreature:
		return "creature"
	case KindPlayer:
		return "player"
	default:
		return "unknown"
	}
}

// Well-known tags.
const (
	TagWeapon      = "weapon"
	TagUntakeable  = "untakeable"
	TagUndroppable = "undroppable"
	TagAttackable  = "attackable"
)

// Entity is anything with a name that can own a listener.
type Entity interface {
	event.Entity

	Kind() Kind
	Title() string
	Description() string
	Aliases() []string
	Listener() *event.Listener
	Destroyed() bool
	HasTag(tag string) bool
	Tags() []string
	Message(key string) string
	Location() *Room

	thing() *Thing
}

// Thing is the state every entity shares. Concrete entity types embed it.
type Thing struct {
	mu sync.RWMutex

	name        string
	kind        Kind
	title       string
	description string
	aliases     []string
	tags        map[string]struct{}
	messages    map[string]string
	location    *Room
	destroyed   bool

	listener *event.Listener
	world    *World
}

func (t *Thing) init(kind Kind, name string) {
	t.name = name
	t.kind = kind
	t.title = name
	t.aliases = []string{name}
	t.tags = make(map[string]struct{})
	t.messages = make(map[string]string)
	t.listener = event.NewListener(name)
}

func (t *Thing) thing() *Thing { return t }

func (t *Thing) Name() string { return t.name }
func (t *Thing) Kind() Kind { return t.kind }

func (t *Thing) Listener() *event.Listener { return t.listener }

// World returns the world the entity was inserted into, or nil.
func (t *Thing) World() *World {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.world
}

func (t *Thing) Title() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.title
}

func (t *Thing) SetTitle(title string) {
	t.mu.Lock()
	t.title = title
	t.mu.Unlock()
}

func (t *Thing) Description() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.description
}

func (t *Thing) SetDescription(desc string) {
	t.mu.Lock()
	t.description = desc
	t.mu.Unlock()
}

// Aliases are the words a player may use to refer to the entity. The name
// is always the first alias.
func (t *Thing) Aliases() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.aliases...)
}

func (t *Thing) AddAlias(alias string) {
	alias = strings.ToLower(strings.TrimSpace(alias))
	if alias == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, a := range t.aliases {
		if a == alias {
			return
		}
	}
	t.aliases = append(t.aliases, alias)
}

func (t *Thing) HasTag(tag string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.tags[tag]
	return ok
}

func (t *Thing) SetTag(tag string) {
	t.mu.Lock()
	t.tags[tag] = struct{}{}
	t.mu.Unlock()
}

func (t *Thing) RemoveTag(tag string) {
	t.mu.Lock()
	delete(t.tags, tag)
	t.mu.Unlock()
}

// Tags returns the entity's tags sorted.
func (t *Thing) Tags() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tags := make([]string, 0, len(t.tags))
	for tag := range t.tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Message returns a named message, or "" when unset.
func (t *Thing) Message(key string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.messages[key]
}

func (t *Thing) SetMessage(key, msg string) {
	t.mu.Lock()
	t.messages[key] = msg
	t.mu.Unlock()
}

// Location is the room the entity is in. Rooms, held objects and entities
// that were never placed return nil.
func (t *Thing) Location() *Room {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.location
}

func (t *Thing) setLocation(r *Room) {
	t.mu.Lock()
	t.location = r
	t.mu.Unlock()
}

// Destroyed reports whether the entity was removed from its world.
func (t *Thing) Destroyed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.destroyed
}

// fire dispatches through the entity's world; entities outside a world
// allow everything.
func (t *Thing) fire(name string, listeners []*event.Listener, args ...event.Argument) bool {
	w := t.World()
	if w == nil {
		return true
	}
	return w.Fire(name, listeners, args...)
}

// IsNil reports whether e is nil or a typed nil pointer.
func IsNil(e Entity) bool {
	switch v := e.(type) {
	case nil:
		return true
	case *Room:
		return v == nil
	case *Object:
		return v == nil
	case *Creature:
		return v == nil
	case *Player:
		return v == nil
	case *Being:
		return v == nil
	}
	return false
}

// Ref wraps e as an event argument, mapping typed nil pointers to a nil
// entity reference.
func Ref(e Entity) event.Argument {
	if IsNil(e) {
		return event.EntityRef(nil)
	}
	if b, ok := e.(*Being); ok && b.self != nil {
		return event.EntityRef(b.self)
	}
	return event.EntityRef(e)
}

// Listeners collects the listeners of the given entities in order, skipping
// nil entities.
func Listeners(entities ...Entity) []*event.Listener {
	out := make([]*event.Listener, 0, len(entities))
	for _, e := range entities {
		if IsNil(e) {
			continue
		}
		out = append(out, e.Listener())
	}
	return out
}

// Matches reports whether word names e, by name or alias.
func Matches(e Entity, word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return false
	}
	if strings.ToLower(e.Name()) == word {
		return true
	}
	for _, a := range e.Aliases() {
		if strings.ToLower(a) == word {
			return true
		}
	}
	return strings.ToLower(e.Title()) == word
}
