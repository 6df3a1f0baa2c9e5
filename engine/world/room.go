package world

import (
	"sort"
)

// Room is a place that holds things and connects to other rooms.
type Room struct {
	Thing

	contents    []Entity
	connections map[string]*Room
}

// NewRoom creates a room outside any world.
func NewRoom(name string) *Room {
	r := &Room{connections: make(map[string]*Room)}
	r.init(KindRoom, name)
	return r
}

// Contents returns everything in the room in arrival order.
func (r *Room) Contents() []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Entity(nil), r.contents...)
}

// Objects returns the loose objects in the room.
func (r *Room) Objects() []*Object {
	var out []*Object
	for _, e := range r.Contents() {
		if o, ok := e.(*Object); ok {
			out = append(out, o)
		}
	}
	return out
}

func (r *Room) Creatures() []*Creature {
	var out []*Creature
	for _, e := range r.Contents() {
		if c, ok := e.(*Creature); ok {
			out = append(out, c)
		}
	}
	return out
}

func (r *Room) Players() []*Player {
	var out []*Player
	for _, e := range r.Contents() {
		if p, ok := e.(*Player); ok {
			out = append(out, p)
		}
	}
	return out
}

// Contains reports whether e is directly in the room.
func (r *Room) Contains(e Entity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.contents {
		if c == e {
			return true
		}
	}
	return false
}

// Connect links direction dir to another room. The link is one-way.
func (r *Room) Connect(dir string, to *Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if to == nil {
		delete(r.connections, dir)
		return
	}
	r.connections[dir] = to
}

// Connection returns the room in direction dir, or nil.
func (r *Room) Connection(dir string) *Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.connections[dir]
}

// Directions returns the room's exits sorted.
func (r *Room) Directions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dirs := make([]string, 0, len(r.connections))
	for dir := range r.connections {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// Announce sends msg to every player in the room except the ones listed.
func (r *Room) Announce(msg string, except ...Entity) {
	for _, p := range r.Players() {
		skip := false
		for _, e := range except {
			if !IsNil(e) && e.Name() == p.Name() {
				skip = true
				break
			}
		}
		if !skip {
			p.Out(msg)
		}
	}
}

func (r *Room) insert(e Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.contents {
		if c == e {
			return
		}
	}
	r.contents = append(r.contents, e)
}

func (r *Room) remove(e Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.contents {
		if c == e {
			r.contents = append(r.contents[:i], r.contents[i+1:]...)
			return
		}
	}
}

func (r *Room) unlinkAll() []Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	contents := r.contents
	r.contents = nil
	r.connections = make(map[string]*Room)
	return contents
}

func (r *Room) disconnect(target *Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for dir, to := range r.connections {
		if to == target {
			delete(r.connections, dir)
		}
	}
}
