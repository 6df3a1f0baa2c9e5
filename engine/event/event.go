// Package event implements the before/after hook system that sits around
// every world mutation.
//
// An Event names what is happening and carries the listeners to notify plus
// an ordered argument list. Listeners hold triggers keyed by event name. The
// Dispatcher walks listeners in order and folds every trigger's Verdict into
// a single allow/suppress answer for the action that fired the event.
package event

// Event is immutable once built. Getters hand out copies so that no caller
// can change what later listeners see.
type Event struct {
	name      string
	listeners []*Listener
	args      []Argument
}

// New builds an event. The listener and argument slices are copied.
func New(name string, listeners []*Listener, args ...Argument) Event {
	return Event{
		name:      name,
		listeners: append([]*Listener(nil), listeners...),
		args:      append([]Argument(nil), args...),
	}
}

func (e Event) Name() string { return e.name }

func (e Event) Listeners() []*Listener {
	return append([]*Listener(nil), e.listeners...)
}

func (e Event) Args() []Argument {
	return append([]Argument(nil), e.args...)
}

func (e Event) NumArgs() int { return len(e.args) }

// Arg returns argument i, or false if out of range.
func (e Event) Arg(i int) (Argument, bool) {
	if i < 0 || i >= len(e.args) {
		return Argument{}, false
	}
	return e.args[i], true
}

// EntityArg is shorthand for an entity argument at position i. It returns nil
// if the position is missing, not an entity, or a nil entity.
func (e Event) EntityArg(i int) Entity {
	a, ok := e.Arg(i)
	if !ok {
		return nil
	}
	ent, _ := a.Entity()
	return ent
}

// WithPrepended returns a copy of e with l placed before every other
// listener.
func (e Event) WithPrepended(l *Listener) Event {
	listeners := make([]*Listener, 0, len(e.listeners)+1)
	listeners = append(listeners, l)
	listeners = append(listeners, e.listeners...)
	return Event{name: e.name, listeners: listeners, args: e.args}
}

// WithAppended returns a copy of e with l placed after every other listener.
func (e Event) WithAppended(l *Listener) Event {
	listeners := make([]*Listener, 0, len(e.listeners)+1)
	listeners = append(listeners, e.listeners...)
	listeners = append(listeners, l)
	return Event{name: e.name, listeners: listeners, args: e.args}
}
