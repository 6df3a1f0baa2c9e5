package event

import (
	"fmt"
	"reflect"
	"runtime/debug"
	"sync"
)

// FaultHandler receives a trigger's recovered panic. The trigger is treated
// as having returned Proceed.
type FaultHandler func(t Trigger, e Event, err error)

// Listener is an ordered multimap of event name to triggers. Every world
// entity owns one and the game owns a global one.
type Listener struct {
	mu       sync.Mutex
	owner    string
	triggers map[string][]Trigger
	order    []string
}

// NewListener creates an empty listener. owner is informational.
func NewListener(owner string) *Listener {
	return &Listener{
		owner:    owner,
		triggers: make(map[string][]Trigger),
	}
}

func (l *Listener) Owner() string { return l.owner }

// Add appends t to the triggers run for name.
func (l *Listener) Add(name string, t Trigger) {
	if t == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.triggers[name]; !ok {
		l.order = append(l.order, name)
	}
	l.triggers[name] = append(l.triggers[name], t)
}

// Remove detaches the first occurrence of t under name.
func (l *Listener) Remove(name string, t Trigger) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	list := l.triggers[name]
	for i, candidate := range list {
		if !sameTrigger(candidate, t) {
			continue
		}
		next := make([]Trigger, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(l.triggers, name)
			l.dropName(name)
		} else {
			l.triggers[name] = next
		}
		return true
	}
	return false
}

// Rewrite replaces the triggers registered for name with fn's result in one
// step. fn receives a copy of the current list; nil entries in its result
// are dropped.
func (l *Listener) Rewrite(name string, fn func([]Trigger) []Trigger) {
	l.mu.Lock()
	defer l.mu.Unlock()

	list, had := l.triggers[name]
	next := make([]Trigger, 0, len(list))
	for _, t := range fn(append([]Trigger(nil), list...)) {
		if t != nil {
			next = append(next, t)
		}
	}
	if len(next) == 0 {
		if had {
			delete(l.triggers, name)
			l.dropName(name)
		}
		return
	}
	if !had {
		l.order = append(l.order, name)
	}
	l.triggers[name] = next
}

func (l *Listener) dropName(name string) {
	for i, n := range l.order {
		if n == name {
			l.order = append(l.order[:i], l.order[i+1:]...)
			return
		}
	}
}

// Triggers returns a copy of the triggers registered for name.
func (l *Listener) Triggers(name string) []Trigger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Trigger(nil), l.triggers[name]...)
}

// Events returns the event names that have triggers, in the order they were
// first added.
func (l *Listener) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

// Len is the total number of attached triggers.
func (l *Listener) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, list := range l.triggers {
		n += len(list)
	}
	return n
}

// Clear detaches every trigger.
func (l *Listener) Clear() {
	l.mu.Lock()
	l.triggers = make(map[string][]Trigger)
	l.order = nil
	l.mu.Unlock()
}

// Dispatch runs the triggers registered for e's name, in insertion order,
// against a snapshot of the list. A trigger returning ContinueExecution
// false ends the walk; its AllowAction still counts.
func (l *Listener) Dispatch(e Event, report FaultHandler) Verdict {
	v := Proceed
	for _, t := range l.Triggers(e.Name()) {
		v = v.Merge(fire(t, e, report))
		if !v.ContinueExecution {
			return v
		}
	}
	return v
}

func fire(t Trigger, e Event, report FaultHandler) (v Verdict) {
	defer func() {
		if r := recover(); r != nil {
			v = Proceed
			if report != nil {
				report(t, e, fmt.Errorf("trigger %s panicked on %s: %v\n%s", t.Type(), e.Name(), r, debug.Stack()))
			}
		}
	}()
	return t.Fire(e)
}

// sameTrigger compares two triggers without panicking on uncomparable
// dynamic types.
func sameTrigger(a, b Trigger) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
