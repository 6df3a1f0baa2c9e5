package event

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Policy decides where the global listener goes in every fired event.
type Policy int

const (
	// GlobalFirst runs game-wide triggers before entity triggers.
	GlobalFirst Policy = iota
	// GlobalLast runs them after.
	GlobalLast
)

func (p Policy) String() string {
	if p == GlobalLast {
		return "last"
	}
	return "first"
}

// ParsePolicy accepts "first" or "last" (case-insensitive, empty = first).
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return GlobalFirst, nil
	case "last":
		return GlobalLast, nil
	default:
		return GlobalFirst, fmt.Errorf("unknown global listener policy %q", s)
	}
}

// Observer receives dispatch statistics. engine/metrics implements it.
type Observer interface {
	EventFired(name string)
	ActionVetoed(name string)
	TriggerFault(tag string)
}

// Dispatcher fires events to listeners and reports the final verdict.
type Dispatcher struct {
	global   *Listener
	policy   Policy
	logger   *zap.Logger
	observer Observer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithPolicy(p Policy) Option {
	return func(d *Dispatcher) { d.policy = p }
}

func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// NewDispatcher creates a dispatcher around the game-wide listener. A nil
// global listener gets a fresh one.
func NewDispatcher(global *Listener, opts ...Option) *Dispatcher {
	if global == nil {
		global = NewListener("game")
	}
	d := &Dispatcher{
		global: global,
		policy: GlobalFirst,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Global() *Listener { return d.global }
func (d *Dispatcher) Policy() Policy { return d.policy }

// Fire builds an event, places the global listener according to the
// policy and dispatches it. The caller's listener slice is not modified.
func (d *Dispatcher) Fire(name string, listeners []*Listener, args ...Argument) bool {
	e := New(name, listeners, args...)
	if d.policy == GlobalLast {
		e = e.WithAppended(d.global)
	} else {
		e = e.WithPrepended(d.global)
	}
	return d.Dispatch(e)
}

// Dispatch walks e's listeners in order and returns whether the action may
// proceed. Nil listeners and repeats of an already visited listener are
// skipped. Once any listener vetoes the result stays false; a listener that
// stops execution ends the walk.
func (d *Dispatcher) Dispatch(e Event) bool {
	if d.observer != nil {
		d.observer.EventFired(e.Name())
	}

	allow := true
	seen := make(map[*Listener]struct{}, len(e.listeners))
	for _, l := range e.listeners {
		if l == nil {
			continue
		}
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}

		v := l.Dispatch(e, d.fault)
		if !v.AllowAction {
			allow = false
		}
		if !v.ContinueExecution {
			d.logger.Debug("dispatch halted",
				zap.String("event", e.Name()),
				zap.String("listener", l.Owner()),
			)
			break
		}
	}

	if !allow {
		if d.observer != nil {
			d.observer.ActionVetoed(e.Name())
		}
		d.logger.Debug("action vetoed", zap.String("event", e.Name()))
	}
	return allow
}

func (d *Dispatcher) fault(t Trigger, e Event, err error) {
	d.logger.Error("trigger fault",
		zap.String("event", e.Name()),
		zap.String("trigger", t.Type()),
		zap.Error(err),
	)
	if d.observer != nil {
		d.observer.TriggerFault(t.Type())
	}
}
