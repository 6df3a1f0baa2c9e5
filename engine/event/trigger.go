package event

import (
	"errors"
	"fmt"

	"github.com/nathoo/trogdor/types"
)

// ErrNotSerializable is returned by SerializeTrigger for triggers that only
// exist at runtime, such as TriggerFunc.
var ErrNotSerializable = errors.New("trigger is not serializable")

// Trigger is one reactive behavior attached to a listener under an event
// name. Fire must not keep per-dispatch state; everything it needs is fixed
// at construction. Implementations should be pointer types so that a
// listener can find them again on Remove.
type Trigger interface {
	// Type is the variant tag used for serialization and logging.
	Type() string
	Fire(e Event) Verdict
}

// Serializer is implemented by triggers that can be written to a snapshot.
// Serialize returns the variant-specific fields only.
type Serializer interface {
	Serialize() types.Record
}

// SerializeTrigger renders t as a record tagged with its type.
func SerializeTrigger(t Trigger) (types.Record, error) {
	s, ok := t.(Serializer)
	if !ok {
		return nil, fmt.Errorf("%s: %w", t.Type(), ErrNotSerializable)
	}
	rec := types.Record{}
	for k, v := range s.Serialize() {
		rec[k] = v
	}
	rec["type"] = t.Type()
	return rec, nil
}

type funcTrigger struct {
	tag string
	fn  func(Event) Verdict
}

func (f *funcTrigger) Type() string { return f.tag }
func (f *funcTrigger) Fire(e Event) Verdict { return f.fn(e) }

// TriggerFunc adapts an ordinary function into a Trigger. tag is reported by
// Type and in fault logs.
func TriggerFunc(tag string, fn func(Event) Verdict) Trigger {
	return &funcTrigger{tag: tag, fn: fn}
}
