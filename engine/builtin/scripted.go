package builtin

import (
	"go.uber.org/zap"

	"github.com/nathoo/trogdor/engine/event"
	"github.com/nathoo/trogdor/types"
)

// Scripted hands an event to a named script handler and returns the
// handler's verdict. A failing handler is logged and treated as Proceed.
type Scripted struct {
	env      *Env
	function string
}

func NewScripted(env *Env, function string) *Scripted {
	return &Scripted{env: env, function: function}
}

func (*Scripted) Type() string { return TypeScripted }

// Function is the name of the handler.
func (t *Scripted) Function() string { return t.function }

func (t *Scripted) Fire(e event.Event) event.Verdict {
	if t.env == nil || t.env.Runtime == nil {
		t.env.logger().Error("script trigger: no runtime",
			zap.String("function", t.function),
			zap.String("event", e.Name()),
		)
		return event.Proceed
	}
	cont, allow, err := t.env.Runtime.Call(t.function, e.Args())
	if err != nil {
		t.env.logger().Error("script trigger fault",
			zap.String("function", t.function),
			zap.String("event", e.Name()),
			zap.Error(err),
		)
		return event.Proceed
	}
	return event.Verdict{AllowAction: allow, ContinueExecution: cont}
}

func (t *Scripted) Serialize() types.Record {
	return types.Record{"function": t.function}
}
