package builtin

import (
	"errors"

	"go.uber.org/zap"

	"github.com/nathoo/trogdor/engine/event"
	"github.com/nathoo/trogdor/engine/rules"
	"github.com/nathoo/trogdor/engine/world"
	"github.com/nathoo/trogdor/types"
)

// Guard vetoes an event unless the acting being, the first argument after
// the game, meets every condition. A player turned away is told Message.
// Events without a being acting pass.
type Guard struct {
	env     *Env
	when    []rules.Condition
	message string
}

func NewGuard(env *Env, when []rules.Condition, message string) *Guard {
	return &Guard{env: env, when: when, message: message}
}

func (*Guard) Type() string { return TypeGuard }

func (t *Guard) Fire(e event.Event) event.Verdict {
	b := beingArg(e, 1)
	if b == nil || rules.EvalAll(t.when, b) {
		return event.Proceed
	}
	t.env.logger().Debug("guard vetoed",
		zap.String("event", e.Name()),
		zap.String("being", b.Name()),
	)
	if p, ok := b.(*world.Player); ok && t.message != "" {
		p.Out(t.message)
	}
	return event.Veto
}

func (t *Guard) Serialize() types.Record {
	rec := types.Record{"when": rules.Table(t.when)}
	if t.message != "" {
		rec["message"] = t.message
	}
	return rec
}

func restoreGuard(rec types.Record, env *Env) (event.Trigger, error) {
	m, ok := rec["when"].(map[string]any)
	if !ok {
		return nil, errors.New("guard has no conditions")
	}
	when, err := rules.Parse(m)
	if err != nil {
		return nil, err
	}
	return NewGuard(env, when, rec.String("message")), nil
}
