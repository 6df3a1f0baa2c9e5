package builtin

import (
	"go.uber.org/zap"

	"github.com/nathoo/trogdor/engine/event"
	"github.com/nathoo/trogdor/engine/world"
	"github.com/nathoo/trogdor/types"
)

// DeathDrop empties a dead being's inventory onto the floor of the room it
// died in. It listens on afterDie. Undroppable items fall too and no drop
// events fire, so nothing can keep an item on a corpse.
type DeathDrop struct {
	env *Env
}

func NewDeathDrop(env *Env) *DeathDrop { return &DeathDrop{env: env} }

func (*DeathDrop) Type() string { return TypeDeathDrop }

func (t *DeathDrop) Fire(e event.Event) event.Verdict {
	b := beingArg(e, 1)
	if b == nil {
		return event.Proceed
	}
	being := b.AsBeing()
	if being.Location() == nil {
		t.env.logger().Debug("death drop: nowhere to drop", zap.String("being", b.Name()))
		return event.Proceed
	}
	for _, o := range being.Inventory() {
		if err := being.Drop(o, false, false); err != nil {
			t.env.logger().Debug("death drop",
				zap.String("being", b.Name()),
				zap.String("object", o.Name()),
				zap.Error(err),
			)
		}
	}
	return event.Proceed
}

func (*DeathDrop) Serialize() types.Record { return types.Record{} }

// Respawn brings a dead being back, immediately when its respawn interval
// is 0 and otherwise through a RespawnJob. It listens on afterDie.
type Respawn struct {
	env *Env
}

func NewRespawn(env *Env) *Respawn { return &Respawn{env: env} }

func (*Respawn) Type() string { return TypeRespawn }

func (t *Respawn) Fire(e event.Event) event.Verdict {
	b := beingArg(e, 1)
	if b == nil {
		return event.Proceed
	}
	being := b.AsBeing()
	s := being.RespawnSettings()
	if !s.Enabled || s.Lives == 0 {
		return event.Proceed
	}

	if s.Interval > 0 {
		if t.env == nil || t.env.Jobs == nil {
			t.env.logger().Warn("respawn: no scheduler", zap.String("being", b.Name()))
			return event.Proceed
		}
		t.env.Jobs.Insert(NewRespawnJob(t.env, b))
		return event.Proceed
	}

	if err := being.Respawn(); err != nil {
		t.env.logger().Debug("respawn", zap.String("being", b.Name()), zap.Error(err))
	}
	return event.Proceed
}

func (*Respawn) Serialize() types.Record { return types.Record{} }

// AutoAttack starts auto-attack jobs when a being enters a room. It
// listens on afterGotoLocation. A player walking in is set upon by every
// hostile creature there; a hostile creature walking in sets upon every
// player there.
type AutoAttack struct {
	env *Env
}

func NewAutoAttack(env *Env) *AutoAttack { return &AutoAttack{env: env} }

func (*AutoAttack) Type() string { return TypeAutoAttack }

func (t *AutoAttack) Fire(e event.Event) event.Verdict {
	mover := beingArg(e, 1)
	to, _ := e.EntityArg(3).(*world.Room)
	if mover == nil || to == nil {
		return event.Proceed
	}
	// A later trigger may already have moved it on.
	if !mover.AsBeing().Alive() || mover.Location() != to {
		return event.Proceed
	}

	switch m := mover.(type) {
	case *world.Player:
		for _, c := range to.Creatures() {
			if c.Hostile() && c.Alive() {
				t.schedule(c, m)
			}
		}
	case *world.Creature:
		if !m.Hostile() {
			break
		}
		for _, p := range to.Players() {
			if p.Alive() {
				t.schedule(m, p)
			}
		}
	}
	return event.Proceed
}

func (t *AutoAttack) schedule(aggressor *world.Creature, defender world.BeingEntity) {
	if t.env == nil || t.env.Jobs == nil {
		return
	}
	for _, j := range t.env.Jobs.Jobs() {
		aj, ok := j.(*AutoAttackJob)
		if ok && aj.aggressor == aggressor && aj.defender == defender && aj.Executions() != 0 {
			return
		}
	}
	t.env.Jobs.Insert(NewAutoAttackJob(t.env, aggressor, defender))
	t.env.logger().Debug("auto-attack scheduled",
		zap.String("aggressor", aggressor.Name()),
		zap.String("defender", defender.Name()),
	)
}

func (*AutoAttack) Serialize() types.Record { return types.Record{} }
