// Package builtin provides the triggers and timer jobs every game starts
// with: creatures that attack on sight, beings that drop their belongings
// when they die and come back after a while, creatures that wander, guards
// that turn away beings failing a condition, and triggers backed by script
// handlers.
//
// Triggers and jobs hold direct pointers to the entities they act on and
// check liveness and location before touching them, because the world can
// change between the moment a job is scheduled and the tick it runs on.
package builtin

import (
	"errors"

	"go.uber.org/zap"

	"github.com/nathoo/trogdor/engine/event"
	"github.com/nathoo/trogdor/engine/registry"
	"github.com/nathoo/trogdor/engine/script"
	"github.com/nathoo/trogdor/engine/timer"
	"github.com/nathoo/trogdor/engine/world"
	"github.com/nathoo/trogdor/types"
)

// Variant tags.
const (
	TypeAutoAttack = "autoattack"
	TypeDeathDrop  = "deathdrop"
	TypeGuard      = "guard"
	TypeRespawn    = "respawn"
	TypeScripted   = "lua"
	TypeWander     = "wander"
)

var errNoWorld = errors.New("no world to resolve entities in")

// Jobs is the part of the scheduler that triggers need.
type Jobs interface {
	Insert(j timer.Job)
	Jobs() []timer.Job
}

// Env is the game context handed to built-in triggers and jobs and to the
// registry factories that rebuild them.
type Env struct {
	World   *world.World
	Jobs    Jobs
	Runtime script.Runtime
	Logger  *zap.Logger
}

func (e *Env) logger() *zap.Logger {
	if e == nil || e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Env) rng() *world.RNG {
	if e == nil || e.World == nil {
		return nil
	}
	return e.World.RNG()
}

type (
	TriggerRegistry = registry.Registry[event.Trigger, *Env]
	JobRegistry     = registry.Registry[timer.Job, *Env]
)

// NewTriggerRegistry returns a sealed registry holding every built-in
// trigger.
func NewTriggerRegistry() *TriggerRegistry {
	r := registry.New[event.Trigger, *Env]("triggers")
	mustRegister(r, TypeAutoAttack, func(_ types.Record, env *Env) (event.Trigger, error) {
		return NewAutoAttack(env), nil
	})
	mustRegister(r, TypeDeathDrop, func(_ types.Record, env *Env) (event.Trigger, error) {
		return NewDeathDrop(env), nil
	})
	mustRegister(r, TypeGuard, restoreGuard)
	mustRegister(r, TypeRespawn, func(_ types.Record, env *Env) (event.Trigger, error) {
		return NewRespawn(env), nil
	})
	mustRegister(r, TypeScripted, func(rec types.Record, env *Env) (event.Trigger, error) {
		fn := rec.String("function")
		if fn == "" {
			return nil, errors.New("scripted trigger has no function")
		}
		return NewScripted(env, fn), nil
	})
	r.Seal()
	return r
}

// NewJobRegistry returns a sealed registry holding every built-in job.
func NewJobRegistry() *JobRegistry {
	r := registry.New[timer.Job, *Env]("jobs")
	mustRegister(r, TypeAutoAttack, restoreAutoAttackJob)
	mustRegister(r, TypeRespawn, restoreRespawnJob)
	mustRegister(r, TypeWander, restoreWanderJob)
	r.Seal()
	return r
}

func mustRegister[T any](r *registry.Registry[T, *Env], tag string, f registry.Factory[T, *Env]) {
	if err := r.Register(tag, f); err != nil {
		panic(err)
	}
}

// beingArg returns the being at argument i, or nil.
func beingArg(e event.Event, i int) world.BeingEntity {
	b, _ := e.EntityArg(i).(world.BeingEntity)
	return b
}
