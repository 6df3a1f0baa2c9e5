package builtin

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nathoo/trogdor/engine/timer"
	"github.com/nathoo/trogdor/engine/world"
	"github.com/nathoo/trogdor/types"
)

// AutoAttackJob makes a creature attack a being on a schedule. It cancels
// itself once either side is dead or gone, the defender can no longer be
// attacked, or the two are no longer in the same room.
type AutoAttackJob struct {
	*timer.JobState

	env       *Env
	aggressor *world.Creature
	defender  world.BeingEntity
}

// NewAutoAttackJob schedules from the aggressor's auto-attack settings:
// the first attack comes one interval after insertion, and attacks repeat
// only if the settings say so. A non-positive interval means the default.
func NewAutoAttackJob(env *Env, aggressor *world.Creature, defender world.BeingEntity) *AutoAttackJob {
	s := aggressor.AutoAttack()
	if s.Interval <= 0 {
		s.Interval = world.DefaultAutoAttackInterval
	}
	executions := 1
	if s.Repeat {
		executions = timer.Infinite
	}
	return &AutoAttackJob{
		JobState:  timer.NewJobState(s.Interval, s.Interval, executions),
		env:       env,
		aggressor: aggressor,
		defender:  defender,
	}
}

func (*AutoAttackJob) Type() string { return TypeAutoAttack }

func (j *AutoAttackJob) Aggressor() *world.Creature { return j.aggressor }
func (j *AutoAttackJob) Defender() world.BeingEntity { return j.defender }

func (j *AutoAttackJob) Owners() []string {
	return []string{j.aggressor.Name(), j.defender.Name()}
}

func (j *AutoAttackJob) engaged() bool {
	a, d := j.aggressor, j.defender.AsBeing()
	if a.Destroyed() || d.Destroyed() || !a.Alive() || !d.Alive() {
		return false
	}
	if !d.Attackable() {
		return false
	}
	loc := a.Location()
	return loc != nil && loc == d.Location()
}

func (j *AutoAttackJob) Execute() {
	if !j.engaged() {
		j.SetExecutions(0)
		return
	}
	a := j.aggressor
	if _, err := a.Attack(j.defender, a.SelectWeapon(j.env.rng()), true); err != nil {
		j.env.logger().Debug("auto-attack",
			zap.String("aggressor", a.Name()),
			zap.String("defender", j.defender.Name()),
			zap.Error(err),
		)
	}
}

func (j *AutoAttackJob) Serialize() types.Record {
	return types.Record{
		"aggressor": j.aggressor.Name(),
		"defender":  j.defender.Name(),
	}
}

func restoreAutoAttackJob(rec types.Record, env *Env) (timer.Job, error) {
	if env == nil || env.World == nil {
		return nil, errNoWorld
	}
	state, err := timer.RestoreJobState(rec)
	if err != nil {
		return nil, err
	}
	a := env.World.Creature(rec.String("aggressor"))
	if a == nil {
		return nil, fmt.Errorf("aggressor %q: %w", rec.String("aggressor"), world.ErrNoSuchEntity)
	}
	d := env.World.Being(rec.String("defender"))
	if d == nil {
		return nil, fmt.Errorf("defender %q: %w", rec.String("defender"), world.ErrNoSuchEntity)
	}
	return &AutoAttackJob{JobState: state, env: env, aggressor: a, defender: d}, nil
}

// RespawnJob brings a dead being back to life once.
type RespawnJob struct {
	*timer.JobState

	env   *Env
	being world.BeingEntity
}

// NewRespawnJob waits the being's respawn interval and then respawns it.
func NewRespawnJob(env *Env, b world.BeingEntity) *RespawnJob {
	in := b.AsBeing().RespawnSettings().Interval
	return &RespawnJob{
		JobState: timer.NewJobState(in, in, 1),
		env:      env,
		being:    b,
	}
}

func (*RespawnJob) Type() string { return TypeRespawn }

func (j *RespawnJob) Being() world.BeingEntity { return j.being }

func (j *RespawnJob) Owners() []string { return []string{j.being.Name()} }

func (j *RespawnJob) Execute() {
	if j.being.Destroyed() {
		j.SetExecutions(0)
		return
	}
	if err := j.being.AsBeing().Respawn(); err != nil {
		j.env.logger().Debug("respawn job", zap.String("being", j.being.Name()), zap.Error(err))
	}
}

func (j *RespawnJob) Serialize() types.Record {
	return types.Record{"being": j.being.Name()}
}

func restoreRespawnJob(rec types.Record, env *Env) (timer.Job, error) {
	if env == nil || env.World == nil {
		return nil, errNoWorld
	}
	state, err := timer.RestoreJobState(rec)
	if err != nil {
		return nil, err
	}
	b := env.World.Being(rec.String("being"))
	if b == nil {
		return nil, fmt.Errorf("being %q: %w", rec.String("being"), world.ErrNoSuchEntity)
	}
	return &RespawnJob{JobState: state, env: env, being: b}, nil
}

// WanderJob moves a creature around for as long as its wandering stays
// enabled.
type WanderJob struct {
	*timer.JobState

	env      *Env
	creature *world.Creature
}

// NewWanderJob runs forever at the creature's wander interval, or the
// default interval when that is not positive.
func NewWanderJob(env *Env, c *world.Creature) *WanderJob {
	in := c.Wander().Interval
	if in <= 0 {
		in = world.DefaultWanderInterval
	}
	return &WanderJob{
		JobState: timer.NewJobState(in, in, timer.Infinite),
		env:      env,
		creature: c,
	}
}

func (*WanderJob) Type() string { return TypeWander }

func (j *WanderJob) Creature() *world.Creature { return j.creature }

func (j *WanderJob) Owners() []string { return []string{j.creature.Name()} }

func (j *WanderJob) Execute() {
	c := j.creature
	if c.Destroyed() || !c.Wander().Enabled {
		j.SetExecutions(0)
		return
	}
	if _, err := c.WanderStep(j.env.rng()); err != nil {
		j.env.logger().Debug("wander", zap.String("creature", c.Name()), zap.Error(err))
	}
	// Pick up interval changes made since the last step.
	if in := c.Wander().Interval; in > 0 {
		j.SetInterval(in)
	}
}

func (j *WanderJob) Serialize() types.Record {
	return types.Record{"creature": j.creature.Name()}
}

func restoreWanderJob(rec types.Record, env *Env) (timer.Job, error) {
	if env == nil || env.World == nil {
		return nil, errNoWorld
	}
	state, err := timer.RestoreJobState(rec)
	if err != nil {
		return nil, err
	}
	c := env.World.Creature(rec.String("creature"))
	if c == nil {
		return nil, fmt.Errorf("creature %q: %w", rec.String("creature"), world.ErrNoSuchEntity)
	}
	return &WanderJob{JobState: state, env: env, creature: c}, nil
}
