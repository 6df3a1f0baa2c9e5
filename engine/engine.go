// Package engine provides Game, which wires the world, the event
// dispatcher and its global listener, the timer scheduler, the script
// runtime and the action table into one running game.
package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nathoo/trogdor/engine/actions"
	"github.com/nathoo/trogdor/engine/builtin"
	"github.com/nathoo/trogdor/engine/event"
	"github.com/nathoo/trogdor/engine/metrics"
	"github.com/nathoo/trogdor/engine/parser"
	"github.com/nathoo/trogdor/engine/rules"
	"github.com/nathoo/trogdor/engine/script"
	"github.com/nathoo/trogdor/engine/timer"
	"github.com/nathoo/trogdor/engine/world"
	"github.com/nathoo/trogdor/types"
)

// Game holds everything a running game shares between command goroutines
// and the scheduler goroutine.
type Game struct {
	world     *world.World
	events    *event.Dispatcher
	scheduler *timer.Scheduler
	env       *builtin.Env
	triggers  *builtin.TriggerRegistry
	jobs      *builtin.JobRegistry
	actions   actions.Table
	logger    *zap.Logger
}

type options struct {
	logger  *zap.Logger
	policy  event.Policy
	metrics *metrics.Metrics
	timer   []timer.Option
	runtime script.Runtime
	actions actions.Table
}

// Option configures a Game.
type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithPolicy decides whether game-wide triggers run before or after entity
// triggers.
func WithPolicy(p event.Policy) Option {
	return func(o *options) { o.policy = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTimerOptions passes options through to the scheduler.
func WithTimerOptions(opts ...timer.Option) Option {
	return func(o *options) { o.timer = append(o.timer, opts...) }
}

// WithRuntime sets the runtime scripted triggers call into.
func WithRuntime(rt script.Runtime) Option {
	return func(o *options) { o.runtime = rt }
}

// WithActions replaces the default verb table.
func WithActions(t actions.Table) Option {
	return func(o *options) { o.actions = t }
}

// New builds a game around w. The built-in triggers go on the global
// listener, and every creature that already wants to wander gets a wander
// job.
func New(w *world.World, opts ...Option) *Game {
	o := options{policy: event.GlobalFirst}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.actions == nil {
		o.actions = actions.Default()
	}

	dispOpts := []event.Option{
		event.WithPolicy(o.policy),
		event.WithLogger(o.logger.Named("events")),
	}
	timerOpts := []timer.Option{timer.WithLogger(o.logger.Named("timer"))}
	if o.metrics != nil {
		dispOpts = append(dispOpts, event.WithObserver(o.metrics))
		timerOpts = append(timerOpts, timer.WithObserver(o.metrics))
	}
	timerOpts = append(timerOpts, o.timer...)

	g := &Game{
		world:     w,
		events:    event.NewDispatcher(event.NewListener("game"), dispOpts...),
		scheduler: timer.New(timerOpts...),
		triggers:  builtin.NewTriggerRegistry(),
		jobs:      builtin.NewJobRegistry(),
		actions:   o.actions,
		logger:    o.logger,
	}
	g.env = &builtin.Env{
		World:   w,
		Jobs:    g.scheduler,
		Runtime: o.runtime,
		Logger:  o.logger.Named("builtin"),
	}

	w.SetEvents(g.events, g)
	g.initEvents()
	for _, c := range w.Creatures() {
		if c.Wander().Enabled {
			g.scheduler.Insert(builtin.NewWanderJob(g.env, c))
		}
	}
	return g
}

// initEvents installs the built-in triggers. Death-drop must run before
// respawn so that a being respawning on the spot does not keep its items.
func (g *Game) initEvents() {
	global := g.events.Global()
	global.Add("afterGotoLocation", builtin.NewAutoAttack(g.env))
	global.Add("afterDie", builtin.NewDeathDrop(g.env))
	global.Add("afterDie", builtin.NewRespawn(g.env))
}

func (g *Game) World() *world.World { return g.world }
func (g *Game) Scheduler() *timer.Scheduler { return g.scheduler }
func (g *Game) Dispatcher() *event.Dispatcher { return g.events }
func (g *Game) Env() *builtin.Env { return g.env }
func (g *Game) TriggerRegistry() *builtin.TriggerRegistry { return g.triggers }
func (g *Game) JobRegistry() *builtin.JobRegistry { return g.jobs }

// Global returns the game-wide listener.
func (g *Game) Global() *event.Listener { return g.events.Global() }

// Fire dispatches name to listeners, with the game reference as the first
// argument and the global listener placed by policy. It reports whether
// the action may proceed.
func (g *Game) Fire(name string, listeners []*event.Listener, args ...event.Argument) bool {
	return g.world.Fire(name, listeners, args...)
}

// Event dispatches a prebuilt event after adding the global listener.
func (g *Game) Event(e event.Event) bool {
	if g.events.Policy() == event.GlobalLast {
		return g.events.Dispatch(e.WithAppended(g.events.Global()))
	}
	return g.events.Dispatch(e.WithPrepended(g.events.Global()))
}

func (g *Game) InsertTimerJob(j timer.Job) { g.scheduler.Insert(j) }

func (g *Game) RemoveTimerJob(j timer.Job) bool { return g.scheduler.Remove(j) }

// Time is the current game time in ticks.
func (g *Game) Time() int { return g.scheduler.Time() }

// Tick advances game time by one tick.
func (g *Game) Tick() { g.scheduler.Tick() }

// Start runs the scheduler on its own goroutine until ctx is done or Stop
// is called.
func (g *Game) Start(ctx context.Context) error {
	if err := g.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start game: %w", err)
	}
	return nil
}

// Run is Start without the goroutine: it blocks until ctx is done.
func (g *Game) Run(ctx context.Context) error {
	return g.scheduler.Run(ctx)
}

// Stop halts the scheduler and waits for the running tick to finish.
func (g *Game) Stop() { g.scheduler.Stop() }

// AddPlayer inserts p into the world and places it in room.
func (g *Game) AddPlayer(p *world.Player, room *world.Room) error {
	if err := g.world.Insert(p); err != nil {
		return fmt.Errorf("add player: %w", err)
	}
	g.world.Place(p, room)
	g.logger.Info("player joined", zap.String("player", p.Name()))
	return nil
}

// RemovePlayer cancels every job acting on the player and takes it out of
// the world.
func (g *Game) RemovePlayer(name string) error {
	if g.world.Player(name) == nil {
		return fmt.Errorf("remove player %q: %w", name, world.ErrNoSuchEntity)
	}
	n := g.scheduler.RemoveOwnedBy(name)
	if _, err := g.world.Remove(name); err != nil {
		return fmt.Errorf("remove player: %w", err)
	}
	g.logger.Info("player left", zap.String("player", name), zap.Int("jobs_cancelled", n))
	return nil
}

// EnableWander turns wandering on for c and schedules its wander job. A
// creature that already has a live wander job is left alone.
func (g *Game) EnableWander(c *world.Creature) {
	c.SetWanderEnabled(true)
	for _, j := range g.scheduler.Jobs() {
		if wj, ok := j.(*builtin.WanderJob); ok && wj.Creature() == c && wj.Executions() != 0 {
			return
		}
	}
	g.scheduler.Insert(builtin.NewWanderJob(g.env, c))
}

// Bind attaches a scripted trigger calling function to the listener of the
// named entity, or to the global listener when entity is empty.
func (g *Game) Bind(entity, eventName, function string) error {
	l := g.events.Global()
	if entity != "" {
		e, ok := g.world.Entity(entity)
		if !ok {
			return fmt.Errorf("bind %s to %q: %w", eventName, entity, world.ErrNoSuchEntity)
		}
		l = e.Listener()
	}
	l.Add(eventName, builtin.NewScripted(g.env, function))
	return nil
}

// Guard attaches a guard to the listener of the named entity, or to the
// global listener when entity is empty. The event is vetoed for any being
// failing one of the conditions.
func (g *Game) Guard(entity, eventName string, when []rules.Condition, message string) error {
	l := g.events.Global()
	if entity != "" {
		e, ok := g.world.Entity(entity)
		if !ok {
			return fmt.Errorf("guard %s on %q: %w", eventName, entity, world.ErrNoSuchEntity)
		}
		l = e.Listener()
	}
	l.Add(eventName, builtin.NewGuard(g.env, when, message))
	return nil
}

// Step runs one line of player input. A line answering an outstanding
// "which one?" question completes the pending command instead of being
// parsed. Output goes to the player's outbox.
func (g *Game) Step(p *world.Player, input string) actions.Outcome {
	var cmd types.Command
	if pc := p.TakePending(); pc != nil {
		if c, ok := actions.Clarify(pc, input); ok {
			cmd = c
		} else {
			cmd = parser.Parse(input)
		}
	} else {
		cmd = parser.Parse(input)
	}

	if !p.Alive() && !deadVerb(cmd.Verb) {
		p.Out("You're dead.")
		return actions.Outcome{Status: actions.Invalid, Err: world.ErrDead}
	}

	out := g.actions.Execute(p, cmd, g)
	g.logger.Debug("command",
		zap.String("player", p.Name()),
		zap.String("verb", cmd.Verb),
		zap.Stringer("status", out.Status),
		zap.Error(out.Err),
	)
	return out
}

func deadVerb(verb string) bool {
	switch verb {
	case "", "look", "inventory":
		return true
	}
	return false
}
