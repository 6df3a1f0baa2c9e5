// Package save implements JSON snapshots of a running game's timing
// state: the clock, the dice, the scheduled jobs and the triggers attached
// to listeners. Entities themselves are rebuilt by the loader.
package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/nathoo/trogdor/engine"
	"github.com/nathoo/trogdor/engine/event"
	"github.com/nathoo/trogdor/engine/timer"
	"github.com/nathoo/trogdor/engine/world"
	"github.com/nathoo/trogdor/types"
)

// Version is the snapshot format version written by Save.
const Version = 1

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Version     int            `json:"version"`
	Time        int            `json:"time"`
	RNGSeed     int64          `json:"rng_seed"`
	RNGPosition int64          `json:"rng_position"`
	Jobs        []types.Record `json:"jobs"`
	Triggers    []TriggerEntry `json:"triggers"`
}

// TriggerEntry is one trigger attached to a listener. An empty Entity is
// the global listener.
type TriggerEntry struct {
	Entity  string       `json:"entity,omitempty"`
	Event   string       `json:"event"`
	Trigger types.Record `json:"trigger"`
}

// Snapshot captures g. Jobs and triggers that cannot be serialized, such
// as Go function triggers, are left out.
func Snapshot(g *engine.Game) (*SaveData, error) {
	rng := g.World().RNG()
	sd := &SaveData{
		Version:     Version,
		Time:        g.Time(),
		RNGSeed:     rng.Seed(),
		RNGPosition: rng.Position(),
		Jobs:        []types.Record{},
		Triggers:    []TriggerEntry{},
	}

	for _, j := range g.Scheduler().Jobs() {
		if j.State().Executions() == 0 {
			continue
		}
		rec, err := timer.SerializeJob(j)
		if errors.Is(err, timer.ErrNotSerializable) {
			continue
		}
		if err != nil {
			return nil, err
		}
		sd.Jobs = append(sd.Jobs, rec)
	}

	if err := appendTriggers(sd, "", g.Global()); err != nil {
		return nil, err
	}
	for _, e := range g.World().Entities() {
		if err := appendTriggers(sd, e.Name(), e.Listener()); err != nil {
			return nil, err
		}
	}
	return sd, nil
}

func appendTriggers(sd *SaveData, entity string, l *event.Listener) error {
	for _, name := range l.Events() {
		for _, t := range l.Triggers(name) {
			rec, err := event.SerializeTrigger(t)
			if errors.Is(err, event.ErrNotSerializable) {
				continue
			}
			if err != nil {
				return err
			}
			sd.Triggers = append(sd.Triggers, TriggerEntry{Entity: entity, Event: name, Trigger: rec})
		}
	}
	return nil
}

// Save serializes g to JSON bytes.
func Save(g *engine.Game) ([]byte, error) {
	sd, err := Snapshot(g)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(sd, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	if sd.Version != Version {
		return nil, fmt.Errorf("unsupported save version %d", sd.Version)
	}
	// Ensure slices are never nil after load.
	if sd.Jobs == nil {
		sd.Jobs = []types.Record{}
	}
	if sd.Triggers == nil {
		sd.Triggers = []TriggerEntry{}
	}
	return &sd, nil
}

// Apply replaces g's clock, dice, jobs and serializable triggers with the
// snapshot's. Everything is rebuilt before anything is changed, so a
// failed Apply leaves g as it was, and the swap happens with the scheduler
// held between ticks. Triggers that cannot be serialized stay attached in
// their original position.
func Apply(g *engine.Game, sd *SaveData) error {
	env := g.Env()

	jobs := make([]timer.Job, 0, len(sd.Jobs))
	for i, rec := range sd.Jobs {
		j, err := g.JobRegistry().Create(rec, env)
		if err != nil {
			return fmt.Errorf("job %d: %w", i, err)
		}
		jobs = append(jobs, j)
	}

	type binding struct {
		listener *event.Listener
		event    string
		trigger  event.Trigger
	}
	bindings := make([]binding, 0, len(sd.Triggers))
	for i, te := range sd.Triggers {
		l := g.Global()
		if te.Entity != "" {
			e, ok := g.World().Entity(te.Entity)
			if !ok {
				return fmt.Errorf("trigger %d: %q: %w", i, te.Entity, world.ErrNoSuchEntity)
			}
			l = e.Listener()
		}
		t, err := g.TriggerRegistry().Create(te.Trigger, env)
		if err != nil {
			return fmt.Errorf("trigger %d: %w", i, err)
		}
		bindings = append(bindings, binding{listener: l, event: te.Event, trigger: t})
	}

	restored := make(map[*event.Listener]map[string][]event.Trigger)
	for _, b := range bindings {
		if restored[b.listener] == nil {
			restored[b.listener] = make(map[string][]event.Trigger)
		}
		restored[b.listener][b.event] = append(restored[b.listener][b.event], b.trigger)
	}

	g.Scheduler().RestoreWith(sd.Time, jobs, func() {
		replaceSerializable(g.Global(), restored[g.Global()])
		for _, e := range g.World().Entities() {
			replaceSerializable(e.Listener(), restored[e.Listener()])
		}
		g.World().SetRNG(world.RestoreRNG(sd.RNGSeed, sd.RNGPosition))
	})
	return nil
}

// replaceSerializable swaps l's serializable triggers for the restored ones,
// event by event. The k-th restored trigger takes the slot of the k-th
// serializable one, so Go triggers keep their position; surplus restored
// triggers are appended and surplus old ones dropped.
func replaceSerializable(l *event.Listener, byEvent map[string][]event.Trigger) {
	names := l.Events()
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		seen[name] = true
	}
	for name := range byEvent {
		if !seen[name] {
			names = append(names, name)
		}
	}
	// New names come from a map.
	sort.Strings(names[len(seen):])

	for _, name := range names {
		with := byEvent[name]
		l.Rewrite(name, func(list []event.Trigger) []event.Trigger {
			out := make([]event.Trigger, 0, len(list)+len(with))
			k := 0
			for _, t := range list {
				if _, ok := t.(event.Serializer); !ok {
					out = append(out, t)
					continue
				}
				if k < len(with) {
					out = append(out, with[k])
					k++
				}
			}
			return append(out, with[k:]...)
		})
	}
}
