package loader

import (
	"fmt"
	"strings"

	"github.com/nathoo/trogdor/engine/rules"
	"github.com/nathoo/trogdor/engine/world"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// Events the engine fires. Bindings to anything else are allowed, since
// scripts and Go code can fire their own events, but are probably typos.
var knownEvents = map[string]bool{
	"beforeTake": true, "afterTake": true,
	"beforeDrop": true, "afterDrop": true,
	"beforeGotoLocation": true, "afterGotoLocation": true,
	"beforeAttack": true, "afterAttack": true,
	"beforeDie": true, "afterDie": true,
	"beforeRespawn": true, "afterRespawn": true,
	"beforeRead": true, "afterRead": true,
	"beforeObserve": true, "afterObserve": true,
}

// validate checks the compiled defs for referential integrity and
// consistency. The returned error carries warnings even when it has no
// errors.
func validate(d *defs) *ValidationError {
	ve := &ValidationError{}

	// Game title required.
	if d.Game.Title == "" {
		ve.Errors = append(ve.Errors, "Game.title is required")
	}

	kinds := map[string]world.Kind{}
	declare := func(t thingDef) {
		if t.Name == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s with an empty name", t.Kind))
			return
		}
		if prev, ok := kinds[t.Name]; ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s %q reuses the name of a %s", t.Kind, t.Name, prev))
			return
		}
		kinds[t.Name] = t.Kind
	}
	for _, r := range d.Rooms {
		declare(r.thingDef)
	}
	for _, c := range d.Creatures {
		declare(c.thingDef)
	}
	for _, o := range d.Objects {
		declare(o.thingDef)
	}
	isRoom := func(name string) bool {
		k, ok := kinds[name]
		return ok && k == world.KindRoom
	}

	// Start room exists.
	if d.Game.Start == "" {
		ve.Errors = append(ve.Errors, "Game.start is required")
	} else if !isRoom(d.Game.Start) {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"start room %q not found in defined rooms", d.Game.Start))
	}

	if d.Game.Player.Respawn.Interval < 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"player respawn interval %d is negative", d.Game.Player.Respawn.Interval))
	}

	// Exit targets valid.
	for _, r := range d.Rooms {
		for dir, target := range r.Exits {
			if !isRoom(target) {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"room %q exit %q points to undefined room %q", r.Name, dir, target))
			}
		}
	}

	for _, c := range d.Creatures {
		if c.Location != "" && !isRoom(c.Location) {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"creature %q location %q is not a room", c.Name, c.Location))
		}
		if c.Allegiance != "" {
			if _, err := world.ParseAllegiance(c.Allegiance); err != nil {
				ve.Errors = append(ve.Errors, fmt.Sprintf("creature %q: %v", c.Name, err))
			}
		}
		if c.AutoAttack.Enabled && c.AutoAttack.Interval <= 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"creature %q auto_attack interval %d must be positive", c.Name, c.AutoAttack.Interval))
		}
		if c.Wander.Enabled && c.Wander.Interval <= 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"creature %q wander interval %d must be positive", c.Name, c.Wander.Interval))
		}
		if c.Respawn.Interval < 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"creature %q respawn interval %d is negative", c.Name, c.Respawn.Interval))
		}
		if c.AutoAttack.Enabled && c.Allegiance != "enemy" {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"creature %q has auto_attack but is not an enemy; it will never attack", c.Name))
		}
	}

	for _, o := range d.Objects {
		if o.Location == "" {
			continue
		}
		k, ok := kinds[o.Location]
		switch {
		case !ok:
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"object %q location %q is not defined", o.Name, o.Location))
		case k == world.KindObject:
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"object %q location %q is an object", o.Name, o.Location))
		}
		if o.Damage > 0 && !o.Weapon {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"object %q has damage but is not a weapon", o.Name))
		}
	}

	checkEvents := func(owner string, bindings []eventBinding) {
		for _, b := range bindings {
			if b.Function == "" {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"%s: %s handler has no function name", owner, b.Event))
			}
			if !knownEvents[b.Event] {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf(
					"%s: handler for unknown event %q", owner, b.Event))
			}
		}
	}
	checkGuards := func(owner string, guards []guardDef) {
		for _, g := range guards {
			if len(g.When) == 0 {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"%s: %s guard has no conditions", owner, g.Event))
			} else if _, err := rules.Parse(g.When); err != nil {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"%s: %s guard: %v", owner, g.Event, err))
			}
			if !knownEvents[g.Event] {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf(
					"%s: guard for unknown event %q", owner, g.Event))
			}
		}
	}
	checkEvents("On", d.Handlers)
	for _, r := range d.Rooms {
		checkEvents(fmt.Sprintf("room %q", r.Name), r.On)
		checkGuards(fmt.Sprintf("room %q", r.Name), r.Guards)
	}
	for _, c := range d.Creatures {
		checkEvents(fmt.Sprintf("creature %q", c.Name), c.On)
		checkGuards(fmt.Sprintf("creature %q", c.Name), c.Guards)
	}
	for _, o := range d.Objects {
		checkEvents(fmt.Sprintf("object %q", o.Name), o.On)
		checkGuards(fmt.Sprintf("object %q", o.Name), o.Guards)
	}

	return ve
}
