package actions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nathoo/trogdor/engine/world"
	"github.com/nathoo/trogdor/types"
)

type lookAction struct{}

func (lookAction) CheckSyntax(cmd types.Command) bool { return cmd.IndirectObject == "" }

// Execute describes the room, or one thing in it, bracketed by
// beforeObserve and afterObserve.
func (lookAction) Execute(p *world.Player, cmd types.Command, env Env) Outcome {
	var target world.Entity
	if cmd.DirectObject == "" {
		loc := p.Location()
		if loc == nil {
			return invalid(p, "You are nowhere.", world.ErrNowhere)
		}
		target = loc
	} else {
		res, fail := resolveFor(p, cmd)
		if fail != nil {
			return *fail
		}
		target = res.Direct
	}

	w := env.World()
	listeners := world.Listeners(p, target)
	if !w.Fire("beforeObserve", listeners, world.Ref(p), world.Ref(target)) {
		return vetoed(world.ErrVetoed)
	}
	for _, line := range Describe(p, target) {
		p.Out(line)
	}
	w.Fire("afterObserve", listeners, world.Ref(p), world.Ref(target))
	return done()
}

// Describe renders what observer sees when looking at e.
func Describe(observer world.Entity, e world.Entity) []string {
	switch v := e.(type) {
	case *world.Room:
		return describeRoom(observer, v)
	case world.BeingEntity:
		lines := []string{describeThing(e)}
		b := v.AsBeing()
		if !b.Alive() {
			lines = append(lines, fmt.Sprintf("%s is dead.", e.Title()))
		} else if !b.Immortal() {
			lines = append(lines, fmt.Sprintf("Health: %d/%d", b.Health(), b.MaxHealth()))
		}
		return lines
	default:
		return []string{describeThing(e)}
	}
}

func describeThing(e world.Entity) string {
	if d := e.Description(); d != "" {
		return d
	}
	return fmt.Sprintf("You see nothing special about %s.", e.Title())
}

func describeRoom(observer world.Entity, r *world.Room) []string {
	lines := []string{r.Title()}
	if d := r.Description(); d != "" {
		lines = append(lines, d)
	}
	for _, e := range r.Contents() {
		if e == observer {
			continue
		}
		switch e.(type) {
		case *world.Object:
			lines = append(lines, fmt.Sprintf("You see %s.", e.Title()))
		default:
			lines = append(lines, fmt.Sprintf("%s is here.", e.Title()))
		}
	}
	if dirs := r.Directions(); len(dirs) > 0 {
		lines = append(lines, "Exits: "+strings.Join(dirs, ", ")+".")
	} else {
		lines = append(lines, "There are no obvious exits.")
	}
	return lines
}

type readAction struct{}

func (readAction) CheckSyntax(cmd types.Command) bool { return cmd.DirectObject != "" }

func (readAction) Execute(p *world.Player, cmd types.Command, env Env) Outcome {
	res, fail := resolveFor(p, cmd)
	if fail != nil {
		return *fail
	}
	o, ok := res.Direct.(*world.Object)
	if !ok || o.Text() == "" {
		return invalid(p, fmt.Sprintf("There's nothing written on %s.", res.Direct.Title()), nil)
	}

	w := env.World()
	listeners := world.Listeners(p, o)
	if !w.Fire("beforeRead", listeners, world.Ref(p), world.Ref(o)) {
		return vetoed(world.ErrVetoed)
	}
	p.Out(o.Text())
	w.Fire("afterRead", listeners, world.Ref(p), world.Ref(o))
	return done()
}

type takeAction struct{}

func (takeAction) CheckSyntax(cmd types.Command) bool { return cmd.DirectObject != "" }

func (takeAction) Execute(p *world.Player, cmd types.Command, _ Env) Outcome {
	res, fail := resolveFor(p, cmd)
	if fail != nil {
		return *fail
	}
	o, ok := res.Direct.(*world.Object)
	if !ok {
		return invalid(p, fmt.Sprintf("You can't take %s!", res.Direct.Title()), world.ErrUntakeable)
	}
	if p.Carries(o) {
		return invalid(p, "You already have that.", nil)
	}

	err := p.Take(o, true, true)
	switch {
	case err == nil:
		p.Out(message(o, "take", fmt.Sprintf("You take the %s.", o.Title())))
		return done()
	case errors.Is(err, world.ErrVetoed):
		return vetoed(err)
	case errors.Is(err, world.ErrUntakeable):
		return invalid(p, message(o, "untakeable", "You can't take that!"), err)
	case errors.Is(err, world.ErrTooHeavy):
		return invalid(p, "That's too heavy for you to carry.", err)
	default:
		return invalid(p, "You can't take that right now.", err)
	}
}

type dropAction struct{}

func (dropAction) CheckSyntax(cmd types.Command) bool { return cmd.DirectObject != "" }

func (dropAction) Execute(p *world.Player, cmd types.Command, _ Env) Outcome {
	res, fail := resolveFor(p, cmd)
	if fail != nil {
		return *fail
	}
	o, ok := res.Direct.(*world.Object)
	if !ok || !p.Carries(o) {
		return invalid(p, "You don't have that.", world.ErrNotCarrying)
	}

	err := p.Drop(o, true, true)
	switch {
	case err == nil:
		p.Out(message(o, "drop", fmt.Sprintf("You drop the %s.", o.Title())))
		return done()
	case errors.Is(err, world.ErrVetoed):
		return vetoed(err)
	case errors.Is(err, world.ErrUndroppable):
		return invalid(p, message(o, "undroppable", "You can't drop that!"), err)
	default:
		return invalid(p, "You can't drop that here.", err)
	}
}

type attackAction struct{}

func (attackAction) CheckSyntax(cmd types.Command) bool { return cmd.DirectObject != "" }

// Execute attacks the direct object, optionally with the indirect one.
// Attacking yourself is suicide.
func (attackAction) Execute(p *world.Player, cmd types.Command, _ Env) Outcome {
	res, fail := resolveFor(p, cmd)
	if fail != nil {
		return *fail
	}

	if res.Direct == world.Entity(p) {
		if err := p.Die(); err != nil {
			return vetoed(err)
		}
		return done()
	}

	target, ok := res.Direct.(world.BeingEntity)
	if !ok {
		return invalid(p, fmt.Sprintf("You can't attack %s!", res.Direct.Title()), world.ErrNotAttackable)
	}

	var weapon *world.Object
	if res.Indirect != nil {
		weapon, ok = res.Indirect.(*world.Object)
		if !ok || !weapon.IsWeapon() {
			return invalid(p, "You can't attack with that!", world.ErrNotWeapon)
		}
		if !p.Carries(weapon) {
			return invalid(p, fmt.Sprintf("You don't have %s.", weapon.Title()), world.ErrNotCarrying)
		}
	}

	_, err := p.Attack(target, weapon, true)
	switch {
	case err == nil:
		return done()
	case errors.Is(err, world.ErrVetoed):
		return vetoed(err)
	case errors.Is(err, world.ErrNotAttackable):
		return invalid(p, fmt.Sprintf("You can't attack %s!", target.Title()), err)
	case errors.Is(err, world.ErrDead):
		return invalid(p, fmt.Sprintf("%s is already dead.", target.Title()), err)
	default:
		return invalid(p, "You can't do that.", err)
	}
}

type moveAction struct{}

func (moveAction) CheckSyntax(cmd types.Command) bool {
	return cmd.DirectObject != "" && cmd.IndirectObject == ""
}

func (moveAction) Execute(p *world.Player, cmd types.Command, env Env) Outcome {
	from := p.Location()
	if from == nil {
		return invalid(p, "You are nowhere.", world.ErrNowhere)
	}
	to := from.Connection(cmd.DirectObject)
	if to == nil {
		return invalid(p, "You can't go that way.", nil)
	}

	if err := p.GotoLocation(to, true); err != nil {
		if errors.Is(err, world.ErrVetoed) {
			return vetoed(err)
		}
		return invalid(p, "You can't go that way.", err)
	}
	from.Announce(fmt.Sprintf("%s leaves %s.", p.Title(), cmd.DirectObject), p)
	to.Announce(fmt.Sprintf("%s arrives.", p.Title()), p)

	return lookAction{}.Execute(p, types.Command{Verb: "look"}, env)
}

type inventoryAction struct{}

func (inventoryAction) CheckSyntax(cmd types.Command) bool { return cmd.DirectObject == "" }

func (inventoryAction) Execute(p *world.Player, _ types.Command, _ Env) Outcome {
	items := p.Inventory()
	if len(items) == 0 {
		p.Out("You don't have anything!")
		return done()
	}
	p.Out("You're carrying:")
	for _, o := range items {
		p.Out("  " + o.Title())
	}
	if carried, capacity := p.InventoryWeight(); capacity > 0 {
		p.Out(fmt.Sprintf("Total weight: %d/%d", carried, capacity))
	}
	return done()
}

type waitAction struct{}

func (waitAction) CheckSyntax(cmd types.Command) bool { return cmd.DirectObject == "" }

func (waitAction) Execute(p *world.Player, _ types.Command, env Env) Outcome {
	p.Out("Time passes.")
	env.Tick()
	return done()
}
