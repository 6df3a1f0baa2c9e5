// Package actions turns parsed commands into world operations on behalf of
// a player. Every action decides its own user-visible messages and writes
// them to the player's output; the world and event layers never do.
package actions

import (
	"errors"
	"strings"

	"github.com/nathoo/trogdor/engine/resolve"
	"github.com/nathoo/trogdor/engine/world"
	"github.com/nathoo/trogdor/types"
)

// Status classifies how a command ended.
type Status int

const (
	// Done means the action ran.
	Done Status = iota
	// Vetoed means a trigger refused the action.
	Vetoed
	// Ambiguous means a word matched several entities; the player has a
	// pending command waiting for the choice.
	Ambiguous
	// NotFound means a word matched nothing the player can see.
	NotFound
	// Invalid means the command was understood but cannot be carried out.
	Invalid
	// Unknown means no action handles the verb.
	Unknown
)

func (s Status) String() string {
	switch s {
	case Done:
		return "done"
	case Vetoed:
		return "vetoed"
	case Ambiguous:
		return "ambiguous"
	case NotFound:
		return "not found"
	case Invalid:
		return "invalid"
	case Unknown:
		return "unknown"
	default:
		return "status(?)"
	}
}

// Outcome is the result of one command. Err carries the underlying world
// error, if any.
type Outcome struct {
	Status Status
	Err    error
}

// Env is what actions need from the running game.
type Env interface {
	World() *world.World
	// Tick advances game time by one tick.
	Tick()
}

// Action handles one verb.
type Action interface {
	// CheckSyntax reports whether cmd has the objects the action needs.
	CheckSyntax(cmd types.Command) bool
	Execute(p *world.Player, cmd types.Command, env Env) Outcome
}

// Table maps verbs to actions.
type Table map[string]Action

// Default returns the built-in verbs.
func Default() Table {
	return Table{
		"look":      lookAction{},
		"read":      readAction{},
		"take":      takeAction{},
		"drop":      dropAction{},
		"attack":    attackAction{},
		"go":        moveAction{},
		"inventory": inventoryAction{},
		"wait":      waitAction{},
	}
}

// Execute runs cmd for p.
func (t Table) Execute(p *world.Player, cmd types.Command, env Env) Outcome {
	if cmd.Verb == "" {
		p.Out("What do you want to do?")
		return Outcome{Status: Invalid}
	}
	a, ok := t[cmd.Verb]
	if !ok {
		p.Out("I don't understand that.")
		return Outcome{Status: Unknown}
	}
	if !a.CheckSyntax(cmd) {
		p.Out(usage(cmd.Verb))
		return Outcome{Status: Invalid}
	}
	return a.Execute(p, cmd, env)
}

func usage(verb string) string {
	switch verb {
	case "go":
		return "Go where?"
	case "inventory", "wait":
		return "Just say " + verb + "."
	default:
		return strings.ToUpper(verb[:1]) + verb[1:] + " what?"
	}
}

// Clarify answers a pending disambiguation request with the player's next
// line. ok is false when the line is not one of the candidates, in which
// case it should be treated as a new command.
func Clarify(pc *world.PendingCommand, input string) (types.Command, bool) {
	choice := strings.TrimSpace(input)
	for _, c := range pc.Candidates {
		if strings.EqualFold(c, choice) {
			cmd := pc.Command
			if pc.Indirect {
				cmd.IndirectObject = c
			} else {
				cmd.DirectObject = c
			}
			return cmd, true
		}
	}
	return types.Command{}, false
}

// resolveFor resolves cmd's objects and reports a failure to the player.
func resolveFor(p *world.Player, cmd types.Command) (resolve.Result, *Outcome) {
	res, err := resolve.Resolve(p, cmd)
	if err == nil {
		return res, nil
	}

	var amb *resolve.AmbiguityError
	if errors.As(err, &amb) {
		p.SetPending(&world.PendingCommand{
			Command:    cmd,
			Indirect:   amb.Indirect,
			Candidates: amb.Candidates,
		})
		p.Out(err.Error())
		return res, &Outcome{Status: Ambiguous, Err: err}
	}

	var nf *resolve.NotFoundError
	if errors.As(err, &nf) {
		p.Out("You don't see " + nf.Name + " here.")
		return res, &Outcome{Status: NotFound, Err: err}
	}
	p.Out(err.Error())
	return res, &Outcome{Status: Invalid, Err: err}
}

func done() Outcome { return Outcome{Status: Done} }

func invalid(p *world.Player, msg string, err error) Outcome {
	p.Out(msg)
	return Outcome{Status: Invalid, Err: err}
}

func vetoed(err error) Outcome { return Outcome{Status: Vetoed, Err: err} }

// message returns e's custom message for key, or def.
func message(e world.Entity, key, def string) string {
	if m := e.Message(key); m != "" {
		return m
	}
	return def
}
