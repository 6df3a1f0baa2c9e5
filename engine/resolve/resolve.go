// Package resolve maps the words of a parsed command to world entities.
package resolve

import (
	"fmt"
	"strings"

	"github.com/nathoo/trogdor/engine/world"
	"github.com/nathoo/trogdor/types"
)

// Result holds the resolved entities for a command. Either may be nil when
// the command had no such object.
type Result struct {
	Direct   world.Entity
	Indirect world.Entity
}

// AmbiguityError indicates multiple entities matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string
	// Indirect is true when the ambiguous word was the indirect object.
	Indirect bool
}

func (e *AmbiguityError) Error() string {
	names := strings.Join(e.Candidates, ", ")
	return fmt.Sprintf("which %s? (%s)", e.Name, names)
}

// NotFoundError indicates no entity matched a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("you don't see %q here", e.Name)
}

// Resolve maps the direct and indirect object words of cmd to entities the
// player can see.
func Resolve(p *world.Player, cmd types.Command) (Result, error) {
	var res Result
	var err error

	if cmd.DirectObject != "" {
		res.Direct, err = Name(p, cmd.DirectObject)
		if err != nil {
			return res, err
		}
	}

	if cmd.IndirectObject != "" {
		res.Indirect, err = Name(p, cmd.IndirectObject)
		if err != nil {
			if amb, ok := err.(*AmbiguityError); ok {
				amb.Indirect = true
			}
			return res, err
		}
	}

	return res, nil
}

// Name resolves a single word. An exact entity name wins outright;
// otherwise the word is matched against names, aliases and titles, and
// against the single words of a title.
func Name(p *world.Player, word string) (world.Entity, error) {
	visible := Visible(p)

	for _, e := range visible {
		if e.Name() == word {
			return e, nil
		}
	}

	var matches []world.Entity
	for _, e := range visible {
		if matchesName(e, word) {
			matches = append(matches, e)
		}
	}

	switch len(matches) {
	case 0:
		return nil, &NotFoundError{Name: word}
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name()
		}
		return nil, &AmbiguityError{Name: word, Candidates: names}
	}
}

// Visible lists what the player can refer to: carried objects first, then
// everything else in the room, then the room itself. The player is always
// visible to themselves.
func Visible(p *world.Player) []world.Entity {
	var out []world.Entity
	for _, o := range p.Inventory() {
		out = append(out, o)
	}
	out = append(out, p)

	loc := p.Location()
	if loc == nil {
		return out
	}
	for _, e := range loc.Contents() {
		if e == world.Entity(p) {
			continue
		}
		out = append(out, e)
	}
	return append(out, loc)
}

// matchesName checks a word against an entity, case-insensitively.
// "key" matches a "rusty key" and "rusty key" matches the name "rusty_key".
func matchesName(e world.Entity, word string) bool {
	if world.Matches(e, word) {
		return true
	}
	word = strings.ToLower(strings.TrimSpace(word))
	if strings.ReplaceAll(word, " ", "_") == strings.ToLower(e.Name()) {
		return true
	}
	for _, w := range strings.Fields(strings.ToLower(e.Title())) {
		if w == word {
			return true
		}
	}
	return false
}
