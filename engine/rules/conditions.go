// Package rules evaluates declarative conditions against a being. Games use
// them to gate an action without writing a script handler: a door that only
// opens for a player carrying a key, a shrine that turns away the cursed.
package rules

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nathoo/trogdor/engine/world"
)

// Condition types.
const (
	HasItem  = "has_item"
	InRoom   = "in_room"
	Tagged   = "tagged"
	Alive    = "alive"
	HealthGT = "health_gt"
	HealthLT = "health_lt"
	Not      = "not"
)

var ErrBadCondition = errors.New("bad condition")

// Condition is one test against a being. Value is a string for has_item,
// in_room and tagged, a bool for alive and an int for the health
// comparisons. A not condition holds when Inner does not all hold.
type Condition struct {
	Type  string
	Value any
	Inner []Condition
}

// Parse turns a table of condition type to value into conditions, sorted
// by type. Numbers may arrive as int, int64 or float64; a not value is
// itself such a table.
func Parse(m map[string]any) ([]Condition, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Condition, 0, len(m))
	for _, k := range keys {
		c, err := parseOne(k, m[k])
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func parseOne(typ string, v any) (Condition, error) {
	bad := func(want string) (Condition, error) {
		return Condition{}, fmt.Errorf("%w: %s wants %s, got %T", ErrBadCondition, typ, want, v)
	}
	switch typ {
	case HasItem, InRoom, Tagged:
		s, ok := v.(string)
		if !ok || s == "" {
			return bad("a name")
		}
		return Condition{Type: typ, Value: s}, nil
	case Alive:
		b, ok := v.(bool)
		if !ok {
			return bad("true or false")
		}
		return Condition{Type: typ, Value: b}, nil
	case HealthGT, HealthLT:
		n, ok := toInt(v)
		if !ok {
			return bad("a number")
		}
		return Condition{Type: typ, Value: n}, nil
	case Not:
		inner, ok := v.(map[string]any)
		if !ok {
			return bad("a table")
		}
		conds, err := Parse(inner)
		if err != nil {
			return Condition{}, err
		}
		return Condition{Type: typ, Inner: conds}, nil
	default:
		return Condition{}, fmt.Errorf("%w: unknown type %q", ErrBadCondition, typ)
	}
}

// Table is the inverse of Parse.
func Table(conds []Condition) map[string]any {
	m := make(map[string]any, len(conds))
	for _, c := range conds {
		if c.Type == Not {
			m[c.Type] = Table(c.Inner)
			continue
		}
		m[c.Type] = c.Value
	}
	return m
}

// Eval reports whether c holds for b.
func Eval(c Condition, b world.BeingEntity) bool {
	if world.IsNil(b) {
		return false
	}
	being := b.AsBeing()
	switch c.Type {
	case HasItem:
		name, _ := c.Value.(string)
		for _, o := range being.Inventory() {
			if o.Name() == name {
				return true
			}
		}
		return false
	case InRoom:
		name, _ := c.Value.(string)
		r := b.Location()
		return r != nil && r.Name() == name
	case Tagged:
		tag, _ := c.Value.(string)
		return b.HasTag(tag)
	case Alive:
		want, _ := c.Value.(bool)
		return being.Alive() == want
	case HealthGT:
		n, _ := c.Value.(int)
		return being.Health() > n
	case HealthLT:
		n, _ := c.Value.(int)
		return being.Health() < n
	case Not:
		return !EvalAll(c.Inner, b)
	default:
		return false
	}
}

// EvalAll returns true if every condition holds. An empty list is vacuously
// true.
func EvalAll(conds []Condition, b world.BeingEntity) bool {
	for _, c := range conds {
		if !Eval(c, b) {
			return false
		}
	}
	return true
}

// toInt converts a number from Lua or JSON to int.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
