package event

import "fmt"

// Kind identifies which variant an Argument holds.
type Kind int

const (
	KindInt Kind = iota
	KindDouble
	KindBool
	KindString
	KindGame
	KindEntity
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindGame:
		return "game"
	case KindEntity:
		return "entity"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Entity is the minimum an event argument needs to know about a world
// entity. The world package supplies the concrete types.
type Entity interface {
	Name() string
}

// Argument is one value carried through a dispatch. The zero value is the
// integer 0.
type Argument struct {
	kind Kind
	i    int
	d    float64
	b    bool
	s    string
	ref  any
}

func Int(v int) Argument { return Argument{kind: KindInt, i: v} }
func Double(v float64) Argument { return Argument{kind: KindDouble, d: v} }
func Bool(v bool) Argument { return Argument{kind: KindBool, b: v} }
func String(v string) Argument { return Argument{kind: KindString, s: v} }

// GameRef wraps the game a dispatch belongs to. Scripted handlers never see
// it.
func GameRef(g any) Argument { return Argument{kind: KindGame, ref: g} }

// EntityRef wraps a possibly-nil entity. Callers holding a typed nil pointer
// should pass a nil interface instead.
func EntityRef(e Entity) Argument { return Argument{kind: KindEntity, ref: e} }

func (a Argument) Kind() Kind { return a.kind }

func (a Argument) AsInt() (int, bool) {
	return a.i, a.kind == KindInt
}

func (a Argument) AsDouble() (float64, bool) {
	return a.d, a.kind == KindDouble
}

func (a Argument) AsBool() (bool, bool) {
	return a.b, a.kind == KindBool
}

func (a Argument) AsString() (string, bool) {
	return a.s, a.kind == KindString
}

// Game returns the wrapped game reference.
func (a Argument) Game() (any, bool) {
	if a.kind != KindGame {
		return nil, false
	}
	return a.ref, true
}

// Entity returns the wrapped entity. ok is false when the argument is not an
// entity reference; e may be nil when it is.
func (a Argument) Entity() (e Entity, ok bool) {
	if a.kind != KindEntity {
		return nil, false
	}
	if a.ref == nil {
		return nil, true
	}
	return a.ref.(Entity), true
}

func (a Argument) String() string {
	switch a.kind {
	case KindInt:
		return fmt.Sprintf("%d", a.i)
	case KindDouble:
		return fmt.Sprintf("%g", a.d)
	case KindBool:
		return fmt.Sprintf("%t", a.b)
	case KindString:
		return fmt.Sprintf("%q", a.s)
	case KindGame:
		return "<game>"
	case KindEntity:
		if a.ref == nil {
			return "<nil>"
		}
		return "<" + a.ref.(Entity).Name() + ">"
	default:
		return "<?>"
	}
}
