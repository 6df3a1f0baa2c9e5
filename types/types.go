// Package types defines the shared data structures for the trogdor engine.
// This package contains only type definitions and tiny accessors, no game logic.
package types

// Command is the parsed representation of a player command.
type Command struct {
	Verb           string
	DirectObject   string // optional
	IndirectObject string // optional
	Preposition    string // optional, the word that split direct/indirect
}

// Record is a keyed, JSON-friendly representation of a serializable value.
// Every record produced by a trigger or timer job carries a "type" key naming
// the variant it was produced from.
type Record map[string]any

// Type returns the variant tag stored under "type", or "" if missing.
func (r Record) Type() string {
	s, _ := r["type"].(string)
	return s
}

// String returns a string field, or "" if missing or not a string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Int returns an integer field. JSON decoding produces float64 for numbers,
// so both representations are accepted.
func (r Record) Int(key string) (int, bool) {
	switch v := r[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
