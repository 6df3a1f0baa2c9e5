package parser

import (
	"testing"

	"github.com/nathoo/trogdor/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  types.Command
	}{
		// Empty / whitespace
		{
			name:  "empty string",
			input: "",
			want:  types.Command{},
		},
		{
			name:  "whitespace only",
			input: "   ",
			want:  types.Command{},
		},

		// Basic verbs (no object)
		{
			name:  "look",
			input: "look",
			want:  types.Command{Verb: "look"},
		},
		{
			name:  "inventory",
			input: "inventory",
			want:  types.Command{Verb: "inventory"},
		},

		// Verb aliases
		{
			name:  "l → look",
			input: "l",
			want:  types.Command{Verb: "look"},
		},
		{
			name:  "i → inventory",
			input: "i",
			want:  types.Command{Verb: "inventory"},
		},
		{
			name:  "x sword → look sword",
			input: "x sword",
			want:  types.Command{Verb: "look", DirectObject: "sword"},
		},
		{
			name:  "get key → take key",
			input: "get key",
			want:  types.Command{Verb: "take", DirectObject: "key"},
		},
		{
			name:  "kill troll → attack troll",
			input: "kill troll",
			want:  types.Command{Verb: "attack", DirectObject: "troll"},
		},
		{
			name:  "z → wait",
			input: "z",
			want:  types.Command{Verb: "wait"},
		},

		// Direction shortcuts
		{
			name:  "n → go north",
			input: "n",
			want:  types.Command{Verb: "go", DirectObject: "north"},
		},
		{
			name:  "south → go south",
			input: "south",
			want:  types.Command{Verb: "go", DirectObject: "south"},
		},
		{
			name:  "in → go in",
			input: "in",
			want:  types.Command{Verb: "go", DirectObject: "in"},
		},
		{
			name:  "go ne → go northeast",
			input: "go ne",
			want:  types.Command{Verb: "go", DirectObject: "northeast"},
		},
		{
			name:  "walk in",
			input: "walk in",
			want:  types.Command{Verb: "go", DirectObject: "in"},
		},

		// Multi-word verbs
		{
			name:  "look at the sword",
			input: "look at the sword",
			want:  types.Command{Verb: "look", DirectObject: "sword"},
		},
		{
			name:  "pick up lamp",
			input: "pick up lamp",
			want:  types.Command{Verb: "take", DirectObject: "lamp"},
		},
		{
			name:  "put down lamp",
			input: "put down lamp",
			want:  types.Command{Verb: "drop", DirectObject: "lamp"},
		},

		// Prepositions
		{
			name:  "attack troll with sword",
			input: "attack the troll with the sword",
			want: types.Command{
				Verb:           "attack",
				DirectObject:   "troll",
				IndirectObject: "sword",
				Preposition:    "with",
			},
		},
		{
			name:  "multi-word objects",
			input: "hit cave troll using rusty axe",
			want: types.Command{
				Verb:           "attack",
				DirectObject:   "cave troll",
				IndirectObject: "rusty axe",
				Preposition:    "using",
			},
		},
		{
			name:  "indirect object only",
			input: "attack with sword",
			want:  types.Command{Verb: "attack", IndirectObject: "sword", Preposition: "with"},
		},

		// Case and spacing
		{
			name:  "mixed case",
			input: "  TAKE   The  Lamp ",
			want:  types.Command{Verb: "take", DirectObject: "lamp"},
		},
		{
			name:  "unknown verb passes through",
			input: "dance wildly",
			want:  types.Command{Verb: "dance", DirectObject: "wildly"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input)
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}
