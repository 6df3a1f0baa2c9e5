// Package parser converts command strings into Commands.
// Intentionally dumb: no grammar, just pattern matching.
package parser

import (
	"strings"

	"github.com/nathoo/trogdor/types"
)

var directionExpansions = map[string]string{
	"n":  "north",
	"s":  "south",
	"e":  "east",
	"w":  "west",
	"ne": "northeast",
	"nw": "northwest",
	"se": "southeast",
	"sw": "southwest",
	"u":  "up",
	"d":  "down",
}

// Full direction names that are standalone shortcuts for "go <dir>".
var directionNames = map[string]bool{
	"north": true, "south": true, "east": true, "west": true,
	"northeast": true, "northwest": true, "southeast": true, "southwest": true,
	"up": true, "down": true, "in": true, "out": true,
}

var verbAliases = map[string]string{
	// Look / observe
	"l":       "look",
	"x":       "look",
	"examine": "look",
	"inspect": "look",
	"observe": "look",
	"check":   "look",

	// Movement
	"walk":   "go",
	"run":    "go",
	"move":   "go",
	"head":   "go",
	"travel": "go",

	// Take / Get
	"get":   "take",
	"grab":  "take",
	"carry": "take",

	"discard": "drop",

	// Attack
	"hit":    "attack",
	"fight":  "attack",
	"strike": "attack",
	"kill":   "attack",
	"punch":  "attack",
	"kick":   "attack",

	"peruse": "read",

	"inv": "inventory",
	"i":   "inventory",
	"z":   "wait",
}

var prepositions = map[string]bool{
	"on": true, "at": true, "to": true,
	"with": true, "in": true, "from": true,
	"using": true,
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// Parse converts a raw command string into a Command.
func Parse(input string) types.Command {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Command{}
	}

	words := strings.Fields(strings.ToLower(input))

	// Direction shortcut: bare "n", "south", etc. → go <direction>
	if len(words) == 1 {
		if dir, ok := directionExpansions[words[0]]; ok {
			return types.Command{Verb: "go", DirectObject: dir}
		}
		if directionNames[words[0]] {
			return types.Command{Verb: "go", DirectObject: words[0]}
		}
	}

	words = expandMultiWordVerbs(words)

	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}

	verb := words[0]
	rest := stripArticles(words[1:])

	if verb == "go" && len(rest) == 1 {
		dir := rest[0]
		if full, ok := directionExpansions[dir]; ok {
			dir = full
		}
		return types.Command{Verb: "go", DirectObject: dir}
	}

	direct, prep, indirect := splitOnPreposition(rest)
	return types.Command{
		Verb:           verb,
		DirectObject:   direct,
		IndirectObject: indirect,
		Preposition:    prep,
	}
}

// expandMultiWordVerbs handles "look at", "pick up" etc.
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}

	switch words[0] {
	case "look":
		if words[1] == "at" || words[1] == "in" || words[1] == "under" {
			return append([]string{"look"}, words[2:]...)
		}
	case "pick":
		if words[1] == "up" {
			return append([]string{"take"}, words[2:]...)
		}
	case "put":
		if words[1] == "down" {
			return append([]string{"drop"}, words[2:]...)
		}
	}

	return words
}

// stripArticles removes articles ("the", "a", "an") from the word list.
func stripArticles(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[w] {
			result = append(result, w)
		}
	}
	return result
}

// splitOnPreposition splits words on the first preposition. Words before it
// become the direct object, words after it the indirect object. A command
// that starts with a preposition ("attack with sword") has only an indirect
// object.
func splitOnPreposition(words []string) (direct, prep, indirect string) {
	for i, w := range words {
		if prepositions[w] {
			return strings.Join(words[:i], " "), w, strings.Join(words[i+1:], " ")
		}
	}
	return strings.Join(words, " "), "", ""
}
