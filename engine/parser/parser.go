// Package parser converts console command strings into Intent structs.
// Intentionally dumb: no NLP, just pattern matching.
package parser

import (
	"strings"

	"github.com/nathoo/spellbound/types"
)

var verbAliases = map[string]string{
	// Start
	"play":  "start",
	"fire":  "start",
	"begin": "start",
	"cue":   "start",

	// Tick
	"t":       "tick",
	"next":    "tick",
	"advance": "tick",

	// Run
	"r":      "run",
	"finish": "run",
	"all":    "run",

	// Close
	"skip":   "close",
	"cancel": "close",
	"stop":   "close",
	"abort":  "close",

	// Touch
	"poke":     "touch",
	"tap":      "touch",
	"use":      "touch",
	"interact": "touch",
	"talk":     "touch",
	"examine":  "touch",
	"x":        "touch",

	// Step
	"walk":  "step",
	"move":  "step",
	"stand": "step",
	"tread": "step",

	// Enter
	"go":     "enter",
	"travel": "enter",
	"warp":   "enter",

	// Learn
	"grant": "learn",
	"study": "learn",
	"cast":  "learn",

	// Miscellaneous
	"l":    "look",
	"z":    "wait",
	"idle": "wait",
}

var prepositions = map[string]bool{
	"on": true, "at": true, "to": true,
	"with": true, "in": true, "into": true,
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// Parse converts a raw command string into an Intent.
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{}
	}

	words := strings.Fields(strings.ToLower(input))

	// Handle multi-word verb phrases before general parsing.
	words = expandMultiWordVerbs(words)

	// Apply verb aliases.
	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}

	verb := words[0]
	rest := stripArticles(words[1:])

	// Coordinates stay together: "step 3 4" -> Object "3 4".
	if verb == "step" {
		return types.Intent{Verb: verb, Object: strings.Join(rest, " ")}
	}

	// Use the first preposition as a delimiter between object and target.
	object, target := splitOnPreposition(rest)

	return types.Intent{
		Verb:   verb,
		Object: object,
		Target: target,
	}
}

// expandMultiWordVerbs handles "talk to", "go to", "look at" etc.
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}

	switch words[0] {
	case "talk", "speak", "chat":
		if words[1] == "to" || words[1] == "with" {
			return append([]string{"touch"}, words[2:]...)
		}
	case "go", "travel":
		if words[1] == "to" || words[1] == "into" {
			return append([]string{"enter"}, words[2:]...)
		}
	case "look":
		if words[1] == "at" {
			return append([]string{"look"}, words[2:]...)
		}
	case "step", "walk", "stand":
		if words[1] == "on" || words[1] == "to" {
			return append([]string{"step"}, words[2:]...)
		}
	case "play", "run":
		if words[1] == "scene" || words[1] == "scenario" {
			return append([]string{"start"}, words[2:]...)
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

// splitOnPreposition splits words on the first preposition.
// Words before the preposition become the object, words after become the target.
// If no preposition is found, all words become the object.
func splitOnPreposition(words []string) (object, target string) {
	for i, w := range words {
		if prepositions[w] {
			object = strings.Join(words[:i], " ")
			target = strings.Join(words[i+1:], " ")
			return object, target
		}
	}
	return strings.Join(words, " "), ""
}
