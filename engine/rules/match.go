package rules

import (
	"github.com/nathoo/spellbound/types"
)

// MatchEvent checks if a trigger's event type and Match criteria fit the
// event. Every Match key must be present in the event data with an equal
// value; numbers compare by value regardless of their Go type.
func MatchEvent(trigger types.TriggerDef, event types.Event) bool {
	if trigger.Event != event.Type {
		return false
	}
	for key, expected := range trigger.Match {
		actual, ok := event.Data[key]
		if !ok || !equalValues(actual, expected) {
			return false
		}
	}
	return true
}

// Specificity returns a numeric score for ranking triggers.
// Higher is more specific.
func Specificity(trigger types.TriggerDef) int {
	score := 2 * len(trigger.Match)
	if len(trigger.Conditions) > 0 {
		score++
	}
	return score
}

func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return a == b
}

// toFloat converts numeric values decoded from Go, JSON, YAML or Lua.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
