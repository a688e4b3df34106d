package rules

import (
	"github.com/nathoo/spellbound/engine/script"
	"github.com/nathoo/spellbound/engine/state"
	"github.com/nathoo/spellbound/types"
)

// EvalCondition evaluates a single condition against the current world.
func EvalCondition(c types.Condition, s *types.State) bool {
	switch c.Type {
	case "has_spell":
		spell, _ := c.Params["spell"].(string)
		return state.HasSpell(s, spell)

	case "spell_not":
		spell, _ := c.Params["spell"].(string)
		return !state.HasSpell(s, spell)

	case "in_level":
		level, _ := c.Params["level"].(string)
		return s.Level == level

	case "flag_set":
		flag, _ := c.Params["flag"].(string)
		return state.GetFlag(s, flag)

	case "flag_not":
		flag, _ := c.Params["flag"].(string)
		return !state.GetFlag(s, flag)

	case "ended":
		return s.Ended

	case "script":
		expr, _ := c.Params["expr"].(string)
		ok, err := script.Truthy(s, expr)
		return err == nil && ok

	case "not":
		if c.Inner == nil {
			return true
		}
		return !EvalCondition(*c.Inner, s)

	default:
		return false
	}
}

// EvalAllConditions returns true if all conditions pass (AND logic).
// An empty condition list is vacuously true.
func EvalAllConditions(conditions []types.Condition, s *types.State) bool {
	for _, c := range conditions {
		if !EvalCondition(c, s) {
			return false
		}
	}
	return true
}

// KnownCondition reports whether typ is a condition EvalCondition understands.
func KnownCondition(typ string) bool {
	switch typ {
	case "has_spell", "spell_not", "in_level", "flag_set", "flag_not", "ended", "script", "not":
		return true
	}
	return false
}
