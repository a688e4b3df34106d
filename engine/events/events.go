// Package events implements single-pass trigger dispatch.
// Scenarios started by triggers emit events of their own on later ticks;
// dispatch itself never recurses.
package events

import (
	"github.com/nathoo/spellbound/engine/rules"
	"github.com/nathoo/spellbound/engine/state"
	"github.com/nathoo/spellbound/types"
)

// Dispatch runs the triggers against the emitted events. Single pass.
// Returns the triggers that fire, grouped by event in emission order and
// ranked within each event.
func Dispatch(events []types.Event, s *types.State, defs *state.Defs) []types.TriggerDef {
	if defs == nil || len(defs.Triggers) == 0 {
		return nil
	}

	var fired []types.TriggerDef
	for _, event := range events {
		fired = append(fired, rules.Select(defs.Triggers, event, s)...)
	}
	return fired
}
