// Package rules decides which scenario triggers fire for an event.
package rules

import (
	"sort"

	"github.com/nathoo/spellbound/engine/state"
	"github.com/nathoo/spellbound/types"
)

// Select runs the trigger pipeline for one event and returns every trigger
// that fires, best first.
//
//  1. Filter: event type and Match criteria.
//  2. Filter: Once triggers that already fired.
//  3. Filter: conditions.
//  4. Rank: specificity (desc), then source order (asc).
func Select(triggers []types.TriggerDef, event types.Event, s *types.State) []types.TriggerDef {
	var candidates []types.TriggerDef
	for _, trig := range triggers {
		if !MatchEvent(trig, event) {
			continue
		}
		if trig.Once && state.GetFlag(s, OnceFlag(trig.ID)) {
			continue
		}
		if !EvalAllConditions(trig.Conditions, s) {
			continue
		}
		candidates = append(candidates, trig)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		si, sj := Specificity(candidates[i]), Specificity(candidates[j])
		if si != sj {
			return si > sj
		}
		return candidates[i].SourceOrder < candidates[j].SourceOrder
	})
	return candidates
}

// OnceFlag names the flag recording that a Once trigger has fired.
func OnceFlag(id string) string {
	return "trigger:" + id
}

// MarkFired records a trigger's firing. Only Once triggers remember it.
func MarkFired(s *types.State, trigger types.TriggerDef) {
	if trigger.Once {
		state.SetFlag(s, OnceFlag(trigger.ID), true)
	}
}
