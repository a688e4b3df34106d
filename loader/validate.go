package loader

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nathoo/spellbound/engine/rules"
	"github.com/nathoo/spellbound/engine/state"
	"github.com/nathoo/spellbound/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// validate checks the compiled defs for referential integrity and
// consistency, appending to ve.
func validate(defs *state.Defs, ve *ValidationError) {
	if defs.Game.Intro != "" {
		if _, ok := defs.Scenarios[defs.Game.Intro]; !ok {
			ve.errorf("Game.Intro %q is not a defined scenario", defs.Game.Intro)
		}
	}

	known := map[string]bool{}
	if len(defs.Game.Levels) > 0 {
		known["home"] = true
		known["arena"] = true
		known[defs.Game.Start] = true
		for _, l := range defs.Game.Levels {
			known[l] = true
		}
	}

	for _, name := range defs.ScenarioNames() {
		cmds := defs.Scenarios[name]
		if len(cmds) == 0 {
			ve.warnf("scenario %q has no commands", name)
			continue
		}
		sv := &scenarioVars{sets: map[string]bool{}, reads: map[string]bool{}}
		validateCommands(name, cmds, sv, known, ve)
		for _, v := range sortedKeys(sv.sets) {
			if !sv.reads[v] {
				ve.warnf("scenario %q sets variable %q but never reads it", name, v)
			}
		}
	}

	for _, trig := range defs.Triggers {
		if _, ok := defs.Scenarios[trig.Scenario]; !ok && trig.Scenario != "" {
			ve.errorf("trigger %q starts undefined scenario %q", trig.ID, trig.Scenario)
		}
		for _, cond := range trig.Conditions {
			validateCondition(trig.ID, cond, ve)
		}
	}
}

// scenarioVars tracks variable use within one scenario.
type scenarioVars struct {
	sets  map[string]bool
	reads map[string]bool
}

func (sv *scenarioVars) read(e types.Expr) {
	if e.Kind == types.ExprVar {
		sv.reads[e.Str] = true
	}
}

// validateCommands walks a command list and its branches.
func validateCommands(scenario string, cmds []types.Cmd, sv *scenarioVars, knownLevels map[string]bool, ve *ValidationError) {
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case types.Set:
			sv.sets[c.Name] = true
			sv.read(c.Value)
		case types.Wait:
			if c.Count < 0 {
				ve.errorf("scenario %q: Wait count %d is negative", scenario, c.Count)
			}
		case types.SetTile:
			if c.W <= 0 || c.H <= 0 {
				ve.errorf("scenario %q: SetTile region %dx%d must have positive extents", scenario, c.W, c.H)
			}
			if c.X < 0 || c.Y < 0 {
				ve.errorf("scenario %q: SetTile origin (%d, %d) is negative", scenario, c.X, c.Y)
			}
			if c.W > 0 && c.H > 0 && c.W > state.MaxTileRegion/c.H {
				ve.errorf("scenario %q: SetTile region %dx%d exceeds %d tiles", scenario, c.W, c.H, state.MaxTileRegion)
			}
		case types.Flash:
			sv.read(c.Position)
		case types.Spawn:
			sv.read(c.Position)
		case types.Sprite:
			sv.read(c.Position)
		case types.Warp:
			if len(knownLevels) > 0 && !knownLevels[c.Level] {
				ve.warnf("scenario %q warps to unknown level %q", scenario, c.Level)
			}
		case types.OnNewSpell:
			validateCommands(scenario, c.Then, sv, knownLevels, ve)
			validateCommands(scenario, c.Else, sv, knownLevels, ve)
		}
	}
}

func validateCondition(triggerID string, cond types.Condition, ve *ValidationError) {
	if !rules.KnownCondition(cond.Type) {
		ve.errorf("trigger %q uses unknown condition type %q", triggerID, cond.Type)
		return
	}
	if cond.Inner != nil {
		validateCondition(triggerID, *cond.Inner, ve)
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
