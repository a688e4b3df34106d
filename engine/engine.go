// Package engine provides the orchestrator that wires the scenario driver,
// effects, and triggers into a single tick, and the console commands that
// drive it by hand.
package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/nathoo/spellbound/engine/dialogue"
	"github.com/nathoo/spellbound/engine/effects"
	"github.com/nathoo/spellbound/engine/events"
	"github.com/nathoo/spellbound/engine/interp"
	"github.com/nathoo/spellbound/engine/parser"
	"github.com/nathoo/spellbound/engine/resolve"
	"github.com/nathoo/spellbound/engine/rules"
	"github.com/nathoo/spellbound/engine/state"
	"github.com/nathoo/spellbound/types"
)

// DefaultMaxRunTicks caps the console "run" command.
const DefaultMaxRunTicks = 10000

// Engine holds the scenario definitions, the world, and the driver.
type Engine struct {
	Defs        *state.Defs
	State       *types.State
	Driver      *interp.Driver
	Lang        language.Tag
	Log         *zap.Logger
	MaxRunTicks int

	// OnEffects, if set, receives each batch of applied effects with the
	// tick it was applied on and the run that produced it. Console effects
	// carry uuid.Nil.
	OnEffects func(tick int, runID uuid.UUID, effs []types.Effect)
}

// New creates a new engine from definitions.
func New(defs *state.Defs, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		Defs:        defs,
		Lang:        language.English,
		Log:         log,
		MaxRunTicks: DefaultMaxRunTicks,
	}
	e.Restore(state.NewState(defs))
	return e
}

// Restore replaces the world, e.g. after loading a save. Any running
// scenario is dropped.
func (e *Engine) Restore(s *types.State) {
	e.State = s
	e.Driver = interp.New(e.Defs, state.SpellBook{State: s}, e.Log.Named("interp"))
}

// Begin plays the game's intro scenario, if it has one.
func (e *Engine) Begin() error {
	if e.Defs.Game.Intro == "" {
		return nil
	}
	return e.Start(e.Defs.Game.Intro, nil)
}

// Start begins a scenario directly.
func (e *Engine) Start(name string, env resolve.Env) error {
	if err := e.Driver.Start(name, env); err != nil {
		return err
	}
	state.BeginScene(e.State)
	e.Log.Info("scenario started",
		zap.String("scenario", name),
		zap.Stringer("run_id", e.Driver.RunID()),
		zap.Int("tick", e.State.Tick))
	return nil
}

// Close force-terminates the running scenario and applies its close effect.
func (e *Engine) Close() types.Result {
	var result types.Result
	scenario, runID := e.Driver.Scenario(), e.Driver.RunID()
	effs := e.Driver.Close()
	if effs == nil {
		return result
	}
	e.Log.Info("scenario closed", zap.String("scenario", scenario))
	e.apply(&result, effs, scenario, runID)
	return result
}

// Tick advances the simulation by one tick: the driver runs, its effects
// are applied, and triggers fired by the resulting events may start the
// next scenario. Effects are attributed to the run that produced them even
// when a trigger starts another run within the same tick.
func (e *Engine) Tick() types.Result {
	var result types.Result
	scenario, runID := e.Driver.Scenario(), e.Driver.RunID()
	effs := e.Driver.Tick()
	e.apply(&result, effs, scenario, runID)
	e.State.Tick++
	return result
}

// Trigger dispatches an external event such as a touch or a level change.
func (e *Engine) Trigger(ev types.Event) types.Result {
	var result types.Result
	result.Events = append(result.Events, ev)
	if name := e.fire([]types.Event{ev}); name != "" {
		result.Output = append(result.Output, fmt.Sprintf("Playing %s.", name))
	}
	return result
}

// apply runs effects against the world, reports them to OnEffects, and
// dispatches the emitted events (single pass).
func (e *Engine) apply(result *types.Result, effs []types.Effect, scenario string, runID uuid.UUID) {
	if len(effs) == 0 {
		return
	}
	ctx := effects.Context{Lang: e.Lang, Scenario: scenario}
	evts, output := effects.Apply(e.State, effs, ctx)
	result.Effects = append(result.Effects, effs...)
	result.Events = append(result.Events, evts...)
	result.Output = append(result.Output, output...)
	if e.OnEffects != nil {
		e.OnEffects(e.State.Tick, runID, effs)
	}
	e.fire(evts)
}

// fire starts the best trigger for the events and returns the scenario
// started, if any. A busy driver ignores the trigger.
func (e *Engine) fire(evts []types.Event) string {
	fired := events.Dispatch(evts, e.State, e.Defs)
	if len(fired) == 0 {
		return ""
	}
	trig := fired[0]
	env := e.envFor(evts, trig)
	if err := e.Start(trig.Scenario, env); err != nil {
		if errors.Is(err, interp.ErrBusy) {
			e.Log.Debug("trigger ignored", zap.String("trigger", trig.ID), zap.Error(err))
		} else {
			e.Log.Warn("trigger failed", zap.String("trigger", trig.ID), zap.Error(err))
		}
		return ""
	}
	rules.MarkFired(e.State, trig)
	return trig.Scenario
}

// envFor seeds a triggered scenario's environment from the event that
// fired it.
func (e *Engine) envFor(evts []types.Event, trig types.TriggerDef) resolve.Env {
	env := resolve.Env{}
	for _, ev := range evts {
		if ev.Type != trig.Event || !rules.MatchEvent(trig, ev) {
			continue
		}
		for k, v := range ev.Data {
			if str, ok := v.(string); ok {
				env[k] = types.Value{Kind: types.ValueString, Str: str}
			}
		}
		if x, ok := numeric(ev.Data["x"]); ok {
			if y, ok := numeric(ev.Data["y"]); ok {
				env["position"] = types.Value{Kind: types.ValueVec2, Vec2: types.Vec2{X: x, Y: y}}
			}
		}
		if name, ok := ev.Data["entity"].(string); ok {
			if ent, ok := e.State.Entities[name]; ok {
				env["position"] = types.Value{Kind: types.ValueVec2, Vec2: ent.Position}
			}
		}
		break
	}
	return env
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// Step processes one console command and returns the result.
func (e *Engine) Step(input string) types.Result {
	var result types.Result

	// 1. Parse input.
	intent := parser.Parse(input)

	// 2. Log the command.
	e.State.CommandLog = append(e.State.CommandLog, input)

	// 3. Empty input.
	if intent.Verb == "" {
		result.Output = append(result.Output, "What do you want to do?")
		return result
	}

	// 4. After the ending only inspection is allowed.
	if e.State.Ended && intent.Verb != "look" {
		result.Output = append(result.Output, "The story has ended. Use /load to restore a save or /quit to exit.")
		return result
	}

	switch intent.Verb {
	case "start":
		return e.stepStart(intent.Object)
	case "tick":
		return e.stepTick(intent.Object)
	case "wait":
		return e.Tick()
	case "run":
		return e.stepRun()
	case "close":
		if e.Driver.Status() != interp.Running {
			result.Output = append(result.Output, "Nothing is playing.")
			return result
		}
		name := e.Driver.Scenario()
		result = e.Close()
		result.Output = append(result.Output, fmt.Sprintf("Closed %s.", name))
		return result
	case "touch":
		return e.stepTouch(intent.Object)
	case "step":
		return e.stepOn(intent.Object)
	case "enter":
		return e.stepEnter(intent.Object)
	case "learn":
		return e.stepLearn(intent.Object)
	case "look":
		result.Output = append(result.Output, e.Describe()...)
		return result
	default:
		result.Output = append(result.Output, "I don't understand that.")
		return result
	}
}

func (e *Engine) stepStart(name string) types.Result {
	var result types.Result
	if name == "" {
		result.Output = append(result.Output, "Start which scenario? ("+strings.Join(e.Defs.ScenarioNames(), ", ")+")")
		return result
	}
	if err := e.Start(name, nil); err != nil {
		switch {
		case errors.Is(err, interp.ErrBusy):
			result.Output = append(result.Output, fmt.Sprintf("%q is still playing.", e.Driver.Scenario()))
		case errors.Is(err, interp.ErrUnknownScenario):
			result.Output = append(result.Output, fmt.Sprintf("There is no scenario called %q.", name))
		default:
			result.Output = append(result.Output, err.Error())
		}
		return result
	}
	result.Output = append(result.Output, fmt.Sprintf("Playing %s.", name))
	return result
}

func (e *Engine) stepTick(arg string) types.Result {
	n := 1
	if arg != "" {
		v, err := strconv.Atoi(arg)
		if err != nil || v < 1 {
			return types.Result{Output: []string{"Tick how many times?"}}
		}
		n = v
	}
	var result types.Result
	for i := 0; i < n; i++ {
		merge(&result, e.Tick())
	}
	return result
}

// stepRun ticks until the driver is idle again.
func (e *Engine) stepRun() types.Result {
	var result types.Result
	if e.Driver.Status() == interp.Idle {
		result.Output = append(result.Output, "Nothing is playing.")
		return result
	}
	for i := 0; i < e.MaxRunTicks; i++ {
		merge(&result, e.Tick())
		if e.Driver.Status() == interp.Idle {
			return result
		}
	}
	e.Log.Warn("run stopped at tick cap",
		zap.String("scenario", e.Driver.Scenario()),
		zap.Int("max_ticks", e.MaxRunTicks))
	result.Output = append(result.Output, fmt.Sprintf("Stopped after %d ticks.", e.MaxRunTicks))
	return result
}

func (e *Engine) stepTouch(name string) types.Result {
	if name == "" {
		return types.Result{Output: []string{"Touch what?"}}
	}
	id, err := resolve.Entity(e.State, name)
	if err != nil {
		return types.Result{Output: []string{err.Error()}}
	}
	result := e.Trigger(types.Event{
		Type: "touched",
		Data: map[string]any{"entity": id, "kind": e.State.Entities[id].Kind},
	})
	if len(result.Output) == 0 {
		result.Output = append(result.Output, "Nothing happens.")
	}
	return result
}

func (e *Engine) stepOn(arg string) types.Result {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return types.Result{Output: []string{"Step where? (step <x> <y>)"}}
	}
	x, errX := strconv.Atoi(fields[0])
	y, errY := strconv.Atoi(fields[1])
	if errX != nil || errY != nil {
		return types.Result{Output: []string{"Step where? (step <x> <y>)"}}
	}
	data := map[string]any{"x": x, "y": y}
	if tile, ok := e.State.Tiles[state.TileKey(x, y)]; ok {
		data["tile"] = tile
	}
	return e.Trigger(types.Event{Type: "stepped", Data: data})
}

func (e *Engine) stepEnter(level string) types.Result {
	var result types.Result
	if level == "" {
		result.Output = append(result.Output, "Enter where?")
		return result
	}
	e.apply(&result, []types.Effect{
		{Type: "warp", Params: map[string]any{"level": level, "spawn": ""}},
	}, "", uuid.Nil)
	return result
}

func (e *Engine) stepLearn(spell string) types.Result {
	var result types.Result
	if spell == "" {
		result.Output = append(result.Output, "Learn which spell?")
		return result
	}
	e.apply(&result, []types.Effect{
		{Type: "grant_spell", Params: map[string]any{"spell": spell}},
	}, "", uuid.Nil)
	if len(result.Output) == 0 {
		result.Output = append(result.Output, fmt.Sprintf("You already know %s.", dialogue.DisplayName(spell)))
	}
	return result
}

// Describe summarizes the world for the console.
func (e *Engine) Describe() []string {
	s := e.State
	out := []string{fmt.Sprintf("[%s]", dialogue.DisplayName(s.Level))}

	if s.Speech != nil {
		out = append(out, dialogue.Line(s.Speaker, dialogue.Text(s.Speech, e.Lang)))
	}

	if names := state.EntityNames(s); len(names) > 0 {
		labels := make([]string, len(names))
		for i, n := range names {
			labels[i] = dialogue.DisplayName(n)
		}
		out = append(out, "You see: "+strings.Join(labels, ", ")+".")
	}

	if len(s.Spells) > 0 {
		labels := make([]string, len(s.Spells))
		for i, sp := range s.Spells {
			labels[i] = dialogue.DisplayName(sp)
		}
		out = append(out, "Spells: "+strings.Join(labels, ", ")+".")
	}

	if s.BGM != "" {
		out = append(out, "Music: "+s.BGM)
	}

	switch e.Driver.Status() {
	case interp.Running:
		out = append(out, fmt.Sprintf("Playing %s (command %d).", e.Driver.Scenario(), e.Driver.Cursor()))
	case interp.Terminated:
		out = append(out, fmt.Sprintf("%s has finished.", e.Driver.Scenario()))
	}
	return out
}

func merge(dst *types.Result, src types.Result) {
	dst.Effects = append(dst.Effects, src.Effects...)
	dst.Events = append(dst.Events, src.Events...)
	dst.Output = append(dst.Output, src.Output...)
}
