package cli

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/nathoo/spellbound/engine"
	"github.com/nathoo/spellbound/engine/resolve"
	"github.com/nathoo/spellbound/engine/save"
	"github.com/nathoo/spellbound/engine/script"
	"github.com/nathoo/spellbound/types"
)

// Meta handles the slash commands shared by the plain CLI and the TUI.
type Meta struct {
	Engine  *engine.Engine
	SaveDir string
	Trace   bool
}

// Handle dispatches a meta-command. Returns output lines and whether the
// session should end.
func (m *Meta) Handle(input string) ([]string, bool) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil, false
	}
	cmd := parts[0]
	arg := strings.TrimSpace(strings.TrimPrefix(input, cmd))

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true
	case "/save":
		return m.cmdSave(arg), false
	case "/load":
		return m.cmdLoad(arg), false
	case "/help":
		return Help(), false
	case "/state":
		return m.cmdState(), false
	case "/scenarios":
		return m.cmdScenarios(), false
	case "/eval":
		return m.cmdEval(arg), false
	case "/lang":
		return m.cmdLang(arg), false
	case "/trace":
		m.Trace = !m.Trace
		if m.Trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false
	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Meta) cmdSave(name string) []string {
	if name == "" {
		name = save.DefaultName
	}
	if err := save.WriteFile(m.SaveDir, name, m.Engine.State, m.Engine.Defs); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	return []string{fmt.Sprintf("Game saved to %s.", name)}
}

func (m *Meta) cmdLoad(name string) []string {
	if name == "" {
		name = save.DefaultName
	}
	sd, err := save.ReadFile(m.SaveDir, name)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}

	// Playback does not survive a load; the driver starts idle.
	save.ApplySave(m.Engine.State, sd)
	m.Engine.Restore(m.Engine.State)

	output := []string{fmt.Sprintf("Game loaded from %s (tick %d).", name, sd.Tick)}
	return append(output, m.Engine.Describe()...)
}

func (m *Meta) cmdState() []string {
	s := m.Engine.State
	d := m.Engine.Driver
	output := []string{
		fmt.Sprintf("Tick: %d", s.Tick),
		fmt.Sprintf("Level: %s (spawn %q)", s.Level, s.Spawn),
		fmt.Sprintf("Driver: %s", d.Status()),
	}
	if d.Scenario() != "" {
		output = append(output, fmt.Sprintf("Scenario: %s (command %d, waiting %d, run %s)",
			d.Scenario(), d.Cursor(), d.Waiting(), d.RunID()))
	}
	if env := d.Env(); len(env) > 0 {
		output = append(output, "Env: "+formatEnv(env))
	}
	output = append(output, fmt.Sprintf("Spells: %v", s.Spells))
	if len(s.Flags) > 0 {
		output = append(output, fmt.Sprintf("Flags: %v", s.Flags))
	}
	if len(s.Entities) > 0 {
		output = append(output, fmt.Sprintf("Entities: %d", len(s.Entities)))
	}
	if s.Camera != "" {
		output = append(output, "Camera: "+s.Camera)
	}
	return output
}

func (m *Meta) cmdScenarios() []string {
	names := m.Engine.Defs.ScenarioNames()
	if len(names) == 0 {
		return []string{"No scenarios loaded."}
	}
	output := make([]string, 0, len(names))
	for _, name := range names {
		cmds, _ := m.Engine.Defs.Scenario(name)
		output = append(output, fmt.Sprintf("%s (%d commands)", name, len(cmds)))
	}
	return output
}

func (m *Meta) cmdEval(expr string) []string {
	if expr == "" {
		return []string{"Usage: /eval <lua expression>"}
	}
	v, err := script.Eval(m.Engine.State, expr)
	if err != nil {
		return []string{fmt.Sprintf("Eval failed: %v", err)}
	}
	return []string{script.Format(v)}
}

func (m *Meta) cmdLang(arg string) []string {
	if arg == "" {
		return []string{fmt.Sprintf("Language: %s", m.Engine.Lang)}
	}
	tag, err := language.Parse(arg)
	if err != nil {
		return []string{fmt.Sprintf("Unknown language %q.", arg)}
	}
	m.Engine.Lang = tag
	return []string{fmt.Sprintf("Language set to %s.", tag)}
}

func formatEnv(env resolve.Env) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		v := env[k]
		if v.Kind == types.ValueVec2 {
			parts[i] = fmt.Sprintf("%s=(%g, %g)", k, v.Vec2.X, v.Vec2.Y)
		} else {
			parts[i] = fmt.Sprintf("%s=%q", k, v.Str)
		}
	}
	return strings.Join(parts, " ")
}

// FormatTrace renders the effects and events of a result for /trace.
func FormatTrace(result types.Result) []string {
	var lines []string
	if len(result.Effects) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Effects: %d", len(result.Effects)))
		for _, e := range result.Effects {
			lines = append(lines, fmt.Sprintf("[trace]   %s %v", e.Type, e.Params))
		}
	}
	if len(result.Events) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Events: %d", len(result.Events)))
		for _, e := range result.Events {
			lines = append(lines, fmt.Sprintf("[trace]   %s %v", e.Type, e.Data))
		}
	}
	return lines
}

// Help lists the meta and console commands.
func Help() []string {
	return []string{
		"System:",
		"  /save [name]   Save the world (default: quicksave)",
		"  /load [name]   Load a save (default: quicksave)",
		"  /scenarios     List loaded scenarios",
		"  /state         Debug: dump world and driver state",
		"  /eval <expr>   Evaluate a Lua query, e.g. /eval has_spell('fire')",
		"  /lang [tag]    Show or set the narration language",
		"  /trace         Toggle effect and event trace output",
		"  /help          Show this help",
		"  /quit          Exit",
		"",
		"Console commands:",
		"  start <scenario>   Start a scenario (play)",
		"  tick [n]           Advance n ticks (t)",
		"  run                Tick until the scenario finishes (r)",
		"  wait               Advance one tick (z)",
		"  close              Cancel the running scenario (skip)",
		"  touch <entity>     Touch or talk to an entity (talk, use, x)",
		"  step <x> <y>       Step onto a tile (walk)",
		"  enter <level>      Warp to a level (go)",
		"  learn <spell>      Grant a spell",
		"  look               Describe the world (l)",
		"  again              Repeat your last command (g)",
	}
}
