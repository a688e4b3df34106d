// Package effects applies driver effects to the world model via the Apply
// function. Every effect type is one atomic operation. No logic in effects.
package effects

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/nathoo/spellbound/engine/dialogue"
	"github.com/nathoo/spellbound/engine/state"
	"github.com/nathoo/spellbound/types"
)

// Context carries presentation settings for effect output.
type Context struct {
	Lang     language.Tag
	Scenario string // scenario that produced the effects, if any
}

// Apply applies a list of effects to the world, mutating it.
// Returns events emitted and output text collected.
func Apply(s *types.State, effects []types.Effect, ctx Context) ([]types.Event, []string) {
	var events []types.Event
	var output []string

	for _, eff := range effects {
		switch eff.Type {
		case "set_var":
			// Environment bindings live in the driver; nothing to apply.

		case "focus":
			name, _ := eff.Params["name"].(string)
			s.Speaker = name

		case "show_text":
			text := toDict(eff.Params["text"])
			s.Speech = text
			output = append(output, dialogue.Line(s.Speaker, dialogue.Text(text, ctx.Lang)))
			events = append(events, types.Event{
				Type: "speech_shown",
				Data: map[string]any{"speaker": s.Speaker, "scenario": ctx.Scenario},
			})

		case "close":
			s.Speech = nil
			s.Speaker = ""
			s.Camera = ""
			events = append(events, types.Event{
				Type: "dialogue_closed",
				Data: map[string]any{"scenario": ctx.Scenario},
			})

		case "bgm":
			path, _ := eff.Params["path"].(string)
			s.BGM = path
			events = append(events, types.Event{
				Type: "bgm_changed",
				Data: map[string]any{"path": path},
			})

		case "play_sound":
			path, _ := eff.Params["path"].(string)
			s.Sounds = append(s.Sounds, path)

		case "shake":
			s.Shake += toFloat(eff.Params["intensity"])

		case "flash":
			s.Flashes = append(s.Flashes, types.FlashState{
				Position:  toVec2(eff.Params["position"]),
				Intensity: toFloat(eff.Params["intensity"]),
				Radius:    toFloat(eff.Params["radius"]),
				Duration:  toInt(eff.Params["duration"]),
				Reverse:   eff.Params["reverse"] == true,
			})

		case "transition":
			level, _ := eff.Params["level"].(string)
			events = append(events, changeLevel(s, level, "")...)
			output = append(output, fmt.Sprintf("[%s]", dialogue.DisplayName(level)))

		case "warp":
			level, _ := eff.Params["level"].(string)
			spawn, _ := eff.Params["spawn"].(string)
			events = append(events, changeLevel(s, level, spawn)...)
			output = append(output, fmt.Sprintf("[%s]", dialogue.DisplayName(level)))

		case "set_tile":
			x, y := toInt(eff.Params["x"]), toInt(eff.Params["y"])
			w, h := toInt(eff.Params["w"]), toInt(eff.Params["h"])
			tile, _ := eff.Params["tile"].(string)
			if !state.ValidRegion(x, y, w, h) {
				continue
			}
			for ty := y; ty < y+h; ty++ {
				for tx := x; tx < x+w; tx++ {
					s.Tiles[state.TileKey(tx, ty)] = tile
				}
			}
			events = append(events, types.Event{
				Type: "tiles_changed",
				Data: map[string]any{"x": x, "y": y, "w": w, "h": h, "tile": tile},
			})

		case "spawn":
			name, _ := eff.Params["name"].(string)
			kind, _ := eff.Params["kind"].(string)
			pos := toVec2(eff.Params["position"])
			s.Entities[name] = types.EntityState{Kind: kind, Position: pos}
			events = append(events, types.Event{
				Type: "entity_spawned",
				Data: map[string]any{"entity": name, "kind": kind},
			})

		case "despawn":
			name, _ := eff.Params["name"].(string)
			if _, ok := s.Entities[name]; !ok {
				continue
			}
			delete(s.Entities, name)
			if s.Camera == name {
				s.Camera = ""
			}
			events = append(events, types.Event{
				Type: "entity_despawned",
				Data: map[string]any{"entity": name},
			})

		case "sprite":
			name, _ := eff.Params["name"].(string)
			image, _ := eff.Params["image"].(string)
			s.Entities[name] = types.EntityState{
				Kind:     "sprite",
				Position: toVec2(eff.Params["position"]),
				Image:    image,
			}

		case "camera":
			target, _ := eff.Params["target"].(string)
			s.Camera = target

		case "grant_spell":
			spell, _ := eff.Params["spell"].(string)
			if state.GrantSpell(s, spell) {
				output = append(output, fmt.Sprintf("[New spell: %s]", dialogue.DisplayName(spell)))
			}
			events = append(events, types.Event{
				Type: "spell_granted",
				Data: map[string]any{"spell": spell},
			})

		case "ending":
			s.Ended = true
			s.Speech = nil
			output = append(output, "[The End]")
			events = append(events, types.Event{
				Type: "game_ended",
				Data: map[string]any{},
			})

		default:
			// Unknown effect types are ignored.
		}
	}

	return events, output
}

// changeLevel moves the player to a level and reports it.
func changeLevel(s *types.State, level, spawn string) []types.Event {
	s.Level = level
	s.Spawn = spawn
	// Level-local presentation does not survive a transition.
	s.Entities = map[string]types.EntityState{}
	s.Camera = ""
	return []types.Event{{
		Type: "level_changed",
		Data: map[string]any{"level": level, "spawn": spawn},
	}}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case int64:
		return int(n)
	default:
		return 0
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func toVec2(v any) types.Vec2 {
	switch p := v.(type) {
	case types.Vec2:
		return p
	case map[string]any:
		return types.Vec2{X: toFloat(p["x"]), Y: toFloat(p["y"])}
	default:
		return types.Vec2{}
	}
}

func toDict(v any) types.Dict {
	switch d := v.(type) {
	case types.Dict:
		return d
	case map[string]string:
		return types.Dict(d)
	case map[string]any:
		out := types.Dict{}
		for k, val := range d {
			if s, ok := val.(string); ok {
				out[k] = s
			}
		}
		return out
	case string:
		return types.Dict{dialogue.Fallback: d}
	default:
		return nil
	}
}
