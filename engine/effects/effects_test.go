package effects

import (
	"testing"

	"golang.org/x/text/language"

	"github.com/nathoo/spellbound/engine/state"
	"github.com/nathoo/spellbound/types"
)

func testSetup() (*types.State, Context) {
	defs := &state.Defs{
		Game: types.GameDef{Start: "forest"},
	}
	s := state.NewState(defs)
	ctx := Context{Lang: language.English, Scenario: "intro"}
	return s, ctx
}

func TestApply_ShowText(t *testing.T) {
	s, ctx := testSetup()

	events, output := Apply(s, []types.Effect{
		{Type: "focus", Params: map[string]any{"name": "witch_cat"}},
		{Type: "show_text", Params: map[string]any{"text": types.Dict{"en": "Hi", "ja": "やあ"}}},
	}, ctx)

	if s.Speaker != "witch_cat" {
		t.Errorf("expected speaker witch_cat, got %q", s.Speaker)
	}
	if len(output) != 1 || output[0] != "Witch Cat: 'Hi'" {
		t.Errorf("unexpected output: %v", output)
	}
	if len(events) != 1 || events[0].Type != "speech_shown" {
		t.Fatalf("expected speech_shown event, got %v", events)
	}
	if events[0].Data["scenario"] != "intro" {
		t.Errorf("expected scenario intro in event, got %v", events[0].Data["scenario"])
	}
}

func TestApply_ShowTextLanguage(t *testing.T) {
	s, ctx := testSetup()
	ctx.Lang = language.Japanese

	_, output := Apply(s, []types.Effect{
		{Type: "show_text", Params: map[string]any{"text": types.Dict{"en": "Hi", "ja": "やあ"}}},
	}, ctx)

	if len(output) != 1 || output[0] != "やあ" {
		t.Errorf("expected japanese narration, got %v", output)
	}
}

func TestApply_ShowTextPlainString(t *testing.T) {
	s, ctx := testSetup()

	_, output := Apply(s, []types.Effect{
		{Type: "show_text", Params: map[string]any{"text": "Snow falls."}},
	}, ctx)

	if len(output) != 1 || output[0] != "Snow falls." {
		t.Errorf("unexpected output: %v", output)
	}
	if s.Speech["en"] != "Snow falls." {
		t.Errorf("expected english speech, got %v", s.Speech)
	}
}

func TestApply_Close(t *testing.T) {
	s, ctx := testSetup()
	s.Speaker = "witch_cat"
	s.Speech = types.Dict{"en": "Hi"}
	s.Camera = "witch_cat"

	events, _ := Apply(s, []types.Effect{
		{Type: "close", Params: map[string]any{"scenario": "intro"}},
	}, ctx)

	if s.Speaker != "" || s.Speech != nil || s.Camera != "" {
		t.Errorf("expected dialogue cleared, got speaker=%q speech=%v camera=%q", s.Speaker, s.Speech, s.Camera)
	}
	if len(events) != 1 || events[0].Type != "dialogue_closed" {
		t.Errorf("expected dialogue_closed event, got %v", events)
	}
}

func TestApply_Audio(t *testing.T) {
	s, ctx := testSetup()

	events, _ := Apply(s, []types.Effect{
		{Type: "bgm", Params: map[string]any{"path": "music/forest.ogg"}},
		{Type: "play_sound", Params: map[string]any{"path": "se/bell.wav"}},
		{Type: "play_sound", Params: map[string]any{"path": "se/door.wav"}},
	}, ctx)

	if s.BGM != "music/forest.ogg" {
		t.Errorf("expected bgm set, got %q", s.BGM)
	}
	if len(s.Sounds) != 2 || s.Sounds[1] != "se/door.wav" {
		t.Errorf("expected two sounds in order, got %v", s.Sounds)
	}
	if len(events) != 1 || events[0].Type != "bgm_changed" {
		t.Errorf("expected bgm_changed event, got %v", events)
	}
}

func TestApply_ShakeAndFlash(t *testing.T) {
	s, ctx := testSetup()

	Apply(s, []types.Effect{
		{Type: "shake", Params: map[string]any{"intensity": 2.5}},
		{Type: "shake", Params: map[string]any{"intensity": 1}},
		{Type: "flash", Params: map[string]any{
			"position":  types.Vec2{X: 3, Y: 4},
			"intensity": 0.8,
			"radius":    64.0,
			"duration":  30,
			"reverse":   true,
		}},
	}, ctx)

	if s.Shake != 3.5 {
		t.Errorf("expected accumulated shake 3.5, got %v", s.Shake)
	}
	if len(s.Flashes) != 1 {
		t.Fatalf("expected one flash, got %d", len(s.Flashes))
	}
	f := s.Flashes[0]
	if f.Position != (types.Vec2{X: 3, Y: 4}) || f.Radius != 64 || f.Duration != 30 || !f.Reverse {
		t.Errorf("unexpected flash: %+v", f)
	}
}

func TestApply_Warp(t *testing.T) {
	s, ctx := testSetup()
	s.Entities["ghost"] = types.EntityState{Kind: "npc"}
	s.Camera = "ghost"

	events, output := Apply(s, []types.Effect{
		{Type: "warp", Params: map[string]any{"level": "ice_cave", "spawn": "gate"}},
	}, ctx)

	if s.Level != "ice_cave" || s.Spawn != "gate" {
		t.Errorf("expected ice_cave/gate, got %s/%s", s.Level, s.Spawn)
	}
	if len(s.Entities) != 0 {
		t.Errorf("expected entities reset, got %v", s.Entities)
	}
	if s.Camera != "" {
		t.Errorf("expected camera reset, got %q", s.Camera)
	}
	if len(output) != 1 || output[0] != "[Ice Cave]" {
		t.Errorf("unexpected output: %v", output)
	}
	if len(events) != 1 || events[0].Type != "level_changed" || events[0].Data["level"] != "ice_cave" {
		t.Errorf("expected level_changed event, got %v", events)
	}
}

func TestApply_Transition(t *testing.T) {
	s, ctx := testSetup()

	events, _ := Apply(s, []types.Effect{
		{Type: "transition", Params: map[string]any{"level": "home"}},
	}, ctx)

	if s.Level != "home" || s.Spawn != "" {
		t.Errorf("expected home with default spawn, got %s/%q", s.Level, s.Spawn)
	}
	if len(events) != 1 || events[0].Type != "level_changed" {
		t.Errorf("expected level_changed event, got %v", events)
	}
}

func TestApply_SetTile(t *testing.T) {
	s, ctx := testSetup()

	events, _ := Apply(s, []types.Effect{
		{Type: "set_tile", Params: map[string]any{"x": 1, "y": 2, "w": 3, "h": 2, "tile": "ice"}},
	}, ctx)

	if len(s.Tiles) != 6 {
		t.Errorf("expected 6 tiles, got %d", len(s.Tiles))
	}
	for _, key := range []string{"1,2", "3,2", "1,3", "3,3"} {
		if s.Tiles[key] != "ice" {
			t.Errorf("expected ice at %s, got %q", key, s.Tiles[key])
		}
	}
	if _, ok := s.Tiles["4,2"]; ok {
		t.Error("tile outside region should be untouched")
	}
	if len(events) != 1 || events[0].Type != "tiles_changed" {
		t.Errorf("expected tiles_changed event, got %v", events)
	}
}

func TestApply_SetTileOversizedIgnored(t *testing.T) {
	s, ctx := testSetup()

	events, _ := Apply(s, []types.Effect{
		{Type: "set_tile", Params: map[string]any{"x": 0, "y": 0, "w": 100000, "h": 100000, "tile": "water"}},
	}, ctx)

	if len(s.Tiles) != 0 {
		t.Errorf("expected no tiles written, got %d", len(s.Tiles))
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %v", events)
	}
}

func TestApply_SpawnDespawn(t *testing.T) {
	s, ctx := testSetup()

	events, _ := Apply(s, []types.Effect{
		{Type: "spawn", Params: map[string]any{"kind": "npc", "name": "ghost", "position": types.Vec2{X: 5, Y: 6}}},
		{Type: "camera", Params: map[string]any{"target": "ghost"}},
	}, ctx)

	e, ok := s.Entities["ghost"]
	if !ok {
		t.Fatal("expected ghost spawned")
	}
	if e.Kind != "npc" || e.Position != (types.Vec2{X: 5, Y: 6}) {
		t.Errorf("unexpected entity: %+v", e)
	}
	if s.Camera != "ghost" {
		t.Errorf("expected camera on ghost, got %q", s.Camera)
	}
	if len(events) != 1 || events[0].Type != "entity_spawned" {
		t.Errorf("expected entity_spawned event, got %v", events)
	}

	events, _ = Apply(s, []types.Effect{
		{Type: "despawn", Params: map[string]any{"name": "ghost"}},
	}, ctx)
	if _, ok := s.Entities["ghost"]; ok {
		t.Error("expected ghost removed")
	}
	if s.Camera != "" {
		t.Errorf("expected camera released, got %q", s.Camera)
	}
	if len(events) != 1 || events[0].Type != "entity_despawned" {
		t.Errorf("expected entity_despawned event, got %v", events)
	}
}

func TestApply_DespawnMissing(t *testing.T) {
	s, ctx := testSetup()

	events, _ := Apply(s, []types.Effect{
		{Type: "despawn", Params: map[string]any{"name": "nobody"}},
	}, ctx)

	if len(events) != 0 {
		t.Errorf("expected no events for missing entity, got %v", events)
	}
}

func TestApply_SpawnFromMapPosition(t *testing.T) {
	s, ctx := testSetup()

	Apply(s, []types.Effect{
		{Type: "spawn", Params: map[string]any{
			"kind":     "item",
			"name":     "lantern",
			"position": map[string]any{"x": 1.5, "y": 2},
		}},
	}, ctx)

	if got := s.Entities["lantern"].Position; got != (types.Vec2{X: 1.5, Y: 2}) {
		t.Errorf("expected (1.5, 2), got %v", got)
	}
}

func TestApply_Sprite(t *testing.T) {
	s, ctx := testSetup()

	Apply(s, []types.Effect{
		{Type: "sprite", Params: map[string]any{"name": "moon", "image": "img/moon.png", "position": types.Vec2{X: 10}}},
	}, ctx)

	e := s.Entities["moon"]
	if e.Kind != "sprite" || e.Image != "img/moon.png" || e.Position.X != 10 {
		t.Errorf("unexpected sprite: %+v", e)
	}
}

func TestApply_GrantSpell(t *testing.T) {
	s, ctx := testSetup()

	events, output := Apply(s, []types.Effect{
		{Type: "grant_spell", Params: map[string]any{"spell": "fire_bolt"}},
	}, ctx)

	if !state.HasSpell(s, "fire_bolt") {
		t.Error("expected fire_bolt granted")
	}
	if !state.JustDiscovered(s, "fire_bolt") {
		t.Error("expected fire_bolt discovered")
	}
	if len(output) != 1 || output[0] != "[New spell: Fire Bolt]" {
		t.Errorf("unexpected output: %v", output)
	}
	if len(events) != 1 || events[0].Type != "spell_granted" {
		t.Errorf("expected spell_granted event, got %v", events)
	}

	// Granting an owned spell is silent but still reported.
	events, output = Apply(s, []types.Effect{
		{Type: "grant_spell", Params: map[string]any{"spell": "fire_bolt"}},
	}, ctx)
	if len(output) != 0 {
		t.Errorf("expected no output for owned spell, got %v", output)
	}
	if len(events) != 1 {
		t.Errorf("expected spell_granted event, got %v", events)
	}
	if len(s.Spells) != 1 {
		t.Errorf("expected spell listed once, got %v", s.Spells)
	}
}

func TestApply_Ending(t *testing.T) {
	s, ctx := testSetup()
	s.Speech = types.Dict{"en": "Farewell"}

	events, output := Apply(s, []types.Effect{{Type: "ending"}}, ctx)

	if !s.Ended {
		t.Error("expected game ended")
	}
	if s.Speech != nil {
		t.Error("expected speech cleared")
	}
	if len(output) != 1 || output[0] != "[The End]" {
		t.Errorf("unexpected output: %v", output)
	}
	if len(events) != 1 || events[0].Type != "game_ended" {
		t.Errorf("expected game_ended event, got %v", events)
	}
}

func TestApply_UnknownAndSetVar(t *testing.T) {
	s, ctx := testSetup()

	events, output := Apply(s, []types.Effect{
		{Type: "set_var", Params: map[string]any{"name": "pos", "value": types.Vec2{}}},
		{Type: "teleport_moon", Params: map[string]any{}},
	}, ctx)

	if len(events) != 0 || len(output) != 0 {
		t.Errorf("expected nothing, got events=%v output=%v", events, output)
	}
}
