package rules

import (
	"testing"

	"github.com/nathoo/spellbound/types"
)

func TestMatchEvent(t *testing.T) {
	touchedCat := types.Event{Type: "touched", Data: map[string]any{"entity": "cat"}}
	stepped := types.Event{Type: "stepped", Data: map[string]any{"x": 3, "y": 4}}

	tests := []struct {
		name    string
		trigger types.TriggerDef
		event   types.Event
		want    bool
	}{
		{
			name:    "event type only",
			trigger: types.TriggerDef{Event: "touched"},
			event:   touchedCat,
			want:    true,
		},
		{
			name:    "event type mismatch",
			trigger: types.TriggerDef{Event: "stepped"},
			event:   touchedCat,
			want:    false,
		},
		{
			name:    "match data",
			trigger: types.TriggerDef{Event: "touched", Match: map[string]any{"entity": "cat"}},
			event:   touchedCat,
			want:    true,
		},
		{
			name:    "match data mismatch",
			trigger: types.TriggerDef{Event: "touched", Match: map[string]any{"entity": "raven"}},
			event:   touchedCat,
			want:    false,
		},
		{
			name:    "match key missing from event",
			trigger: types.TriggerDef{Event: "touched", Match: map[string]any{"kind": "npc"}},
			event:   touchedCat,
			want:    false,
		},
		{
			name:    "numbers compare across types",
			trigger: types.TriggerDef{Event: "stepped", Match: map[string]any{"x": 3.0, "y": int64(4)}},
			event:   stepped,
			want:    true,
		},
		{
			name:    "number mismatch",
			trigger: types.TriggerDef{Event: "stepped", Match: map[string]any{"x": 5}},
			event:   stepped,
			want:    false,
		},
		{
			name:    "number against string",
			trigger: types.TriggerDef{Event: "stepped", Match: map[string]any{"x": "3"}},
			event:   stepped,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEvent(tt.trigger, tt.event)
			if got != tt.want {
				t.Errorf("MatchEvent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpecificity(t *testing.T) {
	tests := []struct {
		name    string
		trigger types.TriggerDef
		want    int
	}{
		{
			name:    "event only",
			trigger: types.TriggerDef{Event: "touched"},
			want:    0,
		},
		{
			name:    "one match key",
			trigger: types.TriggerDef{Event: "touched", Match: map[string]any{"entity": "cat"}},
			want:    2,
		},
		{
			name:    "two match keys",
			trigger: types.TriggerDef{Event: "stepped", Match: map[string]any{"x": 1, "y": 2}},
			want:    4,
		},
		{
			name: "match + conditions",
			trigger: types.TriggerDef{
				Event:      "touched",
				Match:      map[string]any{"entity": "cat"},
				Conditions: []types.Condition{{Type: "ended"}},
			},
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Specificity(tt.trigger)
			if got != tt.want {
				t.Errorf("Specificity() = %d, want %d", got, tt.want)
			}
		})
	}
}
