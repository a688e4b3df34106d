// Package save implements JSON serialization and deserialization of the world.
// Presentation that only lives for a scene (speech, shake, flashes, sounds)
// is not saved.
package save

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nathoo/spellbound/engine/state"
	"github.com/nathoo/spellbound/types"
)

// DefaultName is used when no save name is given.
const DefaultName = "quicksave"

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Version    string                       `json:"version"`
	Game       string                       `json:"game"`
	Tick       int                          `json:"tick"`
	Level      string                       `json:"level"`
	Spawn      string                       `json:"spawn,omitempty"`
	BGM        string                       `json:"bgm,omitempty"`
	Camera     string                       `json:"camera,omitempty"`
	Spells     []string                     `json:"spells"`
	Discovered map[string]int               `json:"discovered"`
	SceneTick  int                          `json:"scene_tick"`
	Flags      map[string]bool              `json:"flags"`
	Entities   map[string]types.EntityState `json:"entities"`
	Tiles      map[string]string            `json:"tiles"`
	Ended      bool                         `json:"ended,omitempty"`
	CommandLog []string                     `json:"command_log"`
}

// Save serializes the world to JSON bytes.
func Save(s *types.State, defs *state.Defs) ([]byte, error) {
	data := SaveData{
		Version:    defs.Game.Version,
		Game:       defs.Game.Title,
		Tick:       s.Tick,
		Level:      s.Level,
		Spawn:      s.Spawn,
		BGM:        s.BGM,
		Camera:     s.Camera,
		Spells:     s.Spells,
		Discovered: s.Discovered,
		SceneTick:  s.SceneTick,
		Flags:      s.Flags,
		Entities:   s.Entities,
		Tiles:      s.Tiles,
		Ended:      s.Ended,
		CommandLog: s.CommandLog,
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	// Ensure maps are never nil after load.
	if sd.Spells == nil {
		sd.Spells = []string{}
	}
	if sd.Discovered == nil {
		sd.Discovered = map[string]int{}
	}
	if sd.Flags == nil {
		sd.Flags = map[string]bool{}
	}
	if sd.Entities == nil {
		sd.Entities = map[string]types.EntityState{}
	}
	if sd.Tiles == nil {
		sd.Tiles = map[string]string{}
	}
	if sd.CommandLog == nil {
		sd.CommandLog = []string{}
	}
	return &sd, nil
}

// ApplySave applies loaded save data onto a world. Scene presentation is
// reset.
func ApplySave(s *types.State, sd *SaveData) {
	s.Tick = sd.Tick
	s.Level = sd.Level
	s.Spawn = sd.Spawn
	s.BGM = sd.BGM
	s.Camera = sd.Camera
	s.Spells = sd.Spells
	s.Discovered = sd.Discovered
	s.SceneTick = sd.SceneTick
	s.Flags = sd.Flags
	s.Entities = sd.Entities
	s.Tiles = sd.Tiles
	s.Ended = sd.Ended
	s.CommandLog = sd.CommandLog

	s.Speaker = ""
	s.Speech = nil
	s.Shake = 0
	s.Sounds = []string{}
	s.Flashes = []types.FlashState{}
}

// Path returns the file a named save lives in. Names may not contain path
// separators.
func Path(dir, name string) (string, error) {
	if name == "" {
		name = DefaultName
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid save name %q", name)
	}
	return filepath.Join(dir, name+".json"), nil
}

// WriteFile saves the world under dir as name.json, creating dir if needed.
func WriteFile(dir, name string, s *types.State, defs *state.Defs) error {
	path, err := Path(dir, name)
	if err != nil {
		return err
	}
	data, err := Save(s, defs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile loads name.json from dir.
func ReadFile(dir, name string) (*SaveData, error) {
	path, err := Path(dir, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}
