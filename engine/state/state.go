// Package state holds the immutable scenario definitions and the lookups
// over the mutable world model.
package state

import (
	"slices"
	"sort"
	"strconv"

	"github.com/nathoo/spellbound/types"
)

// Defs holds the immutable game definitions produced by the loader.
type Defs struct {
	Game      types.GameDef
	Scenarios map[string][]types.Cmd
	Triggers  []types.TriggerDef
}

// Scenario returns the command list registered under name.
func (d *Defs) Scenario(name string) ([]types.Cmd, bool) {
	if d == nil {
		return nil, false
	}
	cmds, ok := d.Scenarios[name]
	return cmds, ok
}

// ScenarioNames returns all registered scenario names, sorted.
func (d *Defs) ScenarioNames() []string {
	names := make([]string, 0, len(d.Scenarios))
	for name := range d.Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewState creates a fresh world from definitions.
func NewState(defs *Defs) *types.State {
	return &types.State{
		Level:      defs.Game.Start,
		Sounds:     []string{},
		Flashes:    []types.FlashState{},
		Entities:   map[string]types.EntityState{},
		Tiles:      map[string]string{},
		Spells:     []string{},
		Discovered: map[string]int{},
		Flags:      map[string]bool{},
		CommandLog: []string{},
	}
}

// GetFlag returns the value of a flag. Unset flags return false.
func GetFlag(s *types.State, name string) bool {
	return s.Flags[name]
}

// SetFlag sets a flag.
func SetFlag(s *types.State, name string, value bool) {
	s.Flags[name] = value
}

// HasSpell returns true if the player owns the spell.
func HasSpell(s *types.State, spell string) bool {
	return slices.Contains(s.Spells, spell)
}

// GrantSpell adds a spell. Granting a spell the player does not own yet
// records the tick it was discovered on. Returns whether the spell was new.
func GrantSpell(s *types.State, spell string) bool {
	if HasSpell(s, spell) {
		return false
	}
	s.Spells = append(s.Spells, spell)
	s.Discovered[spell] = s.Tick
	return true
}

// JustDiscovered returns true if the spell was granted on or after the tick
// the current scenario began. A scenario started by the grant's trigger
// begins on the grant's tick and still sees the spell as new; a later
// replay does not.
func JustDiscovered(s *types.State, spell string) bool {
	granted, ok := s.Discovered[spell]
	return ok && granted >= s.SceneTick
}

// BeginScene records the tick a scenario started on.
func BeginScene(s *types.State) {
	s.SceneTick = s.Tick
}

// SpellBook adapts a world to the driver's discovery predicate.
type SpellBook struct {
	State *types.State
}

// JustDiscovered reports whether spell was discovered recently.
func (b SpellBook) JustDiscovered(spell string) bool {
	return JustDiscovered(b.State, spell)
}

// EntityNames returns spawned entity names, sorted.
func EntityNames(s *types.State) []string {
	names := make([]string, 0, len(s.Entities))
	for name := range s.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MaxTileRegion caps the tiles one set_tile may fill.
const MaxTileRegion = 1 << 16

// ValidRegion reports whether a tile region has a non-negative origin,
// positive extents, and covers at most MaxTileRegion tiles.
func ValidRegion(x, y, w, h int) bool {
	if x < 0 || y < 0 || w <= 0 || h <= 0 {
		return false
	}
	return w <= MaxTileRegion/h
}

// TileKey returns the world's key for the tile at (x, y).
func TileKey(x, y int) string {
	return strconv.Itoa(x) + "," + strconv.Itoa(y)
}
