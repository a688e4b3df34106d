// Package types defines the shared data structures for the spellbound engine.
// This package contains only type definitions and the variant tags that seal
// the command set. No logic.
package types

// Vec2 is a 2D point in world space.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ValueKind tags the concrete type stored in a Value.
type ValueKind int

const (
	ValueVec2 ValueKind = iota
	ValueString
)

// Value is a concrete environment value: a Vec2 or a string.
type Value struct {
	Kind ValueKind
	Vec2 Vec2
	Str  string
}

// ExprKind tags an Expr variant.
type ExprKind int

const (
	ExprVec2 ExprKind = iota
	ExprString
	ExprVar
)

// Expr is a literal Vec2, a literal string, or a variable reference.
type Expr struct {
	Kind ExprKind
	Vec2 Vec2
	Str  string // literal text, or the variable name for ExprVar
}

// Dict is a localized text keyed by language code ("en", "ja", ...).
type Dict map[string]string

// Cmd is one scenario command. The set of implementations is closed:
// only the variants declared below satisfy it.
type Cmd interface {
	CmdType() string
	isCmd()
}

// Command variant tags, as written in scenario data files.
const (
	TagSet        = "Set"
	TagFocus      = "Focus"
	TagSpeech     = "Speech"
	TagClose      = "Close"
	TagBGM        = "BGM"
	TagSE         = "SE"
	TagWait       = "Wait"
	TagShake      = "Shake"
	TagFlash      = "Flash"
	TagHome       = "Home"
	TagArena      = "Arena"
	TagWarp       = "Warp"
	TagSetTile    = "SetTile"
	TagSpawn      = "Spawn"
	TagDespawn    = "Despawn"
	TagSprite     = "Sprite"
	TagCamera     = "Camera"
	TagSpell      = "Spell"
	TagOnNewSpell = "OnNewSpell"
	TagEnding     = "Ending"
)

// Set binds Name to the resolved Value in the playback environment.
type Set struct {
	Name  string
	Value Expr
}

// Focus directs dialogue and camera attention at a named entity.
type Focus struct {
	Name string
}

// Speech shows a line of dialogue.
type Speech struct {
	Text Dict
}

// Close hides the dialogue box, restores the camera, and ends playback.
type Close struct{}

// BGM changes background music. An empty Path silences it.
type BGM struct {
	Path string
}

// SE plays a one-shot sound effect.
type SE struct {
	Path string
}

// Wait holds the cursor for Count ticks.
type Wait struct {
	Count int
}

// Shake shakes the camera.
type Shake struct {
	Intensity float64
}

// Flash flashes a point light.
type Flash struct {
	Position  Expr
	Intensity float64
	Radius    float64
	Duration  int
	Reverse   bool
}

// Home transitions to the home level.
type Home struct{}

// Arena transitions to the arena.
type Arena struct{}

// Warp transitions to Level, placing the player at spawn point Spawn.
type Warp struct {
	Level string
	Spawn string
}

// SetTile replaces every tile in the W×H region at (X, Y) with Tile.
type SetTile struct {
	X, Y int
	W, H int
	Tile string
}

// Spawn requests a named entity of the given kind.
type Spawn struct {
	Kind     string
	Name     string
	Position Expr
}

// Despawn removes a named entity.
type Despawn struct {
	Name string
}

// Sprite displays a static image under Name.
type Sprite struct {
	Name     string
	Image    string
	Position Expr
}

// Camera changes the camera follow target. An empty Target follows the player.
type Camera struct {
	Target string
}

// Spell grants a spell to the player.
type Spell struct {
	Spell string
}

// OnNewSpell continues with Then when Spell was just discovered, with Else otherwise.
type OnNewSpell struct {
	Spell string
	Then  []Cmd
	Else  []Cmd
}

// Ending shows the ending and ends playback.
type Ending struct{}

func (Set) CmdType() string        { return TagSet }
func (Focus) CmdType() string      { return TagFocus }
func (Speech) CmdType() string     { return TagSpeech }
func (Close) CmdType() string      { return TagClose }
func (BGM) CmdType() string        { return TagBGM }
func (SE) CmdType() string         { return TagSE }
func (Wait) CmdType() string       { return TagWait }
func (Shake) CmdType() string      { return TagShake }
func (Flash) CmdType() string      { return TagFlash }
func (Home) CmdType() string       { return TagHome }
func (Arena) CmdType() string      { return TagArena }
func (Warp) CmdType() string       { return TagWarp }
func (SetTile) CmdType() string    { return TagSetTile }
func (Spawn) CmdType() string      { return TagSpawn }
func (Despawn) CmdType() string    { return TagDespawn }
func (Sprite) CmdType() string     { return TagSprite }
func (Camera) CmdType() string     { return TagCamera }
func (Spell) CmdType() string      { return TagSpell }
func (OnNewSpell) CmdType() string { return TagOnNewSpell }
func (Ending) CmdType() string     { return TagEnding }

func (Set) isCmd()        {}
func (Focus) isCmd()      {}
func (Speech) isCmd()     {}
func (Close) isCmd()      {}
func (BGM) isCmd()        {}
func (SE) isCmd()         {}
func (Wait) isCmd()       {}
func (Shake) isCmd()      {}
func (Flash) isCmd()      {}
func (Home) isCmd()       {}
func (Arena) isCmd()      {}
func (Warp) isCmd()       {}
func (SetTile) isCmd()    {}
func (Spawn) isCmd()      {}
func (Despawn) isCmd()    {}
func (Sprite) isCmd()     {}
func (Camera) isCmd()     {}
func (Spell) isCmd()      {}
func (OnNewSpell) isCmd() {}
func (Ending) isCmd()     {}

// Effect is a single outbound request produced by the driver.
type Effect struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// Event is emitted after effects are applied.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// Result is the output of a single tick or console step.
type Result struct {
	Effects []Effect
	Events  []Event
	Output  []string
}

// Intent is the parsed representation of a console command.
type Intent struct {
	Verb   string
	Object string // optional
	Target string // optional
}

// Condition is a predicate that must be true for a trigger to fire.
type Condition struct {
	Type   string         // "has_spell", "flag_set", "in_level", etc.
	Params map[string]any // condition-specific parameters
	Negate bool           // true if wrapped in Not()
	Inner  *Condition     // for Not(): the negated inner condition
}

// TriggerDef starts Scenario when a matching event passes all Conditions.
type TriggerDef struct {
	ID          string
	Event       string
	Match       map[string]any // event data must contain these values
	Conditions  []Condition
	Scenario    string
	Once        bool
	SourceOrder int
}

// GameDef holds game metadata.
type GameDef struct {
	Title   string
	Author  string
	Version string
	Start   string   // starting level ID
	Intro   string   // scenario played at launch, optional
	Levels  []string // known level IDs, optional; used by validation
}

// EntityState is a spawned entity or sprite in the world.
type EntityState struct {
	Kind     string `json:"kind"`
	Position Vec2   `json:"position"`
	Image    string `json:"image,omitempty"`
}

// FlashState records a light flash request.
type FlashState struct {
	Position  Vec2    `json:"position"`
	Intensity float64 `json:"intensity"`
	Radius    float64 `json:"radius"`
	Duration  int     `json:"duration"`
	Reverse   bool    `json:"reverse,omitempty"`
}

// State is the complete mutable world model that effects are applied to.
type State struct {
	Level      string
	Spawn      string
	BGM        string
	Camera     string // empty = following the player
	Speaker    string
	Speech     Dict // nil when no dialogue is shown
	Shake      float64
	Sounds     []string
	Flashes    []FlashState
	Entities   map[string]EntityState
	Tiles      map[string]string // "x,y" → tile
	Spells     []string
	Discovered map[string]int // spell → tick it was granted on
	Flags      map[string]bool
	SceneTick  int // tick the current scenario began on
	Tick       int
	Ended      bool
	CommandLog []string
}
