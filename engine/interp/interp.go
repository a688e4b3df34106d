// Package interp implements the tick-driven scenario driver. The driver
// walks one immutable command list with a cursor, a wait counter, and a
// variable environment, and translates each step into outbound effects.
// It never mutates the world directly.
package interp

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nathoo/spellbound/engine/resolve"
	"github.com/nathoo/spellbound/engine/state"
	"github.com/nathoo/spellbound/types"
)

// Errors returned by Start.
var (
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrBusy            = errors.New("a scenario is already running")
)

// ErrInvalidRegion is logged when a SetTile command has a degenerate or
// oversized region.
var ErrInvalidRegion = errors.New("invalid tile region")

// Status is the driver's playback state between ticks.
type Status int

const (
	Idle Status = iota
	Running
	Terminated
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Registry maps scenario names to immutable command lists.
type Registry interface {
	Scenario(name string) ([]types.Cmd, bool)
}

// SpellBook answers the OnNewSpell predicate.
type SpellBook interface {
	JustDiscovered(spell string) bool
}

// Driver plays one scenario at a time. It is not safe for concurrent use;
// the owning tick loop is its only writer.
type Driver struct {
	registry Registry
	spells   SpellBook
	log      *zap.Logger

	status Status
	name   string
	cmds   []types.Cmd
	cursor int
	wait   int
	env    resolve.Env
	runID  uuid.UUID
	ticks  int
}

// New creates an idle driver.
func New(reg Registry, spells SpellBook, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{
		registry: reg,
		spells:   spells,
		log:      log,
	}
}

// Start begins playback of the named scenario at cursor 0 with a copy of env.
func (d *Driver) Start(name string, env resolve.Env) error {
	if d.status == Running {
		d.log.Debug("scenario trigger ignored while busy",
			zap.String("requested", name), zap.String("running", d.name))
		return fmt.Errorf("start %q: %w", name, ErrBusy)
	}
	cmds, ok := d.registry.Scenario(name)
	if !ok {
		d.log.Warn("unknown scenario", zap.String("scenario", name))
		return fmt.Errorf("start %q: %w", name, ErrUnknownScenario)
	}

	d.status = Running
	d.name = name
	d.cmds = cmds
	d.cursor = 0
	d.wait = 0
	d.env = env.Clone()
	d.runID = uuid.New()
	d.ticks = 0

	d.log.Debug("scenario started",
		zap.String("scenario", name),
		zap.Stringer("run_id", d.runID),
		zap.Int("commands", len(cmds)))
	return nil
}

// step tells Tick what to do after executing one command.
type step int

const (
	stepAdvance   step = iota // move past the command; tick consumed
	stepContinue              // move past the command; keep executing this tick
	stepBranch                // active list replaced; keep executing this tick
	stepTerminate             // playback ends now
)

// Tick advances playback by one simulation tick and returns the effects
// produced, in order.
func (d *Driver) Tick() []types.Effect {
	switch d.status {
	case Idle:
		return nil
	case Terminated:
		d.status = Idle
		return nil
	}

	d.ticks++
	if d.wait > 0 {
		d.wait--
		return nil
	}

	var out []types.Effect
	for {
		if d.cursor >= len(d.cmds) {
			d.finish("exhausted")
			return out
		}
		cmd := d.cmds[d.cursor]
		next, err := d.exec(cmd, &out)
		if err != nil {
			d.log.Warn("skipping scenario command",
				zap.String("scenario", d.name),
				zap.Stringer("run_id", d.runID),
				zap.Int("cursor", d.cursor),
				zap.String("command", cmd.CmdType()),
				zap.Error(err))
			d.cursor++
			return out
		}
		switch next {
		case stepAdvance:
			d.cursor++
			return out
		case stepContinue:
			d.cursor++
		case stepBranch:
			// cursor already reset by exec
		case stepTerminate:
			d.cursor++
			d.finish(cmd.CmdType())
			return out
		}
	}
}

// Close force-terminates a running scenario at a tick boundary and returns
// the close effect. It is a no-op when nothing is running.
func (d *Driver) Close() []types.Effect {
	if d.status != Running {
		return nil
	}
	d.finish("cancelled")
	return []types.Effect{{Type: "close", Params: map[string]any{"scenario": d.name}}}
}

func (d *Driver) finish(reason string) {
	d.status = Terminated
	d.wait = 0
	d.log.Debug("scenario finished",
		zap.String("scenario", d.name),
		zap.Stringer("run_id", d.runID),
		zap.String("reason", reason),
		zap.Int("ticks", d.ticks))
}

// exec translates one command into effects.
func (d *Driver) exec(cmd types.Cmd, out *[]types.Effect) (step, error) {
	emit := func(typ string, params map[string]any) {
		*out = append(*out, types.Effect{Type: typ, Params: params})
	}

	switch c := cmd.(type) {
	case types.Set:
		v, err := resolve.Value(c.Value, d.env)
		if err != nil {
			return stepAdvance, err
		}
		d.env[c.Name] = v
		emit("set_var", map[string]any{"name": c.Name, "value": valueParam(v)})

	case types.Focus:
		emit("focus", map[string]any{"name": c.Name})

	case types.Speech:
		emit("show_text", map[string]any{"text": c.Text})

	case types.Close:
		emit("close", map[string]any{"scenario": d.name})
		return stepTerminate, nil

	case types.BGM:
		emit("bgm", map[string]any{"path": c.Path})

	case types.SE:
		emit("play_sound", map[string]any{"path": c.Path})

	case types.Wait:
		if c.Count <= 0 {
			return stepContinue, nil
		}
		d.wait = c.Count - 1

	case types.Shake:
		emit("shake", map[string]any{"intensity": c.Intensity})

	case types.Flash:
		pos, err := resolve.Vec2(c.Position, d.env)
		if err != nil {
			return stepAdvance, err
		}
		emit("flash", map[string]any{
			"position":  pos,
			"intensity": c.Intensity,
			"radius":    c.Radius,
			"duration":  c.Duration,
			"reverse":   c.Reverse,
		})

	case types.Home:
		emit("transition", map[string]any{"level": "home"})

	case types.Arena:
		emit("transition", map[string]any{"level": "arena"})

	case types.Warp:
		emit("warp", map[string]any{"level": c.Level, "spawn": c.Spawn})

	case types.SetTile:
		if !state.ValidRegion(c.X, c.Y, c.W, c.H) {
			return stepAdvance, fmt.Errorf("%w: %dx%d at (%d,%d)", ErrInvalidRegion, c.W, c.H, c.X, c.Y)
		}
		emit("set_tile", map[string]any{"x": c.X, "y": c.Y, "w": c.W, "h": c.H, "tile": c.Tile})

	case types.Spawn:
		pos, err := resolve.Vec2(c.Position, d.env)
		if err != nil {
			return stepAdvance, err
		}
		emit("spawn", map[string]any{"kind": c.Kind, "name": c.Name, "position": pos})

	case types.Despawn:
		emit("despawn", map[string]any{"name": c.Name})

	case types.Sprite:
		pos, err := resolve.Vec2(c.Position, d.env)
		if err != nil {
			return stepAdvance, err
		}
		emit("sprite", map[string]any{"name": c.Name, "image": c.Image, "position": pos})

	case types.Camera:
		emit("camera", map[string]any{"target": c.Target})

	case types.Spell:
		emit("grant_spell", map[string]any{"spell": c.Spell})

	case types.OnNewSpell:
		discovered := d.spells != nil && d.spells.JustDiscovered(c.Spell)
		branch := c.Else
		if discovered {
			branch = c.Then
		}
		d.log.Debug("branch selected",
			zap.String("scenario", d.name),
			zap.String("spell", c.Spell),
			zap.Bool("discovered", discovered))
		d.cmds = branch
		d.cursor = 0
		return stepBranch, nil

	case types.Ending:
		emit("ending", nil)
		return stepTerminate, nil

	default:
		return stepAdvance, fmt.Errorf("unsupported command %T", cmd)
	}

	return stepAdvance, nil
}

func valueParam(v types.Value) any {
	if v.Kind == types.ValueVec2 {
		return v.Vec2
	}
	return v.Str
}

// Status returns the playback state.
func (d *Driver) Status() Status { return d.status }

// Scenario returns the name of the current or last scenario.
func (d *Driver) Scenario() string { return d.name }

// Cursor returns the index of the next command in the active list.
func (d *Driver) Cursor() int { return d.cursor }

// Waiting returns the number of ticks left before the cursor resumes.
func (d *Driver) Waiting() int { return d.wait }

// RunID identifies the current or last playback.
func (d *Driver) RunID() uuid.UUID { return d.runID }

// Env returns a copy of the playback environment.
func (d *Driver) Env() resolve.Env { return d.env.Clone() }
