package interp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nathoo/spellbound/engine/resolve"
	"github.com/nathoo/spellbound/types"
)

// ---- test collaborators ----

type mapRegistry map[string][]types.Cmd

func (r mapRegistry) Scenario(name string) ([]types.Cmd, bool) {
	cmds, ok := r[name]
	return cmds, ok
}

type fakeSpells map[string]bool

func (f fakeSpells) JustDiscovered(spell string) bool { return f[spell] }

func speech(text string) types.Speech {
	return types.Speech{Text: types.Dict{"en": text}}
}

func newDriver(reg mapRegistry, spells SpellBook) *Driver {
	return New(reg, spells, zap.NewNop())
}

func effectTypes(effs []types.Effect) []string {
	out := make([]string, len(effs))
	for i, e := range effs {
		out[i] = e.Type
	}
	return out
}

// runToEnd ticks until the driver leaves Running, returning per-tick effects.
func runToEnd(t *testing.T, d *Driver, limit int) [][]types.Effect {
	t.Helper()
	var ticks [][]types.Effect
	for i := 0; i < limit; i++ {
		ticks = append(ticks, d.Tick())
		if d.Status() != Running {
			return ticks
		}
	}
	t.Fatalf("driver still running after %d ticks", limit)
	return nil
}

// ---- lifecycle ----

func TestNew_Idle(t *testing.T) {
	d := newDriver(mapRegistry{}, nil)
	assert.Equal(t, Idle, d.Status())
	assert.Nil(t, d.Tick())
	assert.Nil(t, d.Close())
}

func TestStart_UnknownScenario(t *testing.T) {
	d := newDriver(mapRegistry{}, nil)

	err := d.Start("nope", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownScenario))
	assert.Equal(t, Idle, d.Status())
	assert.Nil(t, d.Tick())
}

func TestStart_Busy(t *testing.T) {
	d := newDriver(mapRegistry{"a": {speech("a"), speech("b")}, "b": {speech("c")}}, nil)
	require.NoError(t, d.Start("a", nil))

	err := d.Start("b", nil)
	assert.True(t, errors.Is(err, ErrBusy))
	assert.Equal(t, "a", d.Scenario())
	assert.Equal(t, Running, d.Status())
}

func TestStart_AssignsRunID(t *testing.T) {
	d := newDriver(mapRegistry{"a": {types.Close{}}}, nil)

	require.NoError(t, d.Start("a", nil))
	first := d.RunID()
	runToEnd(t, d, 5)
	require.NoError(t, d.Start("a", nil))

	assert.NotEqual(t, first, d.RunID())
}

// ---- sequencing ----

func TestTick_Sequencing(t *testing.T) {
	cmds := []types.Cmd{speech("one"), types.SE{Path: "se/bell.ogg"}, types.Shake{Intensity: 2}, speech("four")}
	d := newDriver(mapRegistry{"seq": cmds}, nil)
	require.NoError(t, d.Start("seq", nil))

	ticks := runToEnd(t, d, 20)

	// n+1 commands run on ticks 0..n, termination at tick n+1.
	require.Len(t, ticks, len(cmds)+1)
	assert.Equal(t, []string{"show_text"}, effectTypes(ticks[0]))
	assert.Equal(t, []string{"play_sound"}, effectTypes(ticks[1]))
	assert.Equal(t, []string{"shake"}, effectTypes(ticks[2]))
	assert.Equal(t, []string{"show_text"}, effectTypes(ticks[3]))
	assert.Empty(t, ticks[4])
	assert.Equal(t, Terminated, d.Status())
}

func TestTick_TerminatedReturnsToIdle(t *testing.T) {
	d := newDriver(mapRegistry{"a": {types.Close{}}}, nil)
	require.NoError(t, d.Start("a", nil))

	d.Tick()
	assert.Equal(t, Terminated, d.Status())
	assert.Nil(t, d.Tick())
	assert.Equal(t, Idle, d.Status())
}

func TestTick_EmptyScenario(t *testing.T) {
	d := newDriver(mapRegistry{"empty": {}}, nil)
	require.NoError(t, d.Start("empty", nil))

	assert.Empty(t, d.Tick())
	assert.Equal(t, Terminated, d.Status())
}

// ---- wait ----

func TestTick_SpeechWaitClose(t *testing.T) {
	d := newDriver(mapRegistry{"hi": {speech("Hi"), types.Wait{Count: 2}, types.Close{}}}, nil)
	require.NoError(t, d.Start("hi", nil))

	// Tick 0: Speech.
	assert.Equal(t, []string{"show_text"}, effectTypes(d.Tick()))
	assert.Equal(t, 1, d.Cursor())

	// Ticks 1 and 2: consumed by Wait.
	assert.Empty(t, d.Tick())
	assert.Empty(t, d.Tick())
	assert.Equal(t, Running, d.Status())

	// Tick 3: Close.
	assert.Equal(t, []string{"close"}, effectTypes(d.Tick()))
	assert.Equal(t, Terminated, d.Status())
}

func TestTick_WaitElapsesExactly(t *testing.T) {
	for _, k := range []int{1, 2, 5, 10} {
		d := newDriver(mapRegistry{"w": {types.Wait{Count: k}, speech("after")}}, nil)
		require.NoError(t, d.Start("w", nil))

		for i := 0; i < k; i++ {
			assert.Empty(t, d.Tick(), "k=%d tick=%d should be waiting", k, i)
		}
		assert.Equal(t, []string{"show_text"}, effectTypes(d.Tick()), "k=%d", k)
	}
}

func TestTick_WaitZeroAdvancesSameTick(t *testing.T) {
	d := newDriver(mapRegistry{"w": {types.Wait{Count: 0}, speech("now")}}, nil)
	require.NoError(t, d.Start("w", nil))

	assert.Equal(t, []string{"show_text"}, effectTypes(d.Tick()))
	assert.Equal(t, 2, d.Cursor())
}

func TestWaiting_ReportsRemaining(t *testing.T) {
	d := newDriver(mapRegistry{"w": {types.Wait{Count: 3}, speech("x")}}, nil)
	require.NoError(t, d.Start("w", nil))

	d.Tick()
	assert.Equal(t, 2, d.Waiting())
	d.Tick()
	assert.Equal(t, 1, d.Waiting())
}

// ---- branching ----

func branchScenario() []types.Cmd {
	return []types.Cmd{
		speech("before"),
		types.OnNewSpell{
			Spell: "fire",
			Then:  []types.Cmd{speech("new!"), types.Close{}},
			Else:  []types.Cmd{speech("again?")},
		},
		speech("unreachable"),
	}
}

func TestTick_OnNewSpell_Then(t *testing.T) {
	d := newDriver(mapRegistry{"b": branchScenario()}, fakeSpells{"fire": true})
	require.NoError(t, d.Start("b", nil))

	ticks := runToEnd(t, d, 10)
	require.Len(t, ticks, 3)
	assert.Equal(t, "before", ticks[0][0].Params["text"].(types.Dict)["en"])
	// Branch resolves and runs its first command in the same tick.
	assert.Equal(t, "new!", ticks[1][0].Params["text"].(types.Dict)["en"])
	assert.Equal(t, []string{"close"}, effectTypes(ticks[2]))
}

func TestTick_OnNewSpell_ElseNoReturn(t *testing.T) {
	d := newDriver(mapRegistry{"b": branchScenario()}, fakeSpells{})
	require.NoError(t, d.Start("b", nil))

	ticks := runToEnd(t, d, 10)
	var texts []string
	for _, tick := range ticks {
		for _, e := range tick {
			if e.Type == "show_text" {
				texts = append(texts, e.Params["text"].(types.Dict)["en"])
			}
		}
	}
	assert.Equal(t, []string{"before", "again?"}, texts)
}

func TestTick_OnNewSpell_Deterministic(t *testing.T) {
	spells := fakeSpells{"fire": true}
	d := newDriver(mapRegistry{"b": branchScenario()}, spells)

	var runs [][][]types.Effect
	for i := 0; i < 3; i++ {
		require.NoError(t, d.Start("b", nil))
		runs = append(runs, runToEnd(t, d, 10))
		d.Tick()
	}
	assert.Equal(t, runs[0], runs[1])
	assert.Equal(t, runs[1], runs[2])
}

func TestTick_NestedEmptyBranches(t *testing.T) {
	cmds := []types.Cmd{
		types.OnNewSpell{Spell: "a", Else: []types.Cmd{
			types.OnNewSpell{Spell: "b", Else: []types.Cmd{}},
		}},
	}
	d := newDriver(mapRegistry{"n": cmds}, fakeSpells{})
	require.NoError(t, d.Start("n", nil))

	assert.Empty(t, d.Tick())
	assert.Equal(t, Terminated, d.Status())
}

func TestTick_NilSpellBookTakesElse(t *testing.T) {
	d := newDriver(mapRegistry{"b": branchScenario()}, nil)
	require.NoError(t, d.Start("b", nil))

	d.Tick()
	effs := d.Tick()
	require.Len(t, effs, 1)
	assert.Equal(t, "again?", effs[0].Params["text"].(types.Dict)["en"])
}

// ---- environment and resolution errors ----

func TestTick_SetThenSpawnFromVar(t *testing.T) {
	cmds := []types.Cmd{
		types.Set{Name: "door", Value: types.Expr{Kind: types.ExprVec2, Vec2: types.Vec2{X: 4, Y: 8}}},
		types.Spawn{Kind: "raven", Name: "raven", Position: types.Expr{Kind: types.ExprVar, Str: "door"}},
	}
	d := newDriver(mapRegistry{"s": cmds}, nil)
	require.NoError(t, d.Start("s", nil))

	assert.Equal(t, []string{"set_var"}, effectTypes(d.Tick()))
	effs := d.Tick()
	require.Len(t, effs, 1)
	assert.Equal(t, "spawn", effs[0].Type)
	assert.Equal(t, types.Vec2{X: 4, Y: 8}, effs[0].Params["position"])
}

func TestTick_UnboundVariableSkips(t *testing.T) {
	cmds := []types.Cmd{
		types.Spawn{Kind: "raven", Name: "raven", Position: types.Expr{Kind: types.ExprVar, Str: "missing"}},
		speech("still here"),
	}
	d := newDriver(mapRegistry{"s": cmds}, nil)
	require.NoError(t, d.Start("s", nil))

	assert.NotPanics(t, func() {
		assert.Empty(t, d.Tick())
	})
	assert.Equal(t, Running, d.Status())
	assert.Equal(t, []string{"show_text"}, effectTypes(d.Tick()))
}

func TestTick_TypeMismatchSkips(t *testing.T) {
	env := resolve.Env{"who": {Kind: types.ValueString, Str: "cat"}}
	cmds := []types.Cmd{
		types.Flash{Position: types.Expr{Kind: types.ExprVar, Str: "who"}, Intensity: 1},
		types.Close{},
	}
	d := newDriver(mapRegistry{"f": cmds}, nil)
	require.NoError(t, d.Start("f", env))

	assert.Empty(t, d.Tick())
	assert.Equal(t, []string{"close"}, effectTypes(d.Tick()))
}

func TestTick_InvalidTileRegionSkips(t *testing.T) {
	cmds := []types.Cmd{
		types.SetTile{X: 0, Y: 0, W: 0, H: 2, Tile: "stone"},
		types.SetTile{X: 0, Y: 0, W: 100000, H: 100000, Tile: "water"},
		types.SetTile{X: 1, Y: 2, W: 3, H: 1, Tile: "grass"},
	}
	d := newDriver(mapRegistry{"t": cmds}, nil)
	require.NoError(t, d.Start("t", nil))

	assert.Empty(t, d.Tick())
	assert.Empty(t, d.Tick(), "oversized region is skipped")
	effs := d.Tick()
	require.Len(t, effs, 1)
	assert.Equal(t, "set_tile", effs[0].Type)
	assert.Equal(t, "grass", effs[0].Params["tile"])
}

func TestStart_EnvIsolation(t *testing.T) {
	cmds := []types.Cmd{
		types.Set{Name: "p", Value: types.Expr{Kind: types.ExprVec2, Vec2: types.Vec2{X: 1, Y: 1}}},
	}
	d := newDriver(mapRegistry{"s": cmds}, nil)
	start := resolve.Env{}

	require.NoError(t, d.Start("s", start))
	runToEnd(t, d, 5)

	assert.Empty(t, start, "caller's env must not be mutated")
	assert.Contains(t, d.Env(), "p")
}

func TestScenarioIsolation_IdenticalRuns(t *testing.T) {
	cmds := []types.Cmd{
		types.Set{Name: "p", Value: types.Expr{Kind: types.ExprVec2, Vec2: types.Vec2{X: 2, Y: 3}}},
		types.BGM{Path: "bgm/boss.ogg"},
		types.Flash{Position: types.Expr{Kind: types.ExprVar, Str: "p"}, Intensity: 3, Radius: 64, Duration: 10},
		types.Wait{Count: 3},
		types.Warp{Level: "cave", Spawn: "entrance"},
		types.Close{},
	}
	d := newDriver(mapRegistry{"s": cmds}, nil)

	require.NoError(t, d.Start("s", resolve.Env{}))
	first := runToEnd(t, d, 20)
	d.Tick()
	require.NoError(t, d.Start("s", resolve.Env{}))
	second := runToEnd(t, d, 20)

	assert.Equal(t, first, second)
}

// ---- termination ----

func TestTick_EndingTerminates(t *testing.T) {
	d := newDriver(mapRegistry{"e": {types.Ending{}, speech("never")}}, nil)
	require.NoError(t, d.Start("e", nil))

	assert.Equal(t, []string{"ending"}, effectTypes(d.Tick()))
	assert.Equal(t, Terminated, d.Status())
}

func TestTick_FiniteListsTerminate(t *testing.T) {
	cmds := []types.Cmd{
		types.Wait{Count: 7},
		types.OnNewSpell{Spell: "x",
			Then: []types.Cmd{types.Wait{Count: 3}},
			Else: []types.Cmd{types.Wait{Count: 4}, speech("else")},
		},
		types.Wait{Count: 100},
	}
	for _, spells := range []fakeSpells{{"x": true}, {}} {
		d := newDriver(mapRegistry{"f": cmds}, spells)
		require.NoError(t, d.Start("f", nil))
		runToEnd(t, d, 50)
		assert.Equal(t, Terminated, d.Status())
	}
}

// ---- cancellation ----

func TestClose_ForceTerminates(t *testing.T) {
	d := newDriver(mapRegistry{"long": {speech("a"), types.Wait{Count: 50}, speech("b")}}, nil)
	require.NoError(t, d.Start("long", nil))
	d.Tick()
	d.Tick()

	effs := d.Close()
	require.Len(t, effs, 1)
	assert.Equal(t, "close", effs[0].Type)
	assert.Equal(t, "long", effs[0].Params["scenario"])
	assert.Equal(t, Terminated, d.Status())
	assert.Equal(t, 0, d.Waiting())

	// A second close is a no-op.
	assert.Nil(t, d.Close())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "terminated", Terminated.String())
	assert.Equal(t, "status(9)", Status(9).String())
}
