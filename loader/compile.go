package loader

import (
	"errors"
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/spellbound/engine/state"
	"github.com/nathoo/spellbound/types"
)

// toGoValue converts a Lua value to a Go value recursively.
func toGoValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int(f)) {
			return int(f)
		}
		return f
	case *lua.LNilType:
		return nil
	case lua.LString:
		return string(val)
	case *lua.LTable:
		// Check if it's an array (sequential integer keys starting at 1).
		maxN := val.MaxN()
		if maxN > 0 {
			arr := make([]any, 0, maxN)
			for i := 1; i <= maxN; i++ {
				arr = append(arr, toGoValue(val.RawGetInt(i)))
			}
			return arr
		}
		// Otherwise treat as map.
		m := map[string]any{}
		val.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				m[string(ks)] = toGoValue(v)
			}
		})
		return m
	default:
		return nil
	}
}

// number converts any decoded numeric value to float64. JSON yields
// float64, YAML and Lua yield int for integral values.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// asList accepts a decoded sequence. An empty Lua table decodes as an empty
// map and a missing branch as nil; both are the empty list.
func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case nil:
		return nil, true
	case []any:
		return l, true
	case map[string]any:
		return nil, len(l) == 0
	}
	return nil, false
}

// compiler turns generic decoded values into typed definitions. Problems
// are collected rather than returned so a single load reports all of them.
type compiler struct {
	verr  *ValidationError
	order int
}

func (c *compiler) errorf(format string, args ...any) {
	c.verr.errorf(format, args...)
}

// compile converts all collected sources into a Defs struct.
func compile(sources []*source) (*state.Defs, *ValidationError) {
	c := &compiler{verr: &ValidationError{}}
	defs := &state.Defs{
		Scenarios: map[string][]types.Cmd{},
	}

	gameFile := ""
	origin := map[string]string{}
	triggerIDs := map[string]string{}

	for _, src := range sources {
		for _, g := range src.games {
			if gameFile != "" {
				c.errorf("%s: Game is already defined in %s", src.file, gameFile)
				continue
			}
			gameFile = src.file
			defs.Game = c.game(src.file, g)
		}

		for _, sc := range src.scenarios {
			if first, ok := origin[sc.name]; ok {
				c.errorf("%s: scenario %q is already defined in %s", src.file, sc.name, first)
				continue
			}
			origin[sc.name] = src.file
			defs.Scenarios[sc.name] = c.commands(fmt.Sprintf("%s: scenario %q", src.file, sc.name), sc.cmds)
		}

		for i, raw := range src.triggers {
			trig, ok := c.trigger(src.file, i+1, raw)
			if !ok {
				continue
			}
			if first, dup := triggerIDs[trig.ID]; dup {
				c.errorf("%s: trigger %q is already defined in %s", src.file, trig.ID, first)
				continue
			}
			triggerIDs[trig.ID] = src.file
			defs.Triggers = append(defs.Triggers, trig)
		}
	}

	if defs.Game.Start == "" {
		defs.Game.Start = "home"
	}
	return defs, c.verr
}

func (c *compiler) game(file string, m map[string]any) types.GameDef {
	r := reader{c: c, where: file + ": Game", m: m}
	g := types.GameDef{
		Title:   r.optStr("title"),
		Author:  r.optStr("author"),
		Version: r.optStr("version"),
		Start:   r.optStr("start"),
		Intro:   r.optStr("intro"),
	}
	if raw, ok := m["levels"]; ok {
		list, ok := asList(raw)
		if !ok {
			c.errorf("%s: Game: levels must be a list", file)
		}
		for _, l := range list {
			if s, ok := l.(string); ok {
				g.Levels = append(g.Levels, s)
			} else {
				c.errorf("%s: Game: level IDs must be strings, got %T", file, l)
			}
		}
	}
	return g
}

// commands compiles a command list. Invalid commands are reported and
// dropped.
func (c *compiler) commands(where string, raw any) []types.Cmd {
	list, ok := asList(raw)
	if !ok {
		c.errorf("%s: command list expected, got %T", where, raw)
		return nil
	}
	cmds := make([]types.Cmd, 0, len(list))
	for i, item := range list {
		if cmd := c.command(fmt.Sprintf("%s command %d", where, i+1), item); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

func (c *compiler) command(where string, item any) types.Cmd {
	m, ok := item.(map[string]any)
	if !ok {
		c.errorf("%s: command must be a table, got %T", where, item)
		return nil
	}
	tag, _ := m["type"].(string)
	if tag == "" {
		c.errorf("%s: command has no type", where)
		return nil
	}

	r := reader{c: c, where: fmt.Sprintf("%s (%s)", where, tag), m: m}
	switch tag {
	case types.TagSet:
		return types.Set{Name: r.str("name"), Value: r.expr("value")}
	case types.TagFocus:
		return types.Focus{Name: r.str("name")}
	case types.TagSpeech:
		return types.Speech{Text: r.dict("text")}
	case types.TagClose:
		return types.Close{}
	case types.TagBGM:
		return types.BGM{Path: r.str("path")}
	case types.TagSE:
		return types.SE{Path: r.str("path")}
	case types.TagWait:
		return types.Wait{Count: r.integer("count")}
	case types.TagShake:
		return types.Shake{Intensity: r.num("intensity")}
	case types.TagFlash:
		return types.Flash{
			Position:  r.expr("position"),
			Intensity: r.optNum("intensity", 1),
			Radius:    r.optNum("radius", 0),
			Duration:  int(r.optNum("duration", 0)),
			Reverse:   r.optBool("reverse"),
		}
	case types.TagHome:
		return types.Home{}
	case types.TagArena:
		return types.Arena{}
	case types.TagWarp:
		return types.Warp{Level: r.str("level"), Spawn: r.optStr("spawn")}
	case types.TagSetTile:
		return types.SetTile{
			X:    r.integer("x"),
			Y:    r.integer("y"),
			W:    r.integer("w"),
			H:    r.integer("h"),
			Tile: r.str("tile"),
		}
	case types.TagSpawn:
		return types.Spawn{Kind: r.str("kind"), Name: r.str("name"), Position: r.expr("position")}
	case types.TagDespawn:
		return types.Despawn{Name: r.str("name")}
	case types.TagSprite:
		return types.Sprite{Name: r.str("name"), Image: r.str("image"), Position: r.expr("position")}
	case types.TagCamera:
		return types.Camera{Target: r.str("target")}
	case types.TagSpell:
		return types.Spell{Spell: r.str("spell")}
	case types.TagOnNewSpell:
		if _, ok := m["then"]; !ok {
			c.errorf("%s: missing field %q", r.where, "then")
		}
		return types.OnNewSpell{
			Spell: r.str("spell"),
			Then:  c.commands(r.where+" then", m["then"]),
			Else:  c.commands(r.where+" else", m["else"]),
		}
	case types.TagEnding:
		return types.Ending{}
	default:
		c.errorf("%s: unknown command type %q", where, tag)
		return nil
	}
}

// compileExpr accepts a string literal, a {var = name} reference, or a
// vector as {x, y} or [x, y].
func compileExpr(v any) (types.Expr, error) {
	switch x := v.(type) {
	case string:
		return types.Expr{Kind: types.ExprString, Str: x}, nil
	case []any:
		if len(x) == 2 {
			px, okx := number(x[0])
			py, oky := number(x[1])
			if okx && oky {
				return types.Expr{Kind: types.ExprVec2, Vec2: types.Vec2{X: px, Y: py}}, nil
			}
		}
		return types.Expr{}, errors.New("vector must be two numbers")
	case map[string]any:
		if name, ok := x["var"]; ok {
			s, ok := name.(string)
			if !ok || s == "" {
				return types.Expr{}, errors.New("variable reference needs a name")
			}
			return types.Expr{Kind: types.ExprVar, Str: s}, nil
		}
		px, okx := number(x["x"])
		py, oky := number(x["y"])
		if okx && oky {
			return types.Expr{Kind: types.ExprVec2, Vec2: types.Vec2{X: px, Y: py}}, nil
		}
		return types.Expr{}, errors.New("expression needs var or x and y")
	}
	return types.Expr{}, fmt.Errorf("unsupported expression %T", v)
}

func (c *compiler) trigger(file string, index int, raw any) (types.TriggerDef, bool) {
	where := fmt.Sprintf("%s: trigger %d", file, index)
	m, ok := raw.(map[string]any)
	if !ok {
		c.errorf("%s: trigger must be a table, got %T", where, raw)
		return types.TriggerDef{}, false
	}

	r := reader{c: c, where: where, m: m}
	c.order++
	trig := types.TriggerDef{
		ID:          r.optStr("id"),
		Event:       r.str("event"),
		Scenario:    r.str("scenario"),
		Once:        r.optBool("once"),
		SourceOrder: c.order,
	}
	if trig.ID == "" {
		trig.ID = fmt.Sprintf("%s#%d", file, index)
	}

	if rawMatch, ok := m["match"]; ok && rawMatch != nil {
		match, ok := rawMatch.(map[string]any)
		if !ok {
			c.errorf("%s: match must be a table, got %T", where, rawMatch)
		} else if len(match) > 0 {
			trig.Match = match
		}
	}

	if rawConds, ok := m["conditions"]; ok {
		list, ok := asList(rawConds)
		if !ok {
			c.errorf("%s: conditions must be a list", where)
		}
		for i, item := range list {
			if cond, ok := c.condition(fmt.Sprintf("%s condition %d", where, i+1), item); ok {
				trig.Conditions = append(trig.Conditions, cond)
			}
		}
	}
	return trig, true
}

func (c *compiler) condition(where string, raw any) (types.Condition, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		c.errorf("%s: condition must be a table, got %T", where, raw)
		return types.Condition{}, false
	}
	condType, _ := m["type"].(string)
	if condType == "" {
		c.errorf("%s: condition has no type", where)
		return types.Condition{}, false
	}

	if condType == "not" {
		inner, ok := c.condition(where+" (not)", m["inner"])
		if !ok {
			return types.Condition{}, false
		}
		return types.Condition{Type: "not", Negate: true, Inner: &inner}, true
	}

	params := map[string]any{}
	for k, v := range m {
		if k != "type" {
			params[k] = v
		}
	}
	return types.Condition{Type: condType, Params: params}, true
}

// reader pulls typed fields out of a decoded table, recording a problem
// for every missing or mistyped required field.
type reader struct {
	c     *compiler
	where string
	m     map[string]any
}

func (r reader) missing(key string) {
	r.c.errorf("%s: missing field %q", r.where, key)
}

func (r reader) wrongType(key, want string, got any) {
	r.c.errorf("%s: field %q must be %s, got %T", r.where, key, want, got)
}

func (r reader) str(key string) string {
	v, ok := r.m[key]
	if !ok || v == nil {
		r.missing(key)
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.wrongType(key, "a string", v)
	}
	return s
}

func (r reader) optStr(key string) string {
	v, ok := r.m[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		r.wrongType(key, "a string", v)
	}
	return s
}

func (r reader) num(key string) float64 {
	v, ok := r.m[key]
	if !ok || v == nil {
		r.missing(key)
		return 0
	}
	n, ok := number(v)
	if !ok {
		r.wrongType(key, "a number", v)
	}
	return n
}

func (r reader) optNum(key string, def float64) float64 {
	v, ok := r.m[key]
	if !ok || v == nil {
		return def
	}
	n, ok := number(v)
	if !ok {
		r.wrongType(key, "a number", v)
		return def
	}
	return n
}

func (r reader) integer(key string) int {
	n := r.num(key)
	if n != math.Trunc(n) {
		r.wrongType(key, "a whole number", n)
	}
	return int(n)
}

func (r reader) optBool(key string) bool {
	v, ok := r.m[key]
	if !ok || v == nil {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		r.wrongType(key, "a boolean", v)
	}
	return b
}

func (r reader) expr(key string) types.Expr {
	v, ok := r.m[key]
	if !ok || v == nil {
		r.missing(key)
		return types.Expr{}
	}
	e, err := compileExpr(v)
	if err != nil {
		r.c.errorf("%s: field %q: %v", r.where, key, err)
	}
	return e
}

// dict accepts a language table or a plain string, which is stored as
// English.
func (r reader) dict(key string) types.Dict {
	v, ok := r.m[key]
	if !ok || v == nil {
		r.missing(key)
		return nil
	}
	switch x := v.(type) {
	case string:
		return types.Dict{"en": x}
	case map[string]any:
		d := types.Dict{}
		for lang, text := range x {
			s, ok := text.(string)
			if !ok {
				r.c.errorf("%s: field %q: %s text must be a string, got %T", r.where, key, lang, text)
				continue
			}
			d[lang] = s
		}
		if len(d) == 0 {
			r.c.errorf("%s: field %q has no text", r.where, key)
		}
		return d
	}
	r.wrongType(key, "text or a language table", v)
	return nil
}
