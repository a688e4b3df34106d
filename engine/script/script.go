// Package script runs sandboxed Lua against the world model. The loader
// uses the same sandbox to execute scenario files; at runtime, read-only
// queries back the /eval meta command and "script" trigger conditions.
package script

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/spellbound/engine/state"
	"github.com/nathoo/spellbound/types"
)

// ErrEmptyExpression is returned when Eval is given nothing to evaluate.
var ErrEmptyExpression = errors.New("empty expression")

// NewVM creates a Lua state with only the safe standard libraries opened
// and dangerous globals removed. The caller must Close it.
func NewVM() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)
	return L
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	// Base library (print, type, tostring, tonumber, pairs, ipairs, etc.)
	lua.OpenBase(L)
	// Table library (table.insert, table.sort, etc.)
	lua.OpenTable(L)
	// String library (string.format, string.sub, etc.)
	lua.OpenString(L)
	// Math library (math.floor, math.max, etc.)
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Scenario playback must be deterministic.
	if tbl, ok := L.GetGlobal("math").(*lua.LTable); ok {
		tbl.RawSetString("randomseed", lua.LNil)
		tbl.RawSetString("random", lua.LNil)
	}
}

// Eval evaluates a Lua expression against the world in a fresh VM.
// Statement chunks are accepted when they end in an explicit return.
func Eval(s *types.State, expr string) (lua.LValue, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return lua.LNil, ErrEmptyExpression
	}

	L := NewVM()
	defer L.Close()
	registerQueries(L, s)

	// Bare expressions get an implicit return; full chunks compile as-is.
	fn, err := L.LoadString("return " + expr)
	if err != nil {
		fn, err = L.LoadString(expr)
		if err != nil {
			return lua.LNil, fmt.Errorf("compiling %q: %w", expr, err)
		}
	}
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		return lua.LNil, fmt.Errorf("evaluating %q: %w", expr, err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Truthy evaluates expr and applies Lua truthiness: only nil and false are
// false.
func Truthy(s *types.State, expr string) (bool, error) {
	v, err := Eval(s, expr)
	if err != nil {
		return false, err
	}
	return lua.LVAsBool(v), nil
}

// Format renders a Lua value for display. Table entries are sorted.
func Format(v lua.LValue) string {
	switch val := v.(type) {
	case lua.LString:
		return fmt.Sprintf("%q", string(val))
	case *lua.LTable:
		var parts []string
		val.ForEach(func(k, item lua.LValue) {
			parts = append(parts, k.String()+" = "+Format(item))
		})
		sort.Strings(parts)
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return v.String()
	}
}

// registerQueries exposes read-only world accessors.
func registerQueries(L *lua.LState, s *types.State) {
	str := func(get func() string) lua.LGFunction {
		return func(L *lua.LState) int {
			L.Push(lua.LString(get()))
			return 1
		}
	}

	L.SetGlobal("level", L.NewFunction(str(func() string { return s.Level })))
	L.SetGlobal("spawn", L.NewFunction(str(func() string { return s.Spawn })))
	L.SetGlobal("bgm", L.NewFunction(str(func() string { return s.BGM })))
	L.SetGlobal("speaker", L.NewFunction(str(func() string { return s.Speaker })))

	L.SetGlobal("tick", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(s.Tick))
		return 1
	}))

	L.SetGlobal("ended", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(s.Ended))
		return 1
	}))

	L.SetGlobal("has_spell", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(state.HasSpell(s, L.CheckString(1))))
		return 1
	}))

	L.SetGlobal("flag", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(state.GetFlag(s, L.CheckString(1))))
		return 1
	}))

	L.SetGlobal("tile", L.NewFunction(func(L *lua.LState) int {
		if t, ok := s.Tiles[state.TileKey(L.CheckInt(1), L.CheckInt(2))]; ok {
			L.Push(lua.LString(t))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))

	L.SetGlobal("spells", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		for _, sp := range s.Spells {
			tbl.Append(lua.LString(sp))
		}
		L.Push(tbl)
		return 1
	}))

	// entity(name) returns {kind, image, x, y} or nil.
	L.SetGlobal("entity", L.NewFunction(func(L *lua.LState) int {
		e, ok := s.Entities[L.CheckString(1)]
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		tbl := L.NewTable()
		tbl.RawSetString("kind", lua.LString(e.Kind))
		if e.Image != "" {
			tbl.RawSetString("image", lua.LString(e.Image))
		}
		tbl.RawSetString("x", lua.LNumber(e.Position.X))
		tbl.RawSetString("y", lua.LNumber(e.Position.Y))
		L.Push(tbl)
		return 1
	}))
}
