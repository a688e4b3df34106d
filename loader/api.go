package loader

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/spellbound/types"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerCommands(L)
	registerExpressions(L)
	registerConditionHelpers(L)
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", start = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		coll.setGame(tbl)
		return 0
	}))

	// Scenario "name" { cmd, cmd, ... }, curried.
	L.SetGlobal("Scenario", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.addScenario(name, tbl)
			return 0
		}))
		return 1
	}))

	// On("event", { scenario = "...", match = {...}, conditions = {...}, once = true })
	L.SetGlobal("On", L.NewFunction(func(L *lua.LState) int {
		event := L.CheckString(1)
		tbl := L.CheckTable(2)
		tbl.RawSetString("event", lua.LString(event))
		coll.addTrigger(tbl)
		return 0
	}))
}

// command builds a command table tagged with its variant.
func command(L *lua.LState, tag string, fields map[string]lua.LValue) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("type", lua.LString(tag))
	for k, v := range fields {
		tbl.RawSetString(k, v)
	}
	return tbl
}

func registerCommands(L *lua.LState) {
	// simple registers a command whose constructor takes no arguments.
	simple := func(tag string) {
		L.SetGlobal(tag, L.NewFunction(func(L *lua.LState) int {
			L.Push(command(L, tag, nil))
			return 1
		}))
	}
	// oneString registers a command built from a single string argument.
	oneString := func(tag, field string) {
		L.SetGlobal(tag, L.NewFunction(func(L *lua.LState) int {
			L.Push(command(L, tag, map[string]lua.LValue{field: lua.LString(L.CheckString(1))}))
			return 1
		}))
	}

	simple(types.TagClose)
	simple(types.TagHome)
	simple(types.TagArena)
	simple(types.TagEnding)

	oneString(types.TagFocus, "name")
	oneString(types.TagBGM, "path")
	oneString(types.TagSE, "path")
	oneString(types.TagDespawn, "name")
	oneString(types.TagCamera, "target")
	oneString(types.TagSpell, "spell")

	// Set("name", expr)
	L.SetGlobal(types.TagSet, L.NewFunction(func(L *lua.LState) int {
		L.Push(command(L, types.TagSet, map[string]lua.LValue{
			"name":  lua.LString(L.CheckString(1)),
			"value": L.CheckAny(2),
		}))
		return 1
	}))

	// Speech { en = "...", ja = "..." } or Speech("...")
	L.SetGlobal(types.TagSpeech, L.NewFunction(func(L *lua.LState) int {
		text := L.CheckAny(1)
		switch text.(type) {
		case lua.LString, *lua.LTable:
		default:
			L.ArgError(1, "text or language table expected")
		}
		L.Push(command(L, types.TagSpeech, map[string]lua.LValue{"text": text}))
		return 1
	}))

	// Wait(ticks)
	L.SetGlobal(types.TagWait, L.NewFunction(func(L *lua.LState) int {
		L.Push(command(L, types.TagWait, map[string]lua.LValue{"count": L.CheckNumber(1)}))
		return 1
	}))

	// Shake(intensity)
	L.SetGlobal(types.TagShake, L.NewFunction(func(L *lua.LState) int {
		L.Push(command(L, types.TagShake, map[string]lua.LValue{"intensity": L.CheckNumber(1)}))
		return 1
	}))

	// Flash { position = Vec2(x, y), intensity = 1, radius = 64, duration = 30, reverse = false }
	L.SetGlobal(types.TagFlash, L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		tbl.RawSetString("type", lua.LString(types.TagFlash))
		L.Push(tbl)
		return 1
	}))

	// Warp("level", "spawn")
	L.SetGlobal(types.TagWarp, L.NewFunction(func(L *lua.LState) int {
		L.Push(command(L, types.TagWarp, map[string]lua.LValue{
			"level": lua.LString(L.CheckString(1)),
			"spawn": lua.LString(L.OptString(2, "")),
		}))
		return 1
	}))

	// SetTile(x, y, w, h, "tile")
	L.SetGlobal(types.TagSetTile, L.NewFunction(func(L *lua.LState) int {
		L.Push(command(L, types.TagSetTile, map[string]lua.LValue{
			"x":    L.CheckNumber(1),
			"y":    L.CheckNumber(2),
			"w":    L.CheckNumber(3),
			"h":    L.CheckNumber(4),
			"tile": lua.LString(L.CheckString(5)),
		}))
		return 1
	}))

	// Spawn("kind", "name", position)
	L.SetGlobal(types.TagSpawn, L.NewFunction(func(L *lua.LState) int {
		L.Push(command(L, types.TagSpawn, map[string]lua.LValue{
			"kind":     lua.LString(L.CheckString(1)),
			"name":     lua.LString(L.CheckString(2)),
			"position": L.CheckAny(3),
		}))
		return 1
	}))

	// Sprite("name", "image", position)
	L.SetGlobal(types.TagSprite, L.NewFunction(func(L *lua.LState) int {
		L.Push(command(L, types.TagSprite, map[string]lua.LValue{
			"name":     lua.LString(L.CheckString(1)),
			"image":    lua.LString(L.CheckString(2)),
			"position": L.CheckAny(3),
		}))
		return 1
	}))

	// OnNewSpell("spell", { then... }, { else... })
	L.SetGlobal(types.TagOnNewSpell, L.NewFunction(func(L *lua.LState) int {
		L.Push(command(L, types.TagOnNewSpell, map[string]lua.LValue{
			"spell": lua.LString(L.CheckString(1)),
			"then":  L.CheckTable(2),
			"else":  L.OptTable(3, L.NewTable()),
		}))
		return 1
	}))
}

func registerExpressions(L *lua.LState) {
	// Vec2(x, y)
	L.SetGlobal("Vec2", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("x", L.CheckNumber(1))
		tbl.RawSetString("y", L.CheckNumber(2))
		L.Push(tbl)
		return 1
	}))

	// Var("name")
	L.SetGlobal("Var", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("var", lua.LString(L.CheckString(1)))
		L.Push(tbl)
		return 1
	}))
}

func registerConditionHelpers(L *lua.LState) {
	// cond registers a condition helper taking one string parameter.
	cond := func(name, condType, param string) {
		L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
			tbl := L.NewTable()
			tbl.RawSetString("type", lua.LString(condType))
			tbl.RawSetString(param, lua.LString(L.CheckString(1)))
			L.Push(tbl)
			return 1
		}))
	}

	cond("HasSpell", "has_spell", "spell")
	cond("SpellNot", "spell_not", "spell")
	cond("InLevel", "in_level", "level")
	cond("FlagSet", "flag_set", "flag")
	cond("FlagNot", "flag_not", "flag")
	cond("Script", "script", "expr")

	// Ended()
	L.SetGlobal("Ended", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("ended"))
		L.Push(tbl)
		return 1
	}))

	// Not(condition)
	L.SetGlobal("Not", L.NewFunction(func(L *lua.LState) int {
		inner := L.CheckTable(1)
		tbl := L.NewTable()
		tbl.RawSetString("type", lua.LString("not"))
		tbl.RawSetString("inner", inner)
		L.Push(tbl)
		return 1
	}))
}
