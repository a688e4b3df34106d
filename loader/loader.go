// Package loader loads scenario content into Go structs at startup.
// Lua, JSON and YAML files all decode into the same generic shape, which a
// single compile pass turns into typed commands. The Lua VM is discarded
// after loading.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/nathoo/spellbound/engine/script"
	"github.com/nathoo/spellbound/engine/state"
)

// source holds the generic definitions collected from one content file.
type source struct {
	file      string
	games     []map[string]any
	scenarios []rawScenario
	triggers  []any
}

// rawScenario holds a scenario's command list before compilation.
type rawScenario struct {
	name string
	cmds any
}

// collector accumulates Lua definitions during file execution.
type collector struct {
	cur *source
}

func (c *collector) setGame(tbl *lua.LTable) {
	if m, ok := toGoValue(tbl).(map[string]any); ok {
		c.cur.games = append(c.cur.games, m)
	}
}

func (c *collector) addScenario(name string, tbl *lua.LTable) {
	c.cur.scenarios = append(c.cur.scenarios, rawScenario{name: name, cmds: toGoValue(tbl)})
}

func (c *collector) addTrigger(tbl *lua.LTable) {
	c.cur.triggers = append(c.cur.triggers, toGoValue(tbl))
}

// Load reads scenario content from path, compiles it into definitions,
// validates references, and returns the immutable Defs. path is either a
// directory of content files or a single file.
func Load(path string, log *zap.Logger) (*state.Defs, error) {
	if log == nil {
		log = zap.NewNop()
	}

	dir, files, err := discover(path)
	if err != nil {
		return nil, err
	}

	var (
		L       *lua.LState
		coll    = &collector{}
		sources []*source
	)
	for _, f := range files {
		full := filepath.Join(dir, f)
		switch strings.ToLower(filepath.Ext(f)) {
		case ".lua":
			if L == nil {
				L = script.NewVM()
				defer L.Close()
				registerAPI(L, coll)
			}
			coll.cur = &source{file: f}
			if err := L.DoFile(full); err != nil {
				return nil, fmt.Errorf("executing %s: %w", f, err)
			}
			sources = append(sources, coll.cur)
		default:
			src, err := decodeFile(full)
			if err != nil {
				return nil, err
			}
			sources = append(sources, src)
		}
		log.Debug("content file read", zap.String("file", f))
	}

	defs, verr := compile(sources)
	validate(defs, verr)

	for _, w := range verr.Warnings {
		log.Warn("content warning", zap.String("warning", w))
	}
	if len(verr.Errors) > 0 {
		return nil, verr
	}

	log.Info("content loaded",
		zap.String("path", path),
		zap.Int("files", len(files)),
		zap.Int("scenarios", len(defs.Scenarios)),
		zap.Int("triggers", len(defs.Triggers)),
	)
	return defs, nil
}

// discover resolves path into a directory and the ordered content files to
// load from it.
func discover(path string) (string, []string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading content path %s: %w", path, err)
	}
	if !info.IsDir() {
		if !isContentFile(path) {
			return "", nil, fmt.Errorf("unsupported content file %s", path)
		}
		return filepath.Dir(path), []string{filepath.Base(path)}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", nil, fmt.Errorf("reading content directory %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && isContentFile(e.Name()) {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return "", nil, fmt.Errorf("no .lua, .json or .yaml files found in %s", path)
	}
	return path, sortedFiles(files), nil
}

func isContentFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".lua", ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// sortedFiles returns files sorted with game.* first, rest alphabetical.
func sortedFiles(files []string) []string {
	isGame := func(name string) bool {
		return strings.TrimSuffix(name, filepath.Ext(name)) == "game"
	}
	sort.SliceStable(files, func(i, j int) bool {
		gi, gj := isGame(files[i]), isGame(files[j])
		if gi != gj {
			return gi
		}
		return files[i] < files[j]
	})
	return files
}
