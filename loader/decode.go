package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// document is the on-disk shape of a JSON or YAML content file.
type document struct {
	Game      map[string]any   `json:"game" yaml:"game"`
	Scenarios map[string][]any `json:"scenarios" yaml:"scenarios"`
	Triggers  []any            `json:"triggers" yaml:"triggers"`
}

// decodeFile reads a JSON or YAML content file. Unknown top-level keys are
// rejected.
func decodeFile(path string) (*source, error) {
	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	var doc document
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			err = nil // empty document
		}
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}

	src := &source{file: name, triggers: doc.Triggers}
	if doc.Game != nil {
		src.games = append(src.games, doc.Game)
	}
	names := make([]string, 0, len(doc.Scenarios))
	for n := range doc.Scenarios {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		src.scenarios = append(src.scenarios, rawScenario{name: n, cmds: doc.Scenarios[n]})
	}
	return src, nil
}
