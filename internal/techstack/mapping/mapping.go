// Package mapping holds the static identifier → technology lookup tables used
// by the detectors. Tables are loaded once from bundled YAML and never mutated.
package mapping

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"profily/internal/techstack"
)

// Ecosystem selects one lookup table.
type Ecosystem int

const (
	NPM Ecosystem = iota
	NuGet
	Python
	GoModules
	Cargo
	Maven
	FilePresence
	Topics
	ecosystemCount
)

var ecosystemKeys = [ecosystemCount]string{
	NPM:          "packageJson",
	NuGet:        "csproj",
	Python:       "requirements",
	GoModules:    "goMod",
	Cargo:        "cargoToml",
	Maven:        "pomXml",
	FilePresence: "filePresence",
	Topics:       "topics",
}

func (e Ecosystem) String() string {
	if e < 0 || e >= ecosystemCount {
		return fmt.Sprintf("ecosystem(%d)", int(e))
	}
	return ecosystemKeys[e]
}

// Ecosystems lists every table in file order.
func Ecosystems() []Ecosystem {
	out := make([]Ecosystem, 0, ecosystemCount)
	for e := NPM; e < ecosystemCount; e++ {
		out = append(out, e)
	}
	return out
}

// ParseEcosystem resolves a table name such as "goMod" case-insensitively.
func ParseEcosystem(raw string) (Ecosystem, bool) {
	for e, key := range ecosystemKeys {
		if strings.EqualFold(strings.TrimSpace(raw), key) {
			return Ecosystem(e), true
		}
	}
	return 0, false
}

// Entry is one identifier and the technology it maps to.
type Entry struct {
	Key  string
	Tech techstack.Technology
}

// Table is an ordered, case-insensitive lookup table.
type Table struct {
	entries []Entry
	byKey   map[string]techstack.Technology
}

// Lookup matches key case-insensitively.
func (t *Table) Lookup(key string) (techstack.Technology, bool) {
	if t == nil {
		return techstack.Technology{}, false
	}
	tech, ok := t.byKey[strings.ToLower(strings.TrimSpace(key))]
	return tech, ok
}

// Entries returns the table in file order. Callers must not modify it.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	return t.entries
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Mappings is the full set of tables plus the derived name indexes.
type Mappings struct {
	tables [ecosystemCount]*Table

	// lowercase name → canonical spelling (first mapping wins)
	canonical map[string]string
	// lowercase canonical name → mapping used for category/icon resolution
	byName map[string]techstack.Technology
	// lowercase known names, sorted
	known []string
}

// Table returns the lookup table for e.
func (m *Mappings) Table(e Ecosystem) *Table {
	if m == nil || e < 0 || e >= ecosystemCount {
		return nil
	}
	return m.tables[e]
}

// IsKnown reports whether name is a canonical name of any mapping.
func (m *Mappings) IsKnown(name string) bool {
	_, ok := m.canonical[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Canonical returns the canonical spelling of name, or name itself when unknown.
func (m *Mappings) Canonical(name string) string {
	if c, ok := m.canonical[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c
	}
	return name
}

// Info resolves a canonical name to its mapping.
func (m *Mappings) Info(name string) (techstack.Technology, bool) {
	tech, ok := m.byName[strings.ToLower(strings.TrimSpace(name))]
	return tech, ok
}

// KnownNames returns every known name in lowercase, sorted.
func (m *Mappings) KnownNames() []string {
	return m.known
}

type rawMapping struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Icon     string `yaml:"icon"`
}

// rawTable keeps YAML key order.
type rawTable []Entry

func (r *rawTable) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		var raw rawMapping
		if err := valNode.Decode(&raw); err != nil {
			return fmt.Errorf("line %d: %w", valNode.Line, err)
		}
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			return fmt.Errorf("line %d: %q has no name", keyNode.Line, keyNode.Value)
		}
		cat, ok := techstack.ParseCategory(raw.Category)
		if !ok {
			return fmt.Errorf("line %d: %q has unknown category %q", valNode.Line, keyNode.Value, raw.Category)
		}
		*r = append(*r, Entry{
			Key:  strings.TrimSpace(keyNode.Value),
			Tech: techstack.Technology{Name: name, Category: cat, Icon: strings.TrimSpace(raw.Icon)},
		})
	}
	return nil
}

// Load parses mapping data and builds the derived indexes.
func Load(data []byte) (*Mappings, error) {
	var raw map[string]rawTable
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode mappings: %w", err)
	}
	m := &Mappings{
		canonical: make(map[string]string),
		byName:    make(map[string]techstack.Technology),
	}
	for e := Ecosystem(0); e < ecosystemCount; e++ {
		entries := raw[ecosystemKeys[e]]
		t := &Table{
			entries: []Entry(entries),
			byKey:   make(map[string]techstack.Technology, len(entries)),
		}
		for _, entry := range entries {
			k := strings.ToLower(entry.Key)
			if _, dup := t.byKey[k]; dup {
				return nil, fmt.Errorf("%s: duplicate key %q", e, entry.Key)
			}
			t.byKey[k] = entry.Tech
		}
		m.tables[e] = t
	}
	m.buildIndexes()
	return m, nil
}

func (m *Mappings) buildIndexes() {
	for _, t := range m.tables {
		for _, entry := range t.entries {
			lower := strings.ToLower(entry.Tech.Name)
			if _, ok := m.canonical[lower]; !ok {
				m.canonical[lower] = entry.Tech.Name
			}
			if _, ok := m.byName[lower]; !ok {
				m.byName[lower] = entry.Tech
			}
		}
	}
	m.known = make([]string, 0, len(m.canonical))
	for lower := range m.canonical {
		m.known = append(m.known, lower)
	}
	sort.Strings(m.known)
}

//go:embed mappings.yaml
var bundled []byte

var (
	defaultOnce sync.Once
	defaultMap  *Mappings
	defaultErr  error
)

// Default returns the bundled mappings, loading them on first use.
func Default() (*Mappings, error) {
	defaultOnce.Do(func() {
		defaultMap, defaultErr = Load(bundled)
	})
	return defaultMap, defaultErr
}

// MustDefault is Default for process start-up; it panics on corrupt bundled data.
func MustDefault() *Mappings {
	m, err := Default()
	if err != nil {
		panic(fmt.Sprintf("mapping: bundled data: %v", err))
	}
	return m
}
