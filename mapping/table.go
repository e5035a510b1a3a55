// Package mapping compiles a loaded config.Config into the table the
// engine matches gesture events against, and implements first-match-wins
// lookup (spec §4.D). Compile and Match are pure: neither touches a device,
// a clock beyond what the caller passes in, or global state.
package mapping

import "github.com/amiable-dev/midimon/config"

// ModeTable is one mode's mappings, kept in declaration order.
type ModeTable struct {
	Name     string
	Mappings []config.Mapping
}

// Table is the compiled, immutable mapping document. A Table is never
// mutated after Compile returns it; a reload produces a new Table and the
// engine atomically swaps its pointer (spec §4.D, §4.G).
type Table struct {
	Modes  []ModeTable
	Global []config.Mapping
}

// Compile builds a Table from a validated Config. It does not re-validate;
// callers are expected to have run config.Validate first.
func Compile(cfg *config.Config) *Table {
	t := &Table{
		Modes:  make([]ModeTable, len(cfg.Modes)),
		Global: append([]config.Mapping(nil), cfg.Global...),
	}
	for i, m := range cfg.Modes {
		t.Modes[i] = ModeTable{Name: m.Name, Mappings: append([]config.Mapping(nil), m.Mappings...)}
	}
	return t
}

// ModeIndex returns the index of the mode named name, or -1 if no mode has
// that name. Used by the engine to resolve set_mode-by-name IPC requests.
func (t *Table) ModeIndex(name string) int {
	for i, m := range t.Modes {
		if m.Name == name {
			return i
		}
	}
	return -1
}

// ModeName returns the name of the mode at index, or "" if index is out of
// range (e.g. before any mode has been compiled in).
func (t *Table) ModeName(index int) string {
	if index >= 0 && index < len(t.Modes) {
		return t.Modes[index].Name
	}
	return ""
}

// ClampMode returns activeMode if it is a valid index into t.Modes, or 0
// otherwise — the reload-time "preserve active mode, else clamp to 0" rule
// (spec §4.G, scenario S5).
func (t *Table) ClampMode(activeMode int) int {
	if activeMode >= 0 && activeMode < len(t.Modes) {
		return activeMode
	}
	return 0
}
