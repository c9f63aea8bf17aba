package mode

import (
	"fmt"
	"maps"
	"slices"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
)

// #region rule
// Rule holds the per-mode entry requirements.
type Rule struct {
	RequiresProfile bool            // a profile must be assigned
	Restrict        profile.Profile // only this profile may enter; None = any
	Ceiling         float64         // max instability allowed on entry
	SkillGated      bool            // hacking_skill must meet the required_skill scratch value
	Tunable         bool            // the max_corruption scratch value replaces Ceiling
}

// DefaultRule is applied to modes without an explicit rule.
func DefaultRule() Rule {
	return Rule{Ceiling: 1.0}
}

// #endregion rule

// #region table
// Table is the static adjacency graph over modes plus per-mode rules.
// Absence of an edge means "not reachable".
type Table struct {
	edges map[Mode]map[Mode]struct{}
	rules map[Mode]Rule
}

// NewTable builds a table from an adjacency list and rule set.
// Every mode named anywhere must be a member of the enumeration.
func NewTable(edges map[Mode][]Mode, rules map[Mode]Rule) (*Table, error) {
	t := &Table{
		edges: make(map[Mode]map[Mode]struct{}, len(edges)),
		rules: make(map[Mode]Rule, len(rules)),
	}
	for from, targets := range edges {
		if !from.Valid() {
			return nil, fmt.Errorf("table source: unknown mode %q", from)
		}
		set := make(map[Mode]struct{}, len(targets))
		for _, to := range targets {
			if !to.Valid() {
				return nil, fmt.Errorf("table edge %s: unknown mode %q", from, to)
			}
			set[to] = struct{}{}
		}
		t.edges[from] = set
	}
	for m, r := range rules {
		if !m.Valid() {
			return nil, fmt.Errorf("table rule: unknown mode %q", m)
		}
		if r.Ceiling < 0 || r.Ceiling > 1 {
			return nil, fmt.Errorf("table rule %s: ceiling %.3f outside [0,1]", m, r.Ceiling)
		}
		if r.Restrict != profile.None && !r.Restrict.Valid() {
			return nil, fmt.Errorf("table rule %s: unknown profile %q", m, r.Restrict)
		}
		t.rules[m] = r
	}
	return t, nil
}

// DefaultTable returns the standard session adjacency graph.
func DefaultTable() *Table {
	returnable := []Mode{MainTerminal, ScourgeTakeover}
	edges := map[Mode][]Mode{
		Disclaimer:    {RoleSelection, MainTerminal},
		RoleSelection: {MainTerminal},
		MainTerminal: {
			MSFConsole, PuzzleActive, NarrativeScreen, SaveMenu, LLMOutput, ScourgeTakeover,
		},
		MSFConsole:      returnable,
		PuzzleActive:    returnable,
		NarrativeScreen: returnable,
		SaveMenu:        returnable,
		LLMOutput:       returnable,
		Minigame:        returnable,
		ScourgeTakeover: {
			MainTerminal, MSFConsole, PuzzleActive, NarrativeScreen, SaveMenu, LLMOutput, Minigame,
		},
	}
	gated := Rule{RequiresProfile: true, Ceiling: 1.0}
	rules := map[Mode]Rule{
		MainTerminal:    gated,
		NarrativeScreen: gated,
		SaveMenu:        gated,
		LLMOutput:       gated,
		Minigame:        gated,
		MSFConsole:      {RequiresProfile: true, Restrict: profile.Ascendant, Ceiling: 0.8, Tunable: true},
		PuzzleActive:    {RequiresProfile: true, Ceiling: 0.9, SkillGated: true, Tunable: true},
	}
	t, err := NewTable(edges, rules)
	if err != nil {
		panic(err)
	}
	return t
}

// Reachable reports whether to is listed as a target of from.
func (t *Table) Reachable(from, to Mode) bool {
	_, ok := t.edges[from][to]
	return ok
}

// Targets returns the modes reachable from m in declaration order.
func (t *Table) Targets(m Mode) []Mode {
	var out []Mode
	for _, candidate := range All() {
		if t.Reachable(m, candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

// Rule returns the entry rule for m, or DefaultRule if none is declared.
func (t *Table) Rule(m Mode) Rule {
	if r, ok := t.rules[m]; ok {
		return r
	}
	return DefaultRule()
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{
		edges: make(map[Mode]map[Mode]struct{}, len(t.edges)),
		rules: maps.Clone(t.rules),
	}
	for from, set := range t.edges {
		c.edges[from] = maps.Clone(set)
	}
	return c
}

// Edges returns the adjacency list, targets sorted by declaration order.
func (t *Table) Edges() map[Mode][]Mode {
	out := make(map[Mode][]Mode, len(t.edges))
	for from := range t.edges {
		out[from] = t.Targets(from)
	}
	return out
}

// Rules returns a copy of the explicitly declared rules.
func (t *Table) Rules() map[Mode]Rule {
	return maps.Clone(t.rules)
}

// Sources returns every mode with at least one outgoing edge, sorted.
func (t *Table) Sources() []Mode {
	out := slices.Collect(maps.Keys(t.edges))
	slices.Sort(out)
	return out
}

// #endregion table
