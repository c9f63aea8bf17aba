package mode

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
)

// #region rules-file
// RulesFile is the YAML overlay applied on top of DefaultTable.
//
//	modes:
//	  MSFCONSOLE:
//	    ceiling: 0.6
//	  SAVE_MENU:
//	    targets: [MAIN_TERMINAL, SCOURGE_TAKEOVER, SAVE_MENU]
type RulesFile struct {
	Modes map[string]ModeOverlay `yaml:"modes"`
}

// ModeOverlay overrides individual fields of a mode's rule. Nil fields keep
// the base value.
type ModeOverlay struct {
	RequiresProfile *bool    `yaml:"requires_profile"`
	Restrict        *string  `yaml:"restrict"`
	Ceiling         *float64 `yaml:"ceiling"`
	SkillGated      *bool    `yaml:"skill_gated"`
	Tunable         *bool    `yaml:"tunable"`
	Targets         []string `yaml:"targets"`
}

// #endregion rules-file

// #region load
// LoadTable reads a YAML overlay and applies it to DefaultTable.
// An empty path returns DefaultTable unchanged.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table rules %s: %w", path, err)
	}
	return ApplyRules(DefaultTable(), data)
}

// ApplyRules parses a YAML overlay and returns a new table with it applied.
// base is not modified.
func ApplyRules(base *Table, data []byte) (*Table, error) {
	var f RulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse table rules: %w", err)
	}

	edges := base.Edges()
	rules := base.Rules()
	for name, overlay := range f.Modes {
		m, err := Parse(name)
		if err != nil {
			return nil, fmt.Errorf("table rules: %w", err)
		}
		r := base.Rule(m)
		if overlay.RequiresProfile != nil {
			r.RequiresProfile = *overlay.RequiresProfile
		}
		if overlay.Restrict != nil {
			r.Restrict = profile.None
			if *overlay.Restrict != "" {
				p, err := profile.Parse(*overlay.Restrict)
				if err != nil {
					return nil, fmt.Errorf("table rules %s: %w", m, err)
				}
				r.Restrict = p
			}
		}
		if overlay.Ceiling != nil {
			r.Ceiling = *overlay.Ceiling
		}
		if overlay.SkillGated != nil {
			r.SkillGated = *overlay.SkillGated
		}
		if overlay.Tunable != nil {
			r.Tunable = *overlay.Tunable
		}
		rules[m] = r

		if overlay.Targets != nil {
			targets := make([]Mode, 0, len(overlay.Targets))
			for _, tn := range overlay.Targets {
				to, err := Parse(tn)
				if err != nil {
					return nil, fmt.Errorf("table rules %s targets: %w", m, err)
				}
				targets = append(targets, to)
			}
			edges[m] = targets
		}
	}
	return NewTable(edges, rules)
}

// #endregion load
