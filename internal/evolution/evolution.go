// Package evolution holds the mastery ladder: how mastery accrues and which
// abilities each stage unlocks per profile.
package evolution

import (
	"slices"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
)

// #region constants
const (
	MinStage = 1
	MaxStage = 5

	baseGain     = 0.02
	successBonus = 1.5
)

// Threshold is the (mastery, commitment) pair required to enter a stage.
type Threshold struct {
	Mastery    float64
	Commitment float64
}

var thresholds = map[int]Threshold{
	2: {Mastery: 0.20, Commitment: 0.40},
	3: {Mastery: 0.40, Commitment: 0.55},
	4: {Mastery: 0.60, Commitment: 0.70},
	5: {Mastery: 0.85, Commitment: 0.85},
}

// ThresholdFor returns the entry threshold for stage. Stage 1 has none.
func ThresholdFor(stage int) (Threshold, bool) {
	t, ok := thresholds[stage]
	return t, ok
}

// #endregion constants

// #region abilities
var abilities = map[profile.Profile][MaxStage][]string{
	profile.Purifier: {
		{"scourge_resistance"},
		{"system_restore"},
		{"quarantine_field"},
		{"purge_protocol", "integrity_shield"},
		{"cleansing_light"},
	},
	profile.Arbiter: {
		{"data_synthesis"},
		{"deep_trace"},
		{"pattern_recognition"},
		{"mediation_protocol", "archive_access"},
		{"balance_of_power"},
	},
	profile.Ascendant: {
		{"corruption_control"},
		{"code_injection"},
		{"system_dominion"},
		{"scourge_channeling", "neural_override"},
		{"digital_ascension"},
	},
}

// Abilities returns the abilities the given stage unlocks for p.
func Abilities(p profile.Profile, stage int) []string {
	if stage < MinStage || stage > MaxStage {
		return nil
	}
	set, ok := abilities[p]
	if !ok {
		return nil
	}
	return slices.Clone(set[stage-1])
}

// #endregion abilities

// #region ladder
// Gain returns the mastery increase for one matching action.
func Gain(difficulty float64, success bool) float64 {
	g := baseGain * difficulty
	if success {
		g *= successBonus
	}
	return g
}

// Next reports whether a profile at stage with the given scores advances,
// and to which stage. Only one stage is ever crossed per check.
func Next(stage int, mastery, commitment float64) (int, bool) {
	if stage >= MaxStage {
		return stage, false
	}
	t := thresholds[stage+1]
	if mastery >= t.Mastery && commitment >= t.Commitment {
		return stage + 1, true
	}
	return stage, false
}

// Union merges add into have, keeping the result sorted and unique.
func Union(have, add []string) []string {
	out := slices.Clone(have)
	for _, a := range add {
		if !slices.Contains(out, a) {
			out = append(out, a)
		}
	}
	slices.Sort(out)
	return out
}

// #endregion ladder
