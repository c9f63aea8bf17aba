package evolution

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
)

func TestGain(t *testing.T) {
	assert.InDelta(t, 0.02, Gain(1, false), 1e-12)
	assert.InDelta(t, 0.03, Gain(1, true), 1e-12)
	assert.InDelta(t, 0.09, Gain(3, true), 1e-12)
}

func TestNextAdvancesOneStage(t *testing.T) {
	// Scores that clear stage 5 still only move 1 -> 2.
	got, ok := Next(1, 1.0, 1.0)
	assert.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestNextRequiresBothThresholds(t *testing.T) {
	tests := []struct {
		name       string
		stage      int
		mastery    float64
		commitment float64
		want       int
		advanced   bool
	}{
		{"mastery-short", 1, 0.19, 0.9, 1, false},
		{"commitment-short", 1, 0.5, 0.39, 1, false},
		{"exact", 1, 0.20, 0.40, 2, true},
		{"stage3", 2, 0.40, 0.55, 3, true},
		{"stage4-short", 3, 0.59, 0.70, 3, false},
		{"stage5", 4, 0.85, 0.85, 5, true},
		{"capped", 5, 1.0, 1.0, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Next(tt.stage, tt.mastery, tt.commitment)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.advanced, ok)
		})
	}
}

func TestAbilities(t *testing.T) {
	for _, p := range profile.All() {
		for s := MinStage; s <= MaxStage; s++ {
			assert.NotEmpty(t, Abilities(p, s), "%s stage %d", p, s)
		}
	}
	assert.Nil(t, Abilities(profile.None, 1))
	assert.Nil(t, Abilities(profile.Arbiter, 0))
	assert.Nil(t, Abilities(profile.Arbiter, 6))
}

func TestAbilitiesReturnsCopy(t *testing.T) {
	a := Abilities(profile.Purifier, 4)
	a[0] = "tampered"
	assert.NotEqual(t, "tampered", Abilities(profile.Purifier, 4)[0])
}

func TestUnion(t *testing.T) {
	got := Union([]string{"b", "a"}, []string{"c", "a"})
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestThresholdFor(t *testing.T) {
	_, ok := ThresholdFor(1)
	assert.False(t, ok)
	th, ok := ThresholdFor(4)
	assert.True(t, ok)
	assert.Equal(t, Threshold{Mastery: 0.60, Commitment: 0.70}, th)
}
