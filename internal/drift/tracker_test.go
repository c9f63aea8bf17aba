package drift

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
)

func sumPercentages(tr *Tracker) float64 {
	var sum float64
	for _, v := range tr.Percentages() {
		sum += v
	}
	return sum
}

func TestEmptyTrackerEvenSplit(t *testing.T) {
	tr := NewTracker()
	for _, p := range profile.All() {
		assert.InDelta(t, 33.3, tr.Percentage(p), 0.05)
	}
	assert.InDelta(t, 100, sumPercentages(tr), 1e-9)
}

func TestRecordIgnoresInvalidLabel(t *testing.T) {
	tr := NewTracker()
	tr.Record(profile.None)
	tr.Record("ROGUE")
	assert.Equal(t, 0, tr.Total)
}

func TestPercentagesSumTo100(t *testing.T) {
	tr := NewTracker()
	rng := rand.New(rand.NewPCG(1, 2))
	all := profile.All()
	for i := 0; i < 500; i++ {
		tr.Record(all[rng.IntN(len(all))])
		require.InDelta(t, 100, sumPercentages(tr), 1e-6)
	}
}

func TestMomentumDirection(t *testing.T) {
	tr := NewTracker()
	tr.Record(profile.Purifier)
	tr.UpdateMomentum(profile.Purifier)
	assert.InDelta(t, 0.1, tr.Momentum, 1e-9)

	tr.Record(profile.Arbiter)
	tr.UpdateMomentum(profile.Purifier) // 50%: unchanged
	assert.InDelta(t, 0.1, tr.Momentum, 1e-9)

	tr.Record(profile.Arbiter)
	tr.UpdateMomentum(profile.Purifier) // 33%: down
	assert.InDelta(t, 0.0, tr.Momentum, 1e-9)
}

func TestMomentumClamped(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 50; i++ {
		tr.Record(profile.Ascendant)
		tr.UpdateMomentum(profile.Purifier)
		require.GreaterOrEqual(t, tr.Momentum, -1.0)
	}
	assert.InDelta(t, -1.0, tr.Momentum, 1e-9)

	for i := 0; i < 500; i++ {
		tr.Record(profile.Purifier)
		tr.UpdateMomentum(profile.Purifier)
		require.LessOrEqual(t, tr.Momentum, 1.0)
	}
	assert.InDelta(t, 1.0, tr.Momentum, 1e-9)
}

func TestClassifyAlignment(t *testing.T) {
	tests := []struct {
		name   string
		counts map[profile.Profile]int
		want   Alignment
	}{
		{"pure", map[profile.Profile]int{profile.Purifier: 8, profile.Arbiter: 1, profile.Ascendant: 1}, Pure},
		{"moderate", map[profile.Profile]int{profile.Purifier: 6, profile.Arbiter: 2, profile.Ascendant: 2}, Moderate},
		{"conflicted", map[profile.Profile]int{profile.Purifier: 45, profile.Arbiter: 28, profile.Ascendant: 27}, Conflicted},
		{"hybrid", map[profile.Profile]int{profile.Purifier: 5, profile.Arbiter: 4, profile.Ascendant: 1}, Hybrid},
		{"drifting", map[profile.Profile]int{profile.Purifier: 2, profile.Arbiter: 7, profile.Ascendant: 1}, Drifting},
		{"drifting-overrides-hybrid", map[profile.Profile]int{profile.Purifier: 35, profile.Arbiter: 35, profile.Ascendant: 30}, Drifting},
		{"empty-is-drifting", map[profile.Profile]int{}, Drifting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			for p, n := range tt.counts {
				for i := 0; i < n; i++ {
					tr.Record(p)
				}
			}
			assert.Equal(t, tt.want, tr.ClassifyAlignment(profile.Purifier))
		})
	}
}

func TestTrackerClone(t *testing.T) {
	tr := NewTracker()
	tr.Record(profile.Arbiter)
	c := tr.Clone()
	c.Record(profile.Arbiter)

	assert.Equal(t, 1, tr.Counts[profile.Arbiter])
	assert.Equal(t, 2, c.Counts[profile.Arbiter])
}
