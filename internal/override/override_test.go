package override

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestEnvelope(t *testing.T) {
	tests := []struct {
		progress float64
		want     float64
	}{
		{0, 0},
		{0.25, 0.4},
		{0.5, 0.8},
		{0.75, 0.4},
		{1, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Envelope(0.8, tt.progress), 1e-12, "progress %v", tt.progress)
	}
}

func TestStartClampsAndPopulates(t *testing.T) {
	var s State
	require.True(t, s.Start(t0, 10*time.Second, 1.7, mode.MainTerminal))

	assert.True(t, s.Active)
	assert.Equal(t, 1.0, s.Intensity)
	assert.Len(t, s.Effects, 7)
	assert.Len(t, s.EffectsByChannel(Visual), 4)
	assert.Len(t, s.EffectsByChannel(Audio), 3)
}

func TestStartWhileActiveIsNoop(t *testing.T) {
	var s State
	s.Start(t0, 10*time.Second, 0.5, mode.MainTerminal)
	assert.False(t, s.Start(t0.Add(time.Second), time.Minute, 0.9, mode.SaveMenu))
	assert.Equal(t, 10*time.Second, s.Duration)
	assert.Equal(t, mode.MainTerminal, s.Restore)
}

func TestTickScalesEffects(t *testing.T) {
	var s State
	s.Start(t0, 10*time.Second, 1.0, mode.MainTerminal)

	expired := s.Tick(t0.Add(5 * time.Second))
	assert.False(t, expired)
	assert.InDelta(t, 1.0, s.Readout, 1e-12)
	for _, e := range s.Effects {
		assert.InDelta(t, e.Weight, e.Intensity, 1e-12, e.Name)
	}

	s.Tick(t0.Add(2500 * time.Millisecond))
	for _, e := range s.Effects {
		if e.Name == "text_corruption" {
			assert.InDelta(t, 0.5, e.Intensity, 1e-12)
		}
	}
}

func TestReadoutBoundedByIntensity(t *testing.T) {
	var s State
	s.Start(t0, 7*time.Second, 0.6, mode.Minigame)
	for ms := 0; ms <= 7000; ms += 137 {
		s.Tick(t0.Add(time.Duration(ms) * time.Millisecond))
		require.GreaterOrEqual(t, s.Readout, 0.0)
		require.LessOrEqual(t, s.Readout, 0.6+1e-12)
	}
}

func TestTickExpires(t *testing.T) {
	var s State
	s.Start(t0, 2*time.Second, 0.5, mode.MainTerminal)
	assert.True(t, s.Tick(t0.Add(2*time.Second)))
	assert.Zero(t, s.Readout)
}

func TestTickInactive(t *testing.T) {
	var s State
	assert.False(t, s.Tick(t0))
	assert.Empty(t, s.Effects)
}

func TestEndRestores(t *testing.T) {
	var s State
	s.Start(t0, time.Second, 0.5, mode.PuzzleActive)
	assert.Equal(t, mode.PuzzleActive, s.End())
	assert.False(t, s.Active)
	assert.Zero(t, s.Intensity)
	assert.Zero(t, s.Readout)
	assert.Empty(t, s.Effects)
}

func TestEndFallsBack(t *testing.T) {
	var s State
	s.Start(t0, time.Second, 0.5, mode.Override)
	assert.Equal(t, mode.Fallback, s.End())

	var empty State
	assert.Equal(t, mode.Fallback, empty.End())
}

func TestZeroDurationIsFullyProgressed(t *testing.T) {
	var s State
	s.Start(t0, 0, 0.5, mode.MainTerminal)
	assert.True(t, s.Tick(t0))
}

func TestRehydrate(t *testing.T) {
	var s State
	s.Start(t0, 10*time.Second, 1.0, mode.MainTerminal)
	s.Tick(t0.Add(5 * time.Second))
	want := s.Effects
	s.Effects = nil

	s.Rehydrate()
	assert.Equal(t, want, s.Effects)

	var idle State
	idle.Effects = []Effect{{Name: "stale"}}
	idle.Rehydrate()
	assert.Nil(t, idle.Effects)
}
