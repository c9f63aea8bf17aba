// Package override models the timed takeover envelope: intensity rises to a
// peak at the midpoint and falls back to zero, scaling a fixed set of effects.
package override

import (
	"math"
	"time"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
)

// #region effects
// Channel separates effects by the collaborator that renders them.
type Channel string

const (
	Visual Channel = "visual"
	Audio  Channel = "audio"
)

// Effect is one live effect scaled by the current readout.
type Effect struct {
	Name      string  `json:"name"`
	Channel   Channel `json:"channel"`
	Weight    float64 `json:"weight"`
	Intensity float64 `json:"intensity"`
}

var catalog = []Effect{
	{Name: "screen_shake", Channel: Visual, Weight: 0.5},
	{Name: "text_corruption", Channel: Visual, Weight: 1.0},
	{Name: "color_shift", Channel: Visual, Weight: 0.7},
	{Name: "glitch", Channel: Visual, Weight: 0.8},
	{Name: "static", Channel: Audio, Weight: 0.6},
	{Name: "whisper", Channel: Audio, Weight: 0.4},
	{Name: "ambient", Channel: Audio, Weight: 0.3},
}

// #endregion effects

// #region state
// State is the serializable override envelope. Effects are derived and
// rebuilt from the envelope on restore.
type State struct {
	Active    bool          `json:"active"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Intensity float64       `json:"intensity"`
	Readout   float64       `json:"readout"`
	Restore   mode.Mode     `json:"restore"`
	Effects   []Effect      `json:"-"`
}

// Start arms the envelope. It is a no-op returning false when already active.
func (s *State) Start(now time.Time, duration time.Duration, intensity float64, restore mode.Mode) bool {
	if s.Active {
		return false
	}
	s.Active = true
	s.StartedAt = now
	s.Duration = duration
	s.Intensity = max(0, min(1, intensity))
	s.Readout = 0
	s.Restore = restore
	s.rebuild()
	return true
}

// Progress returns elapsed/duration clamped to [0, 1].
func (s *State) Progress(now time.Time) float64 {
	if s.Duration <= 0 {
		return 1
	}
	p := float64(now.Sub(s.StartedAt)) / float64(s.Duration)
	return max(0, min(1, p))
}

// Tick recomputes the readout and effect intensities for now. It reports
// whether the envelope has run its full duration.
func (s *State) Tick(now time.Time) (expired bool) {
	if !s.Active {
		return false
	}
	s.Readout = Envelope(s.Intensity, s.Progress(now))
	for i := range s.Effects {
		s.Effects[i].Intensity = s.Readout * s.Effects[i].Weight
	}
	return now.Sub(s.StartedAt) >= s.Duration
}

// End clears the envelope and returns the mode to restore.
func (s *State) End() mode.Mode {
	restore := s.Restore
	*s = State{}
	if !restore.Valid() || restore == mode.Override {
		restore = mode.Fallback
	}
	return restore
}

// Rehydrate rebuilds live effects from the stored readout after a restore.
func (s *State) Rehydrate() {
	if !s.Active {
		s.Effects = nil
		return
	}
	s.rebuild()
	for i := range s.Effects {
		s.Effects[i].Intensity = s.Readout * s.Effects[i].Weight
	}
}

func (s *State) rebuild() {
	s.Effects = make([]Effect, len(catalog))
	copy(s.Effects, catalog)
}

// EffectsByChannel returns the live effects rendered on c.
func (s *State) EffectsByChannel(c Channel) []Effect {
	var out []Effect
	for _, e := range s.Effects {
		if e.Channel == c {
			out = append(out, e)
		}
	}
	return out
}

// #endregion state

// Envelope is the triangular readout: intensity at the midpoint, zero at both ends.
func Envelope(intensity, progress float64) float64 {
	return intensity * (1 - math.Abs(2*progress-1))
}
