package drift

import "github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"

// #region tracker
// Tracker counts classified actions per profile and keeps a momentum scalar.
type Tracker struct {
	Counts   map[profile.Profile]int `json:"counts"`
	Total    int                     `json:"total"`
	Momentum float64                 `json:"momentum"` // [-1, 1]
}

// NewTracker returns a tracker with zeroed counters for every profile.
func NewTracker() *Tracker {
	counts := make(map[profile.Profile]int, 3)
	for _, p := range profile.All() {
		counts[p] = 0
	}
	return &Tracker{Counts: counts}
}

// Record counts one action classified as label.
func (t *Tracker) Record(label profile.Profile) {
	if !label.Valid() {
		return
	}
	t.Counts[label]++
	t.Total++
}

// Percentage returns p's share of all classified actions, 0–100.
func (t *Tracker) Percentage(p profile.Profile) float64 {
	if t.Total == 0 {
		return evenSplitPercent
	}
	return float64(t.Counts[p]) / float64(t.Total) * 100
}

// Percentages returns every profile's share, summing to 100.
func (t *Tracker) Percentages() map[profile.Profile]float64 {
	out := make(map[profile.Profile]float64, 3)
	for _, p := range profile.All() {
		out[p] = t.Percentage(p)
	}
	return out
}

// UpdateMomentum nudges momentum by how strongly own dominates.
func (t *Tracker) UpdateMomentum(own profile.Profile) {
	pct := t.Percentage(own)
	switch {
	case pct < lowAlignment:
		t.Momentum -= momentumStep
	case pct > highAlignment:
		t.Momentum += momentumStep
	}
	t.Momentum = clamp(t.Momentum, -1, 1)
}

// Clone returns a deep copy.
func (t *Tracker) Clone() *Tracker {
	c := &Tracker{
		Counts:   make(map[profile.Profile]int, len(t.Counts)),
		Total:    t.Total,
		Momentum: t.Momentum,
	}
	for p, n := range t.Counts {
		c.Counts[p] = n
	}
	return c
}

// #endregion tracker

// #region alignment
// ClassifyAlignment derives the alignment label for own from the tracker.
func (t *Tracker) ClassifyAlignment(own profile.Profile) Alignment {
	pcts := t.Percentages()

	above := 0
	for _, pct := range pcts {
		if pct > hybridFloor {
			above++
		}
	}

	ownPct := pcts[own]
	var a Alignment
	switch {
	case above >= 2:
		a = Hybrid
	case ownPct > highAlignment:
		a = Pure
	case ownPct > moderateFloor:
		a = Moderate
	default:
		a = Conflicted
	}
	if ownPct < lowAlignment {
		a = Drifting
	}
	return a
}

// #endregion alignment

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
