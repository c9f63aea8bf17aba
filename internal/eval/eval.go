package eval

import (
	"fmt"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/evolution"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/personality"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/session"
)

// #region eval-harness
// EvalHarness validates the clamps and structural invariants of a snapshot.
// It runs after every replayed event and before every store commit.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Run checks every invariant and reports pass/fail with metrics.
func (h *EvalHarness) Run(snap session.Snapshot) EvalResult {
	r := &run{tol: h.config.Tolerance}

	// 1. Session scalars
	r.within("instability", snap.Instability, 0, 1)
	r.within("override_intensity", snap.Override.Intensity, 0, 1)
	r.within("override_readout", snap.Override.Readout, 0, snap.Override.Intensity)

	validModes := 0.0
	for _, hist := range snap.History {
		if hist.Mode.Valid() {
			validModes++
		}
	}
	r.check("history_modes", validModes, int(validModes) == len(snap.History))

	// 2. Role aggregate
	if rp := snap.Role; rp != nil {
		r.within("commitment", rp.Commitment, 0, 1)
		r.within("mastery", rp.Mastery, 0, 1)
		r.check("stage", float64(rp.Stage), rp.Stage >= evolution.MinStage && rp.Stage <= evolution.MaxStage)

		if rp.Drift == nil || rp.Drift.Counts == nil {
			r.check("drift_present", 0, false)
		} else {
			r.within("momentum", rp.Drift.Momentum, -1, 1)
			sum := 0
			for _, n := range rp.Drift.Counts {
				sum += n
			}
			r.check("drift_counts", float64(sum), sum == rp.Drift.Total)
		}

		if rp.Personality == nil {
			r.check("personality_present", 0, false)
		} else {
			for _, tr := range personality.Traits() {
				r.within("trait_"+string(tr), rp.Personality.Get(tr), 0, 1)
			}
			r.derived(rp.Personality, personality.FromTraits(rp.Personality.Traits))
		}

		for f, v := range rp.Reputation {
			r.within("reputation_"+string(f), v, -1, 1)
		}
		for area, v := range rp.Knowledge {
			r.within("knowledge_"+area, v, 0, 1)
		}
	}

	// 3. History length: informational only
	if h.config.MaxHistory > 0 {
		r.metrics = append(r.metrics, EvalMetric{
			Name:  "history_length",
			Value: float64(len(snap.History)),
			Pass:  len(snap.History) <= h.config.MaxHistory,
		})
	}

	reason := "all checks passed"
	if len(r.failures) == 1 {
		reason = fmt.Sprintf("eval failed: %s", r.failures[0])
	} else if len(r.failures) > 1 {
		reason = fmt.Sprintf("eval failed: %d checks: %s", len(r.failures), r.failures[0])
	}

	return EvalResult{
		Passed:  len(r.failures) == 0,
		Metrics: r.metrics,
		Reason:  reason,
	}
}

// #endregion eval-harness

// #region helpers
type run struct {
	tol      float64
	metrics  []EvalMetric
	failures []string
}

func (r *run) check(name string, value float64, pass bool) {
	r.metrics = append(r.metrics, EvalMetric{Name: name, Value: value, Pass: pass})
	if !pass {
		r.failures = append(r.failures, fmt.Sprintf("%s=%.4f", name, value))
	}
}

func (r *run) within(name string, value, lo, hi float64) {
	r.check(name, value, value >= lo-r.tol && value <= hi+r.tol)
}

func (r *run) derived(got, want *personality.Profile) {
	r.check("moral_compass", got.MoralCompass, abs(got.MoralCompass-want.MoralCompass) <= r.tol)
	r.check("risk_tolerance", got.RiskTolerance, abs(got.RiskTolerance-want.RiskTolerance) <= r.tol)
	r.check("social_tendency", got.SocialTendency, abs(got.SocialTendency-want.SocialTendency) <= r.tol)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// #endregion helpers
