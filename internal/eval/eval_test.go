package eval

import (
	"testing"
	"time"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/drift"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/personality"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/session"
)

func makeSnapshot(t *testing.T) session.Snapshot {
	t.Helper()
	c := session.New()
	if err := c.AssignProfile(profile.Purifier); err != nil {
		t.Fatalf("assign: %v", err)
	}
	c.ChangeMode(mode.MainTerminal)
	for i := 0; i < 12; i++ {
		c.RecordAction(drift.Action{Kind: drift.KindCommand, Command: "scan", Success: true})
	}
	c.StartOverride(time.Minute, 0.7)
	return c.Snapshot()
}

func findMetric(result EvalResult, name string) (EvalMetric, bool) {
	for _, m := range result.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return EvalMetric{}, false
}

func TestEvalPassesOnLiveSession(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())
	result := h.Run(makeSnapshot(t))

	if !result.Passed {
		t.Fatalf("expected pass, got fail: %s", result.Reason)
	}
	if len(result.Failed()) != 0 {
		t.Fatalf("expected no failed metrics, got %v", result.Failed())
	}
}

func TestEvalPassesOnFreshSession(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())
	result := h.Run(session.New().Snapshot())

	if !result.Passed {
		t.Fatalf("expected pass on fresh session: %s", result.Reason)
	}
	if _, ok := findMetric(result, "commitment"); ok {
		t.Fatal("role checks should be skipped without a profile")
	}
}

func TestEvalFailsOnClampViolations(t *testing.T) {
	tests := []struct {
		name   string
		metric string
		mutate func(*session.Snapshot)
	}{
		{"instability", "instability", func(s *session.Snapshot) { s.Instability = 1.2 }},
		{"momentum", "momentum", func(s *session.Snapshot) { s.Role.Drift.Momentum = -1.5 }},
		{"mastery", "mastery", func(s *session.Snapshot) { s.Role.Mastery = 2 }},
		{"stage", "stage", func(s *session.Snapshot) { s.Role.Stage = 6 }},
		{"trait", "trait_empathy", func(s *session.Snapshot) { s.Role.Personality.Traits[personality.Empathy] = 1.1 }},
		{"reputation", "reputation_resistance", func(s *session.Snapshot) { s.Role.Reputation["resistance"] = -3 }},
		{"drift-counts", "drift_counts", func(s *session.Snapshot) { s.Role.Drift.Total++ }},
		{"derived", "moral_compass", func(s *session.Snapshot) { s.Role.Personality.MoralCompass = 0.9 }},
		{"readout", "override_readout", func(s *session.Snapshot) { s.Override.Readout = 0.95 }},
		{"history", "history_modes", func(s *session.Snapshot) { s.History[0].Mode = "LOBBY" }},
		{"missing-drift", "drift_present", func(s *session.Snapshot) { s.Role.Drift = nil }},
		{"missing-counts", "drift_present", func(s *session.Snapshot) { s.Role.Drift.Counts = nil }},
		{"missing-personality", "personality_present", func(s *session.Snapshot) { s.Role.Personality = nil }},
	}

	h := NewEvalHarness(DefaultEvalConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := makeSnapshot(t)
			tt.mutate(&snap)

			result := h.Run(snap)
			if result.Passed {
				t.Fatal("expected fail")
			}
			m, ok := findMetric(result, tt.metric)
			if !ok {
				t.Fatalf("metric %s missing", tt.metric)
			}
			if m.Pass {
				t.Fatalf("expected %s to fail", tt.metric)
			}
		})
	}
}

func TestEvalHistoryLengthInformationalOnly(t *testing.T) {
	config := DefaultEvalConfig()
	config.MaxHistory = 1
	h := NewEvalHarness(config)

	snap := makeSnapshot(t) // two history entries
	result := h.Run(snap)

	if !result.Passed {
		t.Fatalf("history length should be informational, not blocking: %s", result.Reason)
	}
	m, ok := findMetric(result, "history_length")
	if !ok || m.Pass {
		t.Fatal("history_length metric should show pass=false when above limit")
	}
}

func TestEvalReasonCountsFailures(t *testing.T) {
	h := NewEvalHarness(DefaultEvalConfig())
	snap := makeSnapshot(t)
	snap.Instability = -1
	snap.Role.Commitment = 4

	result := h.Run(snap)
	if result.Passed {
		t.Fatal("expected fail")
	}
	want := "eval failed: 2 checks: instability=-1.0000"
	if result.Reason != want {
		t.Fatalf("reason = %q, want %q", result.Reason, want)
	}
}
