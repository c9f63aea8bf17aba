package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/eval"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/logging"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	Config          FixtureConfig           `json:"config"`
	Events          []Event                 `json:"events"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureExpectedResult captures the expected action, and optionally the
// resulting mode, per event.
type FixtureExpectedResult struct {
	EventID string    `json:"event_id"`
	Action  string    `json:"action"`
	Mode    mode.Mode `json:"mode,omitempty"`
}

// FixtureConfig bundles the sub-configs for a replay run.
type FixtureConfig struct {
	StartTime  time.Time         `json:"start_time"`
	Rules      string            `json:"rules,omitempty"` // YAML table overlay
	EvalConfig FixtureEvalConfig `json:"eval_config"`
}

// FixtureEvalConfig mirrors eval.EvalConfig with JSON tags.
type FixtureEvalConfig struct {
	Tolerance  float64 `json:"tolerance"`
	MaxHistory int     `json:"max_history"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ToReplayConfig converts a FixtureConfig to a domain ReplayConfig. Zero
// values fall back to DefaultReplayConfig.
func (fc *FixtureConfig) ToReplayConfig() (ReplayConfig, error) {
	cfg := DefaultReplayConfig()
	if !fc.StartTime.IsZero() {
		cfg.Start = fc.StartTime
	}
	if fc.Rules != "" {
		t, err := mode.ApplyRules(cfg.Table, []byte(fc.Rules))
		if err != nil {
			return ReplayConfig{}, fmt.Errorf("fixture rules: %w", err)
		}
		cfg.Table = t
	}
	if fc.EvalConfig != (FixtureEvalConfig{}) {
		cfg.EvalConfig = eval.EvalConfig{
			Tolerance:  fc.EvalConfig.Tolerance,
			MaxHistory: fc.EvalConfig.MaxHistory,
		}
	}
	return cfg, nil
}

// #endregion fixture-loader

// #region fixture-export

// FromJournal rebuilds a fixture from a session's journal. The recorded
// decisions become the expected results; save rows are skipped.
func FromJournal(description string, entries []logging.JournalEntry) (*Fixture, error) {
	f := &Fixture{Description: description}
	var last time.Time
	for i, e := range entries {
		if e.Kind == logging.KindSave {
			continue
		}
		var ev Event
		if e.PayloadJSON != "" {
			if err := json.Unmarshal([]byte(e.PayloadJSON), &ev); err != nil {
				return nil, fmt.Errorf("journal row %d: %w", e.ID, err)
			}
		}
		ev.Kind = e.Kind
		if ev.ID == "" {
			ev.ID = fmt.Sprintf("e%d", i+1)
		}
		if last.IsZero() {
			f.Config.StartTime = e.CreatedAt
		} else if gap := e.CreatedAt.Sub(last); gap > 0 {
			ev.AdvanceMS = gap.Milliseconds()
		}
		last = e.CreatedAt

		f.Events = append(f.Events, ev)
		f.ExpectedResults = append(f.ExpectedResults, FixtureExpectedResult{
			EventID: ev.ID,
			Action:  e.Decision,
		})
	}
	return f, nil
}

// #endregion fixture-export
