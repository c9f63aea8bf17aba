package replay

import (
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/eval"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/logging"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/session"
)

// #region types
// ReplayConfig bundles the table, eval config and start time for a replay run.
type ReplayConfig struct {
	Table      *mode.Table
	EvalConfig eval.EvalConfig
	Start      time.Time
	Logger     *zap.Logger
}

// DefaultReplayConfig returns the standard table and eval defaults.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{
		Table:      mode.DefaultTable(),
		EvalConfig: eval.DefaultEvalConfig(),
		Start:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// ReplayResult captures the outcome of replaying one event.
type ReplayResult struct {
	EventID string
	Kind    logging.Kind
	Action  string // "commit" | "reject" | "no_op" | "eval_fail"
	Reason  string
	Mode    mode.Mode // current mode after the event

	EvalResult eval.EvalResult
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalEvents  int
	Commits      int
	Rejects      int
	NoOps        int
	EvalFailures int
	FinalMode    mode.Mode
	FinalProfile profile.Profile
	Final        session.Summary
}

// #endregion types

// #region clock
type fixtureClock struct{ now time.Time }

func (f *fixtureClock) Now() time.Time          { return f.now }
func (f *fixtureClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

// #endregion clock

// #region replay
// Replay runs events through a fresh session on a fixture clock, validating
// the snapshot after each one. Operates entirely in-memory.
func Replay(events []Event, config ReplayConfig) ([]ReplayResult, *session.Controller) {
	clk := &fixtureClock{now: config.Start}
	opts := []session.Option{session.WithClock(clk.Now)}
	if config.Table != nil {
		opts = append(opts, session.WithTable(config.Table))
	}
	if config.Logger != nil {
		opts = append(opts, session.WithLogger(config.Logger))
	}
	c := session.New(opts...)
	harness := eval.NewEvalHarness(config.EvalConfig)

	results := make([]ReplayResult, 0, len(events))
	for _, ev := range events {
		clk.Advance(time.Duration(ev.AdvanceMS) * time.Millisecond)

		// 1. Apply
		out := Apply(c, ev)

		// 2. Eval
		evalResult := harness.Run(c.Snapshot())
		r := ReplayResult{
			EventID:    ev.ID,
			Kind:       ev.Kind,
			Action:     out.Decision,
			Reason:     out.Reason,
			Mode:       c.Current(),
			EvalResult: evalResult,
		}
		if !evalResult.Passed {
			r.Action = "eval_fail"
			r.Reason = evalResult.Reason
		}
		results = append(results, r)
	}
	return results, c
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult, final *session.Controller) ReplaySummary {
	s := ReplaySummary{
		TotalEvents:  len(results),
		FinalMode:    final.Current(),
		FinalProfile: final.Profile(),
		Final:        final.Summary(),
	}
	for _, r := range results {
		switch r.Action {
		case "commit":
			s.Commits++
		case "reject":
			s.Rejects++
		case "no_op":
			s.NoOps++
		case "eval_fail":
			s.EvalFailures++
		}
	}
	return s
}

// #endregion replay
