package eval

// #region eval-config
// EvalConfig holds tolerances for snapshot validation.
type EvalConfig struct {
	Tolerance  float64 // slack allowed on float clamps and derived values
	MaxHistory int     // warn if history grows past this; 0 disables
}

// DefaultEvalConfig returns the defaults used by replay and the host loop.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		Tolerance:  1e-9,
		MaxHistory: 10000,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single invariant check.
type EvalMetric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Pass  bool    `json:"pass"`
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of one validation run.
type EvalResult struct {
	Passed  bool         `json:"passed"`
	Metrics []EvalMetric `json:"metrics"`
	Reason  string       `json:"reason"`
}

// Failed returns the names of the checks that did not pass, informational
// ones included.
func (r EvalResult) Failed() []string {
	var out []string
	for _, m := range r.Metrics {
		if !m.Pass {
			out = append(out, m.Name)
		}
	}
	return out
}

// #endregion eval-result
