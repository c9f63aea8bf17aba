package drift

// #region action-kind
// ActionKind tells the classifier which matcher to use.
type ActionKind string

const (
	KindCommand  ActionKind = "command"
	KindDialogue ActionKind = "dialogue"
)

// #endregion action-kind

// #region action
// Action is one raw action event submitted by a collaborator.
type Action struct {
	Kind       ActionKind `json:"kind"`
	Command    string     `json:"command,omitempty"`     // command-style actions
	ChoiceType string     `json:"choice_type,omitempty"` // dialogue-style actions
	Difficulty float64    `json:"difficulty,omitempty"`  // mastery multiplier; 0 means 1.0
	Success    bool       `json:"success,omitempty"`
	Area       string     `json:"area,omitempty"` // optional knowledge area exercised
}

// DifficultyMultiplier returns the effective difficulty, defaulting to 1.0.
func (a Action) DifficultyMultiplier() float64 {
	if a.Difficulty <= 0 {
		return 1.0
	}
	return a.Difficulty
}

// #endregion action

// #region alignment
// Alignment summarizes how closely recent actions match the assigned profile.
type Alignment string

const (
	Pure       Alignment = "PURE"
	Moderate   Alignment = "MODERATE"
	Conflicted Alignment = "CONFLICTED"
	Drifting   Alignment = "DRIFTING"
	Hybrid     Alignment = "HYBRID"
)

// #endregion alignment

// #region thresholds
const (
	momentumStep     = 0.1
	lowAlignment     = 40.0
	highAlignment    = 70.0
	moderateFloor    = 50.0
	hybridFloor      = 30.0
	evenSplitPercent = 100.0 / 3.0
)

// #endregion thresholds
