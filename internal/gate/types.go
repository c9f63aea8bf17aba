package gate

import (
	"errors"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
)

// #region errors
var (
	// ErrUnknownMode means the target is not a member of the enumeration at all.
	ErrUnknownMode = errors.New("unknown mode")
	// ErrTransitionDenied means the target exists but may not be entered now.
	ErrTransitionDenied = errors.New("transition denied")
)

// #endregion errors

// #region veto-type
// VetoType enumerates the reasons a transition can be denied.
type VetoType string

const (
	VetoUnknownMode       VetoType = "unknown_mode"
	VetoUnreachable       VetoType = "unreachable"
	VetoProfileRequired   VetoType = "profile_required"
	VetoProfileRestricted VetoType = "profile_restricted"
	VetoInstability       VetoType = "instability_ceiling"
	VetoSkill             VetoType = "insufficient_skill"
	VetoReentrant         VetoType = "reentrant"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents one failed entry check.
type VetoSignal struct {
	Type   VetoType
	Reason string
}

// #endregion veto-signal

// #region request
// Request carries everything the validator needs to judge one transition.
type Request struct {
	Current       mode.Mode
	Target        mode.Mode
	Profile       profile.Profile
	Instability   float64
	HackingSkill  int
	RequiredSkill float64

	// MaxInstability replaces the ceiling of tunable modes when set.
	MaxInstability *float64
}

// #endregion request

// #region gate-decision
// Decision is the output of the gate evaluation. A rejected decision is an
// expected outcome, not a failure of the caller.
type Decision struct {
	Action      string // "commit" | "reject"
	From        mode.Mode
	To          mode.Mode
	Reason      string
	Vetoed      bool
	VetoSignals []VetoSignal // non-empty if vetoed
	Headroom    float64      // ceiling minus instability, for logging
	Err         error        // wraps ErrUnknownMode or ErrTransitionDenied when vetoed
}

// Committed reports whether the transition was allowed.
func (d Decision) Committed() bool {
	return d.Action == "commit"
}

// Has reports whether the decision carries a veto of type v.
func (d Decision) Has(v VetoType) bool {
	for _, s := range d.VetoSignals {
		if s.Type == v {
			return true
		}
	}
	return false
}

// #endregion gate-decision
