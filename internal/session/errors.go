package session

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/gate"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
)

// #region errors
var (
	ErrUnknownMode      = gate.ErrUnknownMode
	ErrTransitionDenied = gate.ErrTransitionDenied

	// ErrUnknownProfile is returned by AssignProfile for non-members.
	ErrUnknownProfile = errors.New("unknown profile")
	// ErrNoProfile is returned by operations that need an assigned profile.
	ErrNoProfile = errors.New("no profile assigned")
	// ErrReentrantTransition denies transitions requested from inside a callback.
	ErrReentrantTransition = fmt.Errorf("re-entrant transition: %w", gate.ErrTransitionDenied)
	// ErrInvalidSnapshot is returned by Restore for snapshots that break invariants.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// #endregion errors

// #region callback-error
// CallbackError records one failed enter or exit callback. It is logged and
// swallowed; the transition it belongs to is never rolled back.
type CallbackError struct {
	Phase Phase
	Mode  mode.Mode
	Index int
	Err   error
	Panic any
}

func (e *CallbackError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("%s callback %d for %s panicked: %v", e.Phase, e.Index, e.Mode, e.Panic)
	}
	return fmt.Sprintf("%s callback %d for %s: %v", e.Phase, e.Index, e.Mode, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

// #endregion callback-error
