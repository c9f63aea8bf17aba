package session

import (
	"go.uber.org/zap"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
)

// #region phase
// Phase says whether a callback runs on leaving or entering a mode.
type Phase string

const (
	PhaseExit  Phase = "exit"
	PhaseEnter Phase = "enter"
)

// Callback observes a committed transition. Returned errors and panics are
// captured as *CallbackError and never abort the transition.
type Callback func(from, to mode.Mode) error

// #endregion phase

// #region registry
type registry struct {
	enter map[mode.Mode][]Callback
	exit  map[mode.Mode][]Callback
}

func newRegistry() registry {
	return registry{
		enter: make(map[mode.Mode][]Callback),
		exit:  make(map[mode.Mode][]Callback),
	}
}

func (r registry) add(phase Phase, m mode.Mode, cb Callback) {
	switch phase {
	case PhaseEnter:
		r.enter[m] = append(r.enter[m], cb)
	case PhaseExit:
		r.exit[m] = append(r.exit[m], cb)
	}
}

func (r registry) list(phase Phase, m mode.Mode) []Callback {
	if phase == PhaseEnter {
		return r.enter[m]
	}
	return r.exit[m]
}

// #endregion registry

// #region dispatch
// OnEnter registers cb to run after the session enters m.
func (c *Controller) OnEnter(m mode.Mode, cb Callback) {
	c.callbacks.add(PhaseEnter, m, cb)
}

// OnExit registers cb to run before the session leaves m.
func (c *Controller) OnExit(m mode.Mode, cb Callback) {
	c.callbacks.add(PhaseExit, m, cb)
}

// dispatch runs every callback for (phase, m) in registration order. Each
// runs in isolation; failures are collected and logged.
func (c *Controller) dispatch(phase Phase, m, from, to mode.Mode) []*CallbackError {
	var failures []*CallbackError
	for i, cb := range c.callbacks.list(phase, m) {
		if cerr := c.invoke(phase, m, i, cb, from, to); cerr != nil {
			c.log.Error("callback failed",
				zap.String("phase", string(phase)),
				zap.String("mode", m.String()),
				zap.Int("index", i),
				zap.Error(cerr),
			)
			failures = append(failures, cerr)
		}
	}
	return failures
}

func (c *Controller) invoke(phase Phase, m mode.Mode, i int, cb Callback, from, to mode.Mode) (cerr *CallbackError) {
	defer func() {
		if r := recover(); r != nil {
			cerr = &CallbackError{Phase: phase, Mode: m, Index: i, Panic: r}
		}
	}()
	if err := cb(from, to); err != nil {
		return &CallbackError{Phase: phase, Mode: m, Index: i, Err: err}
	}
	return nil
}

// #endregion dispatch
