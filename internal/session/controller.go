// Package session owns one interactive session: its current mode, assigned
// profile, instability, history and scratch data, plus the role aggregate
// and override envelope that accrue to it.
package session

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/drift"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/gate"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/override"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/reputation"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/role"
)

// RequiredSkillKey is the scratch key holding the hacking skill a puzzle demands.
const RequiredSkillKey = "required_skill"

// MaxInstabilityKey is the scratch key that replaces the instability ceiling
// of tunable modes.
const MaxInstabilityKey = "max_corruption"

// #region types
// HistoryEntry records a mode that was left and when.
type HistoryEntry struct {
	Mode mode.Mode `json:"mode"`
	At   time.Time `json:"at"`
}

// Controller is the session core. It is not safe for concurrent use; see Guarded.
type Controller struct {
	log   *zap.Logger
	clock func() time.Time
	gate  *gate.Gate

	current     mode.Mode
	previous    mode.Mode
	profile     profile.Profile
	instability float64
	attrs       profile.Attributes
	role        *role.Profile
	history     []HistoryEntry
	scratch     map[string]any
	startedAt   time.Time
	override    override.State

	callbacks   registry
	dispatching bool
	lastFailed  []*CallbackError
}

// #endregion types

// #region options
// Option configures a Controller.
type Option func(*Controller)

// WithLogger injects the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock replaces time.Now, mainly for replay and tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithTable replaces the default transition table.
func WithTable(t *mode.Table) Option {
	return func(c *Controller) {
		if t != nil {
			c.gate = gate.NewGate(t)
		}
	}
}

// #endregion options

// New creates a session in the initial mode with no profile.
func New(opts ...Option) *Controller {
	c := &Controller{
		log:       zap.NewNop(),
		clock:     time.Now,
		gate:      gate.NewGate(mode.DefaultTable()),
		current:   mode.Initial,
		previous:  mode.Initial,
		scratch:   make(map[string]any),
		callbacks: newRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.startedAt = c.clock()
	return c
}

// #region getters
// Current returns the active mode.
func (c *Controller) Current() mode.Mode { return c.current }

// Previous returns the mode left by the last commit.
func (c *Controller) Previous() mode.Mode { return c.previous }

func (c *Controller) IsMode(m mode.Mode) bool { return c.current == m }

// Profile returns the assigned profile, or profile.None.
func (c *Controller) Profile() profile.Profile { return c.profile }

func (c *Controller) Instability() float64 { return c.instability }

// StartedAt is when the session was created.
func (c *Controller) StartedAt() time.Time { return c.startedAt }

// Table returns the transition table the gate validates against.
func (c *Controller) Table() *mode.Table { return c.gate.Table() }

// Attributes returns a copy of the attribute map.
func (c *Controller) Attributes() profile.Attributes { return c.attrs.Clone() }

// Attribute looks up one attribute by name.
func (c *Controller) Attribute(name string) (any, bool) {
	return c.attrs.Get(name)
}

// Role returns a copy of the role aggregate, or nil before assignment.
func (c *Controller) Role() *role.Profile {
	if c.role == nil {
		return nil
	}
	return c.role.Clone()
}

// History returns a copy of the transition history.
func (c *Controller) History() []HistoryEntry {
	return slices.Clone(c.history)
}

// CallbackErrors returns the callback failures of the most recent commit.
func (c *Controller) CallbackErrors() []*CallbackError {
	return slices.Clone(c.lastFailed)
}

// #endregion getters

// #region transitions
func (c *Controller) request(target mode.Mode) gate.Request {
	req := gate.Request{
		Current:       c.current,
		Target:        target,
		Profile:       c.profile,
		Instability:   c.instability,
		HackingSkill:  c.attrs.HackingSkill,
		RequiredSkill: c.scratchNumber(RequiredSkillKey),
	}
	if _, ok := c.scratch[MaxInstabilityKey]; ok {
		ceiling := c.scratchNumber(MaxInstabilityKey)
		req.MaxInstability = &ceiling
	}
	return req
}

// scratchNumber reads a numeric scratch value; anything else counts as 0.
func (c *Controller) scratchNumber(key string) float64 {
	switch v := c.scratch[key].(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	}
	return 0
}

// Evaluate judges a transition to target without committing it.
func (c *Controller) Evaluate(target mode.Mode) gate.Decision {
	return c.gate.Evaluate(c.request(target))
}

// CanTransition reports whether ChangeMode(target) would commit.
func (c *Controller) CanTransition(target mode.Mode) bool {
	return !c.dispatching && c.Evaluate(target).Committed()
}

// ChangeMode validates and commits a transition. A denied decision leaves
// the session untouched.
func (c *Controller) ChangeMode(target mode.Mode) gate.Decision {
	if c.dispatching {
		return c.reentrant(target)
	}
	d := c.Evaluate(target)
	if !d.Committed() {
		c.log.Warn("transition denied",
			zap.String("from", c.current.String()),
			zap.String("to", target.String()),
			zap.String("reason", d.Reason),
		)
		return d
	}
	c.commit(target)
	return d
}

func (c *Controller) reentrant(target mode.Mode) gate.Decision {
	req := c.request(target)
	d := gate.Reject(req, gate.VetoSignal{
		Type:   gate.VetoReentrant,
		Reason: "transition requested from inside a callback",
	})
	d.Err = fmt.Errorf("%s -> %s: %w", req.Current, req.Target, ErrReentrantTransition)
	c.log.Warn("transition denied",
		zap.String("from", c.current.String()),
		zap.String("to", target.String()),
		zap.String("reason", d.Reason),
	)
	return d
}

// commit appends history, runs exit then enter callbacks and swaps modes.
// Callers have already validated or deliberately bypassed the gate.
func (c *Controller) commit(target mode.Mode) {
	from := c.current
	c.history = append(c.history, HistoryEntry{Mode: from, At: c.clock()})

	c.dispatching = true
	defer func() { c.dispatching = false }()

	failed := c.dispatch(PhaseExit, from, from, target)
	c.previous = from
	c.current = target
	failed = append(failed, c.dispatch(PhaseEnter, target, from, target)...)
	c.lastFailed = failed

	c.log.Info("mode changed",
		zap.String("from", from.String()),
		zap.String("to", target.String()),
		zap.Int("callback_failures", len(failed)),
	)
}

// TimeInMode sums every stint spent in m, including the current one.
func (c *Controller) TimeInMode(m mode.Mode) time.Duration {
	var total time.Duration
	start := c.startedAt
	for _, h := range c.history {
		if h.Mode == m {
			total += h.At.Sub(start)
		}
		start = h.At
	}
	if c.current == m {
		total += c.clock().Sub(start)
	}
	return total
}

// #endregion transitions

// #region profile
// AssignProfile replaces the attributes and role aggregate wholesale.
func (c *Controller) AssignProfile(p profile.Profile) error {
	if !p.Valid() {
		c.log.Warn("profile rejected", zap.String("profile", string(p)))
		return fmt.Errorf("assign %q: %w", p, ErrUnknownProfile)
	}
	c.profile = p
	c.attrs = profile.Template(p)
	c.role = role.New(p)
	c.log.Info("profile assigned", zap.Stringer("profile", p))
	return nil
}

// RecordAction routes an action through the classifier into the role
// aggregate. It reports false, changing nothing, before assignment.
func (c *Controller) RecordAction(a drift.Action) (role.Outcome, bool) {
	if c.role == nil {
		c.log.Warn("action ignored: no profile", zap.String("kind", string(a.Kind)))
		return role.Outcome{}, false
	}
	out := c.role.Record(a)
	c.log.Debug("action recorded",
		zap.String("kind", string(a.Kind)),
		zap.Stringer("label", out.Label),
		zap.Bool("matched", out.Matched),
		zap.String("alignment", string(out.Alignment)),
	)
	if out.Advanced {
		c.log.Info("stage advanced", zap.Stringer("profile", c.profile), zap.Int("stage", out.Stage))
	}
	return out, true
}

// UpdateReputation shifts one faction's standing.
func (c *Controller) UpdateReputation(f reputation.Faction, delta float64) (float64, error) {
	if c.role == nil {
		return 0, fmt.Errorf("update reputation %s: %w", f, ErrNoProfile)
	}
	v, err := c.role.Reputation.Update(f, delta)
	if err != nil {
		return 0, err
	}
	c.log.Debug("reputation updated", zap.String("faction", string(f)), zap.Float64("value", v))
	return v, nil
}

// #endregion profile

// #region instability
// AdjustInstability adds delta and clamps to [0, 1].
func (c *Controller) AdjustInstability(delta float64) float64 {
	return c.SetInstability(c.instability + delta)
}

// SetInstability sets the metric, clamped to [0, 1].
func (c *Controller) SetInstability(v float64) float64 {
	c.instability = max(0, min(1, v))
	return c.instability
}

// #endregion instability

// #region scratch
func (c *Controller) SetScratch(key string, v any) { c.scratch[key] = v }

func (c *Controller) Scratch(key string) (any, bool) {
	v, ok := c.scratch[key]
	return v, ok
}

func (c *Controller) DeleteScratch(key string) { delete(c.scratch, key) }

// ClearScratch drops every scratch entry. Nothing else clears scratch.
func (c *Controller) ClearScratch() { clear(c.scratch) }

// ScratchKeys returns the scratch keys sorted.
func (c *Controller) ScratchKeys() []string {
	return slices.Sorted(maps.Keys(c.scratch))
}

// #endregion scratch
