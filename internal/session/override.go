package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/gate"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/override"
)

// #region override
// StartOverride forces the session into the override mode from wherever it
// is, bypassing the transition table. It is a no-op while already active.
func (c *Controller) StartOverride(duration time.Duration, intensity float64) bool {
	if c.dispatching {
		c.log.Warn("override start denied: inside callback")
		return false
	}
	if !c.override.Start(c.clock(), duration, intensity, c.current) {
		return false
	}
	c.log.Info("override started",
		zap.Duration("duration", duration),
		zap.Float64("intensity", c.override.Intensity),
		zap.String("restore", c.override.Restore.String()),
	)
	if c.current != mode.Override {
		c.commit(mode.Override)
	}
	return true
}

// Tick advances the envelope. It ends the override once the duration has
// elapsed and reports whether that happened. Inactive ticks do nothing.
func (c *Controller) Tick() bool {
	if !c.override.Active {
		return false
	}
	if !c.override.Tick(c.clock()) || c.dispatching {
		return false
	}
	c.EndOverride()
	return true
}

// EndOverride clears the envelope and forces the restore mode.
func (c *Controller) EndOverride() gate.Decision {
	if !c.override.Active {
		return gate.Decision{Action: "no_op", From: c.current, To: c.current, Reason: "override inactive"}
	}
	if c.dispatching {
		c.log.Warn("override end denied: inside callback")
		return c.reentrant(c.override.Restore)
	}
	from := c.current
	restore := c.override.End()
	c.log.Info("override ended", zap.String("restore", restore.String()))
	if from != restore {
		c.commit(restore)
	}
	return gate.Forced(from, restore, "override ended")
}

func (c *Controller) OverrideActive() bool { return c.override.Active }

// OverrideIntensity returns the current readout, zero when inactive.
func (c *Controller) OverrideIntensity() float64 { return c.override.Readout }

// OverrideEffects returns a copy of the live effects.
func (c *Controller) OverrideEffects() []override.Effect {
	if len(c.override.Effects) == 0 {
		return nil
	}
	out := make([]override.Effect, len(c.override.Effects))
	copy(out, c.override.Effects)
	return out
}

// Override returns the full envelope state.
func (c *Controller) Override() override.State {
	s := c.override
	s.Effects = c.OverrideEffects()
	return s
}

// #endregion override
