package session

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/override"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/role"
)

// #region snapshot
// Snapshot is the persistable state of a session. Callbacks and live
// override effects are runtime-only and excluded.
type Snapshot struct {
	Current     mode.Mode          `json:"current"`
	Previous    mode.Mode          `json:"previous"`
	Profile     profile.Profile    `json:"profile"`
	Instability float64            `json:"instability"`
	Attributes  profile.Attributes `json:"attributes"`
	Role        *role.Profile      `json:"role,omitempty"`
	History     []HistoryEntry     `json:"history"`
	Scratch     map[string]any     `json:"scratch"`
	StartedAt   time.Time          `json:"started_at"`
	Override    override.State     `json:"override"`
}

// Snapshot captures a detached copy of the session.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Current:     c.current,
		Previous:    c.previous,
		Profile:     c.profile,
		Instability: c.instability,
		Attributes:  c.attrs.Clone(),
		Role:        c.Role(),
		History:     slices.Clone(c.history),
		Scratch:     maps.Clone(c.scratch),
		StartedAt:   c.startedAt,
		Override:    c.override,
	}
	s.Override.Effects = nil
	if s.History == nil {
		s.History = []HistoryEntry{}
	}
	return s
}

// Restore replaces the session state with s. Registered callbacks survive;
// none are run. Live override effects are rebuilt from the stored envelope.
func (c *Controller) Restore(s Snapshot) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	c.current = s.Current
	c.previous = s.Previous
	c.profile = s.Profile
	c.instability = s.Instability
	c.attrs = s.Attributes.Clone()
	c.role = nil
	if s.Role != nil {
		c.role = s.Role.Clone()
	}
	c.history = slices.Clone(s.History)
	c.scratch = maps.Clone(s.Scratch)
	if c.scratch == nil {
		c.scratch = make(map[string]any)
	}
	c.startedAt = s.StartedAt
	c.override = s.Override
	c.override.Rehydrate()
	c.lastFailed = nil

	c.log.Info("session restored",
		zap.String("mode", c.current.String()),
		zap.Stringer("profile", c.profile),
		zap.Int("history", len(c.history)),
	)
	return nil
}

// Validate checks the structural invariants a restorable snapshot must hold.
func (s Snapshot) Validate() error {
	if !s.Current.Valid() {
		return fmt.Errorf("current mode %q: %w", s.Current, ErrInvalidSnapshot)
	}
	if !s.Previous.Valid() {
		return fmt.Errorf("previous mode %q: %w", s.Previous, ErrInvalidSnapshot)
	}
	if s.Profile != profile.None && !s.Profile.Valid() {
		return fmt.Errorf("profile %q: %w", s.Profile, ErrInvalidSnapshot)
	}
	if s.Instability < 0 || s.Instability > 1 {
		return fmt.Errorf("instability %v out of range: %w", s.Instability, ErrInvalidSnapshot)
	}
	if (s.Role == nil) != (s.Profile == profile.None) {
		return fmt.Errorf("role aggregate does not match profile %s: %w", s.Profile, ErrInvalidSnapshot)
	}
	if s.Role != nil && s.Role.Profile != s.Profile {
		return fmt.Errorf("role profile %s != %s: %w", s.Role.Profile, s.Profile, ErrInvalidSnapshot)
	}
	if s.Role != nil && (s.Role.Drift == nil || s.Role.Drift.Counts == nil) {
		return fmt.Errorf("role drift tracker missing: %w", ErrInvalidSnapshot)
	}
	if s.Role != nil && s.Role.Personality == nil {
		return fmt.Errorf("role personality missing: %w", ErrInvalidSnapshot)
	}
	for i, h := range s.History {
		if !h.Mode.Valid() {
			return fmt.Errorf("history[%d] mode %q: %w", i, h.Mode, ErrInvalidSnapshot)
		}
	}
	return nil
}

// #endregion snapshot
