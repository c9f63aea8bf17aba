package session

import (
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/role"
)

// Summary is the read-only view of the session handed to collaborators
// that decide narrative content.
type Summary struct {
	Mode            mode.Mode       `json:"mode"`
	Previous        mode.Mode       `json:"previous"`
	Profile         profile.Profile `json:"profile"`
	Instability     float64         `json:"instability"`
	OverrideActive  bool            `json:"override_active"`
	OverrideReadout float64         `json:"override_readout"`
	Role            *role.Summary   `json:"role,omitempty"`
}

// Summary builds a detached summary of the session.
func (c *Controller) Summary() Summary {
	s := Summary{
		Mode:            c.current,
		Previous:        c.previous,
		Profile:         c.profile,
		Instability:     c.instability,
		OverrideActive:  c.override.Active,
		OverrideReadout: c.override.Readout,
	}
	if c.role != nil {
		rs := c.role.Summarize()
		s.Role = &rs
	}
	return s
}
