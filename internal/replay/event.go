package replay

import (
	"fmt"
	"time"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/drift"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/logging"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/reputation"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/session"
)

// #region event
// Event is one host input to a session. The same shape is written to the
// journal, loaded from fixtures and applied by the interactive host.
type Event struct {
	ID        string             `json:"id"`
	Kind      logging.Kind       `json:"kind"`
	AdvanceMS int64              `json:"advance_ms,omitempty"` // clock advance before the event applies
	Mode      mode.Mode          `json:"mode,omitempty"`
	Profile   profile.Profile    `json:"profile,omitempty"`
	Action    *drift.Action      `json:"action,omitempty"`
	Faction   reputation.Faction `json:"faction,omitempty"`
	Delta     float64            `json:"delta,omitempty"`
	Value     float64            `json:"value,omitempty"` // instability set, override intensity
	Duration  int64              `json:"duration_ms,omitempty"`
	Key       string             `json:"key,omitempty"`
	Scratch   any                `json:"scratch,omitempty"`
}

// Outcome is what applying one event did to the session.
type Outcome struct {
	Decision string // "commit" | "reject" | "no_op"
	Reason   string
	Err      error
}

// #endregion event

// #region apply
// Apply feeds ev into c and reports the outcome. Clock advancement is the
// caller's concern.
func Apply(c *session.Controller, ev Event) Outcome {
	switch ev.Kind {
	case logging.KindMode:
		d := c.ChangeMode(ev.Mode)
		return Outcome{Decision: d.Action, Reason: d.Reason, Err: d.Err}

	case logging.KindAssign:
		if err := c.AssignProfile(ev.Profile); err != nil {
			return Outcome{Decision: "reject", Reason: err.Error(), Err: err}
		}
		return Outcome{Decision: "commit", Reason: "assigned " + ev.Profile.String()}

	case logging.KindAction:
		if ev.Action == nil {
			return Outcome{Decision: "reject", Reason: "action event without action"}
		}
		out, ok := c.RecordAction(*ev.Action)
		if !ok {
			return Outcome{Decision: "no_op", Reason: "no profile assigned"}
		}
		reason := fmt.Sprintf("label=%s alignment=%s stage=%d", out.Label, out.Alignment, out.Stage)
		if out.Advanced {
			reason += " advanced"
		}
		return Outcome{Decision: "commit", Reason: reason}

	case logging.KindInstability:
		var v float64
		if ev.Delta != 0 {
			v = c.AdjustInstability(ev.Delta)
		} else {
			v = c.SetInstability(ev.Value)
		}
		return Outcome{Decision: "commit", Reason: fmt.Sprintf("instability=%.3f", v)}

	case logging.KindReputation:
		v, err := c.UpdateReputation(ev.Faction, ev.Delta)
		if err != nil {
			return Outcome{Decision: "reject", Reason: err.Error(), Err: err}
		}
		return Outcome{Decision: "commit", Reason: fmt.Sprintf("%s=%.3f %s", ev.Faction, v, reputation.StandingFor(v))}

	case logging.KindOverrideStart:
		if !c.StartOverride(time.Duration(ev.Duration)*time.Millisecond, ev.Value) {
			return Outcome{Decision: "no_op", Reason: "override already active"}
		}
		return Outcome{Decision: "commit", Reason: fmt.Sprintf("override for %dms", ev.Duration)}

	case logging.KindOverrideEnd:
		d := c.EndOverride()
		return Outcome{Decision: d.Action, Reason: d.Reason, Err: d.Err}

	case logging.KindTick:
		if c.Tick() {
			return Outcome{Decision: "commit", Reason: "override expired; restored " + c.Current().String()}
		}
		return Outcome{Decision: "no_op", Reason: fmt.Sprintf("readout=%.3f", c.OverrideIntensity())}

	case logging.KindScratchSet:
		c.SetScratch(ev.Key, ev.Scratch)
		return Outcome{Decision: "commit", Reason: "set " + ev.Key}

	case logging.KindScratchDelete:
		c.DeleteScratch(ev.Key)
		return Outcome{Decision: "commit", Reason: "deleted " + ev.Key}

	case logging.KindScratchClear:
		c.ClearScratch()
		return Outcome{Decision: "commit", Reason: "scratch cleared"}
	}
	return Outcome{Decision: "reject", Reason: fmt.Sprintf("unknown event kind %q", ev.Kind)}
}

// #endregion apply
