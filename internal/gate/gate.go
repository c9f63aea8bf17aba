package gate

import (
	"fmt"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
)

// #region gate
// Gate decides whether a requested mode change may be committed.
// It is a pure predicate over the table and the request.
type Gate struct {
	table *mode.Table
}

// NewGate creates a gate over the given transition table.
func NewGate(table *mode.Table) *Gate {
	return &Gate{table: table}
}

// Table returns the table the gate evaluates against.
func (g *Gate) Table() *mode.Table {
	return g.table
}

// Evaluate runs every entry check and collects all failures.
func (g *Gate) Evaluate(req Request) Decision {
	if !req.Target.Valid() {
		return Reject(req, VetoSignal{
			Type:   VetoUnknownMode,
			Reason: fmt.Sprintf("mode %q is not defined", req.Target),
		})
	}

	rule := g.table.Rule(req.Target)
	var vetoes []VetoSignal

	// 1. Adjacency
	if !g.table.Reachable(req.Current, req.Target) {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoUnreachable,
			Reason: fmt.Sprintf("%s is not reachable from %s", req.Target, req.Current),
		})
	}

	// 2. Profile requirement and restriction
	if rule.RequiresProfile && req.Profile == profile.None {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoProfileRequired,
			Reason: fmt.Sprintf("%s requires an assigned profile", req.Target),
		})
	}
	if rule.Restrict != profile.None && req.Profile != rule.Restrict {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoProfileRestricted,
			Reason: fmt.Sprintf("only %s may enter %s", rule.Restrict, req.Target),
		})
	}

	// 3. Skill gate
	if rule.SkillGated && float64(req.HackingSkill) < req.RequiredSkill {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoSkill,
			Reason: fmt.Sprintf("hacking skill %d below required %g", req.HackingSkill, req.RequiredSkill),
		})
	}

	// 4. Instability ceiling
	ceiling := rule.Ceiling
	if rule.Tunable && req.MaxInstability != nil {
		ceiling = min(max(*req.MaxInstability, 0), 1)
	}
	if req.Instability > ceiling {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoInstability,
			Reason: fmt.Sprintf("instability %.3f exceeds ceiling %.3f", req.Instability, ceiling),
		})
	}

	headroom := ceiling - req.Instability
	if len(vetoes) > 0 {
		d := Reject(req, vetoes...)
		d.Headroom = headroom
		return d
	}

	return Decision{
		Action:   "commit",
		From:     req.Current,
		To:       req.Target,
		Reason:   fmt.Sprintf("passed gate: headroom=%.3f", headroom),
		Headroom: headroom,
	}
}

// #endregion gate

// #region reject
// Reject builds a vetoed decision. The first veto supplies the reason; an
// unknown-mode veto maps to ErrUnknownMode, everything else to ErrTransitionDenied.
func Reject(req Request, vetoes ...VetoSignal) Decision {
	sentinel := ErrTransitionDenied
	if len(vetoes) > 0 && vetoes[0].Type == VetoUnknownMode {
		sentinel = ErrUnknownMode
	}
	reason := "rejected"
	if len(vetoes) > 0 {
		reason = "hard veto: " + vetoes[0].Reason
	}
	return Decision{
		Action:      "reject",
		From:        req.Current,
		To:          req.Target,
		Reason:      reason,
		Vetoed:      true,
		VetoSignals: vetoes,
		Err:         fmt.Errorf("%s -> %s: %w", req.Current, req.Target, sentinel),
	}
}

// Forced builds a committed decision for transitions that bypass the gate.
func Forced(from, to mode.Mode, reason string) Decision {
	return Decision{
		Action: "commit",
		From:   from,
		To:     to,
		Reason: reason,
	}
}

// #endregion reject
