package session

import (
	"sync"
	"time"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/drift"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/gate"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/reputation"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/role"
)

// Guarded serializes every call to a Controller behind one mutex, for hosts
// that poll Tick from a timer while handling input elsewhere.
type Guarded struct {
	mu sync.Mutex
	c  *Controller
}

func NewGuarded(c *Controller) *Guarded {
	return &Guarded{c: c}
}

// Do runs fn with exclusive access to the controller.
func (g *Guarded) Do(fn func(*Controller)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.c)
}

func (g *Guarded) ChangeMode(target mode.Mode) gate.Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.c.ChangeMode(target)
}

func (g *Guarded) AssignProfile(p profile.Profile) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.c.AssignProfile(p)
}

func (g *Guarded) RecordAction(a drift.Action) (role.Outcome, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.c.RecordAction(a)
}

func (g *Guarded) AdjustInstability(delta float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.c.AdjustInstability(delta)
}

func (g *Guarded) UpdateReputation(f reputation.Faction, delta float64) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.c.UpdateReputation(f, delta)
}

func (g *Guarded) StartOverride(d time.Duration, intensity float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.c.StartOverride(d, intensity)
}

func (g *Guarded) Tick() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.c.Tick()
}

func (g *Guarded) Current() mode.Mode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.c.Current()
}

func (g *Guarded) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.c.Snapshot()
}

func (g *Guarded) Restore(s Snapshot) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.c.Restore(s)
}

func (g *Guarded) Summary() Summary {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.c.Summary()
}
