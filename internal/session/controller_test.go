package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/drift"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/gate"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/personality"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/reputation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// #region helpers
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestController(t *testing.T, opts ...Option) (*Controller, *fakeClock) {
	t.Helper()
	clk := newFakeClock()
	return New(append([]Option{WithClock(clk.Now)}, opts...)...), clk
}

// inMode builds a session already sitting in m with profile p.
func inMode(t *testing.T, m mode.Mode, p profile.Profile) *Controller {
	t.Helper()
	c, _ := newTestController(t)
	if p != profile.None {
		require.NoError(t, c.AssignProfile(p))
	}
	s := c.Snapshot()
	s.Current = m
	require.NoError(t, c.Restore(s))
	return c
}

// #endregion helpers

func TestNewSession(t *testing.T) {
	c, clk := newTestController(t)

	assert.Equal(t, mode.Disclaimer, c.Current())
	assert.True(t, c.IsMode(mode.Disclaimer))
	assert.Equal(t, profile.None, c.Profile())
	assert.Zero(t, c.Instability())
	assert.Empty(t, c.History())
	assert.Nil(t, c.Role())
	assert.Equal(t, clk.Now(), c.StartedAt())
}

func TestProfileGatedScenario(t *testing.T) {
	c, _ := newTestController(t)

	d := c.ChangeMode(mode.MainTerminal)
	assert.False(t, d.Committed())
	assert.True(t, d.Has(gate.VetoProfileRequired))
	assert.ErrorIs(t, d.Err, ErrTransitionDenied)
	assert.Equal(t, mode.Disclaimer, c.Current())
	assert.Empty(t, c.History())

	require.NoError(t, c.AssignProfile(profile.Purifier))

	d = c.ChangeMode(mode.MainTerminal)
	require.True(t, d.Committed(), d.Reason)
	assert.Equal(t, mode.MainTerminal, c.Current())
	assert.Equal(t, mode.Disclaimer, c.Previous())
	require.Len(t, c.History(), 1)
	assert.Equal(t, mode.Disclaimer, c.History()[0].Mode)
}

func TestUnknownMode(t *testing.T) {
	c, _ := newTestController(t)
	d := c.ChangeMode("BOGUS")
	assert.False(t, d.Committed())
	assert.ErrorIs(t, d.Err, ErrUnknownMode)
	assert.NotErrorIs(t, d.Err, ErrTransitionDenied)
}

func TestChangeModePredicate(t *testing.T) {
	table := mode.DefaultTable()
	profiles := append([]profile.Profile{profile.None}, profile.All()...)
	instabilities := []float64{0, 0.5, 0.85, 0.95, 1.0}

	for _, from := range mode.All() {
		for _, to := range mode.All() {
			for _, p := range profiles {
				for _, inst := range instabilities {
					rule := table.Rule(to)
					want := table.Reachable(from, to) &&
						(!rule.RequiresProfile || p != profile.None) &&
						(rule.Restrict == profile.None || rule.Restrict == p) &&
						inst <= rule.Ceiling

					c := inMode(t, from, p)
					c.SetInstability(inst)
					name := fmt.Sprintf("%s->%s/%s/%.2f", from, to, p, inst)
					require.Equal(t, want, c.CanTransition(to), name)

					d := c.ChangeMode(to)
					require.Equal(t, want, d.Committed(), name)
					if want {
						require.Equal(t, to, c.Current(), name)
					} else {
						require.Equal(t, from, c.Current(), name)
						require.Empty(t, c.History(), name)
					}
				}
			}
		}
	}
}

func TestMSFConsoleRestrictedToAscendant(t *testing.T) {
	c := inMode(t, mode.MainTerminal, profile.Purifier)
	d := c.ChangeMode(mode.MSFConsole)
	assert.True(t, d.Has(gate.VetoProfileRestricted))

	c = inMode(t, mode.MainTerminal, profile.Ascendant)
	c.SetInstability(0.85)
	d = c.ChangeMode(mode.MSFConsole)
	assert.True(t, d.Has(gate.VetoInstability))

	c.SetInstability(0.8)
	assert.True(t, c.ChangeMode(mode.MSFConsole).Committed())
}

func TestPuzzleSkillGate(t *testing.T) {
	c := inMode(t, mode.MainTerminal, profile.Arbiter)
	skill := profile.Template(profile.Arbiter).HackingSkill

	c.SetScratch(RequiredSkillKey, skill+1)
	d := c.ChangeMode(mode.PuzzleActive)
	assert.True(t, d.Has(gate.VetoSkill))

	c.SetScratch(RequiredSkillKey, float64(skill)+0.5)
	d = c.ChangeMode(mode.PuzzleActive)
	assert.True(t, d.Has(gate.VetoSkill), d.Reason)
	assert.Equal(t, mode.MainTerminal, c.Current())

	c.SetScratch(RequiredSkillKey, float64(skill))
	assert.True(t, c.ChangeMode(mode.PuzzleActive).Committed())
}

func TestMaxInstabilityScratchOverridesCeiling(t *testing.T) {
	c := inMode(t, mode.MainTerminal, profile.Ascendant)
	c.SetInstability(0.95)
	assert.True(t, c.ChangeMode(mode.MSFConsole).Has(gate.VetoInstability))

	c.SetScratch(MaxInstabilityKey, 1.0)
	assert.True(t, c.CanTransition(mode.MSFConsole))

	c.SetScratch(MaxInstabilityKey, 0.5)
	assert.False(t, c.CanTransition(mode.MSFConsole))
	assert.True(t, c.CanTransition(mode.SaveMenu))

	c.DeleteScratch(MaxInstabilityKey)
	c.SetInstability(0.7)
	assert.True(t, c.ChangeMode(mode.MSFConsole).Committed())
}

func TestSelfTransitionMustBeListed(t *testing.T) {
	c := inMode(t, mode.SaveMenu, profile.Arbiter)
	assert.False(t, c.ChangeMode(mode.SaveMenu).Committed())

	table, err := mode.ApplyRules(mode.DefaultTable(), []byte(`
modes:
  SAVE_MENU:
    targets: [MAIN_TERMINAL, SCOURGE_TAKEOVER, SAVE_MENU]
`))
	require.NoError(t, err)

	c2, _ := newTestController(t, WithTable(table))
	require.NoError(t, c2.AssignProfile(profile.Arbiter))
	require.True(t, c2.ChangeMode(mode.MainTerminal).Committed())
	require.True(t, c2.ChangeMode(mode.SaveMenu).Committed())

	d := c2.ChangeMode(mode.SaveMenu)
	require.True(t, d.Committed())
	assert.Equal(t, mode.SaveMenu, c2.Previous())
	assert.Len(t, c2.History(), 3)
}

func TestCallbacksRunInOrderAndAreIsolated(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	c, _ := newTestController(t, WithLogger(zap.New(core)))
	require.NoError(t, c.AssignProfile(profile.Purifier))

	var calls []string
	c.OnExit(mode.Disclaimer, func(from, to mode.Mode) error {
		calls = append(calls, "exit-1")
		panic("boom")
	})
	c.OnExit(mode.Disclaimer, func(from, to mode.Mode) error {
		calls = append(calls, "exit-2")
		return errors.New("exit failed")
	})
	c.OnExit(mode.Disclaimer, func(from, to mode.Mode) error {
		calls = append(calls, "exit-3")
		assert.Equal(t, mode.Disclaimer, c.Current())
		return nil
	})
	c.OnEnter(mode.MainTerminal, func(from, to mode.Mode) error {
		calls = append(calls, "enter-1")
		assert.Equal(t, mode.MainTerminal, c.Current())
		assert.Equal(t, mode.Disclaimer, from)
		return nil
	})

	d := c.ChangeMode(mode.MainTerminal)
	require.True(t, d.Committed())
	assert.Equal(t, []string{"exit-1", "exit-2", "exit-3", "enter-1"}, calls)
	assert.Equal(t, mode.MainTerminal, c.Current())

	failures := c.CallbackErrors()
	require.Len(t, failures, 2)
	assert.Equal(t, "boom", failures[0].Panic)
	assert.Equal(t, PhaseExit, failures[1].Phase)

	var cerr *CallbackError
	require.ErrorAs(t, error(failures[1]), &cerr)
	assert.EqualError(t, errors.Unwrap(cerr), "exit failed")
	assert.Equal(t, 2, logs.FilterMessage("callback failed").Len())
}

func TestReentrantTransitionDenied(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c, _ := newTestController(t, WithLogger(zap.New(core)))
	require.NoError(t, c.AssignProfile(profile.Arbiter))

	var nested gate.Decision
	var canNest bool
	c.OnEnter(mode.MainTerminal, func(from, to mode.Mode) error {
		canNest = c.CanTransition(mode.SaveMenu)
		nested = c.ChangeMode(mode.SaveMenu)
		return nil
	})

	require.True(t, c.ChangeMode(mode.MainTerminal).Committed())
	assert.False(t, canNest)
	assert.False(t, nested.Committed())
	assert.True(t, nested.Has(gate.VetoReentrant))
	assert.ErrorIs(t, nested.Err, ErrReentrantTransition)
	assert.ErrorIs(t, nested.Err, ErrTransitionDenied)
	assert.Equal(t, mode.MainTerminal, c.Current())
	assert.Len(t, c.History(), 1)

	entries := logs.FilterMessage("transition denied").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["reason"], "inside a callback")
}

func TestDenialLoggedWithReason(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	c, _ := newTestController(t, WithLogger(zap.New(core)))

	c.ChangeMode(mode.SaveMenu)

	denied := logs.FilterMessage("transition denied").All()
	require.Len(t, denied, 1)
	assert.Equal(t, zapcore.WarnLevel, denied[0].Level)
	assert.Equal(t, "SAVE_MENU", denied[0].ContextMap()["to"])
	assert.NotEmpty(t, denied[0].ContextMap()["reason"])
	assert.Zero(t, logs.FilterMessage("mode changed").Len())
}

func TestAssignProfileFullyReplaces(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.AssignProfile(profile.Purifier))

	for i := 0; i < 20; i++ {
		c.RecordAction(drift.Action{Kind: drift.KindCommand, Command: "scan", Success: true, Area: "system_integrity"})
	}
	_, err := c.UpdateReputation(reputation.Resistance, 0.7)
	require.NoError(t, err)
	require.Greater(t, c.Role().Stage, 1)

	require.NoError(t, c.AssignProfile(profile.Arbiter))
	r := c.Role()
	assert.Equal(t, profile.Arbiter, r.Profile)
	assert.Equal(t, 0.5, r.Commitment)
	assert.Zero(t, r.Mastery)
	assert.Equal(t, 1, r.Stage)
	assert.Equal(t, []string{"data_synthesis"}, r.Abilities)
	assert.Zero(t, r.Drift.Total)
	assert.Zero(t, r.Drift.Momentum)
	assert.Zero(t, r.Reputation[reputation.Resistance])
	assert.NotContains(t, r.Knowledge, "system_integrity")
	assert.Equal(t, 0.5, r.Personality.Get(personality.Integrity))
	assert.Equal(t, profile.Template(profile.Arbiter), c.Attributes())
}

func TestAssignUnknownProfile(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.AssignProfile(profile.Ascendant))

	err := c.AssignProfile("ROGUE")
	assert.ErrorIs(t, err, ErrUnknownProfile)
	assert.Equal(t, profile.Ascendant, c.Profile())

	assert.ErrorIs(t, c.AssignProfile(profile.None), ErrUnknownProfile)
}

func TestRecordActionBeforeAssignment(t *testing.T) {
	c, _ := newTestController(t)
	_, ok := c.RecordAction(drift.Action{Kind: drift.KindCommand, Command: "scan"})
	assert.False(t, ok)
	assert.Nil(t, c.Role())

	_, err := c.UpdateReputation(reputation.Collective, 0.1)
	assert.ErrorIs(t, err, ErrNoProfile)
}

func TestPureAlignmentScenario(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.AssignProfile(profile.Purifier))

	for i := 0; i < 10; i++ {
		out, ok := c.RecordAction(drift.Action{Kind: drift.KindCommand, Command: "patch and secure host"})
		require.True(t, ok)
		require.Equal(t, profile.Purifier, out.Label)
	}

	r := c.Role()
	assert.Greater(t, r.Drift.Percentage(profile.Purifier), 70.0)
	assert.Equal(t, drift.Pure, r.Alignment)
	assert.Equal(t, 1.0, r.Personality.Get(personality.Integrity))
	assert.Greater(t, r.Personality.Get(personality.Caution), 0.5)
}

func TestReputationScenario(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.AssignProfile(profile.Arbiter))
	require.Equal(t, reputation.Neutral, c.Role().Reputation.Standing(reputation.Archivists))

	v, err := c.UpdateReputation(reputation.Archivists, -0.9)
	require.NoError(t, err)
	assert.InDelta(t, -0.9, v, 1e-12)
	assert.Equal(t, reputation.Hated, c.Role().Reputation.Standing(reputation.Archivists))

	_, err = c.UpdateReputation("syndicate", 0.1)
	assert.ErrorIs(t, err, reputation.ErrUnknownFaction)
}

func TestInstabilityClamped(t *testing.T) {
	c, _ := newTestController(t)
	assert.Equal(t, 1.0, c.AdjustInstability(3))
	assert.Equal(t, 0.0, c.AdjustInstability(-5))
	assert.InDelta(t, 0.3, c.AdjustInstability(0.3), 1e-12)
}

func TestScratchClearedOnlyExplicitly(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.AssignProfile(profile.Purifier))
	c.SetScratch("puzzle_id", "vault-3")
	c.SetScratch("attempts", 2)

	require.True(t, c.ChangeMode(mode.MainTerminal).Committed())
	require.NoError(t, c.AssignProfile(profile.Arbiter))

	v, ok := c.Scratch("puzzle_id")
	require.True(t, ok)
	assert.Equal(t, "vault-3", v)
	assert.Equal(t, []string{"attempts", "puzzle_id"}, c.ScratchKeys())

	c.DeleteScratch("attempts")
	assert.Equal(t, []string{"puzzle_id"}, c.ScratchKeys())

	c.ClearScratch()
	assert.Empty(t, c.ScratchKeys())
}

func TestAttributeLookup(t *testing.T) {
	c, _ := newTestController(t)
	require.NoError(t, c.AssignProfile(profile.Ascendant))

	v, ok := c.Attribute("hacking_skill")
	require.True(t, ok)
	assert.Equal(t, profile.Template(profile.Ascendant).HackingSkill, v)

	_, ok = c.Attribute("charisma")
	assert.False(t, ok)
	assert.True(t, c.Attributes().HasCommand("msfconsole"))
}

func TestTimeInMode(t *testing.T) {
	c, clk := newTestController(t)
	require.NoError(t, c.AssignProfile(profile.Arbiter))

	clk.Advance(5 * time.Second)
	c.ChangeMode(mode.MainTerminal)
	clk.Advance(30 * time.Second)
	c.ChangeMode(mode.SaveMenu)
	clk.Advance(10 * time.Second)
	c.ChangeMode(mode.MainTerminal)
	clk.Advance(7 * time.Second)

	assert.Equal(t, 5*time.Second, c.TimeInMode(mode.Disclaimer))
	assert.Equal(t, 37*time.Second, c.TimeInMode(mode.MainTerminal))
	assert.Equal(t, 10*time.Second, c.TimeInMode(mode.SaveMenu))
	assert.Zero(t, c.TimeInMode(mode.Minigame))
}
