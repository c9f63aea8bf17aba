// Package role aggregates everything that accrues to the assigned profile:
// drift, personality, mastery, evolution stage, knowledge and faction standing.
package role

import (
	"maps"
	"slices"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/drift"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/evolution"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/personality"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/reputation"
)

// #region constants
const (
	initialCommitment = 0.5
	commitmentDecay   = 0.95
	commitmentGain    = 0.05
	momentumTrigger   = 0.5
	knowledgeGain     = 0.05
)

var knowledgeAreas = map[profile.Profile][]string{
	profile.Purifier:  {"system_integrity", "malware_analysis", "incident_response"},
	profile.Arbiter:   {"information_gathering", "social_engineering", "data_forensics"},
	profile.Ascendant: {"exploitation", "privilege_escalation", "scourge_lore"},
}

// KnowledgeAreas returns the areas owned by p.
func KnowledgeAreas(p profile.Profile) []string {
	return slices.Clone(knowledgeAreas[p])
}

// #endregion constants

// #region profile
// Profile is the role-progress aggregate for one assigned archetype.
type Profile struct {
	Profile     profile.Profile      `json:"profile"`
	Commitment  float64              `json:"commitment"`
	Mastery     float64              `json:"mastery"`
	Reputation  reputation.Ledger    `json:"reputation"`
	Alignment   drift.Alignment      `json:"alignment"`
	Stage       int                  `json:"stage"`
	Abilities   []string             `json:"abilities"`
	Knowledge   map[string]float64   `json:"knowledge"`
	Drift       *drift.Tracker       `json:"drift"`
	Personality *personality.Profile `json:"personality"`
}

// New returns a fresh aggregate for p at stage 1.
func New(p profile.Profile) *Profile {
	knowledge := make(map[string]float64, 3)
	for _, a := range knowledgeAreas[p] {
		knowledge[a] = 0
	}
	return &Profile{
		Profile:     p,
		Commitment:  initialCommitment,
		Reputation:  reputation.NewLedger(),
		Alignment:   drift.Pure,
		Stage:       evolution.MinStage,
		Abilities:   evolution.Union(nil, evolution.Abilities(p, evolution.MinStage)),
		Knowledge:   knowledge,
		Drift:       drift.NewTracker(),
		Personality: personality.New(),
	}
}

// HasAbility reports whether ability has been unlocked.
func (r *Profile) HasAbility(ability string) bool {
	return slices.Contains(r.Abilities, ability)
}

// Clone returns a deep copy.
func (r *Profile) Clone() *Profile {
	c := *r
	c.Reputation = r.Reputation.Clone()
	c.Abilities = slices.Clone(r.Abilities)
	c.Knowledge = maps.Clone(r.Knowledge)
	c.Drift = r.Drift.Clone()
	c.Personality = r.Personality.Clone()
	return &c
}

// #endregion profile

// #region record
// Outcome describes what one recorded action changed.
type Outcome struct {
	Label       profile.Profile `json:"label"`
	Matched     bool            `json:"matched"`
	MasteryGain float64         `json:"mastery_gain"`
	Advanced    bool            `json:"advanced"`
	Stage       int             `json:"stage"`
	Alignment   drift.Alignment `json:"alignment"`
}

// Record classifies a and folds it into every tracker.
func (r *Profile) Record(a drift.Action) Outcome {
	label := drift.Classify(a, r.Profile)

	r.Drift.Record(label)
	r.Drift.UpdateMomentum(r.Profile)
	r.Alignment = r.Drift.ClassifyAlignment(r.Profile)
	r.adjustCommitment()

	r.Personality.Nudge(label, a.Kind)

	out := Outcome{Label: label, Matched: label == r.Profile}
	if out.Matched {
		out.MasteryGain = r.addMastery(a)
		out.Advanced = r.checkEvolution()
		r.addKnowledge(a.Area)
	}
	out.Stage = r.Stage
	out.Alignment = r.Alignment
	return out
}

func (r *Profile) adjustCommitment() {
	switch m := r.Drift.Momentum; {
	case m < -momentumTrigger:
		r.Commitment *= commitmentDecay
	case m > momentumTrigger:
		r.Commitment = min(1, r.Commitment+commitmentGain)
	}
}

func (r *Profile) addMastery(a drift.Action) float64 {
	before := r.Mastery
	r.Mastery = min(1, r.Mastery+evolution.Gain(a.DifficultyMultiplier(), a.Success))
	return r.Mastery - before
}

func (r *Profile) checkEvolution() bool {
	next, ok := evolution.Next(r.Stage, r.Mastery, r.Commitment)
	if !ok {
		return false
	}
	r.Stage = next
	r.Abilities = evolution.Union(r.Abilities, evolution.Abilities(r.Profile, next))
	return true
}

func (r *Profile) addKnowledge(area string) {
	if area == "" {
		return
	}
	v, ok := r.Knowledge[area]
	if !ok {
		return
	}
	r.Knowledge[area] = min(1, v+knowledgeGain)
}

// #endregion record

// #region summary
// Summary is the read-only view handed to narrative collaborators.
type Summary struct {
	Profile        profile.Profile                            `json:"profile"`
	Alignment      drift.Alignment                            `json:"alignment"`
	Percentages    map[profile.Profile]float64                `json:"percentages"`
	Momentum       float64                                    `json:"momentum"`
	Commitment     float64                                    `json:"commitment"`
	Mastery        float64                                    `json:"mastery"`
	Stage          int                                        `json:"stage"`
	Abilities      []string                                   `json:"abilities"`
	Traits         map[personality.Trait]float64              `json:"traits"`
	MoralCompass   float64                                    `json:"moral_compass"`
	RiskTolerance  float64                                    `json:"risk_tolerance"`
	SocialTendency float64                                    `json:"social_tendency"`
	Reputation     map[reputation.Faction]float64             `json:"reputation"`
	Standings      map[reputation.Faction]reputation.Standing `json:"standings"`
	Knowledge      map[string]float64                         `json:"knowledge"`
}

// Summarize builds a detached summary.
func (r *Profile) Summarize() Summary {
	return Summary{
		Profile:        r.Profile,
		Alignment:      r.Alignment,
		Percentages:    r.Drift.Percentages(),
		Momentum:       r.Drift.Momentum,
		Commitment:     r.Commitment,
		Mastery:        r.Mastery,
		Stage:          r.Stage,
		Abilities:      slices.Clone(r.Abilities),
		Traits:         maps.Clone(r.Personality.Traits),
		MoralCompass:   r.Personality.MoralCompass,
		RiskTolerance:  r.Personality.RiskTolerance,
		SocialTendency: r.Personality.SocialTendency,
		Reputation:     maps.Clone(map[reputation.Faction]float64(r.Reputation)),
		Standings:      r.Reputation.Standings(),
		Knowledge:      maps.Clone(r.Knowledge),
	}
}

// #endregion summary
