package personality

import (
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/drift"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
)

// #region traits
// Trait names one dimension of the fixed trait vector.
type Trait string

const (
	Empathy      Trait = "empathy"
	Integrity    Trait = "integrity"
	Ruthlessness Trait = "ruthlessness"
	Ambition     Trait = "ambition"
	Curiosity    Trait = "curiosity"
	Caution      Trait = "caution"
	Sociability  Trait = "sociability"
	Independence Trait = "independence"
)

// Traits returns the trait vector's dimensions in a fixed order.
func Traits() []Trait {
	return []Trait{Empathy, Integrity, Ruthlessness, Ambition, Curiosity, Caution, Sociability, Independence}
}

const neutral = 0.5

// #endregion traits

// #region profile
// Profile is the trait vector plus its derived summary scalars.
// Derived values are recomputed after every nudge and are read-only to callers.
type Profile struct {
	Traits         map[Trait]float64 `json:"traits"`
	MoralCompass   float64           `json:"moral_compass"`
	RiskTolerance  float64           `json:"risk_tolerance"`
	SocialTendency float64           `json:"social_tendency"`
}

// New returns a profile with every trait at 0.5.
func New() *Profile {
	p := &Profile{Traits: make(map[Trait]float64, len(Traits()))}
	for _, t := range Traits() {
		p.Traits[t] = neutral
	}
	p.recompute()
	return p
}

// FromTraits builds a profile from stored trait values, recomputing the
// derived scalars. Missing traits start neutral.
func FromTraits(traits map[Trait]float64) *Profile {
	p := New()
	for t, v := range traits {
		p.Traits[t] = v
	}
	p.recompute()
	return p
}

// Get returns the value of trait t.
func (p *Profile) Get(t Trait) float64 {
	return p.Traits[t]
}

// Clone returns a deep copy.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Traits = make(map[Trait]float64, len(p.Traits))
	for t, v := range p.Traits {
		c.Traits[t] = v
	}
	return &c
}

// #endregion profile

// #region nudges
type nudge struct {
	trait Trait
	delta float64
}

type category struct {
	label profile.Profile
	kind  drift.ActionKind
}

var nudges = map[category][]nudge{
	{profile.Purifier, drift.KindCommand}:   {{Integrity, 0.10}, {Caution, 0.05}},
	{profile.Purifier, drift.KindDialogue}:  {{Empathy, 0.15}, {Sociability, 0.05}, {Integrity, 0.05}},
	{profile.Arbiter, drift.KindCommand}:    {{Curiosity, 0.10}, {Independence, 0.05}},
	{profile.Arbiter, drift.KindDialogue}:   {{Sociability, 0.10}, {Curiosity, 0.05}},
	{profile.Ascendant, drift.KindCommand}:  {{Ambition, 0.10}, {Ruthlessness, 0.05}, {Curiosity, 0.05}},
	{profile.Ascendant, drift.KindDialogue}: {{Ruthlessness, 0.15}, {Ambition, 0.05}},
}

// Nudge applies the fixed deltas for an action classified as label.
// Unknown categories leave the vector untouched. Reports whether anything moved.
func (p *Profile) Nudge(label profile.Profile, kind drift.ActionKind) bool {
	ns, ok := nudges[category{label, kind}]
	if !ok {
		return false
	}
	for _, n := range ns {
		p.Traits[n.trait] = clamp01(p.Traits[n.trait] + n.delta)
	}
	p.recompute()
	return true
}

// #endregion nudges

// #region derived
func (p *Profile) recompute() {
	t := p.Traits
	p.MoralCompass = ((t[Empathy] + t[Integrity]) - (t[Ruthlessness] + t[Ambition])) / 2
	p.RiskTolerance = ((t[Curiosity] + t[Ambition]) - (t[Caution] + t[Integrity])) / 2
	p.SocialTendency = ((t[Sociability] + t[Empathy]) - (t[Independence] + t[Ruthlessness])) / 2
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

// #endregion derived
