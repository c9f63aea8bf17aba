package profile

import "slices"

// #region attributes
// Attributes is the derived attribute block owned by an assigned profile.
// It is replaced wholesale on every assignment.
type Attributes struct {
	Background           string   `json:"background"`
	Motivation           string   `json:"motivation"`
	SkillFocus           string   `json:"skill_focus"`
	Health               int      `json:"health"`
	CorruptionResistance int      `json:"corruption_resistance"`
	HackingSkill         int      `json:"hacking_skill"`
	Stealth              int      `json:"stealth"`
	DetectionRisk        float64  `json:"detection_risk"`
	SystemAccessLevel    int      `json:"system_access_level"`
	SecurityClearance    int      `json:"security_clearance"`
	Reputation           float64  `json:"reputation"`
	UnlockedCommands     []string `json:"unlocked_commands"`
}

// Get looks up an attribute by its snake_case name.
func (a Attributes) Get(name string) (any, bool) {
	switch name {
	case "background":
		return a.Background, true
	case "motivation":
		return a.Motivation, true
	case "skill_focus":
		return a.SkillFocus, true
	case "health":
		return a.Health, true
	case "corruption_resistance":
		return a.CorruptionResistance, true
	case "hacking_skill":
		return a.HackingSkill, true
	case "stealth":
		return a.Stealth, true
	case "detection_risk":
		return a.DetectionRisk, true
	case "system_access_level":
		return a.SystemAccessLevel, true
	case "security_clearance":
		return a.SecurityClearance, true
	case "reputation":
		return a.Reputation, true
	case "unlocked_commands":
		return slices.Clone(a.UnlockedCommands), true
	default:
		return nil, false
	}
}

// Clone returns a deep copy.
func (a Attributes) Clone() Attributes {
	a.UnlockedCommands = slices.Clone(a.UnlockedCommands)
	return a
}

// HasCommand reports whether cmd is in the unlocked command set.
func (a Attributes) HasCommand(cmd string) bool {
	return slices.Contains(a.UnlockedCommands, cmd)
}

// #endregion attributes

// #region templates
var baseCommands = []string{"cat", "cd", "clear", "help", "hostname", "ls", "whoami"}

// Template returns the static starting attributes for p. The zero Attributes
// is returned for profiles outside the enumeration.
func Template(p Profile) Attributes {
	switch p {
	case Purifier:
		return Attributes{
			Background:           "Former Aether Corp Security Specialist",
			Motivation:           "Redemption and Protection",
			SkillFocus:           "System Integrity",
			Health:               100,
			CorruptionResistance: 8,
			HackingSkill:         5,
			Stealth:              3,
			DetectionRisk:        0.2,
			SystemAccessLevel:    1,
			SecurityClearance:    2,
			Reputation:           0.5,
			UnlockedCommands:     slices.Clone(baseCommands),
		}
	case Arbiter:
		return Attributes{
			Background:           "Investigative Journalist / Info Broker",
			Motivation:           "Truth and Balance",
			SkillFocus:           "Information Gathering",
			Health:               100,
			CorruptionResistance: 5,
			HackingSkill:         7,
			Stealth:              7,
			DetectionRisk:        0.4,
			SystemAccessLevel:    2,
			SecurityClearance:    1,
			Reputation:           0.3,
			UnlockedCommands:     sorted(baseCommands, "cp", "mv", "rm"),
		}
	case Ascendant:
		return Attributes{
			Background:           "Terminally Ill Programmer seeking Digital Transcendence",
			Motivation:           "Power and Evolution",
			SkillFocus:           "Exploitation",
			Health:               100,
			CorruptionResistance: 3,
			HackingSkill:         9,
			Stealth:              5,
			DetectionRisk:        0.6,
			SystemAccessLevel:    3,
			SecurityClearance:    0,
			Reputation:           0.1,
			UnlockedCommands:     sorted(baseCommands, "cp", "msfconsole", "mv", "rm"),
		}
	default:
		return Attributes{}
	}
}

func sorted(base []string, extra ...string) []string {
	out := append(slices.Clone(base), extra...)
	slices.Sort(out)
	return out
}

// #endregion templates
