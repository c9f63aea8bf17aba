package drift

// #region imports
import (
	"strings"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
)

// #endregion

// #region keywords

var purifierKeywords = []string{
	"scan", "patch", "quarantine", "restore", "repair", "protect",
	"secure", "firewall", "purge", "clean", "isolate", "report",
}

var arbiterKeywords = []string{
	"analyze", "investigate", "trace", "decrypt", "observe", "compare",
	"archive", "query", "negotiate", "inspect", "grep", "whois",
}

var ascendantKeywords = []string{
	"exploit", "inject", "msfconsole", "overwrite", "corrupt", "backdoor",
	"escalate", "hijack", "crack", "wipe", "absorb", "payload",
}

// #endregion

// #region dialogue-choices

var dialogueChoices = map[string]profile.Profile{
	"compassionate": profile.Purifier,
	"protective":    profile.Purifier,
	"honest":        profile.Purifier,
	"selfless":      profile.Purifier,
	"diplomatic":    profile.Arbiter,
	"inquisitive":   profile.Arbiter,
	"neutral":       profile.Arbiter,
	"pragmatic":     profile.Arbiter,
	"aggressive":    profile.Ascendant,
	"manipulative":  profile.Ascendant,
	"ruthless":      profile.Ascendant,
	"dominant":      profile.Ascendant,
}

// #endregion

// #region classify

// Classify maps an action to the profile it most resembles. Ambiguous or
// unmatched actions fall back to the assigned profile.
func Classify(a Action, assigned profile.Profile) profile.Profile {
	switch a.Kind {
	case KindCommand:
		return classifyCommand(a.Command, assigned)
	case KindDialogue:
		if p, ok := dialogueChoices[strings.ToLower(strings.TrimSpace(a.ChoiceType))]; ok {
			return p
		}
	}
	return assigned
}

// #endregion

// #region classify-command

func classifyCommand(command string, assigned profile.Profile) profile.Profile {
	lower := strings.ToLower(command)
	hits := map[profile.Profile]int{
		profile.Purifier:  countHits(lower, purifierKeywords),
		profile.Arbiter:   countHits(lower, arbiterKeywords),
		profile.Ascendant: countHits(lower, ascendantKeywords),
	}

	best := 0
	for _, n := range hits {
		best = max(best, n)
	}
	if best == 0 {
		return assigned
	}
	// Ties resolve toward the assigned profile, then declaration order.
	if hits[assigned] == best {
		return assigned
	}
	for _, p := range profile.All() {
		if hits[p] == best {
			return p
		}
	}
	return assigned
}

func countHits(lower string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

// #endregion
