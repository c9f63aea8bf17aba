package mode

import "fmt"

// #region mode
// Mode is one member of the session's fixed operating-state enumeration.
type Mode string

const (
	Disclaimer      Mode = "DISCLAIMER"
	RoleSelection   Mode = "ROLE_SELECTION"
	MainTerminal    Mode = "MAIN_TERMINAL"
	MSFConsole      Mode = "MSFCONSOLE"
	PuzzleActive    Mode = "PUZZLE_ACTIVE"
	NarrativeScreen Mode = "NARRATIVE_SCREEN"
	SaveMenu        Mode = "SAVE_MENU"
	LLMOutput       Mode = "LLM_OUTPUT"
	Minigame        Mode = "MINIGAME"
	ScourgeTakeover Mode = "SCOURGE_TAKEOVER"
)

// Initial is the mode every session starts in.
const Initial = Disclaimer

// Override is the interrupt mode entered by the override subsystem.
const Override = ScourgeTakeover

// Fallback is restored when an override ends without a recorded prior mode.
const Fallback = MainTerminal

// All returns every mode in declaration order.
func All() []Mode {
	return []Mode{
		Disclaimer,
		RoleSelection,
		MainTerminal,
		MSFConsole,
		PuzzleActive,
		NarrativeScreen,
		SaveMenu,
		LLMOutput,
		Minigame,
		ScourgeTakeover,
	}
}

// Valid reports whether m is a member of the enumeration.
func (m Mode) Valid() bool {
	switch m {
	case Disclaimer, RoleSelection, MainTerminal, MSFConsole, PuzzleActive,
		NarrativeScreen, SaveMenu, LLMOutput, Minigame, ScourgeTakeover:
		return true
	default:
		return false
	}
}

func (m Mode) String() string {
	return string(m)
}

// Parse converts a name into a Mode.
func Parse(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown mode %q", s)
	}
	return m, nil
}

// #endregion mode
