package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/drift"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/logging"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/profile"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/replay"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/reputation"
)

// #region command
// verb is a host-level command that is not a session event.
type verb string

const (
	verbEvent   verb = "event"
	verbStatus  verb = "status"
	verbSave    verb = "save"
	verbNarrate verb = "narrate"
	verbHelp    verb = "help"
	verbQuit    verb = "quit"
)

type command struct {
	verb  verb
	event replay.Event
}

const usage = `commands:
  mode <MODE>                    request a transition
  assign <PROFILE>               assign PURIFIER | ARBITER | ASCENDANT
  cmd[+] [@area] [^diff] <text>  record a command action (+ = succeeded)
  say[+] [@area] <choice>        record a dialogue choice
  instability <v|+d|-d>          set or adjust instability
  rep <faction> <delta>          adjust faction reputation
  override [duration] [0..1]     start the takeover override
  end | tick                     end or advance the override
  set <key> <value> | unset <key> | clear
  status | save | narrate | help | quit`

var errEmpty = errors.New("empty line")

// #endregion command

// #region parse
// parseLine turns one REPL line into a command. Override defaults come from
// the process config.
func parseLine(line string, defDuration time.Duration, defIntensity float64) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{}, errEmpty
	}
	word, args := strings.ToLower(fields[0]), fields[1:]

	ev := func(e replay.Event) (command, error) { return command{verb: verbEvent, event: e}, nil }

	switch word {
	case "status", "save", "narrate", "help":
		return command{verb: verb(word)}, nil
	case "quit", "exit":
		return command{verb: verbQuit}, nil

	case "mode":
		if len(args) != 1 {
			return command{}, errors.New("usage: mode <MODE>")
		}
		return ev(replay.Event{Kind: logging.KindMode, Mode: mode.Mode(strings.ToUpper(args[0]))})

	case "assign":
		if len(args) != 1 {
			return command{}, errors.New("usage: assign <PROFILE>")
		}
		return ev(replay.Event{Kind: logging.KindAssign, Profile: profile.Profile(strings.ToUpper(args[0]))})

	case "cmd", "cmd+", "say", "say+":
		a, err := parseAction(word, args)
		if err != nil {
			return command{}, err
		}
		return ev(replay.Event{Kind: logging.KindAction, Action: &a})

	case "instability":
		if len(args) != 1 {
			return command{}, errors.New("usage: instability <v|+d|-d>")
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return command{}, fmt.Errorf("instability: %w", err)
		}
		if strings.HasPrefix(args[0], "+") || strings.HasPrefix(args[0], "-") {
			return ev(replay.Event{Kind: logging.KindInstability, Delta: v})
		}
		return ev(replay.Event{Kind: logging.KindInstability, Value: v})

	case "rep":
		if len(args) != 2 {
			return command{}, errors.New("usage: rep <faction> <delta>")
		}
		d, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return command{}, fmt.Errorf("rep: %w", err)
		}
		return ev(replay.Event{Kind: logging.KindReputation, Faction: reputation.Faction(strings.ToLower(args[0])), Delta: d})

	case "override":
		d, intensity := defDuration, defIntensity
		if len(args) > 0 {
			parsed, err := time.ParseDuration(args[0])
			if err != nil {
				return command{}, fmt.Errorf("override duration: %w", err)
			}
			d = parsed
		}
		if len(args) > 1 {
			parsed, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return command{}, fmt.Errorf("override intensity: %w", err)
			}
			intensity = parsed
		}
		return ev(replay.Event{Kind: logging.KindOverrideStart, Duration: d.Milliseconds(), Value: intensity})

	case "end":
		return ev(replay.Event{Kind: logging.KindOverrideEnd})
	case "tick":
		return ev(replay.Event{Kind: logging.KindTick})

	case "set":
		if len(args) < 2 {
			return command{}, errors.New("usage: set <key> <value>")
		}
		return ev(replay.Event{Kind: logging.KindScratchSet, Key: args[0], Scratch: scratchValue(strings.Join(args[1:], " "))})
	case "unset":
		if len(args) != 1 {
			return command{}, errors.New("usage: unset <key>")
		}
		return ev(replay.Event{Kind: logging.KindScratchDelete, Key: args[0]})
	case "clear":
		return ev(replay.Event{Kind: logging.KindScratchClear})
	}
	return command{}, fmt.Errorf("unknown command %q (try help)", word)
}

func parseAction(word string, args []string) (drift.Action, error) {
	a := drift.Action{Kind: drift.KindCommand, Success: strings.HasSuffix(word, "+")}
	if strings.HasPrefix(word, "say") {
		a.Kind = drift.KindDialogue
	}

	var text []string
	for _, tok := range args {
		switch {
		case strings.HasPrefix(tok, "@") && len(tok) > 1:
			a.Area = tok[1:]
		case strings.HasPrefix(tok, "^") && len(tok) > 1:
			d, err := strconv.ParseFloat(tok[1:], 64)
			if err != nil {
				return drift.Action{}, fmt.Errorf("difficulty: %w", err)
			}
			a.Difficulty = d
		default:
			text = append(text, tok)
		}
	}
	if len(text) == 0 {
		return drift.Action{}, fmt.Errorf("usage: %s [@area] [^diff] <text>", word)
	}
	if a.Kind == drift.KindDialogue {
		a.ChoiceType = strings.Join(text, " ")
	} else {
		a.Command = strings.Join(text, " ")
	}
	return a, nil
}

// scratchValue keeps numbers numeric so gates that compare them work.
func scratchValue(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

// #endregion parse
