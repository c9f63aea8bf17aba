package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/config"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/logging"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/narrative"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/replay"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/session"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/state"
)

// #region host
// host owns one interactive session: the guarded controller, its journal
// and the snapshot store.
type host struct {
	g         *session.Guarded
	store     *state.Store
	journal   *logging.Journal
	story     *narrative.Client // nil when NARRATIVE_ADDR is unset
	log       *zap.Logger
	cfg       config.Config
	out       io.Writer
	sessionID string
	seq       int
}

// newHost wires a controller to the store. An empty sessionID starts a new
// session; otherwise the session's active snapshot is restored.
func newHost(cfg config.Config, store *state.Store, c *session.Controller, sessionID string, log *zap.Logger, out io.Writer) (*host, error) {
	if sessionID == "" {
		rec, err := store.CreateSession(c.Snapshot())
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		sessionID = rec.SessionID
		log.Info("session created", zap.String("session_id", sessionID), zap.String("version_id", rec.VersionID))
	} else {
		rec, err := store.GetCurrent(sessionID)
		if err != nil {
			return nil, fmt.Errorf("resume session: %w", err)
		}
		if err := c.Restore(rec.Snapshot); err != nil {
			return nil, fmt.Errorf("resume session: %w", err)
		}
		log.Info("session resumed", zap.String("session_id", sessionID), zap.String("version_id", rec.VersionID))
	}

	journal := logging.NewJournal(store.DB(), log.Named("journal"), sessionID)
	seq, err := journalLength(store, sessionID)
	if err != nil {
		return nil, err
	}
	return &host{
		g:         session.NewGuarded(c),
		store:     store,
		journal:   journal,
		log:       log,
		cfg:       cfg,
		out:       out,
		sessionID: sessionID,
		seq:       seq,
	}, nil
}

func journalLength(store *state.Store, sessionID string) (int, error) {
	entries, err := logging.ListEvents(store.DB(), sessionID, 0)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// #endregion host

// #region apply
// apply feeds ev to the controller and journals the outcome under the same
// lock, so journal order matches application order.
func (h *host) apply(ev replay.Event) replay.Outcome {
	var out replay.Outcome
	h.g.Do(func(c *session.Controller) {
		h.seq++
		ev.ID = fmt.Sprintf("e%d", h.seq)
		out = replay.Apply(c, ev)
		h.record(ev, out)
	})
	return out
}

// record journals an applied event. A failed write is reported to the user
// since the journal no longer matches the session.
func (h *host) record(ev replay.Event, out replay.Outcome) {
	if err := h.journal.Record(ev.Kind, ev, out.Decision, out.Reason); err != nil {
		fmt.Fprintf(h.out, "journal: %s not recorded: %v\n", ev.ID, err)
	}
}

// tick polls the override. Only ticks that end it are journaled.
func (h *host) tick() bool {
	var ended bool
	h.g.Do(func(c *session.Controller) {
		if !c.OverrideActive() {
			return
		}
		ev := replay.Event{Kind: logging.KindTick}
		out := replay.Apply(c, ev)
		if out.Decision != "commit" {
			return
		}
		h.seq++
		ev.ID = fmt.Sprintf("e%d", h.seq)
		h.record(ev, out)
		ended = true
	})
	return ended
}

// tickLoop runs tick every interval until ctx is done.
func (h *host) tickLoop(ctx context.Context, interval time.Duration, wg *sync.WaitGroup) {
	defer wg.Done()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if h.tick() {
				fmt.Fprintf(h.out, "\n[override ended] mode=%s\n> ", h.g.Current())
			}
		}
	}
}

// #endregion apply

// #region repl
// run reads commands from r until EOF, quit, or ctx is done. The session is
// saved on the way out.
func (h *host) run(ctx context.Context, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(h.out, "> ")
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			fmt.Fprintln(h.out)
			return h.save()
		case line, ok = <-lines:
			if !ok {
				return h.save()
			}
		}

		cmd, err := parseLine(line, h.cfg.OverrideDuration, h.cfg.OverrideIntensity)
		if errors.Is(err, errEmpty) {
			continue
		}
		if err != nil {
			fmt.Fprintln(h.out, err)
			continue
		}
		if cmd.verb == verbQuit {
			return h.save()
		}
		if err := h.handle(ctx, cmd); err != nil {
			fmt.Fprintf(h.out, "error: %v\n", err)
		}
	}
}

func (h *host) handle(ctx context.Context, cmd command) error {
	switch cmd.verb {
	case verbHelp:
		fmt.Fprintln(h.out, usage)
	case verbStatus:
		return h.status()
	case verbSave:
		return h.save()
	case verbNarrate:
		return h.narrate(ctx)
	case verbEvent:
		out := h.apply(cmd.event)
		fmt.Fprintf(h.out, "[%s] %s: %s (mode=%s)\n", cmd.event.Kind, out.Decision, out.Reason, h.g.Current())
	}
	return nil
}

// #endregion repl

// #region verbs
func (h *host) status() error {
	data, err := json.MarshalIndent(h.g.Summary(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	fmt.Fprintln(h.out, string(data))
	return nil
}

func (h *host) save() error {
	var rec state.SnapshotRecord
	var err error
	h.g.Do(func(c *session.Controller) {
		rec, err = h.store.Save(h.sessionID, c.Snapshot())
		if err == nil {
			err = h.journal.MarkSaved(rec.VersionID)
		}
	})
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	fmt.Fprintf(h.out, "saved %s version %s\n", h.sessionID, rec.VersionID)
	return nil
}

// narrate asks the collaborator for a beat and feeds its suggestions back
// through the gate like any other event.
func (h *host) narrate(ctx context.Context) error {
	if h.story == nil {
		return errors.New("no narrative service configured (NARRATIVE_ADDR)")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	beat, err := h.story.Compose(ctx, h.g.Summary())
	if err != nil {
		return err
	}
	if text := strings.TrimSpace(beat.Text); text != "" {
		fmt.Fprintf(h.out, "\n%s\n\n", text)
	}
	if beat.InstabilityDelta != 0 {
		out := h.apply(replay.Event{Kind: logging.KindInstability, Delta: beat.InstabilityDelta})
		fmt.Fprintf(h.out, "[narrative] %s\n", out.Reason)
	}
	if beat.SuggestedMode != "" && beat.SuggestedMode != h.g.Current() {
		out := h.apply(replay.Event{Kind: logging.KindMode, Mode: beat.SuggestedMode})
		fmt.Fprintf(h.out, "[narrative] %s -> %s: %s\n", out.Decision, beat.SuggestedMode, out.Reason)
	}
	return nil
}

// #endregion verbs

// #region callbacks
// announce registers enter/exit callbacks that print override banners.
func announce(c *session.Controller, out io.Writer) {
	c.OnEnter(mode.Override, func(from, to mode.Mode) error {
		fmt.Fprintf(out, "!! %s: control seized from %s !!\n", to, from)
		return nil
	})
	c.OnExit(mode.Override, func(from, to mode.Mode) error {
		fmt.Fprintf(out, "!! control returned to %s !!\n", to)
		return nil
	})
}

// #endregion callbacks
