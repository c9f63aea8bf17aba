package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/config"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/logging"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/narrative"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/replay"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/session"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/state"
)

func testConfig() config.Config {
	return config.Config{LogLevel: "info", OverrideDuration: time.Second, OverrideIntensity: 1}
}

func openStore(t *testing.T) *state.Store {
	t.Helper()
	store, err := state.NewStore(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func startHost(t *testing.T, store *state.Store, sessionID string) (*host, *session.Controller, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c := session.New()
	announce(c, &out)
	h, err := newHost(testConfig(), store, c, sessionID, zap.NewNop(), &out)
	require.NoError(t, err)
	return h, c, &out
}

const script = `assign purifier
mode main_terminal
cmd+ @system_integrity scan subnet
mode msfconsole

rep resistance 0.4
set required_skill 3
mode puzzle_active
override 1ms 0.5
quit
`

func TestHostRunJournalsAndSaves(t *testing.T) {
	store := openStore(t)
	h, c, out := startHost(t, store, "")

	require.NoError(t, h.run(context.Background(), strings.NewReader(script)))

	assert.Equal(t, mode.ScourgeTakeover, c.Current())
	assert.Contains(t, out.String(), "control seized from PUZZLE_ACTIVE")
	assert.Contains(t, out.String(), "saved "+h.sessionID)

	entries, err := logging.ListEvents(store.DB(), h.sessionID, 0)
	require.NoError(t, err)
	var decisions []string
	for _, e := range entries {
		decisions = append(decisions, string(e.Kind)+":"+e.Decision)
	}
	assert.Equal(t, []string{
		"assign:commit", "mode:commit", "action:commit", "mode:reject",
		"reputation:commit", "scratch_set:commit", "mode:commit",
		"override_start:commit", "save:commit",
	}, decisions)

	rec, err := store.GetCurrent(h.sessionID)
	require.NoError(t, err)
	assert.Equal(t, mode.ScourgeTakeover, rec.Mode)
	assert.InDelta(t, 0.05, rec.Snapshot.Role.Knowledge["system_integrity"], 1e-9)
}

func TestHostResumeFinishesOverride(t *testing.T) {
	store := openStore(t)
	h, _, _ := startHost(t, store, "")
	require.NoError(t, h.run(context.Background(), strings.NewReader(script)))

	resumed, c, out := startHost(t, store, h.sessionID)
	assert.Equal(t, 9, resumed.seq)
	require.True(t, c.OverrideActive())

	time.Sleep(5 * time.Millisecond)
	require.True(t, resumed.tick())
	assert.Equal(t, mode.PuzzleActive, c.Current())
	assert.Contains(t, out.String(), "control returned to PUZZLE_ACTIVE")
	assert.False(t, resumed.tick())

	// The journal replays to the same decisions.
	entries, err := logging.ListEvents(store.DB(), h.sessionID, 0)
	require.NoError(t, err)
	f, err := replay.FromJournal("resume", entries)
	require.NoError(t, err)
	rc, err := f.Config.ToReplayConfig()
	require.NoError(t, err)
	results, final := replay.Replay(f.Events, rc)
	for i, want := range f.ExpectedResults {
		assert.Equal(t, want.Action, results[i].Action, "%s (%s)", want.EventID, results[i].Reason)
	}
	assert.Equal(t, mode.PuzzleActive, final.Current())
}

func TestHostResumeUnknownSession(t *testing.T) {
	store := openStore(t)
	_, err := newHost(testConfig(), store, session.New(), "missing", zap.NewNop(), &bytes.Buffer{})
	assert.ErrorIs(t, err, state.ErrNotFound)
}

type stubService struct{ resp map[string]any }

func (s stubService) Compose(_ context.Context, _ *structpb.Struct, _ ...grpc.CallOption) (*structpb.Struct, error) {
	return structpb.NewStruct(s.resp)
}

func TestHostNarrateFeedsGate(t *testing.T) {
	store := openStore(t)
	h, c, out := startHost(t, store, "")
	h.story = narrative.NewClientWithService(stubService{resp: map[string]any{
		"text":              "The terminal hums.",
		"suggested_mode":    "NARRATIVE_SCREEN",
		"instability_delta": 0.2,
	}})

	// No profile yet: the suggestion is denied by the gate.
	require.NoError(t, h.narrate(context.Background()))
	assert.Equal(t, mode.Disclaimer, c.Current())
	assert.Contains(t, out.String(), "The terminal hums.")

	h.apply(replay.Event{Kind: logging.KindAssign, Profile: "ARBITER"})
	h.apply(replay.Event{Kind: logging.KindMode, Mode: mode.MainTerminal})
	require.NoError(t, h.narrate(context.Background()))
	assert.Equal(t, mode.NarrativeScreen, c.Current())
	assert.InDelta(t, 0.4, c.Instability(), 1e-9)
}

func TestHostReportsJournalFailure(t *testing.T) {
	store := openStore(t)
	h, c, out := startHost(t, store, "")
	_, err := store.DB().Exec("DROP TABLE event_journal")
	require.NoError(t, err)

	res := h.apply(replay.Event{Kind: logging.KindAssign, Profile: "PURIFIER"})
	assert.Equal(t, "commit", res.Decision)
	assert.Equal(t, "PURIFIER", string(c.Profile()))
	assert.Contains(t, out.String(), "journal: e1 not recorded")
}

func TestHostNarrateWithoutService(t *testing.T) {
	store := openStore(t)
	h, _, _ := startHost(t, store, "")
	assert.Error(t, h.narrate(context.Background()))
}

func TestHostContextCancelSaves(t *testing.T) {
	store := openStore(t)
	h, _, out := startHost(t, store, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, w := io.Pipe()
	defer w.Close()
	require.NoError(t, h.run(ctx, r))
	assert.Contains(t, out.String(), "saved")

	versions, err := store.ListVersions(h.sessionID, 10)
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}
