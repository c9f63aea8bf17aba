package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/config"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/logging"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/replay"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/state"
)

var (
	verbose     bool
	dbPath      string
	sessionID   string
	fixturePath string

	cfg    config.Config
	logger *zap.Logger
)

// errDiverged signals a completed replay whose decisions differ from the record.
var errDiverged = errors.New("replay diverged")

// #region main

var rootCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded session against the current controller",
	Long: `Replays either a JSON fixture (--fixture) or a journaled session
(--db, --session) through a fresh controller and compares each event's
decision with the recorded one. Exits 1 on divergence.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		logger, err = cfg.Logger(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if (fixturePath == "") == (sessionID == "") {
			return errors.New("exactly one of --fixture or --session is required")
		}
		if fixturePath != "" {
			return runFixtureMode(fixturePath)
		}
		return runDBMode(sessionID)
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "session database (defaults to SESSION_DB)")
	rootCmd.Flags().StringVar(&sessionID, "session", "", "journaled session to replay (DB mode)")
	rootCmd.Flags().StringVar(&fixturePath, "fixture", "", "fixture JSON to replay (fixture mode)")

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errDiverged) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

// #endregion main

// #region modes

func runFixtureMode(path string) error {
	f, err := replay.LoadFixture(path)
	if err != nil {
		return err
	}
	return replayFixture(f)
}

func runDBMode(id string) error {
	if dbPath == "" {
		dbPath = cfg.DBPath
	}
	store, err := state.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := logging.ListEvents(store.DB(), id, 0)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no journal entries for session %s", id)
	}
	f, err := replay.FromJournal("session "+id, entries)
	if err != nil {
		return err
	}
	return replayFixture(f)
}

func replayFixture(f *replay.Fixture) error {
	rc, err := f.Config.ToReplayConfig()
	if err != nil {
		return err
	}
	rc.Logger = logger.Named("replay")

	results, final := replay.Replay(f.Events, rc)
	if printComparison(results, f.ExpectedResults) > 0 {
		return errDiverged
	}

	s := replay.Summarize(results, final)
	fmt.Printf("Final: mode=%s profile=%s commits=%d rejects=%d no_ops=%d eval_failures=%d\n",
		s.FinalMode, s.FinalProfile, s.Commits, s.Rejects, s.NoOps, s.EvalFailures)
	return nil
}

// #endregion modes

// #region output

// printComparison outputs a comparison table and returns the divergence count.
func printComparison(results []replay.ReplayResult, expected []replay.FixtureExpectedResult) int {
	fmt.Printf("%-8s| %-15s| %-10s| %-10s| %-18s| %s\n", "Event", "Kind", "Expected", "Replayed", "Mode", "Match")
	fmt.Printf("%-8s+%-16s+%-11s+%-11s+%-19s+%s\n",
		"--------", "----------------", "-----------", "-----------", "-------------------", "------")

	total := min(len(results), len(expected))
	matches := 0
	for i := 0; i < total; i++ {
		exp, got := expected[i], results[i]
		match := "DIFF"
		if exp.Action == got.Action && (exp.Mode == "" || exp.Mode == got.Mode) {
			match = "OK"
			matches++
		}
		fmt.Printf("%-8s| %-15s| %-10s| %-10s| %-18s| %s\n",
			exp.EventID, got.Kind, exp.Action, got.Action, got.Mode, match)
		if match == "DIFF" && verbose {
			fmt.Printf("        reason: %s\n", got.Reason)
		}
	}

	diverge := total - matches + abs(len(results)-len(expected))
	fmt.Printf("\nSummary: %d total, %d match, %d diverge\n", total, matches, diverge)
	return diverge
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// #endregion output
