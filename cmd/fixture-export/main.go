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
	outPath     string
	description string
	withModes   bool

	cfg    config.Config
	logger *zap.Logger
)

// #region main

var rootCmd = &cobra.Command{
	Use:   "fixture-export",
	Short: "Export a journaled session as a replay fixture",
	Long: `Reads a session's event journal and writes a replay fixture whose
expected results are the recorded decisions. With --modes the fixture is
replayed once and the resulting modes are pinned as well.`,
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
		if sessionID == "" || outPath == "" {
			return errors.New("--session and --out are required")
		}
		if dbPath == "" {
			dbPath = cfg.DBPath
		}
		return run()
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "session database (defaults to SESSION_DB)")
	rootCmd.Flags().StringVar(&sessionID, "session", "", "session to export")
	rootCmd.Flags().StringVar(&outPath, "out", "", "output fixture JSON path")
	rootCmd.Flags().StringVar(&description, "description", "", "fixture description")
	rootCmd.Flags().BoolVar(&withModes, "modes", false, "pin the replayed mode after each event")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run() error {
	store, err := state.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := logging.ListEvents(store.DB(), sessionID, 0)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no journal entries for session %s", sessionID)
	}

	if description == "" {
		description = fmt.Sprintf("exported from session %s", sessionID)
	}
	f, err := replay.FromJournal(description, entries)
	if err != nil {
		return err
	}
	if cfg.TableFile != "" {
		rules, err := os.ReadFile(cfg.TableFile)
		if err != nil {
			return fmt.Errorf("read table rules: %w", err)
		}
		f.Config.Rules = string(rules)
	}

	if withModes {
		if err := pinModes(f); err != nil {
			return err
		}
	}

	if err := replay.WriteFixture(outPath, f); err != nil {
		return err
	}
	logger.Info("fixture exported",
		zap.String("session_id", sessionID),
		zap.Int("events", len(f.Events)),
		zap.String("out", outPath),
	)
	fmt.Printf("Wrote %d events to %s\n", len(f.Events), outPath)
	return nil
}

// pinModes replays f once and records the mode after each event. Events
// whose replayed decision already differs from the journal keep no mode.
func pinModes(f *replay.Fixture) error {
	rc, err := f.Config.ToReplayConfig()
	if err != nil {
		return err
	}
	results, _ := replay.Replay(f.Events, rc)
	for i := range f.ExpectedResults {
		if results[i].Action != f.ExpectedResults[i].Action {
			logger.Warn("journal and replay disagree",
				zap.String("event_id", results[i].EventID),
				zap.String("journal", f.ExpectedResults[i].Action),
				zap.String("replay", results[i].Action),
			)
			f.ExpectedResults[i].Mode = ""
			continue
		}
		f.ExpectedResults[i].Mode = results[i].Mode
	}
	return nil
}

// #endregion extract
