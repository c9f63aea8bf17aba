package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/config"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/narrative"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/session"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/state"
)

var (
	verbose   bool
	sessionID string
	tickEvery time.Duration

	cfg    config.Config
	logger *zap.Logger
)

// #region main

var rootCmd = &cobra.Command{
	Use:   "controller",
	Short: "Interactive session host",
	Long: `Runs one session interactively. Every event is journaled and the
snapshot is saved on exit, so a session can be resumed with --session and
replayed later with the replay tool.`,
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
	RunE: runController,
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.Flags().StringVar(&sessionID, "session", "", "resume this session instead of starting a new one")
	rootCmd.Flags().DurationVar(&tickEvery, "tick", 250*time.Millisecond, "override poll interval")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// #endregion main

// #region run

func runController(cmd *cobra.Command, args []string) error {
	store, err := state.NewStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	table, err := cfg.Table()
	if err != nil {
		return err
	}
	c := session.New(
		session.WithLogger(logger.Named("session")),
		session.WithTable(table),
	)
	announce(c, os.Stdout)

	h, err := newHost(cfg, store, c, sessionID, logger, os.Stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.NarrativeAddr != "" {
		story, err := narrative.NewClient(cfg.NarrativeAddr)
		if err != nil {
			return err
		}
		defer story.Close()
		h.story = story

		probe, cancel := context.WithTimeout(ctx, 2*time.Second)
		ready, err := story.Ready(probe)
		cancel()
		if err != nil || !ready {
			logger.Warn("narrative service not ready", zap.String("addr", cfg.NarrativeAddr), zap.Error(err))
		}
	}

	fmt.Println("Session controller ready.")
	fmt.Printf("  Session: %s | DB: %s | Narrative: %s\n", h.sessionID, cfg.DBPath, orNone(cfg.NarrativeAddr))
	fmt.Println("Type a command (help for the list, quit to exit):")

	var wg sync.WaitGroup
	tickCtx, stopTicks := context.WithCancel(ctx)
	wg.Add(1)
	go h.tickLoop(tickCtx, tickEvery, &wg)

	err = h.run(ctx, os.Stdin)
	stopTicks()
	wg.Wait()
	return err
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// #endregion run
