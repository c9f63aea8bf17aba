package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/cyberscape/session-controller/internal/config"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/eval"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/logging"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/mode"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/reputation"
	"github.com/danielpatrickdp/cyberscape/session-controller/internal/state"
)

var (
	verbose      bool
	dbPath       string
	lastVersions int
	lastEvents   int
	jsonOut      bool

	cfg    config.Config
	logger *zap.Logger
	store  *state.Store
)

// #region main

var rootCmd = &cobra.Command{
	Use:          "inspect",
	Short:        "Inspect stored sessions, snapshot versions and the event journal",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		if logger, err = cfg.Logger(verbose); err != nil {
			return err
		}
		if cmd.Name() == "table" {
			return nil
		}
		if dbPath == "" {
			dbPath = cfg.DBPath
		}
		store, err = state.NewStore(dbPath)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions by most recent save",
	RunE:  runSessions,
}

var versionsCmd = &cobra.Command{
	Use:   "versions <session-id>",
	Short: "List a session's snapshot versions, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersions,
}

var showCmd = &cobra.Command{
	Use:   "show <version-id>",
	Short: "Show one snapshot version with its eval metrics",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var journalCmd = &cobra.Command{
	Use:   "journal <session-id>",
	Short: "Print a session's event journal in order",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournal,
}

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print the transition table in effect (SESSION_TABLE_FILE applied)",
	RunE:  runTable,
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "session database (defaults to SESSION_DB)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")
	versionsCmd.Flags().IntVar(&lastVersions, "last", 20, "show N most recent versions")
	journalCmd.Flags().IntVar(&lastEvents, "last", 0, "show only the first N entries (0 = all)")

	rootCmd.AddCommand(sessionsCmd, versionsCmd, showCmd, journalCmd, tableCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// #endregion main

// #region sessions

func runSessions(cmd *cobra.Command, args []string) error {
	sessions, err := store.ListSessions()
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(sessions)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stderr, "no sessions found")
		return nil
	}

	fmt.Printf("%-36s  %-8s  %-18s  %-10s  %8s  %s\n", "Session", "Version", "Mode", "Profile", "Versions", "Updated")
	for _, s := range sessions {
		fmt.Printf("%-36s  %-8s  %-18s  %-10s  %8d  %s\n",
			s.SessionID, shortID(s.VersionID), s.Mode, s.Profile, s.Versions, formatTime(s.UpdatedAt))
	}
	return nil
}

// #endregion sessions

// #region versions

type versionRow struct {
	VersionID   string  `json:"version_id"`
	ParentID    string  `json:"parent_id,omitempty"`
	Mode        string  `json:"mode"`
	Profile     string  `json:"profile"`
	Instability float64 `json:"instability"`
	Alignment   string  `json:"alignment,omitempty"`
	Stage       int     `json:"stage,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func runVersions(cmd *cobra.Command, args []string) error {
	records, err := store.ListVersions(args[0], lastVersions)
	if err != nil {
		return err
	}

	// Store returns DESC; print chronologically.
	rows := make([]versionRow, len(records))
	for i, rec := range records {
		row := versionRow{
			VersionID:   rec.VersionID,
			ParentID:    rec.ParentID,
			Mode:        rec.Mode.String(),
			Profile:     rec.Profile.String(),
			Instability: rec.Snapshot.Instability,
			CreatedAt:   formatTime(rec.CreatedAt),
		}
		if r := rec.Snapshot.Role; r != nil {
			row.Alignment = string(r.Alignment)
			row.Stage = r.Stage
		}
		rows[len(records)-1-i] = row
	}

	if jsonOut {
		return printJSON(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(os.Stderr, "no versions found")
		return nil
	}
	fmt.Printf("%-8s  %-8s  %-18s  %-10s  %11s  %-10s  %5s  %s\n",
		"Version", "Parent", "Mode", "Profile", "Instability", "Alignment", "Stage", "Time")
	for _, r := range rows {
		parent := shortID(r.ParentID)
		if parent == "" {
			parent = "-"
		}
		fmt.Printf("%-8s  %-8s  %-18s  %-10s  %11.3f  %-10s  %5d  %s\n",
			shortID(r.VersionID), parent, r.Mode, r.Profile, r.Instability, r.Alignment, r.Stage, r.CreatedAt)
	}
	return nil
}

// #endregion versions

// #region show

type showOutput struct {
	VersionID string            `json:"version_id"`
	ParentID  string            `json:"parent_id,omitempty"`
	SessionID string            `json:"session_id"`
	CreatedAt string            `json:"created_at"`
	Snapshot  any               `json:"snapshot"`
	Metrics   []eval.EvalMetric `json:"metrics,omitempty"`
}

func runShow(cmd *cobra.Command, args []string) error {
	rec, err := store.GetVersion(args[0])
	if err != nil {
		return err
	}
	var metrics []eval.EvalMetric
	if rec.MetricsJSON != "" {
		if err := json.Unmarshal([]byte(rec.MetricsJSON), &metrics); err != nil {
			logger.Warn("unreadable metrics", zap.String("version_id", rec.VersionID), zap.Error(err))
		}
	}

	if jsonOut {
		return printJSON(showOutput{
			VersionID: rec.VersionID,
			ParentID:  rec.ParentID,
			SessionID: rec.SessionID,
			CreatedAt: formatTime(rec.CreatedAt),
			Snapshot:  rec.Snapshot,
			Metrics:   metrics,
		})
	}

	snap := rec.Snapshot
	fmt.Printf("Version:     %s\n", rec.VersionID)
	fmt.Printf("Parent:      %s\n", rec.ParentID)
	fmt.Printf("Session:     %s\n", rec.SessionID)
	fmt.Printf("Created:     %s\n", formatTime(rec.CreatedAt))
	fmt.Printf("Mode:        %s (previous %s)\n", snap.Current, snap.Previous)
	fmt.Printf("Profile:     %s\n", snap.Profile)
	fmt.Printf("Instability: %.3f\n", snap.Instability)
	fmt.Printf("Override:    active=%v readout=%.3f\n", snap.Override.Active, snap.Override.Readout)

	if r := snap.Role; r != nil {
		fmt.Printf("\nRole:\n")
		fmt.Printf("  Alignment:  %s\n", r.Alignment)
		fmt.Printf("  Commitment: %.3f\n", r.Commitment)
		fmt.Printf("  Mastery:    %.3f (stage %d)\n", r.Mastery, r.Stage)
		fmt.Printf("  Momentum:   %.3f\n", r.Drift.Momentum)
		fmt.Printf("  Abilities:  %s\n", strings.Join(r.Abilities, ", "))
		fmt.Printf("\nReputation:\n")
		for _, f := range reputation.Factions() {
			fmt.Printf("  %-12s %6.3f  %s\n", f, r.Reputation[f], r.Reputation.Standing(f))
		}
	}

	failed := 0
	for _, m := range metrics {
		if !m.Pass {
			failed++
		}
	}
	fmt.Printf("\nEval: %d checks, %d failed\n", len(metrics), failed)
	for _, m := range metrics {
		if !m.Pass {
			fmt.Printf("  FAIL %-24s %.4f\n", m.Name, m.Value)
		}
	}
	return nil
}

// #endregion show

// #region journal

func runJournal(cmd *cobra.Command, args []string) error {
	entries, err := logging.ListEvents(store.DB(), args[0], lastEvents)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no journal entries found")
		return nil
	}

	fmt.Printf("%-6s  %-15s  %-8s  %-20s  %s\n", "ID", "Kind", "Decision", "Time", "Reason")
	for _, e := range entries {
		reason := e.Reason
		if e.Kind == logging.KindSave {
			reason = "version " + shortID(e.VersionID)
		}
		fmt.Printf("%-6d  %-15s  %-8s  %-20s  %s\n", e.ID, e.Kind, e.Decision, formatTime(e.CreatedAt), reason)
	}
	return nil
}

// #endregion journal

// #region table

func runTable(cmd *cobra.Command, args []string) error {
	table, err := cfg.Table()
	if err != nil {
		return err
	}

	type tableRow struct {
		Mode            mode.Mode   `json:"mode"`
		Targets         []mode.Mode `json:"targets"`
		RequiresProfile bool        `json:"requires_profile"`
		Restrict        string      `json:"restrict,omitempty"`
		Ceiling         float64     `json:"ceiling"`
		SkillGated      bool        `json:"skill_gated"`
	}
	var rows []tableRow
	for _, m := range table.Sources() {
		r := table.Rule(m)
		row := tableRow{
			Mode:            m,
			Targets:         table.Targets(m),
			RequiresProfile: r.RequiresProfile,
			Ceiling:         r.Ceiling,
			SkillGated:      r.SkillGated,
		}
		if r.Restrict.Valid() {
			row.Restrict = r.Restrict.String()
		}
		rows = append(rows, row)
	}

	if jsonOut {
		return printJSON(rows)
	}
	fmt.Printf("%-18s  %-8s  %-10s  %7s  %-5s  %s\n", "Mode", "Profile", "Restrict", "Ceiling", "Skill", "Targets")
	for _, r := range rows {
		targets := make([]string, len(r.Targets))
		for i, t := range r.Targets {
			targets[i] = t.String()
		}
		restrict := r.Restrict
		if restrict == "" {
			restrict = "-"
		}
		fmt.Printf("%-18s  %-8v  %-10s  %7.2f  %-5v  %s\n",
			r.Mode, r.RequiresProfile, restrict, r.Ceiling, r.SkillGated, strings.Join(targets, ", "))
	}
	return nil
}

// #endregion table

// #region output

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// #endregion output
