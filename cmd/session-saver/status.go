package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/boshu2/session-saver/internal/formatter"
	"github.com/boshu2/session-saver/internal/lockfile"
	"github.com/boshu2/session-saver/internal/sessionlog"
)

var statusCmd = &cobra.Command{
	Use:   "status [project-dir]",
	Short: "Show ledger and lock state",
	Long: `Show where the ledger lives, how many sessions it holds, the most recent
session, and whether a lock marker is present (and stale).

Examples:
  session-saver status
  session-saver status ~/src/api -o yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// StatusReport is the status output for one project.
type StatusReport struct {
	Path       string            `json:"path" yaml:"path"`
	Exists     bool              `json:"exists" yaml:"exists"`
	Corrupt    bool              `json:"corrupt" yaml:"corrupt"`
	Entries    int               `json:"entries" yaml:"entries"`
	MaxHistory int               `json:"max_history" yaml:"max_history"`
	Latest     *sessionlog.Entry `json:"latest,omitempty" yaml:"latest,omitempty"`
	Lock       lockfile.Status   `json:"lock" yaml:"lock"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	dir := ""
	if len(args) == 1 {
		dir = args[0]
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		dir = cwd
	}

	cfg, cfgErr := loadConfig(dir)
	log := newLogger(cfg, cmd.ErrOrStderr())
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("configuration problems, using defaults where invalid")
	}

	report, err := buildStatus(filepath.Join(dir, cfg.SessionsFile), cfg.MaxHistory, cfg.StaleAfter())
	if err != nil {
		return err
	}

	if cfg.Output != formatter.FormatTable {
		return formatter.Encode(cmd.OutOrStdout(), cfg.Output, report)
	}
	printStatus(cmd, report, cfg.StaleAfter())
	return nil
}

func buildStatus(path string, maxHistory int, staleAfter time.Duration) (StatusReport, error) {
	report := StatusReport{Path: path, MaxHistory: maxHistory}

	log, err := sessionlog.Read(path)
	switch {
	case err == nil:
		report.Exists = true
		report.Entries = log.Len()
		if tail, ok := log.Tail(); ok {
			report.Latest = &tail
		}
	case errors.Is(err, os.ErrNotExist):
	case errors.Is(err, sessionlog.ErrCorrupt):
		report.Exists = true
		report.Corrupt = true
	default:
		return report, err
	}

	lock, err := lockfile.Inspect(path, lockfile.WithStaleAfter(staleAfter))
	if err != nil {
		return report, err
	}
	report.Lock = lock
	return report, nil
}

func printStatus(cmd *cobra.Command, r StatusReport, staleAfter time.Duration) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Session Ledger")
	fmt.Fprintln(out, "==============")
	fmt.Fprintf(out, "  File:     %s\n", r.Path)

	switch {
	case !r.Exists:
		fmt.Fprintln(out, "  State:    not created yet")
	case r.Corrupt:
		fmt.Fprintln(out, "  State:    corrupt (next record starts a fresh ledger)")
	default:
		fmt.Fprintf(out, "  Entries:  %d / %d\n", r.Entries, r.MaxHistory)
	}
	if r.Latest != nil {
		fmt.Fprintf(out, "  Latest:   %s  (%s)\n", r.Latest.SessionID, r.Latest.StartedAt)
	}

	switch {
	case !r.Lock.Held:
		fmt.Fprintln(out, "  Lock:     free")
	case r.Lock.Stale:
		fmt.Fprintf(out, "  Lock:     stale, held %s (reclaimed after %s)\n", r.Lock.Age.Round(time.Second), staleAfter)
	default:
		fmt.Fprintf(out, "  Lock:     held for %s\n", r.Lock.Age.Round(time.Second))
	}
}
