package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/session-saver/internal/config"
	"github.com/boshu2/session-saver/internal/formatter"
)

var configShow bool

var configCmd = &cobra.Command{
	Use:   "config [project-dir]",
	Short: "Show configuration",
	Long: `View session-saver configuration.

Configuration priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (SESSION_SAVER_*)
  3. Project config (<project>/.session-saver/config.yaml)
  4. Home config (~/.session-saver/config.yaml)
  5. Defaults

Environment variables:
  SESSION_SAVER_CONFIG             - Explicit config file path (replaces the project config)
  SESSION_SAVER_OUTPUT             - Default output format (table, json, yaml)
  SESSION_SAVER_VERBOSE            - Verbose diagnostics (true/1)
  SESSION_SAVER_LOG_LEVEL          - Diagnostic level (debug, info, warn, error)
  SESSION_SAVER_SESSIONS_FILE      - Ledger file name (default: .claude-sessions.json)
  SESSION_SAVER_MAX_HISTORY        - Retained sessions (default: 100)
  SESSION_SAVER_STALE_LOCK_AFTER   - Lock reclaim age (default: 5m)
  SESSION_SAVER_QUARANTINE_CORRUPT - Keep corrupt ledgers as <file>.corrupt-<time> (true/false)
  SESSION_SAVER_ADVISORY           - Print the .gitignore hint on first record (true/false)

Examples:
  session-saver config --show           # Show resolved configuration
  session-saver config --show -o json   # Output as JSON`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&configShow, "show", false, "Show resolved configuration with sources")
}

func runConfig(cmd *cobra.Command, args []string) error {
	if !configShow {
		return cmd.Help()
	}

	projectDir := ""
	if len(args) == 1 {
		projectDir = args[0]
	}

	resolved := config.Resolve(projectDir, flagOverrides())
	format, _ := resolved.Output.Value.(string)
	if format == formatter.FormatJSON || format == formatter.FormatYAML {
		return formatter.Encode(cmd.OutOrStdout(), format, resolved)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "session-saver Configuration")
	fmt.Fprintln(out, "===========================")
	fmt.Fprintln(out)

	home, project, homeFound, projectFound := config.ConfigFileStatus(projectDir)
	fmt.Fprintln(out, "Config files:")
	fmt.Fprintf(out, "  %s Home:    %s%s\n", mark(homeFound), home, missing(homeFound))
	fmt.Fprintf(out, "  %s Project: %s%s\n", mark(projectFound), project, missing(projectFound))

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Resolved values:")
	rows := []struct {
		key   string
		value interface{}
		src   config.Source
	}{
		{"output", resolved.Output.Value, resolved.Output.Source},
		{"verbose", resolved.Verbose.Value, resolved.Verbose.Source},
		{"log_level", resolved.LogLevel.Value, resolved.LogLevel.Source},
		{"sessions_file", resolved.SessionsFile.Value, resolved.SessionsFile.Source},
		{"max_history", resolved.MaxHistory.Value, resolved.MaxHistory.Source},
		{"stale_lock_after", resolved.StaleLockAfter.Value, resolved.StaleLockAfter.Source},
		{"quarantine_corrupt", resolved.QuarantineCorrupt.Value, resolved.QuarantineCorrupt.Source},
		{"advisory", resolved.Advisory.Value, resolved.Advisory.Source},
	}
	for _, r := range rows {
		fmt.Fprintf(out, "  %-19s %v  (from %s)\n", r.key+":", r.value, r.src)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Environment variables (if set):")
	anySet := false
	for _, env := range config.EnvVars() {
		if v := os.Getenv(env); v != "" {
			fmt.Fprintf(out, "  %s=%s\n", env, v)
			anySet = true
		}
	}
	if !anySet {
		fmt.Fprintln(out, "  (none set)")
	}

	return nil
}

func mark(found bool) string {
	if found {
		return "✓"
	}
	return "✗"
}

func missing(found bool) string {
	if found {
		return ""
	}
	return " (not found)"
}
