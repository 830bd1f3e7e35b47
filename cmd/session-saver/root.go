package main

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/boshu2/session-saver/internal/config"
	"github.com/boshu2/session-saver/internal/logger"
	"github.com/boshu2/session-saver/internal/sessionlog"
)

var (
	// Global flags
	verbose  bool
	output   string
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "session-saver",
	Short: "Record Claude Code session ids per project",
	Long: `session-saver keeps a small ledger of Claude Code session ids in each
project's .claude-sessions.json, so a past session can be found and resumed.

Hook Commands (always exit 0, never block Claude Code):
  record       UserPromptSubmit hook: record the current session once
  check        Stop hook: remind when the session is missing from the ledger

Inspection:
  list         Show recorded sessions for one or more projects
  status       Show ledger and lock state for a project
  config       Show resolved configuration
  version      Show version information

Hook setup (.claude/settings.json):
  "UserPromptSubmit": [{"hooks": [{"type": "command", "command": "session-saver record"}]}]`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		syncConfigFlagToEnv()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose diagnostics on stderr")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: <project>/.session-saver/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level (debug, info, warn, error)")
}

func syncConfigFlagToEnv() {
	path := strings.TrimSpace(cfgFile)
	if path == "" {
		return
	}
	_ = os.Setenv(config.EnvConfig, path)
}

// flagOverrides returns the global flags as the highest-priority config layer.
func flagOverrides() *config.Config {
	return &config.Config{
		Output:   output,
		Verbose:  verbose,
		LogLevel: logLevel,
	}
}

// loadConfig resolves configuration for projectDir ("" means the working directory).
func loadConfig(projectDir string) (*config.Config, error) {
	return config.Load(projectDir, flagOverrides())
}

// newLogger builds the diagnostics logger. --verbose switches to console
// output and lifts the default level to debug.
func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level := cfg.LogLevel
	if cfg.Verbose && strings.TrimSpace(logLevel) == "" && logger.ParseLevel(level) == logger.DefaultLevel {
		level = "debug"
	}
	return logger.New(logger.Config{
		Level:  level,
		Pretty: cfg.Verbose,
		Out:    w,
	})
}

// newRecorder builds a Recorder from the resolved configuration.
func newRecorder(cfg *config.Config, log zerolog.Logger) *sessionlog.Recorder {
	return sessionlog.NewRecorder(
		sessionlog.WithFileName(cfg.SessionsFile),
		sessionlog.WithMaxHistory(cfg.MaxHistory),
		sessionlog.WithStaleAfter(cfg.StaleAfter()),
		sessionlog.WithQuarantine(cfg.QuarantineEnabled()),
		sessionlog.WithLogger(log),
	)
}
