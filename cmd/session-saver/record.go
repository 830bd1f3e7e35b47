package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/boshu2/session-saver/internal/config"
	"github.com/boshu2/session-saver/internal/hook"
	"github.com/boshu2/session-saver/internal/sessionlog"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record the current session id (UserPromptSubmit hook)",
	Long: `Read a Claude Code hook payload from stdin and append its session_id to
<cwd>/.claude-sessions.json, unless it is already the most recent entry.

Only the last 100 sessions are kept (max_history). Concurrent invocations
coordinate through <file>.lock; an invocation that finds the lock held does
nothing. A lock older than 5 minutes (stale_lock_after) is reclaimed.

The command always exits 0. When the ledger file is created, a one-time hint
to add it to .gitignore is printed to stderr.

Examples:
  echo '{"session_id":"abc","cwd":"'"$PWD"'"}' | session-saver record
  session-saver record -v < payload.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runHook(cmd, "record", recordSession)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
}

func recordSession(cmd *cobra.Command, req *hook.Request, cfg *config.Config, log zerolog.Logger) error {
	outcome, err := newRecorder(cfg, log).Record(req.Cwd, req.SessionID)
	if err != nil {
		return err
	}
	log.Debug().Str("outcome", outcome.String()).Str("session_id", req.SessionID).Msg("record finished")

	if outcome == sessionlog.OutcomeCreated && cfg.AdvisoryEnabled() {
		fmt.Fprintf(cmd.ErrOrStderr(),
			"[session-saver] created %s; consider ignoring it in version control: echo '%s' >> .gitignore\n",
			cfg.SessionsFile, cfg.SessionsFile)
	}
	return nil
}
