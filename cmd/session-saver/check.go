package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/boshu2/session-saver/internal/config"
	"github.com/boshu2/session-saver/internal/hook"
	"github.com/boshu2/session-saver/internal/sessionlog"
)

const defaultCheckMessage = "[session-saver] session %s is not recorded in %s"

var checkMessage string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Remind when the session is missing from the ledger (Stop hook)",
	Long: `Read a Claude Code hook payload from stdin and print a reminder to stderr
when its session_id does not appear anywhere in <cwd>/.claude-sessions.json.

Useful as a Stop hook: a session can go unrecorded when its record invocation
found the ledger locked. The command always exits 0.

The reminder text can be replaced with --message; "%s" placeholders receive
the session id and the ledger file name.

Examples:
  session-saver check < payload.json
  session-saver check --message "run /resume-notes for %s"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runHook(cmd, "check", checkSession)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkMessage, "message", defaultCheckMessage, "Reminder printed when the session is missing")
}

func checkSession(cmd *cobra.Command, req *hook.Request, cfg *config.Config, log zerolog.Logger) error {
	path := filepath.Join(req.Cwd, cfg.SessionsFile)
	if sessionlog.Load(path).Contains(req.SessionID) {
		log.Debug().Str("session_id", req.SessionID).Msg("session recorded")
		return nil
	}

	fmt.Fprintln(cmd.ErrOrStderr(), reminder(checkMessage, req.SessionID, cfg.SessionsFile))
	return nil
}

// reminder fills up to two %s placeholders with the session id and file name.
func reminder(format, sessionID, file string) string {
	switch strings.Count(format, "%s") {
	case 0:
		return format
	case 1:
		return fmt.Sprintf(format, sessionID)
	default:
		return fmt.Sprintf(format, sessionID, file)
	}
}
