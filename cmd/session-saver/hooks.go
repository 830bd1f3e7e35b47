package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/boshu2/session-saver/internal/config"
	"github.com/boshu2/session-saver/internal/hook"
)

// hookFunc handles one decoded, complete hook request.
type hookFunc func(cmd *cobra.Command, req *hook.Request, cfg *config.Config, log zerolog.Logger) error

// runHook is the single failure boundary for hook commands. Malformed input,
// lock contention, config problems, write errors and panics all end as a
// diagnostic on stderr; the command itself always succeeds so Claude Code is
// never blocked.
func runHook(cmd *cobra.Command, name string, fn hookFunc) {
	log := newLogger(config.FromFlags(flagOverrides()), cmd.ErrOrStderr()).With().Str("hook", name).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Msg("unexpected error")
		}
	}()

	req, err := hook.ParseRequest(cmd.InOrStdin())
	if err != nil {
		log.Debug().Err(err).Msg("ignoring hook request")
		return
	}
	if !req.Complete() {
		log.Debug().Msg("hook request without session_id or cwd, nothing to do")
		return
	}

	cfg, cfgErr := loadConfig(req.Cwd)
	log = newLogger(cfg, cmd.ErrOrStderr()).With().Str("hook", name).Logger()
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("configuration problems, using defaults where invalid")
	}

	if err := fn(cmd, req, cfg, log); err != nil {
		log.Warn().Err(err).Str("session_id", req.SessionID).Msg("hook did not complete")
	}
}
