package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/boshu2/session-saver/internal/formatter"
	"github.com/boshu2/session-saver/internal/sessionlog"
	"github.com/boshu2/session-saver/internal/worker"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list [project-dir...]",
	Short: "Show recorded sessions",
	Long: `Show the sessions recorded in one or more project directories, oldest first.
Without arguments the current directory is used.

Ledgers are read without taking the lock; writes are atomic renames, so a
read always sees a complete document.

Examples:
  session-saver list
  session-saver list --limit 5
  session-saver list ~/src/api ~/src/web -o json`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Show only the N most recent sessions per project (0 = all)")
}

// ProjectSessions is the list output for one project directory.
type ProjectSessions struct {
	Project  string             `json:"project" yaml:"project"`
	Path     string             `json:"path" yaml:"path"`
	Sessions []sessionlog.Entry `json:"sessions" yaml:"sessions"`
	Error    string             `json:"error,omitempty" yaml:"error,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	dirs := args
	if len(dirs) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		dirs = []string{cwd}
	}

	cfg, cfgErr := loadConfig(dirs[0])
	log := newLogger(cfg, cmd.ErrOrStderr())
	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("configuration problems, using defaults where invalid")
	}

	pool := worker.NewPool[string, ProjectSessions](0)
	results := pool.Process(dirs, func(dir string) (ProjectSessions, error) {
		return readProject(dir, cfg.SessionsFile, listLimit), nil
	})

	projects := make([]ProjectSessions, 0, len(results))
	for _, r := range results {
		projects = append(projects, r.Value)
	}

	if cfg.Output != formatter.FormatTable {
		return formatter.Encode(cmd.OutOrStdout(), cfg.Output, projects)
	}
	return printListTable(cmd, projects)
}

func readProject(dir, fileName string, limit int) ProjectSessions {
	ps := ProjectSessions{
		Project:  dir,
		Path:     filepath.Join(dir, fileName),
		Sessions: []sessionlog.Entry{},
	}

	log, err := sessionlog.Read(ps.Path)
	switch {
	case err == nil:
		ps.Sessions = log.Newest(limit)
	case errors.Is(err, os.ErrNotExist):
	default:
		ps.Error = err.Error()
	}
	return ps
}

func printListTable(cmd *cobra.Command, projects []ProjectSessions) error {
	tbl := formatter.NewTable(cmd.OutOrStdout(), "SESSION", "STARTED", "PROJECT")
	tbl.SetMaxWidth(2, 60)
	for _, p := range projects {
		if p.Error != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s: %s\n", p.Path, p.Error)
			continue
		}
		for _, e := range p.Sessions {
			tbl.AddRow(e.SessionID, e.StartedAt, e.ProjectPath)
		}
	}
	if err := tbl.Render(); err != nil {
		return err
	}
	if tbl.Rows() == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded.")
	}
	return nil
}
