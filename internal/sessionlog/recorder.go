package sessionlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/boshu2/session-saver/internal/lockfile"
)

// Outcome is the result of one Record call.
type Outcome int

const (
	// OutcomeSkipped means the request lacked a session id or project dir,
	// or the call failed before anything was written.
	OutcomeSkipped Outcome = iota
	// OutcomeBusy means another process held the lock.
	OutcomeBusy
	// OutcomeDuplicate means the tail entry already had this session id.
	OutcomeDuplicate
	// OutcomeAppended means an entry was added to an existing ledger.
	OutcomeAppended
	// OutcomeCreated means the entry is the first one of a new ledger file.
	OutcomeCreated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeBusy:
		return "busy"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeAppended:
		return "appended"
	case OutcomeCreated:
		return "created"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Saved reports whether the call wrote a new entry.
func (o Outcome) Saved() bool {
	return o == OutcomeAppended || o == OutcomeCreated
}

// Recorder appends session ids to per-project ledgers under the file lock.
type Recorder struct {
	fileName   string
	maxHistory int
	staleAfter time.Duration
	quarantine bool
	now        func() time.Time
	logger     zerolog.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithFileName sets the ledger file name inside the project directory.
func WithFileName(name string) RecorderOption {
	return func(r *Recorder) {
		if name != "" {
			r.fileName = name
		}
	}
}

// WithMaxHistory sets the retention bound.
func WithMaxHistory(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.maxHistory = n
		}
	}
}

// WithStaleAfter sets the lock reclaim threshold.
func WithStaleAfter(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		if d > 0 {
			r.staleAfter = d
		}
	}
}

// WithQuarantine keeps a corrupt ledger as <file>.corrupt-<timestamp>
// instead of silently overwriting it.
func WithQuarantine(enabled bool) RecorderOption {
	return func(r *Recorder) {
		r.quarantine = enabled
	}
}

// WithClock sets the time source for entry timestamps and lock staleness.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger zerolog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// NewRecorder creates a Recorder with the default file name, bound and stale
// threshold.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		fileName:   FileName,
		maxHistory: MaxHistory,
		staleAfter: lockfile.DefaultStaleAfter,
		now:        time.Now,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the ledger path for projectDir.
func (r *Recorder) Path(projectDir string) string {
	return filepath.Join(projectDir, r.fileName)
}

// Record adds sessionID to the ledger of projectDir unless it is already the
// most recent entry. Lock contention is not an error: it yields OutcomeBusy.
// The lock is released on every path.
func (r *Recorder) Record(projectDir, sessionID string) (Outcome, error) {
	if strings.TrimSpace(projectDir) == "" || strings.TrimSpace(sessionID) == "" {
		return OutcomeSkipped, nil
	}

	path := r.Path(projectDir)
	logger := r.logger.With().Str("path", path).Str("session_id", sessionID).Logger()

	lock, err := lockfile.Acquire(path,
		lockfile.WithStaleAfter(r.staleAfter),
		lockfile.WithClock(r.now),
		lockfile.WithLogger(logger),
	)
	if errors.Is(err, lockfile.ErrBusy) {
		logger.Debug().Msg("ledger locked by another process, skipping")
		return OutcomeBusy, nil
	}
	if err != nil {
		return OutcomeSkipped, err
	}
	defer lock.Release()

	// Existence is decided under the lock so two first writers cannot both
	// report a new file.
	newFile := !exists(path)
	log := r.load(path, logger)

	if !log.AppendIfNew(NewEntry(sessionID, projectDir, r.now()), r.maxHistory) {
		logger.Debug().Msg("session already recorded")
		return OutcomeDuplicate, nil
	}

	if err := Persist(path, log); err != nil {
		return OutcomeSkipped, fmt.Errorf("persist session log: %w", err)
	}

	logger.Debug().Int("entries", log.Len()).Bool("new_file", newFile).Msg("session recorded")
	if newFile {
		return OutcomeCreated, nil
	}
	return OutcomeAppended, nil
}

func (r *Recorder) load(path string, logger zerolog.Logger) *Log {
	log, err := Read(path)
	switch {
	case err == nil:
		return log
	case errors.Is(err, os.ErrNotExist):
		return New()
	case errors.Is(err, ErrCorrupt) && r.quarantine:
		dest := quarantinePath(path, r.now())
		if renameErr := os.Rename(path, dest); renameErr != nil {
			logger.Warn().Err(renameErr).Msg("could not quarantine corrupt session log")
		} else {
			logger.Warn().Err(err).Str("quarantine", dest).Msg("quarantined corrupt session log")
		}
		return New()
	default:
		logger.Warn().Err(err).Msg("discarding unreadable session log")
		return New()
	}
}

// quarantinePath names the place a corrupt ledger is moved to. The random
// suffix keeps two quarantines within the same second apart.
func quarantinePath(path string, now time.Time) string {
	return fmt.Sprintf("%s.corrupt-%s-%s", path, now.UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
