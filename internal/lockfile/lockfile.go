// Package lockfile provides cross-process mutual exclusion through an
// exclusively created marker file next to the protected file.
//
// Acquisition never waits. A marker that already exists makes Acquire return
// ErrBusy, unless its modification time is older than the stale threshold, in
// which case it is treated as abandoned by a crashed holder, removed, and
// creation is attempted exactly once more. Reclaiming processes take turns
// through a second marker, <path>.lock.reclaim.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	// Suffix is appended to the protected path to form the marker path.
	Suffix = ".lock"

	// DefaultStaleAfter is the age after which a marker is reclaimed.
	DefaultStaleAfter = 5 * time.Minute

	reclaimSuffix = ".reclaim"
)

type options struct {
	staleAfter time.Duration
	now        func() time.Time
	logger     zerolog.Logger
}

// Option configures Acquire and Inspect.
type Option func(*options)

// WithStaleAfter overrides DefaultStaleAfter. Non-positive values are ignored.
func WithStaleAfter(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.staleAfter = d
		}
	}
}

// WithClock sets the time source used for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger used for reclaim diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	o := options{
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Lock is a held marker. Release it exactly once; extra calls are no-ops.
type Lock struct {
	path     string
	released bool
}

// PathFor returns the marker path protecting target.
func PathFor(target string) string {
	return target + Suffix
}

// Acquire takes the marker for target or returns ErrBusy.
func Acquire(target string, opts ...Option) (*Lock, error) {
	o := newOptions(opts)
	lockPath := PathFor(target)

	err := create(lockPath)
	if err == nil {
		return &Lock{path: lockPath}, nil
	}
	if !isContention(err, lockPath) {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}

	if !isStale(lockPath, o.now(), o.staleAfter) {
		return nil, ErrBusy
	}

	o.logger.Warn().Str("lock", lockPath).Dur("stale_after", o.staleAfter).Msg("reclaiming stale lock")
	if !reclaim(lockPath, o) {
		return nil, ErrBusy
	}
	return &Lock{path: lockPath}, nil
}

// Path returns the marker path.
func (l *Lock) Path() string {
	return l.path
}

// Release removes the marker. Removal errors are ignored: a marker left
// behind is reclaimed once it turns stale.
func (l *Lock) Release() {
	if l == nil || l.released {
		return
	}
	l.released = true
	_ = os.Remove(l.path) //nolint:errcheck // best-effort cleanup
}

// reclaim replaces a stale marker with a fresh one held by the caller.
// Reclaimers serialize through a guard marker and check staleness again under
// it, so a marker that another reclaimer has just replaced is never removed.
func reclaim(lockPath string, o options) bool {
	guard := lockPath + reclaimSuffix
	if err := create(guard); err != nil {
		if isStale(guard, o.now(), o.staleAfter) {
			// Left by a reclaimer that died; the next attempt may proceed.
			_ = os.Remove(guard) //nolint:errcheck // best-effort cleanup
		}
		return false
	}
	defer os.Remove(guard) //nolint:errcheck // best-effort cleanup

	if !isStale(lockPath, o.now(), o.staleAfter) {
		return false
	}
	if err := os.Remove(lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false
	}
	// Fails when a plain Acquire slipped in after the removal; it holds the lock.
	return create(lockPath) == nil
}

func create(lockPath string) error {
	// #nosec G304 -- lock path is derived from the protected file path.
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	return f.Close()
}

// isContention reports whether a create failure means the marker exists.
// Some platforms report EACCES for an existing file in a pending-delete state.
func isContention(err error, lockPath string) bool {
	if errors.Is(err, os.ErrExist) {
		return true
	}
	if !errors.Is(err, os.ErrPermission) {
		return false
	}
	_, statErr := os.Lstat(lockPath)
	return statErr == nil
}

func isStale(lockPath string, now time.Time, staleAfter time.Duration) bool {
	info, err := os.Lstat(lockPath)
	if err != nil {
		return false
	}
	return now.Sub(info.ModTime()) > staleAfter
}
