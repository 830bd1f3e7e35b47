package lockfile

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Status describes the marker protecting a file at one point in time.
type Status struct {
	Path       string        `json:"path" yaml:"path"`
	Held       bool          `json:"held" yaml:"held"`
	ModifiedAt time.Time     `json:"modified_at,omitempty" yaml:"modified_at,omitempty"`
	Age        time.Duration `json:"age,omitempty" yaml:"age,omitempty"`
	Stale      bool          `json:"stale" yaml:"stale"`
}

// Inspect reports the marker state for target without touching it.
func Inspect(target string, opts ...Option) (Status, error) {
	o := newOptions(opts)
	st := Status{Path: PathFor(target)}

	info, err := os.Lstat(st.Path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return st, fmt.Errorf("stat lock: %w", err)
	}

	st.Held = true
	st.ModifiedAt = info.ModTime()
	st.Age = o.now().Sub(info.ModTime())
	st.Stale = st.Age > o.staleAfter
	return st, nil
}
