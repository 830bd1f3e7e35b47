// Package sessionlog is the bounded, append-only ledger of Claude Code session
// ids kept in a project's .claude-sessions.json.
//
// The document is rewritten as a whole on every append. Writers serialize
// through a marker file (see package lockfile); readers never lock because
// every write lands through an atomic rename.
package sessionlog

import (
	"encoding/json"
	"time"
)

const (
	// FileName is the default ledger file name inside a project directory.
	FileName = ".claude-sessions.json"

	// MaxHistory bounds the number of retained entries.
	MaxHistory = 100

	// TimestampLayout formats started_at in local time with a numeric offset.
	TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

	sessionsKey = "sessions"
)

// Entry is one recorded session. Entries are never modified after append:
// an entry read from disk keeps its original JSON, including fields this
// package does not know, and is written back unchanged.
type Entry struct {
	SessionID   string `json:"session_id" yaml:"session_id"`
	StartedAt   string `json:"started_at" yaml:"started_at"`
	ProjectPath string `json:"project_path" yaml:"project_path"`

	raw    json.RawMessage
	opaque bool // no string session_id; never matches a session
}

// NewEntry builds an entry stamped with now in the local time zone.
func NewEntry(sessionID, projectPath string, now time.Time) Entry {
	return Entry{
		SessionID:   sessionID,
		StartedAt:   now.Local().Format(TimestampLayout),
		ProjectPath: projectPath,
	}
}

// entryFields is the JSON form of an Entry built by NewEntry.
type entryFields struct {
	SessionID   string `json:"session_id"`
	StartedAt   string `json:"started_at"`
	ProjectPath string `json:"project_path"`
}

// UnmarshalJSON accepts any JSON value. Known string fields are exposed; the
// value itself is kept verbatim.
func (e *Entry) UnmarshalJSON(data []byte) error {
	*e = Entry{raw: append(json.RawMessage(nil), data...)}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		e.opaque = true
		return nil
	}
	id, ok := stringField(fields, "session_id")
	e.SessionID, e.opaque = id, !ok
	e.StartedAt, _ = stringField(fields, "started_at")
	e.ProjectPath, _ = stringField(fields, "project_path")
	return nil
}

// MarshalJSON writes a read entry back exactly as it was read.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.raw != nil {
		return e.raw, nil
	}
	return marshal(entryFields{
		SessionID:   e.SessionID,
		StartedAt:   e.StartedAt,
		ProjectPath: e.ProjectPath,
	})
}

// matches reports whether e records sessionID.
func (e Entry) matches(sessionID string) bool {
	return !e.opaque && e.SessionID == sessionID
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil || s == nil {
		return "", false
	}
	return *s, true
}

// member is one top-level key of the document, kept in document order.
// The sessions member has no value of its own; it is filled from Sessions.
type member struct {
	key   string
	value json.RawMessage
}

// Log is the persisted document. Sessions are oldest first. Top-level keys
// other than sessions survive a rewrite untouched.
type Log struct {
	Sessions []Entry `json:"sessions" yaml:"sessions"`

	members []member
}

// New returns an empty log.
func New() *Log {
	return &Log{Sessions: []Entry{}}
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.Sessions)
}

// Tail returns the most recently appended entry.
func (l *Log) Tail() (Entry, bool) {
	if len(l.Sessions) == 0 {
		return Entry{}, false
	}
	return l.Sessions[len(l.Sessions)-1], true
}

// Contains reports whether any retained entry has the given session id.
func (l *Log) Contains(sessionID string) bool {
	for _, e := range l.Sessions {
		if e.matches(sessionID) {
			return true
		}
	}
	return false
}

// Newest returns up to n of the most recent entries, oldest first.
// n <= 0 returns every entry.
func (l *Log) Newest(n int) []Entry {
	if n <= 0 || n >= len(l.Sessions) {
		return l.Sessions
	}
	return l.Sessions[len(l.Sessions)-n:]
}

// AppendIfNew appends e unless the tail entry already carries its session id,
// then drops the oldest entries until at most max remain (MaxHistory when
// max <= 0). Only the tail is compared: a session that reappears after another
// one is recorded again. A tail without a session id never matches.
func (l *Log) AppendIfNew(e Entry, max int) bool {
	if tail, ok := l.Tail(); ok && tail.matches(e.SessionID) {
		return false
	}
	if max <= 0 {
		max = MaxHistory
	}

	l.Sessions = append(l.Sessions, e)
	if over := len(l.Sessions) - max; over > 0 {
		kept := make([]Entry, max)
		copy(kept, l.Sessions[over:])
		l.Sessions = kept
	}
	return true
}
