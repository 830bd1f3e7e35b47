package sessionlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Read parses the document at path. A missing file is reported with an error
// matching os.ErrNotExist; invalid JSON or a wrong shape matches ErrCorrupt.
func Read(path string) (*Log, error) {
	// #nosec G304 -- path is the ledger inside the caller-supplied project dir.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session log: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrCorrupt)
	}
	if err := validateDocument(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	log, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return log, nil
}

// decode splits a validated document into its top-level members, in order,
// and the sessions array. A repeated key keeps its first position and its
// last value.
func decode(data []byte) (*Log, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, errors.New("document is not an object")
	}

	log := New()
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}

		if key == sessionsKey {
			var sessions []Entry
			if err := json.Unmarshal(value, &sessions); err != nil {
				return nil, err
			}
			if sessions != nil {
				log.Sessions = sessions
			}
			value = nil
		}
		if i, seen := index[key]; seen {
			log.members[i].value = value
			continue
		}
		index[key] = len(log.members)
		log.members = append(log.members, member{key: key, value: value})
	}
	return log, nil
}

// Load reads the document at path and falls back to an empty log on any
// failure, discarding unreadable history.
func Load(path string) *Log {
	log, err := Read(path)
	if err != nil {
		return New()
	}
	return log
}

// Persist replaces the document at path. The bytes go to a sibling temp file
// opened with O_EXCL and O_NOFOLLOW at mode 0600, are fsynced, and are renamed
// over path, so readers see either the old or the new document. A symbolic
// link at path is refused with ErrSymlink.
func Persist(path string, log *Log) error {
	if err := refuseSymlink(path); err != nil {
		return err
	}

	data, err := encode(log)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+".tmp-"+uuid.NewString())
	if err := writeTempFile(tmpPath, data); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath) //nolint:errcheck // cleanup in error path
		return fmt.Errorf("rename session log: %w", err)
	}

	syncDirectory(dir)
	return nil
}

func refuseSymlink(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat session log: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("%w: %s", ErrSymlink, path)
	}
	return nil
}

// encode renders the document with two-space indentation and a trailing
// newline, leaving non-ASCII and HTML characters unescaped. Top-level keys
// keep their order; sessions is written first in a new document.
func encode(log *Log) ([]byte, error) {
	sessions := log.Sessions
	if sessions == nil {
		sessions = []Entry{}
	}
	members := log.members
	if len(members) == 0 {
		members = []member{{key: sessionsKey}}
	}

	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			compact.WriteByte(',')
		}
		key, err := marshal(m.key)
		if err != nil {
			return nil, fmt.Errorf("encode session log: %w", err)
		}
		value := []byte(m.value)
		if m.key == sessionsKey {
			if value, err = marshal(sessions); err != nil {
				return nil, fmt.Errorf("encode session log: %w", err)
			}
		}
		compact.Write(key)
		compact.WriteByte(':')
		compact.Write(value)
	}
	compact.WriteByte('}')

	var buf bytes.Buffer
	if err := json.Indent(&buf, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("encode session log: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// marshal is json.Marshal without HTML escaping.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// writeTempFile creates tmpPath exclusively, writes data, syncs and closes.
// The temp file is removed on any failure.
func writeTempFile(tmpPath string, data []byte) error {
	// #nosec G304 -- temp path is a fresh sibling of the ledger.
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL|noFollow, 0o600)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()          //nolint:errcheck // cleanup in error path
		_ = os.Remove(tmpPath) //nolint:errcheck // cleanup in error path
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()          //nolint:errcheck // cleanup in error path
		_ = os.Remove(tmpPath) //nolint:errcheck // cleanup in error path
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath) //nolint:errcheck // cleanup in error path
		return fmt.Errorf("close temp file: %w", err)
	}
	return nil
}

// syncDirectory flushes the rename to disk where the platform allows it.
func syncDirectory(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()  //nolint:errcheck // best-effort durability
	_ = d.Close() //nolint:errcheck // read-only handle
}
