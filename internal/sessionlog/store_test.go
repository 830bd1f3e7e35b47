package sessionlog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), FileName))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.False(t, errors.Is(err, ErrCorrupt))
}

func TestReadRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "invalid json", content: `{"sessions": [`},
		{name: "empty file", content: ``},
		{name: "top-level array", content: `[]`},
		{name: "missing sessions key", content: `{"entries": []}`},
		{name: "sessions not an array", content: `{"sessions": "abc"}`},
		{name: "sessions null", content: `{"sessions": null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := Read(path)
			assert.ErrorIs(t, err, ErrCorrupt)

			assert.Equal(t, 0, Load(path).Len(), "Load must fall back to an empty log")
		})
	}
}

func TestReadValidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := `{"sessions": [
  {"session_id": "a", "started_at": "2026-10-19T09:00:00.000000+09:00", "project_path": "/p"},
  {"session_id": "b", "started_at": "2026-10-19T10:00:00+09:00", "project_path": "/p"}
]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	log, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, 2, log.Len())
	assert.Equal(t, "2026-10-19T10:00:00+09:00", log.Sessions[1].StartedAt, "timestamps are kept verbatim")
}

func TestReadToleratesOddEntries(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{name: "entry not an object", content: `{"sessions": [1, "x", null]}`, want: []string{"", "", ""}},
		{name: "entry without session id", content: `{"sessions": [{"project_path": "/x"}, {"session_id": "a"}]}`, want: []string{"", "a"}},
		{name: "numeric session id", content: `{"sessions": [{"session_id": 42}]}`, want: []string{""}},
		{name: "null session id", content: `{"sessions": [{"session_id": null}]}`, want: []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			log, err := Read(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(log))
			assert.False(t, log.Contains(""), "entries without an id never match")
		})
	}
}

func TestAppendIfNewAfterOddTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"sessions": [{"session_id": "a"}, {"note": "no id"}]}`), 0o600))

	log, err := Read(path)
	require.NoError(t, err)
	assert.True(t, log.AppendIfNew(entry(""), MaxHistory), "a tail without an id is never equal")
	assert.True(t, log.AppendIfNew(entry("a"), MaxHistory))
	assert.Equal(t, 4, log.Len())
}

func TestPersistKeepsExistingEntriesVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	seed := `{"version": 2, "sessions": [
  {"session_id": "old", "project_path": "/p", "note": "x <y>"},
  {"project_path": "/q"},
  7
], "owner": {"name": "me"}}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	log, err := Read(path)
	require.NoError(t, err)
	require.True(t, log.AppendIfNew(entry("new"), MaxHistory))
	require.NoError(t, Persist(path, log))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `{
  "version": 2,
  "sessions": [
    {
      "session_id": "old",
      "project_path": "/p",
      "note": "x <y>"
    },
    {
      "project_path": "/q"
    },
    7,
    {
      "session_id": "new",
      "started_at": "2026-10-19T09:00:00.000000+00:00",
      "project_path": "/work/project"
    }
  ],
  "owner": {
    "name": "me"
  }
}
`
	assert.Equal(t, want, string(raw))
}

func TestPersistBoundDropsOnlyOldest(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	seed := `{"sessions": [{"session_id": "a", "extra": 1}, {"session_id": "b", "extra": 2}]}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	log, err := Read(path)
	require.NoError(t, err)
	require.True(t, log.AppendIfNew(entry("c"), 2))
	require.NoError(t, Persist(path, log))

	var doc struct {
		Sessions []map[string]any `json:"sessions"`
	}
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc.Sessions, 2)
	assert.Equal(t, map[string]any{"session_id": "b", "extra": float64(2)}, doc.Sessions[0])
	assert.Equal(t, "c", doc.Sessions[1]["session_id"])
}

func TestReadEmptySessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"sessions": []}`), 0o600))

	log, err := Read(path)
	require.NoError(t, err)
	assert.NotNil(t, log.Sessions)
	assert.Equal(t, 0, log.Len())
}

func TestPersistFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	log := New()
	log.AppendIfNew(Entry{SessionID: "a<b>&", StartedAt: "2026-10-19T09:00:00.000000+09:00", ProjectPath: "/プロジェクト"}, MaxHistory)

	require.NoError(t, Persist(path, log))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `{
  "sessions": [
    {
      "session_id": "a<b>&",
      "started_at": "2026-10-19T09:00:00.000000+09:00",
      "project_path": "/プロジェクト"
    }
  ]
}
`
	assert.Equal(t, want, string(raw))
}

func TestPersistEmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	require.NoError(t, Persist(path, &Log{}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sessions": []}`, string(raw))
}

func TestPersistOwnerOnlyPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	path := filepath.Join(t.TempDir(), FileName)

	require.NoError(t, Persist(path, New()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestPersistLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	for i := 0; i < 3; i++ {
		require.NoError(t, Persist(path, New()))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, FileName, entries[0].Name())
}

func TestPersistRefusesSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	outside := filepath.Join(t.TempDir(), "victim.txt")
	require.NoError(t, os.WriteFile(outside, []byte("untouched"), 0o600))

	path := filepath.Join(dir, FileName)
	require.NoError(t, os.Symlink(outside, path))

	err := Persist(path, New())
	assert.ErrorIs(t, err, ErrSymlink)

	raw, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, "untouched", string(raw))

	info, err := os.Lstat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "symlink must be left in place")
}

func TestPersistMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", FileName)
	assert.Error(t, Persist(path, New()))
}

func TestPersistThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	log := New()
	log.AppendIfNew(entry("a"), MaxHistory)
	log.AppendIfNew(entry("b"), MaxHistory)
	require.NoError(t, Persist(path, log))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, ids(log), ids(got))
	assert.Equal(t, log.Sessions[1].StartedAt, got.Sessions[1].StartedAt)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(raw))
}
