// Package hook decodes the JSON payload Claude Code writes to a hook
// command's stdin.
package hook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// MaxRequestBytes caps how much of stdin is read. Prompts can be long, but a
// hook payload beyond this is not something we want to buffer.
const MaxRequestBytes = 8 << 20

// Request is the subset of the hook payload the session commands use.
type Request struct {
	SessionID      string `json:"session_id"`
	Cwd            string `json:"cwd"`
	HookEventName  string `json:"hook_event_name,omitempty"`
	TranscriptPath string `json:"transcript_path,omitempty"`
	Prompt         string `json:"prompt,omitempty"`
}

// Complete reports whether both the session id and working directory are set.
func (r *Request) Complete() bool {
	return r != nil && strings.TrimSpace(r.SessionID) != "" && strings.TrimSpace(r.Cwd) != ""
}

// ParseRequest reads one request from r.
func ParseRequest(r io.Reader) (*Request, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxRequestBytes))
	if err != nil {
		return nil, fmt.Errorf("read hook request: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, ErrEmptyRequest
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	return &req, nil
}
