// Package audit appends a line-per-event JSON trail of login and enrollment
// activity. Recording is best effort; callers log failures and continue.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event names recorded by the workflows.
const (
	EventLoginGranted    = "login.granted"
	EventLoginDenied     = "login.denied"
	EventEnrollCompleted = "enroll.completed"
	EventEnrollRejected  = "enroll.rejected"
)

// Event is one line in the audit trail.
type Event struct {
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
	Event    string    `json:"event"`
	Username string    `json:"username"`
	Detail   string    `json:"detail,omitempty"`
}

// Trail appends events to a JSONL file.
type Trail struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

// NewTrail constructs a trail over the given file path.
func NewTrail(path string) *Trail {
	return &Trail{path: path, now: time.Now}
}

// Record appends one event. Timestamps are UTC.
func (t *Trail) Record(event, username, detail string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := Event{
		ID:       uuid.NewString(),
		At:       t.now().UTC(),
		Event:    event,
		Username: username,
		Detail:   detail,
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: encode event: %w", err)
	}
	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("audit: create %s: %w", dir, err)
		}
	}
	file, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("audit: open %s: %w", t.path, err)
	}
	if _, err := file.Write(append(line, '\n')); err != nil {
		file.Close()
		return fmt.Errorf("audit: append %s: %w", t.path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("audit: close %s: %w", t.path, err)
	}
	return nil
}
