package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAppendsParseableEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	trail := NewTrail(path)
	trail.now = func() time.Time { return time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC) }

	require.NoError(t, trail.Record(EventLoginGranted, "alice", "client"))
	require.NoError(t, trail.Record(EventLoginDenied, "mallory", "unknown username"))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var event Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		events = append(events, event)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, events, 2)

	assert.Equal(t, EventLoginGranted, events[0].Event)
	assert.Equal(t, "alice", events[0].Username)
	assert.Equal(t, "client", events[0].Detail)
	assert.Equal(t, time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), events[0].At)
	_, err = uuid.Parse(events[0].ID)
	assert.NoError(t, err)

	assert.Equal(t, EventLoginDenied, events[1].Event)
	assert.NotEqual(t, events[0].ID, events[1].ID)
}

func TestRecordCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit.log")
	trail := NewTrail(path)

	require.NoError(t, trail.Record(EventEnrollCompleted, "alice", "client"))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
