package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTask() *Task {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &Task{
		Core: Core{
			ID:    "150-wave1-auth",
			State: "todo",
			Metadata: Metadata{
				CreatedAt: now,
				UpdatedAt: now,
				CreatedBy: "orchestrator",
			},
			StateHistory: []HistoryEntry{},
		},
		Title:    "Implement auth",
		Wave:     "wave1",
		ChildIDs: []string{},
		Body:     "## Notes\n\nSome body text.\n",
	}
}

func TestTask_RoundTrip(t *testing.T) {
	original := sampleTask()
	encoded, err := EncodeTask(original)
	require.NoError(t, err)

	decoded, err := DecodeTask(encoded)
	require.NoError(t, err)

	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, original.State, decoded.State)
	assert.Equal(t, original.Title, decoded.Title)
	assert.Equal(t, original.Wave, decoded.Wave)
	assert.True(t, original.Metadata.CreatedAt.Equal(decoded.Metadata.CreatedAt))
	assert.Equal(t, original.Body, decoded.Body)

	reEncoded, err := EncodeTask(decoded)
	require.NoError(t, err)
	assert.Equal(t, encoded, reEncoded)
}

func TestTask_RoundTrip_EveryLegalState(t *testing.T) {
	for _, state := range []string{"todo", "wip", "done", "validated", "blocked"} {
		task := sampleTask()
		task.State = state
		encoded, err := EncodeTask(task)
		require.NoError(t, err)
		decoded, err := DecodeTask(encoded)
		require.NoError(t, err)
		assert.Equal(t, state, decoded.State)
	}
}

func TestQA_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	original := &QARecord{
		Core: Core{
			ID:    "T1-qa",
			State: "waiting",
			Metadata: Metadata{CreatedAt: now, UpdatedAt: now},
		},
		TaskID:       "T1",
		CurrentRound: 0,
		Body:         "## Validators\n- sec\n",
	}
	encoded, err := EncodeQA(original)
	require.NoError(t, err)
	decoded, err := DecodeQA(encoded)
	require.NoError(t, err)

	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, original.TaskID, decoded.TaskID)
	assert.Equal(t, original.Body, decoded.Body)
}

func TestSession_RoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	original := &Session{
		Core: Core{
			ID:       "s1",
			State:    "wip",
			Metadata: Metadata{CreatedAt: now, UpdatedAt: now},
		},
		Owner:        "u1",
		WorktreeBase: "/repo",
		Tasks:        map[string]SessionTaskEntry{"t1": {ID: "t1", State: "wip"}},
		QA:           map[string]SessionQAEntry{},
		ActivityLog:  []ActivityLogEntry{{Timestamp: now.Format(time.RFC3339), Message: "claimed"}},
		Meta:         SessionMeta{SessionID: "s1", Status: "wip"},
	}
	encoded, err := EncodeSession(original)
	require.NoError(t, err)
	decoded, err := DecodeSession(encoded)
	require.NoError(t, err)

	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, original.Owner, decoded.Owner)
	assert.Equal(t, original.Tasks, decoded.Tasks)

	reEncoded, err := EncodeSession(decoded)
	require.NoError(t, err)
	assert.Equal(t, encoded, reEncoded)
}

func TestValidateID_RejectsUnsafeIDs(t *testing.T) {
	bad := []string{"", "../x", "a/b", "a\\b", "-leading", "has..dots"}
	for _, id := range bad {
		assert.Error(t, ValidateID(id), "expected rejection for %q", id)
	}
	good := []string{"150-wave1-auth", "T1-qa", "a.b.c", "A1"}
	for _, id := range good {
		assert.NoError(t, ValidateID(id), "expected acceptance for %q", id)
	}
}
