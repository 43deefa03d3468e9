package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edison-run/edison/internal/entity"
	"github.com/edison-run/edison/internal/fsutil"
	"github.com/edison-run/edison/internal/statemachine"
)

func newTestTaskRepository(t *testing.T) *TaskRepository {
	t.Helper()
	root := t.TempDir()
	rt, err := statemachine.NewRuntime(testTaskSpec(), statemachine.NewRegistry())
	require.NoError(t, err)
	audit, err := NewAuditWriter(filepath.Join(root, ".project", "logs", "state-transitions.jsonl"))
	require.NoError(t, err)
	return NewTaskRepository(root, rt, audit, fsutil.LockOptions{Timeout: time.Second}, "todo")
}

func waveTask(id, wave, parentID string) *entity.Task {
	t := sampleTestTask(id)
	t.Wave = wave
	t.ParentID = parentID
	return t
}

func isDoneOrValidated(state string) bool {
	return state == "done" || state == "validated"
}

func TestClaimNext_PicksLexicographicallyFirstEligibleTask(t *testing.T) {
	repo := newTestTaskRepository(t)
	require.NoError(t, repo.Create(waveTask("b-task", "wave1", "")))
	require.NoError(t, repo.Create(waveTask("a-task", "wave1", "")))

	claimed, err := repo.ClaimNext(context.Background(), "session-1", "wave1", isDoneOrValidated, "orchestrator")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, "a-task", claimed.ID)
	assert.Equal(t, "wip", claimed.State)
	assert.Equal(t, "session-1", claimed.SessionID)
	assert.NotNil(t, claimed.ClaimedAt)
}

func TestClaimNext_SkipsTasksFromOtherWaves(t *testing.T) {
	repo := newTestTaskRepository(t)
	require.NoError(t, repo.Create(waveTask("w2-task", "wave2", "")))

	claimed, err := repo.ClaimNext(context.Background(), "session-1", "wave1", isDoneOrValidated, "orchestrator")
	require.NoError(t, err)
	assert.Nil(t, claimed)
}

func TestClaimNext_SkipsTaskWhoseSiblingsAreNotAccountedFor(t *testing.T) {
	repo := newTestTaskRepository(t)
	parent := sampleTestTask("parent")
	require.NoError(t, repo.Create(parent))
	require.NoError(t, repo.Create(waveTask("child-a", "", "parent")))
	require.NoError(t, repo.Create(waveTask("child-b", "", "parent")))

	claimed, err := repo.ClaimNext(context.Background(), "session-1", "", isDoneOrValidated, "orchestrator")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, "parent", claimed.ID, "children with unaccounted-for siblings must be skipped")
}

func TestClaimNext_NoEligibleTasksReturnsNilNil(t *testing.T) {
	repo := newTestTaskRepository(t)
	claimed, err := repo.ClaimNext(context.Background(), "session-1", "wave1", isDoneOrValidated, "orchestrator")
	require.NoError(t, err)
	assert.Nil(t, claimed)
}
