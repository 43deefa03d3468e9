package guards

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edison-run/edison/internal/entity"
	"github.com/edison-run/edison/internal/evidence"
	"github.com/edison-run/edison/internal/repository"
)

func TestAllTasksReady_AllowsWhenEveryTaskIsTerminal(t *testing.T) {
	tc := &repository.TransitionContext{
		Entity: &entity.Session{
			Tasks: map[string]entity.SessionTaskEntry{
				"T1": {ID: "T1", State: "done"},
				"T2": {ID: "T2", State: "validated"},
			},
		},
	}
	allow, _, err := AllTasksReady(tc)
	require.NoError(t, err)
	assert.True(t, allow)
}

func TestAllTasksReady_DeniesWhenATaskIsNotTerminal(t *testing.T) {
	tc := &repository.TransitionContext{
		Entity: &entity.Session{
			Tasks: map[string]entity.SessionTaskEntry{
				"T1": {ID: "T1", State: "wip"},
			},
		},
	}
	allow, reason, err := AllTasksReady(tc)
	require.NoError(t, err)
	assert.False(t, allow)
	assert.Contains(t, reason, "T1")
}

func TestAllTasksReady_DeniesOnWrongEntityKind(t *testing.T) {
	tc := &repository.TransitionContext{Entity: &entity.Task{}}
	allow, reason, err := AllTasksReady(tc)
	require.NoError(t, err)
	assert.False(t, allow)
	assert.NotEmpty(t, reason)
}

func TestEvidencePresent_AllowsWhenAllPatternsMatch(t *testing.T) {
	store := evidence.NewStore(t.TempDir())
	require.NoError(t, writeRoundFile(store, "T1", 1, "validator-lint-report.json", `{"verdict":"approve"}`))

	tc := &repository.TransitionContext{
		Entity: &entity.Task{Core: entity.Core{ID: "T1"}},
		Extra: map[string]any{
			ExtraEvidenceStore: store,
			ExtraFingerprint:   evidence.Fingerprint{HeadSHA: "h", IndexSHA: "i", DirtyBit: "clean"},
		},
	}
	guard := EvidencePresent([]string{"validator-lint-report.json"})
	allow, _, err := guard(tc)
	require.NoError(t, err)
	assert.True(t, allow)
}

func TestEvidencePresent_DeniesWhenPatternMissing(t *testing.T) {
	store := evidence.NewStore(t.TempDir())

	tc := &repository.TransitionContext{
		Entity: &entity.Task{Core: entity.Core{ID: "T1"}},
		Extra: map[string]any{
			ExtraEvidenceStore: store,
			ExtraFingerprint:   evidence.Fingerprint{HeadSHA: "h", IndexSHA: "i", DirtyBit: "clean"},
		},
	}
	guard := EvidencePresent([]string{"validator-lint-report.json"})
	allow, reason, err := guard(tc)
	require.NoError(t, err)
	assert.False(t, allow)
	assert.Contains(t, reason, "validator-lint-report.json")
}

func TestEvidencePresent_DeniesWhenStoreMissingFromExtra(t *testing.T) {
	tc := &repository.TransitionContext{
		Entity: &entity.Task{Core: entity.Core{ID: "T1"}},
	}
	guard := EvidencePresent([]string{"x"})
	allow, reason, err := guard(tc)
	require.NoError(t, err)
	assert.False(t, allow)
	assert.NotEmpty(t, reason)
}

func TestChildrenReady_AllowsWithNoChildrenSupplied(t *testing.T) {
	tc := &repository.TransitionContext{Entity: &entity.Task{Core: entity.Core{ID: "parent"}}}
	allow, _, err := ChildrenReady(tc)
	require.NoError(t, err)
	assert.True(t, allow)
}

func TestChildrenReady_DeniesWhenAChildIsNotDoneOrValidated(t *testing.T) {
	tc := &repository.TransitionContext{
		Entity: &entity.Task{Core: entity.Core{ID: "parent"}},
		Extra: map[string]any{
			ExtraChildTasks: []*entity.Task{
				{Core: entity.Core{ID: "child-1", State: "done"}},
				{Core: entity.Core{ID: "child-2", State: "wip"}},
			},
		},
	}
	allow, reason, err := ChildrenReady(tc)
	require.NoError(t, err)
	assert.False(t, allow)
	assert.Contains(t, reason, "child-2")
}

func TestChildrenReady_AllowsWhenAllChildrenTerminal(t *testing.T) {
	tc := &repository.TransitionContext{
		Entity: &entity.Task{Core: entity.Core{ID: "parent"}},
		Extra: map[string]any{
			ExtraChildTasks: []*entity.Task{
				{Core: entity.Core{ID: "child-1", State: "done"}},
				{Core: entity.Core{ID: "child-2", State: "validated"}},
			},
		},
	}
	allow, _, err := ChildrenReady(tc)
	require.NoError(t, err)
	assert.True(t, allow)
}

func TestBundleApproved_DeniesWithNoEvidenceRound(t *testing.T) {
	store := evidence.NewStore(t.TempDir())
	tc := &repository.TransitionContext{
		Entity: &entity.QARecord{TaskID: "T1"},
		Extra:  map[string]any{ExtraEvidenceStore: store},
	}
	allow, reason, err := BundleApproved(tc)
	require.NoError(t, err)
	assert.False(t, allow)
	assert.Contains(t, reason, "no evidence round")
}

func TestBundleApproved_DeniesWithoutBundleSummary(t *testing.T) {
	store := evidence.NewStore(t.TempDir())
	_, err := store.EnsureRound("T1", 1)
	require.NoError(t, err)

	tc := &repository.TransitionContext{
		Entity: &entity.QARecord{TaskID: "T1"},
		Extra:  map[string]any{ExtraEvidenceStore: store},
	}
	allow, reason, err := BundleApproved(tc)
	require.NoError(t, err)
	assert.False(t, allow)
	assert.Contains(t, reason, "bundle summary")
}

func TestBundleApproved_DeniesWhenBlockingValidatorHasNotApproved(t *testing.T) {
	store := evidence.NewStore(t.TempDir())
	require.NoError(t, writeRoundFile(store, "T1", 1, "bundle-summary.json", `{}`))
	require.NoError(t, writeRoundFile(store, "T1", 1, "validator-lint-report.json", `{"verdict":"reject"}`))

	tc := &repository.TransitionContext{
		Entity: &entity.QARecord{
			TaskID: "T1",
			ValidatorAssignments: []entity.ValidatorAssignment{
				{ValidatorID: "lint", Blocking: true},
			},
		},
		Extra: map[string]any{ExtraEvidenceStore: store},
	}
	allow, reason, err := BundleApproved(tc)
	require.NoError(t, err)
	assert.False(t, allow)
	assert.Contains(t, reason, "lint")
}

func TestBundleApproved_IgnoresNonBlockingValidators(t *testing.T) {
	store := evidence.NewStore(t.TempDir())
	require.NoError(t, writeRoundFile(store, "T1", 1, "bundle-summary.json", `{}`))

	tc := &repository.TransitionContext{
		Entity: &entity.QARecord{
			TaskID: "T1",
			ValidatorAssignments: []entity.ValidatorAssignment{
				{ValidatorID: "style", Blocking: false},
			},
		},
		Extra: map[string]any{ExtraEvidenceStore: store},
	}
	allow, _, err := BundleApproved(tc)
	require.NoError(t, err)
	assert.True(t, allow)
}

func TestBundleApproved_AllowsWhenAllBlockingValidatorsApprove(t *testing.T) {
	store := evidence.NewStore(t.TempDir())
	require.NoError(t, writeRoundFile(store, "T1", 1, "bundle-summary.json", `{}`))
	require.NoError(t, writeRoundFile(store, "T1", 1, "validator-lint-report.json", `{"verdict":"approve"}`))
	require.NoError(t, writeRoundFile(store, "T1", 1, "validator-security-report.json", `{"verdict":"approve"}`))

	tc := &repository.TransitionContext{
		Entity: &entity.QARecord{
			TaskID: "T1",
			ValidatorAssignments: []entity.ValidatorAssignment{
				{ValidatorID: "lint", Blocking: true},
				{ValidatorID: "security", Blocking: true},
			},
		},
		Extra: map[string]any{ExtraEvidenceStore: store},
	}
	allow, _, err := BundleApproved(tc)
	require.NoError(t, err)
	assert.True(t, allow)
}

func TestTDDRefactorFollowsGreen_AllowsWhenLastCommitIsNotRefactor(t *testing.T) {
	tc := &repository.TransitionContext{
		Entity: &entity.Task{},
		Extra:  map[string]any{ExtraCommitMessages: []string{"[RED] add failing test", "[GREEN] make it pass"}},
	}
	allow, _, err := TDDRefactorFollowsGreen(tc)
	require.NoError(t, err)
	assert.True(t, allow)
}

func TestTDDRefactorFollowsGreen_AllowsWhenPrecededByGreen(t *testing.T) {
	tc := &repository.TransitionContext{
		Entity: &entity.Task{},
		Extra: map[string]any{ExtraCommitMessages: []string{
			"[RED] add failing test",
			"[GREEN] make it pass",
			"[REFACTOR] tidy it up",
		}},
	}
	allow, _, err := TDDRefactorFollowsGreen(tc)
	require.NoError(t, err)
	assert.True(t, allow)
}

func TestTDDRefactorFollowsGreen_DeniesWhenNotPrecededByGreen(t *testing.T) {
	tc := &repository.TransitionContext{
		Entity: &entity.Task{},
		Extra: map[string]any{ExtraCommitMessages: []string{
			"[RED] add failing test",
			"[REFACTOR] tidy it up",
		}},
	}
	allow, reason, err := TDDRefactorFollowsGreen(tc)
	require.NoError(t, err)
	assert.False(t, allow)
	assert.NotEmpty(t, reason)
}

func TestTDDRefactorFollowsGreen_DeniesWhenRefactorIsOnlyCommit(t *testing.T) {
	tc := &repository.TransitionContext{
		Entity: &entity.Task{},
		Extra:  map[string]any{ExtraCommitMessages: []string{"[REFACTOR] tidy it up"}},
	}
	allow, _, err := TDDRefactorFollowsGreen(tc)
	require.NoError(t, err)
	assert.False(t, allow)
}

func writeRoundFile(store *evidence.Store, taskID string, round int, filename, content string) error {
	dir, err := store.EnsureRound(taskID, round)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, filename), []byte(content), 0o644)
}
