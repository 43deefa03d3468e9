// Package guards implements the named guard predicates the State Machine
// Runtime references for Task, QA, and Session transitions: AllTasksReady, EvidencePresent, ChildrenReady, BundleApproved,
// and TDDRefactorFollowsGreen. Every guard is a pure function over the
// repository.TransitionContext the runtime hands it, fail-closed on any
// missing input it needs.
package guards

import (
	"fmt"

	"github.com/edison-run/edison/internal/entity"
	"github.com/edison-run/edison/internal/evidence"
	"github.com/edison-run/edison/internal/repository"
)

// Extra keys a caller populates on repository.TransitionContext.Extra
// before invoking a transition so the guards below have what they need.
// Keeping these as named constants avoids typo'd map keys silently
// degrading a guard to its missing-input Deny path.
const (
	ExtraEvidenceStore  = "evidence_store"      // *evidence.Store
	ExtraFingerprint    = "fingerprint"         // evidence.Fingerprint
	ExtraTerminalStates = "terminal_states"     // []string
	ExtraChildTasks     = "child_tasks"         // []*entity.Task
	ExtraCommitMessages = "commit_messages"     // []string, oldest first
	ExtraBundleSummary  = "bundle_summary_file" // string, defaults to "bundle-summary.json"
)

func txContext(ctx any) (*repository.TransitionContext, error) {
	tc, ok := ctx.(*repository.TransitionContext)
	if !ok {
		return nil, fmt.Errorf("guards: expected *repository.TransitionContext, got %T", ctx)
	}
	return tc, nil
}

func evidenceStore(tc *repository.TransitionContext) (*evidence.Store, bool) {
	v, ok := tc.Extra[ExtraEvidenceStore].(*evidence.Store)
	return v, ok
}

func fingerprint(tc *repository.TransitionContext) (evidence.Fingerprint, bool) {
	v, ok := tc.Extra[ExtraFingerprint].(evidence.Fingerprint)
	return v, ok
}

func terminalStates(tc *repository.TransitionContext) []string {
	v, _ := tc.Extra[ExtraTerminalStates].([]string)
	if v == nil {
		return []string{"done", "validated"}
	}
	return v
}

func isTerminal(state string, terminal []string) bool {
	for _, s := range terminal {
		if state == s {
			return true
		}
	}
	return false
}

func taskFromEntity(tc *repository.TransitionContext) (*entity.Task, bool) {
	t, ok := tc.Entity.(*entity.Task)
	return t, ok
}

func qaFromEntity(tc *repository.TransitionContext) (*entity.QARecord, bool) {
	q, ok := tc.Entity.(*entity.QARecord)
	return q, ok
}

func sessionFromEntity(tc *repository.TransitionContext) (*entity.Session, bool) {
	s, ok := tc.Entity.(*entity.Session)
	return s, ok
}
