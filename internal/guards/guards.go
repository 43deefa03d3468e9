package guards

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/edison-run/edison/internal/entity"
	"github.com/edison-run/edison/internal/evidence"
	"github.com/edison-run/edison/internal/repository"
)

// AllTasksReady denies a session's transition into a terminal state unless
// every task the session owns is itself in a configured terminal state.
// A session owning no tasks passes vacuously.
func AllTasksReady(ctx any) (bool, string, error) {
	tc, err := txContext(ctx)
	if err != nil {
		return false, "", err
	}
	session, ok := sessionFromEntity(tc)
	if !ok {
		return false, "AllTasksReady requires a Session entity", nil
	}

	terminal := terminalStates(tc)
	for id, entry := range session.Tasks {
		if !isTerminal(entry.State, terminal) {
			return false, fmt.Sprintf("task %q is in state %q, not a terminal state", id, entry.State), nil
		}
	}
	return true, "", nil
}

// EvidencePresent returns a guard that denies a transition unless every
// glob in patterns resolves to at least one file in the entity's latest
// evidence round or current snapshot. The task id is
// taken from the transitioning Task or, for a QA record, its TaskID.
func EvidencePresent(patterns []string) func(ctx any) (bool, string, error) {
	return func(ctx any) (bool, string, error) {
		tc, err := txContext(ctx)
		if err != nil {
			return false, "", err
		}
		store, ok := evidenceStore(tc)
		if !ok {
			return false, "EvidencePresent requires an evidence store in Extra", nil
		}
		fp, ok := fingerprint(tc)
		if !ok {
			return false, "EvidencePresent requires a fingerprint in Extra", nil
		}
		taskID, ok := taskIDFromEntity(tc)
		if !ok {
			return false, "EvidencePresent requires a Task or QA entity", nil
		}

		missing, err := evidence.MissingEvidenceBlockers(store, taskID, fp, evidence.RequiredEvidence(patterns))
		if err != nil {
			return false, "", err
		}
		if len(missing) > 0 {
			return false, fmt.Sprintf("missing required evidence: %s", strings.Join(missing, ", ")), nil
		}
		return true, "", nil
	}
}

func taskIDFromEntity(tc *repository.TransitionContext) (string, bool) {
	if t, ok := taskFromEntity(tc); ok {
		return t.ID, true
	}
	if q, ok := qaFromEntity(tc); ok {
		return q.TaskID, true
	}
	return "", false
}

func childTasksFromExtra(tc *repository.TransitionContext) ([]*entity.Task, bool) {
	children, ok := tc.Extra[ExtraChildTasks].([]*entity.Task)
	if !ok || len(children) == 0 {
		return nil, false
	}
	return children, true
}

// ChildrenReady denies a parent Task's transition to done unless every
// child task supplied in Extra[ExtraChildTasks] is itself in done or
// validated. A parent with no children passes vacuously; a parent that
// lists child_ids but has no child tasks supplied is denied.
func ChildrenReady(ctx any) (bool, string, error) {
	tc, err := txContext(ctx)
	if err != nil {
		return false, "", err
	}
	task, ok := taskFromEntity(tc)
	if !ok {
		return false, "ChildrenReady requires a Task entity", nil
	}

	childTasks, ok := childTasksFromExtra(tc)
	if !ok {
		if len(task.ChildIDs) > 0 {
			return false, fmt.Sprintf("ChildrenReady requires the %d child tasks listed in child_ids in Extra", len(task.ChildIDs)), nil
		}
		return true, "", nil
	}
	terminal := terminalStates(tc)
	for _, child := range childTasks {
		if !isTerminal(child.State, terminal) {
			return false, fmt.Sprintf("child task %q is in state %q, not done or validated", child.ID, child.State), nil
		}
	}
	return true, "", nil
}

func bundleSummaryFilename(tc *repository.TransitionContext) string {
	if name, ok := tc.Extra[ExtraBundleSummary].(string); ok && name != "" {
		return filepath.Base(name)
	}
	return "bundle-summary.json"
}

// BundleApproved denies a QA record's transition unless the latest round
// contains a bundle summary and every blocking validator assignment has a
// corresponding report carrying verdict == "approve".
// Approval is always re-derived from the validator reports themselves —
// a stale or hand-edited bundle summary cannot forge approval.
func BundleApproved(ctx any) (bool, string, error) {
	tc, err := txContext(ctx)
	if err != nil {
		return false, "", err
	}
	qa, ok := qaFromEntity(tc)
	if !ok {
		return false, "BundleApproved requires a QA entity", nil
	}
	store, ok := evidenceStore(tc)
	if !ok {
		return false, "BundleApproved requires an evidence store in Extra", nil
	}

	round, hasRound := store.GetLatestRound(qa.TaskID)
	if !hasRound {
		return false, "no evidence round recorded for this task", nil
	}

	summaryFile := bundleSummaryFilename(tc)
	if _, err := store.ReadRoundFile(qa.TaskID, round, summaryFile); err != nil {
		return false, fmt.Sprintf("round %d has no bundle summary (%s)", round, summaryFile), nil
	}

	for _, assignment := range qa.ValidatorAssignments {
		if !assignment.Blocking {
			continue
		}
		filename := fmt.Sprintf("validator-%s-report.json", assignment.ValidatorID)
		data, err := store.ReadRoundFile(qa.TaskID, round, filename)
		if err != nil {
			return false, fmt.Sprintf("missing blocking validator report: %s", filename), nil
		}
		var report struct {
			Verdict string `json:"verdict"`
		}
		if err := json.Unmarshal(data, &report); err != nil {
			return false, fmt.Sprintf("validator report %s is not valid JSON", filename), nil
		}
		if report.Verdict != "approve" {
			return false, fmt.Sprintf("blocking validator %q verdict is %q, not approve", assignment.ValidatorID, report.Verdict), nil
		}
	}
	return true, "", nil
}

// TDDRefactorFollowsGreen denies a transition if the commit range under
// evaluation's last commit message begins with "[REFACTOR]" and the
// commit immediately before it does not begin with "[GREEN]". A last commit that isn't a refactor commit passes vacuously;
// the guard only constrains refactor commits specifically.
func TDDRefactorFollowsGreen(ctx any) (bool, string, error) {
	tc, err := txContext(ctx)
	if err != nil {
		return false, "", err
	}
	commits, _ := tc.Extra[ExtraCommitMessages].([]string)
	if len(commits) == 0 {
		return true, "", nil
	}

	last := commits[len(commits)-1]
	if !strings.HasPrefix(last, "[REFACTOR]") {
		return true, "", nil
	}
	if len(commits) < 2 {
		return false, "a [REFACTOR] commit must be preceded by a [GREEN] commit", nil
	}
	previous := commits[len(commits)-2]
	if !strings.HasPrefix(previous, "[GREEN]") {
		return false, fmt.Sprintf("commit before [REFACTOR] must begin with [GREEN], got %q", previous), nil
	}
	return true, "", nil
}
