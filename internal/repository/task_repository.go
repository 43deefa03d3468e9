package repository

import (
	"context"
	"sort"
	"time"

	"github.com/edison-run/edison/internal/entity"
	"github.com/edison-run/edison/internal/fsutil"
	"github.com/edison-run/edison/internal/statemachine"
)

// TaskRepository is BaseRepository[*entity.Task] plus ClaimNext, the
// ready-work selection operation sessions use to pick up new tasks.
type TaskRepository struct {
	*BaseRepository[*entity.Task]
	readyState string // the state ClaimNext selects from, typically "todo"
}

// NewTaskRepository builds a TaskRepository rooted at root. readyState
// names the state ClaimNext draws candidates from.
func NewTaskRepository(root string, runtime *statemachine.Runtime, audit *AuditWriter, lockOpts fsutil.LockOptions, readyState string) *TaskRepository {
	base := NewBaseRepository(Config[*entity.Task]{
		Kind:     entity.KindTask,
		Root:     root,
		IO:       newTaskIO(root),
		Runtime:  runtime,
		Audit:    audit,
		LockOpts: lockOpts,
	})
	return &TaskRepository{BaseRepository: base, readyState: readyState}
}

// childrenAccountedFor reports whether every child of parentID other than
// excludeID is in a terminal-ish state (done/validated) or there are no
// such children at all, with "terminal-ish" left to the caller via
// isAccountedFor rather than a hardcoded state name.
func childrenAccountedFor(tasks []*entity.Task, parentID, excludeID string, isAccountedFor func(state string) bool) bool {
	for _, t := range tasks {
		if t.ParentID == parentID && t.ID != excludeID && !isAccountedFor(t.State) {
			return false
		}
	}
	return true
}

// ClaimNext selects the next ready Task for a session and transitions it to
// wip: among Tasks in readyState whose wave matches wave (or any wave, if
// wave is empty) and whose parent's other children are all accounted for,
// pick the lexicographically first by id (stable ordering) and claim it
// for sessionID. Returns (nil, nil) if nothing is ready, rather than an
// error.
func (r *TaskRepository) ClaimNext(ctx context.Context, sessionID, wave string, isAccountedFor func(state string) bool, actor string) (*entity.Task, error) {
	candidates, err := r.ListByState(r.readyState)
	if err != nil {
		return nil, err
	}
	all, err := r.ListAll()
	if err != nil {
		return nil, err
	}

	eligible := make([]*entity.Task, 0, len(candidates))
	for _, t := range candidates {
		if wave != "" && t.Wave != wave {
			continue
		}
		if t.ParentID != "" && !childrenAccountedFor(all, t.ParentID, t.ID, isAccountedFor) {
			continue
		}
		eligible = append(eligible, t)
	}
	if len(eligible) == 0 {
		return nil, nil
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].ID < eligible[j].ID })
	chosen := eligible[0]

	claimed, err := r.Transition(ctx, chosen.ID, "wip", map[string]any{"session_id": sessionID}, "claimed", actor, func(t *entity.Task) error {
		now := time.Now().UTC()
		t.SessionID = sessionID
		t.ClaimedAt = &now
		t.LastActive = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}
