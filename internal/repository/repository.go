package repository

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/edison-run/edison/internal/entity"
	"github.com/edison-run/edison/internal/fsutil"
	"github.com/edison-run/edison/internal/statemachine"
)

// Entity is the constraint every BaseRepository type parameter must
// satisfy: a pointer to one of Task/QARecord/Session.
type Entity interface {
	entity.Entity
	Validate() error
}

// BaseRepository is the generic file-backed persistence contract,
// implemented once and instantiated per entity kind.
type BaseRepository[E Entity] struct {
	kind       entity.Kind
	root       string
	io         EntityIO[E]
	runtime    *statemachine.Runtime
	states     []string
	audit      *AuditWriter
	lockOpts   fsutil.LockOptions
	maxRetries int
}

// Config bundles BaseRepository's construction parameters.
type Config[E Entity] struct {
	Kind       entity.Kind
	Root       string
	IO         EntityIO[E]
	Runtime    *statemachine.Runtime
	Audit      *AuditWriter
	LockOpts   fsutil.LockOptions
	MaxRetries int // bounded read-modify-write retry budget; 0 defaults to 3
}

// NewBaseRepository builds a repository whose valid states are exactly
// those the Runtime's MachineSpec declares.
func NewBaseRepository[E Entity](cfg Config[E]) *BaseRepository[E] {
	states := make([]string, 0, len(cfg.Runtime.Spec().States))
	for name := range cfg.Runtime.Spec().States {
		states = append(states, name)
	}
	sort.Strings(states)

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &BaseRepository[E]{
		kind:       cfg.Kind,
		root:       cfg.Root,
		io:         cfg.IO,
		runtime:    cfg.Runtime,
		states:     states,
		audit:      cfg.Audit,
		lockOpts:   cfg.LockOpts,
		maxRetries: maxRetries,
	}
}

// locate finds which configured state directory currently holds id,
// returning its state name and absolute path.
func (r *BaseRepository[E]) locate(id string) (state, path string, found bool, err error) {
	for _, s := range r.states {
		p := r.io.PathFor(s, id)
		if _, statErr := os.Stat(p); statErr == nil {
			return s, p, true, nil
		} else if !os.IsNotExist(statErr) {
			return "", "", false, &IOFailureError{Op: "stat " + p, Err: statErr}
		}
	}
	return "", "", false, nil
}

// Exists reports whether id is present under any configured state.
func (r *BaseRepository[E]) Exists(id string) (bool, error) {
	_, _, found, err := r.locate(id)
	return found, err
}

// Get fetches and decodes the entity at id, wherever its current state
// directory is.
func (r *BaseRepository[E]) Get(id string) (E, bool, error) {
	var zero E
	_, path, found, err := r.locate(id)
	if err != nil || !found {
		return zero, false, err
	}
	e, err := r.readAt(path)
	if err != nil {
		return zero, false, err
	}
	return e, true, nil
}

func (r *BaseRepository[E]) readAt(path string) (E, error) {
	var zero E
	data, err := os.ReadFile(path)
	if err != nil {
		return zero, &IOFailureError{Op: "read " + path, Err: err}
	}
	e, err := r.io.Decode(data)
	if err != nil {
		return zero, err
	}
	return e, nil
}

// Create persists a brand-new entity at its core.State's directory,
// rejecting ids already present anywhere in the state set.
func (r *BaseRepository[E]) Create(e E) error {
	if err := e.Validate(); err != nil {
		return err
	}
	id := e.CoreRef().ID
	exists, err := r.Exists(id)
	if err != nil {
		return err
	}
	if exists {
		return &EntityAlreadyExistsError{Kind: r.kind, ID: id}
	}

	path := r.io.PathFor(e.CoreRef().State, id)
	if err := r.writeEntity(path, e); err != nil {
		return err
	}
	if r.audit != nil {
		_ = r.audit.Append(AuditRecord{
			Timestamp:  time.Now().UTC(),
			EntityKind: r.kind,
			EntityID:   id,
			From:       "",
			To:         e.CoreRef().State,
			Reason:     "create",
		})
	}
	return nil
}

// Save overwrites an entity's file in place at its current (already set)
// state, without running the state-machine pipeline. Used for
// non-transition field updates (e.g. session activity-log appends).
func (r *BaseRepository[E]) Save(e E) error {
	if err := e.Validate(); err != nil {
		return err
	}
	id := e.CoreRef().ID
	state, path, found, err := r.locate(id)
	if err != nil {
		return err
	}
	if !found {
		return &EntityNotFoundError{Kind: r.kind, ID: id}
	}
	if state != e.CoreRef().State {
		return &EntityNotFoundError{Kind: r.kind, ID: id}
	}
	return r.writeEntity(path, e)
}

func (r *BaseRepository[E]) writeEntity(path string, e E) error {
	data, err := r.io.Encode(e)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &IOFailureError{Op: "mkdir " + filepath.Dir(path), Err: err}
	}
	if err := fsutil.AtomicWrite(path, data); err != nil {
		return &IOFailureError{Op: "write " + path, Err: err}
	}
	return nil
}

// Delete removes id's file wherever it currently lives, reporting whether
// anything was removed.
func (r *BaseRepository[E]) Delete(id string) (bool, error) {
	_, path, found, err := r.locate(id)
	if err != nil || !found {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		return false, &IOFailureError{Op: "remove " + path, Err: err}
	}
	return true, nil
}

// ListByState decodes every entity currently filed under state.
func (r *BaseRepository[E]) ListByState(state string) ([]E, error) {
	ids, err := r.io.ListIDs(state)
	if err != nil {
		return nil, err
	}
	out := make([]E, 0, len(ids))
	for _, id := range ids {
		e, err := r.readAt(r.io.PathFor(state, id))
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// ListAll decodes every entity across every configured state, in
// lexicographic state then id order.
func (r *BaseRepository[E]) ListAll() ([]E, error) {
	var out []E
	for _, state := range r.states {
		entities, err := r.ListByState(state)
		if err != nil {
			return nil, err
		}
		out = append(out, entities...)
	}
	return out, nil
}

// Find returns every entity across all states satisfying predicate.
func (r *BaseRepository[E]) Find(predicate func(E) bool) ([]E, error) {
	all, err := r.ListAll()
	if err != nil {
		return nil, err
	}
	out := make([]E, 0)
	for _, e := range all {
		if predicate(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Transition runs the transition pipeline step by step: locate,
// lock, build context, validate_transition, execute plan, mutate, persist
// (with a state-directory swap when to_state differs from the entity's
// current directory), and append an audit record.
func (r *BaseRepository[E]) Transition(ctx context.Context, id, toState string, extra map[string]any, reason, actor string, mutate func(E) error) (E, error) {
	var zero E
	for attempt := 0; attempt < r.maxRetries; attempt++ {
		state, path, found, err := r.locate(id)
		if err != nil {
			return zero, err
		}
		if !found {
			return zero, &EntityNotFoundError{Kind: r.kind, ID: id}
		}

		guard, err := fsutil.AcquireFileLock(ctx, path, r.lockOpts)
		if err != nil {
			return zero, err
		}

		result, retry, txErr := r.transitionLocked(ctx, state, path, id, toState, extra, reason, actor, mutate)
		_ = guard.Release()

		if retry {
			continue
		}
		return result, txErr
	}
	return zero, &ConcurrentModificationError{Kind: r.kind, ID: id, Attempts: r.maxRetries}
}

func (r *BaseRepository[E]) transitionLocked(
	_ context.Context,
	expectedState, path, id, toState string,
	extra map[string]any,
	reason, actor string,
	mutate func(E) error,
) (result E, retry bool, err error) {
	var zero E

	if _, statErr := os.Stat(path); statErr != nil {
		// The entity moved to a different state directory between locate
		// and lock-acquire; retry against its new location.
		return zero, true, nil
	}

	e, err := r.readAt(path)
	if err != nil {
		return zero, false, err
	}
	if e.CoreRef().State != expectedState {
		return zero, true, nil
	}

	now := time.Now().UTC()
	txCtx := &TransitionContext{
		Entity:   e,
		Now:      now,
		RepoRoot: r.root,
		Actor:    actor,
		Reason:   reason,
		Extra:    extra,
	}

	plan, err := r.runtime.ValidateTransition(expectedState, toState, txCtx)
	if err != nil {
		return zero, false, err
	}
	if err := r.runtime.Execute(plan, txCtx); err != nil {
		return zero, false, err
	}
	if mutate != nil {
		if err := mutate(e); err != nil {
			return zero, false, err
		}
	}

	core := e.CoreRef()
	core.AppendHistory(entity.HistoryEntry{
		FromState: expectedState,
		ToState:   toState,
		Timestamp: now,
		Actor:     actor,
		Reason:    reason,
	})
	core.State = toState
	core.Metadata.UpdatedAt = now

	newPath := r.io.PathFor(toState, id)
	if err := r.writeEntity(newPath, e); err != nil {
		return zero, false, err
	}
	if newPath != path {
		if err := os.Remove(path); err != nil {
			return zero, false, &IOFailureError{Op: "remove stale " + path, Err: err}
		}
	}

	if r.audit != nil {
		_ = r.audit.Append(AuditRecord{
			Timestamp:  now,
			EntityKind: r.kind,
			EntityID:   id,
			From:       expectedState,
			To:         toState,
			Reason:     reason,
			Actor:      actor,
		})
	}

	return e, false, nil
}
