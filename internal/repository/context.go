package repository

import "time"

// TransitionContext is what BaseRepository.Transition builds before
// evaluating a transition: caller-supplied fields overlaid on
// {entity, now, repo_root}.
// Guards, conditions, and actions registered with the statemachine.Registry
// receive this (as `any`) and type-assert the fields they need.
type TransitionContext struct {
	Entity   any
	Now      time.Time
	RepoRoot string
	SessionID string
	Actor    string
	Reason   string

	// Extra carries whatever additional fields a specific transition call
	// wants to overlay (e.g. the claiming session's id for ClaimNext, or a
	// guard's evidence view) without widening this struct per call site.
	Extra map[string]any
}
