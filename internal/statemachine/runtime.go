package statemachine

import "sort"

// GuardFunc makes the single fail-closed yes/no decision for a transition.
// It returns allow=false plus a human reason to deny; an error means the
// guard itself could not run and the transition must be denied regardless.
type GuardFunc func(ctx any) (allow bool, reason string, err error)

// ConditionFunc is a named boolean predicate. Unlike a guard, a false
// result from a condition is expected control flow, not a denial reason
// computed at evaluation time — the message comes from the ConditionSpec.
type ConditionFunc func(ctx any) (bool, error)

// ActionFunc performs one side effect of a transition (setting a
// timestamp, appending to an activity log, and so on) against the mutable
// context the caller supplies to Execute.
type ActionFunc func(ctx any) error

// Registry resolves the named guards, conditions, and actions a
// MachineSpec references.
type Registry struct {
	Guards     map[string]GuardFunc
	Conditions map[string]ConditionFunc
	Actions    map[string]ActionFunc
}

// NewRegistry returns an empty, ready-to-populate Registry.
func NewRegistry() *Registry {
	return &Registry{
		Guards:     map[string]GuardFunc{},
		Conditions: map[string]ConditionFunc{},
		Actions:    map[string]ActionFunc{},
	}
}

// TransitionPlan is the resolved outcome of validate_transition: the
// ordered actions the repository must run to commit the move.
type TransitionPlan struct {
	From    string
	To      string
	Actions []string
}

// Runtime evaluates one entity kind's MachineSpec against a Registry.
type Runtime struct {
	spec     MachineSpec
	registry *Registry
}

// NewRuntime validates spec against registry at construction time: every
// declared "to" state must exist, every named guard/condition/action must
// be registered, and no state name may be declared twice (duplicate keys
// in a YAML map are caught by the decoder already, so this guards the
// in-memory construction path used by tests and generators).
func NewRuntime(spec MachineSpec, registry *Registry) (*Runtime, error) {
	seen := map[string]bool{}
	for name, def := range spec.States {
		if seen[name] {
			return nil, &SpecError{EntityKind: spec.EntityKind, Problem: "duplicate state " + name}
		}
		seen[name] = true

		for _, tr := range def.AllowedTransitions {
			if _, ok := spec.States[tr.To]; !ok {
				return nil, &SpecError{
					EntityKind: spec.EntityKind,
					Problem:    "transition from " + name + " references undeclared state " + tr.To,
				}
			}
			if tr.Guard != "" {
				if _, ok := registry.Guards[tr.Guard]; !ok {
					return nil, &UnknownPredicateError{Kind: "guard", Name: tr.Guard}
				}
			}
			if err := checkConditionsRegistered(tr.Conditions, registry); err != nil {
				return nil, err
			}
			for _, action := range tr.Actions {
				if _, ok := registry.Actions[action]; !ok {
					return nil, &UnknownPredicateError{Kind: "action", Name: action}
				}
			}
		}
	}
	return &Runtime{spec: spec, registry: registry}, nil
}

func checkConditionsRegistered(conditions []ConditionSpec, registry *Registry) error {
	for _, c := range conditions {
		if len(c.Or) > 0 {
			if err := checkConditionsRegistered(c.Or, registry); err != nil {
				return err
			}
			continue
		}
		if _, ok := registry.Conditions[c.Name]; !ok {
			return &UnknownPredicateError{Kind: "condition", Name: c.Name}
		}
	}
	return nil
}

// Spec returns the underlying MachineSpec, e.g. for documentation
// generators that need to list every state and transition.
func (r *Runtime) Spec() MachineSpec {
	return r.spec
}

// AllowedTargets returns the sorted list of states reachable in one
// transition from from, for CLI help text and generator output.
func (r *Runtime) AllowedTargets(from string) []string {
	def, ok := r.spec.States[from]
	if !ok {
		return nil
	}
	targets := make([]string, 0, len(def.AllowedTransitions))
	for _, tr := range def.AllowedTransitions {
		targets = append(targets, tr.To)
	}
	sort.Strings(targets)
	return targets
}

func (r *Runtime) findTransition(from, to string) (TransitionSpec, bool) {
	def, ok := r.spec.States[from]
	if !ok {
		return TransitionSpec{}, false
	}
	for _, tr := range def.AllowedTransitions {
		if tr.To == to {
			return tr, true
		}
	}
	return TransitionSpec{}, false
}

// ValidateTransition implements validate_transition: locate the declared
// transition, evaluate its guard, then its conditions
// (OR-groups satisfied by any one true branch), and return a TransitionPlan
// naming the actions to run. Nothing here mutates ctx; Execute does that.
func (r *Runtime) ValidateTransition(from, to string, ctx any) (*TransitionPlan, error) {
	tr, ok := r.findTransition(from, to)
	if !ok {
		return nil, &NoSuchTransitionError{EntityKind: r.spec.EntityKind, From: from, To: to}
	}

	if tr.Guard != "" {
		guard := r.registry.Guards[tr.Guard]
		allow, reason, err := guard(ctx)
		if err != nil {
			return nil, &GuardDeniedError{Guard: tr.Guard, Reason: "guard evaluation error: " + err.Error()}
		}
		if !allow {
			return nil, &GuardDeniedError{Guard: tr.Guard, Reason: reason}
		}
	}

	for _, cond := range tr.Conditions {
		if err := r.evaluateCondition(cond, ctx); err != nil {
			return nil, err
		}
	}

	return &TransitionPlan{From: from, To: to, Actions: tr.Actions}, nil
}

func (r *Runtime) evaluateCondition(cond ConditionSpec, ctx any) error {
	if len(cond.Or) > 0 {
		var lastErr error
		for _, branch := range cond.Or {
			if err := r.evaluateCondition(branch, ctx); err == nil {
				return nil
			} else {
				lastErr = err
			}
		}
		if cond.Error != "" {
			return &ConditionFailedError{Condition: "or-group", Message: cond.Error}
		}
		return lastErr
	}

	fn := r.registry.Conditions[cond.Name]
	ok, err := fn(ctx)
	if err != nil {
		return &ConditionFailedError{Condition: cond.Name, Message: "evaluation error: " + err.Error()}
	}
	if !ok {
		return &ConditionFailedError{Condition: cond.Name, Message: cond.Error}
	}
	return nil
}

// Execute runs a TransitionPlan's actions in order against mutableCtx,
// stopping at the first error. It performs no state-history or persistence
// work itself — that is the Repository's job — so the same
// Runtime can validate plans without any repository present, as the
// documentation generators do.
func (r *Runtime) Execute(plan *TransitionPlan, mutableCtx any) error {
	for _, name := range plan.Actions {
		action := r.registry.Actions[name]
		if err := action(mutableCtx); err != nil {
			return err
		}
	}
	return nil
}
