package statemachine

import "fmt"

// NoSuchTransitionError means the entity's current state has no declared
// transition to the requested target state.
type NoSuchTransitionError struct {
	EntityKind string
	From       string
	To         string
}

func (e *NoSuchTransitionError) Error() string {
	return fmt.Sprintf("statemachine: %s has no transition from %q to %q", e.EntityKind, e.From, e.To)
}

// ConditionFailedError means a named condition (or every branch of an OR
// group) evaluated false.
type ConditionFailedError struct {
	Condition string
	Message   string
}

func (e *ConditionFailedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("statemachine: condition %q failed: %s", e.Condition, e.Message)
	}
	return fmt.Sprintf("statemachine: condition %q failed", e.Condition)
}

// GuardDeniedError means the transition's guard predicate denied the move.
type GuardDeniedError struct {
	Guard  string
	Reason string
}

func (e *GuardDeniedError) Error() string {
	return fmt.Sprintf("statemachine: guard %q denied transition: %s", e.Guard, e.Reason)
}

// UnknownPredicateError means a spec named a guard, condition, or action
// that was never registered with the runtime. Raised at load time so a
// typo in a machine spec is caught before any entity tries to use it.
type UnknownPredicateError struct {
	Kind string // "guard", "condition", or "action"
	Name string
}

func (e *UnknownPredicateError) Error() string {
	return fmt.Sprintf("statemachine: unregistered %s %q", e.Kind, e.Name)
}

// SpecError wraps a structural problem found while loading a MachineSpec
// (duplicate state, dangling "to" reference, and so on).
type SpecError struct {
	EntityKind string
	Problem    string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("statemachine: invalid spec for %s: %s", e.EntityKind, e.Problem)
}
