package entity

import "fmt"

// Validate checks Task-specific invariants beyond the shared Core checks.
func (t *Task) Validate() error {
	if err := t.Core.Validate(); err != nil {
		return err
	}
	if t.Title == "" {
		return fmt.Errorf("task %s: title is required", t.ID)
	}
	if t.ParentID != "" {
		if err := ValidateID(t.ParentID); err != nil {
			return fmt.Errorf("task %s: parent_id: %w", t.ID, err)
		}
	}
	for _, child := range t.ChildIDs {
		if err := ValidateID(child); err != nil {
			return fmt.Errorf("task %s: child_ids: %w", t.ID, err)
		}
	}
	return nil
}

// Validate checks QA-specific invariants.
func (q *QARecord) Validate() error {
	if err := q.Core.Validate(); err != nil {
		return err
	}
	if q.TaskID == "" {
		return fmt.Errorf("qa %s: task_id is required", q.ID)
	}
	if QAID(q.TaskID) != q.ID {
		return fmt.Errorf("qa %s: id must equal task_id+\"-qa\" (%s)", q.ID, QAID(q.TaskID))
	}
	if q.CurrentRound < 0 {
		return fmt.Errorf("qa %s: current_round must not be negative", q.ID)
	}
	return nil
}

// Validate checks Session-specific invariants.
func (s *Session) Validate() error {
	if err := s.Core.Validate(); err != nil {
		return err
	}
	if s.Owner == "" {
		return fmt.Errorf("session %s: owner is required", s.ID)
	}
	if s.WorktreeBase == "" {
		return fmt.Errorf("session %s: worktree_base is required", s.ID)
	}
	return nil
}
