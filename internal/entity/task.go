package entity

import "time"

// Task is a trackable unit of work, backed by Edison's file-backed,
// state-machine-driven persistence model instead of a SQL row.
type Task struct {
	Core

	Title          string     `yaml:"title"`
	Wave           string     `yaml:"wave,omitempty"`
	Type           string     `yaml:"type,omitempty"`
	ParentID       string     `yaml:"parent_id,omitempty"`
	ChildIDs       []string   `yaml:"child_ids,omitempty"`
	SessionID      string     `yaml:"session_id,omitempty"`
	ClaimedAt      *time.Time `yaml:"claimed_at,omitempty"`
	LastActive     *time.Time `yaml:"last_active,omitempty"`
	ContinuationID string     `yaml:"continuation_id,omitempty"`

	// Body is the free markdown body preserved verbatim below the
	// frontmatter.
	Body string `yaml:"-"`
}

func (t *Task) CoreRef() *Core { return &t.Core }
func (t *Task) Kind() Kind     { return KindTask }

// taskFrontmatter is the YAML shape persisted at the top of a Task's .md
// file. It mirrors Task's fields but keeps Core inline the
// way the on-disk schema is documented, rather than nesting "core:".
type taskFrontmatter struct {
	ID             string         `yaml:"id"`
	Title          string         `yaml:"title"`
	Wave           string         `yaml:"wave,omitempty"`
	Type           string         `yaml:"type,omitempty"`
	State          string         `yaml:"state"`
	ParentID       *string        `yaml:"parent_id"`
	ChildIDs       []string       `yaml:"child_ids"`
	SessionID      *string        `yaml:"session_id"`
	ClaimedAt      *time.Time     `yaml:"claimed_at"`
	LastActive     *time.Time     `yaml:"last_active"`
	ContinuationID *string        `yaml:"continuation_id"`
	Metadata       Metadata       `yaml:"metadata"`
	StateHistory   []HistoryEntry `yaml:"state_history"`
}

func (t *Task) toFrontmatter() taskFrontmatter {
	return taskFrontmatter{
		ID:             t.ID,
		Title:          t.Title,
		Wave:           t.Wave,
		Type:           t.Type,
		State:          t.State,
		ParentID:       strPtrOrNil(t.ParentID),
		ChildIDs:       t.ChildIDs,
		SessionID:      strPtrOrNil(t.SessionID),
		ClaimedAt:      t.ClaimedAt,
		LastActive:     t.LastActive,
		ContinuationID: strPtrOrNil(t.ContinuationID),
		Metadata:       t.Metadata,
		StateHistory:   t.StateHistory,
	}
}

func (fm taskFrontmatter) toTask(body string) *Task {
	t := &Task{
		Core: Core{
			ID:           fm.ID,
			State:        fm.State,
			Metadata:     fm.Metadata,
			StateHistory: fm.StateHistory,
		},
		Title:          fm.Title,
		Wave:           fm.Wave,
		Type:           fm.Type,
		ChildIDs:       fm.ChildIDs,
		ClaimedAt:      fm.ClaimedAt,
		LastActive:     fm.LastActive,
		ContinuationID: derefOrEmpty(fm.ContinuationID),
		Body:           body,
	}
	t.ParentID = derefOrEmpty(fm.ParentID)
	t.SessionID = derefOrEmpty(fm.SessionID)
	return t
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
