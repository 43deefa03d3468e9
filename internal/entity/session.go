package entity

// Session tracks one orchestrator run's ownership of a set of tasks/QA
// records, persisted as JSON rather than frontmatter+markdown since its
// entire structure IS the persisted form.
type Session struct {
	Core

	Owner         string                    `json:"owner"`
	Git           SessionGit                `json:"git"`
	WorktreeBase  string                    `json:"worktreeBase"`
	ParentTaskID  string                    `json:"parent_task_id,omitempty"`
	Tasks         map[string]SessionTaskEntry `json:"tasks"`
	QA            map[string]SessionQAEntry   `json:"qa"`
	ActivityLog   []ActivityLogEntry        `json:"activityLog"`
	Meta          SessionMeta               `json:"meta"`
	Ready         bool                      `json:"ready"`
}

func (s *Session) CoreRef() *Core { return &s.Core }
func (s *Session) Kind() Kind     { return KindSession }

// SessionGit records the git worktree this session operates against.
type SessionGit struct {
	WorktreePath string `json:"worktreePath,omitempty"`
	Branch       string `json:"branch,omitempty"`
}

// SessionTaskEntry is the lightweight record a Session keeps about a task
// it owns, used by guards like AllTasksReady without a full Task fetch.
type SessionTaskEntry struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// SessionQAEntry mirrors SessionTaskEntry for QA records.
type SessionQAEntry struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// ActivityLogEntry is one free-text activity note on a session.
type ActivityLogEntry struct {
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// SessionMeta carries the denormalized fields convenient for quick display
// without re-deriving them from Core.
type SessionMeta struct {
	SessionID           string `json:"sessionId"`
	CreatedAt           string `json:"createdAt"`
	LastActive          string `json:"lastActive"`
	Status              string `json:"status"`
	OrchestratorProfile string `json:"orchestratorProfile,omitempty"`
}

// sessionJSON is the wire shape for session.json; it exists separately
// from Session so Core's fields (id/state/metadata/state_history) marshal
// at top level rather than nested under "core".
type sessionJSON struct {
	ID           string                      `json:"id"`
	State        string                      `json:"state"`
	Owner        string                      `json:"owner"`
	Git          SessionGit                  `json:"git"`
	WorktreeBase string                      `json:"worktreeBase"`
	ParentTaskID string                      `json:"parent_task_id,omitempty"`
	Meta         SessionMeta                 `json:"meta"`
	Tasks        map[string]SessionTaskEntry `json:"tasks"`
	QA           map[string]SessionQAEntry   `json:"qa"`
	StateHistory []HistoryEntry              `json:"state_history"`
	ActivityLog  []ActivityLogEntry          `json:"activityLog"`
	Ready        bool                        `json:"ready"`
	Metadata     Metadata                    `json:"metadata"`
}

func (s *Session) toJSON() sessionJSON {
	return sessionJSON{
		ID:           s.ID,
		State:        s.State,
		Owner:        s.Owner,
		Git:          s.Git,
		WorktreeBase: s.WorktreeBase,
		ParentTaskID: s.ParentTaskID,
		Meta:         s.Meta,
		Tasks:        s.Tasks,
		QA:           s.QA,
		StateHistory: s.StateHistory,
		ActivityLog:  s.ActivityLog,
		Ready:        s.Ready,
		Metadata:     s.Metadata,
	}
}

func (j sessionJSON) toSession() *Session {
	return &Session{
		Core: Core{
			ID:           j.ID,
			State:        j.State,
			Metadata:     j.Metadata,
			StateHistory: j.StateHistory,
		},
		Owner:        j.Owner,
		Git:          j.Git,
		WorktreeBase: j.WorktreeBase,
		ParentTaskID: j.ParentTaskID,
		Tasks:        j.Tasks,
		QA:           j.QA,
		ActivityLog:  j.ActivityLog,
		Meta:         j.Meta,
		Ready:        j.Ready,
	}
}
