package entity

// QARecord is the one-per-Task validation record. Its id is
// always "{task_id}-qa".
type QARecord struct {
	Core

	TaskID              string               `yaml:"task_id"`
	ValidatorAssignments []ValidatorAssignment `yaml:"validator_assignments,omitempty"`
	CurrentRound        int                  `yaml:"current_round"`

	Body string `yaml:"-"`
}

// ValidatorAssignment names one validator expected to report on a round.
type ValidatorAssignment struct {
	ValidatorID string `yaml:"validator_id"`
	Blocking    bool   `yaml:"blocking"`
}

func (q *QARecord) CoreRef() *Core { return &q.Core }
func (q *QARecord) Kind() Kind     { return KindQA }

// QAID derives the QA record id for a given task id.
func QAID(taskID string) string { return taskID + "-qa" }

type qaFrontmatter struct {
	ID                   string                `yaml:"id"`
	TaskID               string                `yaml:"task_id"`
	State                string                `yaml:"state"`
	ValidatorAssignments []ValidatorAssignment `yaml:"validator_assignments,omitempty"`
	CurrentRound         int                   `yaml:"current_round"`
	Metadata             Metadata              `yaml:"metadata"`
	StateHistory         []HistoryEntry        `yaml:"state_history"`
}

func (q *QARecord) toFrontmatter() qaFrontmatter {
	return qaFrontmatter{
		ID:                   q.ID,
		TaskID:               q.TaskID,
		State:                q.State,
		ValidatorAssignments: q.ValidatorAssignments,
		CurrentRound:         q.CurrentRound,
		Metadata:             q.Metadata,
		StateHistory:         q.StateHistory,
	}
}

func (fm qaFrontmatter) toQA(body string) *QARecord {
	return &QARecord{
		Core: Core{
			ID:           fm.ID,
			State:        fm.State,
			Metadata:     fm.Metadata,
			StateHistory: fm.StateHistory,
		},
		TaskID:               fm.TaskID,
		ValidatorAssignments: fm.ValidatorAssignments,
		CurrentRound:         fm.CurrentRound,
		Body:                 body,
	}
}
