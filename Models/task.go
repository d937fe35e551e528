package Models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Task types.
const (
	TaskTypeReminder   = "reminder"
	TaskTypeDecision   = "decision"
	TaskTypeMotivation = "motivation"
	TaskTypeAdvice     = "advice"
)

// TaskTypeValid reports whether t is one of the four task types.
func TaskTypeValid(t string) bool {
	switch t {
	case TaskTypeReminder, TaskTypeDecision, TaskTypeMotivation, TaskTypeAdvice:
		return true
	}
	return false
}

// TaskSupportsHelpers reports whether helper assignment is allowed for a
// task type. All four types accept helpers (see DESIGN.md).
func TaskSupportsHelpers(t string) bool {
	return TaskTypeValid(t)
}

// Task is a typed task record. Only the fields matching Type are
// populated; the rest stay zero. Name and Avatar are a snapshot of the
// owner at creation time. The (user_id, text) unique index is the source
// of truth for the duplicate-text rule; the service pre-check is just a
// fast path.
type Task struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"userId" gorm:"uniqueIndex:idx_owner_text;not null"`
	Text   string `json:"text" gorm:"uniqueIndex:idx_owner_text;not null"`
	Type   string `json:"type" gorm:"not null"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`

	Completed   bool       `json:"completed" gorm:"default:false"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	RemindAt  *time.Time     `json:"remindAt,omitempty"`
	Options   datatypes.JSON `json:"options,omitempty"`
	DeliverAt *time.Time     `json:"deliverAt,omitempty"`

	Helpers []User `json:"helpers" gorm:"many2many:task_helpers;"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OptionList decodes the stored decision options.
func (t *Task) OptionList() []string {
	if len(t.Options) == 0 {
		return nil
	}
	var opts []string
	if err := json.Unmarshal(t.Options, &opts); err != nil {
		return nil
	}
	return opts
}

// SetOptions encodes decision options onto the JSON column.
func (t *Task) SetOptions(opts []string) error {
	raw, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	t.Options = raw
	return nil
}

// HasOption reports whether opt is one of the task's decision options.
func (t *Task) HasOption(opt string) bool {
	for _, o := range t.OptionList() {
		if o == opt {
			return true
		}
	}
	return false
}

// HelperIDs returns the IDs of the loaded helper association.
func (t *Task) HelperIDs() []string {
	ids := make([]string, 0, len(t.Helpers))
	for _, h := range t.Helpers {
		ids = append(ids, h.ID)
	}
	return ids
}
