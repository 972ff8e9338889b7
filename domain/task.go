package domain

import (
	"encoding/json"
	"time"
)

// Column is a workflow stage a task occupies.
type Column string

const (
	ColumnTodo       Column = "todo"
	ColumnInProgress Column = "in-progress"
	ColumnDone       Column = "done"
)

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Category of a task.
type Category string

const (
	CategoryBug         Category = "bug"
	CategoryFeature     Category = "feature"
	CategoryEnhancement Category = "enhancement"
)

// DefaultColumns is the column set assigned to a freshly created board.
var DefaultColumns = []Column{ColumnTodo, ColumnInProgress, ColumnDone}

func (c Column) Valid() bool {
	switch c {
	case ColumnTodo, ColumnInProgress, ColumnDone:
		return true
	}
	return false
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (c Category) Valid() bool {
	switch c {
	case CategoryBug, CategoryFeature, CategoryEnhancement:
		return true
	}
	return false
}

// ChecklistItem is a single entry of a task checklist.
type ChecklistItem struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Task represents a single board item.
type Task struct {
	ID          string          `json:"id"`
	BoardID     string          `json:"boardId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Column      Column          `json:"column"`
	Priority    Priority        `json:"priority"`
	Category    Category        `json:"category"`
	Order       int             `json:"order"`
	Labels      []string        `json:"labels"`
	Checklist   []ChecklistItem `json:"checklist"`
	DueDate     *time.Time      `json:"dueDate,omitempty"`
	Members     []string        `json:"members"`
	Attachments []string        `json:"attachments"`
	CreatedBy   string          `json:"createdBy"`
	UpdatedBy   string          `json:"updatedBy"`
	IsDeleted   bool            `json:"isDeleted,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// TaskView is a task with its reference fields resolved for clients:
// attachment ids become full attachment records and member ids become
// minimal user projections.
type TaskView struct {
	Task
	Attachments []Attachment `json:"attachments"`
	Members     []UserRef    `json:"members"`
}

// TaskInput carries the caller-supplied fields of a create request.
// Zero values resolve to defaults during creation.
type TaskInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Column      Column          `json:"column"`
	Priority    Priority        `json:"priority"`
	Category    Category        `json:"category"`
	Labels      []string        `json:"labels"`
	Checklist   []ChecklistItem `json:"checklist"`
	DueDate     *time.Time      `json:"dueDate"`
	Members     []string        `json:"members"`
	Order       *int            `json:"order"`
}

// OptionalTime distinguishes an absent update field from an explicit null:
// Set marks that the caller supplied the field at all, a nil Value clears
// the target. A plain *time.Time cannot express "clear" over JSON.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

func (o OptionalTime) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// TaskUpdate carries partial updates for a task. Unsupplied fields are
// untouched.
type TaskUpdate struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Column      *Column          `json:"column"`
	Priority    *Priority        `json:"priority"`
	Category    *Category        `json:"category"`
	Labels      *[]string        `json:"labels"`
	Checklist   *[]ChecklistItem `json:"checklist"`
	DueDate     OptionalTime     `json:"dueDate"`
	Members     *[]string        `json:"members"`
}

// Metadata renders the update as the free-form map recorded on the
// TASK_UPDATED activity entry: only the fields the caller supplied.
func (u TaskUpdate) Metadata() map[string]any {
	m := map[string]any{}
	if u.Title != nil {
		m["title"] = *u.Title
	}
	if u.Description != nil {
		m["description"] = *u.Description
	}
	if u.Column != nil {
		m["column"] = string(*u.Column)
	}
	if u.Priority != nil {
		m["priority"] = string(*u.Priority)
	}
	if u.Category != nil {
		m["category"] = string(*u.Category)
	}
	if u.Labels != nil {
		m["labels"] = *u.Labels
	}
	if u.Checklist != nil {
		m["checklist"] = *u.Checklist
	}
	if u.DueDate.Set {
		if u.DueDate.Value != nil {
			m["dueDate"] = u.DueDate.Value.Format(time.RFC3339)
		} else {
			m["dueDate"] = nil
		}
	}
	if u.Members != nil {
		m["members"] = *u.Members
	}
	return m
}
