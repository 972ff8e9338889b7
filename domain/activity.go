package domain

import "time"

// Action identifies the mutation an activity record describes.
type Action string

const (
	ActionTaskCreated     Action = "TASK_CREATED"
	ActionTaskUpdated     Action = "TASK_UPDATED"
	ActionTaskDeleted     Action = "TASK_DELETED"
	ActionTaskMoved       Action = "TASK_MOVED"
	ActionTaskReordered   Action = "TASK_REORDERED"
	ActionAttachmentAdded Action = "ATTACHMENT_ADDED"
)

// Activity is an append-only audit record of one mutation. It is never
// modified or deleted after creation.
type Activity struct {
	ID          string         `json:"id"`
	BoardID     string         `json:"boardId"`
	TaskID      string         `json:"taskId,omitempty"`
	Action      Action         `json:"action"`
	PerformedBy string         `json:"performedBy"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}
