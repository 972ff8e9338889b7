package api

import (
	"encoding/json"

	"kanban-api/domain"
)

// Inbound client events.
const (
	EventSyncTasks     = "sync:tasks"
	EventTaskCreate    = "task:create"
	EventTaskUpdate    = "task:update"
	EventTaskMove      = "task:move"
	EventTaskReorder   = "task:reorder"
	EventTaskDelete    = "task:delete"
	EventAttachmentAdd = "attachment:add"
	EventUsersIdentify = "users:identify"
)

// Outbound broadcast events.
const (
	EventTaskCreated     = "task:created"
	EventTaskUpdated     = "task:updated"
	EventTaskMoved       = "task:moved"
	EventTaskDeleted     = "task:deleted"
	EventAttachmentAdded = "attachment:added"
	EventBoardUpdated    = "board:updated"
	EventUsersOnline     = "users:online"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// frame is one inbound message of the socket protocol. A frame with a
// positive Seq is request/response and receives exactly one ack; a frame
// without Seq is notify-only and its errors are only logged server-side.
type frame struct {
	Seq   int64           `json:"seq,omitempty"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ack answers one request frame, to the originating caller only.
type ack struct {
	Seq        int64              `json:"seq"`
	Status     string             `json:"status"`
	Message    string             `json:"message,omitempty"`
	Task       *domain.Task       `json:"task,omitempty"`
	Attachment *domain.Attachment `json:"attachment,omitempty"`
}

// push is a server-initiated frame.
type push struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type updatePayload struct {
	TaskID  string            `json:"taskId"`
	Updates domain.TaskUpdate `json:"updates"`
}

type movePayload struct {
	TaskID string        `json:"taskId"`
	Column domain.Column `json:"column"`
}

type reorderPayload struct {
	Column     domain.Column `json:"column"`
	OrderedIDs []string      `json:"orderedIds"`
}

type deletePayload struct {
	TaskID string `json:"taskId"`
}

type attachPayload struct {
	TaskID string              `json:"taskId"`
	File   domain.FileMetadata `json:"file"`
}

type identifyPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

// attachmentAdded is the broadcast payload pairing the attachment with its
// owning task.
type attachmentAdded struct {
	TaskID     string            `json:"taskId"`
	Attachment domain.Attachment `json:"attachment"`
}
