package domain

import "context"

// TaskStore persists tasks. ListTasks excludes soft-deleted records;
// GetTask returns them so callers can distinguish "missing" from "deleted".
// A missing entity is reported as (nil, nil).
type TaskStore interface {
	GetTask(ctx context.Context, boardID, taskID string) (*Task, error)
	InsertTask(ctx context.Context, t Task) error
	UpdateTask(ctx context.Context, t Task) error
	ListTasks(ctx context.Context, boardID string) ([]Task, error)
}

// BoardStore persists the board document. FindBoard returns (nil, nil) when
// no board has been created yet.
type BoardStore interface {
	FindBoard(ctx context.Context) (*Board, error)
	InsertBoard(ctx context.Context, b Board) error
	UpdateBoard(ctx context.Context, b Board) error
}

// AttachmentStore persists attachment metadata records.
type AttachmentStore interface {
	InsertAttachment(ctx context.Context, boardID string, a Attachment) error
	ListAttachments(ctx context.Context, boardID string) ([]Attachment, error)
}

// ActivityStore appends and queries the audit log. List results are newest
// first.
type ActivityStore interface {
	AppendActivity(ctx context.Context, a Activity) error
	ListBoardActivity(ctx context.Context, boardID string, limit int) ([]Activity, error)
	ListTaskActivity(ctx context.Context, boardID, taskID string) ([]Activity, error)
}

// UserStore persists known identities.
type UserStore interface {
	UpsertUser(ctx context.Context, u User) error
	ListUsers(ctx context.Context) ([]User, error)
}

// Store is the full persistence surface required by the services. Each
// write is a single-document operation; nothing here spans collections
// transactionally.
type Store interface {
	TaskStore
	BoardStore
	AttachmentStore
	ActivityStore
	UserStore
}
