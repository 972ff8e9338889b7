package api

import (
	"context"
	"sync"

	"kanban-api/domain"
)

// memStore is an in-memory domain.Store backing the endpoint tests.
type memStore struct {
	mu          sync.Mutex
	boards      []domain.Board
	tasks       map[string]domain.Task
	attachments map[string]domain.Attachment
	activities  []domain.Activity
	users       map[string]domain.User
}

func newMemStore() *memStore {
	return &memStore{
		tasks:       map[string]domain.Task{},
		attachments: map[string]domain.Attachment{},
		users:       map[string]domain.User{},
	}
}

func (m *memStore) GetTask(ctx context.Context, boardID, taskID string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[taskID]
	if !ok || t.BoardID != boardID {
		return nil, nil
	}
	return &t, nil
}

func (m *memStore) InsertTask(ctx context.Context, t domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
	return nil
}

func (m *memStore) UpdateTask(ctx context.Context, t domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.ID] = t
	return nil
}

func (m *memStore) ListTasks(ctx context.Context, boardID string) ([]domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Task
	for _, t := range m.tasks {
		if t.BoardID == boardID && !t.IsDeleted {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) FindBoard(ctx context.Context) (*domain.Board, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.boards) == 0 {
		return nil, nil
	}
	b := m.boards[0]
	return &b, nil
}

func (m *memStore) InsertBoard(ctx context.Context, b domain.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards = append(m.boards, b)
	return nil
}

func (m *memStore) UpdateBoard(ctx context.Context, b domain.Board) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.boards {
		if m.boards[i].ID == b.ID {
			m.boards[i] = b
		}
	}
	return nil
}

func (m *memStore) InsertAttachment(ctx context.Context, boardID string, a domain.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachments[a.ID] = a
	return nil
}

func (m *memStore) ListAttachments(ctx context.Context, boardID string) ([]domain.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Attachment
	for _, a := range m.attachments {
		out = append(out, a)
	}
	return out, nil
}

func (m *memStore) AppendActivity(ctx context.Context, a domain.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities = append(m.activities, a)
	return nil
}

func (m *memStore) ListBoardActivity(ctx context.Context, boardID string, limit int) ([]domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Activity
	for i := len(m.activities) - 1; i >= 0 && len(out) < limit; i-- {
		if m.activities[i].BoardID == boardID {
			out = append(out, m.activities[i])
		}
	}
	return out, nil
}

func (m *memStore) ListTaskActivity(ctx context.Context, boardID, taskID string) ([]domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Activity
	for i := len(m.activities) - 1; i >= 0; i-- {
		if m.activities[i].BoardID == boardID && m.activities[i].TaskID == taskID {
			out = append(out, m.activities[i])
		}
	}
	return out, nil
}

func (m *memStore) UpsertUser(ctx context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *memStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memStore) taskByID(id string) (domain.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	return t, ok
}

func (m *memStore) activityActions() []domain.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Action, 0, len(m.activities))
	for _, a := range m.activities {
		out = append(out, a.Action)
	}
	return out
}
