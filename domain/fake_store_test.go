package domain

import (
	"context"
	"sync"
)

// fakeStore is an in-memory Store used by the service tests.
type fakeStore struct {
	mu          sync.Mutex
	boards      []Board
	tasks       map[string]Task
	attachments map[string]Attachment
	activities  []Activity
	users       map[string]User

	insertTaskErr error
	listTasksErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:       map[string]Task{},
		attachments: map[string]Attachment{},
		users:       map[string]User{},
	}
}

func (f *fakeStore) GetTask(ctx context.Context, boardID, taskID string) (*Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok || t.BoardID != boardID {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeStore) InsertTask(ctx context.Context, t Task) error {
	if f.insertTaskErr != nil {
		return f.insertTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) UpdateTask(ctx context.Context, t Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) ListTasks(ctx context.Context, boardID string) ([]Task, error) {
	if f.listTasksErr != nil {
		return nil, f.listTasksErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Task
	for _, t := range f.tasks {
		if t.BoardID == boardID && !t.IsDeleted {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) FindBoard(ctx context.Context) (*Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.boards) == 0 {
		return nil, nil
	}
	b := f.boards[0]
	return &b, nil
}

func (f *fakeStore) InsertBoard(ctx context.Context, b Board) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.boards = append(f.boards, b)
	return nil
}

func (f *fakeStore) UpdateBoard(ctx context.Context, b Board) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.boards {
		if f.boards[i].ID == b.ID {
			f.boards[i] = b
		}
	}
	return nil
}

func (f *fakeStore) InsertAttachment(ctx context.Context, boardID string, a Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attachments[a.ID] = a
	return nil
}

func (f *fakeStore) ListAttachments(ctx context.Context, boardID string) ([]Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Attachment
	for _, a := range f.attachments {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeStore) AppendActivity(ctx context.Context, a Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = append(f.activities, a)
	return nil
}

func (f *fakeStore) ListBoardActivity(ctx context.Context, boardID string, limit int) ([]Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Activity
	for i := len(f.activities) - 1; i >= 0 && len(out) < limit; i-- {
		if f.activities[i].BoardID == boardID {
			out = append(out, f.activities[i])
		}
	}
	return out, nil
}

func (f *fakeStore) ListTaskActivity(ctx context.Context, boardID, taskID string) ([]Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Activity
	for i := len(f.activities) - 1; i >= 0; i-- {
		if f.activities[i].BoardID == boardID && f.activities[i].TaskID == taskID {
			out = append(out, f.activities[i])
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertUser(ctx context.Context, u User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeStore) activityCount(action Action) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.activities {
		if a.Action == action {
			n++
		}
	}
	return n
}

func (f *fakeStore) lastActivity() *Activity {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.activities) == 0 {
		return nil
	}
	a := f.activities[len(f.activities)-1]
	return &a
}
