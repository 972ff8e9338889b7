package domain

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// TaskService is the single writer for task state. It validates input,
// assigns per-column ordering, persists the result and appends exactly one
// activity record per mutation. All access to the task, board, attachment
// and activity collections goes through it.
type TaskService struct {
	st Store
}

func NewTaskService(st Store) TaskService { return TaskService{st: st} }

func validateTaskInput(in TaskInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return ValidationError{Reason: "title required"}
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return ValidationError{Reason: "invalid priority"}
	}
	if in.Category != "" && !in.Category.Valid() {
		return ValidationError{Reason: "invalid category"}
	}
	if in.Column != "" && !in.Column.Valid() {
		return ValidationError{Reason: "invalid column"}
	}
	return nil
}

// validateTaskUpdate funnels partial updates through the same rules as
// create. A placeholder title stands in when the caller did not supply one,
// so a present-but-empty title still fails the title-required check.
func validateTaskUpdate(u TaskUpdate) error {
	in := TaskInput{Title: "ok"}
	if u.Title != nil {
		in.Title = *u.Title
	}
	if u.Priority != nil {
		in.Priority = *u.Priority
	}
	if u.Category != nil {
		in.Category = *u.Category
	}
	if u.Column != nil {
		in.Column = *u.Column
	}
	return validateTaskInput(in)
}

// nextOrder derives the order for a task appended to column: one past the
// current maximum among live tasks, or 0 for an empty column. The read and
// the subsequent write are not atomic; duplicate orders from a race degrade
// to the (order, createdAt) sort at read time.
func nextOrder(tasks []Task, column Column) int {
	next := 0
	for _, t := range tasks {
		if t.Column == column && t.Order >= next {
			next = t.Order + 1
		}
	}
	return next
}

func sortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Order != tasks[j].Order {
			return tasks[i].Order < tasks[j].Order
		}
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
}

// liveTask loads a task and maps both "missing" and "soft-deleted" to
// NotFound.
func (s TaskService) liveTask(ctx context.Context, boardID, taskID string) (*Task, error) {
	t, err := s.st.GetTask(ctx, boardID, taskID)
	if err != nil {
		return nil, storeErr("get task", err)
	}
	if t == nil || t.IsDeleted {
		return nil, taskNotFound(taskID)
	}
	return t, nil
}

func (s TaskService) appendActivity(ctx context.Context, boardID, taskID string, action Action, actor string, metadata map[string]any) error {
	if actor == "" {
		actor = AnonymousName
	}
	a := Activity{
		ID:          uuid.NewString(),
		BoardID:     boardID,
		TaskID:      taskID,
		Action:      action,
		PerformedBy: actor,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.st.AppendActivity(ctx, a); err != nil {
		return storeErr("append activity", err)
	}
	return nil
}

// Create validates the input, ensures a board exists, assigns the next
// order in the target column and persists the task plus one TASK_CREATED
// activity record.
func (s TaskService) Create(ctx context.Context, in TaskInput, actor string) (Task, error) {
	if err := validateTaskInput(in); err != nil {
		return Task{}, err
	}
	board, err := ensureBoard(ctx, s.st)
	if err != nil {
		return Task{}, err
	}
	tasks, err := s.st.ListTasks(ctx, board.ID)
	if err != nil {
		return Task{}, storeErr("list tasks", err)
	}

	column := in.Column
	if column == "" {
		column = ColumnTodo
	}
	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	category := in.Category
	if category == "" {
		category = CategoryFeature
	}
	order := nextOrder(tasks, column)
	if in.Order != nil {
		order = *in.Order
	}

	now := time.Now().UTC()
	if actor == "" {
		actor = AnonymousName
	}
	t := Task{
		ID:          uuid.NewString(),
		BoardID:     board.ID,
		Title:       in.Title,
		Description: in.Description,
		Column:      column,
		Priority:    priority,
		Category:    category,
		Order:       order,
		Labels:      emptyIfNil(in.Labels),
		Checklist:   emptyChecklistIfNil(in.Checklist),
		DueDate:     in.DueDate,
		Members:     emptyIfNil(in.Members),
		Attachments: []string{},
		CreatedBy:   actor,
		UpdatedBy:   actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.st.InsertTask(ctx, t); err != nil {
		return Task{}, storeErr("insert task", err)
	}
	if err := s.appendActivity(ctx, board.ID, t.ID, ActionTaskCreated, actor, map[string]any{"title": t.Title}); err != nil {
		return Task{}, err
	}
	log.WithFields(log.Fields{"task": t.ID, "column": column, "order": order, "actor": actor}).Debug("task created")
	return t, nil
}

// Update merges the supplied fields onto a live task and records one
// TASK_UPDATED activity entry carrying the updates as given.
func (s TaskService) Update(ctx context.Context, boardID, taskID string, upd TaskUpdate, actor string) (Task, error) {
	if err := validateTaskUpdate(upd); err != nil {
		return Task{}, err
	}
	t, err := s.liveTask(ctx, boardID, taskID)
	if err != nil {
		return Task{}, err
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Column != nil {
		t.Column = *upd.Column
	}
	if upd.Priority != nil {
		t.Priority = *upd.Priority
	}
	if upd.Category != nil {
		t.Category = *upd.Category
	}
	if upd.Labels != nil {
		t.Labels = emptyIfNil(*upd.Labels)
	}
	if upd.Checklist != nil {
		t.Checklist = emptyChecklistIfNil(*upd.Checklist)
	}
	if upd.DueDate.Set {
		t.DueDate = upd.DueDate.Value
	}
	if upd.Members != nil {
		t.Members = emptyIfNil(*upd.Members)
	}
	if actor == "" {
		actor = AnonymousName
	}
	t.UpdatedBy = actor
	t.UpdatedAt = time.Now().UTC()
	if err := s.st.UpdateTask(ctx, *t); err != nil {
		return Task{}, storeErr("update task", err)
	}
	if err := s.appendActivity(ctx, boardID, t.ID, ActionTaskUpdated, actor, upd.Metadata()); err != nil {
		return Task{}, err
	}
	return *t, nil
}

// Move places a live task at the end of the destination column and records
// one TASK_MOVED activity entry. Relative position within the source column
// is not preserved.
func (s TaskService) Move(ctx context.Context, boardID, taskID string, column Column, actor string) (Task, error) {
	if !column.Valid() {
		return Task{}, ValidationError{Reason: "invalid column"}
	}
	t, err := s.liveTask(ctx, boardID, taskID)
	if err != nil {
		return Task{}, err
	}
	tasks, err := s.st.ListTasks(ctx, boardID)
	if err != nil {
		return Task{}, storeErr("list tasks", err)
	}
	from := t.Column
	t.Column = column
	t.Order = nextOrder(tasks, column)
	if actor == "" {
		actor = AnonymousName
	}
	t.UpdatedBy = actor
	t.UpdatedAt = time.Now().UTC()
	if err := s.st.UpdateTask(ctx, *t); err != nil {
		return Task{}, storeErr("update task", err)
	}
	meta := map[string]any{"from": string(from), "to": string(column)}
	if err := s.appendActivity(ctx, boardID, t.ID, ActionTaskMoved, actor, meta); err != nil {
		return Task{}, err
	}
	return *t, nil
}

// Reorder assigns each task in orderedIDs its positional index as the new
// order, restricted to live tasks currently in the given column; foreign or
// deleted ids are silently skipped. It returns the full resynced task list.
//
// Reorder intentionally writes no activity record: it is high-frequency and
// would drown the log. Every other mutation logs exactly once.
func (s TaskService) Reorder(ctx context.Context, boardID string, column Column, orderedIDs []string, actor string) ([]TaskView, error) {
	if !column.Valid() {
		return nil, ValidationError{Reason: "invalid column"}
	}
	tasks, err := s.st.ListTasks(ctx, boardID)
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	byID := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	if actor == "" {
		actor = AnonymousName
	}
	now := time.Now().UTC()
	for i, id := range orderedIDs {
		t, ok := byID[id]
		if !ok || t.Column != column {
			continue
		}
		t.Order = i
		t.UpdatedBy = actor
		t.UpdatedAt = now
		if err := s.st.UpdateTask(ctx, t); err != nil {
			return nil, storeErr("update task", err)
		}
	}
	return s.ListAll(ctx, boardID)
}

// Delete soft-deletes a live task and records one TASK_DELETED activity
// entry. Sibling orders are not renumbered; attachments and activity stay.
func (s TaskService) Delete(ctx context.Context, boardID, taskID string, actor string) error {
	t, err := s.liveTask(ctx, boardID, taskID)
	if err != nil {
		return err
	}
	if actor == "" {
		actor = AnonymousName
	}
	t.IsDeleted = true
	t.UpdatedBy = actor
	t.UpdatedAt = time.Now().UTC()
	if err := s.st.UpdateTask(ctx, *t); err != nil {
		return storeErr("update task", err)
	}
	return s.appendActivity(ctx, boardID, t.ID, ActionTaskDeleted, actor, nil)
}

// AddAttachment creates an attachment record from the upload metadata,
// appends its reference to the task and records one ATTACHMENT_ADDED
// activity entry.
func (s TaskService) AddAttachment(ctx context.Context, boardID, taskID string, file FileMetadata, actor string) (Attachment, error) {
	t, err := s.liveTask(ctx, boardID, taskID)
	if err != nil {
		return Attachment{}, err
	}
	if actor == "" {
		actor = AnonymousName
	}
	att := Attachment{
		ID:         uuid.NewString(),
		TaskID:     t.ID,
		FileName:   file.Name,
		FileURL:    file.URL,
		FileType:   file.Type,
		FileSize:   file.Size,
		UploadedBy: actor,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.st.InsertAttachment(ctx, boardID, att); err != nil {
		return Attachment{}, storeErr("insert attachment", err)
	}
	t.Attachments = append(t.Attachments, att.ID)
	t.UpdatedBy = actor
	t.UpdatedAt = att.CreatedAt
	if err := s.st.UpdateTask(ctx, *t); err != nil {
		return Attachment{}, storeErr("update task", err)
	}
	meta := map[string]any{"file": file.Name}
	if err := s.appendActivity(ctx, boardID, t.ID, ActionAttachmentAdded, actor, meta); err != nil {
		return Attachment{}, err
	}
	return att, nil
}

// ListAll returns every live task with attachment and member references
// resolved, sorted by (order, createdAt). This is the canonical full-resync
// payload.
func (s TaskService) ListAll(ctx context.Context, boardID string) ([]TaskView, error) {
	tasks, err := s.st.ListTasks(ctx, boardID)
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	sortTasks(tasks)

	atts, err := s.st.ListAttachments(ctx, boardID)
	if err != nil {
		return nil, storeErr("list attachments", err)
	}
	attByID := make(map[string]Attachment, len(atts))
	for _, a := range atts {
		attByID[a.ID] = a
	}

	users, err := s.st.ListUsers(ctx)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	userByID := make(map[string]User, len(users))
	for _, u := range users {
		userByID[u.ID] = u
	}

	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		v := TaskView{Task: t, Attachments: []Attachment{}, Members: []UserRef{}}
		for _, id := range t.Attachments {
			if a, ok := attByID[id]; ok {
				v.Attachments = append(v.Attachments, a)
			}
		}
		for _, id := range t.Members {
			if u, ok := userByID[id]; ok {
				v.Members = append(v.Members, UserRef{ID: u.ID, Username: u.Username, Email: u.Email})
			} else {
				v.Members = append(v.Members, UserRef{ID: id})
			}
		}
		views = append(views, v)
	}
	return views, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyChecklistIfNil(s []ChecklistItem) []ChecklistItem {
	if s == nil {
		return []ChecklistItem{}
	}
	return s
}
