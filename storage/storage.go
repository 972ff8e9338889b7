package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"kanban-api/domain"
)

// Config names the tables and the optional activity feed queue.
type Config struct {
	TasksTable       string
	BoardsTable      string
	AttachmentsTable string
	ActivitiesTable  string
	UsersTable       string
	// ActivityQueue receives a JSON copy of every activity record for
	// external integrations. Empty disables the feed.
	ActivityQueue string
}

// Storage provides access to the underlying persistence mechanisms.
type Storage struct {
	tasks       *aztables.Client
	boards      *aztables.Client
	attachments *aztables.Client
	activities  *aztables.Client
	users       *aztables.Client
	feed        *activityFeed
}

// New creates a Storage instance from the given connection string.
func New(connStr string, cfg Config) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	s := &Storage{
		tasks:       svc.NewClient(cfg.TasksTable),
		boards:      svc.NewClient(cfg.BoardsTable),
		attachments: svc.NewClient(cfg.AttachmentsTable),
		activities:  svc.NewClient(cfg.ActivitiesTable),
		users:       svc.NewClient(cfg.UsersTable),
	}
	if cfg.ActivityQueue != "" {
		queueClientOptions := azqueue.ClientOptions{
			ClientOptions: azcore.ClientOptions{
				Retry: policy.RetryOptions{
					MaxRetries:    5,
					TryTimeout:    time.Minute * 5,
					RetryDelay:    time.Second * 1,
					MaxRetryDelay: time.Second * 60,
					StatusCodes:   []int{408, 429, 500, 502, 503, 504},
				},
			},
		}
		queue, err := azqueue.NewQueueClientFromConnectionString(connStr, cfg.ActivityQueue, &queueClientOptions)
		if err != nil {
			return nil, err
		}
		s.feed = newActivityFeed(queue)
	}
	return s, nil
}

// Close drains the activity feed workers.
func (s *Storage) Close() {
	if s.feed != nil {
		s.feed.close()
	}
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}

// quoteFilterValue doubles single quotes per the OData literal rules so a
// caller-supplied id cannot break out of the filter string.
func quoteFilterValue(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}

// GetTask retrieves a task entity if present, soft-deleted ones included.
func (s *Storage) GetTask(ctx context.Context, boardID, taskID string) (*domain.Task, error) {
	ent, err := s.tasks.GetEntity(ctx, boardID, taskID, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	t, err := decodeTask(ent.Value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Storage) InsertTask(ctx context.Context, t domain.Task) error {
	ent, err := encodeTask(t)
	if err != nil {
		return err
	}
	payload, err := marshalEntity(ent)
	if err != nil {
		return err
	}
	_, err = s.tasks.AddEntity(ctx, payload, nil)
	return err
}

func (s *Storage) UpdateTask(ctx context.Context, t domain.Task) error {
	ent, err := encodeTask(t)
	if err != nil {
		return err
	}
	payload, err := marshalEntity(ent)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = s.tasks.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeReplace})
	return err
}

// ListTasks retrieves all live tasks of a board.
func (s *Storage) ListTasks(ctx context.Context, boardID string) ([]domain.Task, error) {
	filter := fmt.Sprintf("PartitionKey eq '%s' and IsDeleted eq false", quoteFilterValue(boardID))
	pager := s.tasks.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			t, err := decodeTask(e)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// FindBoard returns the first board or nil when none exists yet.
func (s *Storage) FindBoard(ctx context.Context) (*domain.Board, error) {
	filter := fmt.Sprintf("PartitionKey eq '%s'", boardPartition)
	top := int32(1)
	pager := s.boards.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter, Top: &top})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		if len(resp.Entities) == 0 {
			continue
		}
		b, err := decodeBoard(resp.Entities[0])
		if err != nil {
			return nil, err
		}
		return &b, nil
	}
	return nil, nil
}

func (s *Storage) InsertBoard(ctx context.Context, b domain.Board) error {
	ent, err := encodeBoard(b)
	if err != nil {
		return err
	}
	payload, err := marshalEntity(ent)
	if err != nil {
		return err
	}
	_, err = s.boards.AddEntity(ctx, payload, nil)
	return err
}

func (s *Storage) UpdateBoard(ctx context.Context, b domain.Board) error {
	ent, err := encodeBoard(b)
	if err != nil {
		return err
	}
	payload, err := marshalEntity(ent)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = s.boards.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeReplace})
	return err
}

func (s *Storage) InsertAttachment(ctx context.Context, boardID string, a domain.Attachment) error {
	payload, err := marshalEntity(encodeAttachment(a, boardID))
	if err != nil {
		return err
	}
	_, err = s.attachments.AddEntity(ctx, payload, nil)
	return err
}

func (s *Storage) ListAttachments(ctx context.Context, boardID string) ([]domain.Attachment, error) {
	filter := fmt.Sprintf("PartitionKey eq '%s'", quoteFilterValue(boardID))
	pager := s.attachments.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	atts := []domain.Attachment{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			a, err := decodeAttachment(e)
			if err != nil {
				return nil, err
			}
			atts = append(atts, a)
		}
	}
	return atts, nil
}

// AppendActivity persists an audit record and, when a feed queue is
// configured, publishes a JSON copy best-effort.
func (s *Storage) AppendActivity(ctx context.Context, a domain.Activity) error {
	ent, err := encodeActivity(a)
	if err != nil {
		return err
	}
	payload, err := marshalEntity(ent)
	if err != nil {
		return err
	}
	if _, err := s.activities.AddEntity(ctx, payload, nil); err != nil {
		return err
	}
	if s.feed != nil {
		s.feed.publish(a)
	}
	return nil
}

// ListBoardActivity returns up to limit records for a board. Row keys embed
// an inverted timestamp, so the native ascending scan is newest first.
func (s *Storage) ListBoardActivity(ctx context.Context, boardID string, limit int) ([]domain.Activity, error) {
	filter := fmt.Sprintf("PartitionKey eq '%s'", quoteFilterValue(boardID))
	pager := s.activities.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	entries := []domain.Activity{}
	for pager.More() && len(entries) < limit {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			a, err := decodeActivity(e)
			if err != nil {
				return nil, err
			}
			entries = append(entries, a)
			if len(entries) == limit {
				break
			}
		}
	}
	return entries, nil
}

func (s *Storage) ListTaskActivity(ctx context.Context, boardID, taskID string) ([]domain.Activity, error) {
	filter := fmt.Sprintf("PartitionKey eq '%s' and TaskID eq '%s'", quoteFilterValue(boardID), quoteFilterValue(taskID))
	pager := s.activities.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	entries := []domain.Activity{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			a, err := decodeActivity(e)
			if err != nil {
				return nil, err
			}
			entries = append(entries, a)
		}
	}
	return entries, nil
}

func (s *Storage) UpsertUser(ctx context.Context, u domain.User) error {
	payload, err := marshalEntity(encodeUser(u))
	if err != nil {
		return err
	}
	_, err = s.users.UpsertEntity(ctx, payload, nil)
	return err
}

func (s *Storage) ListUsers(ctx context.Context) ([]domain.User, error) {
	filter := fmt.Sprintf("PartitionKey eq '%s'", userPartition)
	pager := s.users.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	users := []domain.User{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			u, err := decodeUser(e)
			if err != nil {
				return nil, err
			}
			users = append(users, u)
		}
	}
	return users, nil
}

var lastRowKeyStamp int64

// nextRowKeyStamp returns a strictly monotonic nanosecond timestamp so two
// activity records written in the same nanosecond still get distinct keys.
func nextRowKeyStamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastRowKeyStamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastRowKeyStamp, last, now) {
			return now
		}
	}
}

// activityRowKey inverts the timestamp so the table's ascending key order
// yields newest-first scans.
func activityRowKey(a domain.Activity) string {
	return fmt.Sprintf("%020d-%s", math.MaxInt64-nextRowKeyStamp(), a.ID)
}
