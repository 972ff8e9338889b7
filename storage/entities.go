package storage

import (
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"kanban-api/domain"
)

const (
	edmInt64 = "Edm.Int64"

	boardPartition = "board"
	userPartition  = "user"
)

// taskEntity is the table representation of a task. Collection-valued
// fields are stored as JSON strings; timestamps as Unix milliseconds.
type taskEntity struct {
	aztables.Entity
	Title         string `json:"Title"`
	Description   string `json:"Description"`
	Column        string `json:"Column"`
	Priority      string `json:"Priority"`
	Category      string `json:"Category"`
	Order         int    `json:"Order"`
	Labels        string `json:"Labels"`
	Checklist     string `json:"Checklist"`
	DueDate       int64  `json:"DueDate,string"`
	DueDateType   string `json:"DueDate@odata.type"`
	Members       string `json:"Members"`
	Attachments   string `json:"Attachments"`
	CreatedBy     string `json:"CreatedBy"`
	UpdatedBy     string `json:"UpdatedBy"`
	IsDeleted     bool   `json:"IsDeleted"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type"`
	UpdatedAt     int64  `json:"UpdatedAt,string"`
	UpdatedAtType string `json:"UpdatedAt@odata.type"`
}

type boardEntity struct {
	aztables.Entity
	Name          string `json:"Name"`
	Description   string `json:"Description"`
	Background    string `json:"Background"`
	SwimlaneMode  string `json:"SwimlaneMode"`
	PowerUps      string `json:"PowerUps"`
	Columns       string `json:"Columns"`
	CreatedBy     string `json:"CreatedBy"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type"`
	UpdatedAt     int64  `json:"UpdatedAt,string"`
	UpdatedAtType string `json:"UpdatedAt@odata.type"`
}

type attachmentEntity struct {
	aztables.Entity
	TaskID        string `json:"TaskID"`
	FileName      string `json:"FileName"`
	FileURL       string `json:"FileURL"`
	FileType      string `json:"FileType"`
	FileSize      int64  `json:"FileSize,string"`
	FileSizeType  string `json:"FileSize@odata.type"`
	UploadedBy    string `json:"UploadedBy"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type"`
}

type activityEntity struct {
	aztables.Entity
	ActivityID    string `json:"ActivityID"`
	TaskID        string `json:"TaskID"`
	Action        string `json:"Action"`
	PerformedBy   string `json:"PerformedBy"`
	Metadata      string `json:"Metadata"`
	CreatedAt     int64  `json:"CreatedAt,string"`
	CreatedAtType string `json:"CreatedAt@odata.type"`
}

type userEntity struct {
	aztables.Entity
	Username     string `json:"Username"`
	Email        string `json:"Email"`
	LastSeen     int64  `json:"LastSeen,string"`
	LastSeenType string `json:"LastSeen@odata.type"`
}

func encodeTask(t domain.Task) (taskEntity, error) {
	labels, err := json.Marshal(t.Labels)
	if err != nil {
		return taskEntity{}, err
	}
	checklist, err := json.Marshal(t.Checklist)
	if err != nil {
		return taskEntity{}, err
	}
	members, err := json.Marshal(t.Members)
	if err != nil {
		return taskEntity{}, err
	}
	attachments, err := json.Marshal(t.Attachments)
	if err != nil {
		return taskEntity{}, err
	}
	ent := taskEntity{
		Entity:        aztables.Entity{PartitionKey: t.BoardID, RowKey: t.ID},
		Title:         t.Title,
		Description:   t.Description,
		Column:        string(t.Column),
		Priority:      string(t.Priority),
		Category:      string(t.Category),
		Order:         t.Order,
		Labels:        string(labels),
		Checklist:     string(checklist),
		DueDateType:   edmInt64,
		Members:       string(members),
		Attachments:   string(attachments),
		CreatedBy:     t.CreatedBy,
		UpdatedBy:     t.UpdatedBy,
		IsDeleted:     t.IsDeleted,
		CreatedAt:     t.CreatedAt.UnixMilli(),
		CreatedAtType: edmInt64,
		UpdatedAt:     t.UpdatedAt.UnixMilli(),
		UpdatedAtType: edmInt64,
	}
	if t.DueDate != nil {
		ent.DueDate = t.DueDate.UnixMilli()
	}
	return ent, nil
}

func decodeTask(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	t := domain.Task{
		ID:          ent.RowKey,
		BoardID:     ent.PartitionKey,
		Title:       ent.Title,
		Description: ent.Description,
		Column:      domain.Column(ent.Column),
		Priority:    domain.Priority(ent.Priority),
		Category:    domain.Category(ent.Category),
		Order:       ent.Order,
		Labels:      []string{},
		Checklist:   []domain.ChecklistItem{},
		Members:     []string{},
		Attachments: []string{},
		CreatedBy:   ent.CreatedBy,
		UpdatedBy:   ent.UpdatedBy,
		IsDeleted:   ent.IsDeleted,
		CreatedAt:   time.UnixMilli(ent.CreatedAt).UTC(),
		UpdatedAt:   time.UnixMilli(ent.UpdatedAt).UTC(),
	}
	if ent.DueDate != 0 {
		due := time.UnixMilli(ent.DueDate).UTC()
		t.DueDate = &due
	}
	if ent.Labels != "" {
		if err := json.Unmarshal([]byte(ent.Labels), &t.Labels); err != nil {
			return domain.Task{}, err
		}
	}
	if ent.Checklist != "" {
		if err := json.Unmarshal([]byte(ent.Checklist), &t.Checklist); err != nil {
			return domain.Task{}, err
		}
	}
	if ent.Members != "" {
		if err := json.Unmarshal([]byte(ent.Members), &t.Members); err != nil {
			return domain.Task{}, err
		}
	}
	if ent.Attachments != "" {
		if err := json.Unmarshal([]byte(ent.Attachments), &t.Attachments); err != nil {
			return domain.Task{}, err
		}
	}
	return t, nil
}

func encodeBoard(b domain.Board) (boardEntity, error) {
	powerUps, err := json.Marshal(b.PowerUps)
	if err != nil {
		return boardEntity{}, err
	}
	columns, err := json.Marshal(b.Columns)
	if err != nil {
		return boardEntity{}, err
	}
	return boardEntity{
		Entity:        aztables.Entity{PartitionKey: boardPartition, RowKey: b.ID},
		Name:          b.Name,
		Description:   b.Description,
		Background:    b.Background,
		SwimlaneMode:  string(b.SwimlaneMode),
		PowerUps:      string(powerUps),
		Columns:       string(columns),
		CreatedBy:     b.CreatedBy,
		CreatedAt:     b.CreatedAt.UnixMilli(),
		CreatedAtType: edmInt64,
		UpdatedAt:     b.UpdatedAt.UnixMilli(),
		UpdatedAtType: edmInt64,
	}, nil
}

func decodeBoard(data []byte) (domain.Board, error) {
	var ent boardEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Board{}, err
	}
	b := domain.Board{
		ID:           ent.RowKey,
		Name:         ent.Name,
		Description:  ent.Description,
		Background:   ent.Background,
		SwimlaneMode: domain.SwimlaneMode(ent.SwimlaneMode),
		PowerUps:     map[string]bool{},
		Columns:      []domain.Column{},
		CreatedBy:    ent.CreatedBy,
		CreatedAt:    time.UnixMilli(ent.CreatedAt).UTC(),
		UpdatedAt:    time.UnixMilli(ent.UpdatedAt).UTC(),
	}
	if ent.PowerUps != "" {
		if err := json.Unmarshal([]byte(ent.PowerUps), &b.PowerUps); err != nil {
			return domain.Board{}, err
		}
	}
	if ent.Columns != "" {
		if err := json.Unmarshal([]byte(ent.Columns), &b.Columns); err != nil {
			return domain.Board{}, err
		}
	}
	return b, nil
}

func encodeAttachment(a domain.Attachment, boardID string) attachmentEntity {
	return attachmentEntity{
		Entity:        aztables.Entity{PartitionKey: boardID, RowKey: a.ID},
		TaskID:        a.TaskID,
		FileName:      a.FileName,
		FileURL:       a.FileURL,
		FileType:      a.FileType,
		FileSize:      a.FileSize,
		FileSizeType:  edmInt64,
		UploadedBy:    a.UploadedBy,
		CreatedAt:     a.CreatedAt.UnixMilli(),
		CreatedAtType: edmInt64,
	}
}

func decodeAttachment(data []byte) (domain.Attachment, error) {
	var ent attachmentEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Attachment{}, err
	}
	return domain.Attachment{
		ID:         ent.RowKey,
		TaskID:     ent.TaskID,
		FileName:   ent.FileName,
		FileURL:    ent.FileURL,
		FileType:   ent.FileType,
		FileSize:   ent.FileSize,
		UploadedBy: ent.UploadedBy,
		CreatedAt:  time.UnixMilli(ent.CreatedAt).UTC(),
	}, nil
}

func encodeActivity(a domain.Activity) (activityEntity, error) {
	metadata := []byte("{}")
	if a.Metadata != nil {
		var err error
		metadata, err = json.Marshal(a.Metadata)
		if err != nil {
			return activityEntity{}, err
		}
	}
	return activityEntity{
		Entity:        aztables.Entity{PartitionKey: a.BoardID, RowKey: activityRowKey(a)},
		ActivityID:    a.ID,
		TaskID:        a.TaskID,
		Action:        string(a.Action),
		PerformedBy:   a.PerformedBy,
		Metadata:      string(metadata),
		CreatedAt:     a.CreatedAt.UnixMilli(),
		CreatedAtType: edmInt64,
	}, nil
}

func decodeActivity(data []byte) (domain.Activity, error) {
	var ent activityEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Activity{}, err
	}
	a := domain.Activity{
		ID:          ent.ActivityID,
		BoardID:     ent.PartitionKey,
		TaskID:      ent.TaskID,
		Action:      domain.Action(ent.Action),
		PerformedBy: ent.PerformedBy,
		Metadata:    map[string]any{},
		CreatedAt:   time.UnixMilli(ent.CreatedAt).UTC(),
	}
	if ent.Metadata != "" {
		if err := json.Unmarshal([]byte(ent.Metadata), &a.Metadata); err != nil {
			return domain.Activity{}, err
		}
	}
	return a, nil
}

func encodeUser(u domain.User) userEntity {
	return userEntity{
		Entity:       aztables.Entity{PartitionKey: userPartition, RowKey: u.ID},
		Username:     u.Username,
		Email:        u.Email,
		LastSeen:     u.LastSeen.UnixMilli(),
		LastSeenType: edmInt64,
	}
}

func decodeUser(data []byte) (domain.User, error) {
	var ent userEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.User{}, err
	}
	return domain.User{
		ID:       ent.RowKey,
		Username: ent.Username,
		Email:    ent.Email,
		LastSeen: time.UnixMilli(ent.LastSeen).UTC(),
	}, nil
}
