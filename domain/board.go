package domain

import "time"

// SwimlaneMode is the secondary, display-only grouping axis.
type SwimlaneMode string

const (
	SwimlaneNone     SwimlaneMode = "none"
	SwimlanePriority SwimlaneMode = "priority"
	SwimlaneMember   SwimlaneMode = "member"
)

func (m SwimlaneMode) Valid() bool {
	switch m {
	case SwimlaneNone, SwimlanePriority, SwimlaneMember:
		return true
	}
	return false
}

// Board is the configuration container every task belongs to. One board
// exists per deployment; it is created lazily on first access.
type Board struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Background   string          `json:"background"`
	SwimlaneMode SwimlaneMode    `json:"swimlaneMode"`
	PowerUps     map[string]bool `json:"powerUps"`
	Columns      []Column        `json:"columns"`
	CreatedBy    string          `json:"createdBy"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// BoardUpdate carries partial updates of the board settings. Nil fields are
// untouched. The column set is fixed and not updatable here.
type BoardUpdate struct {
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	Background   *string          `json:"background"`
	SwimlaneMode *SwimlaneMode    `json:"swimlaneMode"`
	PowerUps     *map[string]bool `json:"powerUps"`
}

func newBoard(id string, now time.Time) Board {
	return Board{
		ID:           id,
		Name:         "Main Board",
		Background:   "aurora",
		SwimlaneMode: SwimlaneNone,
		PowerUps:     map[string]bool{"calendar": false, "analytics": true},
		Columns:      append([]Column(nil), DefaultColumns...),
		CreatedBy:    "system",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
