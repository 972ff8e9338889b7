package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ensureBoard returns the board, creating it with defaults on first access.
// Two racing first accesses can both insert; reads settle on the first
// board the store returns.
func ensureBoard(ctx context.Context, st Store) (Board, error) {
	b, err := st.FindBoard(ctx)
	if err != nil {
		return Board{}, storeErr("find board", err)
	}
	if b != nil {
		return *b, nil
	}
	created := newBoard(uuid.NewString(), time.Now().UTC())
	if err := st.InsertBoard(ctx, created); err != nil {
		return Board{}, storeErr("insert board", err)
	}
	return created, nil
}

// BoardService reads and updates the board settings document.
type BoardService struct {
	st Store
}

func NewBoardService(st Store) BoardService { return BoardService{st: st} }

// Get returns the board, lazily creating it if absent.
func (s BoardService) Get(ctx context.Context) (Board, error) {
	return ensureBoard(ctx, s.st)
}

// UpdateSettings merges the supplied settings onto the board.
func (s BoardService) UpdateSettings(ctx context.Context, upd BoardUpdate) (Board, error) {
	if upd.SwimlaneMode != nil && !upd.SwimlaneMode.Valid() {
		return Board{}, ValidationError{Reason: "invalid swimlaneMode"}
	}
	b, err := ensureBoard(ctx, s.st)
	if err != nil {
		return Board{}, err
	}
	if upd.Name != nil {
		b.Name = *upd.Name
	}
	if upd.Description != nil {
		b.Description = *upd.Description
	}
	if upd.Background != nil {
		b.Background = *upd.Background
	}
	if upd.SwimlaneMode != nil {
		b.SwimlaneMode = *upd.SwimlaneMode
	}
	if upd.PowerUps != nil {
		b.PowerUps = *upd.PowerUps
	}
	b.UpdatedAt = time.Now().UTC()
	if err := s.st.UpdateBoard(ctx, b); err != nil {
		return Board{}, storeErr("update board", err)
	}
	return b, nil
}
