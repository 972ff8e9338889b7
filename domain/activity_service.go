package domain

import "context"

// boardActivityLimit caps the board-level listing to the most recent
// entries.
const boardActivityLimit = 50

// ActivityService serves read-only views of the audit log.
type ActivityService struct {
	st Store
}

func NewActivityService(st Store) ActivityService { return ActivityService{st: st} }

// BoardActivity returns the most recent entries for a board, newest first.
func (s ActivityService) BoardActivity(ctx context.Context, boardID string) ([]Activity, error) {
	entries, err := s.st.ListBoardActivity(ctx, boardID, boardActivityLimit)
	if err != nil {
		return nil, storeErr("list board activity", err)
	}
	return entries, nil
}

// TaskActivity returns every entry referencing a task, newest first.
func (s ActivityService) TaskActivity(ctx context.Context, boardID, taskID string) ([]Activity, error) {
	entries, err := s.st.ListTaskActivity(ctx, boardID, taskID)
	if err != nil {
		return nil, storeErr("list task activity", err)
	}
	return entries, nil
}
