package domain

import (
	"context"
	"sort"
	"time"
)

// UserService records identities declared over the realtime channel and
// lists them for member assignment.
type UserService struct {
	st Store
}

func NewUserService(st Store) UserService { return UserService{st: st} }

// RecordIdentity upserts the user behind an identified session.
func (s UserService) RecordIdentity(ctx context.Context, u User) error {
	if u.ID == "" {
		return ValidationError{Reason: "user id required"}
	}
	u.LastSeen = time.Now().UTC()
	if err := s.st.UpsertUser(ctx, u); err != nil {
		return storeErr("upsert user", err)
	}
	return nil
}

// List returns all known users as minimal projections, sorted by username.
func (s UserService) List(ctx context.Context) ([]UserRef, error) {
	users, err := s.st.ListUsers(ctx)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	refs := make([]UserRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, UserRef{ID: u.ID, Username: u.Username, Email: u.Email})
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Username != refs[j].Username {
			return refs[i].Username < refs[j].Username
		}
		return refs[i].ID < refs[j].ID
	})
	return refs, nil
}
