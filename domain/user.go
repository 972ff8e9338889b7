package domain

import "time"

// User is a known identity, recorded whenever a session identifies itself.
type User struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	LastSeen time.Time `json:"lastSeen"`
}

// UserRef is the minimal projection embedded into task views for member
// assignment.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}
