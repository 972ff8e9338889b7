package domain

import "fmt"

// ValidationError reports malformed or out-of-enum input. The operation is
// rejected before any state change.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string { return e.Reason }

// NotFoundError reports a reference to an entity that does not exist or is
// soft-deleted.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Kind, e.ID) }

// StoreError wraps a persistence failure so callers can tell it apart from
// a domain rejection. The wrapped operation is never retried here.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func taskNotFound(id string) error { return NotFoundError{Kind: "task", ID: id} }
