package reconcile

import (
	"fmt"
	"strings"
)

// ValidationError lists the mandatory invoice fields that are missing or
// malformed. Nothing is written when it is returned.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid invoice: " + strings.Join(e.Problems, "; ")
}

// PersistenceError wraps a failed write. The transaction has been rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
