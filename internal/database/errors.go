package database

import (
	"context"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Error is a failed database operation, classified as retryable or fatal.
type Error struct {
	Op        string
	Err       error
	retryable bool
}

func (e *Error) Error() string {
	kind := "fatal"
	if e.retryable {
		kind = "retryable"
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the operation later can succeed.
func (e *Error) Retryable() bool {
	return e.retryable
}

// classify wraps err with the operation name. Lock contention and I/O
// hiccups are retryable; a damaged, unreadable or read-only database is not.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err, retryable: isRetryable(err)}
}

func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return true
	}

	switch sqliteErr.Code {
	case sqlite3.ErrCorrupt,
		sqlite3.ErrNotADB,
		sqlite3.ErrPerm,
		sqlite3.ErrReadonly,
		sqlite3.ErrCantOpen,
		sqlite3.ErrFull,
		sqlite3.ErrAuth,
		sqlite3.ErrConstraint,
		sqlite3.ErrMismatch:
		return false
	default:
		return true
	}
}
