// Package storage defines the persistence capability the tracker writes
// through and opens the configured backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/actionsum/ctvtcntr/internal/database"
	"github.com/actionsum/ctvtcntr/internal/ledger"
	"github.com/actionsum/ctvtcntr/internal/models"
	"github.com/actionsum/ctvtcntr/internal/normalize"
	"github.com/actionsum/ctvtcntr/internal/tablefile"
)

const (
	BackendSQLite = "sqlite"
	BackendCSV    = "csv"
	BackendMemory = "memory"
)

var ErrUnknownBackend = errors.New("unknown storage backend")

var (
	_ Adapter       = (*database.Store)(nil)
	_ Adapter       = (*tablefile.Store)(nil)
	_ Adapter       = (*Memory)(nil)
	_ UsageLookup   = (*database.Store)(nil)
	_ ErrorRecorder = (*database.Store)(nil)
	_ ErrorLister   = (*database.Store)(nil)
)

// Adapter is durable storage for usage records.
//
// LoadAll returns everything stored; an absent store yields no records and
// no error. Upsert adds rec.Duration, truncated to whole seconds, to the
// stored total for rec's key and creates the key when missing. A failed
// Upsert must leave the stored total unchanged so the caller can retry.
type Adapter interface {
	LoadAll(ctx context.Context) ([]ledger.Record, error)
	Upsert(ctx context.Context, rec ledger.Record) error
	Close() error
}

// Clearer is implemented by adapters that can drop all records.
type Clearer interface {
	Clear(ctx context.Context) error
}

// ErrorRecorder is implemented by adapters that keep an error log.
type ErrorRecorder interface {
	RecordError(ctx context.Context, msg, runID string) error
}

// ErrorLister returns the newest error log entries first.
type ErrorLister interface {
	RecentErrors(ctx context.Context, limit int) ([]models.ErrorLog, error)
}

// UsageLookup is implemented by adapters that can answer a single-key query
// without loading everything.
type UsageLookup interface {
	Usage(ctx context.Context, date ledger.Date, id normalize.Identity) (time.Duration, bool, error)
}

// Open returns the adapter for backend, storing its data at path.
func Open(backend, path string) (Adapter, error) {
	switch backend {
	case BackendSQLite:
		s, err := database.Open(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendCSV:
		s, err := tablefile.Open(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w %q (want %s or %s)", ErrUnknownBackend, backend, BackendSQLite, BackendCSV)
	}
}

// Usage returns the stored total for (date, id), asking the adapter directly
// when it supports lookups.
func Usage(ctx context.Context, a Adapter, date ledger.Date, id normalize.Identity) (time.Duration, bool, error) {
	if l, ok := a.(UsageLookup); ok {
		return l.Usage(ctx, date, id)
	}

	records, err := a.LoadAll(ctx)
	if err != nil {
		return 0, false, err
	}
	for _, r := range records {
		if r.Date == date && r.Identity == id {
			return r.Duration, true, nil
		}
	}
	return 0, false, nil
}

// IsRetryable reports whether a failed write may succeed on a later flush.
// Errors that do not say otherwise are treated as retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}
