package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/actionsum/ctvtcntr/internal/ledger"
)

type retryErr bool

func (r retryErr) Error() string   { return "retry" }
func (r retryErr) Retryable() bool { return bool(r) }

func TestOpenBackends(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		backend string
		path    string
	}{
		{BackendSQLite, filepath.Join(dir, "ctvtcntr.db")},
		{BackendCSV, filepath.Join(dir, "usage.csv")},
		{BackendMemory, ""},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			ctx := context.Background()
			a, err := Open(tt.backend, tt.path)
			if err != nil {
				t.Fatalf("Open(%s) error: %v", tt.backend, err)
			}
			defer a.Close()

			if err := a.Upsert(ctx, ledger.Record{Date: "2025-03-01", Identity: "Kitty", Duration: 2 * time.Second}); err != nil {
				t.Fatalf("Upsert() error: %v", err)
			}
			if err := a.Upsert(ctx, ledger.Record{Date: "2025-03-01", Identity: "Kitty", Duration: 3 * time.Second}); err != nil {
				t.Fatalf("Upsert() error: %v", err)
			}

			got, ok, err := Usage(ctx, a, "2025-03-01", "Kitty")
			if err != nil || !ok || got != 5*time.Second {
				t.Errorf("Usage() = %v, %v, %v; want 5s, true, nil", got, ok, err)
			}
			if _, ok, _ := Usage(ctx, a, "2025-03-01", "Nobody"); ok {
				t.Error("Usage() found a missing identity")
			}

			c, ok := a.(Clearer)
			if !ok {
				t.Fatalf("%s backend does not implement Clearer", tt.backend)
			}
			if err := c.Clear(ctx); err != nil {
				t.Fatalf("Clear() error: %v", err)
			}
			records, _ := a.LoadAll(ctx)
			if len(records) != 0 {
				t.Errorf("LoadAll() after Clear() = %v", records)
			}
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("duckdb", "")
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(duckdb) error = %v, want ErrUnknownBackend", err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), true},
		{"fatal", retryErr(false), false},
		{"wrapped fatal", fmt.Errorf("flush: %w", retryErr(false)), false},
		{"retryable", retryErr(true), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
