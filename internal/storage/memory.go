package storage

import (
	"context"
	"sync"
	"time"

	"github.com/actionsum/ctvtcntr/internal/ledger"
)

// Memory keeps records in process memory. It backs dry runs and tests.
type Memory struct {
	mu   sync.Mutex
	rows map[ledger.Key]int64
}

func NewMemory() *Memory {
	return &Memory{rows: make(map[ledger.Key]int64)}
}

func (m *Memory) LoadAll(ctx context.Context) ([]ledger.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]ledger.Record, 0, len(m.rows))
	for k, secs := range m.rows {
		records = append(records, ledger.Record{Date: k.Date, Identity: k.Identity, Duration: time.Duration(secs) * time.Second})
	}
	ledger.SortRecords(records)
	return records, nil
}

func (m *Memory) Upsert(ctx context.Context, rec ledger.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.Duration < 0 {
		return ledger.ErrNegativeDuration
	}
	if rec.Identity.IsEmpty() {
		return ledger.ErrEmptyIdentity
	}
	m.mu.Lock()
	m.rows[rec.Key()] += rec.Seconds()
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.rows = make(map[ledger.Key]int64)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error {
	return nil
}
