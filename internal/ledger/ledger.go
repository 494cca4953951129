// Package ledger aggregates accrued focus time per (day, identity).
//
// The ledger performs no I/O and knows nothing about polling. It is the only
// place where durations are summed, and no operation on it can decrease a
// stored duration.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/actionsum/ctvtcntr/internal/normalize"
)

// DateLayout is the calendar-day format used in keys and on disk.
const DateLayout = "2006-01-02"

var (
	ErrNegativeDuration = errors.New("negative duration")
	ErrEmptyIdentity    = errors.New("empty identity")
	ErrInvalidDate      = errors.New("invalid date")
)

// Date is a local calendar day in DateLayout form. Its string order is
// chronological.
type Date string

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// ParseDate validates s as a DateLayout day.
func ParseDate(s string) (Date, error) {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidDate, s, err)
	}
	return Date(s), nil
}

// Time returns midnight of the day in loc.
func (d Date) Time(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, string(d), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, d, err)
	}
	return t, nil
}

func (d Date) String() string { return string(d) }

// Key identifies one record.
type Key struct {
	Date     Date
	Identity normalize.Identity
}

// Record is the accumulated usage for one key.
type Record struct {
	Date     Date               `json:"date"`
	Identity normalize.Identity `json:"identity"`
	Duration time.Duration      `json:"-"`
}

// Key returns the record's key.
func (r Record) Key() Key {
	return Key{Date: r.Date, Identity: r.Identity}
}

// Seconds returns the duration truncated to whole seconds.
func (r Record) Seconds() int64 {
	return int64(r.Duration / time.Second)
}

// Ledger is the in-memory aggregate. It is not safe for concurrent use; the
// tracker owns it from a single goroutine.
type Ledger struct {
	totals map[Key]time.Duration
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{totals: make(map[Key]time.Duration)}
}

// Accrue adds delta to the record for (date, id), creating it at zero first
// if needed. A zero delta is a no-op and creates nothing.
func (l *Ledger) Accrue(date Date, id normalize.Identity, delta time.Duration) error {
	if delta < 0 {
		return fmt.Errorf("accrue %s/%s: %w (%v)", date, id, ErrNegativeDuration, delta)
	}
	if id.IsEmpty() {
		return fmt.Errorf("accrue %s: %w", date, ErrEmptyIdentity)
	}
	if delta == 0 {
		return nil
	}
	l.totals[Key{Date: date, Identity: id}] += delta
	return nil
}

// Seed adds previously persisted records. Duplicate keys are summed, a
// zero-duration record still creates its key and negative durations are
// ignored.
func (l *Ledger) Seed(records []Record) {
	for _, r := range records {
		if r.Duration < 0 || r.Identity.IsEmpty() {
			continue
		}
		l.totals[r.Key()] += r.Duration
	}
}

// Get returns the total for (date, id).
func (l *Ledger) Get(date Date, id normalize.Identity) (time.Duration, bool) {
	d, ok := l.totals[Key{Date: date, Identity: id}]
	return d, ok
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	return len(l.totals)
}

// Snapshot returns all records ordered by date, then identity.
func (l *Ledger) Snapshot() []Record {
	records := make([]Record, 0, len(l.totals))
	for k, d := range l.totals {
		records = append(records, Record{Date: k.Date, Identity: k.Identity, Duration: d})
	}
	SortRecords(records)
	return records
}

// SortRecords orders records by date, then identity.
func SortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		return records[i].Identity < records[j].Identity
	})
}
