// Package tablefile stores usage records in a human-readable CSV table.
//
// The table has the columns date, identity and duration. Durations are
// written as whole seconds; the legacy "HHh:MMm:SSs" form is still accepted
// on read. Every write rewrites the whole file through a temporary file and
// a rename, so a crash leaves either the old or the new table on disk.
package tablefile

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/actionsum/ctvtcntr/internal/ledger"
	"github.com/actionsum/ctvtcntr/internal/normalize"

	"github.com/pkg/errors"
)

var header = []string{"date", "identity", "duration"}

// Store is a CSV-backed persistence adapter. It keeps the table in memory
// and rewrites the file on every upsert.
type Store struct {
	path string

	mu   sync.Mutex
	rows map[ledger.Key]int64
}

// Open reads the table at path. A missing or empty file yields an empty
// store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, rows: make(map[ledger.Key]int64)}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errors.Wrapf(err, "failed to open table %s", path)
	}
	defer f.Close()

	records, err := Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read table %s", path)
	}
	for _, r := range records {
		s.rows[r.Key()] += r.Seconds()
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// LoadAll returns every record in the table.
func (s *Store) LoadAll(ctx context.Context) ([]ledger.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]ledger.Record, 0, len(s.rows))
	for k, secs := range s.rows {
		records = append(records, ledger.Record{
			Date:     k.Date,
			Identity: k.Identity,
			Duration: time.Duration(secs) * time.Second,
		})
	}
	ledger.SortRecords(records)
	return records, nil
}

// Upsert adds rec.Duration (whole seconds) to the row for rec's key and
// rewrites the table. If the write fails the in-memory row is rolled back so
// a retry does not count the delta twice.
func (s *Store) Upsert(ctx context.Context, rec ledger.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.Duration < 0 {
		return errors.Wrapf(ledger.ErrNegativeDuration, "upsert %s/%s", rec.Date, rec.Identity)
	}
	if rec.Identity.IsEmpty() {
		return errors.Wrapf(ledger.ErrEmptyIdentity, "upsert %s", rec.Date)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := rec.Key()
	prev, existed := s.rows[key]
	s.rows[key] = prev + rec.Seconds()

	if err := s.writeLocked(); err != nil {
		if existed {
			s.rows[key] = prev
		} else {
			delete(s.rows, key)
		}
		return errors.Wrapf(err, "failed to upsert %s/%s", rec.Date, rec.Identity)
	}
	return nil
}

// Clear removes every row and the backing file.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove table %s", s.path)
	}
	s.rows = make(map[ledger.Key]int64)
	return nil
}

// Close is a no-op; every upsert is already on disk.
func (s *Store) Close() error {
	return nil
}

func (s *Store) writeLocked() error {
	records := make([]ledger.Record, 0, len(s.rows))
	for k, secs := range s.rows {
		records = append(records, ledger.Record{Date: k.Date, Identity: k.Identity, Duration: time.Duration(secs) * time.Second})
	}
	ledger.SortRecords(records)
	return WriteFile(s.path, records, false)
}

// WriteFile atomically replaces path with a table holding records. With
// legacy set, durations are written as "HHh:MMm:SSs".
func WriteFile(path string, records []ledger.Record, legacy bool) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary table")
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if err = Write(tmp, records, legacy); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to sync temporary table")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temporary table")
	}
	if err = os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}

// Write encodes records as CSV with a header row.
func Write(w io.Writer, records []ledger.Record, legacy bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "failed to write header")
	}
	for _, r := range records {
		duration := strconv.FormatInt(r.Seconds(), 10)
		if legacy {
			duration = FormatDuration(r.Duration)
		}
		if err := cw.Write([]string{r.Date.String(), r.Identity.String(), duration}); err != nil {
			return errors.Wrap(err, "failed to write row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush table")
}

// Read decodes a table. The header row is optional. Rows with an invalid
// date or an empty identity are skipped, as are rows the CSV reader cannot
// split; an unreadable duration counts as zero. Duplicate keys are summed.
// Only read errors from r abort.
func Read(r io.Reader) ([]ledger.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	totals := make(map[ledger.Key]time.Duration)
	first := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				first = false
				continue
			}
			return nil, errors.Wrap(err, "failed to parse table")
		}
		if first {
			first = false
			if len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), header[0]) {
				continue
			}
		}
		if len(row) < 2 {
			continue
		}
		date, err := ledger.ParseDate(strings.TrimSpace(row[0]))
		if err != nil {
			continue
		}
		id := normalize.Identity(strings.TrimSpace(row[1]))
		if id.IsEmpty() {
			continue
		}
		var d time.Duration
		if len(row) > 2 {
			d = parseCell(row[2])
		}
		totals[ledger.Key{Date: date, Identity: id}] += d
	}

	records := make([]ledger.Record, 0, len(totals))
	for k, d := range totals {
		records = append(records, ledger.Record{Date: k.Date, Identity: k.Identity, Duration: d})
	}
	ledger.SortRecords(records)
	return records, nil
}
