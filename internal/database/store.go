package database

import (
	"context"
	"time"

	"github.com/actionsum/ctvtcntr/internal/ledger"
	"github.com/actionsum/ctvtcntr/internal/models"
	"github.com/actionsum/ctvtcntr/internal/normalize"

	"github.com/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists usage records in the window_usage table. Each upsert is a
// single INSERT ... ON CONFLICT statement, so the increment happens inside
// sqlite rather than in a read-modify-write cycle.
type Store struct {
	db *DB
}

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Open connects to the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := Connect(path)
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return NewStore(db), nil
}

// LoadAll returns every record ordered by date, then identity.
func (s *Store) LoadAll(ctx context.Context) ([]ledger.Record, error) {
	var rows []models.WindowUsage
	result := s.db.WithContext(ctx).Order("date ASC, identity ASC").Find(&rows)
	if result.Error != nil {
		return nil, classify("load usage", errors.Wrap(result.Error, "failed to query window usage"))
	}

	records := make([]ledger.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, toRecord(row))
	}
	return records, nil
}

// Upsert adds rec's whole seconds to the row for (date, identity), creating
// the row when it does not exist yet.
func (s *Store) Upsert(ctx context.Context, rec ledger.Record) error {
	if rec.Duration < 0 {
		return errors.Wrapf(ledger.ErrNegativeDuration, "upsert %s/%s", rec.Date, rec.Identity)
	}
	if rec.Identity.IsEmpty() {
		return errors.Wrapf(ledger.ErrEmptyIdentity, "upsert %s", rec.Date)
	}

	row := models.WindowUsage{
		Date:     rec.Date.String(),
		Identity: rec.Identity.String(),
		Duration: rec.Seconds(),
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "identity"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"duration":   gorm.Expr("window_usage.duration + excluded.duration"),
			"updated_at": gorm.Expr("excluded.updated_at"),
		}),
	}).Create(&row)
	if result.Error != nil {
		return classify("upsert usage", errors.Wrapf(result.Error, "failed to upsert %s/%s", rec.Date, rec.Identity))
	}
	return nil
}

// Usage returns the stored duration for identity on date.
func (s *Store) Usage(ctx context.Context, date ledger.Date, id normalize.Identity) (time.Duration, bool, error) {
	var row models.WindowUsage
	result := s.db.WithContext(ctx).
		Where("date = ? AND identity = ?", date.String(), id.String()).
		Limit(1).
		Find(&row)
	if result.Error != nil {
		return 0, false, classify("lookup usage", errors.Wrap(result.Error, "failed to query window usage"))
	}
	if result.RowsAffected == 0 {
		return 0, false, nil
	}
	return time.Duration(row.Duration) * time.Second, true, nil
}

// RecordError stores msg in the error log.
func (s *Store) RecordError(ctx context.Context, msg, runID string) error {
	entry := &models.ErrorLog{
		Timestamp: time.Now(),
		RunID:     runID,
		ErrorMsg:  msg,
	}
	if result := s.db.WithContext(ctx).Create(entry); result.Error != nil {
		return classify("record error", errors.Wrap(result.Error, "failed to insert error log"))
	}
	return nil
}

// RecentErrors returns up to limit error log entries, newest first.
func (s *Store) RecentErrors(ctx context.Context, limit int) ([]models.ErrorLog, error) {
	var entries []models.ErrorLog
	result := s.db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, classify("load errors", errors.Wrap(result.Error, "failed to query error log"))
	}
	return entries, nil
}

// Clear removes all usage rows and error log entries.
func (s *Store) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM window_usage").Error; err != nil {
			return classify("clear usage", errors.Wrap(err, "failed to clear window usage"))
		}
		if err := tx.Exec("DELETE FROM error_logs").Error; err != nil {
			return classify("clear errors", errors.Wrap(err, "failed to clear error log"))
		}
		return nil
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

func toRecord(row models.WindowUsage) ledger.Record {
	return ledger.Record{
		Date:     ledger.Date(row.Date),
		Identity: normalize.Identity(row.Identity),
		Duration: time.Duration(row.Duration) * time.Second,
	}
}
