package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/actionsum/ctvtcntr/internal/ledger"
	"github.com/actionsum/ctvtcntr/internal/models"
	"github.com/actionsum/ctvtcntr/internal/storage"
)

// Reporter builds usage reports from stored records
type Reporter struct {
	store storage.Adapter
	now   func() time.Time
}

// New creates a new reporter
func New(store storage.Adapter) *Reporter {
	return &Reporter{store: store, now: time.Now}
}

// WithClock returns a copy of r that reads the current time from now.
func (r *Reporter) WithClock(now func() time.Time) *Reporter {
	cp := *r
	cp.now = now
	return &cp
}

// GenerateReport generates a report for the specified period
func (r *Reporter) GenerateReport(ctx context.Context, periodType string) (*models.Report, error) {
	period, err := Period(r.now(), periodType)
	if err != nil {
		return nil, err
	}

	records, err := r.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}

	summaries := Summarize(records, *period)

	var totalSeconds int64
	for _, s := range summaries {
		totalSeconds += s.TotalSeconds
	}

	return &models.Report{
		Period:       *period,
		Identities:   summaries,
		TotalSeconds: totalSeconds,
		TotalMinutes: float64(totalSeconds) / 60.0,
		TotalHours:   float64(totalSeconds) / 3600.0,
		GeneratedAt:  r.now(),
	}, nil
}

// Period calculates the time range for a report type relative to now
func Period(now time.Time, periodType string) (*models.ReportPeriod, error) {
	var start, end time.Time
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch periodType {
	case "day", "today":
		start = today
		end = start.AddDate(0, 0, 1)

	case "week":
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday = 7
		}
		start = today.AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	case "all":
		// zero bounds select every stored day

	default:
		return nil, fmt.Errorf("invalid period type: %s (valid: day, week, month, all)", periodType)
	}

	return &models.ReportPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// Summarize totals the records that fall inside period per identity,
// largest first, with each identity's share of the total.
func Summarize(records []ledger.Record, period models.ReportPeriod) []models.IdentitySummary {
	var from, to ledger.Date
	if !period.Start.IsZero() {
		from = ledger.DateOf(period.Start)
	}
	if !period.End.IsZero() {
		to = ledger.DateOf(period.End)
	}

	byIdentity := make(map[string]*models.IdentitySummary)
	var totalSeconds int64
	for _, rec := range records {
		if rec.Date < from || (to != "" && rec.Date >= to) {
			continue
		}
		secs := rec.Seconds()
		s, ok := byIdentity[rec.Identity.String()]
		if !ok {
			s = &models.IdentitySummary{Identity: rec.Identity.String()}
			byIdentity[rec.Identity.String()] = s
		}
		s.TotalSeconds += secs
		s.Days++
		totalSeconds += secs
	}

	summaries := make([]models.IdentitySummary, 0, len(byIdentity))
	for _, s := range byIdentity {
		s.TotalMinutes = float64(s.TotalSeconds) / 60.0
		s.TotalHours = float64(s.TotalSeconds) / 3600.0
		if totalSeconds > 0 {
			s.Percentage = float64(s.TotalSeconds) / float64(totalSeconds) * 100.0
		}
		summaries = append(summaries, *s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalSeconds != summaries[j].TotalSeconds {
			return summaries[i].TotalSeconds > summaries[j].TotalSeconds
		}
		return summaries[i].Identity < summaries[j].Identity
	})
	return summaries
}

// FormatReportJSON formats the report as JSON
func FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}
