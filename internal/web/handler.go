package web

import (
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/actionsum/ctvtcntr/internal/config"
	"github.com/actionsum/ctvtcntr/internal/ledger"
	"github.com/actionsum/ctvtcntr/internal/models"
	"github.com/actionsum/ctvtcntr/internal/normalize"
	"github.com/actionsum/ctvtcntr/internal/reporter"
	"github.com/actionsum/ctvtcntr/internal/storage"
	"github.com/actionsum/ctvtcntr/internal/tablefile"
	"github.com/actionsum/ctvtcntr/internal/tracker"
	"github.com/actionsum/ctvtcntr/pkg/utils"
)

// StatusSource reports the live tracker state.
type StatusSource interface {
	State() tracker.State
}

// RecordSource serves totals from memory. A running tracker implements it,
// so records include time committed but not yet written.
type RecordSource interface {
	Snapshot() []ledger.Record
}

type Handler struct {
	config   *config.Config
	store    storage.Adapter
	status   StatusSource
	reporter *reporter.Reporter
	logger   *slog.Logger
	now      func() time.Time
}

func NewHandler(cfg *config.Config, store storage.Adapter, status StatusSource, logger *slog.Logger) *Handler {
	return &Handler{
		config:   cfg,
		store:    store,
		status:   status,
		reporter: reporter.New(store),
		logger:   logger,
		now:      time.Now,
	}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/records", h.handleRecords)
	mux.HandleFunc("/api/usage", h.handleUsage)
	mux.HandleFunc("/api/report", h.handleReport)
	mux.HandleFunc("/api/summary", h.handleSummary)
	mux.HandleFunc("/api/status", h.handleStatus)

	mux.HandleFunc("/health", h.handleHealth)

	mux.HandleFunc("/", h.handleIndex)
}

type recordResponse struct {
	Date     ledger.Date        `json:"date"`
	Identity normalize.Identity `json:"identity"`
	Seconds  int64              `json:"seconds"`
	Duration string             `json:"duration"`
}

func (h *Handler) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var date ledger.Date
	if s := r.URL.Query().Get("date"); s != "" {
		d, err := ledger.ParseDate(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		date = d
	}

	records, err := h.records(r)
	if err != nil {
		h.logger.Error("failed to load records", "error", err)
		http.Error(w, fmt.Sprintf("Failed to load records: %v", err), http.StatusInternalServerError)
		return
	}

	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		if date != "" && rec.Date != date {
			continue
		}
		out = append(out, toResponse(rec))
	}

	respondJSON(w, h.logger, out)
}

func (h *Handler) records(r *http.Request) ([]ledger.Record, error) {
	if src, ok := h.status.(RecordSource); ok {
		return src.Snapshot(), nil
	}
	return h.store.LoadAll(r.Context())
}

func (h *Handler) handleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	id := normalize.Identity(strings.TrimSpace(query.Get("identity")))
	if id.IsEmpty() {
		http.Error(w, "identity is required", http.StatusBadRequest)
		return
	}

	date := ledger.DateOf(h.now())
	if s := query.Get("date"); s != "" {
		d, err := ledger.ParseDate(s)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		date = d
	}

	d, found, err := storage.Usage(r.Context(), h.store, date, id)
	if err != nil {
		h.logger.Error("failed to look up usage", "identity", id, "date", date, "error", err)
		http.Error(w, fmt.Sprintf("Failed to look up usage: %v", err), http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "No usage recorded", http.StatusNotFound)
		return
	}

	respondJSON(w, h.logger, toResponse(ledger.Record{Date: date, Identity: id, Duration: d}))
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, ok := h.report(w, r)
	if !ok {
		return
	}
	respondJSON(w, h.logger, report)
}

// handleSummary serves the report as an HTML fragment for the dashboard.
func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, ok := h.report(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if len(report.Identities) == 0 {
		w.Write([]byte(`<div class="loading">No data available</div>`))
		return
	}

	var b strings.Builder
	b.WriteString(`<div class="listing">`)
	for _, s := range report.Identities {
		fmt.Fprintf(&b, `<div class="item" style="--bar-width: %.1f%%"><span class="name">%s</span><span class="time">%s</span><span class="pct">%.1f%%</span></div>`,
			s.Percentage, html.EscapeString(s.Identity), utils.FormatRoundedUnit(s.TotalSeconds), s.Percentage)
	}
	b.WriteString(`</div>`)
	fmt.Fprintf(&b, `<div class="total">Total: %s</div>`, utils.FormatClock(report.TotalSeconds))

	w.Write([]byte(b.String()))
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) (*models.Report, bool) {
	periodType := r.URL.Query().Get("period")
	if periodType == "" {
		periodType = "day"
	}
	if _, err := reporter.Period(h.now(), periodType); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	report, err := h.reporter.WithClock(h.now).GenerateReport(r.Context(), periodType)
	if err != nil {
		h.logger.Error("failed to generate report", "period", periodType, "error", err)
		http.Error(w, fmt.Sprintf("Failed to generate report: %v", err), http.StatusInternalServerError)
		return nil, false
	}
	return report, true
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := map[string]interface{}{
		"running":       h.status != nil,
		"poll_interval": h.config.Tracker.PollInterval.String(),
		"backend":       h.config.Storage.Backend,
		"storage_path":  h.config.StoragePath(),
	}

	if h.status != nil {
		state := h.status.State()
		status["tracker"] = state
		if state.Tracking {
			status["elapsed_seconds"] = int64(state.Elapsed(h.now()) / time.Second)
		}
	}

	respondJSON(w, h.logger, status)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, map[string]string{
		"status": "healthy",
		"time":   h.now().Format(time.RFC3339),
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func toResponse(rec ledger.Record) recordResponse {
	return recordResponse{
		Date:     rec.Date,
		Identity: rec.Identity,
		Seconds:  rec.Seconds(),
		Duration: tablefile.FormatDuration(rec.Duration),
	}
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
