package api

import (
	"net/http"

	"github.com/AyanDgr8/cdr-spc-sub001/internal/storage"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/types"
	"github.com/rs/zerolog"
)

// HistoryHandler provides REST endpoints for export and query history
type HistoryHandler struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(store storage.Store, logger zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{
		store:  store,
		logger: logger.With().Str("component", "history_handler").Logger(),
	}
}

// GetExports returns the CSV exports recorded on a specific date
// GET /api/report/exports?date=YYYY-MM-DD
func (h *HistoryHandler) GetExports(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "date query parameter is required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	records, err := h.store.GetExportRecords(date)
	if err != nil {
		h.logger.Error().Err(err).Str("date", date).Msg("failed to get export records")
		http.Error(w, "failed to retrieve export history", http.StatusInternalServerError)
		return
	}

	if records == nil {
		records = []types.ExportRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

// GetQueries returns the query summaries recorded on a specific date
// GET /api/report/queries?date=YYYY-MM-DD
func (h *HistoryHandler) GetQueries(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "date query parameter is required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	summaries, err := h.store.GetQuerySummaries(date)
	if err != nil {
		h.logger.Error().Err(err).Str("date", date).Msg("failed to get query summaries")
		http.Error(w, "failed to retrieve query history", http.StatusInternalServerError)
		return
	}

	if summaries == nil {
		summaries = []types.QuerySummaryRecord{}
	}

	writeJSON(w, http.StatusOK, summaries)
}
