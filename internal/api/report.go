package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/AyanDgr8/cdr-spc-sub001/internal/auth"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/export"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/loader"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/render"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/storage"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReportHandler provides the REST surface of the report viewer: query
// start, session status, row windows and CSV export.
type ReportHandler struct {
	controller *loader.Controller
	renderer   *render.Renderer
	exporter   *export.Exporter
	store      storage.Store
	logger     zerolog.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(controller *loader.Controller, renderer *render.Renderer, exporter *export.Exporter, store storage.Store, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		controller: controller,
		renderer:   renderer,
		exporter:   exporter,
		store:      store,
		logger:     logger.With().Str("component", "report_handler").Logger(),
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// StartQuery begins a new progressive query, superseding any active one.
// POST /api/report/query
func (h *ReportHandler) StartQuery(w http.ResponseWriter, r *http.Request) {
	var criteria types.FilterCriteria
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	// The page batches outlive this request; only supersession or
	// process shutdown stops them.
	err := h.controller.StartQuery(context.WithoutCancel(r.Context()), criteria)
	if err != nil {
		var validationErr *types.ValidationError
		var initErr *loader.InitError
		switch {
		case errors.As(err, &validationErr):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: validationErr.Error()})
		case errors.As(err, &initErr):
			h.logger.Error().Err(err).Msg("query init failed")
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: initErr.Error()})
		default:
			h.logger.Error().Err(err).Msg("query start failed")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		}
		return
	}

	session := h.controller.Session()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"queryId":      session.QueryID,
		"totalPages":   session.TotalPages,
		"totalRecords": session.TotalRecords,
	})
}

// GetStatus returns the current session snapshot.
// GET /api/report/status
func (h *ReportHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.Session())
}

// GetTable returns a full rebuild frame: headers plus the initial row
// slice.
// GET /api/report/table
func (h *ReportHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	frame := h.renderer.Display(h.controller.Results())
	writeJSON(w, http.StatusOK, frame)
}

// GetRows returns the next scroll-triggered append chunk, or an explicit
// window when offset is given.
// GET /api/report/rows?offset=&limit=
func (h *ReportHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	records := h.controller.Results()

	if offsetParam := r.URL.Query().Get("offset"); offsetParam != "" {
		offset, err := strconv.Atoi(offsetParam)
		if err != nil || offset < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid offset"})
			return
		}
		limit := render.AppendChunk
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			limit, err = strconv.Atoi(limitParam)
			if err != nil || limit <= 0 || limit > render.AppendChunk {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
				return
			}
		}
		writeJSON(w, http.StatusOK, render.Frame{
			Rows:   render.BuildRows(records, offset, limit),
			Offset: offset,
			Total:  len(records),
		})
		return
	}

	frame, ok := h.renderer.NextChunk(records)
	if !ok {
		// Either everything is rendered or an append is in flight.
		writeJSON(w, http.StatusOK, render.Frame{Offset: h.renderer.Rendered(), Total: len(records)})
		return
	}
	h.renderer.FinishChunk()
	writeJSON(w, http.StatusOK, frame)
}

// Export serializes the full result buffer and serves it as a CSV
// download.
// GET /api/report/export
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	records := h.controller.Results()

	result, err := h.exporter.Export(r.Context(), records)
	if err != nil {
		var exportErr *export.ExportError
		if errors.As(err, &exportErr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No records available to export. Run a search first."})
			return
		}
		h.logger.Error().Err(err).Msg("export failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "export failed"})
		return
	}

	h.saveExportRecord(r, result)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(result.Data)
}

// saveExportRecord persists the export to the history store; failures
// are logged, never surfaced to the download.
func (h *ReportHandler) saveExportRecord(r *http.Request, result *export.Result) {
	if h.store == nil {
		return
	}

	requestedBy := ""
	if claims, ok := auth.GetUserFromContext(r.Context()); ok {
		requestedBy = claims.Email
	}

	now := time.Now()
	record := types.ExportRecord{
		DateKey:     now.Format("2006-01-02"),
		ExportID:    uuid.New().String(),
		QueryID:     h.controller.Session().QueryID,
		FileName:    result.FileName,
		RowCount:    result.Rows,
		RequestedBy: requestedBy,
		CreatedAt:   now.Format(time.RFC3339),
	}
	if err := h.store.SaveExportRecord(record); err != nil {
		h.logger.Error().Err(err).Str("file", result.FileName).Msg("failed to save export record")
	}
}
