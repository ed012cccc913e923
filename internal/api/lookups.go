package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/AyanDgr8/cdr-spc-sub001/internal/cache"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// LookupClient is the slice of the upstream client the lookup handler
// needs.
type LookupClient interface {
	Lookup(ctx context.Context, kind string, fromTS, toTS int64) ([]string, error)
}

// validLookupKinds are the dropdown sources the form can populate.
var validLookupKinds = map[string]bool{
	"agents":       true,
	"queues":       true,
	"campaigns":    true,
	"dispositions": true,
}

// LookupHandler serves dropdown values for the filter form, cached per
// kind and time range.
type LookupHandler struct {
	client LookupClient
	cache  *cache.LookupCache
	logger zerolog.Logger
}

// NewLookupHandler creates a new LookupHandler
func NewLookupHandler(client LookupClient, lookupCache *cache.LookupCache, logger zerolog.Logger) *LookupHandler {
	return &LookupHandler{
		client: client,
		cache:  lookupCache,
		logger: logger.With().Str("component", "lookup_handler").Logger(),
	}
}

// Get returns the values of one lookup kind for a unix-seconds range
// GET /api/lookups/{kind}?from_ts=&to_ts=
func (h *LookupHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !validLookupKinds[kind] {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown lookup kind"})
		return
	}

	fromTS, err := strconv.ParseInt(r.URL.Query().Get("from_ts"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "from_ts is required (unix seconds)"})
		return
	}
	toTS, err := strconv.ParseInt(r.URL.Query().Get("to_ts"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "to_ts is required (unix seconds)"})
		return
	}

	key := cache.Key(kind, fromTS, toTS)
	if values, ok := h.cache.Get(key); ok {
		metrics.Get().RecordLookupHit()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": values})
		return
	}
	metrics.Get().RecordLookupMiss()

	values, err := h.client.Lookup(r.Context(), kind, fromTS, toTS)
	if err != nil {
		h.logger.Error().Err(err).Str("kind", kind).Msg("lookup failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "lookup failed"})
		return
	}
	h.cache.Set(key, values)

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": values})
}
