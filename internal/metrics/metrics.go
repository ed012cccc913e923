package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Query metrics
	QueriesStartedTotal   int64
	QueriesCompletedTotal int64
	QueriesAbortedTotal   int64
	BatchesTotal          int64
	PagesFetchedTotal     int64
	PageFailuresTotal     int64
	recordsLoaded         int64

	// Export metrics
	ExportsTotal      int64
	ExportRowsTotal   int64
	ExportErrorsTotal int64

	// Lookup metrics
	LookupHitsTotal   int64
	LookupMissesTotal int64

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	activeConnections            int64

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			startTime: time.Now(),
		}
	})
	return instance
}

// RecordQueryStarted increments the started-query counter
func (m *Metrics) RecordQueryStarted() {
	m.mu.Lock()
	m.QueriesStartedTotal++
	m.mu.Unlock()
}

// RecordQueryCompleted increments the completed-query counter
func (m *Metrics) RecordQueryCompleted() {
	m.mu.Lock()
	m.QueriesCompletedTotal++
	m.mu.Unlock()
}

// RecordQueryAborted increments the aborted-query counter
func (m *Metrics) RecordQueryAborted() {
	m.mu.Lock()
	m.QueriesAbortedTotal++
	m.mu.Unlock()
}

// RecordBatch increments the batch counter
func (m *Metrics) RecordBatch() {
	m.mu.Lock()
	m.BatchesTotal++
	m.mu.Unlock()
}

// RecordPageFetched increments the fetched-page counter
func (m *Metrics) RecordPageFetched() {
	m.mu.Lock()
	m.PagesFetchedTotal++
	m.mu.Unlock()
}

// RecordPageFailure increments the failed-page counter
func (m *Metrics) RecordPageFailure() {
	m.mu.Lock()
	m.PageFailuresTotal++
	m.mu.Unlock()
}

// SetRecordsLoaded records the current session's buffer size
func (m *Metrics) SetRecordsLoaded(count int64) {
	m.mu.Lock()
	m.recordsLoaded = count
	m.mu.Unlock()
}

// RecordExport records a completed CSV export
func (m *Metrics) RecordExport(rows int64) {
	m.mu.Lock()
	m.ExportsTotal++
	m.ExportRowsTotal += rows
	m.mu.Unlock()
}

// RecordExportError increments the export error counter
func (m *Metrics) RecordExportError() {
	m.mu.Lock()
	m.ExportErrorsTotal++
	m.mu.Unlock()
}

// RecordLookupHit increments the lookup cache hit counter
func (m *Metrics) RecordLookupHit() {
	m.mu.Lock()
	m.LookupHitsTotal++
	m.mu.Unlock()
}

// RecordLookupMiss increments the lookup cache miss counter
func (m *Metrics) RecordLookupMiss() {
	m.mu.Lock()
	m.LookupMissesTotal++
	m.mu.Unlock()
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments the disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// Snapshot returns the current metric values as a flat map
func (m *Metrics) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"queries_started_total":          m.QueriesStartedTotal,
		"queries_completed_total":        m.QueriesCompletedTotal,
		"queries_aborted_total":          m.QueriesAbortedTotal,
		"batches_total":                  m.BatchesTotal,
		"pages_fetched_total":            m.PagesFetchedTotal,
		"page_failures_total":            m.PageFailuresTotal,
		"records_loaded":                 m.recordsLoaded,
		"exports_total":                  m.ExportsTotal,
		"export_rows_total":              m.ExportRowsTotal,
		"export_errors_total":            m.ExportErrorsTotal,
		"lookup_hits_total":              m.LookupHitsTotal,
		"lookup_misses_total":            m.LookupMissesTotal,
		"websocket_connections_total":    m.WebSocketConnectionsTotal,
		"websocket_disconnections_total": m.WebSocketDisconnectionsTotal,
		"websocket_active_connections":   m.activeConnections,
		"uptime_seconds":                 int64(time.Since(m.startTime).Seconds()),
	}
}

// Handler serves the metrics snapshot as JSON
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Get().Snapshot())
}
