package render

import (
	"sync"

	"github.com/AyanDgr8/cdr-spc-sub001/internal/types"
	"github.com/rs/zerolog"
)

const (
	// InitialRows is how many rows are materialized synchronously when a
	// result set is first displayed.
	InitialRows = 1000

	// CheckpointInterval bounds full rebuilds during a progressive load:
	// once more than InitialRows are shown, the table is only rebuilt
	// when the buffer crosses a multiple of this size, or on completion.
	CheckpointInterval = 5000

	// AppendChunk is the maximum rows added per scroll-triggered append.
	AppendChunk = 500

	// ScrollThresholdPx is how close to the bottom of the scrollable
	// container the viewport must be before the next chunk loads.
	ScrollThresholdPx = 200
)

// Frame is one table update pushed to the viewer. A rebuild frame
// replaces the whole table (headers included); an append frame adds rows
// at Offset.
type Frame struct {
	Headers []string `json:"headers,omitempty"`
	Rows    []Row    `json:"rows"`
	Offset  int      `json:"offset"`
	Total   int      `json:"total"`
	Rebuild bool     `json:"rebuild"`
}

// Renderer materializes a growing result set incrementally. Row assembly
// is pure (see BuildRows); the renderer only owns the policy of when to
// rebuild and how much to append, so the policy is testable without a
// display surface.
type Renderer struct {
	logger zerolog.Logger

	mu             sync.Mutex
	rendered       int
	lastCheckpoint int
	isLoading      bool
}

// NewRenderer creates a renderer.
func NewRenderer(logger zerolog.Logger) *Renderer {
	return &Renderer{
		logger: logger.With().Str("component", "renderer").Logger(),
	}
}

// Display clears the table state and builds the initial frame: headers
// plus up to InitialRows rows.
func (r *Renderer) Display(records []types.Record) Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := BuildRows(records, 0, InitialRows)
	r.rendered = len(rows)
	r.lastCheckpoint = len(records)
	r.isLoading = false

	return Frame{
		Headers: types.ColumnHeaders(),
		Rows:    rows,
		Offset:  0,
		Total:   len(records),
		Rebuild: true,
	}
}

// ShouldRebuild decides whether a buffer grown to total records warrants
// a full rebuild now. Rebuilds happen while the buffer is still small
// (<= InitialRows), when it crosses a CheckpointInterval boundary, and
// when loading completes.
func (r *Renderer) ShouldRebuild(total int, complete bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if complete {
		return true
	}
	if total <= InitialRows {
		return true
	}
	return total/CheckpointInterval > r.lastCheckpoint/CheckpointInterval
}

// Rebuild re-renders the table from the full buffer, honoring the
// initial-slice cap.
func (r *Renderer) Rebuild(records []types.Record) Frame {
	return r.Display(records)
}

// NextChunk appends the next run of up to AppendChunk rows after the
// currently rendered ones. The isLoading guard prevents a second append
// from starting while one is being delivered; callers must confirm the
// frame with FinishChunk once it has been applied.
func (r *Renderer) NextChunk(records []types.Record) (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isLoading || r.rendered >= len(records) {
		return Frame{}, false
	}
	r.isLoading = true

	rows := BuildRows(records, r.rendered, AppendChunk)
	frame := Frame{
		Rows:   rows,
		Offset: r.rendered,
		Total:  len(records),
	}
	r.rendered += len(rows)
	return frame, true
}

// FinishChunk releases the append guard after a chunk frame has been
// applied by the viewer.
func (r *Renderer) FinishChunk() {
	r.mu.Lock()
	r.isLoading = false
	r.mu.Unlock()
}

// Rendered returns how many rows are currently materialized.
func (r *Renderer) Rendered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rendered
}

// ShouldLoadMore is the scroll-proximity trigger: true when the viewport
// bottom is within ScrollThresholdPx of the end of the scrollable
// content.
func ShouldLoadMore(scrollTop, viewportHeight, contentHeight int) bool {
	return scrollTop+viewportHeight >= contentHeight-ScrollThresholdPx
}
