package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/AyanDgr8/cdr-spc-sub001/internal/metrics"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/storage"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/types"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/upstream"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultParallelPages is the number of pages fetched concurrently
	// per batch.
	DefaultParallelPages = 10

	// defaultFeedbackAfter is how long init may stay silent before the
	// "taking longer than expected" notice goes out.
	defaultFeedbackAfter = 5 * time.Second
)

// PageFetcher is the slice of the upstream client the controller needs.
type PageFetcher interface {
	InitQuery(ctx context.Context, criteria types.FilterCriteria) (*upstream.InitResult, error)
	FetchPage(ctx context.Context, queryID string, page int) (*upstream.PageResult, error)
}

// Controller drives one progressive query at a time: init, concurrent
// page batches until completion, and the append-only result buffer read
// by the renderer and the CSV exporter. Starting a new query supersedes
// the previous session; late results from a superseded session are
// discarded on arrival via a token identity check.
type Controller struct {
	fetcher       PageFetcher
	sink          EventSink
	store         storage.Store
	parallel      int
	feedbackAfter time.Duration
	logger        zerolog.Logger

	mu      sync.Mutex
	session types.QuerySession
	buffer  []types.Record
	started time.Time
}

// NewController creates a controller. parallelPages <= 0 selects
// DefaultParallelPages. store may be nil when history persistence is
// disabled.
func NewController(fetcher PageFetcher, sink EventSink, store storage.Store, parallelPages int, logger zerolog.Logger) *Controller {
	if parallelPages <= 0 {
		parallelPages = DefaultParallelPages
	}
	return &Controller{
		fetcher:       fetcher,
		sink:          sink,
		store:         store,
		parallel:      parallelPages,
		feedbackAfter: defaultFeedbackAfter,
		logger:        logger.With().Str("component", "load_controller").Logger(),
	}
}

// StartQuery validates the criteria, initializes a server-side query and
// starts the batch loop. It returns once the session is running; page
// batches proceed in the background. Any previously active session is
// superseded immediately, before the init call is issued.
func (c *Controller) StartQuery(ctx context.Context, criteria types.FilterCriteria) error {
	if err := criteria.Validate(); err != nil {
		return err
	}

	token := uuid.New()
	c.mu.Lock()
	c.session = types.QuerySession{Token: token}
	c.buffer = nil
	c.started = time.Now()
	c.mu.Unlock()

	metrics.Get().RecordQueryStarted()

	feedback := time.AfterFunc(c.feedbackAfter, func() {
		c.publish(Event{
			Type:    EventNotice,
			Message: "The search is taking longer than expected, please wait...",
		})
	})
	init, err := c.fetcher.InitQuery(ctx, criteria)
	feedback.Stop()

	if err != nil {
		c.logger.Error().Err(err).Msg("query init failed")
		c.finishSession(token, false)
		initErr := &InitError{Err: err}
		c.publish(Event{Type: EventError, Message: initErr.Error()})
		return initErr
	}

	if init.QueryID == "" || init.TotalPages < 0 || init.TotalRecords < 0 {
		c.finishSession(token, false)
		initErr := &InitError{Err: fmt.Errorf("malformed init response")}
		c.publish(Event{Type: EventError, Message: initErr.Error()})
		return initErr
	}

	c.mu.Lock()
	if c.session.Token != token {
		// A newer query started while init was in flight.
		c.mu.Unlock()
		return nil
	}
	c.session.QueryID = init.QueryID
	c.session.TotalPages = init.TotalPages
	c.session.TotalRecords = init.TotalRecords
	c.session.CurrentPage = 1
	c.session.Active = true
	c.mu.Unlock()

	c.logger.Info().
		Str("query_id", init.QueryID).
		Int("total_pages", init.TotalPages).
		Int("total_records", init.TotalRecords).
		Msg("query initialized")

	c.publish(Event{
		Type:    EventProgress,
		QueryID: init.QueryID,
		Message: fmt.Sprintf("Found %d records, loading...", init.TotalRecords),
		Total:   init.TotalRecords,
	})

	go c.run(ctx, token)
	return nil
}

// run is the batch loop. It fetches runs of up to parallel pages until
// the server signals the last page or the page range is exhausted. The
// loop never merges results for a superseded token.
func (c *Controller) run(ctx context.Context, token uuid.UUID) {
	for {
		sess, ok := c.sessionFor(token)
		if !ok {
			return
		}

		first := sess.CurrentPage
		last := first + c.parallel - 1
		if last > sess.TotalPages {
			last = sess.TotalPages
		}
		if first > last {
			// No pages remain; the run is empty.
			c.complete(token)
			return
		}

		results, sawLastPage, failed := c.fetchRun(ctx, sess.QueryID, first, last)
		metrics.Get().RecordBatch()

		if failed == last-first+1 {
			loadErr := &LoadError{Err: fmt.Errorf("all %d pages of batch starting at page %d failed", failed, first)}
			c.logger.Error().Err(loadErr).Str("query_id", sess.QueryID).Msg("batch failed entirely, aborting session")
			c.finishSession(token, false)
			c.publish(Event{
				Type:      EventError,
				QueryID:   sess.QueryID,
				Message:   "Loading failed partway through.\nThe records loaded so far are kept and can still be exported.",
				DisplayMs: displayDuration("Loading failed partway through.\nThe records loaded so far are kept and can still be exported."),
			})
			metrics.Get().RecordQueryAborted()
			c.saveSummary(sess.QueryID, true)
			return
		}

		loaded, merged := c.merge(token, results)
		if !merged {
			// Superseded while the batch was in flight; discard.
			c.logger.Debug().Str("query_id", sess.QueryID).Msg("discarding batch for superseded session")
			return
		}

		c.publish(Event{
			Type:    EventProgress,
			QueryID: sess.QueryID,
			Message: fmt.Sprintf("Loaded %d of %d records", loaded, sess.TotalRecords),
			Loaded:  loaded,
			Total:   sess.TotalRecords,
		})

		if sawLastPage && last < sess.TotalPages {
			c.logger.Debug().
				Int("page", last).
				Int("total_pages", sess.TotalPages).
				Msg("server flagged last page before totalPages was reached")
		}
		if sawLastPage || last == sess.TotalPages {
			c.complete(token)
			return
		}

		if !c.advance(token) {
			return
		}

		// Yield between batches so a supersession or shutdown is
		// observed promptly instead of running batches back to back.
		select {
		case <-ctx.Done():
			c.finishSession(token, false)
			return
		default:
		}
	}
}

// fetchRun issues the pages [first, last] concurrently and waits for all
// of them to settle. A failed page is logged and dropped; results keep
// their page-order slots so the merge is order-stable regardless of
// arrival order.
func (c *Controller) fetchRun(ctx context.Context, queryID string, first, last int) (results []*upstream.PageResult, sawLastPage bool, failed int) {
	results = make([]*upstream.PageResult, last-first+1)

	var wg sync.WaitGroup
	var mu sync.Mutex
	for page := first; page <= last; page++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			res, err := c.fetcher.FetchPage(ctx, queryID, page)
			if err != nil {
				c.logger.Warn().Err(err).Int("page", page).Str("query_id", queryID).Msg("page fetch failed, dropping page")
				metrics.Get().RecordPageFailure()
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			metrics.Get().RecordPageFetched()
			mu.Lock()
			results[page-first] = res
			if res.IsLastPage {
				sawLastPage = true
			}
			mu.Unlock()
		}(page)
	}
	wg.Wait()

	return results, sawLastPage, failed
}

// merge appends the batch results in ascending page order, provided the
// session has not been superseded. Returns the new loaded count.
func (c *Controller) merge(token uuid.UUID, results []*upstream.PageResult) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Token != token {
		return 0, false
	}

	for _, res := range results {
		if res == nil {
			continue
		}
		c.buffer = append(c.buffer, res.Records...)
	}
	c.session.LoadedRecords = len(c.buffer)
	metrics.Get().SetRecordsLoaded(int64(len(c.buffer)))
	return c.session.LoadedRecords, true
}

// advance moves the cursor to the next run.
func (c *Controller) advance(token uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Token != token {
		return false
	}
	c.session.CurrentPage += c.parallel
	return true
}

func (c *Controller) complete(token uuid.UUID) {
	c.mu.Lock()
	if c.session.Token != token {
		c.mu.Unlock()
		return
	}
	c.session.Complete = true
	c.session.Active = false
	queryID := c.session.QueryID
	loaded := c.session.LoadedRecords
	total := c.session.TotalRecords
	summary := types.Summarize(c.buffer)
	c.mu.Unlock()

	c.logger.Info().
		Str("query_id", queryID).
		Int("loaded", loaded).
		Int("total", total).
		Msg("query complete")
	metrics.Get().RecordQueryCompleted()

	c.publish(Event{
		Type:    EventComplete,
		QueryID: queryID,
		Message: fmt.Sprintf("Report ready: %d records", loaded),
		Loaded:  loaded,
		Total:   total,
		Summary: &summary,
	})

	c.saveSummary(queryID, false)
}

// finishSession flips the session inactive without touching the buffer,
// leaving partial results inspectable and exportable.
func (c *Controller) finishSession(token uuid.UUID, complete bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Token != token {
		return
	}
	c.session.Active = false
	c.session.Complete = complete
}

// saveSummary persists the session outcome for the history view.
func (c *Controller) saveSummary(queryID string, aborted bool) {
	if c.store == nil || queryID == "" {
		return
	}

	c.mu.Lock()
	summary := types.Summarize(c.buffer)
	record := types.QuerySummaryRecord{
		DateKey:       c.started.Format("2006-01-02"),
		QueryID:       queryID,
		TotalRecords:  c.session.TotalRecords,
		LoadedRecords: c.session.LoadedRecords,
		ByRecordType:  summary.ByRecordType,
		StartedAt:     c.started.Format(time.RFC3339),
		CompletedAt:   time.Now().Format(time.RFC3339),
		Aborted:       aborted,
	}
	c.mu.Unlock()

	if err := c.store.SaveQuerySummary(record); err != nil {
		c.logger.Error().Err(err).Str("query_id", queryID).Msg("failed to save query summary")
	}
}

// SetSink wires the event sink after construction. The websocket bridge
// needs the controller as its result source, so the two are created in
// sequence.
func (c *Controller) SetSink(sink EventSink) {
	c.mu.Lock()
	c.sink = sink
	c.mu.Unlock()
}

func (c *Controller) publish(event Event) {
	c.mu.Lock()
	sink := c.sink
	c.mu.Unlock()
	if sink == nil {
		return
	}
	if event.DisplayMs == 0 && (event.Type == EventNotice || event.Type == EventError) {
		event.DisplayMs = displayDuration(event.Message)
	}
	sink.Publish(event)
}

// sessionFor returns the current session if it still belongs to token.
func (c *Controller) sessionFor(token uuid.UUID) (types.QuerySession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Token != token {
		return types.QuerySession{}, false
	}
	return c.session, true
}

// Session returns a snapshot of the current session state.
func (c *Controller) Session() types.QuerySession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Results returns a snapshot of the result buffer. The buffer is
// append-only for the lifetime of a session, so sharing the backing
// array with readers is safe.
func (c *Controller) Results() []types.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer[:len(c.buffer):len(c.buffer)]
}
