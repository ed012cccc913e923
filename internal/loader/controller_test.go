package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AyanDgr8/cdr-spc-sub001/internal/types"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/upstream"
	"github.com/rs/zerolog"
)

var validCriteria = types.FilterCriteria{
	Start: "2024-06-01 00:00:00",
	End:   "2024-06-02 00:00:00",
}

// fakeFetcher is a scriptable PageFetcher that records the order pages
// settle in.
type fakeFetcher struct {
	initFn func(call int) (*upstream.InitResult, error)
	pageFn func(queryID string, page int) (*upstream.PageResult, error)

	mu        sync.Mutex
	initCalls int
	pageOrder []int
}

func (f *fakeFetcher) InitQuery(_ context.Context, _ types.FilterCriteria) (*upstream.InitResult, error) {
	f.mu.Lock()
	f.initCalls++
	call := f.initCalls
	f.mu.Unlock()
	return f.initFn(call)
}

func (f *fakeFetcher) FetchPage(_ context.Context, queryID string, page int) (*upstream.PageResult, error) {
	res, err := f.pageFn(queryID, page)
	f.mu.Lock()
	f.pageOrder = append(f.pageOrder, page)
	f.mu.Unlock()
	return res, err
}

func (f *fakeFetcher) pages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.pageOrder...)
}

// recordingSink collects published events for inspection.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(event Event) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *recordingSink) byType(eventType EventType) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []Event
	for _, e := range s.events {
		if e.Type == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

func singleInit(queryID string, totalPages, totalRecords int) func(int) (*upstream.InitResult, error) {
	return func(int) (*upstream.InitResult, error) {
		return &upstream.InitResult{QueryID: queryID, TotalPages: totalPages, TotalRecords: totalRecords}, nil
	}
}

func pageOf(queryID string, page, count int) *upstream.PageResult {
	records := make([]types.Record, count)
	for i := range records {
		records[i] = types.Record{
			"query":       queryID,
			"page":        float64(page),
			"idx":         float64(i),
			"record_type": "inbound",
		}
	}
	return &upstream.PageResult{Records: records}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestStartQueryValidationShortCircuits(t *testing.T) {
	fetcher := &fakeFetcher{
		initFn: singleInit("q-1", 1, 1),
		pageFn: func(queryID string, page int) (*upstream.PageResult, error) {
			return pageOf(queryID, page, 1), nil
		},
	}
	sink := &recordingSink{}
	ctrl := NewController(fetcher, sink, nil, 10, zerolog.Nop())

	err := ctrl.StartQuery(context.Background(), types.FilterCriteria{End: "2024-06-02 00:00:00"})

	var validationErr *types.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validationErr.Field != "start_time" {
		t.Errorf("expected start_time, got %q", validationErr.Field)
	}
	if fetcher.initCalls != 0 {
		t.Errorf("validation failure must not reach the upstream, got %d init calls", fetcher.initCalls)
	}
	if len(fetcher.pages()) != 0 {
		t.Errorf("validation failure must not fetch pages, got %v", fetcher.pages())
	}
}

func TestStartQueryInitError(t *testing.T) {
	fetcher := &fakeFetcher{
		initFn: func(int) (*upstream.InitResult, error) {
			return nil, fmt.Errorf("upstream down")
		},
	}
	sink := &recordingSink{}
	ctrl := NewController(fetcher, sink, nil, 10, zerolog.Nop())

	err := ctrl.StartQuery(context.Background(), validCriteria)

	var initErr *InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("expected InitError, got %v", err)
	}
	if len(sink.byType(EventError)) != 1 {
		t.Errorf("expected one error event, got %d", len(sink.byType(EventError)))
	}
	if ctrl.Session().Active {
		t.Error("session must not stay active after init failure")
	}
}

func TestStartQueryMalformedInit(t *testing.T) {
	fetcher := &fakeFetcher{
		initFn: singleInit("", 5, 100),
	}
	ctrl := NewController(fetcher, &recordingSink{}, nil, 10, zerolog.Nop())

	err := ctrl.StartQuery(context.Background(), validCriteria)

	var initErr *InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("expected InitError for malformed init, got %v", err)
	}
}

func TestBatchesCoverPagesInOrder(t *testing.T) {
	fetcher := &fakeFetcher{
		initFn: singleInit("q-1", 25, 25),
		pageFn: func(queryID string, page int) (*upstream.PageResult, error) {
			return pageOf(queryID, page, 1), nil
		},
	}
	sink := &recordingSink{}
	ctrl := NewController(fetcher, sink, nil, 10, zerolog.Nop())

	if err := ctrl.StartQuery(context.Background(), validCriteria); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitFor(t, func() bool { return ctrl.Session().Complete })

	order := fetcher.pages()
	if len(order) != 25 {
		t.Fatalf("expected 25 page fetches, got %d", len(order))
	}
	seen := make(map[int]int)
	for _, page := range order {
		seen[page]++
	}
	for page := 1; page <= 25; page++ {
		if seen[page] != 1 {
			t.Errorf("page %d fetched %d times", page, seen[page])
		}
	}

	// Pages of a later batch never settle before an earlier batch is done.
	lastBatch := 0
	for _, page := range order {
		batch := (page - 1) / 10
		if batch < lastBatch {
			t.Fatalf("batch order violated: page %d settled after batch %d", page, lastBatch)
		}
		lastBatch = batch
	}

	// One progress event after init, one per batch.
	if got := len(sink.byType(EventProgress)); got != 4 {
		t.Errorf("expected 4 progress events, got %d", got)
	}
	if got := len(sink.byType(EventComplete)); got != 1 {
		t.Errorf("expected 1 complete event, got %d", got)
	}
	if loaded := ctrl.Session().LoadedRecords; loaded != 25 {
		t.Errorf("expected 25 loaded records, got %d", loaded)
	}
}

func TestMergeKeepsPageOrderRegardlessOfArrival(t *testing.T) {
	// Higher pages respond faster, so arrival order is roughly reversed.
	fetcher := &fakeFetcher{
		initFn: singleInit("q-1", 10, 30),
		pageFn: func(queryID string, page int) (*upstream.PageResult, error) {
			time.Sleep(time.Duration(10-page) * 3 * time.Millisecond)
			return pageOf(queryID, page, 3), nil
		},
	}
	ctrl := NewController(fetcher, &recordingSink{}, nil, 10, zerolog.Nop())

	if err := ctrl.StartQuery(context.Background(), validCriteria); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitFor(t, func() bool { return ctrl.Session().Complete })

	results := ctrl.Results()
	if len(results) != 30 {
		t.Fatalf("expected 30 records, got %d", len(results))
	}
	for i, rec := range results {
		wantPage := i/3 + 1
		wantIdx := i % 3
		if rec["page"] != float64(wantPage) || rec["idx"] != float64(wantIdx) {
			t.Fatalf("record %d out of order: page=%v idx=%v", i, rec["page"], rec["idx"])
		}
	}
}

func TestSupersededResultsDiscarded(t *testing.T) {
	release := make(chan struct{})
	var inFlight sync.WaitGroup
	inFlight.Add(1)
	var once sync.Once

	fetcher := &fakeFetcher{
		initFn: func(call int) (*upstream.InitResult, error) {
			if call == 1 {
				return &upstream.InitResult{QueryID: "q-1", TotalPages: 1, TotalRecords: 10}, nil
			}
			return &upstream.InitResult{QueryID: "q-2", TotalPages: 1, TotalRecords: 5}, nil
		},
		pageFn: func(queryID string, page int) (*upstream.PageResult, error) {
			if queryID == "q-1" {
				once.Do(inFlight.Done)
				<-release
				return pageOf(queryID, page, 10), nil
			}
			return pageOf(queryID, page, 5), nil
		},
	}
	ctrl := NewController(fetcher, &recordingSink{}, nil, 10, zerolog.Nop())

	if err := ctrl.StartQuery(context.Background(), validCriteria); err != nil {
		t.Fatalf("first query: %v", err)
	}
	inFlight.Wait()

	// Second query supersedes the first while its page is still in flight.
	if err := ctrl.StartQuery(context.Background(), validCriteria); err != nil {
		t.Fatalf("second query: %v", err)
	}
	waitFor(t, func() bool {
		s := ctrl.Session()
		return s.Complete && s.QueryID == "q-2"
	})

	close(release)
	time.Sleep(50 * time.Millisecond)

	results := ctrl.Results()
	if len(results) != 5 {
		t.Fatalf("expected 5 records from the new query, got %d", len(results))
	}
	for i, rec := range results {
		if rec["query"] != "q-2" {
			t.Errorf("record %d belongs to superseded query %v", i, rec["query"])
		}
	}
	if loaded := ctrl.Session().LoadedRecords; loaded != 5 {
		t.Errorf("expected 5 loaded records, got %d", loaded)
	}
}

func TestFailedPageDroppedWithoutAborting(t *testing.T) {
	fetcher := &fakeFetcher{
		initFn: singleInit("q-1", 10, 20),
		pageFn: func(queryID string, page int) (*upstream.PageResult, error) {
			if page == 4 {
				return nil, &upstream.PageFetchError{Page: page, Status: 500, Category: upstream.CategoryServerError}
			}
			return pageOf(queryID, page, 2), nil
		},
	}
	sink := &recordingSink{}
	ctrl := NewController(fetcher, sink, nil, 10, zerolog.Nop())

	if err := ctrl.StartQuery(context.Background(), validCriteria); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitFor(t, func() bool { return ctrl.Session().Complete })

	if loaded := ctrl.Session().LoadedRecords; loaded != 18 {
		t.Errorf("expected 18 records after dropping one page, got %d", loaded)
	}
	if len(sink.byType(EventError)) != 0 {
		t.Errorf("a single failed page must not raise an error event")
	}

	// Page order is preserved across the gap left by the failed page.
	results := ctrl.Results()
	lastPage := 0.0
	for _, rec := range results {
		page := rec["page"].(float64)
		if page < lastPage {
			t.Fatalf("page order violated after dropped page: %v after %v", page, lastPage)
		}
		lastPage = page
	}
}

func TestWholeBatchFailureAbortsAndKeepsBuffer(t *testing.T) {
	fetcher := &fakeFetcher{
		initFn: singleInit("q-1", 20, 40),
		pageFn: func(queryID string, page int) (*upstream.PageResult, error) {
			if page > 10 {
				return nil, &upstream.PageFetchError{Page: page, Status: 502, Category: upstream.CategoryServerError}
			}
			return pageOf(queryID, page, 2), nil
		},
	}
	sink := &recordingSink{}
	ctrl := NewController(fetcher, sink, nil, 10, zerolog.Nop())

	if err := ctrl.StartQuery(context.Background(), validCriteria); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitFor(t, func() bool { return !ctrl.Session().Active })

	session := ctrl.Session()
	if session.Complete {
		t.Error("aborted session must not report complete")
	}
	if len(ctrl.Results()) != 20 {
		t.Errorf("expected the first batch's 20 records retained, got %d", len(ctrl.Results()))
	}

	errorEvents := sink.byType(EventError)
	if len(errorEvents) != 1 {
		t.Fatalf("expected one error event, got %d", len(errorEvents))
	}
	if errorEvents[0].DisplayMs <= baseDisplayMs {
		t.Errorf("multi-line abort message should get extended display time, got %d", errorEvents[0].DisplayMs)
	}
	if len(sink.byType(EventComplete)) != 0 {
		t.Error("aborted session must not publish a completion event")
	}
}

func TestCompletionByLastPageFlag(t *testing.T) {
	pageSizes := map[int]int{1: 10, 2: 10, 3: 5}
	fetcher := &fakeFetcher{
		initFn: singleInit("q-1", 10, 25),
		pageFn: func(queryID string, page int) (*upstream.PageResult, error) {
			res := pageOf(queryID, page, pageSizes[page])
			res.IsLastPage = page == 3
			return res, nil
		},
	}
	sink := &recordingSink{}
	// Single-page batches so the last-page flag can stop the loop early.
	ctrl := NewController(fetcher, sink, nil, 1, zerolog.Nop())

	if err := ctrl.StartQuery(context.Background(), validCriteria); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitFor(t, func() bool { return ctrl.Session().Complete })

	if pages := fetcher.pages(); len(pages) != 3 {
		t.Fatalf("expected the loop to stop after page 3, got fetches %v", pages)
	}
	if loaded := ctrl.Session().LoadedRecords; loaded != 25 {
		t.Errorf("expected 25 loaded records, got %d", loaded)
	}

	completeEvents := sink.byType(EventComplete)
	if len(completeEvents) != 1 {
		t.Fatalf("expected one complete event, got %d", len(completeEvents))
	}
	summary := completeEvents[0].Summary
	if summary == nil {
		t.Fatal("complete event must carry a summary")
	}
	total := 0
	for _, count := range summary.ByRecordType {
		total += count
	}
	if total != 25 || summary.TotalRecords != 25 {
		t.Errorf("summary must account for all records: total=%d byType=%d", summary.TotalRecords, total)
	}
}

func TestSlowInitEmitsFeedbackNotice(t *testing.T) {
	fetcher := &fakeFetcher{
		initFn: func(int) (*upstream.InitResult, error) {
			time.Sleep(100 * time.Millisecond)
			return &upstream.InitResult{QueryID: "q-1", TotalPages: 1, TotalRecords: 1}, nil
		},
		pageFn: func(queryID string, page int) (*upstream.PageResult, error) {
			return pageOf(queryID, page, 1), nil
		},
	}
	sink := &recordingSink{}
	ctrl := NewController(fetcher, sink, nil, 10, zerolog.Nop())
	ctrl.feedbackAfter = 20 * time.Millisecond

	if err := ctrl.StartQuery(context.Background(), validCriteria); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitFor(t, func() bool { return ctrl.Session().Complete })

	notices := sink.byType(EventNotice)
	if len(notices) != 1 {
		t.Fatalf("expected exactly one notice for a slow init, got %d", len(notices))
	}
	if !strings.Contains(notices[0].Message, "taking longer than expected") {
		t.Errorf("unexpected notice message: %q", notices[0].Message)
	}
}

func TestFastInitEmitsNoFeedbackNotice(t *testing.T) {
	fetcher := &fakeFetcher{
		initFn: singleInit("q-1", 1, 1),
		pageFn: func(queryID string, page int) (*upstream.PageResult, error) {
			return pageOf(queryID, page, 1), nil
		},
	}
	sink := &recordingSink{}
	ctrl := NewController(fetcher, sink, nil, 10, zerolog.Nop())
	ctrl.feedbackAfter = 30 * time.Millisecond

	if err := ctrl.StartQuery(context.Background(), validCriteria); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitFor(t, func() bool { return ctrl.Session().Complete })

	// Long enough for a leaked timer to have fired.
	time.Sleep(80 * time.Millisecond)

	if notices := sink.byType(EventNotice); len(notices) != 0 {
		t.Errorf("fast init must not emit a notice, got %d", len(notices))
	}
}

func TestFastFailingInitEmitsNoFeedbackNotice(t *testing.T) {
	fetcher := &fakeFetcher{
		initFn: func(int) (*upstream.InitResult, error) {
			return nil, fmt.Errorf("upstream down")
		},
	}
	sink := &recordingSink{}
	ctrl := NewController(fetcher, sink, nil, 10, zerolog.Nop())
	ctrl.feedbackAfter = 30 * time.Millisecond

	var initErr *InitError
	if err := ctrl.StartQuery(context.Background(), validCriteria); !errors.As(err, &initErr) {
		t.Fatalf("expected InitError, got %v", err)
	}

	time.Sleep(80 * time.Millisecond)

	if notices := sink.byType(EventNotice); len(notices) != 0 {
		t.Errorf("failing init must stop the notice timer, got %d notices", len(notices))
	}
	if len(sink.byType(EventError)) != 1 {
		t.Errorf("expected exactly one error event")
	}
}

func TestDisplayDuration(t *testing.T) {
	if got := displayDuration("one line"); got != 4000 {
		t.Errorf("expected 4000ms for one line, got %d", got)
	}
	if got := displayDuration("line one\nline two\nline three"); got != 8000 {
		t.Errorf("expected 8000ms for three lines, got %d", got)
	}
}
