package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/AyanDgr8/cdr-spc-sub001/internal/types"
	"github.com/rs/zerolog"
)

// InitResult is the normalized response of a successful query init.
type InitResult struct {
	QueryID      string
	TotalPages   int
	TotalRecords int
}

// PageResult is the normalized response of a successful page fetch.
type PageResult struct {
	Records    []types.Record
	IsLastPage bool
}

// Client talks to the upstream progressive query API. It performs no
// retries; per-page failure handling is the load controller's concern.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a client pointing at the given upstream base URL
// (e.g. "http://localhost:9000"). A zero timeout disables the client-side
// timeout, leaving the server's own limits in charge.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "upstream_client").Logger(),
	}
}

type initResponse struct {
	Success      bool   `json:"success"`
	QueryID      string `json:"queryId"`
	TotalPages   int    `json:"totalPages"`
	TotalRecords int    `json:"totalRecords"`
	Error        string `json:"error,omitempty"`
}

type pageResponse struct {
	Success    bool           `json:"success"`
	Data       []types.Record `json:"data"`
	IsLastPage bool           `json:"isLastPage"`
	Error      string         `json:"error,omitempty"`
}

type lookupResponse struct {
	Success bool     `json:"success"`
	Data    []string `json:"data"`
	Error   string   `json:"error,omitempty"`
}

// InitQuery registers a new server-side query for the given criteria.
func (c *Client) InitQuery(ctx context.Context, criteria types.FilterCriteria) (*InitResult, error) {
	body, err := json.Marshal(criteria)
	if err != nil {
		return nil, fmt.Errorf("marshal init request: %w", err)
	}

	reqURL := c.baseURL + "/query/init"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create init request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("init returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed initResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode init response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("init rejected by server: %s", parsed.Error)
	}
	if parsed.QueryID == "" || parsed.TotalPages < 0 || parsed.TotalRecords < 0 {
		return nil, fmt.Errorf("malformed init response: queryId=%q totalPages=%d totalRecords=%d",
			parsed.QueryID, parsed.TotalPages, parsed.TotalRecords)
	}

	return &InitResult{
		QueryID:      parsed.QueryID,
		TotalPages:   parsed.TotalPages,
		TotalRecords: parsed.TotalRecords,
	}, nil
}

// FetchPage fetches exactly one page for the given query. All failures
// are reported as *PageFetchError with the category the UI messaging
// needs.
func (c *Client) FetchPage(ctx context.Context, queryID string, page int) (*PageResult, error) {
	reqURL := fmt.Sprintf("%s/query/page?queryId=%s&page=%d", c.baseURL, url.QueryEscape(queryID), page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &PageFetchError{Page: page, Category: CategoryNetwork, Message: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &PageFetchError{Page: page, Category: transportCategory(err), Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, &PageFetchError{
			Page:     page,
			Status:   resp.StatusCode,
			Category: categorize(resp.StatusCode),
			Message:  string(respBody),
		}
	}

	var parsed pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &PageFetchError{Page: page, Status: resp.StatusCode, Category: CategoryServerError, Message: err.Error()}
	}
	if !parsed.Success {
		return nil, &PageFetchError{Page: page, Status: resp.StatusCode, Category: CategoryServerError, Message: parsed.Error}
	}

	return &PageResult{Records: parsed.Data, IsLastPage: parsed.IsLastPage}, nil
}

// Lookup fetches the dropdown values of the given kind (agents, queues,
// dispositions, ...) for a unix-seconds time range.
func (c *Client) Lookup(ctx context.Context, kind string, fromTS, toTS int64) ([]string, error) {
	reqURL := fmt.Sprintf("%s/lookup/%s?from_ts=%s&to_ts=%s",
		c.baseURL, url.PathEscape(kind),
		strconv.FormatInt(fromTS, 10), strconv.FormatInt(toTS, 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create lookup request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup %s returned status %d", kind, resp.StatusCode)
	}

	var parsed lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("lookup %s rejected by server: %s", kind, parsed.Error)
	}

	return parsed.Data, nil
}

// transportCategory distinguishes a client-observed timeout from a plain
// unreachable network.
func transportCategory(err error) ErrorCategory {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return CategoryTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	return CategoryNetwork
}
