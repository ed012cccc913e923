package upstream

import "fmt"

// ErrorCategory classifies a failed page or init request. Each category
// maps to a distinct user-facing message.
type ErrorCategory string

const (
	CategoryBadRequest  ErrorCategory = "bad-request"
	CategoryNotFound    ErrorCategory = "not-found"
	CategoryServerError ErrorCategory = "server-error"
	CategoryTimeout     ErrorCategory = "timeout"
	CategoryNetwork     ErrorCategory = "network-unreachable"
)

// PageFetchError reports a single failed page request. A failed page is
// logged and dropped by the load controller; it is never retried.
type PageFetchError struct {
	Page     int
	Status   int
	Category ErrorCategory
	Message  string
}

func (e *PageFetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("page %d fetch failed (%s, status %d): %s", e.Page, e.Category, e.Status, e.Message)
	}
	return fmt.Sprintf("page %d fetch failed (%s): %s", e.Page, e.Category, e.Message)
}

// UserMessage returns the tailored user-facing text for this failure.
func (e *PageFetchError) UserMessage() string {
	switch e.Category {
	case CategoryBadRequest:
		return "The report request was rejected. Please review the selected filters and try again."
	case CategoryNotFound:
		return "The report query is no longer available on the server. Please run the search again."
	case CategoryTimeout:
		return "The server took too long to respond. Try narrowing the time range or adding filters to reduce the result size."
	case CategoryNetwork:
		return "Could not reach the report server. Please check your connection and try again."
	default:
		return "The report server reported an internal error. Please try again shortly."
	}
}

// categorize maps an HTTP status code to an error category. The upstream
// gateway returns 504 when its own query timeout fires.
func categorize(status int) ErrorCategory {
	switch {
	case status == 504:
		return CategoryTimeout
	case status == 404:
		return CategoryNotFound
	case status >= 500:
		return CategoryServerError
	case status >= 400:
		return CategoryBadRequest
	default:
		return CategoryServerError
	}
}
