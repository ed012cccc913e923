package loader

import (
	"strings"

	"github.com/AyanDgr8/cdr-spc-sub001/internal/types"
)

// EventType classifies a load lifecycle event.
type EventType string

const (
	// EventProgress carries status text after init and after every batch.
	EventProgress EventType = "load_progress"
	// EventNotice is a transient informational message (e.g. slow init).
	EventNotice EventType = "load_notice"
	// EventError is an escalated failure the user must see.
	EventError EventType = "load_error"
	// EventComplete carries the completion summary.
	EventComplete EventType = "load_complete"
)

// Event is one load lifecycle notification. DisplayMs is how long a
// notification should stay visible; multi-line messages get more time.
type Event struct {
	Type      EventType          `json:"type"`
	QueryID   string             `json:"queryId,omitempty"`
	Message   string             `json:"message,omitempty"`
	Loaded    int                `json:"loaded"`
	Total     int                `json:"total"`
	DisplayMs int                `json:"displayMs,omitempty"`
	Summary   *types.LoadSummary `json:"summary,omitempty"`
}

// EventSink receives load lifecycle events. The production sink pushes
// them to connected viewers over the websocket hub; tests use a recorder.
type EventSink interface {
	Publish(Event)
}

const (
	baseDisplayMs    = 4000
	perLineDisplayMs = 2000
)

// displayDuration scales notification time with message length.
func displayDuration(message string) int {
	extraLines := strings.Count(message, "\n")
	return baseDisplayMs + extraLines*perLineDisplayMs
}
