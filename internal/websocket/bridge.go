package websocket

import (
	"encoding/json"

	"github.com/AyanDgr8/cdr-spc-sub001/internal/loader"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/render"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/types"
	"github.com/rs/zerolog"
)

// ResultSource is the slice of the load controller the bridge reads.
type ResultSource interface {
	Results() []types.Record
}

// frameMessage wraps a render frame for the wire.
type frameMessage struct {
	Type  string       `json:"type"`
	Frame render.Frame `json:"frame"`
}

// EventBridge forwards load events to the hub and, at checkpoint
// boundaries, pushes a rebuilt table frame so viewers follow the load
// without polling.
type EventBridge struct {
	hub      *Hub
	renderer *render.Renderer
	source   ResultSource
	logger   zerolog.Logger
}

// NewEventBridge creates the bridge wired between controller, renderer
// and hub.
func NewEventBridge(hub *Hub, renderer *render.Renderer, source ResultSource, logger zerolog.Logger) *EventBridge {
	return &EventBridge{
		hub:      hub,
		renderer: renderer,
		source:   source,
		logger:   logger.With().Str("component", "event_bridge").Logger(),
	}
}

// Publish implements loader.EventSink.
func (b *EventBridge) Publish(event loader.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to marshal load event")
		return
	}
	b.hub.Broadcast(data)

	if event.Type != loader.EventProgress && event.Type != loader.EventComplete {
		return
	}

	complete := event.Type == loader.EventComplete
	if !b.renderer.ShouldRebuild(event.Loaded, complete) {
		return
	}

	frame := b.renderer.Rebuild(b.source.Results())
	payload, err := json.Marshal(frameMessage{Type: "render_frame", Frame: frame})
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to marshal render frame")
		return
	}
	b.hub.Broadcast(payload)
}
