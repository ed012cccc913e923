package ticker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AyanDgr8/cdr-spc-sub001/internal/types"
	"github.com/AyanDgr8/cdr-spc-sub001/internal/websocket"
	"github.com/rs/zerolog"
)

// SessionSource exposes the current query session to the ticker.
type SessionSource interface {
	Session() types.QuerySession
}

// StatusMessage is the heartbeat sent to viewers while a load is active.
type StatusMessage struct {
	Type          string `json:"type"` // "load_status"
	QueryID       string `json:"queryId"`
	LoadedRecords int    `json:"loadedRecords"`
	TotalRecords  int    `json:"totalRecords"`
	ServerTime    int64  `json:"serverTime"`
}

// StatusTicker periodically broadcasts the active session's load status
// so viewers that missed a progress event stay in sync.
type StatusTicker struct {
	hub      *websocket.Hub
	source   SessionSource
	interval time.Duration
	logger   zerolog.Logger
}

// NewStatusTicker creates a new StatusTicker
func NewStatusTicker(hub *websocket.Hub, source SessionSource, interval time.Duration, logger zerolog.Logger) *StatusTicker {
	return &StatusTicker{
		hub:      hub,
		source:   source,
		interval: interval,
		logger:   logger,
	}
}

// Start begins broadcasting status updates until the context is done.
// Nothing is broadcast while no session is active.
func (t *StatusTicker) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info().Dur("interval", t.interval).Msg("status ticker started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("status ticker stopped")
			return

		case now := <-ticker.C:
			session := t.source.Session()
			if !session.Active {
				continue
			}

			message := StatusMessage{
				Type:          "load_status",
				QueryID:       session.QueryID,
				LoadedRecords: session.LoadedRecords,
				TotalRecords:  session.TotalRecords,
				ServerTime:    now.Unix(),
			}

			data, err := json.Marshal(message)
			if err != nil {
				t.logger.Error().Err(err).Msg("failed to marshal status message")
				continue
			}

			t.hub.Broadcast(data)
			t.logger.Debug().
				Str("query_id", session.QueryID).
				Int("loaded", session.LoadedRecords).
				Msg("broadcasted load status")
		}
	}
}
