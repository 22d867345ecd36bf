package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/osse101/openduel/internal/domain"
	"github.com/osse101/openduel/internal/liveness"
	"github.com/osse101/openduel/internal/logger"
	"github.com/osse101/openduel/internal/rematch"
	"github.com/osse101/openduel/internal/series"
	"github.com/osse101/openduel/internal/sse"
)

const (
	writeTimeout = 3 * time.Second
	// readTimeout caps the wait for the next frame; presence pings arrive
	// well inside it
	readTimeout = 30 * time.Second
)

// ClientMessage is one inbound frame on the command channel
type ClientMessage struct {
	Type      string `json:"type"`
	OpeningID string `json:"opening_id,omitempty"`
	// Generation pins the command to the phase the client observed
	Generation uint64 `json:"generation,omitempty"`
}

// ServerMessage is one outbound frame
type ServerMessage struct {
	Type     string      `json:"type"`
	SeriesID string      `json:"series_id,omitempty"`
	Payload  interface{} `json:"payload,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Handler serves the per-series real-time channel: presence pings and
// commands in, engine events out. The user id comes from the authenticated
// session; the query parameter stands in for that integration point.
func Handler(manager *series.Manager, coordinator *rematch.Coordinator, monitor *liveness.Monitor, hub *sse.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		seriesID, err := uuid.Parse(r.URL.Query().Get("series"))
		if err != nil {
			http.Error(w, "missing or invalid series id", http.StatusBadRequest)
			return
		}
		userID, err := uuid.Parse(r.URL.Query().Get("user"))
		if err != nil {
			http.Error(w, "missing or invalid user id", http.StatusBadRequest)
			return
		}

		seat, err := manager.Seat(seriesID, userID)
		if err != nil {
			// spectators and finished-page viewers hold no seat
			seat = -1
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		// first contact counts as presence
		monitor.Ping(userID)

		client := hub.Register(seriesID.String(), nil)
		defer func() {
			hub.Unregister(client.ID)
			coordinator.HandleDeparture(seriesID)
		}()

		log.Info("ws client connected", "series_id", seriesID, "user_id", userID, "seat", seat)

		// Writer: relay engine events for this series
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for evt := range client.EventChannel {
				msg := ServerMessage{Type: evt.Type, SeriesID: evt.SeriesID, Payload: evt.Payload}
				payload, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}

			// every frame proves liveness
			monitor.Ping(userID)
			if cm.Type == "ping" {
				continue
			}
			if seat < 0 {
				writeError(r.Context(), conn, "not a participant")
				continue
			}

			if err := dispatch(r.Context(), manager, coordinator, seriesID, seat, cm); err != nil {
				// commands that lost a race against a timer are dropped
				if errors.Is(err, domain.ErrStaleCommand) {
					continue
				}
				writeError(r.Context(), conn, err.Error())
			}
		}
	}
}

// dispatch routes one frame: rematch commands go to the coordinator,
// everything else to the state machine.
func dispatch(ctx context.Context, manager *series.Manager, coordinator *rematch.Coordinator, seriesID uuid.UUID, seat int, cm ClientMessage) error {
	switch domain.CommandType(cm.Type) {
	case domain.CmdOfferRematch:
		return coordinator.Offer(ctx, seriesID, seat)
	case domain.CmdAcceptRematch:
		_, err := coordinator.Accept(ctx, seriesID, seat)
		return err
	}

	cmd := domain.Command{
		Type:       domain.CommandType(cm.Type),
		SeriesID:   seriesID,
		Player:     seat,
		Generation: cm.Generation,
	}
	if cm.OpeningID != "" {
		id, err := uuid.Parse(cm.OpeningID)
		if err != nil {
			return domain.ErrInvalidInput
		}
		cmd.OpeningID = id
	}
	return manager.Dispatch(ctx, cmd)
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, err := json.Marshal(ServerMessage{Type: "error", Error: msg})
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}
