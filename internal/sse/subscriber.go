package sse

import (
	"context"
	"log/slog"

	"github.com/osse101/openduel/internal/event"
)

// engineEventTypes lists every outbound engine event relayed to SSE clients
var engineEventTypes = []event.Type{
	event.SeriesPhaseChanged,
	event.SeriesCountdownStarted,
	event.SeriesCountdownCancelled,
	event.SeriesOpponentStatus,
	event.SeriesOpeningShowcase,
	event.SeriesGameStarted,
	event.SeriesScoreUpdated,
	event.SeriesFinishedEvent,
	event.SeriesAbortedEvent,
	event.SeriesRematchOffered,
	event.SeriesRematchCreated,
}

// Subscriber bridges the internal event bus to the SSE hub
type Subscriber struct {
	hub *Hub
	bus event.Bus
}

// NewSubscriber creates a new SSE subscriber
func NewSubscriber(hub *Hub, bus event.Bus) *Subscriber {
	return &Subscriber{hub: hub, bus: bus}
}

// Subscribe registers a relay handler for every engine event type
func (s *Subscriber) Subscribe() {
	for _, t := range engineEventTypes {
		s.bus.Subscribe(t, s.relay)
	}
	slog.Info("SSE subscriber registered", "types", len(engineEventTypes))
}

// relay pushes one bus event to the hub, tagged with its series id so
// per-series clients receive only their own traffic
func (s *Subscriber) relay(_ context.Context, evt event.Event) error {
	s.hub.Broadcast(string(evt.Type), seriesIDOf(evt.Payload), evt.Payload)

	slog.Debug(LogMsgEventBroadcast, "event_type", evt.Type)
	return nil
}

// seriesIDOf extracts the series id from any engine payload
func seriesIDOf(payload interface{}) string {
	switch p := payload.(type) {
	case event.PhaseChangedPayloadV1:
		return p.SeriesID
	case event.CountdownStartedPayloadV1:
		return p.SeriesID
	case event.CountdownCancelledPayloadV1:
		return p.SeriesID
	case event.OpponentStatusPayloadV1:
		return p.SeriesID
	case event.OpeningShowcasePayloadV1:
		return p.SeriesID
	case event.GameStartedPayloadV1:
		return p.SeriesID
	case event.ScoreUpdatedPayloadV1:
		return p.SeriesID
	case event.SeriesFinishedPayloadV1:
		return p.SeriesID
	case event.SeriesAbortedPayloadV1:
		return p.SeriesID
	case event.RematchOfferedPayloadV1:
		return p.SeriesID
	case event.RematchCreatedPayloadV1:
		return p.SeriesID
	default:
		return ""
	}
}
