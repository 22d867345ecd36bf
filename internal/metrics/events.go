package metrics

import (
	"context"

	"github.com/osse101/openduel/internal/event"
	"github.com/osse101/openduel/internal/logger"
)

// EventMetricsCollector subscribes to engine events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to every engine event type
func (e *EventMetricsCollector) Register(bus event.Bus) error {
	eventTypes := []event.Type{
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

	for _, eventType := range eventTypes {
		bus.Subscribe(eventType, e.HandleEvent)
	}

	return nil
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	switch evt.Type {
	case event.SeriesGameStarted:
		GamesStarted.Inc()

	case event.SeriesScoreUpdated:
		if p, ok := evt.Payload.(event.ScoreUpdatedPayloadV1); ok {
			GamesResolved.WithLabelValues(p.Result).Inc()
		}

	case event.SeriesFinishedEvent:
		if p, ok := evt.Payload.(event.SeriesFinishedPayloadV1); ok {
			switch {
			case p.ForfeitBy != nil:
				SeriesFinished.WithLabelValues(FinishKindForfeit).Inc()
			case p.Winner == nil:
				SeriesFinished.WithLabelValues(FinishKindDrawn).Inc()
			default:
				SeriesFinished.WithLabelValues(FinishKindScore).Inc()
			}
		}

	case event.SeriesAbortedEvent:
		SeriesAborted.Inc()

	case event.SeriesRematchCreated:
		RematchesCreated.Inc()
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
