package event

import (
	"context"
	"fmt"
	"sync"
)

// Type represents the type of an event
type Type string

// Outbound engine event types, one per payload of the client protocol
const (
	SeriesPhaseChanged       Type = "series.phase_changed"
	SeriesCountdownStarted   Type = "series.countdown_started"
	SeriesCountdownCancelled Type = "series.countdown_cancelled"
	SeriesOpponentStatus     Type = "series.opponent_status"
	SeriesOpeningShowcase    Type = "series.opening_showcase"
	SeriesGameStarted        Type = "series.game_started"
	SeriesScoreUpdated       Type = "series.score_updated"
	SeriesFinishedEvent      Type = "series.finished"
	SeriesAbortedEvent       Type = "series.aborted"
	SeriesRematchOffered     Type = "series.rematch_offered"
	SeriesRematchCreated     Type = "series.rematch_created"
)

// Event represents a generic event in the system
type Event struct {
	Version string      `json:"version"` // Event schema version (e.g., "1.0")
	Type    Type        `json:"type"`
	Payload interface{} `json:"payload"`
}

// Typed event payloads for type safety

// PhaseChangedPayloadV1 announces a phase transition with its deadline
type PhaseChangedPayloadV1 struct {
	SeriesID string `json:"series_id"`
	Phase    string `json:"phase"`
	// Deadline is a unix timestamp, zero when the phase has no timer
	Deadline int64 `json:"deadline,omitempty"`
}

// CountdownStartedPayloadV1 announces the cancelable confirm-delay countdown
type CountdownStartedPayloadV1 struct {
	SeriesID    string  `json:"series_id"`
	TargetPhase string  `json:"target_phase"`
	Seconds     float64 `json:"seconds"`
}

// CountdownCancelledPayloadV1 announces a countdown cancel
type CountdownCancelledPayloadV1 struct {
	SeriesID    string `json:"series_id"`
	CancelledBy int    `json:"cancelled_by"`
}

// OpponentStatusPayloadV1 carries the per-player readiness line for the UI
type OpponentStatusPayloadV1 struct {
	SeriesID string `json:"series_id"`
	// Player is the seat the status is addressed to
	Player int `json:"player"`
	// Status is one of "ready", "waiting", "disconnected"
	Status string `json:"status"`
}

// OpeningShowcasePayloadV1 announces the opening chosen for the next game
type OpeningShowcasePayloadV1 struct {
	SeriesID string `json:"series_id"`
	Opening  string `json:"opening"`
	FEN      string `json:"fen"`
	// ChosenBy is the selecting seat, -1 for a random draw
	ChosenBy int `json:"chosen_by"`
}

// GameStartedPayloadV1 announces a new game going live
type GameStartedPayloadV1 struct {
	SeriesID string `json:"series_id"`
	GameID   string `json:"game_id"`
	Index    int    `json:"index"`
	FEN      string `json:"fen"`
}

// ScoreUpdatedPayloadV1 carries the running score after a resolved game
type ScoreUpdatedPayloadV1 struct {
	SeriesID string     `json:"series_id"`
	Scores   [2]float64 `json:"scores"`
	Result   string     `json:"result"`
	Game     int        `json:"game"`
}

// SeriesFinishedPayloadV1 is emitted once on series completion
type SeriesFinishedPayloadV1 struct {
	SeriesID string `json:"series_id"`
	// Winner is the winning seat, nil on a pool-exhaustion draw
	Winner    *int `json:"winner"`
	ForfeitBy *int `json:"forfeit_by"`
}

// SeriesAbortedPayloadV1 is emitted once on series abort
type SeriesAbortedPayloadV1 struct {
	SeriesID string `json:"series_id"`
}

// RematchOfferedPayloadV1 announces a pending rematch offer
type RematchOfferedPayloadV1 struct {
	SeriesID  string `json:"series_id"`
	OfferedBy int    `json:"offered_by"`
}

// RematchCreatedPayloadV1 carries the id of the freshly created series
type RematchCreatedPayloadV1 struct {
	SeriesID    string `json:"series_id"`
	NewSeriesID string `json:"new_series_id"`
}

// Opponent status strings for OpponentStatusPayloadV1
const (
	StatusReady        = "ready"
	StatusWaiting      = "waiting"
	StatusDisconnected = "disconnected"
)

// New wraps a typed payload in a versioned event envelope
func New(t Type, payload interface{}) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    t,
		Payload: payload,
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d handler error(s) for %s: %v", len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Recorder is a Bus for tests that records every published event
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish records the event
func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Subscribe is a no-op on the recorder
func (r *Recorder) Subscribe(Type, Handler) {}

// Events returns a copy of everything published so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns the recorded events of one type
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
