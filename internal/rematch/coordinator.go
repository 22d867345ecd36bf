package rematch

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/osse101/openduel/internal/domain"
	"github.com/osse101/openduel/internal/event"
	"github.com/osse101/openduel/internal/liveness"
	"github.com/osse101/openduel/internal/logger"
	"github.com/osse101/openduel/internal/series"
)

// Coordinator tracks rematch offers on finished series and spins up the new
// series when an offer is accepted. An offer never expires on its own; it is
// cleared when either player leaves the finished-series context.
type Coordinator struct {
	manager *series.Manager
	bus     event.Bus
	monitor *liveness.Monitor

	mu     sync.Mutex
	offers map[uuid.UUID]int
}

// NewCoordinator creates a rematch coordinator
func NewCoordinator(manager *series.Manager, bus event.Bus, monitor *liveness.Monitor) *Coordinator {
	return &Coordinator{
		manager: manager,
		bus:     bus,
		monitor: monitor,
		offers:  make(map[uuid.UUID]int),
	}
}

// Offer marks a rematch offer pending on a finished series. Offering twice
// from the same seat changes nothing.
func (c *Coordinator) Offer(ctx context.Context, seriesID uuid.UUID, player int) error {
	if !domain.ValidPlayerIndex(player) {
		return fmt.Errorf("%w: player index %d", domain.ErrInvalidInput, player)
	}

	s, err := c.manager.Snapshot(ctx, seriesID)
	if err != nil {
		return err
	}
	if !s.Status.Terminal() {
		return fmt.Errorf("%w: series still in progress", domain.ErrWrongPhase)
	}

	c.mu.Lock()
	prev, exists := c.offers[seriesID]
	if !exists {
		c.offers[seriesID] = player
	}
	c.mu.Unlock()
	if exists && prev == player {
		return nil
	}
	if exists {
		// the opponent offered first; treat the crossing offer as an accept
		_, err := c.Accept(ctx, seriesID, player)
		return err
	}

	if err := c.bus.Publish(ctx, event.New(event.SeriesRematchOffered, event.RematchOfferedPayloadV1{
		SeriesID:  seriesID.String(),
		OfferedBy: player,
	})); err != nil {
		logger.FromContext(ctx).Error("failed to publish rematch offer", "series_id", seriesID, "error", err)
	}
	return nil
}

// Accept consumes a pending offer from the other seat and creates a fresh
// series with the same players, freshly snapshotted pools and re-randomized
// seats.
func (c *Coordinator) Accept(ctx context.Context, seriesID uuid.UUID, player int) (*domain.Series, error) {
	if !domain.ValidPlayerIndex(player) {
		return nil, fmt.Errorf("%w: player index %d", domain.ErrInvalidInput, player)
	}

	c.mu.Lock()
	offeredBy, ok := c.offers[seriesID]
	c.mu.Unlock()
	if !ok || offeredBy == player {
		return nil, domain.ErrNoRematchOffer
	}

	s, err := c.manager.Snapshot(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	// an offer from a player who has since left is void
	if !c.monitor.IsConnected(s.Players[offeredBy].UserID) {
		c.clear(seriesID)
		return nil, domain.ErrNoRematchOffer
	}

	next, err := c.manager.CreateSeries(ctx, s.Players[0].UserID, s.Players[1].UserID)
	if err != nil {
		return nil, fmt.Errorf("create rematch series: %w", err)
	}
	c.clear(seriesID)

	if err := c.bus.Publish(ctx, event.New(event.SeriesRematchCreated, event.RematchCreatedPayloadV1{
		SeriesID:    seriesID.String(),
		NewSeriesID: next.ID.String(),
	})); err != nil {
		logger.FromContext(ctx).Error("failed to publish rematch created", "series_id", seriesID, "error", err)
	}

	logger.FromContext(ctx).Info("rematch created",
		"series_id", seriesID,
		"new_series_id", next.ID)
	return next, nil
}

// HandleDeparture voids any pending offer on the series a player walked away
// from. Called by the transport layer when a finished-series connection goes
// away.
func (c *Coordinator) HandleDeparture(seriesID uuid.UUID) {
	c.clear(seriesID)
}

// PendingOffer reports the seat holding an open offer on the series, if any
func (c *Coordinator) PendingOffer(seriesID uuid.UUID) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seat, ok := c.offers[seriesID]
	return seat, ok
}

func (c *Coordinator) clear(seriesID uuid.UUID) {
	c.mu.Lock()
	delete(c.offers, seriesID)
	c.mu.Unlock()
}
