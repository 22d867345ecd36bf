package series

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/osse101/openduel/internal/clock"
	"github.com/osse101/openduel/internal/concurrency"
	"github.com/osse101/openduel/internal/config"
	"github.com/osse101/openduel/internal/domain"
	"github.com/osse101/openduel/internal/event"
	"github.com/osse101/openduel/internal/liveness"
	"github.com/osse101/openduel/internal/logger"
	"github.com/osse101/openduel/internal/metrics"
	"github.com/osse101/openduel/internal/outcome"
	"github.com/osse101/openduel/internal/pickban"
	"github.com/osse101/openduel/internal/pool"
	"github.com/osse101/openduel/internal/repository"
)

// archivedCacheSize bounds the in-memory cache of recently finished series
// served by the read API before falling back to the database.
const archivedCacheSize = 256

// GameStarter is the boundary to the game component. The engine hands over
// the opening position and colors and later receives a terminal result
// callback; it never inspects move legality itself.
type GameStarter interface {
	StartGame(ctx context.Context, seriesID, gameID uuid.UUID, fen string, white, black uuid.UUID) error
}

// Manager is the series state machine. It owns every live series, applies
// all commands and timer callbacks under a per-series lock, and emits the
// engine's outbound events.
type Manager struct {
	cfg      config.DuelConfig
	clk      clock.Clock
	locks    *concurrency.LockManager
	bus      event.Bus
	monitor  *liveness.Monitor
	pickban  *pickban.Handler
	resolver *outcome.Resolver
	pools    pool.Service
	repo     repository.Series
	starter  GameStarter
	rng      pickban.Rand

	mu       sync.RWMutex
	live     map[uuid.UUID]*domain.Series
	timers   map[uuid.UUID]*timerEntry
	archived *lru.Cache[uuid.UUID, *domain.Series]
}

// NewManager wires the state machine
func NewManager(
	cfg config.DuelConfig,
	clk clock.Clock,
	bus event.Bus,
	monitor *liveness.Monitor,
	pools pool.Service,
	repo repository.Series,
	starter GameStarter,
	rng pickban.Rand,
) *Manager {
	cache, _ := lru.New[uuid.UUID, *domain.Series](archivedCacheSize)
	return &Manager{
		cfg:      cfg,
		clk:      clk,
		locks:    concurrency.NewLockManager(),
		bus:      bus,
		monitor:  monitor,
		pickban:  pickban.NewHandler(cfg),
		resolver: outcome.NewResolver(),
		pools:    pools,
		repo:     repo,
		starter:  starter,
		rng:      rng,
		live:     make(map[uuid.UUID]*domain.Series),
		timers:   make(map[uuid.UUID]*timerEntry),
		archived: cache,
	}
}

// CreateSeries snapshots both players' pools, randomizes seat assignment and
// starts the series in the picking phase.
func (m *Manager) CreateSeries(ctx context.Context, userA, userB uuid.UUID) (*domain.Series, error) {
	log := logger.FromContext(ctx)

	if m.rng.Intn(2) == 1 {
		userA, userB = userB, userA
	}

	poolA, err := m.pools.Snapshot(ctx, userA, 0)
	if err != nil {
		return nil, fmt.Errorf("snapshot pool for %s: %w", userA, err)
	}
	poolB, err := m.pools.Snapshot(ctx, userB, 1)
	if err != nil {
		return nil, fmt.Errorf("snapshot pool for %s: %w", userB, err)
	}

	now := m.clk.Now()
	s := &domain.Series{
		ID:     uuid.New(),
		Status: domain.SeriesStarted,
		Players: [2]domain.SeriesPlayer{
			{UserID: userA, Pool: poolA},
			{UserID: userB, Pool: poolB},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.live[s.ID] = s
	m.mu.Unlock()
	metrics.SeriesCreated.Inc()
	metrics.SeriesLive.Inc()

	lock := m.locks.GetLock(s.ID)
	lock.Lock()
	defer lock.Unlock()
	m.enterPhase(ctx, s, domain.PhasePicking, m.cfg.PhaseTimeout)

	log.Info("series created",
		"series_id", s.ID,
		"player_0", userA,
		"player_1", userB)
	return s, nil
}

// Snapshot returns a copy of the series for the read API: live series are
// copied under the lock, terminal ones come from the archive cache or the
// database.
func (m *Manager) Snapshot(ctx context.Context, id uuid.UUID) (*domain.Series, error) {
	m.mu.RLock()
	s, ok := m.live[id]
	m.mu.RUnlock()
	if ok {
		lock := m.locks.GetLock(id)
		lock.Lock()
		defer lock.Unlock()
		return copySeries(s), nil
	}

	if cached, ok := m.archived.Get(id); ok {
		return copySeries(cached), nil
	}
	return m.repo.GetArchivedSeries(ctx, id)
}

// Seat resolves the seat index of a user in a live series
func (m *Manager) Seat(id, userID uuid.UUID) (int, error) {
	m.mu.RLock()
	s, ok := m.live[id]
	m.mu.RUnlock()
	if !ok {
		return 0, domain.ErrSeriesNotFound
	}
	for i := range s.Players {
		if s.Players[i].UserID == userID {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: user %s has no seat", domain.ErrSeriesNotFound, userID)
}

// Players returns both seats' user ids of a live or archived series
func (m *Manager) Players(ctx context.Context, id uuid.UUID) ([2]uuid.UUID, error) {
	s, err := m.Snapshot(ctx, id)
	if err != nil {
		return [2]uuid.UUID{}, err
	}
	return [2]uuid.UUID{s.Players[0].UserID, s.Players[1].UserID}, nil
}

// finish closes the series with a winner, archives it and retires its lock
// and timers. forfeitBy is set only together with a winner.
func (m *Manager) finish(ctx context.Context, s *domain.Series, winner, forfeitBy *int) {
	m.cancelTimer(s.ID)
	s.Status = domain.SeriesFinished
	s.Phase = domain.PhaseFinished
	s.Winner = winner
	s.ForfeitBy = forfeitBy
	s.Generation++
	s.PhaseDeadline = nil
	s.CountdownActive = false
	s.ClearConfirmations()
	s.UpdatedAt = m.clk.Now()

	m.publish(ctx, event.New(event.SeriesFinishedEvent, event.SeriesFinishedPayloadV1{
		SeriesID:  s.ID.String(),
		Winner:    winner,
		ForfeitBy: forfeitBy,
	}))
	m.retire(ctx, s)
}

// abort closes the series without awarding anything
func (m *Manager) abort(ctx context.Context, s *domain.Series) {
	m.cancelTimer(s.ID)
	s.Status = domain.SeriesAborted
	s.Phase = domain.PhaseFinished
	s.Generation++
	s.PhaseDeadline = nil
	s.CountdownActive = false
	s.ClearConfirmations()
	s.UpdatedAt = m.clk.Now()

	m.publish(ctx, event.New(event.SeriesAbortedEvent, event.SeriesAbortedPayloadV1{
		SeriesID: s.ID.String(),
	}))
	m.retire(ctx, s)
}

// retire moves a terminal series out of the live map into the archive
func (m *Manager) retire(ctx context.Context, s *domain.Series) {
	log := logger.FromContext(ctx)

	if err := m.repo.ArchiveSeries(ctx, s); err != nil {
		// the in-memory copy still serves reads; the archive write is lost
		log.Error("failed to archive series", "series_id", s.ID, "error", err)
	}

	m.mu.Lock()
	delete(m.live, s.ID)
	m.mu.Unlock()
	m.archived.Add(s.ID, s)
	metrics.SeriesLive.Dec()

	log.Info("series retired",
		"series_id", s.ID,
		"status", s.Status.String(),
		"games", len(s.Games))
}

func (m *Manager) publish(ctx context.Context, e event.Event) {
	if err := m.bus.Publish(ctx, e); err != nil {
		metrics.EventHandlerErrors.WithLabelValues(string(e.Type)).Inc()
		logger.FromContext(ctx).Error("failed to publish event", "type", e.Type, "error", err)
	}
}

func copySeries(s *domain.Series) *domain.Series {
	out := *s
	out.Openings = append([]domain.Opening(nil), s.Openings...)
	out.Games = append([]domain.SeriesGame(nil), s.Games...)
	for i := range out.Players {
		out.Players[i].Pool = append([]domain.Opening(nil), s.Players[i].Pool...)
	}
	return &out
}

// timerEntry is the single armed deferred action of a series. The generation
// recorded at scheduling time is re-checked when the callback runs, so a
// stale callback that lost its cancellation race is a no-op.
type timerEntry struct {
	kind       domain.TimerKind
	generation uint64
	timer      *time.Timer
}
