package pool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/notnil/chess"

	"github.com/osse101/openduel/internal/config"
	"github.com/osse101/openduel/internal/domain"
	"github.com/osse101/openduel/internal/logger"
	"github.com/osse101/openduel/internal/repository"
)

// Service defines the interface for opening pool operations
type Service interface {
	GetPool(ctx context.Context, userID uuid.UUID) ([]domain.PoolOpening, error)
	AddOpening(ctx context.Context, userID uuid.UUID, name, fen string, color domain.Color) (*domain.PoolOpening, error)
	RemoveOpening(ctx context.Context, userID, openingID uuid.UUID) error

	// Snapshot copies a player's current pool into series openings. Later
	// pool edits do not affect the snapshot.
	Snapshot(ctx context.Context, userID uuid.UUID, owner int) ([]domain.Opening, error)
}

type service struct {
	repo repository.Pools
	cfg  config.DuelConfig
}

// NewService creates a new pool service
func NewService(repo repository.Pools, cfg config.DuelConfig) Service {
	return &service{repo: repo, cfg: cfg}
}

// GetPool returns a player's stored opening pool
func (s *service) GetPool(ctx context.Context, userID uuid.UUID) ([]domain.PoolOpening, error) {
	return s.repo.GetPool(ctx, userID)
}

// AddOpening validates and stores a new pool entry. It fails on a full pool,
// a duplicate name, a FEN the rules engine rejects, or an opening whose
// historical win rate for the requested color sits outside the accepted band.
func (s *service) AddOpening(ctx context.Context, userID uuid.UUID, name, fen string, color domain.Color) (*domain.PoolOpening, error) {
	log := logger.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty opening name", domain.ErrInvalidInput)
	}

	fen, err := normalizeFEN(fen)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetPool(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}

	if len(current) >= s.cfg.PoolCapacity {
		return nil, fmt.Errorf("%w: capacity %d", domain.ErrPoolFull, s.cfg.PoolCapacity)
	}
	for _, o := range current {
		if strings.EqualFold(o.Name, name) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyInPool, name)
		}
	}

	if err := s.checkWinRate(ctx, name, color); err != nil {
		return nil, err
	}

	opening := &domain.PoolOpening{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		FEN:       fen,
		Color:     color,
		CreatedAt: time.Now(),
	}
	if err := s.repo.AddOpening(ctx, opening); err != nil {
		return nil, fmt.Errorf("failed to store opening: %w", err)
	}

	log.Info("opening added to pool", "user_id", userID, "opening", name, "color", color)
	return opening, nil
}

// RemoveOpening drops a pool entry unless the pool would fall below the
// configured minimum
func (s *service) RemoveOpening(ctx context.Context, userID, openingID uuid.UUID) error {
	current, err := s.repo.GetPool(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load pool: %w", err)
	}

	found := false
	for _, o := range current {
		if o.ID == openingID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", domain.ErrOpeningNotFound, openingID)
	}

	if len(current) <= s.cfg.PoolMinimum {
		return fmt.Errorf("%w: minimum %d", domain.ErrPoolAtMinimum, s.cfg.PoolMinimum)
	}

	return s.repo.RemoveOpening(ctx, userID, openingID)
}

// Snapshot copies the player's pool into series openings owned by the seat
func (s *service) Snapshot(ctx context.Context, userID uuid.UUID, owner int) ([]domain.Opening, error) {
	current, err := s.repo.GetPool(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}
	if len(current) < s.cfg.PoolMinimum {
		return nil, fmt.Errorf("%w: pool has %d openings, need %d", domain.ErrInvalidInput, len(current), s.cfg.PoolMinimum)
	}

	out := make([]domain.Opening, 0, len(current))
	for _, o := range current {
		out = append(out, domain.Opening{
			ID:    o.ID,
			Name:  o.Name,
			FEN:   o.FEN,
			Owner: owner,
		})
	}
	return out, nil
}

// checkWinRate rejects openings whose aggregate result history is one-sided.
// Openings without enough recorded games pass unchecked.
func (s *service) checkWinRate(ctx context.Context, name string, color domain.Color) error {
	stats, err := s.repo.GetOpeningStats(ctx, name, color)
	if err != nil {
		return fmt.Errorf("failed to load opening stats: %w", err)
	}
	if stats == nil || stats.Games() < s.cfg.MinSampleGames {
		return nil
	}

	rate := stats.WinRate()
	if rate < s.cfg.WinRateFloor || rate > s.cfg.WinRateCeiling {
		return fmt.Errorf("%w: %s scores %.2f as %s over %d games",
			domain.ErrWinRateImbalance, name, rate, color, stats.Games())
	}
	return nil
}

// normalizeFEN validates the position with the rules engine. An empty FEN
// defaults to the standard starting position.
func normalizeFEN(fen string) (string, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return chess.StartingPosition().String(), nil
	}
	fn, err := chess.FEN(fen)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidFEN, err)
	}
	game := chess.NewGame(fn)
	return game.Position().String(), nil
}
