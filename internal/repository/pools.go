package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/osse101/openduel/internal/domain"
)

// Pools defines the data access required by the opening pool manager
type Pools interface {
	GetPool(ctx context.Context, userID uuid.UUID) ([]domain.PoolOpening, error)
	AddOpening(ctx context.Context, opening *domain.PoolOpening) error
	RemoveOpening(ctx context.Context, userID, openingID uuid.UUID) error

	// GetOpeningStats returns the aggregate historical results of an opening
	// for the given color, across all archived games
	GetOpeningStats(ctx context.Context, name string, color domain.Color) (*domain.OpeningStats, error)
}
