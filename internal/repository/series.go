package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/osse101/openduel/internal/domain"
)

// Series defines the archive access of the state machine. Live series are
// held in memory under the single-writer lock; the archive only ever sees
// terminal aggregates.
type Series interface {
	// ArchiveSeries persists a finished or aborted series with its games
	ArchiveSeries(ctx context.Context, series *domain.Series) error
	// GetArchivedSeries loads a terminal series for the read API
	GetArchivedSeries(ctx context.Context, id uuid.UUID) (*domain.Series, error)
	// ListRecentSeries returns the most recently archived series
	ListRecentSeries(ctx context.Context, limit int) ([]domain.Series, error)
}
