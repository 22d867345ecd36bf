package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/openduel/internal/domain"
	"github.com/osse101/openduel/internal/repository"
)

// PoolRepository implements the opening pool repository for PostgreSQL
type PoolRepository struct {
	pool *pgxpool.Pool
}

// NewPoolRepository creates a new PoolRepository
func NewPoolRepository(pool *pgxpool.Pool) repository.Pools {
	return &PoolRepository{pool: pool}
}

// GetPool returns all stored openings of a player, oldest first
func (r *PoolRepository) GetPool(ctx context.Context, userID uuid.UUID) ([]domain.PoolOpening, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT opening_id, user_id, name, fen, color, created_at
		FROM player_openings
		WHERE user_id = $1
		ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pool: %w", err)
	}
	defer rows.Close()

	var out []domain.PoolOpening
	for rows.Next() {
		var o domain.PoolOpening
		if err := rows.Scan(&o.ID, &o.UserID, &o.Name, &o.FEN, &o.Color, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pool opening: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// AddOpening inserts a new pool entry, filling in the generated id and
// timestamp
func (r *PoolRepository) AddOpening(ctx context.Context, opening *domain.PoolOpening) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO player_openings (user_id, name, fen, color)
		VALUES ($1, $2, $3, $4)
		RETURNING opening_id, created_at`,
		opening.UserID, opening.Name, opening.FEN, opening.Color,
	).Scan(&opening.ID, &opening.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert pool opening: %w", err)
	}
	return nil
}

// RemoveOpening deletes one pool entry of the player
func (r *PoolRepository) RemoveOpening(ctx context.Context, userID, openingID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM player_openings
		WHERE user_id = $1 AND opening_id = $2`, userID, openingID)
	if err != nil {
		return fmt.Errorf("failed to delete pool opening: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOpeningNotFound
	}
	return nil
}

// GetOpeningStats returns the aggregate historical results of an opening.
// Rows are stored from White's perspective; a Black query mirrors them.
func (r *PoolRepository) GetOpeningStats(ctx context.Context, name string, color domain.Color) (*domain.OpeningStats, error) {
	st := &domain.OpeningStats{Name: name, Color: color}

	var wins, draws, losses int
	err := r.pool.QueryRow(ctx, `
		SELECT wins, draws, losses
		FROM opening_stats
		WHERE name = $1`, name,
	).Scan(&wins, &draws, &losses)
	if errors.Is(err, pgx.ErrNoRows) {
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query opening stats: %w", err)
	}

	if color == domain.ColorBlack {
		wins, losses = losses, wins
	}
	st.Wins, st.Draws, st.Losses = wins, draws, losses
	return st, nil
}
