package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/openduel/internal/database"
	"github.com/osse101/openduel/internal/domain"
	"github.com/osse101/openduel/internal/repository"
)

// SeriesRepository implements the series archive for PostgreSQL
type SeriesRepository struct {
	pool *pgxpool.Pool
}

// NewSeriesRepository creates a new SeriesRepository
func NewSeriesRepository(pool *pgxpool.Pool) repository.Series {
	return &SeriesRepository{pool: pool}
}

// ArchiveSeries persists a terminal series, its games and the per-opening
// result aggregates in one transaction
func (r *SeriesRepository) ArchiveSeries(ctx context.Context, s *domain.Series) error {
	openingsJSON, err := json.Marshal(s.Openings)
	if err != nil {
		return fmt.Errorf("failed to marshal openings: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", database.ErrMsgFailedToBeginTransaction, err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO series (series_id, status, player0, player1, score0, score1, winner, forfeit_by, openings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (series_id) DO NOTHING`,
		s.ID, int(s.Status), s.Players[0].UserID, s.Players[1].UserID,
		s.Players[0].Score, s.Players[1].Score, s.Winner, s.ForfeitBy,
		openingsJSON, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert series: %w", err)
	}

	for _, g := range s.Games {
		_, err = tx.Exec(ctx, `
			INSERT INTO series_games (series_id, game_id, game_index, opening, fen, result, plies, p1_color)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (series_id, game_index) DO NOTHING`,
			s.ID, g.GameID, g.Index, g.Opening, g.FEN, string(g.Result), g.Plies, g.P1Color)
		if err != nil {
			return fmt.Errorf("failed to insert series game: %w", err)
		}

		if err := r.recordStats(ctx, tx, g); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// recordStats folds one game result into the opening's aggregate, from
// White's perspective
func (r *SeriesRepository) recordStats(ctx context.Context, tx pgx.Tx, g domain.SeriesGame) error {
	var wins, draws, losses int
	switch g.Result {
	case domain.ResultDraw:
		draws = 1
	case domain.ResultP1Win:
		if g.P1Color == domain.ColorWhite {
			wins = 1
		} else {
			losses = 1
		}
	case domain.ResultP2Win:
		if g.P1Color == domain.ColorWhite {
			losses = 1
		} else {
			wins = 1
		}
	default:
		// a game that never started says nothing about the opening
		return nil
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO opening_stats (name, wins, draws, losses)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			wins = opening_stats.wins + EXCLUDED.wins,
			draws = opening_stats.draws + EXCLUDED.draws,
			losses = opening_stats.losses + EXCLUDED.losses`,
		g.Opening, wins, draws, losses)
	if err != nil {
		return fmt.Errorf("failed to update opening stats: %w", err)
	}
	return nil
}

// GetArchivedSeries loads a terminal series with its games
func (r *SeriesRepository) GetArchivedSeries(ctx context.Context, id uuid.UUID) (*domain.Series, error) {
	s := &domain.Series{Phase: domain.PhaseFinished}
	var status int
	var openingsJSON []byte

	err := r.pool.QueryRow(ctx, `
		SELECT series_id, status, player0, player1, score0, score1, winner, forfeit_by, openings, created_at, archived_at
		FROM series
		WHERE series_id = $1`, id,
	).Scan(&s.ID, &status, &s.Players[0].UserID, &s.Players[1].UserID,
		&s.Players[0].Score, &s.Players[1].Score, &s.Winner, &s.ForfeitBy,
		&openingsJSON, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSeriesNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}

	s.Status = domain.SeriesStatus(status)
	if err := json.Unmarshal(openingsJSON, &s.Openings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal openings: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT game_id, game_index, opening, fen, result, plies, p1_color
		FROM series_games
		WHERE series_id = $1
		ORDER BY game_index`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query series games: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g domain.SeriesGame
		if err := rows.Scan(&g.GameID, &g.Index, &g.Opening, &g.FEN, &g.Result, &g.Plies, &g.P1Color); err != nil {
			return nil, fmt.Errorf("failed to scan series game: %w", err)
		}
		s.Games = append(s.Games, g)
	}
	return s, rows.Err()
}

// ListRecentSeries returns the most recently archived series without their
// game lists
func (r *SeriesRepository) ListRecentSeries(ctx context.Context, limit int) ([]domain.Series, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT series_id, status, player0, player1, score0, score1, winner, forfeit_by, created_at, archived_at
		FROM series
		ORDER BY archived_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent series: %w", err)
	}
	defer rows.Close()

	var out []domain.Series
	for rows.Next() {
		var s domain.Series
		var status int
		if err := rows.Scan(&s.ID, &status, &s.Players[0].UserID, &s.Players[1].UserID,
			&s.Players[0].Score, &s.Players[1].Score, &s.Winner, &s.ForfeitBy,
			&s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}
		s.Status = domain.SeriesStatus(status)
		s.Phase = domain.PhaseFinished
		out = append(out, s)
	}
	return out, rows.Err()
}
