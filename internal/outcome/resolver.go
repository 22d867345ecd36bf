package outcome

import (
	"fmt"

	"github.com/osse101/openduel/internal/domain"
)

// Decision is what the state machine should do after a game is resolved
type Decision struct {
	// Finished is true when the series just concluded
	Finished bool
	// Winner is the winning seat when Finished; nil means a pool-exhaustion
	// draw.
	Winner *int
	// NextPhase is RandomSelecting or Selecting when the series continues
	NextPhase domain.Phase
	// Selector is the seat that chooses the next opening, -1 for a random
	// draw.
	Selector int
}

// Resolver consumes finished game results, updates the series score and
// game history, and decides how the next opening gets chosen.
type Resolver struct{}

// NewResolver creates a game outcome resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve applies one game's terminal result to the series. The caller holds
// the series lock. The consumed opening is taken from the series' in-flight
// selection and marked used for this round.
func (r *Resolver) Resolve(s *domain.Series, result domain.GameResult, plies int) (Decision, error) {
	if s.Status != domain.SeriesStarted {
		return Decision{}, fmt.Errorf("%w: series is %s", domain.ErrSeriesOver, s.Status)
	}
	if s.NextOpening == nil {
		return Decision{}, fmt.Errorf("%w: no opening in flight", domain.ErrOpeningNotFound)
	}

	opening := *s.NextOpening
	index := len(s.Games)
	s.MarkOpeningUsed(opening.ID, index)

	s.Games = append(s.Games, domain.SeriesGame{
		GameID:  s.CurrentGameID,
		Index:   index,
		Opening: opening.Name,
		FEN:     opening.FEN,
		Result:  result,
		Plies:   plies,
		P1Color: domain.GameColors(index),
	})
	s.NextOpening = nil

	switch result {
	case domain.ResultP1Win:
		s.Players[0].Score += 2
	case domain.ResultP2Win:
		s.Players[1].Score += 2
	case domain.ResultDraw:
		s.Players[0].Score++
		s.Players[1].Score++
	case domain.ResultNoStart:
		// the opening is spent but nobody scores
	default:
		return Decision{}, fmt.Errorf("%w: result %q", domain.ErrInvalidInput, result)
	}

	if d, done := r.checkFinished(s); done {
		return d, nil
	}
	return r.nextSelection(s, result, index), nil
}

// checkFinished applies the early-win and pool-exhaustion rules: the series
// ends when the score lead exceeds the points still winnable from the
// remaining openings, or when no opening is left to play.
func (r *Resolver) checkFinished(s *domain.Series) (Decision, bool) {
	remaining := len(s.RemainingUnion())
	leader, lead := s.ScoreLead()

	// lead is in half-points; each remaining game is worth one point to the
	// trailer
	if leader >= 0 && lead > 2*remaining {
		w := leader
		return Decision{Finished: true, Winner: &w}, true
	}
	if remaining == 0 {
		if leader < 0 {
			return Decision{Finished: true, Winner: nil}, true
		}
		w := leader
		return Decision{Finished: true, Winner: &w}, true
	}
	return Decision{}, false
}

// NextSelection re-derives the selection mode for the upcoming game from the
// last resolved game. Used when the rest period ends, so the decision never
// has to be carried as extra aggregate state.
func (r *Resolver) NextSelection(s *domain.Series) Decision {
	if len(s.Games) == 0 {
		return Decision{NextPhase: domain.PhaseRandomSelecting, Selector: -1}
	}
	last := s.Games[len(s.Games)-1]
	return r.nextSelection(s, last.Result, last.Index)
}

// nextSelection decides who picks the next game's opening. A decisive result
// after game 1 sends the loser to Selecting; game 1 and non-decisive results
// fall back to a random draw from the combined remaining pool.
func (r *Resolver) nextSelection(s *domain.Series, result domain.GameResult, gameIndex int) Decision {
	if result.Decisive() && gameIndex > 0 {
		loser := 1
		if result == domain.ResultP2Win {
			loser = 0
		}
		// a loser whose own pool ran dry cannot select
		if len(s.RemainingOpenings(loser)) > 0 {
			return Decision{NextPhase: domain.PhaseSelecting, Selector: loser}
		}
	}
	return Decision{NextPhase: domain.PhaseRandomSelecting, Selector: -1}
}
