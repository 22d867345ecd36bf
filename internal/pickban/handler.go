package pickban

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/osse101/openduel/internal/config"
	"github.com/osse101/openduel/internal/domain"
	"github.com/osse101/openduel/internal/event"
)

// Rand is the random source used for server-authoritative auto-fill.
// It is injectable so tests can assert exact outcomes.
type Rand interface {
	Intn(n int) int
}

// Handler drives the Picking and Banning sub-phases of a series. It mutates
// the aggregate only; the caller holds the series lock and owns all timers.
type Handler struct {
	cfg config.DuelConfig
}

// NewHandler creates a pick/ban handler
func NewHandler(cfg config.DuelConfig) *Handler {
	return &Handler{cfg: cfg}
}

// Required returns the selection count the given phase demands
func (h *Handler) Required(phase domain.Phase) int {
	if phase == domain.PhaseBanning {
		return h.cfg.BansRequired
	}
	return h.cfg.PicksRequired
}

// Select adds an opening to the player's uncommitted selection.
// Picking selects from the player's own pool snapshot; Banning selects from
// the opponent's committed picks.
func (h *Handler) Select(s *domain.Series, player int, openingID uuid.UUID) error {
	if s.Confirmed[player] {
		return fmt.Errorf("%w: selection is confirmed, cancel first", domain.ErrInvalidSelection)
	}
	if len(s.Selections[player]) >= h.Required(s.Phase) {
		return fmt.Errorf("%w: already selected %d", domain.ErrInvalidSelection, len(s.Selections[player]))
	}
	for _, id := range s.Selections[player] {
		if id == openingID {
			return fmt.Errorf("%w: already selected", domain.ErrInvalidSelection)
		}
	}
	if !containsOpening(h.Candidates(s, player), openingID) {
		return fmt.Errorf("%w: not a legal candidate", domain.ErrInvalidSelection)
	}

	s.Selections[player] = append(s.Selections[player], openingID)
	return nil
}

// Deselect removes an opening from the player's uncommitted selection
func (h *Handler) Deselect(s *domain.Series, player int, openingID uuid.UUID) error {
	if s.Confirmed[player] {
		return fmt.Errorf("%w: selection is confirmed, cancel first", domain.ErrInvalidSelection)
	}
	for i, id := range s.Selections[player] {
		if id == openingID {
			s.Selections[player] = append(s.Selections[player][:i], s.Selections[player][i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: not selected", domain.ErrInvalidSelection)
}

// Confirm marks the player's selection final. Rejected while the required
// count is not met; confirming twice is the same as confirming once.
// Returns true when both players are now confirmed.
func (h *Handler) Confirm(s *domain.Series, player int) (bool, error) {
	if s.Confirmed[player] {
		return s.BothConfirmed(), nil
	}
	required := h.Required(s.Phase)
	if len(s.Selections[player]) != required {
		return false, fmt.Errorf("%w: need %d selections, have %d",
			domain.ErrInvalidSelection, required, len(s.Selections[player]))
	}

	s.Confirmed[player] = true
	return s.BothConfirmed(), nil
}

// Cancel stops the confirm-delay countdown and returns both players to
// editable selection state. Outside the countdown window it is a no-op;
// the bool reports whether anything changed.
func (h *Handler) Cancel(s *domain.Series, player int) bool {
	if !s.CountdownActive {
		return false
	}
	s.ClearConfirmations()
	s.CountdownActive = false
	return true
}

// Autofill tops up every unconfirmed player to the required count with
// uniform-random distinct legal candidates and marks them confirmed. Called
// by the state machine when the phase timer elapses. Returns the seats that
// were filled.
func (h *Handler) Autofill(s *domain.Series, rng Rand) []int {
	required := h.Required(s.Phase)
	var filled []int
	for player := 0; player < 2; player++ {
		if s.Confirmed[player] {
			continue
		}
		candidates := h.Candidates(s, player)
		for len(s.Selections[player]) < required && len(candidates) > 0 {
			i := rng.Intn(len(candidates))
			s.Selections[player] = append(s.Selections[player], candidates[i].ID)
			candidates = append(candidates[:i], candidates[i+1:]...)
		}
		s.Confirmed[player] = true
		filled = append(filled, player)
	}
	return filled
}

// Commit applies both players' selections to the series record.
// Picking appends the picks; Banning flips the banned picks' source.
func (h *Handler) Commit(s *domain.Series) error {
	switch s.Phase {
	case domain.PhasePicking:
		for player := 0; player < 2; player++ {
			for _, id := range s.Selections[player] {
				o, ok := poolOpening(s, player, id)
				if !ok {
					return fmt.Errorf("%w: %s", domain.ErrOpeningNotFound, id)
				}
				s.Openings = append(s.Openings, domain.Opening{
					ID:     o.ID,
					Name:   o.Name,
					FEN:    o.FEN,
					Source: domain.SourcePick,
					Owner:  player,
				})
			}
		}
	case domain.PhaseBanning:
		for player := 0; player < 2; player++ {
			for _, id := range s.Selections[player] {
				if !banPick(s, id) {
					return fmt.Errorf("%w: %s", domain.ErrOpeningNotFound, id)
				}
			}
		}
	default:
		return fmt.Errorf("%w: commit in %s", domain.ErrWrongPhase, s.Phase)
	}

	s.ClearSelections()
	return nil
}

// Candidates returns the openings the player may still select in the
// current phase
func (h *Handler) Candidates(s *domain.Series, player int) []domain.Opening {
	var source []domain.Opening
	switch s.Phase {
	case domain.PhasePicking:
		source = s.Players[player].Pool
	case domain.PhaseBanning:
		// bans target the opponent's committed picks
		for _, o := range s.Openings {
			if o.Source == domain.SourcePick && o.Owner == domain.Opponent(player) {
				source = append(source, o)
			}
		}
	default:
		return nil
	}

	var out []domain.Opening
	for _, o := range source {
		if !containsID(s.Selections[player], o.ID) {
			out = append(out, o)
		}
	}
	return out
}

// OpponentStatus derives the per-player status line from confirmations and
// liveness: ready once the opponent confirmed, disconnected while they are
// stale, waiting otherwise.
func OpponentStatus(s *domain.Series, player int, opponentConnected bool) string {
	opp := domain.Opponent(player)
	switch {
	case s.Confirmed[opp]:
		return event.StatusReady
	case !opponentConnected:
		return event.StatusDisconnected
	default:
		return event.StatusWaiting
	}
}

func poolOpening(s *domain.Series, player int, id uuid.UUID) (domain.Opening, bool) {
	for _, o := range s.Players[player].Pool {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Opening{}, false
}

func banPick(s *domain.Series, id uuid.UUID) bool {
	for i := range s.Openings {
		o := &s.Openings[i]
		if o.ID == id && o.Source == domain.SourcePick {
			o.Source = domain.SourceBan
			return true
		}
	}
	return false
}

func containsOpening(openings []domain.Opening, id uuid.UUID) bool {
	for _, o := range openings {
		if o.ID == id {
			return true
		}
	}
	return false
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
