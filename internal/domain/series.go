package domain

import (
	"time"

	"github.com/google/uuid"
)

// SeriesStatus represents the lifecycle status of a series.
// The numeric values are the wire codes of the read API.
type SeriesStatus int

const (
	SeriesCreated  SeriesStatus = 10
	SeriesStarted  SeriesStatus = 20
	SeriesFinished SeriesStatus = 30
	SeriesAborted  SeriesStatus = 40
)

// String returns the human-readable status name
func (s SeriesStatus) String() string {
	switch s {
	case SeriesCreated:
		return "created"
	case SeriesStarted:
		return "started"
	case SeriesFinished:
		return "finished"
	case SeriesAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status permits no further transitions
func (s SeriesStatus) Terminal() bool {
	return s == SeriesFinished || s == SeriesAborted
}

// Phase represents the active phase of a started series
type Phase string

const (
	PhasePicking         Phase = "picking"
	PhaseBanning         Phase = "banning"
	PhaseRandomSelecting Phase = "random_selecting"
	PhaseSelecting       Phase = "selecting"
	PhasePlaying         Phase = "playing"
	PhaseResting         Phase = "resting"
	PhaseFinished        Phase = "finished"
)

// GameResult is the terminal result of one game within a series
type GameResult string

const (
	ResultP1Win   GameResult = "p1_win"
	ResultP2Win   GameResult = "p2_win"
	ResultDraw    GameResult = "draw"
	ResultNoStart GameResult = "no_start"
)

// Decisive reports whether the result produced a winner
func (r GameResult) Decisive() bool {
	return r == ResultP1Win || r == ResultP2Win
}

// Color is the chess color a player holds in one game
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
)

// Opposite returns the other color
func (c Color) Opposite() Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// SeriesPlayer is one side of a series. Index (0/1) is fixed at creation.
type SeriesPlayer struct {
	UserID uuid.UUID `json:"user_id"`
	// Pool is the snapshot of the player's opening pool at series creation.
	// Later pool edits never touch it.
	Pool []Opening `json:"pool"`
	// Score is kept in half-points: a win adds 2, a draw adds 1.
	Score      int       `json:"score"`
	Connected  bool      `json:"connected"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// Points returns the score in chess points
func (p SeriesPlayer) Points() float64 {
	return float64(p.Score) / 2
}

// SeriesGame is one completed game of a series
type SeriesGame struct {
	GameID  uuid.UUID  `json:"game_id"`
	Index   int        `json:"index"`
	Opening string     `json:"opening"`
	FEN     string     `json:"fen"`
	Result  GameResult `json:"result"`
	Plies   int        `json:"plies"`
	// P1Color is the color player index 0 held in this game
	P1Color Color `json:"p1_color"`
}

// TimerKind identifies the deferred action armed for a phase
type TimerKind string

const (
	TimerPhase     TimerKind = "phase"
	TimerCountdown TimerKind = "countdown"
	TimerShowcase  TimerKind = "showcase"
	TimerNoStart   TimerKind = "no_start"
)

// Series is the root aggregate of one best-of-N opening duel.
//
// All mutation happens under the single writer lock held by the state
// machine; fields are exported for snapshots and persistence only.
type Series struct {
	ID      uuid.UUID       `json:"id"`
	Players [2]SeriesPlayer `json:"players"`
	Status  SeriesStatus    `json:"status"`
	Phase   Phase           `json:"phase"`
	// Openings is the committed pick/ban record. Empty until the picking
	// phase commits.
	Openings []Opening    `json:"openings"`
	Games    []SeriesGame `json:"games"`

	Winner    *int `json:"winner"`
	ForfeitBy *int `json:"forfeit_by"`

	// Generation increments on every phase transition. A timer callback
	// carrying a stale generation is a no-op.
	Generation    uint64     `json:"-"`
	PhaseDeadline *time.Time `json:"phase_deadline,omitempty"`

	// Confirmed tracks which players confirmed the current phase's selection
	Confirmed [2]bool `json:"-"`
	// Selections holds each player's uncommitted selections for the current
	// pick/ban phase.
	Selections [2][]uuid.UUID `json:"-"`
	// CountdownActive is true while the confirm-delay countdown is armed
	CountdownActive bool `json:"-"`
	// PhaseRemaining is the unexpired part of the phase timer, captured when
	// the countdown is armed so a cancel re-arms from the remaining time.
	PhaseRemaining time.Duration `json:"-"`
	// NextOpening is the opening chosen for the upcoming game, set during
	// RandomSelecting/Selecting and consumed when Playing starts.
	NextOpening *Opening `json:"-"`
	// CurrentGameID is set while a game is in flight
	CurrentGameID uuid.UUID `json:"-"`
	// CurrentGamePlies counts the plies reported so far for the in-flight game
	CurrentGamePlies int `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Opponent returns the other player's index
func Opponent(player int) int {
	return 1 - player
}

// ValidPlayerIndex reports whether idx addresses a series seat
func ValidPlayerIndex(idx int) bool {
	return idx == 0 || idx == 1
}

// ClearConfirmations resets per-phase confirmation state.
// Called on every phase transition and on explicit cancel.
func (s *Series) ClearConfirmations() {
	s.Confirmed[0] = false
	s.Confirmed[1] = false
}

// ClearSelections drops both players' uncommitted selections
func (s *Series) ClearSelections() {
	s.Selections[0] = nil
	s.Selections[1] = nil
}

// BothConfirmed reports whether both players confirmed the current phase
func (s *Series) BothConfirmed() bool {
	return s.Confirmed[0] && s.Confirmed[1]
}

// RemainingOpenings returns the committed picks owned by player that were
// neither banned by the opponent nor already used in an earlier round.
func (s *Series) RemainingOpenings(player int) []Opening {
	var out []Opening
	for _, o := range s.Openings {
		if o.Source == SourcePick && o.Owner == player && o.UsedInRound == nil {
			out = append(out, o)
		}
	}
	return out
}

// RemainingUnion returns the un-used committed picks of both players
func (s *Series) RemainingUnion() []Opening {
	return append(s.RemainingOpenings(0), s.RemainingOpenings(1)...)
}

// MarkOpeningUsed records that the identified pick was consumed by the given
// round. Returns false when no such un-used pick exists.
func (s *Series) MarkOpeningUsed(id uuid.UUID, round int) bool {
	for i := range s.Openings {
		o := &s.Openings[i]
		if o.ID == id && o.Source == SourcePick && o.UsedInRound == nil {
			r := round
			o.UsedInRound = &r
			return true
		}
	}
	return false
}

// ScoreLead returns the leader index and the lead in half-points.
// A tied score returns (-1, 0).
func (s *Series) ScoreLead() (leader, lead int) {
	switch {
	case s.Players[0].Score > s.Players[1].Score:
		return 0, s.Players[0].Score - s.Players[1].Score
	case s.Players[1].Score > s.Players[0].Score:
		return 1, s.Players[1].Score - s.Players[0].Score
	default:
		return -1, 0
	}
}

// GameColors returns the color player 0 holds for the given game index.
// Colors alternate every game; player 0 opens with white.
func GameColors(gameIndex int) Color {
	if gameIndex%2 == 0 {
		return ColorWhite
	}
	return ColorBlack
}
