package domain

import (
	"time"

	"github.com/google/uuid"
)

// OpeningSource distinguishes committed picks from bans in the series record
type OpeningSource string

const (
	SourcePick OpeningSource = "pick"
	SourceBan  OpeningSource = "ban"
)

// Opening is an entry in a player's pool or in a series' pick/ban record.
// Owner is always the index of the player whose pool the opening came from,
// also for bans: a ban keeps pointing at the pool it removed a pick from.
type Opening struct {
	ID     uuid.UUID     `json:"id"`
	Name   string        `json:"name"`
	FEN    string        `json:"fen"`
	Source OpeningSource `json:"source,omitempty"`
	Owner  int           `json:"owner"`
	// UsedInRound is the game index that consumed this pick, nil until then
	UsedInRound *int `json:"used_in_round,omitempty"`
}

// PoolOpening is a row of a player's stored opening pool
type PoolOpening struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	FEN       string    `json:"fen"`
	Color     Color     `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// OpeningStats aggregates historical results for one opening and color
type OpeningStats struct {
	Name   string `json:"name"`
	Color  Color  `json:"color"`
	Wins   int    `json:"wins"`
	Draws  int    `json:"draws"`
	Losses int    `json:"losses"`
}

// Games returns the total number of recorded games
func (st OpeningStats) Games() int {
	return st.Wins + st.Draws + st.Losses
}

// WinRate returns the scoring rate for the opening's side, draws counted as
// half. Returns 0.5 when no games are recorded.
func (st OpeningStats) WinRate() float64 {
	n := st.Games()
	if n == 0 {
		return 0.5
	}
	return (float64(st.Wins) + float64(st.Draws)/2) / float64(n)
}
