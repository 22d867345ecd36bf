package domain

import "github.com/google/uuid"

// CommandType tags an inbound client command. Commands form a closed variant
// set keyed by phase applicability; the state machine rejects a command whose
// tag does not match the series' current phase.
type CommandType string

const (
	CmdSelectOpening     CommandType = "selectOpening"
	CmdDeselectOpening   CommandType = "deselectOpening"
	CmdConfirmPick       CommandType = "confirmPick"
	CmdConfirmBan        CommandType = "confirmBan"
	CmdCancelConfirm     CommandType = "cancelConfirm"
	CmdSelectNextOpening CommandType = "selectNextOpening"
	CmdConfirmNextGame   CommandType = "confirmNextGame"
	CmdCancelNextGame    CommandType = "cancelNextGame"
	CmdForfeitSeries     CommandType = "forfeitSeries"
	CmdOfferRematch      CommandType = "offerRematch"
	CmdAcceptRematch     CommandType = "acceptRematch"
)

// Command is one inbound client command addressed to a series
type Command struct {
	Type     CommandType `json:"type"`
	SeriesID uuid.UUID   `json:"series_id"`
	// Player is the issuing seat index, resolved from the authenticated
	// connection, never trusted from the payload.
	Player int `json:"player"`
	// OpeningID addresses a pool entry or committed pick for the selection
	// commands; ignored by the others.
	OpeningID uuid.UUID `json:"opening_id,omitempty"`
	// Generation optionally pins the command to the phase generation the
	// client observed. A non-zero mismatch marks the command stale.
	Generation uint64 `json:"generation,omitempty"`
}

// AllowedPhases returns the phases in which the command type applies.
// A nil slice means the command is phase-independent.
func (t CommandType) AllowedPhases() []Phase {
	switch t {
	case CmdSelectOpening, CmdDeselectOpening:
		return []Phase{PhasePicking, PhaseBanning}
	case CmdConfirmPick:
		return []Phase{PhasePicking}
	case CmdConfirmBan:
		return []Phase{PhaseBanning}
	case CmdCancelConfirm:
		return []Phase{PhasePicking, PhaseBanning}
	case CmdSelectNextOpening:
		return []Phase{PhaseSelecting}
	case CmdConfirmNextGame, CmdCancelNextGame:
		return []Phase{PhaseResting}
	case CmdForfeitSeries:
		return []Phase{PhasePlaying, PhaseResting}
	default:
		return nil
	}
}

// AppliesTo reports whether the command type is legal in the given phase
func (t CommandType) AppliesTo(phase Phase) bool {
	allowed := t.AllowedPhases()
	if allowed == nil {
		return true
	}
	for _, p := range allowed {
		if p == phase {
			return true
		}
	}
	return false
}
