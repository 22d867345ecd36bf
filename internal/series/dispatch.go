package series

import (
	"context"
	"fmt"

	"github.com/osse101/openduel/internal/domain"
	"github.com/osse101/openduel/internal/event"
	"github.com/osse101/openduel/internal/logger"
	"github.com/osse101/openduel/internal/metrics"
)

// Dispatch applies one client command under the series lock. Player-input
// errors are returned for synchronous reporting; ErrStaleCommand means the
// command lost a race against a timer transition and the caller should drop
// it silently.
func (m *Manager) Dispatch(ctx context.Context, cmd domain.Command) error {
	if !domain.ValidPlayerIndex(cmd.Player) {
		return fmt.Errorf("%w: player index %d", domain.ErrInvalidInput, cmd.Player)
	}

	m.mu.RLock()
	s, ok := m.live[cmd.SeriesID]
	m.mu.RUnlock()
	if !ok {
		return domain.ErrSeriesNotFound
	}

	lock := m.locks.GetLock(cmd.SeriesID)
	lock.Lock()
	defer lock.Unlock()

	if s.Status.Terminal() {
		metrics.CommandsRejected.WithLabelValues(string(cmd.Type), "series_over").Inc()
		return fmt.Errorf("%w: series is %s", domain.ErrSeriesOver, s.Status)
	}
	if cmd.Generation != 0 && cmd.Generation != s.Generation {
		metrics.CommandsRejected.WithLabelValues(string(cmd.Type), "stale").Inc()
		return domain.ErrStaleCommand
	}
	if !cmd.Type.AppliesTo(s.Phase) {
		metrics.CommandsRejected.WithLabelValues(string(cmd.Type), "wrong_phase").Inc()
		return fmt.Errorf("%w: %s during %s", domain.ErrWrongPhase, cmd.Type, s.Phase)
	}

	logger.FromContext(ctx).Debug("command accepted",
		"series_id", s.ID,
		"type", cmd.Type,
		"player", cmd.Player,
		"phase", s.Phase)

	if err := m.apply(ctx, s, cmd); err != nil {
		metrics.CommandsRejected.WithLabelValues(string(cmd.Type), "invalid").Inc()
		return err
	}
	metrics.CommandsApplied.WithLabelValues(string(cmd.Type)).Inc()
	return nil
}

func (m *Manager) apply(ctx context.Context, s *domain.Series, cmd domain.Command) error {
	switch cmd.Type {
	case domain.CmdSelectOpening:
		return m.pickban.Select(s, cmd.Player, cmd.OpeningID)
	case domain.CmdDeselectOpening:
		return m.pickban.Deselect(s, cmd.Player, cmd.OpeningID)
	case domain.CmdConfirmPick, domain.CmdConfirmBan:
		return m.handleConfirm(ctx, s, cmd.Player)
	case domain.CmdCancelConfirm:
		m.handleCancelConfirm(ctx, s, cmd.Player)
		return nil
	case domain.CmdSelectNextOpening:
		return m.handleSelectNextOpening(ctx, s, cmd)
	case domain.CmdConfirmNextGame:
		m.handleConfirmNextGame(ctx, s, cmd.Player)
		return nil
	case domain.CmdCancelNextGame:
		m.handleCancelConfirm(ctx, s, cmd.Player)
		return nil
	case domain.CmdForfeitSeries:
		m.handleForfeit(ctx, s, cmd.Player)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", domain.ErrInvalidInput, cmd.Type)
	}
}

func (m *Manager) handleConfirm(ctx context.Context, s *domain.Series, player int) error {
	both, err := m.pickban.Confirm(s, player)
	if err != nil {
		return err
	}
	m.notifyStatus(ctx, s, domain.Opponent(player))

	if both && !s.CountdownActive {
		m.beginCountdown(ctx, s, m.countdownTarget(s))
	}
	return nil
}

func (m *Manager) handleCancelConfirm(ctx context.Context, s *domain.Series, player int) {
	// outside the countdown window cancel is a no-op
	if !m.pickban.Cancel(s, player) {
		return
	}
	m.cancelCountdown(ctx, s, player)
}

func (m *Manager) handleSelectNextOpening(ctx context.Context, s *domain.Series, cmd domain.Command) error {
	d := m.resolver.NextSelection(s)
	if cmd.Player != d.Selector {
		return fmt.Errorf("%w: opening choice belongs to seat %d", domain.ErrNotYourTurn, d.Selector)
	}

	for _, o := range s.RemainingOpenings(cmd.Player) {
		if o.ID == cmd.OpeningID {
			chosen := o
			s.NextOpening = &chosen
			m.showcase(ctx, s, cmd.Player)
			return nil
		}
	}
	return fmt.Errorf("%w: %s is not in your remaining pool", domain.ErrInvalidSelection, cmd.OpeningID)
}

func (m *Manager) handleConfirmNextGame(ctx context.Context, s *domain.Series, player int) {
	if s.Confirmed[player] {
		return
	}
	s.Confirmed[player] = true
	m.notifyStatus(ctx, s, domain.Opponent(player))

	if s.BothConfirmed() && !s.CountdownActive {
		m.beginCountdown(ctx, s, m.countdownTarget(s))
	}
}

// handleForfeit ends the series in the opponent's favor. A game with moves
// on the board is recorded as a resignation loss; an unmoved game is simply
// abandoned.
func (m *Manager) handleForfeit(ctx context.Context, s *domain.Series, player int) {
	winner := domain.Opponent(player)
	forfeit := player

	if s.Phase == domain.PhasePlaying && s.CurrentGamePlies > 0 {
		result := domain.ResultP1Win
		if winner == 1 {
			result = domain.ResultP2Win
		}
		m.cancelTimer(s.ID)
		if _, err := m.resolver.Resolve(s, result, s.CurrentGamePlies); err != nil {
			logger.FromContext(ctx).Error("failed to record resignation",
				"series_id", s.ID, "error", err)
		} else {
			game := s.Games[len(s.Games)-1]
			m.publish(ctx, event.New(event.SeriesScoreUpdated, event.ScoreUpdatedPayloadV1{
				SeriesID: s.ID.String(),
				Scores:   [2]float64{s.Players[0].Points(), s.Players[1].Points()},
				Result:   string(result),
				Game:     game.Index,
			}))
		}
	}

	m.finish(ctx, s, &winner, &forfeit)
}

// countdownTarget names the phase the running countdown leads to
func (m *Manager) countdownTarget(s *domain.Series) domain.Phase {
	switch s.Phase {
	case domain.PhasePicking:
		return domain.PhaseBanning
	case domain.PhaseBanning:
		return domain.PhaseRandomSelecting
	case domain.PhaseResting:
		return m.resolver.NextSelection(s).NextPhase
	default:
		return s.Phase
	}
}
