package series

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/openduel/internal/domain"
	"github.com/osse101/openduel/internal/event"
	"github.com/osse101/openduel/internal/logger"
	"github.com/osse101/openduel/internal/pickban"
)

// enterPhase moves the series into a timed phase. Every transition bumps the
// generation so callbacks armed for the previous phase die stale.
func (m *Manager) enterPhase(ctx context.Context, s *domain.Series, phase domain.Phase, timeout time.Duration) {
	s.Phase = phase
	s.Generation++
	s.ClearConfirmations()
	s.ClearSelections()
	s.CountdownActive = false
	deadline := m.clk.Now().Add(timeout)
	s.PhaseDeadline = &deadline
	s.UpdatedAt = m.clk.Now()

	m.schedule(s, domain.TimerPhase, timeout)
	m.publish(ctx, event.New(event.SeriesPhaseChanged, event.PhaseChangedPayloadV1{
		SeriesID: s.ID.String(),
		Phase:    string(phase),
		Deadline: deadline.Unix(),
	}))
}

// beginCountdown pauses the phase timer and arms the short cancelable
// countdown after the last confirm arrives. The unexpired phase time is kept
// so a cancel resumes rather than restarts the phase.
func (m *Manager) beginCountdown(ctx context.Context, s *domain.Series, target domain.Phase) {
	if s.PhaseDeadline != nil {
		s.PhaseRemaining = m.clk.Until(*s.PhaseDeadline)
	}
	s.CountdownActive = true
	m.schedule(s, domain.TimerCountdown, m.cfg.ConfirmCountdown)

	m.publish(ctx, event.New(event.SeriesCountdownStarted, event.CountdownStartedPayloadV1{
		SeriesID:    s.ID.String(),
		TargetPhase: string(target),
		Seconds:     m.cfg.ConfirmCountdown.Seconds(),
	}))
}

// cancelCountdown stops the countdown and re-arms the phase timer from the
// remaining time captured when the countdown began.
func (m *Manager) cancelCountdown(ctx context.Context, s *domain.Series, cancelledBy int) {
	remaining := s.PhaseRemaining
	if remaining <= 0 {
		remaining = m.cfg.ConfirmCountdown
	}
	deadline := m.clk.Now().Add(remaining)
	s.PhaseDeadline = &deadline
	m.schedule(s, domain.TimerPhase, remaining)

	m.publish(ctx, event.New(event.SeriesCountdownCancelled, event.CountdownCancelledPayloadV1{
		SeriesID:    s.ID.String(),
		CancelledBy: cancelledBy,
	}))
	m.notifyStatus(ctx, s, 0)
	m.notifyStatus(ctx, s, 1)
}

// commitAndAdvance commits the current pick/ban selections and enters the
// next phase: picking leads to banning, banning to the first game's random
// opening draw.
func (m *Manager) commitAndAdvance(ctx context.Context, s *domain.Series) {
	log := logger.FromContext(ctx)
	if err := m.pickban.Commit(s); err != nil {
		// selections referenced state that no longer exists; the phase
		// restarts from a clean slate instead of corrupting the record
		log.Error("phase commit failed", "series_id", s.ID, "phase", s.Phase, "error", err)
		m.enterPhase(ctx, s, s.Phase, m.cfg.PhaseTimeout)
		return
	}

	switch s.Phase {
	case domain.PhasePicking:
		m.enterPhase(ctx, s, domain.PhaseBanning, m.cfg.PhaseTimeout)
	case domain.PhaseBanning:
		m.enterSelection(ctx, s)
	}
}

// enterSelection opens the next game's opening choice: a random draw from
// the combined remaining pool, or the previous loser's own choice.
func (m *Manager) enterSelection(ctx context.Context, s *domain.Series) {
	d := m.resolver.NextSelection(s)
	if d.Selector >= 0 {
		m.enterPhase(ctx, s, domain.PhaseSelecting, m.cfg.PhaseTimeout)
		return
	}

	s.Phase = domain.PhaseRandomSelecting
	s.Generation++
	s.ClearConfirmations()
	s.ClearSelections()
	s.UpdatedAt = m.clk.Now()
	m.publish(ctx, event.New(event.SeriesPhaseChanged, event.PhaseChangedPayloadV1{
		SeriesID: s.ID.String(),
		Phase:    string(domain.PhaseRandomSelecting),
	}))

	union := s.RemainingUnion()
	o := union[m.rng.Intn(len(union))]
	s.NextOpening = &o
	m.showcase(ctx, s, -1)
}

// showcase announces the chosen opening and arms the short display interval
// before the game goes live
func (m *Manager) showcase(ctx context.Context, s *domain.Series, chosenBy int) {
	s.Generation++
	deadline := m.clk.Now().Add(m.cfg.ShowcaseDelay)
	s.PhaseDeadline = &deadline
	s.UpdatedAt = m.clk.Now()

	m.schedule(s, domain.TimerShowcase, m.cfg.ShowcaseDelay)
	m.publish(ctx, event.New(event.SeriesOpeningShowcase, event.OpeningShowcasePayloadV1{
		SeriesID: s.ID.String(),
		Opening:  s.NextOpening.Name,
		FEN:      s.NextOpening.FEN,
		ChosenBy: chosenBy,
	}))
}

// startGame moves the series into Playing and hands the position to the game
// component. The first-move grace window is armed; a game that never starts
// resolves as NoStart.
func (m *Manager) startGame(ctx context.Context, s *domain.Series) {
	log := logger.FromContext(ctx)

	index := len(s.Games)
	s.Phase = domain.PhasePlaying
	s.Generation++
	s.CurrentGameID = uuid.New()
	s.CurrentGamePlies = 0
	deadline := m.clk.Now().Add(m.cfg.NoStartGrace)
	s.PhaseDeadline = &deadline
	s.UpdatedAt = m.clk.Now()

	white, black := s.Players[0].UserID, s.Players[1].UserID
	if domain.GameColors(index) == domain.ColorBlack {
		white, black = black, white
	}

	if err := m.starter.StartGame(ctx, s.ID, s.CurrentGameID, s.NextOpening.FEN, white, black); err != nil {
		// the grace window will resolve the unstarted game as NoStart
		log.Error("failed to start game", "series_id", s.ID, "game_id", s.CurrentGameID, "error", err)
	}

	m.schedule(s, domain.TimerNoStart, m.cfg.NoStartGrace)
	m.publish(ctx, event.New(event.SeriesPhaseChanged, event.PhaseChangedPayloadV1{
		SeriesID: s.ID.String(),
		Phase:    string(domain.PhasePlaying),
	}))
	m.publish(ctx, event.New(event.SeriesGameStarted, event.GameStartedPayloadV1{
		SeriesID: s.ID.String(),
		GameID:   s.CurrentGameID.String(),
		Index:    index,
		FEN:      s.NextOpening.FEN,
	}))
}

// ReportGameProgress records ply progress from the game component. The first
// reported move supersedes the no-start grace window.
func (m *Manager) ReportGameProgress(ctx context.Context, seriesID, gameID uuid.UUID, plies int) error {
	m.mu.RLock()
	s, ok := m.live[seriesID]
	m.mu.RUnlock()
	if !ok {
		return domain.ErrSeriesNotFound
	}

	lock := m.locks.GetLock(seriesID)
	lock.Lock()
	defer lock.Unlock()

	if s.Phase != domain.PhasePlaying || s.CurrentGameID != gameID {
		return domain.ErrStaleCommand
	}
	if plies <= s.CurrentGamePlies {
		return nil
	}

	first := s.CurrentGamePlies == 0
	s.CurrentGamePlies = plies
	if first {
		if kind, ok := m.armedTimer(seriesID); ok && kind == domain.TimerNoStart {
			m.cancelTimer(seriesID)
			s.PhaseDeadline = nil
		}
	}
	return nil
}

// ReportGameResult is the terminal callback from the game component
func (m *Manager) ReportGameResult(ctx context.Context, seriesID, gameID uuid.UUID, result domain.GameResult, plies int) error {
	m.mu.RLock()
	s, ok := m.live[seriesID]
	m.mu.RUnlock()
	if !ok {
		return domain.ErrSeriesNotFound
	}

	lock := m.locks.GetLock(seriesID)
	lock.Lock()
	defer lock.Unlock()

	if s.Status.Terminal() {
		return fmt.Errorf("%w: series is %s", domain.ErrSeriesOver, s.Status)
	}
	if s.Phase != domain.PhasePlaying || s.CurrentGameID != gameID {
		return domain.ErrStaleCommand
	}

	m.resolveGame(ctx, s, result, plies)
	return nil
}

// resolveGame applies a game result and moves the series on: to the rest
// period, or straight to its end when the score threshold or pool
// exhaustion is reached. Caller holds the series lock.
func (m *Manager) resolveGame(ctx context.Context, s *domain.Series, result domain.GameResult, plies int) {
	log := logger.FromContext(ctx)
	m.cancelTimer(s.ID)

	d, err := m.resolver.Resolve(s, result, plies)
	if err != nil {
		log.Error("failed to resolve game", "series_id", s.ID, "error", err)
		return
	}

	game := s.Games[len(s.Games)-1]
	m.publish(ctx, event.New(event.SeriesScoreUpdated, event.ScoreUpdatedPayloadV1{
		SeriesID: s.ID.String(),
		Scores:   [2]float64{s.Players[0].Points(), s.Players[1].Points()},
		Result:   string(result),
		Game:     game.Index,
	}))

	if d.Finished {
		m.finish(ctx, s, d.Winner, nil)
		return
	}
	m.enterPhase(ctx, s, domain.PhaseResting, m.cfg.RestTimeout)
}

// notifyStatus emits the readiness line addressed to one seat, derived from
// the opponent's confirmation and liveness
func (m *Manager) notifyStatus(ctx context.Context, s *domain.Series, player int) {
	opp := domain.Opponent(player)
	connected := m.monitor.IsConnected(s.Players[opp].UserID)
	m.publish(ctx, event.New(event.SeriesOpponentStatus, event.OpponentStatusPayloadV1{
		SeriesID: s.ID.String(),
		Player:   player,
		Status:   pickban.OpponentStatus(s, player, connected),
	}))
}
