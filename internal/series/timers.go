package series

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/openduel/internal/domain"
	"github.com/osse101/openduel/internal/logger"
)

// schedule arms the series' deferred action, replacing any previous one.
// Caller holds the series lock.
func (m *Manager) schedule(s *domain.Series, kind domain.TimerKind, d time.Duration) {
	m.cancelTimer(s.ID)

	id, gen := s.ID, s.Generation
	entry := &timerEntry{kind: kind, generation: gen}
	entry.timer = time.AfterFunc(d, func() {
		m.fireTimer(context.Background(), id, kind, gen)
	})

	m.mu.Lock()
	m.timers[id] = entry
	m.mu.Unlock()
}

// cancelTimer disarms the series' deferred action if one is pending
func (m *Manager) cancelTimer(id uuid.UUID) {
	m.mu.Lock()
	entry, ok := m.timers[id]
	if ok {
		delete(m.timers, id)
	}
	m.mu.Unlock()
	if ok {
		entry.timer.Stop()
	}
}

// armedTimer reports the pending deferred action's kind, if any
func (m *Manager) armedTimer(id uuid.UUID) (domain.TimerKind, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.timers[id]
	if !ok {
		return "", false
	}
	return entry.kind, true
}

// fireTimer is the entry point of every timer callback. It takes the series
// lock and drops callbacks whose generation was superseded by a later
// transition.
func (m *Manager) fireTimer(ctx context.Context, id uuid.UUID, kind domain.TimerKind, gen uint64) {
	m.mu.RLock()
	s, ok := m.live[id]
	m.mu.RUnlock()
	if !ok {
		return
	}

	lock := m.locks.GetLock(id)
	lock.Lock()
	defer lock.Unlock()

	if s.Status.Terminal() || s.Generation != gen {
		return
	}

	log := logger.FromContext(ctx)
	log.Debug("timer fired", "series_id", id, "kind", kind, "phase", s.Phase)

	switch kind {
	case domain.TimerPhase:
		m.onPhaseTimeout(ctx, s)
	case domain.TimerCountdown:
		m.onCountdownElapsed(ctx, s)
	case domain.TimerShowcase:
		m.startGame(ctx, s)
	case domain.TimerNoStart:
		m.resolveGame(ctx, s, domain.ResultNoStart, 0)
	}
}

// onPhaseTimeout resolves a phase whose full timer elapsed without both
// players completing it.
func (m *Manager) onPhaseTimeout(ctx context.Context, s *domain.Series) {
	// the phase timer is paused while the countdown runs; a callback that
	// was already in flight when the countdown armed must not act
	if s.CountdownActive {
		return
	}

	switch s.Phase {
	case domain.PhasePicking, domain.PhaseBanning:
		// a disconnect that persists through the whole phase aborts the
		// series; a mere blip does not
		if !m.bothConnected(s) {
			m.abort(ctx, s)
			return
		}
		m.pickban.Autofill(s, m.rng)
		m.commitAndAdvance(ctx, s)

	case domain.PhaseSelecting:
		// the selector ran out of time; the server picks for them
		d := m.resolver.NextSelection(s)
		remaining := s.RemainingOpenings(d.Selector)
		if len(remaining) == 0 {
			remaining = s.RemainingUnion()
		}
		o := remaining[m.rng.Intn(len(remaining))]
		s.NextOpening = &o
		m.showcase(ctx, s, -1)

	case domain.PhaseResting:
		c0 := m.monitor.IsConnected(s.Players[0].UserID)
		c1 := m.monitor.IsConnected(s.Players[1].UserID)
		switch {
		case !c0 && !c1:
			m.abort(ctx, s)
		case !c0:
			winner, forfeit := 1, 0
			m.finish(ctx, s, &winner, &forfeit)
		case !c1:
			winner, forfeit := 0, 1
			m.finish(ctx, s, &winner, &forfeit)
		default:
			// both present but idle; move on without them
			m.enterSelection(ctx, s)
		}
	}
}

// onCountdownElapsed commits the confirmed phase once the cancel window
// closes
func (m *Manager) onCountdownElapsed(ctx context.Context, s *domain.Series) {
	// a cancel applied while this callback waited on the series lock wins:
	// the countdown is no longer active and the phase stays editable
	if !s.CountdownActive {
		return
	}
	s.CountdownActive = false
	switch s.Phase {
	case domain.PhasePicking, domain.PhaseBanning:
		m.commitAndAdvance(ctx, s)
	case domain.PhaseResting:
		m.enterSelection(ctx, s)
	}
}

func (m *Manager) bothConnected(s *domain.Series) bool {
	return m.monitor.IsConnected(s.Players[0].UserID) &&
		m.monitor.IsConnected(s.Players[1].UserID)
}
