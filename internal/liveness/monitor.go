package liveness

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/osse101/openduel/internal/clock"
)

// Monitor tracks per-player liveness from periodic presence pings sent by
// the transport layer. Liveness is a value consulted by transition logic,
// never an interrupt: a disconnect on its own forces nothing, only a phase
// timer that fires while a player is still stale acts on it.
type Monitor struct {
	clock     clock.Clock
	threshold time.Duration

	mu       sync.RWMutex
	lastSeen map[uuid.UUID]time.Time
}

// NewMonitor creates a Monitor that considers a player disconnected once no
// ping arrived for threshold
func NewMonitor(clk clock.Clock, threshold time.Duration) *Monitor {
	return &Monitor{
		clock:     clk,
		threshold: threshold,
		lastSeen:  make(map[uuid.UUID]time.Time),
	}
}

// Ping records a presence signal for the user. A ping from a player that
// went stale clears the disconnected state; it rewinds no armed timer.
func (m *Monitor) Ping(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSeen[userID] = m.clock.Now()
}

// IsConnected reports whether the user pinged within the threshold.
// A user that never pinged is not connected.
func (m *Monitor) IsConnected(userID uuid.UUID) bool {
	m.mu.RLock()
	last, ok := m.lastSeen[userID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return m.clock.Since(last) <= m.threshold
}

// LastSeen returns the time of the user's latest ping
func (m *Monitor) LastSeen(userID uuid.UUID) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	last, ok := m.lastSeen[userID]
	return last, ok
}

// Forget drops a user's liveness record, e.g. when their series is archived
func (m *Monitor) Forget(userID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lastSeen, userID)
}
