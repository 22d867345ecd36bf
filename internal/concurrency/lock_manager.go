package concurrency

import (
	"sync"

	"github.com/google/uuid"
)

// LockManager hands out one mutex per series id. Every command and timer
// callback touching a series runs under its lock, keeping phase transitions
// linear; distinct series proceed fully in parallel.
type LockManager struct {
	locks sync.Map
}

// NewLockManager creates a new LockManager
func NewLockManager() *LockManager {
	return &LockManager{}
}

// GetLock returns the mutex for the given series id
func (lm *LockManager) GetLock(id uuid.UUID) *sync.Mutex {
	lock, _ := lm.locks.LoadOrStore(id, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Release drops the mutex for a series that reached a terminal status.
// Safe to call while no one holds the lock; archived series are read-only.
func (lm *LockManager) Release(id uuid.UUID) {
	lm.locks.Delete(id)
}
