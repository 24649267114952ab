package series

import (
	"strings"
	"sync"
)

// seriesLocks hands out an exclusive advisory lock per series name. Two
// concurrent reconciliations of the same series would race on volume
// creation and deduplication, so the reconciler must hold this lock for the
// duration of a pass. Lock names are case-insensitive, matching the series
// natural key.
type seriesLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// The registry is process-global rather than per Service: the server
// handlers and the worker each construct their own Service over the shared
// DB, and a lock held by one must be visible to the other.
var locks = &seriesLocks{held: map[string]struct{}{}}

// TryLockSeries acquires the advisory lock for a series name. It never
// blocks: when the lock is already held, it reports false and the caller
// surfaces a storage conflict, leaving the retry decision to its caller.
func (svc *Service) TryLockSeries(name string) bool {
	key := strings.ToLower(strings.TrimSpace(name))

	locks.mu.Lock()
	defer locks.mu.Unlock()

	if _, taken := locks.held[key]; taken {
		return false
	}
	locks.held[key] = struct{}{}
	return true
}

// UnlockSeries releases the advisory lock for a series name.
func (svc *Service) UnlockSeries(name string) {
	key := strings.ToLower(strings.TrimSpace(name))

	locks.mu.Lock()
	defer locks.mu.Unlock()

	delete(locks.held, key)
}
