package triage

import "sync"

// RunLocks serializes triage runs per ticket so a manually triggered run
// and a queued run for the same ticket cannot interleave. Lock entries are
// reference-counted and removed once the last holder releases.
type RunLocks struct {
	mu    sync.Mutex
	locks map[string]*ticketLock
}

type ticketLock struct {
	mu   sync.Mutex
	refs int
}

// NewRunLocks constructs an empty arena.
func NewRunLocks() *RunLocks {
	return &RunLocks{locks: make(map[string]*ticketLock)}
}

// Acquire blocks until the caller holds the lock for ticketID and returns
// the release function.
func (r *RunLocks) Acquire(ticketID string) func() {
	r.mu.Lock()
	entry, ok := r.locks[ticketID]
	if !ok {
		entry = &ticketLock{}
		r.locks[ticketID] = entry
	}
	entry.refs++
	r.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		r.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(r.locks, ticketID)
		}
		r.mu.Unlock()
	}
}
