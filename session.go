package hop

import "sync"

// sessionManager is a reserved hook: per spec.md §9 the source tracks
// connection sessions but no command reads or writes through it yet. It
// exists so SessionsActiveMax has somewhere to be enforced once a session
// lifecycle command set is defined, and so the Stats response can report
// sessions_started/sessions_ended without every connection loop needing
// its own bookkeeping.
type sessionManager struct {
	mu     sync.Mutex
	active map[uint64]struct{}
	nextID uint64
}

func newSessionManager() *sessionManager {
	return &sessionManager{active: make(map[uint64]struct{})}
}

// begin registers a new session and reports its id; end unregisters it.
// Nothing calls either one: cmd/hopd's per-connection loop does no session
// bookkeeping.
func (sm *sessionManager) begin(metrics *Metrics) uint64 {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	id := sm.nextID
	sm.nextID++
	sm.active[id] = struct{}{}
	metrics.incr(MetricSessionsStarted)
	return id
}

func (sm *sessionManager) end(id uint64, metrics *Metrics) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.active, id)
	metrics.incr(MetricSessionsEnded)
}

// count returns the number of sessions currently registered as active.
func (sm *sessionManager) count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.active)
}
