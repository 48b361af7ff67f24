package deploy

import (
	"sync"

	"github.com/kaya95/Autodrop-SaaS-platform/pkg/api"
)

// StatusTracker is the process-scoped table of deployment statuses, owned
// by the orchestrator and exposed only through these operations. Statuses
// are transient: a process restart loses all in-flight and last-known
// state.
type StatusTracker struct {
	mu       sync.RWMutex
	statuses map[string]api.StatusRecord
}

// NewStatusTracker creates an empty status tracker
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		statuses: make(map[string]api.StatusRecord),
	}
}

// set records the status of an application
func (t *StatusTracker) set(appID string, status api.StatusRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses[appID] = status
}

// Get returns the status of an application
func (t *StatusTracker) Get(appID string) (api.StatusRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	status, ok := t.statuses[appID]
	return status, ok
}

// Remove drops the status entry of an application
func (t *StatusTracker) Remove(appID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.statuses[appID]
	delete(t.statuses, appID)
	return ok
}

// Snapshot returns a copy of the whole status table
func (t *StatusTracker) Snapshot() map[string]api.StatusRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := make(map[string]api.StatusRecord, len(t.statuses))
	for appID, status := range t.statuses {
		snap[appID] = status
	}
	return snap
}
