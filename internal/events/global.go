// ABOUTME: Global event tracker instance for application-wide event tracking
// ABOUTME: Provides centralized access to profile file operation monitoring.
package events

import (
	"sync"

	"github.com/davidsonoda/clenv/internal/config"
)

var (
	globalTracker     *Tracker
	globalTrackerOnce sync.Once
	globalTrackerMu   sync.RWMutex
)

// GlobalTracker returns the global event tracker instance
// Creates and initializes it on first access
func GlobalTracker() *Tracker {
	globalTrackerOnce.Do(func() {
		globalTrackerMu.Lock()
		defer globalTrackerMu.Unlock()
		if globalTracker == nil {
			globalTracker = newDefaultTracker(config.MustClenvHome(), true)
		}
	})

	globalTrackerMu.RLock()
	defer globalTrackerMu.RUnlock()
	return globalTracker
}

// SetGlobalTracker sets a custom global tracker (used by the CLI to honour
// --home-dir and by tests)
func SetGlobalTracker(tracker *Tracker) {
	globalTrackerOnce.Do(func() {})
	globalTrackerMu.Lock()
	defer globalTrackerMu.Unlock()
	globalTracker = tracker
}

// ConfigureGlobalTracker installs a tracker writing to the events log under homeDir
func ConfigureGlobalTracker(homeDir string, enabled bool) {
	SetGlobalTracker(newDefaultTracker(homeDir, enabled))
}

// newDefaultTracker creates a tracker logging to <home>/.clenv/events/operations.log
func newDefaultTracker(homeDir string, enabled bool) *Tracker {
	if !enabled {
		return NewTracker(nil, false)
	}
	writer, err := NewJSONLWriter(config.EventsLogPath(homeDir))
	if err != nil {
		// Without a writer the tracker stays disabled
		return NewTracker(nil, false)
	}
	return NewTracker(writer, enabled)
}
