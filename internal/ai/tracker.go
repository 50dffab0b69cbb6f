package ai

import "sync"

// Tracker caches a per-provider availability flag. Flags start available,
// flip down on any failed call or probe, and flip back up only after a
// fresh success. The flag is advisory: a stale read at worst costs one
// wasted or skipped call, which self-corrects on the next probe.
type Tracker struct {
	mu   sync.RWMutex
	down map[ServiceName]bool
}

func NewTracker() *Tracker {
	return &Tracker{down: make(map[ServiceName]bool)}
}

// IsAvailable returns the cached flag without any network round trip.
func (t *Tracker) IsAvailable(provider ServiceName) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return !t.down[provider]
}

func (t *Tracker) MarkDown(provider ServiceName) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.down[provider] = true
}

func (t *Tracker) MarkUp(provider ServiceName) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.down, provider)
}

// Snapshot returns the availability of every tracked provider name given.
func (t *Tracker) Snapshot(providers ...ServiceName) map[ServiceName]bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[ServiceName]bool, len(providers))
	for _, p := range providers {
		out[p] = !t.down[p]
	}
	return out
}
