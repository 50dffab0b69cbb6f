package ai

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerStartsAvailable(t *testing.T) {
	tracker := NewTracker()

	assert.True(t, tracker.IsAvailable(ServiceOpenAI))
	assert.True(t, tracker.IsAvailable(ServiceGemini))
}

func TestTrackerTransitions(t *testing.T) {
	tracker := NewTracker()

	tracker.MarkDown(ServiceOpenAI)
	assert.False(t, tracker.IsAvailable(ServiceOpenAI))
	assert.True(t, tracker.IsAvailable(ServiceGemini), "flags are independent")

	tracker.MarkUp(ServiceOpenAI)
	assert.True(t, tracker.IsAvailable(ServiceOpenAI))
}

func TestTrackerSnapshot(t *testing.T) {
	tracker := NewTracker()
	tracker.MarkDown(ServiceGemini)

	snapshot := tracker.Snapshot(ServiceOpenAI, ServiceGemini)

	assert.True(t, snapshot[ServiceOpenAI])
	assert.False(t, snapshot[ServiceGemini])
}

func TestTrackerConcurrentWritesAreSafe(t *testing.T) {
	tracker := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tracker.MarkDown(ServiceOpenAI)
		}()
		go func() {
			defer wg.Done()
			tracker.MarkUp(ServiceOpenAI)
			tracker.IsAvailable(ServiceOpenAI)
		}()
	}
	wg.Wait()
}
