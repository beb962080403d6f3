package api

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// ThrottledBroker wraps an EventBroker and caps how often intermediate
// "step" events reach subscribers for a given run. A construction run
// can emit one event per assignment — hundreds per second on a large
// instance — so bursts beyond the limit are coalesced down to the
// latest event rather than queued; a stream client only ever needs the
// freshest state, not every intermediate one. "done" events always pass
// straight through so a client never misses the terminal outcome.
type ThrottledBroker struct {
	next  EventBroker
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	pending  map[string]*TraceEvent
}

func NewThrottledBroker(next EventBroker, eventsPerSecond float64, burst int) *ThrottledBroker {
	return &ThrottledBroker{
		next:     next,
		limit:    rate.Limit(eventsPerSecond),
		burst:    burst,
		limiters: map[string]*rate.Limiter{},
		pending:  map[string]*TraceEvent{},
	}
}

func (b *ThrottledBroker) Subscribe(runID string) chan TraceEvent {
	return b.next.Subscribe(runID)
}

func (b *ThrottledBroker) Unsubscribe(runID string, ch chan TraceEvent) {
	b.next.Unsubscribe(runID, ch)
	b.mu.Lock()
	delete(b.limiters, runID)
	delete(b.pending, runID)
	b.mu.Unlock()
}

func (b *ThrottledBroker) Publish(runID string, evt TraceEvent) {
	if evt.Type == "done" {
		b.next.Publish(runID, evt)
		return
	}

	b.mu.Lock()
	lim, ok := b.limiters[runID]
	if !ok {
		lim = rate.NewLimiter(b.limit, b.burst)
		b.limiters[runID] = lim
	}
	if lim.Allow() {
		b.mu.Unlock()
		b.next.Publish(runID, evt)
		return
	}

	_, alreadyPending := b.pending[runID]
	e := evt
	b.pending[runID] = &e
	b.mu.Unlock()

	if !alreadyPending {
		go b.flushWhenReady(runID, lim)
	}
}

func (b *ThrottledBroker) flushWhenReady(runID string, lim *rate.Limiter) {
	_ = lim.Wait(context.Background())
	b.mu.Lock()
	evt := b.pending[runID]
	delete(b.pending, runID)
	b.mu.Unlock()
	if evt != nil {
		b.next.Publish(runID, *evt)
	}
}
