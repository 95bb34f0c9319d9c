package memory

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/vecmem"
)

// EventType identifies an allocation lifecycle event.
type EventType uint8

const (
	EventAllocated EventType = iota
	EventDeallocated
	EventAllocationFailed
	EventInvalidFree
)

func (t EventType) String() string {
	switch t {
	case EventAllocated:
		return "allocated"
	case EventDeallocated:
		return "deallocated"
	case EventAllocationFailed:
		return "allocation_failed"
	case EventInvalidFree:
		return "invalid_free"
	default:
		return "unknown"
	}
}

// Event represents an allocation lifecycle event.
type Event struct {
	Err   error
	Ptr   vecmem.Ptr
	Size  uint64
	Align uint64
	Type  EventType
}

// Observer receives notifications about allocation lifecycle events.
type Observer interface {
	OnMemoryEvent(Event)
}

// Stats summarizes the history of a TrackingResource.
type Stats struct {
	Allocations   int
	Deallocations int
	Failures      int
	InvalidFrees  int
	LiveBytes     uint64
	PeakBytes     uint64
}

type allocation struct {
	size  uint64
	align uint64
}

// TrackingResource wraps a resource and records every live allocation.
// Deallocations of unknown pointers, or with a size different from the
// allocation, are reported and not forwarded upstream.
type TrackingResource struct {
	upstream  vecmem.Resource
	live      map[vecmem.Ptr]allocation
	observers []Observer
	stats     Stats
	mu        sync.Mutex
	obsMu     sync.RWMutex
}

var _ vecmem.Resource = (*TrackingResource)(nil)

// NewTrackingResource wraps upstream.
func NewTrackingResource(upstream vecmem.Resource) *TrackingResource {
	return &TrackingResource{
		upstream: upstream,
		live:     make(map[vecmem.Ptr]allocation),
	}
}

// Allocate forwards to the upstream resource and records the allocation.
func (t *TrackingResource) Allocate(size, align uint64) (vecmem.Ptr, error) {
	ptr, err := t.upstream.Allocate(size, align)
	if err != nil {
		t.mu.Lock()
		t.stats.Failures++
		t.mu.Unlock()
		t.notify(Event{Type: EventAllocationFailed, Size: size, Align: align, Err: err})
		return 0, err
	}

	t.mu.Lock()
	t.live[ptr] = allocation{size: size, align: align}
	t.stats.Allocations++
	t.stats.LiveBytes += size
	t.stats.PeakBytes = max(t.stats.PeakBytes, t.stats.LiveBytes)
	t.mu.Unlock()

	t.notify(Event{Type: EventAllocated, Ptr: ptr, Size: size, Align: align})
	return ptr, nil
}

// Deallocate forwards to the upstream resource if ptr is a live allocation of size bytes.
func (t *TrackingResource) Deallocate(ptr vecmem.Ptr, size, align uint64) {
	t.mu.Lock()
	a, ok := t.live[ptr]
	if !ok || a.size != size {
		t.stats.InvalidFrees++
		t.mu.Unlock()
		Logger().Warn("invalid deallocation",
			zap.Uint64("ptr", uint64(ptr)),
			zap.Uint64("size", size),
			zap.Bool("known", ok))
		t.notify(Event{Type: EventInvalidFree, Ptr: ptr, Size: size, Align: align})
		return
	}
	delete(t.live, ptr)
	t.stats.Deallocations++
	t.stats.LiveBytes -= size
	t.mu.Unlock()

	t.upstream.Deallocate(ptr, size, align)
	t.notify(Event{Type: EventDeallocated, Ptr: ptr, Size: size, Align: align})
}

// Memory returns the upstream memory.
func (t *TrackingResource) Memory() vecmem.Memory {
	return t.upstream.Memory()
}

// Live returns the number of live allocations.
func (t *TrackingResource) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// Stats returns a snapshot of the allocation statistics.
func (t *TrackingResource) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Subscribe adds an observer for lifecycle events.
func (t *TrackingResource) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *TrackingResource) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *TrackingResource) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnMemoryEvent(e)
	}
}
