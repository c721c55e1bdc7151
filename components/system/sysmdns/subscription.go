package sysmdns

import (
	"sync"
	"sync/atomic"
)

var lastSubscriptionID atomic.Uint64

// Subscription is a stream of browsing events for a single service type.
//
// Remarks:
//   - Events are delivered in the order the engine produced them.
//   - The queue isn't bounded, the consumer should drain it regularly.
//   - Safe to use from multiple goroutines.
type Subscription struct {
	id          uint64
	serviceType ServiceType
	wakeCh      chan struct{}

	mu     sync.Mutex
	queue  []Event
	closed bool
}

func newSubscription(serviceType ServiceType) *Subscription {
	return &Subscription{
		id:          lastSubscriptionID.Add(1),
		serviceType: serviceType,
		wakeCh:      make(chan struct{}, 1),
	}
}

// ID returns the process-wide unique subscription identifier.
func (s *Subscription) ID() uint64 {
	return s.id
}

// ServiceType returns the service type the subscription browses for.
func (s *Subscription) ServiceType() ServiceType {
	return s.serviceType
}

// TryRecv returns the oldest queued event without blocking.
//
// Remarks:
//   - Returns false if the queue is empty.
func (s *Subscription) TryRecv() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return Event{}, false
	}

	event := s.queue[0]
	s.queue[0] = Event{}
	s.queue = s.queue[1:]

	return event, true
}

// C returns a channel which receives a value when new events may be available.
//
// Remarks:
//   - Intended for consumers which block waiting for events, e.g. tests and CLI.
func (s *Subscription) C() <-chan struct{} {
	return s.wakeCh
}

// Len returns the number of queued events.
func (s *Subscription) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.queue)
}

// Closed reports whether the subscription was cancelled.
//
// Remarks:
//   - Events queued before the cancellation are still available with TryRecv().
func (s *Subscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

func (s *Subscription) push(event Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	s.queue = append(s.queue, event)

	s.wake()

	return true
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	s.wake()
}

func (s *Subscription) wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}
