package core

import (
	"context"
	"sync"
)

// Subscription observes the calls appended to a ledger for one signature.
//
// Every live subscription for a signature receives every call, so several
// confirmations can wait on the same future call. The queue is unbounded:
// publishing never blocks the producer.
type Subscription struct {
	ledger    *Ledger
	signature string

	mu     sync.Mutex
	queue  []RecordedCall
	notify chan struct{} // buffered(1): signals that queue may be non-empty
	closed bool
}

func newSubscription(ledger *Ledger, signature string) *Subscription {
	return &Subscription{
		ledger:    ledger,
		signature: signature,
		notify:    make(chan struct{}, 1),
	}
}

// Close unregisters the subscription. Calls appended afterwards are not
// delivered; Next returns ErrSubscriptionClosed once the queue is drained.
func (s *Subscription) Close() {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return
	}

	s.closed = true
	s.mu.Unlock()

	s.ledger.unsubscribe(s)

	// wake any waiter so it can observe the close
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next returns the next call delivered to this subscription, suspending until
// one arrives, ctx is done, or the subscription is closed and drained.
func (s *Subscription) Next(ctx context.Context) (RecordedCall, error) {
	for {
		// a cancelled wait stops here even if events are queued
		if err := ctx.Err(); err != nil {
			return RecordedCall{}, err
		}

		call, ok, closed := s.pop()
		if ok {
			return call, nil
		}

		if closed {
			return RecordedCall{}, ErrSubscriptionClosed
		}

		select {
		case <-s.notify:
		case <-ctx.Done():
			return RecordedCall{}, ctx.Err()
		}
	}
}

// TryNext returns the next queued call without waiting. ok is false when the
// queue is empty.
func (s *Subscription) TryNext() (RecordedCall, bool) {
	call, ok, _ := s.pop()

	return call, ok
}

// Pending returns the number of delivered calls not yet consumed.
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.queue)
}

// Signature returns the signature this subscription observes.
func (s *Subscription) Signature() string {
	return s.signature
}

func (s *Subscription) pop() (RecordedCall, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return RecordedCall{}, false, s.closed
	}

	call := s.queue[0]
	s.queue = s.queue[1:]

	return call, true, s.closed
}

// publish queues call for delivery. Called by the ledger with its lock held, so
// it must never block.
func (s *Subscription) publish(call RecordedCall) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return
	}

	s.queue = append(s.queue, call)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}
