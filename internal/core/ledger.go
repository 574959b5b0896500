// Package core provides the internal implementation of callspy's call ledger
// and verification engine.
package core

import (
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// RecordedCall is a single call appended to a Ledger. It is never mutated after
// it has been appended.
type RecordedCall struct {
	ID         uint64
	Signature  string
	Input      any
	OutputType reflect.Type
	Timestamp  time.Time
}

// InputFilter reports whether a stored input is acceptable. A nil filter accepts
// every input, including Void.
type InputFilter func(input any) bool

// Ledger is the append-only, ordered store of recorded calls.
//
// Append order is the single source of truth: ids are assigned, calls stored and
// subscribers notified under one lock, so readers never observe a partial append.
type Ledger struct {
	clock  Clock
	logger *slog.Logger

	mu     sync.Mutex
	calls  []RecordedCall
	nextID uint64
	subs   map[string][]*Subscription
}

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	cfg := NewConfig(opts...)

	return &Ledger{
		clock:  cfg.Clock,
		logger: cfg.Logger,
		subs:   make(map[string][]*Subscription),
	}
}

// Calls returns a snapshot of every recorded call in ledger order.
func (l *Ledger) Calls() []RecordedCall {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]RecordedCall(nil), l.calls...)
}

// CallAfter returns the call immediately following call in ledger order. It
// returns false if call is the last call or is not part of this ledger.
func (l *Ledger) CallAfter(call RecordedCall) (RecordedCall, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	index, found := l.indexOf(call)
	if !found || index+1 >= len(l.calls) {
		return RecordedCall{}, false
	}

	return l.calls[index+1], true
}

// First returns the earliest recorded call.
func (l *Ledger) First() (RecordedCall, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.calls) == 0 {
		return RecordedCall{}, false
	}

	return l.calls[0], true
}

// Last returns the latest recorded call.
func (l *Ledger) Last() (RecordedCall, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.calls) == 0 {
		return RecordedCall{}, false
	}

	return l.calls[len(l.calls)-1], true
}

// Len returns the number of recorded calls.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.calls)
}

// Now returns the ledger clock's current time.
func (l *Ledger) Now() time.Time {
	return l.clock.Now()
}

// Query returns the calls to signature whose input passes filter, in ledger
// order. If after is non-nil, only calls appended strictly after it are
// considered; a call that is not part of this ledger yields no results.
func (l *Ledger) Query(signature string, filter InputFilter, after *RecordedCall) []RecordedCall {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := 0

	if after != nil {
		index, found := l.indexOf(*after)
		if !found {
			return nil
		}

		start = index + 1
	}

	var result []RecordedCall

	for _, call := range l.calls[start:] {
		if call.Signature != signature {
			continue
		}

		if filter != nil && !filter(call.Input) {
			continue
		}

		result = append(result, call)
	}

	return result
}

// Record appends a call and publishes it to the live subscriptions for its
// signature. It returns the id assigned to the call.
func (l *Ledger) Record(signature string, input any, outputType reflect.Type, timestamp time.Time) uint64 {
	if input == nil {
		input = Void{}
	}

	l.mu.Lock()

	l.nextID++
	call := RecordedCall{
		ID:         l.nextID,
		Signature:  signature,
		Input:      input,
		OutputType: outputType,
		Timestamp:  timestamp,
	}
	l.calls = append(l.calls, call)

	for _, sub := range l.subs[signature] {
		sub.publish(call)
	}

	l.mu.Unlock()

	l.logger.Debug("call recorded",
		"id", call.ID,
		"signature", signature,
		"input", DescribeInput(input),
	)

	return call.ID
}

// Subscribe registers a subscription that observes every future call to
// signature. With replay, calls already recorded for signature are queued first,
// atomically with registration.
func (l *Ledger) Subscribe(signature string, replay bool) *Subscription {
	sub := newSubscription(l, signature)

	l.mu.Lock()

	if replay {
		for _, call := range l.calls {
			if call.Signature == signature {
				sub.publish(call)
			}
		}
	}

	l.subs[signature] = append(l.subs[signature], sub)

	l.mu.Unlock()

	l.logger.Debug("subscribed", "signature", signature, "replay", replay)

	return sub
}

// indexOf finds the position of call in the ledger. Ids are dense and start at
// 1, so the position is derived from the id; the signature guards against calls
// recorded by another ledger.
// Must be called with l.mu held.
func (l *Ledger) indexOf(call RecordedCall) (int, bool) {
	if call.ID == 0 || call.ID > uint64(len(l.calls)) {
		return 0, false
	}

	index := int(call.ID - 1)
	if l.calls[index].Signature != call.Signature {
		return 0, false
	}

	return index, true
}

// unsubscribe removes sub from the fan-out list of its signature.
func (l *Ledger) unsubscribe(sub *Subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()

	subs := l.subs[sub.signature]
	for i, candidate := range subs {
		if candidate == sub {
			l.subs[sub.signature] = append(subs[:i], subs[i+1:]...)

			break
		}
	}

	if len(l.subs[sub.signature]) == 0 {
		delete(l.subs, sub.signature)
	}
}

// RecordCall records a call to signature with the ledger's clock, using Out as
// the output type descriptor.
func RecordCall[In, Out any](l *Ledger, signature string, input In) uint64 {
	return l.Record(signature, any(input), reflect.TypeFor[Out](), l.Now())
}
