package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ConfirmFirst waits for the first call to signature with an input of type In.
// Calls recorded before ConfirmFirst are considered too unless FutureOnly is
// given. The wait is bounded by Within, or the configured default deadline.
//
// A matched confirmation keeps its subscription open, queueing every later call
// to signature, until it is refined with ExactlyOnce, Occurring or
// OccurringWithin, or released with Close. Unreleased subscriptions are closed
// by Verifier.Close, which ForTest registers as a test cleanup.
func ConfirmFirst[In any](ctx context.Context, v *Verifier, signature string, opts ...CheckOption) *FirstConfirmation[In] {
	settings := newCheckSettings(opts, 1)

	return confirmFirst[In](ctx, v, signature, settings, nil)
}

// ConfirmFirstWith waits for the first call to signature with exactly the
// expected input.
func ConfirmFirstWith[In any](
	ctx context.Context,
	v *Verifier,
	signature string,
	expected In,
	opts ...CheckOption,
) *FirstConfirmation[In] {
	settings := newCheckSettings(opts, 1)

	return confirmFirst[In](ctx, v, signature, settings, &expected)
}

// Sentinel results of the wait race.
var (
	errCollected = errors.New("collected")
	errDeadline  = errors.New("deadline passed")
)

// confirmation is the open window of one ConfirmFirst: its subscription, its
// deadline and its filter.
type confirmation[In any] struct {
	ctx        context.Context
	v          *Verifier
	sub        *Subscription
	expected   *In
	outputType reflect.Type
	bounded    bool
	deadline   time.Time
}

func confirmFirst[In any](
	ctx context.Context,
	v *Verifier,
	signature string,
	settings checkSettings,
	expected *In,
) *FirstConfirmation[In] {
	window := v.cfg.DefaultDeadline
	if settings.deadline != nil {
		window = *settings.deadline
	}

	c := &confirmation[In]{
		ctx:        ctx,
		v:          v,
		sub:        v.subscribe(signature, !settings.futureOnly),
		expected:   expected,
		outputType: settings.outputType,
		bounded:    window > 0,
		deadline:   v.cfg.Clock.Now().Add(window),
	}
	result := outcome[In]{
		v:          v,
		signature:  signature,
		location:   *settings.location,
		mode:       ModeNonExclusive,
		outputType: settings.outputType,
	}

	collected, ok := c.await(1)
	if !ok {
		v.release(c.sub)
		v.cfg.Logger.Debug("confirmation timed out", "signature", signature)

		return &FirstConfirmation[In]{c: c, o: result.fail(ConfirmationTimeout, c.timeoutMessage())}
	}

	v.cfg.Logger.Debug("confirmation matched", "signature", signature, "id", collected[0].ID)

	return &FirstConfirmation[In]{c: c, o: result.with(collected[:1], false)}
}

// accept applies the type, output and value filters to a delivered call.
func (c *confirmation[In]) accept(call RecordedCall) (Call[In], bool) {
	input, ok := downcast[In](call.Input)
	if !ok || !outputMatches(c.outputType, call.OutputType) {
		return Call[In]{}, false
	}

	if c.expected != nil && !MatchInput(any(*c.expected), call.Input) {
		return Call[In]{}, false
	}

	return Call[In]{RecordedCall: call, Input: input}, true
}

// await collects need more matching calls before the deadline. It returns what
// it collected either way; ok is false when the deadline passed or the context
// ended first.
func (c *confirmation[In]) await(need int) ([]Call[In], bool) {
	if need <= 0 {
		return nil, true
	}

	var (
		mu        sync.Mutex
		collected []Call[In]
	)

	if c.queued(func(call Call[In]) bool {
		collected = append(collected, call)

		return len(collected) >= need
	}) {
		return collected, true
	}

	if c.expired() {
		return collected, false
	}

	c.race(c.remaining(), c.bounded, func(ctx context.Context) error {
		for {
			call, err := c.sub.Next(ctx)
			if err != nil {
				return err
			}

			typed, ok := c.accept(call)
			if !ok {
				continue
			}

			mu.Lock()
			collected = append(collected, typed)
			count := len(collected)
			mu.Unlock()

			if count >= need {
				return errCollected
			}
		}
	})

	mu.Lock()
	defer mu.Unlock()

	// a call delivered while the deadline fired still counts
	return collected, len(collected) >= need
}

// queued hands the matching calls already waiting in the subscription to visit
// without blocking, until visit returns true or the queue is empty. Calls
// recorded after the deadline are dropped. It reports whether visit stopped it.
func (c *confirmation[In]) queued(visit func(Call[In]) bool) bool {
	for {
		call, ok := c.sub.TryNext()
		if !ok {
			return false
		}

		if c.bounded && call.Timestamp.After(c.deadline) {
			continue
		}

		typed, ok := c.accept(call)
		if !ok {
			continue
		}

		if visit(typed) {
			return true
		}
	}
}

// expired reports whether a bounded confirmation's deadline has passed.
func (c *confirmation[In]) expired() bool {
	return c.bounded && c.remaining() == 0
}

// race runs collect against a timer of length window. Whichever finishes first
// cancels the other. It reports whether collect won.
func (c *confirmation[In]) race(window time.Duration, bounded bool, collect func(context.Context) error) bool {
	group, ctx := errgroup.WithContext(c.ctx)

	group.Go(func() error { return collect(ctx) })

	if bounded {
		group.Go(func() error {
			select {
			case <-c.v.cfg.Timer.After(window):
				return errDeadline
			case <-ctx.Done():
				return nil
			}
		})
	}

	return errors.Is(group.Wait(), errCollected)
}

func (c *confirmation[In]) remaining() time.Duration {
	if !c.bounded {
		return 0
	}

	return max(c.deadline.Sub(c.v.cfg.Clock.Now()), 0)
}

func (c *confirmation[In]) timeoutMessage() string {
	signature := c.sub.Signature()
	inputType := reflect.TypeFor[In]()

	var message, expectedLine string

	if c.expected != nil {
		message = fmt.Sprintf("No calls to `%s` with input %s and output type `%s` were recorded",
			signature, DescribeInput(any(*c.expected)), TypeName(c.outputType))
		expectedLine = expectedValueLine(signature, any(*c.expected), c.outputType)
	} else {
		message = fmt.Sprintf("No calls to `%s` with input type `%s` and output type `%s` were recorded",
			signature, TypeName(inputType), TypeName(c.outputType))
		expectedLine = expectedTypeLine(signature, inputType, c.outputType)
	}

	candidates := c.v.ledger.Query(signature, nil, nil)
	if len(candidates) == 0 {
		return message
	}

	return withDiff(message, candidatesDiff(expectedLine, candidates), ModeNonExclusive, signature)
}

// trailing watches for further matching calls after the target was reached.
// onCall receives the running total of extra calls and returns true to stop.
// Calls already queued are seen first. The watch ends at the deadline, or after
// the trailing window when the confirmation has none.
func (c *confirmation[In]) trailing(onCall func(Call[In], int) bool) {
	extra := 0

	if c.queued(func(call Call[In]) bool {
		extra++

		return onCall(call, extra)
	}) {
		return
	}

	if c.expired() {
		return
	}

	window := c.v.cfg.TrailingWindow
	if c.bounded {
		window = c.remaining()
	}

	c.race(window, true, func(ctx context.Context) error {
		for {
			call, err := c.sub.Next(ctx)
			if err != nil {
				return err
			}

			typed, ok := c.accept(call)
			if !ok {
				continue
			}

			extra++

			if onCall(typed, extra) {
				return errCollected
			}
		}
	})
}

// FirstConfirmation is the result of ConfirmFirst: one matched call, or none
// when the confirmation timed out. Its subscription stays open so the count can
// be refined with ExactlyOnce, Occurring or OccurringWithin.
type FirstConfirmation[In any] struct {
	c *confirmation[In]
	o outcome[In]
}

// Close releases the subscription without refining the count.
func (f *FirstConfirmation[In]) Close() {
	f.c.v.release(f.c.sub)
}

// ExactlyOnce finishes the confirmation. When trailing failures are enabled it
// watches for one more matching call and reports it as excess.
func (f *FirstConfirmation[In]) ExactlyOnce() *ConfirmedCall[In] {
	defer f.Close()

	result := f.o
	if result.failed || !f.c.v.cfg.WaitForTrailingFailure {
		return &ConfirmedCall[In]{o: result}
	}

	f.c.trailing(func(call Call[In], _ int) bool {
		result = result.fail(ExcessCallDetected, fmt.Sprintf(
			"Expected `%s` to be called exactly once, but an additional call was recorded: %s",
			result.signature, describeOther(call.RecordedCall, true),
		))

		return true
	})

	return &ConfirmedCall[In]{o: result}
}

// GetMatchingCall returns the confirmed call, or an error wrapping
// ErrNoCallsRecorded.
func (f *FirstConfirmation[In]) GetMatchingCall() (Call[In], error) {
	return f.o.first()
}

// MatchingCall returns the confirmed call, or false when the confirmation
// timed out.
func (f *FirstConfirmation[In]) MatchingCall() (Call[In], bool) {
	call, err := f.o.first()

	return call, err == nil
}

// Occurring waits, under the same deadline, until times matching calls have
// been confirmed in total. times must be positive.
func (f *FirstConfirmation[In]) Occurring(times int) *ConfirmedCalls[In] {
	if times <= 0 {
		panic(fmt.Sprintf("Occurring(%d): times must be positive", times))
	}

	defer f.Close()

	result := f.o
	if result.failed {
		return &ConfirmedCalls[In]{o: result}
	}

	extra, ok := f.c.await(times - 1)
	total := len(result.calls) + len(extra)

	if !ok {
		result = result.fail(ConfirmationTimeout, fmt.Sprintf(
			"Expected `%s` to be called %d times, but only %d calls were recorded before timing out",
			result.signature, times, total,
		))

		return &ConfirmedCalls[In]{o: result}
	}

	result = result.with(append(result.calls, extra[:times-1]...), false)

	if f.c.v.cfg.WaitForTrailingFailure {
		f.c.trailing(func(call Call[In], _ int) bool {
			result = result.fail(ExcessCallDetected, fmt.Sprintf(
				"Expected `%s` to be called %d times, but an additional call was recorded: %s",
				result.signature, times, describeOther(call.RecordedCall, true),
			))

			return true
		})
	}

	return &ConfirmedCalls[In]{o: result}
}

// OccurringWithin waits, under the same deadline, until the lower bound of r is
// reached. With trailing failures enabled and a bounded r, it keeps watching and
// fails as soon as the total exceeds the upper bound.
func (f *FirstConfirmation[In]) OccurringWithin(r Range) *ConfirmedCalls[In] {
	defer f.Close()

	result := f.o
	if result.failed {
		return &ConfirmedCalls[In]{o: result}
	}

	describe := fmt.Sprintf("within %s times", r)

	if r.Exceeded(len(result.calls)) {
		result = result.fail(RangeMismatch, fmt.Sprintf(
			"Expected `%s` to be called %s, but %d calls were recorded",
			result.signature, describe, len(result.calls),
		))

		return &ConfirmedCalls[In]{o: result}
	}

	extra, ok := f.c.await(r.Lower - len(result.calls))
	calls := append(result.calls, extra...)

	if !ok {
		result = result.fail(ConfirmationTimeout, fmt.Sprintf(
			"Expected `%s` to be called %s, but only %d calls were recorded before timing out",
			result.signature, describe, len(calls),
		))

		return &ConfirmedCalls[In]{o: result}
	}

	result = result.with(calls, false)

	if !r.Bounded || !f.c.v.cfg.WaitForTrailingFailure {
		return &ConfirmedCalls[In]{o: result}
	}

	f.c.trailing(func(call Call[In], _ int) bool {
		total := len(result.calls) + 1
		if r.Exceeded(total) {
			result = result.fail(RangeMismatch, fmt.Sprintf(
				"Expected `%s` to be called %s, but %d calls were recorded",
				result.signature, describe, total,
			))

			return true
		}

		result = result.with(append(result.calls, call), false)

		return false
	})

	return &ConfirmedCalls[In]{o: result}
}

// ConfirmedCall is a finished confirmation holding at most one call.
type ConfirmedCall[In any] struct {
	o outcome[In]
}

// GetMatchingCall returns the call, or an error wrapping ErrNoCallsRecorded.
func (c *ConfirmedCall[In]) GetMatchingCall() (Call[In], error) {
	return c.o.first()
}

// MatchingCall returns the call, or false when the confirmation failed.
func (c *ConfirmedCall[In]) MatchingCall() (Call[In], bool) {
	call, err := c.o.first()

	return call, err == nil
}

// ConfirmedCalls is a finished confirmation of a count or a range of calls.
type ConfirmedCalls[In any] struct {
	o outcome[In]
}

// GetFirstMatchingCall returns the earliest call, or an error wrapping
// ErrNoCallsRecorded.
func (c *ConfirmedCalls[In]) GetFirstMatchingCall() (Call[In], error) {
	return c.o.first()
}

// GetLastMatchingCall returns the latest call, or an error wrapping
// ErrNoCallsRecorded.
func (c *ConfirmedCalls[In]) GetLastMatchingCall() (Call[In], error) {
	return c.o.last()
}

// MatchingCalls returns the confirmed calls in ledger order. Never fails.
func (c *ConfirmedCalls[In]) MatchingCalls() []Call[In] {
	return c.o.matching()
}
