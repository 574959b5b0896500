package core

import (
	"fmt"
	"reflect"
)

// AssertWasCalled verifies that calls to signature with an input of type In
// were recorded. Use In = any to accept any input type.
func AssertWasCalled[In any](v *Verifier, signature string, opts ...CheckOption) *Calls[In] {
	settings := newCheckSettings(opts, 1)

	return &Calls[In]{o: assertWasCalled[In](v, signature, settings, nil)}
}

// AssertWasCalledWith verifies that calls to signature with exactly the
// expected input were recorded.
func AssertWasCalledWith[In any](v *Verifier, signature string, expected In, opts ...CheckOption) *Calls[In] {
	settings := newCheckSettings(opts, 1)

	return &Calls[In]{o: assertWasCalled[In](v, signature, settings, &expected)}
}

// AssertWasNotCalled verifies that no call to signature with an input of type
// In was recorded. It reports true when the verification passed.
func AssertWasNotCalled[In any](v *Verifier, signature string, opts ...CheckOption) bool {
	settings := newCheckSettings(opts, 1)
	inputType := reflect.TypeFor[In]()

	var found []RecordedCall

	for _, call := range v.ledger.Query(signature, inputFilterFor[In](), nil) {
		if outputMatches(settings.outputType, call.OutputType) {
			found = append(found, call)
		}
	}

	if len(found) == 0 {
		return true
	}

	v.report(Failure{
		Kind:      CountMismatch,
		Signature: signature,
		Message: withDiff(
			fmt.Sprintf("Expected `%s` not to be called, but %d calls were recorded", signature, len(found)),
			candidatesDiff(expectedTypeLine(signature, inputType, settings.outputType), found),
			ModeNonExclusive,
			signature,
		),
		Location: *settings.location,
	})

	return false
}

//nolint:funlen // the type, value and exclusivity checks read best in sequence
func assertWasCalled[In any](v *Verifier, signature string, settings checkSettings, expected *In) outcome[In] {
	result := outcome[In]{
		v:          v,
		signature:  signature,
		location:   *settings.location,
		mode:       settings.mode,
		outputType: settings.outputType,
	}
	inputType := reflect.TypeFor[In]()

	all := v.ledger.Query(signature, nil, nil)
	if len(all) == 0 {
		return result.fail(NoCalls, fmt.Sprintf("No calls to `%s` were recorded", signature))
	}

	var typed []Call[In]

	for _, call := range all {
		input, ok := downcast[In](call.Input)
		if ok && outputMatches(settings.outputType, call.OutputType) {
			typed = append(typed, Call[In]{RecordedCall: call, Input: input})
		}
	}

	if len(typed) == 0 {
		return result.fail(TypeMismatch, withDiff(
			fmt.Sprintf("No calls to `%s` with input type `%s` and output type `%s` were recorded",
				signature, TypeName(inputType), TypeName(settings.outputType)),
			candidatesDiff(expectedTypeLine(signature, inputType, settings.outputType), all),
			settings.mode,
			signature,
		))
	}

	expectedLine := expectedTypeLine(signature, inputType, settings.outputType)
	matched := typed

	if expected != nil {
		expectedLine = expectedValueLine(signature, any(*expected), settings.outputType)
		matched = nil

		for _, call := range typed {
			if MatchInput(any(*expected), call.RecordedCall.Input) {
				matched = append(matched, call)
			}
		}

		if len(matched) == 0 {
			return result.fail(InputMismatch, withDiff(
				fmt.Sprintf("No calls to `%s` matching the expected input were recorded", signature),
				candidatesDiff(expectedLine, all),
				settings.mode,
				signature,
			))
		}
	}

	if settings.mode == ModeExclusive && len(matched) != len(all) {
		// the matched calls are real; report the conflict but keep them
		result.fail(ExclusiveConflict, withDiff(
			fmt.Sprintf("Unexpected calls to `%s` were recorded: %d of %d calls do not match the expectation",
				signature, len(all)-len(matched), len(all)),
			candidatesDiff(expectedLine, all),
			settings.mode,
			signature,
		))
	}

	return result.with(matched, false)
}

// Calls is an assertion result with no cardinality guarantee.
type Calls[In any] struct {
	o outcome[In]
}

// ExactlyOnce requires exactly one matching call.
func (c *Calls[In]) ExactlyOnce() *OneCall[In] {
	o := c.o.narrowCount(Exactly(1), "exactly once", CountMismatch)

	return &OneCall[In]{o: o}
}

// GetFirstMatchingCall returns the earliest matching call, or an error
// wrapping ErrNoCallsRecorded.
func (c *Calls[In]) GetFirstMatchingCall() (Call[In], error) {
	return c.o.first()
}

// GetLastMatchingCall returns the latest matching call, or an error wrapping
// ErrNoCallsRecorded.
func (c *Calls[In]) GetLastMatchingCall() (Call[In], error) {
	return c.o.last()
}

// Happening constrains where the matching calls sit in the ledger.
func (c *Calls[In]) Happening(order Order) *Calls[In] {
	return &Calls[In]{o: c.o.happening(order)}
}

// MatchingCalls returns the matching calls in ledger order. Never fails.
func (c *Calls[In]) MatchingCalls() []Call[In] {
	return c.o.matching()
}

// Where keeps the matching calls that satisfy predicate.
func (c *Calls[In]) Where(predicate func(Call[In]) bool) *Calls[In] {
	return &Calls[In]{o: c.o.where(predicate)}
}

// WithCount requires exactly n matching calls. n must be positive; use
// AssertWasNotCalled to verify the absence of calls.
func (c *Calls[In]) WithCount(n int) *CountedCalls[In] {
	if n <= 0 {
		panic(fmt.Sprintf("WithCount(%d): count must be positive, use AssertWasNotCalled instead", n))
	}

	o := c.o.narrowCount(Exactly(n), fmt.Sprintf("%d times", n), CountMismatch)

	return &CountedCalls[In]{o: o, count: n}
}

// WithinRange requires the number of matching calls to lie within r.
func (c *Calls[In]) WithinRange(r Range) *RangedCalls[In] {
	o := c.o.narrowCount(r, fmt.Sprintf("within %s times", r), RangeMismatch)

	return &RangedCalls[In]{o: o, bounds: r}
}

// OneCall is an assertion result holding at most one call.
type OneCall[In any] struct {
	o outcome[In]
}

// GetMatchingCall returns the call, or an error wrapping ErrNoCallsRecorded.
func (c *OneCall[In]) GetMatchingCall() (Call[In], error) {
	return c.o.first()
}

// Happening constrains where the call sits in the ledger.
func (c *OneCall[In]) Happening(order Order) *OneCall[In] {
	return &OneCall[In]{o: c.o.happening(order)}
}

// MatchingCall returns the call, or false when the assertion failed.
func (c *OneCall[In]) MatchingCall() (Call[In], bool) {
	call, err := c.o.first()

	return call, err == nil
}

// Where requires the call to satisfy predicate.
func (c *OneCall[In]) Where(predicate func(Call[In]) bool) *OneCall[In] {
	return &OneCall[In]{o: c.o.where(predicate)}
}

// CountedCalls is an assertion result holding exactly the requested number of
// calls.
type CountedCalls[In any] struct {
	o     outcome[In]
	count int
}

// Count returns the number of calls this result was narrowed to.
func (c *CountedCalls[In]) Count() int {
	return c.count
}

// GetFirstMatchingCall returns the earliest call, or an error wrapping
// ErrNoCallsRecorded.
func (c *CountedCalls[In]) GetFirstMatchingCall() (Call[In], error) {
	return c.o.first()
}

// GetLastMatchingCall returns the latest call, or an error wrapping
// ErrNoCallsRecorded.
func (c *CountedCalls[In]) GetLastMatchingCall() (Call[In], error) {
	return c.o.last()
}

// Happening constrains where the calls sit in the ledger.
func (c *CountedCalls[In]) Happening(order Order) *CountedCalls[In] {
	return &CountedCalls[In]{o: c.o.happening(order), count: c.count}
}

// MatchingCalls returns the calls in ledger order.
func (c *CountedCalls[In]) MatchingCalls() []Call[In] {
	return c.o.matching()
}

// Where keeps the calls that satisfy predicate.
func (c *CountedCalls[In]) Where(predicate func(Call[In]) bool) *CountedCalls[In] {
	return &CountedCalls[In]{o: c.o.where(predicate), count: c.count}
}

// RangedCalls is an assertion result whose call count lies within a range.
type RangedCalls[In any] struct {
	o      outcome[In]
	bounds Range
}

// Bounds returns the range this result was narrowed to.
func (c *RangedCalls[In]) Bounds() Range {
	return c.bounds
}

// GetFirstMatchingCall returns the earliest call, or an error wrapping
// ErrNoCallsRecorded.
func (c *RangedCalls[In]) GetFirstMatchingCall() (Call[In], error) {
	return c.o.first()
}

// GetLastMatchingCall returns the latest call, or an error wrapping
// ErrNoCallsRecorded.
func (c *RangedCalls[In]) GetLastMatchingCall() (Call[In], error) {
	return c.o.last()
}

// Happening constrains where the calls sit in the ledger.
func (c *RangedCalls[In]) Happening(order Order) *RangedCalls[In] {
	return &RangedCalls[In]{o: c.o.happening(order), bounds: c.bounds}
}

// MatchingCalls returns the calls in ledger order.
func (c *RangedCalls[In]) MatchingCalls() []Call[In] {
	return c.o.matching()
}

// Where keeps the calls that satisfy predicate.
func (c *RangedCalls[In]) Where(predicate func(Call[In]) bool) *RangedCalls[In] {
	return &RangedCalls[In]{o: c.o.where(predicate), bounds: c.bounds}
}
