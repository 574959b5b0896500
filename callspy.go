// Package callspy records calls made to test stand-ins and verifies them,
// either synchronously against what already happened or asynchronously by
// waiting for calls that have not happened yet.
//
// This is the public API entry point. Implementation lives in internal/core.
package callspy

import (
	"context"

	"github.com/toejough/callspy/internal/core"
)

// Ledger is the append-only, ordered store of recorded calls.
type Ledger = core.Ledger

// RecordedCall is a single call appended to a Ledger.
type RecordedCall = core.RecordedCall

// InputFilter reports whether a stored input is acceptable.
type InputFilter = core.InputFilter

// Subscription observes the calls appended to a ledger for one signature.
type Subscription = core.Subscription

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	return core.NewLedger(opts...)
}

// RecordCall records a call to signature, using Out as the output type.
func RecordCall[In, Out any](l *Ledger, signature string, input In) uint64 {
	return core.RecordCall[In, Out](l, signature, input)
}

// Input shapes.

// Packed is implemented by every multi-value input shape.
type Packed = core.Packed

// Void is the input of a call that takes no arguments.
type Void = core.Void

// Args is an untyped pack of positional values of any arity.
type Args = core.Args

// Tuple2 is a typed pack of two positional values.
type Tuple2[A, B any] = core.Tuple2[A, B]

// Tuple3 is a typed pack of three positional values.
type Tuple3[A, B, C any] = core.Tuple3[A, B, C]

// Tuple4 is a typed pack of four positional values.
type Tuple4[A, B, C, D any] = core.Tuple4[A, B, C, D]

// Tuple5 is a typed pack of five positional values.
type Tuple5[A, B, C, D, E any] = core.Tuple5[A, B, C, D, E]

// Tuple6 is a typed pack of six positional values.
type Tuple6[A, B, C, D, E, F any] = core.Tuple6[A, B, C, D, E, F]

// Pack2 builds a Tuple2.
func Pack2[A, B any](v1 A, v2 B) Tuple2[A, B] {
	return core.Pack2(v1, v2)
}

// Pack3 builds a Tuple3.
func Pack3[A, B, C any](v1 A, v2 B, v3 C) Tuple3[A, B, C] {
	return core.Pack3(v1, v2, v3)
}

// Pack4 builds a Tuple4.
func Pack4[A, B, C, D any](v1 A, v2 B, v3 C, v4 D) Tuple4[A, B, C, D] {
	return core.Pack4(v1, v2, v3, v4)
}

// Pack5 builds a Tuple5.
func Pack5[A, B, C, D, E any](v1 A, v2 B, v3 C, v4 D, v5 E) Tuple5[A, B, C, D, E] {
	return core.Pack5(v1, v2, v3, v4, v5)
}

// Pack6 builds a Tuple6.
func Pack6[A, B, C, D, E, F any](v1 A, v2 B, v3 C, v4 D, v5 E, v6 F) Tuple6[A, B, C, D, E, F] {
	return core.Pack6(v1, v2, v3, v4, v5, v6)
}

// Matching.

// Matcher defines the interface for flexible value matching.
type Matcher = core.Matcher

// MatchInput reports whether a stored input matches an expected one.
func MatchInput(expected, actual any) bool {
	return core.MatchInput(expected, actual)
}

// MatchValue checks if actual matches expected.
func MatchValue(actual, expected any) (bool, string) {
	return core.MatchValue(actual, expected)
}

// Reporting.

// Reporter is the failure sink supplied by the host test framework.
type Reporter = core.Reporter

// ReporterFunc adapts a function to Reporter.
type ReporterFunc = core.ReporterFunc

// SourceLocation identifies the call site of an assertion or confirmation.
type SourceLocation = core.SourceLocation

// TestingT is the minimal interface callspy needs from testing.T.
type TestingT = core.TestingT

// ForTest adapts a testing.T to Reporter.
func ForTest(t TestingT) Reporter {
	return core.ForTest(t)
}

// Here returns the location of the caller skip frames above Here's caller.
func Here(skip int) SourceLocation {
	return core.Here(skip + 1)
}

// Failure is one reported verification failure.
type Failure = core.Failure

// FailureKind classifies a reported failure.
type FailureKind = core.FailureKind

// NoCallsError reports an empty result for a signature.
type NoCallsError = core.NoCallsError

// ErrNoCallsRecorded is returned by the throwing-style accessors when a result
// holds no calls.
var ErrNoCallsRecorded = core.ErrNoCallsRecorded

// ErrSubscriptionClosed is returned by Subscription.Next after Close.
var ErrSubscriptionClosed = core.ErrSubscriptionClosed

// Configuration.

// Config holds the settings shared by ledgers and verifiers.
type Config = core.Config

// Option configures a Config.
type Option = core.Option

// Clock abstracts the time source used to timestamp calls.
type Clock = core.Clock

// Timer abstracts time-based operations for testability.
type Timer = core.Timer

// ConfigFromEnv returns options derived from the CALLSPY_* environment variables.
func ConfigFromEnv() ([]Option, error) {
	return core.ConfigFromEnv()
}

// Option constructors.
var (
	WaitForTrailingFailure = core.WaitForTrailingFailure
	WithClock              = core.WithClock
	WithDefaultDeadline    = core.WithDefaultDeadline
	WithLogger             = core.WithLogger
	WithTimer              = core.WithTimer
	WithTrailingWindow     = core.WithTrailingWindow
)

// Verification.

// Verifier binds a ledger to the failure sink of one test.
type Verifier = core.Verifier

// NewVerifier creates a Verifier.
func NewVerifier(reporter Reporter, ledger *Ledger, opts ...Option) *Verifier {
	return core.NewVerifier(reporter, ledger, opts...)
}

// Verify is shorthand for NewVerifier(ForTest(t), ledger, opts...).
func Verify(t TestingT, ledger *Ledger, opts ...Option) *Verifier {
	return core.NewVerifier(core.ForTest(t), ledger, opts...)
}

// CheckOption configures one assertion or confirmation.
type CheckOption = core.CheckOption

// Mode selects how non-matching calls to the same signature are treated.
type Mode = core.Mode

// Modes.
const (
	ModeExclusive    = core.ModeExclusive
	ModeNonExclusive = core.ModeNonExclusive
)

// Check option constructors.
var (
	At           = core.At
	FutureOnly   = core.FutureOnly
	InMode       = core.InMode
	NonExclusive = core.NonExclusive
	Within       = core.Within
)

// Returning filters calls by output type.
func Returning[Out any]() CheckOption {
	return core.Returning[Out]()
}

// Range is a closed interval of call counts, optionally unbounded above.
type Range = core.Range

// Range constructors.
var (
	AtLeast  = core.AtLeast
	AtMost   = core.AtMost
	Between  = core.Between
	Exactly  = core.Exactly
	HalfOpen = core.HalfOpen
)

// Order is a position constraint for Happening.
type Order = core.Order

// Order constructors.
var (
	After            = core.After
	First            = core.First
	ImmediatelyAfter = core.ImmediatelyAfter
	Last             = core.Last
)

// Call is a recorded call whose input has been downcast to In.
type Call[In any] = core.Call[In]

// Calls is an assertion result with no cardinality guarantee.
type Calls[In any] = core.Calls[In]

// OneCall is an assertion result holding at most one call.
type OneCall[In any] = core.OneCall[In]

// CountedCalls is an assertion result holding exactly the requested number of calls.
type CountedCalls[In any] = core.CountedCalls[In]

// RangedCalls is an assertion result whose call count lies within a range.
type RangedCalls[In any] = core.RangedCalls[In]

// AssertWasCalled verifies that calls to signature with an input of type In
// were recorded.
func AssertWasCalled[In any](v *Verifier, signature string, opts ...CheckOption) *Calls[In] {
	return core.AssertWasCalled[In](v, signature, withCallSite(opts)...)
}

// AssertWasCalledWith verifies that calls to signature with exactly the
// expected input were recorded.
func AssertWasCalledWith[In any](v *Verifier, signature string, expected In, opts ...CheckOption) *Calls[In] {
	return core.AssertWasCalledWith(v, signature, expected, withCallSite(opts)...)
}

// AssertWasNotCalled verifies that no call to signature with an input of type
// In was recorded.
func AssertWasNotCalled[In any](v *Verifier, signature string, opts ...CheckOption) bool {
	return core.AssertWasNotCalled[In](v, signature, withCallSite(opts)...)
}

// FirstConfirmation is the result of ConfirmFirst.
type FirstConfirmation[In any] = core.FirstConfirmation[In]

// ConfirmedCall is a finished confirmation holding at most one call.
type ConfirmedCall[In any] = core.ConfirmedCall[In]

// ConfirmedCalls is a finished confirmation of a count or a range of calls.
type ConfirmedCalls[In any] = core.ConfirmedCalls[In]

// ConfirmFirst waits for the first call to signature with an input of type In.
// The result holds a subscription until it is refined or closed.
func ConfirmFirst[In any](ctx context.Context, v *Verifier, signature string, opts ...CheckOption) *FirstConfirmation[In] {
	return core.ConfirmFirst[In](ctx, v, signature, withCallSite(opts)...)
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
	return core.ConfirmFirstWith(ctx, v, signature, expected, withCallSite(opts)...)
}

// Registry.

// Scope isolates the ledgers of static stand-ins for the duration of one test.
type Scope = core.Scope

// Shared returns the process-wide ledger for key.
func Shared(key string, opts ...Option) *Ledger {
	return core.Shared(key, opts...)
}

// NewScope creates an empty scope.
func NewScope(opts ...Option) *Scope {
	return core.NewScope(opts...)
}

// ScopeFor returns the scope for the given test, creating one if needed.
func ScopeFor(t TestingT, opts ...Option) *Scope {
	return core.ScopeFor(t, opts...)
}

// ScopeFrom returns the scope carried by ctx.
func ScopeFrom(ctx context.Context) (*Scope, bool) {
	return core.ScopeFrom(ctx)
}

// WithScope returns a context carrying scope.
func WithScope(ctx context.Context, scope *Scope) context.Context {
	return core.WithScope(ctx, scope)
}

// LedgerFor resolves the ledger for key in ctx.
func LedgerFor(ctx context.Context, key string) *Ledger {
	return core.LedgerFor(ctx, key)
}

// Stand-in support.

// Spy records calls into its ledger and serves stubbed results.
type Spy = core.Spy

// Stubs is a keyed store of canned results.
type Stubs = core.Stubs

// NewSpy creates a spy with its own ledger.
func NewSpy(opts ...Option) *Spy {
	return core.NewSpy(opts...)
}

// NewSpyOn creates a spy recording into ledger.
func NewSpyOn(ledger *Ledger) *Spy {
	return core.NewSpyOn(ledger)
}

// Invoke records a call to signature and returns its stubbed result.
func Invoke[In, Out any](s *Spy, signature string, input In) (Out, error) {
	return core.Invoke[In, Out](s, signature, input)
}

// Stub sets the result returned for calls to signature.
func Stub[Out any](s *Spy, signature string, value Out, err error) {
	core.Stub(s, signature, value, err)
}

// withCallSite pins the location to the caller of the public wrapper, which is
// one frame further up than core would capture.
func withCallSite(opts []CheckOption) []CheckOption {
	return append([]CheckOption{core.At(core.Here(2))}, opts...)
}
