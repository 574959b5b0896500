package core

import (
	"reflect"
	"sync"
	"time"
)

// Verifier binds a ledger to the failure sink of one test. Assertions and
// confirmations are run through it; every failure is reported to the sink and
// kept for inspection via Failures.
type Verifier struct {
	reporter Reporter
	ledger   *Ledger
	cfg      Config

	mu       sync.Mutex
	failures []Failure
	subs     []*Subscription
}

// NewVerifier creates a Verifier. If reporter supports Cleanup (like the
// ForTest adapter over *testing.T), open subscriptions are closed when the test
// completes.
func NewVerifier(reporter Reporter, ledger *Ledger, opts ...Option) *Verifier {
	verifier := &Verifier{
		reporter: reporter,
		ledger:   ledger,
		cfg:      NewConfig(opts...),
	}

	if registrar, ok := reporter.(cleanupRegistrar); ok {
		registrar.Cleanup(verifier.Close)
	}

	return verifier
}

// Close closes every subscription still held by unfinished confirmations.
func (v *Verifier) Close() {
	v.mu.Lock()
	subs := v.subs
	v.subs = nil
	v.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// Config returns the verifier's configuration.
func (v *Verifier) Config() Config {
	return v.cfg
}

// Failures returns every failure reported so far, in report order.
func (v *Verifier) Failures() []Failure {
	v.mu.Lock()
	defer v.mu.Unlock()

	return append([]Failure(nil), v.failures...)
}

// Ledger returns the verified ledger.
func (v *Verifier) Ledger() *Ledger {
	return v.ledger
}

func (v *Verifier) release(sub *Subscription) {
	sub.Close()

	v.mu.Lock()
	defer v.mu.Unlock()

	for i, candidate := range v.subs {
		if candidate == sub {
			v.subs = append(v.subs[:i], v.subs[i+1:]...)

			break
		}
	}
}

func (v *Verifier) report(failure Failure) {
	v.mu.Lock()
	v.failures = append(v.failures, failure)
	v.mu.Unlock()

	v.cfg.Logger.Info("verification failed",
		"kind", failure.Kind.String(),
		"signature", failure.Signature,
		"location", failure.Location.String(),
	)

	v.reporter.Report(failure.Message, failure.Location)
}

func (v *Verifier) subscribe(signature string, replay bool) *Subscription {
	sub := v.ledger.Subscribe(signature, replay)

	v.mu.Lock()
	v.subs = append(v.subs, sub)
	v.mu.Unlock()

	return sub
}

// Mode selects how calls to the same signature that do not match an
// expectation are treated.
type Mode int

// Modes.
const (
	// ModeExclusive fails when calls to the signature do not match.
	ModeExclusive Mode = iota
	// ModeNonExclusive ignores calls to the signature that do not match.
	ModeNonExclusive
)

// CheckOption configures one assertion or confirmation.
type CheckOption func(*checkSettings)

// At overrides the captured call site.
func At(location SourceLocation) CheckOption {
	return func(s *checkSettings) { s.location = &location }
}

// FutureOnly makes a confirmation ignore calls recorded before it subscribed.
func FutureOnly() CheckOption {
	return func(s *checkSettings) { s.futureOnly = true }
}

// InMode sets the assertion mode.
func InMode(mode Mode) CheckOption {
	return func(s *checkSettings) { s.mode = mode }
}

// NonExclusive is shorthand for InMode(ModeNonExclusive).
func NonExclusive() CheckOption {
	return InMode(ModeNonExclusive)
}

// Returning filters calls by output type.
func Returning[Out any]() CheckOption {
	return func(s *checkSettings) { s.outputType = reflect.TypeFor[Out]() }
}

// Within sets a confirmation deadline. Zero means no deadline.
func Within(d time.Duration) CheckOption {
	return func(s *checkSettings) { s.deadline = &d }
}

type checkSettings struct {
	mode       Mode
	outputType reflect.Type
	location   *SourceLocation
	deadline   *time.Duration
	futureOnly bool
}

// newCheckSettings applies opts; skip locates the user's call site relative to
// the caller of newCheckSettings.
func newCheckSettings(opts []CheckOption, skip int) checkSettings {
	var settings checkSettings

	for _, opt := range opts {
		opt(&settings)
	}

	if settings.location == nil {
		location := Here(skip + 1)
		settings.location = &location
	}

	return settings
}

func outputMatches(filter, actual reflect.Type) bool {
	return isWildcard(filter) || filter == actual
}
