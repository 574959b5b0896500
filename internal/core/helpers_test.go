package core_test

import (
	"sync"
	"time"

	"github.com/toejough/callspy/internal/core"
)

// recordingReporter captures every reported failure.
type recordingReporter struct {
	mu        sync.Mutex
	messages  []string
	locations []core.SourceLocation
}

func (r *recordingReporter) Report(message string, location core.SourceLocation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = append(r.messages, message)
	r.locations = append(r.locations, location)
}

func (r *recordingReporter) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.messages...)
}

// fixture builds a fresh ledger and a verifier reporting into a recorder.
func fixture(opts ...core.Option) (*core.Ledger, *core.Verifier, *recordingReporter) {
	reporter := &recordingReporter{}
	ledger := core.NewLedger(opts...)

	return ledger, core.NewVerifier(reporter, ledger, opts...), reporter
}

// failureKinds lists the kinds reported so far.
func failureKinds(v *core.Verifier) []core.FailureKind {
	failures := v.Failures()
	kinds := make([]core.FailureKind, len(failures))

	for i, failure := range failures {
		kinds[i] = failure.Kind
	}

	return kinds
}

// fakeTimer fires only when told to.
type fakeTimer struct {
	ch chan time.Time
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{ch: make(chan time.Time, 1)}
}

func (f *fakeTimer) After(time.Duration) <-chan time.Time {
	return f.ch
}

func (f *fakeTimer) Fire() {
	f.ch <- time.Time{}
}

// manualClock only moves when advanced.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}
