package core_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/toejough/callspy/internal/core"
)

// TestConfirmFirst_TimesOut verifies the timeout message for a signature that
// is never called.
func TestConfirmFirst_TimesOut(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, v, reporter := fixture()

	confirmation := core.ConfirmFirst[core.Void](context.Background(), v, "rab", core.Within(time.Millisecond))

	_, ok := confirmation.MatchingCall()
	g.Expect(ok).To(BeFalse())
	g.Expect(failureKinds(v)).To(Equal([]core.FailureKind{core.ConfirmationTimeout}))
	g.Expect(reporter.Messages()).To(Equal([]string{
		"No calls to `rab` with input type `core.Void` and output type `any` were recorded",
	}))
}

// TestConfirmFirstWith_FutureCall verifies a call recorded while waiting is
// confirmed.
func TestConfirmFirstWith_FutureCall(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	ledger, v, reporter := fixture()

	go func() {
		time.Sleep(10 * time.Millisecond)
		core.RecordCall[core.Tuple3[bool, int, string], core.Void](ledger, "rab", core.Pack3(true, 1, "Hello"))
	}()

	call, ok := core.ConfirmFirstWith(context.Background(), v, "rab", core.Pack3(true, 1, "Hello"),
		core.Within(5*time.Second)).
		ExactlyOnce().
		MatchingCall()

	g.Expect(reporter.Messages()).To(BeEmpty())
	g.Expect(ok).To(BeTrue())
	g.Expect(call.Input.V1).To(BeTrue())
	g.Expect(call.Input.V2).To(Equal(1))
}

// TestConfirmFirst_ReplaysRecordedCalls verifies calls recorded before the
// confirmation count unless FutureOnly is given.
func TestConfirmFirst_ReplaysRecordedCalls(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	ledger, v, reporter := fixture()
	core.RecordCall[int, core.Void](ledger, "foo", 1)

	confirmation := core.ConfirmFirst[int](context.Background(), v, "foo", core.Within(time.Second))
	defer confirmation.Close()

	call, err := confirmation.GetMatchingCall()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(call.Input).To(Equal(1))

	core.ConfirmFirst[int](context.Background(), v, "foo", core.FutureOnly(), core.Within(10*time.Millisecond))

	messages := reporter.Messages()
	g.Expect(messages).To(HaveLen(1))
	g.Expect(messages[0]).To(HavePrefix(
		"No calls to `foo` with input type `int` and output type `any` were recorded",
	))
	g.Expect(messages[0]).To(ContainSubstring("+foo(1) -> core.Void"))
}

// TestConfirmFirst_SkipsOtherTypes verifies calls of another input type are
// passed over while waiting.
func TestConfirmFirst_SkipsOtherTypes(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	ledger, v, reporter := fixture()

	go func() {
		time.Sleep(10 * time.Millisecond)
		core.RecordCall[string, core.Void](ledger, "foo", "skip")
		core.RecordCall[int, core.Void](ledger, "foo", 2)
	}()

	call, ok := core.ConfirmFirst[int](context.Background(), v, "foo", core.Within(5*time.Second)).
		ExactlyOnce().
		MatchingCall()

	g.Expect(reporter.Messages()).To(BeEmpty())
	g.Expect(ok).To(BeTrue())
	g.Expect(call.ID).To(Equal(uint64(2)))
}

// TestConfirmFirst_ParentCancelIsTimeout verifies a cancelled context ends the
// wait like a deadline.
func TestConfirmFirst_ParentCancelIsTimeout(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, v, _ := fixture()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	core.ConfirmFirst[any](ctx, v, "foo", core.Within(0))

	g.Expect(failureKinds(v)).To(Equal([]core.FailureKind{core.ConfirmationTimeout}))
}

// TestConfirmFirst_Occurring verifies the count is reached by later calls.
func TestConfirmFirst_Occurring(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	ledger, v, reporter := fixture()

	go func() {
		for i := range 2 {
			time.Sleep(5 * time.Millisecond)
			core.RecordCall[int, core.Void](ledger, "foo", i)
		}
	}()

	confirmed := core.ConfirmFirst[int](context.Background(), v, "foo", core.Within(5*time.Second)).Occurring(2)

	g.Expect(reporter.Messages()).To(BeEmpty())
	g.Expect(confirmed.MatchingCalls()).To(HaveLen(2))

	last, err := confirmed.GetLastMatchingCall()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(last.Input).To(Equal(1))
}

// TestConfirmFirst_RefinedAfterWaiting verifies which calls count toward a
// refinement once the deadline has fired or passed.
func TestConfirmFirst_RefinedAfterWaiting(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name     string
		before   int
		advance  time.Duration
		after    int
		refine   func(*core.FirstConfirmation[int]) *core.ConfirmedCalls[int]
		messages []string
		calls    int
	}{
		{
			name:    "calls queued before the deadline count",
			before:  2,
			advance: 2 * time.Second,
			refine: func(f *core.FirstConfirmation[int]) *core.ConfirmedCalls[int] {
				return f.Occurring(2)
			},
			calls: 2,
		},
		{
			name:    "calls recorded after the deadline do not count",
			before:  1,
			advance: 2 * time.Second,
			after:   1,
			refine: func(f *core.FirstConfirmation[int]) *core.ConfirmedCalls[int] {
				return f.Occurring(2)
			},
			messages: []string{
				"Expected `foo` to be called 2 times, but only 1 calls were recorded before timing out",
			},
		},
		{
			name:   "count shortfall",
			before: 1,
			refine: func(f *core.FirstConfirmation[int]) *core.ConfirmedCalls[int] {
				return f.Occurring(2)
			},
			messages: []string{
				"Expected `foo` to be called 2 times, but only 1 calls were recorded before timing out",
			},
		},
		{
			name:   "count shortfall keeps partial matches",
			before: 2,
			refine: func(f *core.FirstConfirmation[int]) *core.ConfirmedCalls[int] {
				return f.Occurring(3)
			},
			messages: []string{
				"Expected `foo` to be called 3 times, but only 2 calls were recorded before timing out",
			},
		},
		{
			name:   "range shortfall",
			before: 1,
			refine: func(f *core.FirstConfirmation[int]) *core.ConfirmedCalls[int] {
				return f.OccurringWithin(core.AtLeast(3))
			},
			messages: []string{
				"Expected `foo` to be called within 3... times, but only 1 calls were recorded before timing out",
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			clock := newManualClock()
			timer := newFakeTimer()
			ledger, v, reporter := fixture(core.WithClock(clock), core.WithTimer(timer),
				core.WithDefaultDeadline(time.Second))

			for i := range tc.before {
				core.RecordCall[int, core.Void](ledger, "foo", i)
			}

			confirmation := core.ConfirmFirst[int](context.Background(), v, "foo")

			clock.Advance(tc.advance)
			timer.Fire()

			for i := range tc.after {
				core.RecordCall[int, core.Void](ledger, "foo", tc.before+i)
			}

			confirmed := tc.refine(confirmation)

			if tc.messages == nil {
				g.Expect(reporter.Messages()).To(BeEmpty())
			} else {
				g.Expect(reporter.Messages()).To(Equal(tc.messages))
			}

			g.Expect(confirmed.MatchingCalls()).To(HaveLen(tc.calls))
		})
	}
}

// TestConfirmFirst_RefinedAfterDeadlineRealTime verifies calls that arrived in
// time still count when the refinement starts after the deadline.
func TestConfirmFirst_RefinedAfterDeadlineRealTime(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	ledger, v, reporter := fixture()

	go func() {
		time.Sleep(time.Millisecond)
		core.RecordCall[int, core.Void](ledger, "foo", 1)
		core.RecordCall[int, core.Void](ledger, "foo", 2)
	}()

	confirmation := core.ConfirmFirst[int](context.Background(), v, "foo",
		core.FutureOnly(), core.Within(50*time.Millisecond))

	time.Sleep(60 * time.Millisecond)

	confirmed := confirmation.Occurring(2)

	g.Expect(reporter.Messages()).To(BeEmpty())
	g.Expect(confirmed.MatchingCalls()).To(HaveLen(2))
}

// TestConfirmFirst_ExactlyOnceTrailing verifies an extra call is reported only
// when the trailing watch is enabled.
func TestConfirmFirst_ExactlyOnceTrailing(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name  string
		opts  []core.Option
		kinds []core.FailureKind
	}{
		{"disabled", nil, []core.FailureKind{}},
		{"enabled", []core.Option{core.WaitForTrailingFailure()}, []core.FailureKind{core.ExcessCallDetected}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			ledger, v, reporter := fixture(tc.opts...)
			core.RecordCall[int, core.Void](ledger, "foo", 1)
			core.RecordCall[int, core.Void](ledger, "foo", 2)

			core.ConfirmFirst[int](context.Background(), v, "foo", core.Within(time.Second)).ExactlyOnce()

			g.Expect(failureKinds(v)).To(Equal(tc.kinds))

			if len(tc.kinds) > 0 {
				g.Expect(reporter.Messages()[0]).To(Equal(
					"Expected `foo` to be called exactly once, but an additional call was recorded: `foo(2)` (call #2)",
				))
			}
		})
	}
}

// TestConfirmFirst_OccurringWithin verifies the lower bound is awaited and the
// upper bound is watched when trailing failures are enabled.
func TestConfirmFirst_OccurringWithin(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	ledger, v, reporter := fixture(core.WaitForTrailingFailure())

	for i := range 3 {
		core.RecordCall[int, core.Void](ledger, "foo", i)
	}

	within := core.ConfirmFirst[int](context.Background(), v, "foo", core.Within(time.Second)).
		OccurringWithin(core.AtLeast(2))
	g.Expect(reporter.Messages()).To(BeEmpty())
	g.Expect(within.MatchingCalls()).To(HaveLen(2))

	core.ConfirmFirst[int](context.Background(), v, "foo", core.Within(time.Second)).
		OccurringWithin(core.Between(1, 2))
	g.Expect(failureKinds(v)).To(Equal([]core.FailureKind{core.RangeMismatch}))
	g.Expect(reporter.Messages()[0]).To(Equal(
		"Expected `foo` to be called within 1...2 times, but 3 calls were recorded",
	))
}

// TestConfirmFirst_ConcurrentConfirmationsShareACall verifies two waiters on
// one signature both observe the same call.
func TestConfirmFirst_ConcurrentConfirmationsShareACall(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	ledger, v, reporter := fixture()
	results := make(chan uint64, 2)

	for range 2 {
		go func() {
			call, ok := core.ConfirmFirst[core.Void](context.Background(), v, "foo",
				core.Within(5*time.Second)).ExactlyOnce().MatchingCall()
			if ok {
				results <- call.ID
			} else {
				results <- 0
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)

	id := core.RecordCall[core.Void, core.Void](ledger, "foo", core.Void{})

	g.Eventually(results).Should(Receive(Equal(id)))
	g.Eventually(results).Should(Receive(Equal(id)))
	g.Expect(reporter.Messages()).To(BeEmpty())
}
