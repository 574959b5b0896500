package core_test

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	. "github.com/onsi/gomega"
	"pgregory.net/rapid"

	"github.com/toejough/callspy/internal/core"
)

// TestShared_SameKeyReturnsSameLedger verifies the process-wide registry.
func TestShared_SameKeyReturnsSameLedger(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	first := core.Shared(t.Name())
	second := core.Shared(t.Name())

	g.Expect(first).To(BeIdenticalTo(second))
	g.Expect(core.Shared(t.Name() + "/other")).NotTo(BeIdenticalTo(first))
}

// TestScopeFor_SameT_ReturnsSameScope verifies calling ScopeFor with the same
// test returns the same scope.
func TestScopeFor_SameT_ReturnsSameScope(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(core.ScopeFor(t)).To(BeIdenticalTo(core.ScopeFor(t)))
}

// TestScopeFor_DifferentT_ReturnsDifferentScope verifies different tests get
// isolated scopes and ledgers.
func TestScopeFor_DifferentT_ReturnsDifferentScope(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var scope1, scope2 *core.Scope

	t.Run("subtest1", func(t *testing.T) {
		scope1 = core.ScopeFor(t)
	})

	t.Run("subtest2", func(t *testing.T) {
		scope2 = core.ScopeFor(t)
	})

	g.Expect(scope1).NotTo(BeIdenticalTo(scope2))
	g.Expect(scope1.ID()).NotTo(Equal(scope2.ID()))
	g.Expect(scope1.Ledger("clock")).NotTo(BeIdenticalTo(scope2.Ledger("clock")))
}

// TestScopeFor_ConcurrentAccess verifies the registry is safe for concurrent
// access from multiple goroutines.
func TestScopeFor_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	const numGoroutines = 100
	results := make([]*core.Scope, numGoroutines)

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := range numGoroutines {
		go func(idx int) {
			defer wg.Done()
			results[idx] = core.ScopeFor(t)
		}(i)
	}

	wg.Wait()

	for i := 1; i < numGoroutines; i++ {
		g.Expect(results[i]).To(BeIdenticalTo(results[0]))
	}
}

// TestScope_LedgerPerKey verifies a scope hands out one ledger per key.
func TestScope_LedgerPerKey(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		keys := rapid.SliceOfN(rapid.StringMatching(`[a-z]{1,4}`), 1, 20).Draw(rt, "keys")
		scope := core.NewScope()
		seen := make(map[string]*core.Ledger)

		for _, key := range keys {
			ledger := scope.Ledger(key)

			if previous, ok := seen[key]; ok && previous != ledger {
				rt.Fatalf("key %q returned a different ledger", key)
			}

			seen[key] = ledger
		}
	})
}

// TestLedgerFor verifies context resolution prefers the carried scope.
func TestLedgerFor(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	key := t.Name()
	scope := core.NewScope()
	ctx := core.WithScope(context.Background(), scope)

	found, ok := core.ScopeFrom(ctx)
	g.Expect(ok).To(BeTrue())
	g.Expect(found).To(BeIdenticalTo(scope))

	g.Expect(core.LedgerFor(ctx, key)).To(BeIdenticalTo(scope.Ledger(key)))
	g.Expect(core.LedgerFor(context.Background(), key)).To(BeIdenticalTo(core.Shared(key)))

	_, ok = core.ScopeFrom(context.Background())
	g.Expect(ok).To(BeFalse())
}

// TestScope_LedgerLogsCarryScope verifies scope ledgers tag their log records
// with the scope id and key.
func TestScope_LedgerLogsCarryScope(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	scope := core.NewScope(core.WithLogger(logger))
	ledger := scope.Ledger("clock.Now")

	core.RecordCall[core.Void, core.Void](ledger, "Now", core.Void{})
	ledger.Subscribe("Now", true).Close()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	g.Expect(lines).To(HaveLen(2))
	g.Expect(string(lines[0])).To(ContainSubstring("call recorded"))
	g.Expect(string(lines[1])).To(ContainSubstring("subscribed"))

	for _, line := range lines {
		g.Expect(string(line)).To(ContainSubstring("scope=" + scope.ID().String()))
		g.Expect(string(line)).To(ContainSubstring("key=clock.Now"))
	}
}
