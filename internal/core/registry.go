package core

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Shared returns the process-wide ledger for key, creating it on first use.
// Static stand-ins that have no owning instance record into a shared ledger
// keyed by a stable identity such as their type name. opts only apply when the
// ledger is created.
func Shared(key string, opts ...Option) *Ledger {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if ledger, ok := shared[key]; ok {
		return ledger
	}

	ledger := NewLedger(opts...)
	shared[key] = ledger

	return ledger
}

// Scope isolates the ledgers of static stand-ins for the duration of one test.
type Scope struct {
	id   uuid.UUID
	opts []Option

	mu      sync.Mutex
	ledgers map[string]*Ledger
}

// NewScope creates an empty scope. opts apply to every ledger it creates.
func NewScope(opts ...Option) *Scope {
	return &Scope{
		id:      uuid.New(),
		opts:    opts,
		ledgers: make(map[string]*Ledger),
	}
}

// ID returns the scope's unique identity.
func (s *Scope) ID() uuid.UUID {
	return s.id
}

// Ledger returns the scope's ledger for key, creating it on first use. Its log
// records carry the scope id and key.
func (s *Scope) Ledger(key string) *Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ledger, ok := s.ledgers[key]; ok {
		return ledger
	}

	ledger := NewLedger(s.opts...)
	ledger.logger = ledger.logger.With("scope", s.id.String(), "key", key)
	s.ledgers[key] = ledger

	return ledger
}

// ScopeFor returns the scope for the given test, creating one if needed.
// Multiple calls with the same test return the same scope.
//
// If the test supports Cleanup (like *testing.T), the scope is
// automatically removed from the registry when the test completes.
func ScopeFor(t TestingT, opts ...Option) *Scope {
	scopesMu.Lock()
	defer scopesMu.Unlock()

	if scope, ok := scopes[t]; ok {
		return scope
	}

	scope := NewScope(opts...)
	scopes[t] = scope

	if cr, ok := t.(cleanupRegistrar); ok {
		cr.Cleanup(func() {
			scopesMu.Lock()
			delete(scopes, t)
			scopesMu.Unlock()
		})
	}

	return scope
}

// ScopeFrom returns the scope carried by ctx.
func ScopeFrom(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(scopeKey{}).(*Scope)

	return scope, ok && scope != nil
}

// WithScope returns a context carrying scope.
func WithScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// LedgerFor resolves the ledger for key: the scope's ledger when ctx carries a
// scope, the shared one otherwise.
func LedgerFor(ctx context.Context, key string) *Ledger {
	if scope, ok := ScopeFrom(ctx); ok {
		return scope.Ledger(key)
	}

	return Shared(key)
}

// unexported variables.
var (
	//nolint:gochecknoglobals // process-wide ledgers live for the process lifetime
	shared = make(map[string]*Ledger)
	//nolint:gochecknoglobals // Mutex for shared
	sharedMu sync.Mutex
	//nolint:gochecknoglobals // Package-level registry is intentional for test coordination
	scopes = make(map[TestingT]*Scope)
	//nolint:gochecknoglobals // Mutex for scopes
	scopesMu sync.Mutex
)

type scopeKey struct{}
