package core

import (
	"fmt"
	"reflect"
	"sync"
)

// Spy is the runtime half of a stand-in: it records calls into its ledger and
// serves stubbed results. Generated or hand-written stand-ins embed or hold
// one and call Invoke from each method.
type Spy struct {
	ledger *Ledger
	stubs  *Stubs
}

// NewSpy creates a spy with its own ledger.
func NewSpy(opts ...Option) *Spy {
	return NewSpyOn(NewLedger(opts...))
}

// NewSpyOn creates a spy recording into ledger, for stand-ins that share a
// ledger (see Shared and Scope).
func NewSpyOn(ledger *Ledger) *Spy {
	return &Spy{ledger: ledger, stubs: NewStubs()}
}

// Ledger returns the spy's ledger.
func (s *Spy) Ledger() *Ledger {
	return s.ledger
}

// Stubs returns the spy's stub registry.
func (s *Spy) Stubs() *Stubs {
	return s.stubs
}

// Invoke records a call to signature and returns its stubbed result. Without a
// stub, Out's zero value and a nil error are returned.
func Invoke[In, Out any](s *Spy, signature string, input In) (Out, error) {
	RecordCall[In, Out](s.ledger, signature, input)

	return Stubbed[Out](s.stubs, signature)
}

// Stub sets the result returned for calls to signature.
func Stub[Out any](s *Spy, signature string, value Out, err error) {
	s.stubs.Set(signature, value, err)
}

// Stubs is a keyed store of canned results.
type Stubs struct {
	mu      sync.RWMutex
	results map[string]StubResult
}

// NewStubs creates an empty registry.
func NewStubs() *Stubs {
	return &Stubs{results: make(map[string]StubResult)}
}

// Lookup returns the stored result for signature.
func (s *Stubs) Lookup(signature string) (StubResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[signature]

	return result, ok
}

// Set stores the result for signature, replacing any previous one.
func (s *Stubs) Set(signature string, value any, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[signature] = StubResult{Value: value, Err: err}
}

// Stubbed returns the result stored for signature as Out. It panics when the
// stored value is not an Out.
func Stubbed[Out any](s *Stubs, signature string) (Out, error) {
	var zero Out

	result, ok := s.Lookup(signature)
	if !ok || result.Value == nil {
		return zero, result.Err
	}

	typed, ok := result.Value.(Out)
	if !ok {
		panic(fmt.Sprintf("stub for %s holds %T, want %s", signature, result.Value, TypeName(reflect.TypeFor[Out]())))
	}

	return typed, result.Err
}

// StubResult is a canned result.
type StubResult struct {
	Value any
	Err   error
}
