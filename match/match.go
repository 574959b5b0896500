// Package match provides matchers for use inside callspy.Args expectations,
// alongside gomega matchers:
//
//	callspy.AssertWasCalledWith(v, "add", callspy.Args{BeNumerically(">", 0), match.BeAny})
//
// Satisfy shares its name with gomega's, so import this package by name when
// gomega is dot-imported.
package match

import (
	"errors"
	"fmt"
	"reflect"
)

// errTypeMismatch is a sentinel error for type assertion failures.
var errTypeMismatch = errors.New("type mismatch")

// Matcher defines the interface for flexible value matching.
// Compatible with gomega.GomegaMatcher via duck typing - any type
// implementing Match and FailureMessage will work.
type Matcher interface {
	Match(actual any) (success bool, err error)
	FailureMessage(actual any) string
}

// BeAny is a matcher that matches any value.
// Useful when you don't care about a particular argument.
//
//nolint:gochecknoglobals // Intentional exported constant-like value
var BeAny Matcher = anyMatcher{}

// BeOfType matches values whose dynamic type is T.
func BeOfType[T any]() Matcher {
	return typeMatcher[T]{}
}

// Satisfy returns a matcher that uses a predicate function to check for a match.
// The predicate should return nil if the value matches, or an error describing
// the mismatch if it does not.
//
// Example:
//
//	callspy.Args{Satisfy(func(x int) error {
//	    if x < 0 { return fmt.Errorf("expected positive, got %d", x) }
//	    return nil
//	})}
func Satisfy[T any](predicate func(T) error) Matcher {
	return &satisfyMatcher[T]{predicate: predicate}
}

// anyMatcher is the implementation of the BeAny matcher.
type anyMatcher struct{}

// FailureMessage returns an empty string since BeAny always matches.
func (anyMatcher) FailureMessage(any) string {
	return ""
}

// Match always returns true - matches any value.
func (anyMatcher) Match(any) (bool, error) {
	return true, nil
}

// GoString keeps diffs readable when BeAny appears in an expected input.
func (anyMatcher) GoString() string {
	return "BeAny"
}

type satisfyMatcher[T any] struct {
	predicate func(T) error
	lastErr   error
}

func (m *satisfyMatcher[T]) FailureMessage(actual any) string {
	if m.lastErr != nil {
		return fmt.Sprintf("value %v does not satisfy predicate: %v", actual, m.lastErr)
	}

	return fmt.Sprintf("value %v does not satisfy predicate", actual)
}

func (m *satisfyMatcher[T]) GoString() string {
	return fmt.Sprintf("Satisfy[%s]", reflect.TypeFor[T]())
}

func (m *satisfyMatcher[T]) Match(actual any) (bool, error) {
	val, ok := actual.(T)

	if !ok {
		return false, fmt.Errorf("%w: expected %T, got %T", errTypeMismatch, *new(T), actual)
	}

	m.lastErr = m.predicate(val)

	return m.lastErr == nil, nil
}

type typeMatcher[T any] struct{}

func (typeMatcher[T]) FailureMessage(actual any) string {
	return fmt.Sprintf("expected a %s, got %T", reflect.TypeFor[T](), actual)
}

func (typeMatcher[T]) GoString() string {
	return fmt.Sprintf("BeOfType[%s]", reflect.TypeFor[T]())
}

func (typeMatcher[T]) Match(actual any) (bool, error) {
	_, ok := actual.(T)

	return ok, nil
}
