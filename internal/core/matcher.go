package core

import (
	"fmt"
	"reflect"
)

// Matcher defines the interface for flexible value matching.
// Compatible with gomega.GomegaMatcher via duck typing - any type
// implementing Match and FailureMessage will work.
type Matcher interface {
	Match(actual any) (success bool, err error)
	FailureMessage(actual any) string
}

// MatchInput reports whether a stored input matches an expected one.
//
// The stored value must have the expected shape: the same dynamic type, or, for
// an expected Args, any pack of the same arity. A shape mismatch is simply no
// match. Elements are then compared in order, stopping at the first mismatch.
func MatchInput(expected, actual any) bool {
	_, ok := explainInputMismatch(expected, actual)

	return ok
}

// MatchValue checks if actual matches expected.
// If expected implements the Matcher interface, uses its Match method.
// Otherwise, uses reflect.DeepEqual for comparison.
// Returns (success, errorMessage). If success is true, errorMessage is empty.
func MatchValue(actual, expected any) (bool, string) {
	if matcher, ok := expected.(Matcher); ok {
		success, err := matcher.Match(actual)
		if err != nil {
			return false, err.Error()
		}

		if !success {
			return false, matcher.FailureMessage(actual)
		}

		return true, ""
	}

	if reflect.DeepEqual(actual, expected) {
		return true, ""
	}

	return false, fmt.Sprintf("expected %#v, got %#v", expected, actual)
}

// explainInputMismatch compares inputs and describes the first difference.
func explainInputMismatch(expected, actual any) (string, bool) {
	if expected == nil {
		expected = Void{}
	}

	if actual == nil {
		actual = Void{}
	}

	_, loose := expected.(Args)
	if !loose && reflect.TypeOf(expected) != reflect.TypeOf(actual) {
		return fmt.Sprintf("expected input of type %T, got %T", expected, actual), false
	}

	want := ElementsOf(expected)
	got := ElementsOf(actual)

	if len(want) != len(got) {
		return fmt.Sprintf("expected %d args, got %d", len(want), len(got)), false
	}

	for i := range want {
		if ok, msg := MatchValue(got[i], want[i]); !ok {
			return fmt.Sprintf("arg %d: %s", i, msg), false
		}
	}

	return "", true
}
