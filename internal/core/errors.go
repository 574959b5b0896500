package core

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNoCallsRecorded is returned by the throwing-style accessors when a
	// result holds no calls.
	ErrNoCallsRecorded = errors.New("no calls recorded")
	// ErrSubscriptionClosed is returned by Subscription.Next after Close.
	ErrSubscriptionClosed = errors.New("subscription closed")
)

// NoCallsError reports an empty result for a signature.
type NoCallsError struct {
	Signature string
}

func (e *NoCallsError) Error() string {
	return fmt.Sprintf("no calls to `%s` were recorded", e.Signature)
}

// Unwrap lets errors.Is match ErrNoCallsRecorded.
func (e *NoCallsError) Unwrap() error {
	return ErrNoCallsRecorded
}

// FailureKind classifies a reported failure.
type FailureKind int

// Failure kinds.
const (
	NoCalls FailureKind = iota
	TypeMismatch
	InputMismatch
	ExclusiveConflict
	CountMismatch
	RangeMismatch
	PredicateMismatch
	OrderingMismatch
	ConfirmationTimeout
	ExcessCallDetected
)

func (k FailureKind) String() string {
	switch k {
	case NoCalls:
		return "no calls"
	case TypeMismatch:
		return "type mismatch"
	case InputMismatch:
		return "input mismatch"
	case ExclusiveConflict:
		return "exclusive conflict"
	case CountMismatch:
		return "count mismatch"
	case RangeMismatch:
		return "range mismatch"
	case PredicateMismatch:
		return "predicate mismatch"
	case OrderingMismatch:
		return "ordering mismatch"
	case ConfirmationTimeout:
		return "confirmation timeout"
	case ExcessCallDetected:
		return "excess call detected"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Failure is one reported verification failure.
type Failure struct {
	Kind      FailureKind
	Signature string
	Message   string
	Location  SourceLocation
}
