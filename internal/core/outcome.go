package core

import (
	"fmt"
	"reflect"
	"slices"
)

// Call is a recorded call whose input has been downcast to In.
type Call[In any] struct {
	RecordedCall

	Input In
}

// outcome is the state shared by every result type: the matching calls and
// whether a failure has already emptied them. Once failed, refinements return
// empty results without reporting again.
type outcome[In any] struct {
	v          *Verifier
	signature  string
	location   SourceLocation
	mode       Mode
	outputType reflect.Type
	calls      []Call[In]
	failed     bool
}

func (o outcome[In]) contains(id uint64) bool {
	return slices.ContainsFunc(o.calls, func(call Call[In]) bool { return call.ID == id })
}

func (o outcome[In]) fail(kind FailureKind, message string) outcome[In] {
	o.v.report(Failure{
		Kind:      kind,
		Signature: o.signature,
		Message:   message,
		Location:  o.location,
	})

	return o.with(nil, true)
}

func (o outcome[In]) first() (Call[In], error) {
	if len(o.calls) == 0 {
		return Call[In]{}, &NoCallsError{Signature: o.signature}
	}

	return o.calls[0], nil
}

func (o outcome[In]) last() (Call[In], error) {
	if len(o.calls) == 0 {
		return Call[In]{}, &NoCallsError{Signature: o.signature}
	}

	return o.calls[len(o.calls)-1], nil
}

func (o outcome[In]) matching() []Call[In] {
	return append([]Call[In](nil), o.calls...)
}

func (o outcome[In]) with(calls []Call[In], failed bool) outcome[In] {
	o.calls = calls
	o.failed = failed

	return o
}

// narrowCount checks the call count against r.
func (o outcome[In]) narrowCount(r Range, describe string, kind FailureKind) outcome[In] {
	if o.failed {
		return o
	}

	if !r.Contains(len(o.calls)) {
		return o.fail(kind, fmt.Sprintf(
			"Expected `%s` to be called %s, but %d calls were recorded",
			o.signature, describe, len(o.calls),
		))
	}

	return o
}

func (o outcome[In]) where(predicate func(Call[In]) bool) outcome[In] {
	if o.failed {
		return o
	}

	var kept []Call[In]

	for _, call := range o.calls {
		if predicate(call) {
			kept = append(kept, call)
		}
	}

	if len(kept) == 0 {
		return o.fail(PredicateMismatch, fmt.Sprintf(
			"None of the %d calls to `%s` satisfied the predicate",
			len(o.calls), o.signature,
		))
	}

	return o.with(kept, false)
}

func (o outcome[In]) happening(order Order) outcome[In] {
	if o.failed {
		return o
	}

	ledger := o.v.ledger

	switch order.kind {
	case orderFirst:
		first, ok := ledger.First()
		if ok && o.contains(first.ID) {
			return o
		}

		return o.fail(OrderingMismatch, fmt.Sprintf(
			"Expected `%s` to be the first recorded call, but %s happened first",
			o.signature, describeOther(first, ok),
		))
	case orderLast:
		last, ok := ledger.Last()
		if ok && o.contains(last.ID) {
			return o
		}

		return o.fail(OrderingMismatch, fmt.Sprintf(
			"Expected `%s` to be the last recorded call, but %s happened last",
			o.signature, describeOther(last, ok),
		))
	case orderAfter:
		var kept []Call[In]

		for _, call := range o.calls {
			if call.ID > order.call.ID {
				kept = append(kept, call)
			}
		}

		if len(kept) == 0 {
			return o.fail(OrderingMismatch, fmt.Sprintf(
				"No calls to `%s` were recorded after %s",
				o.signature, describeOther(order.call, true),
			))
		}

		return o.with(kept, false)
	case orderImmediatelyAfter:
		next, ok := ledger.CallAfter(order.call)
		if !ok {
			return o.fail(OrderingMismatch, fmt.Sprintf(
				"Expected `%s` to be called immediately after %s, but no call was recorded after it",
				o.signature, describeOther(order.call, true),
			))
		}

		for _, call := range o.calls {
			if call.ID == next.ID {
				return o.with([]Call[In]{call}, false)
			}
		}

		return o.fail(OrderingMismatch, fmt.Sprintf(
			"Expected `%s` to be called immediately after %s, but %s was recorded next",
			o.signature, describeOther(order.call, true), describeOther(next, true),
		))
	default:
		panic(fmt.Sprintf("unknown order kind %d", order.kind))
	}
}

func describeOther(call RecordedCall, ok bool) string {
	if !ok {
		return "no calls were recorded"
	}

	return fmt.Sprintf("`%s%s` (call #%d)", call.Signature, DescribeInput(call.Input), call.ID)
}

// Order is a position constraint for Happening.
type Order struct {
	kind orderKind
	call RecordedCall
}

// After requires calls recorded after call. The result is narrowed to them.
func After(call RecordedCall) Order {
	return Order{kind: orderAfter, call: call}
}

// First requires the earliest call in the ledger to be among the matches.
func First() Order {
	return Order{kind: orderFirst}
}

// ImmediatelyAfter requires the call that directly follows call in the ledger
// to be among the matches. The result is narrowed to that call.
func ImmediatelyAfter(call RecordedCall) Order {
	return Order{kind: orderImmediatelyAfter, call: call}
}

// Last requires the latest call in the ledger to be among the matches.
func Last() Order {
	return Order{kind: orderLast}
}

type orderKind int

const (
	orderFirst orderKind = iota
	orderLast
	orderAfter
	orderImmediatelyAfter
)
