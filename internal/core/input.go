package core

import (
	"fmt"
	"reflect"
	"strings"
)

// Packed is implemented by every multi-value input shape. Elements returns the
// positional values in call order.
type Packed interface {
	Elements() []any
}

// Void is the input of a call that takes no arguments.
type Void struct{}

// Elements returns no values.
func (Void) Elements() []any { return nil }

// Args is an untyped pack of positional values of any arity.
type Args []any

// Elements returns the values themselves.
func (a Args) Elements() []any { return a }

// Tuple2 is a typed pack of two positional values.
type Tuple2[A, B any] struct {
	V1 A
	V2 B
}

// Elements returns the values in order.
func (t Tuple2[A, B]) Elements() []any { return []any{t.V1, t.V2} }

// Tuple3 is a typed pack of three positional values.
type Tuple3[A, B, C any] struct {
	V1 A
	V2 B
	V3 C
}

// Elements returns the values in order.
func (t Tuple3[A, B, C]) Elements() []any { return []any{t.V1, t.V2, t.V3} }

// Tuple4 is a typed pack of four positional values.
type Tuple4[A, B, C, D any] struct {
	V1 A
	V2 B
	V3 C
	V4 D
}

// Elements returns the values in order.
func (t Tuple4[A, B, C, D]) Elements() []any { return []any{t.V1, t.V2, t.V3, t.V4} }

// Tuple5 is a typed pack of five positional values.
type Tuple5[A, B, C, D, E any] struct {
	V1 A
	V2 B
	V3 C
	V4 D
	V5 E
}

// Elements returns the values in order.
func (t Tuple5[A, B, C, D, E]) Elements() []any { return []any{t.V1, t.V2, t.V3, t.V4, t.V5} }

// Tuple6 is a typed pack of six positional values.
type Tuple6[A, B, C, D, E, F any] struct {
	V1 A
	V2 B
	V3 C
	V4 D
	V5 E
	V6 F
}

// Elements returns the values in order.
func (t Tuple6[A, B, C, D, E, F]) Elements() []any {
	return []any{t.V1, t.V2, t.V3, t.V4, t.V5, t.V6}
}

// Pack2 builds a Tuple2.
func Pack2[A, B any](v1 A, v2 B) Tuple2[A, B] {
	return Tuple2[A, B]{v1, v2}
}

// Pack3 builds a Tuple3.
func Pack3[A, B, C any](v1 A, v2 B, v3 C) Tuple3[A, B, C] {
	return Tuple3[A, B, C]{v1, v2, v3}
}

// Pack4 builds a Tuple4.
func Pack4[A, B, C, D any](v1 A, v2 B, v3 C, v4 D) Tuple4[A, B, C, D] {
	return Tuple4[A, B, C, D]{v1, v2, v3, v4}
}

// Pack5 builds a Tuple5.
func Pack5[A, B, C, D, E any](v1 A, v2 B, v3 C, v4 D, v5 E) Tuple5[A, B, C, D, E] {
	return Tuple5[A, B, C, D, E]{v1, v2, v3, v4, v5}
}

// Pack6 builds a Tuple6.
func Pack6[A, B, C, D, E, F any](v1 A, v2 B, v3 C, v4 D, v5 E, v6 F) Tuple6[A, B, C, D, E, F] {
	return Tuple6[A, B, C, D, E, F]{v1, v2, v3, v4, v5, v6}
}

// DescribeInput renders an input as an argument list: "()", "(1)", "(true, 1, "Hello")".
func DescribeInput(input any) string {
	elements := ElementsOf(input)
	parts := make([]string, len(elements))

	for i, element := range elements {
		parts[i] = fmt.Sprintf("%#v", element)
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

// ElementsOf returns the positional values of input. Scalars are a pack of one.
func ElementsOf(input any) []any {
	if input == nil {
		return nil
	}

	if packed, ok := input.(Packed); ok {
		return packed.Elements()
	}

	return []any{input}
}

// TypeName renders a type descriptor for diagnostics. Empty interfaces read as
// "any"; a nil descriptor reads as "any" too, since it filters nothing.
func TypeName(typ reflect.Type) string {
	if typ == nil {
		return "any"
	}

	if typ.Kind() == reflect.Interface && typ.NumMethod() == 0 {
		return "any"
	}

	return typ.String()
}

// downcast interprets input as In. An interface In accepts any input that
// implements it, including Void when In is any.
func downcast[In any](input any) (In, bool) {
	typed, ok := input.(In)

	return typed, ok
}

// inputFilterFor builds the ledger filter that accepts inputs downcastable to In.
func inputFilterFor[In any]() InputFilter {
	if isWildcard(reflect.TypeFor[In]()) {
		return nil
	}

	return func(input any) bool {
		_, ok := downcast[In](input)

		return ok
	}
}

// isWildcard reports whether a type filter accepts every value.
func isWildcard(typ reflect.Type) bool {
	return typ == nil || (typ.Kind() == reflect.Interface && typ.NumMethod() == 0)
}
