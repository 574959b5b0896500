package core_test

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/toejough/callspy/internal/core"
)

// TestMatchInput covers shape, arity and element comparison.
func TestMatchInput(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name     string
		expected any
		actual   any
		match    bool
	}{
		{"equal scalars", 1, 1, true},
		{"different scalars", 1, 2, false},
		{"scalar type differs", 1, int64(1), false},
		{"nil is void", nil, core.Void{}, true},
		{"equal tuples", core.Pack2("a", 1), core.Pack2("a", 1), true},
		{"tuple element differs", core.Pack2("a", 1), core.Pack2("a", 2), false},
		{"tuple types differ", core.Pack2("a", 1), core.Pack2("a", int64(1)), false},
		{"args against tuple", core.Args{"a", 1}, core.Pack2("a", 1), true},
		{"args arity differs", core.Args{"a"}, core.Pack2("a", 1), false},
		{"args against scalar", core.Args{1}, 1, true},
		{"args with matcher", core.Args{BeNumerically(">", 0), "x"}, core.Pack2(5, "x"), true},
		{"args with failing matcher", core.Args{BeNumerically(">", 10), "x"}, core.Pack2(5, "x"), false},
		{"slices compare deeply", []int{1, 2}, []int{1, 2}, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g := NewWithT(t)

			g.Expect(core.MatchInput(tc.expected, tc.actual)).To(Equal(tc.match))
		})
	}
}

// TestMatchValue_WithMatcher verifies matcher failures carry the matcher's message.
func TestMatchValue_WithMatcher(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	ok, msg := core.MatchValue(5, BeNumerically(">", 10))
	g.Expect(ok).To(BeFalse())
	g.Expect(msg).To(ContainSubstring("to be >"))

	ok, msg = core.MatchValue(5, 5)
	g.Expect(ok).To(BeTrue())
	g.Expect(msg).To(BeEmpty())

	ok, msg = core.MatchValue("a", "b")
	g.Expect(ok).To(BeFalse())
	g.Expect(msg).To(Equal(`expected "b", got "a"`))
}

// TestDescribeInput verifies argument-list rendering for every shape.
func TestDescribeInput(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(core.DescribeInput(core.Void{})).To(Equal("()"))
	g.Expect(core.DescribeInput(nil)).To(Equal("()"))
	g.Expect(core.DescribeInput(1)).To(Equal("(1)"))
	g.Expect(core.DescribeInput(core.Pack3(true, 1, "Hello"))).To(Equal(`(true, 1, "Hello")`))
	g.Expect(core.DescribeInput(core.Args{"a", 2})).To(Equal(`("a", 2)`))
}

// TestElementsOf_Tuples verifies every tuple arity exposes its values in order.
func TestElementsOf_Tuples(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(core.ElementsOf(core.Pack4(1, 2, 3, 4))).To(Equal([]any{1, 2, 3, 4}))
	g.Expect(core.ElementsOf(core.Pack5(1, 2, 3, 4, 5))).To(Equal([]any{1, 2, 3, 4, 5}))
	g.Expect(core.ElementsOf(core.Pack6(1, 2, 3, 4, 5, "6"))).To(Equal([]any{1, 2, 3, 4, 5, "6"}))
}
