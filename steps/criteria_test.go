package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

var (
	isEven     = Condition("is even", func(n int) bool { return n%2 == 0 })
	isPositive = Condition("is positive", func(n int) bool { return n > 0 })
	isSmall    = Condition("is small", func(n int) bool { return n < 10 })
)

func TestConditionRequiresDescriptionAndPredicate(t *testing.T) {
	assert.Panics(t, func() { Condition("  ", func(int) bool { return true }) })
	assert.Panics(t, func() { Condition[int]("something", nil) })
	assert.Equal(t, "trimmed", Condition(" trimmed ", func(int) bool { return true }).String())
}

func TestCombinedCriteriaDescriptions(t *testing.T) {
	assert.Equal(t, "(is even) AND (is positive)", AND(isEven, isPositive).String())
	assert.Equal(t, "(is even) OR (is positive)", OR(isEven, isPositive).String())
	assert.Equal(t, "(is even) XOR (is positive)", XOR(isEven, isPositive).String())
	assert.Equal(t, "NOT (is even)", NOT(isEven).String())
	assert.Equal(t, "NOT (is even) AND NOT (is small)", NOT(isEven, isSmall).String())
	assert.Equal(t, "is even", AND(isEven).String())
}

func TestCombinedCriteriaNeedOperands(t *testing.T) {
	assert.Panics(t, func() { AND[int]() })
	assert.Panics(t, func() { OR[int]() })
	assert.Panics(t, func() { XOR(isEven) })
	assert.Panics(t, func() { NOT(Criteria[int]{}) })
}

func TestXORMatchesExactlyOne(t *testing.T) {
	c := XOR(isEven, isPositive, isSmall)
	assert.True(t, c.Test(-3))  // small only
	assert.False(t, c.Test(3))  // positive and small
	assert.False(t, c.Test(2))  // all three
	assert.True(t, c.Test(-12)) // even only
}

func TestCriteriaAlgebra(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(-100, 100).Draw(t, "n")
		a, b := isEven.Test(n), isPositive.Test(n)
		if AND(isEven, isPositive).Test(n) != (a && b) {
			t.Fatalf("AND mismatch for %d", n)
		}
		if OR(isEven, isPositive).Test(n) != (a || b) {
			t.Fatalf("OR mismatch for %d", n)
		}
		if XOR(isEven, isPositive).Test(n) != (a != b) {
			t.Fatalf("XOR mismatch for %d", n)
		}
		if NOT(isEven, isPositive).Test(n) != (!a && !b) {
			t.Fatalf("NOT mismatch for %d", n)
		}
	})
}

func TestStringMatches(t *testing.T) {
	c := StringMatches("a+b")
	assert.True(t, c.Test("xx a+b yy"))
	assert.True(t, c.Test("aaab"))
	assert.False(t, c.Test("ab+"))
}

type nullValue struct{ null bool }

func (n nullValue) IsNull() bool { return n.null }

func TestIsEmpty(t *testing.T) {
	var nilPtr *int
	var nilSlice []string
	assert.True(t, isEmpty(nil))
	assert.True(t, isEmpty(nilPtr))
	assert.True(t, isEmpty(nilSlice))
	assert.True(t, isEmpty(map[string]int{}))
	assert.True(t, isEmpty(nullValue{null: true}))
	assert.False(t, isEmpty(nullValue{}))
	assert.False(t, isEmpty(""))
	assert.False(t, isEmpty(0))
	assert.False(t, isEmpty([]int{1}))
}
