// Package matchers provides self-describing, type-safe matchers in the style of Hamcrest.
package matchers

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Matcher checks a value and explains why a value does not match.
type Matcher[T any] interface {
	Matches(actual T) bool
	DescribeMismatch(actual T) string
	String() string
}

type funcMatcher[T any] struct {
	description string
	match       func(T) bool
	mismatch    func(T) string
}

func (m funcMatcher[T]) Matches(actual T) bool { return m.match(actual) }
func (m funcMatcher[T]) String() string        { return m.description }

func (m funcMatcher[T]) DescribeMismatch(actual T) string {
	if m.mismatch != nil {
		return m.mismatch(actual)
	}
	return "was " + DescribeValue(actual)
}

// New creates a matcher from a description and a predicate. The mismatch description is
// "was <actual>".
func New[T any](description string, match func(T) bool) Matcher[T] {
	if match == nil {
		panic("matcher predicate must not be nil")
	}
	return funcMatcher[T]{description: description, match: match}
}

// Diagnosing creates a matcher whose predicate writes its own mismatch description while
// matching.
func Diagnosing[T any](description string, match func(actual T, mismatch *strings.Builder) bool) Matcher[T] {
	if match == nil {
		panic("matcher predicate must not be nil")
	}
	return funcMatcher[T]{
		description: description,
		match: func(actual T) bool {
			var b strings.Builder
			return match(actual, &b)
		},
		mismatch: func(actual T) string {
			var b strings.Builder
			if match(actual, &b) {
				return ""
			}
			return b.String()
		},
	}
}

// Described replaces the description of another matcher.
func Described[T any](description string, m Matcher[T]) Matcher[T] {
	return funcMatcher[T]{description: description, match: m.Matches, mismatch: m.DescribeMismatch}
}

// DescribeValue renders a value the way matcher descriptions show it.
func DescribeValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", x)
	case fmt.Stringer:
		if isNil(v) {
			return "null"
		}
		return "<" + x.String() + ">"
	case error:
		return "<" + x.Error() + ">"
	}
	if isNil(v) {
		return "null"
	}
	return fmt.Sprintf("<%v>", v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}

func Anything[T any]() Matcher[T] {
	return New("ANYTHING", func(T) bool { return true })
}

// EqualTo matches values equal to the expected one in the sense of testify's ObjectsAreEqual.
func EqualTo[T any](expected T) Matcher[T] {
	return New(DescribeValue(expected), func(actual T) bool {
		return assert.ObjectsAreEqual(expected, actual)
	})
}

func Is[T any](m Matcher[T]) Matcher[T] {
	return funcMatcher[T]{description: "is " + m.String(), match: m.Matches, mismatch: m.DescribeMismatch}
}

// IsValue is shorthand for Is(EqualTo(expected)).
func IsValue[T any](expected T) Matcher[T] {
	return Is(EqualTo(expected))
}

func Not[T any](m Matcher[T]) Matcher[T] {
	return New("not "+m.String(), func(actual T) bool { return !m.Matches(actual) })
}

func Nil[T any]() Matcher[T] {
	return New("null", func(actual T) bool { return isNil(actual) })
}

func NotNil[T any]() Matcher[T] {
	return Not(Nil[T]())
}

func joinDescriptions[T any](ms []Matcher[T], operator string) string {
	parts := make([]string, 0, len(ms))
	for _, m := range ms {
		parts = append(parts, m.String())
	}
	return "(" + strings.Join(parts, " "+operator+" ") + ")"
}

// AllOf matches when every matcher matches; the mismatch names the first one that does not.
func AllOf[T any](ms ...Matcher[T]) Matcher[T] {
	return funcMatcher[T]{
		description: joinDescriptions(ms, "and"),
		match: func(actual T) bool {
			for _, m := range ms {
				if !m.Matches(actual) {
					return false
				}
			}
			return true
		},
		mismatch: func(actual T) string {
			for _, m := range ms {
				if !m.Matches(actual) {
					return m.String() + " " + m.DescribeMismatch(actual)
				}
			}
			return ""
		},
	}
}

func AnyOf[T any](ms ...Matcher[T]) Matcher[T] {
	return New(joinDescriptions(ms, "or"), func(actual T) bool {
		for _, m := range ms {
			if m.Matches(actual) {
				return true
			}
		}
		return false
	})
}

func GreaterThan[T cmp.Ordered](bound T) Matcher[T] {
	return New(fmt.Sprintf("a value greater than %s", DescribeValue(bound)), func(actual T) bool {
		return actual > bound
	})
}

func LessThan[T cmp.Ordered](bound T) Matcher[T] {
	return New(fmt.Sprintf("a value less than %s", DescribeValue(bound)), func(actual T) bool {
		return actual < bound
	})
}

// Explain returns a Hamcrest-style explanation of a mismatch, or "" if the value matches.
func Explain[T any](reason string, actual T, m Matcher[T]) string {
	if m.Matches(actual) {
		return ""
	}
	var b strings.Builder
	if reason != "" {
		b.WriteString(reason)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Expected: %s\n     but: %s", m, m.DescribeMismatch(actual))
	return b.String()
}

// Assert reports a test failure if the value does not match. It returns whether it matched.
func Assert[T any](t assert.TestingT, actual T, m Matcher[T], msgAndArgs ...interface{}) bool {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	if explanation := Explain(messageFromArgs(msgAndArgs), actual, m); explanation != "" {
		t.Errorf("%s", explanation)
		return false
	}
	return true
}

// Require is like Assert but stops the test on a mismatch.
func Require[T any](t require.TestingT, actual T, m Matcher[T], msgAndArgs ...interface{}) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	if !Assert(t, actual, m, msgAndArgs...) {
		t.FailNow()
	}
}

func messageFromArgs(msgAndArgs []interface{}) string {
	switch len(msgAndArgs) {
	case 0:
		return ""
	case 1:
		if s, ok := msgAndArgs[0].(string); ok {
			return s
		}
		return fmt.Sprintf("%+v", msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprint(msgAndArgs...)
}
