package steps

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/launchdarkly/go-fluent-steps/matchers"
)

// Criteria is a described predicate applied to values produced by a step.
type Criteria[T any] struct {
	description string
	test        func(T) bool
}

// Condition creates criteria from a description and a predicate. It panics if either one is
// missing, since that is a mistake in the test code rather than a test failure.
func Condition[T any](description string, test func(T) bool) Criteria[T] {
	description = strings.TrimSpace(description)
	if description == "" {
		panic("criteria must be described")
	}
	if test == nil {
		panic("criteria predicate must not be nil")
	}
	return Criteria[T]{description: description, test: test}
}

// Matches adapts a matcher into criteria described the same way as the matcher.
func Matches[T any](m matchers.Matcher[T]) Criteria[T] {
	return Condition(m.String(), m.Matches)
}

// NotNil matches any value that is not empty in the sense used by get steps.
func NotNil[T any]() Criteria[T] {
	return Condition("is not null", func(v T) bool { return !isEmpty(v) })
}

// StringMatches matches strings that contain the expression as a substring or match it as a
// regular expression.
func StringMatches(expression string) Criteria[string] {
	rx, rxErr := regexp.Compile(expression)
	return Condition(fmt.Sprintf("contains '%s' or meets regExp pattern '%s'", expression, expression),
		func(s string) bool {
			if strings.Contains(s, expression) {
				return true
			}
			return rxErr == nil && rx.MatchString(s)
		})
}

func (c Criteria[T]) Test(v T) bool {
	return c.test(v)
}

func (c Criteria[T]) String() string {
	return c.description
}

// IsDefined is false for the zero value.
func (c Criteria[T]) IsDefined() bool {
	return c.test != nil
}

func joinCriteria[T any](operator string, criteria []Criteria[T]) string {
	parts := make([]string, 0, len(criteria))
	for _, c := range criteria {
		parts = append(parts, "("+c.description+")")
	}
	return strings.Join(parts, " "+operator+" ")
}

func requireCriteria[T any](operator string, criteria []Criteria[T]) {
	if len(criteria) == 0 {
		panic(operator + " needs at least one criteria")
	}
	for _, c := range criteria {
		if !c.IsDefined() {
			panic(operator + " got undefined criteria")
		}
	}
}

// AND matches when every criteria matches.
func AND[T any](criteria ...Criteria[T]) Criteria[T] {
	requireCriteria("AND", criteria)
	if len(criteria) == 1 {
		return criteria[0]
	}
	cs := append([]Criteria[T](nil), criteria...)
	return Condition(joinCriteria("AND", cs), func(v T) bool {
		for _, c := range cs {
			if !c.test(v) {
				return false
			}
		}
		return true
	})
}

// OR matches when at least one criteria matches.
func OR[T any](criteria ...Criteria[T]) Criteria[T] {
	requireCriteria("OR", criteria)
	if len(criteria) == 1 {
		return criteria[0]
	}
	cs := append([]Criteria[T](nil), criteria...)
	return Condition(joinCriteria("OR", cs), func(v T) bool {
		for _, c := range cs {
			if c.test(v) {
				return true
			}
		}
		return false
	})
}

// XOR matches when exactly one criteria matches.
func XOR[T any](criteria ...Criteria[T]) Criteria[T] {
	requireCriteria("XOR", criteria)
	if len(criteria) < 2 {
		panic("XOR needs at least two criteria")
	}
	cs := append([]Criteria[T](nil), criteria...)
	return Condition(joinCriteria("XOR", cs), func(v T) bool {
		matched := 0
		for _, c := range cs {
			if c.test(v) {
				matched++
			}
		}
		return matched == 1
	})
}

// NOT matches when none of the criteria match.
func NOT[T any](criteria ...Criteria[T]) Criteria[T] {
	requireCriteria("NOT", criteria)
	cs := append([]Criteria[T](nil), criteria...)
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, "NOT ("+c.description+")")
	}
	return Condition(strings.Join(parts, " AND "), func(v T) bool {
		for _, c := range cs {
			if c.test(v) {
				return false
			}
		}
		return true
	})
}

type nullable interface {
	IsNull() bool
}

// isEmpty reports whether a value counts as "nothing was found": nil pointers, interfaces,
// maps, slices, channels and functions, empty maps and slices, and values that report
// themselves as null.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Chan, reflect.Func:
		if rv.IsNil() {
			return true
		}
	case reflect.Map, reflect.Slice:
		return rv.IsNil() || rv.Len() == 0
	}
	if n, ok := v.(nullable); ok {
		return n.IsNull()
	}
	return false
}
