// Package check verifies a value against any number of matchers as one step, collecting every
// mismatch instead of stopping at the first.
package check

import (
	"context"
	"fmt"
	"strings"

	"github.com/launchdarkly/go-fluent-steps/matchers"
	"github.com/launchdarkly/go-fluent-steps/steps"

	"github.com/stretchr/testify/require"
)

// MatchAction checks one aspect of a value. It returns a mismatch explanation, or "".
type MatchAction[T any] struct {
	description string
	check       func(T) string
}

func (a MatchAction[T]) String() string {
	return a.description
}

// Match checks the value itself.
func Match[T any](m matchers.Matcher[T]) MatchAction[T] {
	return MatchAction[T]{
		description: m.String(),
		check:       func(v T) string { return matchers.Explain("", v, m) },
	}
}

// Eval checks a value computed from the inspected one.
func Eval[T, R any](description string, f func(T) R, m matchers.Matcher[R]) MatchAction[T] {
	if strings.TrimSpace(description) == "" {
		panic("evaluation must be described")
	}
	return MatchAction[T]{
		description: fmt.Sprintf("%s %s", description, m),
		check: func(v T) string {
			return matchers.Explain(fmt.Sprintf("Evaluated value '%s'", description), f(v), m)
		},
	}
}

// MismatchError lists every mismatch found by a check.
type MismatchError struct {
	Mismatches []string
}

func (e *MismatchError) Error() string {
	return "List of mismatches:\n" + strings.Join(e.Mismatches, ";\n\n")
}

// Verify runs every action against the value within a step named "Verify <description>".
// It panics if the description is blank or there are no actions.
func Verify[T any](ctx context.Context, description string, value T, actions ...MatchAction[T]) error {
	if strings.TrimSpace(description) == "" {
		panic("description of the value to check must not be blank")
	}
	if len(actions) == 0 {
		panic("at least one match action must be defined")
	}
	return steps.Action("Verify "+strings.TrimSpace(description), func(_ context.Context, _ struct{}, v T) error {
		var mismatches []string
		for _, a := range actions {
			if m := a.check(v); m != "" {
				mismatches = append(mismatches, m)
			}
		}
		if len(mismatches) > 0 {
			return &MismatchError{Mismatches: mismatches}
		}
		return nil
	}).OnValue(value).Perform(ctx, struct{}{})
}

// VerifyValue is Verify with the description "inspected value <value>".
func VerifyValue[T any](ctx context.Context, value T, actions ...MatchAction[T]) error {
	return Verify(ctx, fmt.Sprintf("inspected value %v", value), value, actions...)
}

// Require verifies the value and fails the test with every mismatch. When t also provides
// Steps() the check's events go to that test's step context.
func Require[T any](t require.TestingT, description string, value T, actions ...MatchAction[T]) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	ctx := context.Background()
	if s, ok := t.(interface{ Steps() context.Context }); ok {
		ctx = s.Steps()
	}
	if err := Verify(ctx, description, value, actions...); err != nil {
		t.Errorf("%s", err)
		t.FailNow()
	}
}
