package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/launchdarkly/go-fluent-steps/event"
)

// settings are shared by get steps and list steps.
type settings struct {
	description          string
	wait                 Wait
	timeoutSet           bool
	onEmpty              func() error
	ignored              []func(error) bool
	ignoreConditionPanic bool
	captureOnSuccess     bool
	captureOnFailure     bool
}

func newSettings(description string) settings {
	description = strings.TrimSpace(description)
	if description == "" {
		panic("step must be described")
	}
	return settings{description: description, captureOnFailure: true}
}

func (s *settings) setTimeout(d time.Duration) {
	if d < 0 {
		panic(fmt.Sprintf("timeout must not be negative, got %s", d))
	}
	s.wait.Timeout = d
	s.timeoutSet = true
}

func (s *settings) setPolling(d time.Duration) {
	if d < 0 {
		panic(fmt.Sprintf("polling interval must not be negative, got %s", d))
	}
	s.wait.Polling = d
}

func (s *settings) isIgnored(err error) bool {
	for _, ignore := range s.ignored {
		if ignore(err) {
			return true
		}
	}
	return false
}

func (s *settings) fullDescription(criteria string) string {
	d := s.description
	if criteria != "" {
		d = fmt.Sprintf("%s with condition %s", d, criteria)
	}
	if s.timeoutSet {
		d = fmt.Sprintf("%s. Time to get valuable result: %s", d, FormatDuration(s.wait.Timeout))
	}
	return d
}

// test evaluates criteria, turning a panic into a ConditionError or a mismatch.
func (s *settings) test(ctx context.Context, criteria Criteria[any], v any) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			if s.ignoreConditionPanic {
				event.FromContext(ctx).ErrorThrown(fmt.Errorf("ignored failure checking %q: %v", criteria, r))
				matched, err = false, nil
				return
			}
			matched, err = false, &ConditionError{Criteria: criteria.String(), Cause: r}
		}
	}()
	return criteria.Test(v), nil
}

// run fires the step events around the body and offers the outcome to captors.
func run[C, T any](
	ctx context.Context,
	s *settings,
	description string,
	c C,
	body func(context.Context) (T, error),
) (T, error) {
	firing := event.FromContext(ctx)
	firing.StepStarted(description)
	defer firing.StepFinished()

	value, err := body(ctx)
	if err != nil {
		if s.captureOnFailure {
			firing.Catch(c, description)
		}
		firing.ErrorThrown(err)
		return value, err
	}
	if s.captureOnSuccess {
		firing.Catch(value, description)
	}
	firing.ValueReturned(value)
	return value, nil
}

// GetStep obtains a value of type T from a context of type C, retrying until the value
// satisfies the criteria or the timeout elapses.
type GetStep[C, T any] struct {
	settings
	start    func(ctx context.Context, c C) (func(context.Context) ([]T, error), error)
	criteria []Criteria[T]
}

// From creates a step that calls source on every attempt.
func From[C, T any](description string, source func(ctx context.Context, c C) (T, error)) *GetStep[C, T] {
	if source == nil {
		panic("step source must not be nil")
	}
	return &GetStep[C, T]{
		settings: newSettings(description),
		start: func(_ context.Context, c C) (func(context.Context) ([]T, error), error) {
			return func(ctx context.Context) ([]T, error) {
				return single(source(ctx, c))
			}, nil
		},
	}
}

// FromList creates a step that returns the first item of the list returned by source that
// satisfies the criteria.
func FromList[C, T any](description string, source func(ctx context.Context, c C) ([]T, error)) *GetStep[C, T] {
	if source == nil {
		panic("step source must not be nil")
	}
	return &GetStep[C, T]{
		settings: newSettings(description),
		start: func(_ context.Context, c C) (func(context.Context) ([]T, error), error) {
			return func(ctx context.Context) ([]T, error) {
				return source(ctx, c)
			}, nil
		},
	}
}

// Chain creates a step that first gets a value with the previous step, then calls f on that
// value on every attempt. If the previous step finds nothing, neither does this one.
func Chain[C, A, T any](description string, from *GetStep[C, A], f func(ctx context.Context, a A) (T, error)) *GetStep[C, T] {
	if from == nil || f == nil {
		panic("chained step needs a previous step and a function")
	}
	return &GetStep[C, T]{
		settings: newSettings(description),
		start: func(ctx context.Context, c C) (func(context.Context) ([]T, error), error) {
			a, err := from.Get(ctx, c)
			if err != nil {
				return nil, err
			}
			if isEmpty(a) {
				return func(context.Context) ([]T, error) { return nil, nil }, nil
			}
			return func(ctx context.Context) ([]T, error) {
				return single(f(ctx, a))
			}, nil
		},
	}
}

// FirstOf creates a step returning the first item found by a list step.
func FirstOf[C, E any](list *ListStep[C, E]) *GetStep[C, E] {
	return FromList(list.description, func(ctx context.Context, c C) ([]E, error) {
		return list.Get(ctx, c)
	})
}

func single[T any](v T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if isEmpty(v) {
		return nil, nil
	}
	return []T{v}, nil
}

func (g *GetStep[C, T]) Criteria(criteria ...Criteria[T]) *GetStep[C, T] {
	for _, c := range criteria {
		if !c.IsDefined() {
			panic("criteria must be defined")
		}
	}
	g.criteria = append(g.criteria, criteria...)
	return g
}

func (g *GetStep[C, T]) Timeout(d time.Duration) *GetStep[C, T] {
	g.setTimeout(d)
	return g
}

func (g *GetStep[C, T]) Polling(d time.Duration) *GetStep[C, T] {
	g.setPolling(d)
	return g
}

// OnEmpty sets the error returned when nothing suitable was found in time.
func (g *GetStep[C, T]) OnEmpty(f func() error) *GetStep[C, T] {
	g.onEmpty = f
	return g
}

// FailOnEmpty makes the step return an error wrapping ErrNoValue when nothing suitable was
// found in time.
func (g *GetStep[C, T]) FailOnEmpty() *GetStep[C, T] {
	return g.OnEmpty(func() error {
		return fmt.Errorf("%w: %s", ErrNoValue, g.String())
	})
}

// Ignore makes the step treat errors accepted by the predicate as an empty attempt.
func (g *GetStep[C, T]) Ignore(predicate func(error) bool) *GetStep[C, T] {
	g.ignored = append(g.ignored, predicate)
	return g
}

// IgnoreErrors ignores errors matching any of the targets with errors.Is.
func (g *GetStep[C, T]) IgnoreErrors(targets ...error) *GetStep[C, T] {
	return g.Ignore(isAnyOf(targets))
}

// IgnoreConditionFailures makes a panic inside criteria count as a mismatch.
func (g *GetStep[C, T]) IgnoreConditionFailures() *GetStep[C, T] {
	g.ignoreConditionPanic = true
	return g
}

func (g *GetStep[C, T]) CaptureOnSuccess(enabled bool) *GetStep[C, T] {
	g.captureOnSuccess = enabled
	return g
}

func (g *GetStep[C, T]) CaptureOnFailure(enabled bool) *GetStep[C, T] {
	g.captureOnFailure = enabled
	return g
}

// CriteriaDescription describes the combined criteria, or returns "" if there are none.
func (g *GetStep[C, T]) CriteriaDescription() string {
	if len(g.criteria) == 0 {
		return ""
	}
	return AND(g.criteria...).String()
}

func (g *GetStep[C, T]) String() string {
	return g.fullDescription(g.CriteriaDescription())
}

// Get runs the step. When nothing suitable is found in time it returns the zero value and
// the OnEmpty error, which is nil unless configured.
func (g *GetStep[C, T]) Get(ctx context.Context, c C) (T, error) {
	return run(ctx, &g.settings, g.String(), c, func(ctx context.Context) (T, error) {
		var zero T
		attempt, err := g.start(ctx, c)
		if err != nil {
			return zero, err
		}
		var criteria Criteria[any]
		if len(g.criteria) > 0 {
			combined := AND(g.criteria...)
			criteria = Condition(combined.String(), func(v any) bool { return combined.Test(v.(T)) })
		}

		var found T
		_, ok, err := Poll(ctx, g.wait,
			func(ctx context.Context) ([]T, error) {
				items, err := attempt(ctx)
				if err != nil && g.isIgnored(err) {
					return nil, nil
				}
				return items, err
			},
			func(items []T) (bool, error) {
				for _, item := range items {
					if isEmpty(item) {
						continue
					}
					if criteria.IsDefined() {
						matched, err := g.test(ctx, criteria, item)
						if err != nil {
							return false, err
						}
						if !matched {
							continue
						}
					}
					found = item
					return true, nil
				}
				return false, nil
			})
		if err != nil {
			return zero, err
		}
		if !ok {
			if g.onEmpty != nil {
				if err := g.onEmpty(); err != nil {
					return zero, err
				}
			}
			return zero, nil
		}
		return found, nil
	})
}

func isAnyOf(targets []error) func(error) bool {
	return func(err error) bool {
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}
}
