package steps

import (
	"context"
	"fmt"
	"time"
)

// ListStep obtains a list of E from a context of type C, keeping the items that satisfy the
// criteria. The result is suitable once at least one item is kept.
type ListStep[C, E any] struct {
	settings
	start    func(ctx context.Context, c C) (func(context.Context) ([]E, error), error)
	criteria []Criteria[E]
}

// ListFrom creates a list step that calls source on every attempt.
func ListFrom[C, E any](description string, source func(ctx context.Context, c C) ([]E, error)) *ListStep[C, E] {
	if source == nil {
		panic("step source must not be nil")
	}
	return &ListStep[C, E]{
		settings: newSettings(description),
		start: func(_ context.Context, c C) (func(context.Context) ([]E, error), error) {
			return func(ctx context.Context) ([]E, error) { return source(ctx, c) }, nil
		},
	}
}

// ChainList creates a list step that first gets a value with the previous step, then calls f
// on that value on every attempt.
func ChainList[C, A, E any](description string, from *GetStep[C, A], f func(ctx context.Context, a A) ([]E, error)) *ListStep[C, E] {
	if from == nil || f == nil {
		panic("chained step needs a previous step and a function")
	}
	return &ListStep[C, E]{
		settings: newSettings(description),
		start: func(ctx context.Context, c C) (func(context.Context) ([]E, error), error) {
			a, err := from.Get(ctx, c)
			if err != nil {
				return nil, err
			}
			if isEmpty(a) {
				return func(context.Context) ([]E, error) { return nil, nil }, nil
			}
			return func(ctx context.Context) ([]E, error) { return f(ctx, a) }, nil
		},
	}
}

func (l *ListStep[C, E]) Criteria(criteria ...Criteria[E]) *ListStep[C, E] {
	for _, c := range criteria {
		if !c.IsDefined() {
			panic("criteria must be defined")
		}
	}
	l.criteria = append(l.criteria, criteria...)
	return l
}

func (l *ListStep[C, E]) Timeout(d time.Duration) *ListStep[C, E] {
	l.setTimeout(d)
	return l
}

func (l *ListStep[C, E]) Polling(d time.Duration) *ListStep[C, E] {
	l.setPolling(d)
	return l
}

func (l *ListStep[C, E]) OnEmpty(f func() error) *ListStep[C, E] {
	l.onEmpty = f
	return l
}

func (l *ListStep[C, E]) FailOnEmpty() *ListStep[C, E] {
	return l.OnEmpty(func() error {
		return fmt.Errorf("%w: %s", ErrNoValue, l.String())
	})
}

func (l *ListStep[C, E]) Ignore(predicate func(error) bool) *ListStep[C, E] {
	l.ignored = append(l.ignored, predicate)
	return l
}

func (l *ListStep[C, E]) IgnoreErrors(targets ...error) *ListStep[C, E] {
	return l.Ignore(isAnyOf(targets))
}

func (l *ListStep[C, E]) IgnoreConditionFailures() *ListStep[C, E] {
	l.ignoreConditionPanic = true
	return l
}

func (l *ListStep[C, E]) CaptureOnSuccess(enabled bool) *ListStep[C, E] {
	l.captureOnSuccess = enabled
	return l
}

func (l *ListStep[C, E]) CaptureOnFailure(enabled bool) *ListStep[C, E] {
	l.captureOnFailure = enabled
	return l
}

func (l *ListStep[C, E]) CriteriaDescription() string {
	if len(l.criteria) == 0 {
		return ""
	}
	return AND(l.criteria...).String()
}

func (l *ListStep[C, E]) String() string {
	return l.fullDescription(l.CriteriaDescription())
}

// Get runs the step. When nothing suitable is found in time it returns the last (empty)
// filtered list and the OnEmpty error, which is nil unless configured.
func (l *ListStep[C, E]) Get(ctx context.Context, c C) ([]E, error) {
	return run(ctx, &l.settings, l.String(), c, func(ctx context.Context) ([]E, error) {
		attempt, err := l.start(ctx, c)
		if err != nil {
			return nil, err
		}
		var criteria Criteria[any]
		if len(l.criteria) > 0 {
			combined := AND(l.criteria...)
			criteria = Condition(combined.String(), func(v any) bool { return combined.Test(v.(E)) })
		}

		var filtered []E
		_, ok, err := Poll(ctx, l.wait,
			func(ctx context.Context) ([]E, error) {
				items, err := attempt(ctx)
				if err != nil && l.isIgnored(err) {
					return nil, nil
				}
				return items, err
			},
			func(items []E) (bool, error) {
				filtered = nil
				for _, item := range items {
					if criteria.IsDefined() {
						matched, err := l.test(ctx, criteria, item)
						if err != nil {
							return false, err
						}
						if !matched {
							continue
						}
					}
					filtered = append(filtered, item)
				}
				return len(filtered) > 0, nil
			})
		if err != nil {
			return nil, err
		}
		if !ok && l.onEmpty != nil {
			if err := l.onEmpty(); err != nil {
				return nil, err
			}
		}
		return filtered, nil
	})
}
