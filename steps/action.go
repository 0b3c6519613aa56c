package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/launchdarkly/go-fluent-steps/event"
)

// ActionStep performs an action on a value of type T within a context of type C. The value
// comes from a get step or is fixed.
type ActionStep[C, T any] struct {
	description string
	action      func(ctx context.Context, c C, v T) error
	target      func(ctx context.Context, c C) (T, error)
	targetDesc  string
}

// Action creates an action step. It panics on an empty description or a nil action.
func Action[C, T any](description string, action func(ctx context.Context, c C, v T) error) *ActionStep[C, T] {
	description = strings.TrimSpace(description)
	if description == "" {
		panic("action must be described")
	}
	if action == nil {
		panic("action must not be nil")
	}
	return &ActionStep[C, T]{description: description, action: action}
}

// On makes the action use the value produced by the step.
func (a *ActionStep[C, T]) On(step *GetStep[C, T]) *ActionStep[C, T] {
	a.target = step.Get
	a.targetDesc = step.String()
	return a
}

// OnValue makes the action use a fixed value.
func (a *ActionStep[C, T]) OnValue(v T) *ActionStep[C, T] {
	a.target = func(context.Context, C) (T, error) { return v, nil }
	a.targetDesc = ""
	return a
}

func (a *ActionStep[C, T]) String() string {
	return a.description
}

// Perform resolves the target and runs the action. On success the target value and the
// context are offered to captors; on failure only the context is.
func (a *ActionStep[C, T]) Perform(ctx context.Context, c C) error {
	if a.target == nil {
		panic(fmt.Sprintf("action %q has no target", a.description))
	}
	firing := event.FromContext(ctx)
	firing.StepStarted(a.description)
	defer firing.StepFinished()

	v, err := a.target(ctx, c)
	if err == nil && isEmpty(v) && a.targetDesc != "" {
		err = fmt.Errorf("%w: %s", ErrNoValue, a.targetDesc)
	}
	if err == nil {
		err = a.action(ctx, c, v)
	}
	if err != nil {
		firing.Catch(c, a.description)
		firing.ErrorThrown(err)
		return err
	}
	firing.Catch(v, a.description)
	firing.Catch(c, a.description)
	return nil
}
