package steps

import (
	"errors"
	"fmt"
)

// ErrNoValue is wrapped by the error of a step configured with FailOnEmpty when nothing
// suitable was found in time.
var ErrNoValue = errors.New("no suitable value")

// ConditionError means that evaluating criteria panicked and the step does not ignore such
// failures.
type ConditionError struct {
	Criteria string
	Cause    any
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("checking condition %q failed: %v", e.Criteria, e.Cause)
}

func (e *ConditionError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}
