package framework

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/launchdarkly/go-fluent-steps/event"
)

type environment struct {
	results    Results
	testLogger TestLogger
	filter     Filter
}

type silentTestLogger struct{}

func (silentTestLogger) TestStarted(TestID)                        {}
func (silentTestLogger) TestError(TestID, error)                   {}
func (silentTestLogger) TestFinished(TestID, bool, CapturedOutput) {}
func (silentTestLogger) TestSkipped(TestID, string)                {}

// Context is the state of one test. It implements require.TestingT, so testify assertions
// and the check package can be used with it directly.
type Context struct {
	env         *environment
	id          TestID
	debugLogger CapturingLogger
	firing      *event.Firing
	steps       context.Context
	deferred    []func()
	failed      bool
	skipped     bool
	skipReason  string
	errors      []error
}

// Run runs the root test action and returns the results of it and all of its subtests.
func Run(
	filter func(TestID) bool,
	testLogger TestLogger,
	action func(*Context),
) Results {
	if testLogger == nil {
		testLogger = silentTestLogger{}
	}
	env := &environment{
		filter:     filter,
		testLogger: testLogger,
	}
	c := newContext(env, TestID{})
	c.run(action)
	return env.results
}

func newContext(env *environment, id TestID) *Context {
	c := &Context{env: env, id: id}
	c.firing = event.NewFiring().AddLoggers(event.NewPrintfLogger(&c.debugLogger))
	c.steps = event.WithFiring(context.Background(), c.firing)
	return c
}

func (c *Context) run(action func(*Context)) {
	defer func() {
		if r := recover(); r != nil && !c.skipped {
			c.failed = true
			var addError error
			if _, ok := r.(*Context); ok {
				if len(c.errors) == 0 {
					addError = errors.New("test failed with no failure message")
				}
			} else {
				addError = fmt.Errorf("unexpected panic in test: %+v\n%s", r, string(debug.Stack()))
			}
			if addError != nil {
				c.errors = append(c.errors, addError)
				c.env.testLogger.TestError(c.id, addError)
			}
		}
		c.runDeferred()
		result := TestResult{TestID: c.id, Errors: c.errors, Skipped: c.skipped}
		c.env.results.Tests = append(c.env.results.Tests, result)
		if c.failed {
			c.env.results.Failures = append(c.env.results.Failures, result)
		}
	}()

	action(c)
}

func (c *Context) runDeferred() {
	for i := len(c.deferred) - 1; i >= 0; i-- {
		func() {
			defer func() {
				if r := recover(); r != nil && r != c {
					c.Errorf("unexpected panic in deferred action: %+v", r)
				}
			}()
			c.deferred[i]()
		}()
	}
	c.deferred = nil
}

func (c *Context) ID() TestID {
	return c.id
}

// Run runs a subtest, unless the filter excludes it.
func (c *Context) Run(name string, action func(*Context)) {
	id := TestID{Path: append(append([]string(nil), c.id.Path...), name)}

	c.env.testLogger.TestStarted(id)
	if c.env.filter != nil && !c.env.filter(id) {
		c.env.testLogger.TestSkipped(id, "excluded by filter parameters")
		c.env.results.Tests = append(c.env.results.Tests, TestResult{TestID: id, Skipped: true})
		return
	}
	c1 := newContext(c.env, id)
	c1.run(action)
	if c1.skipped {
		c.env.testLogger.TestSkipped(id, c1.skipReason)
	} else {
		c.env.testLogger.TestFinished(id, c1.failed, c1.debugLogger.Output())
	}
}

// Defer schedules an action to run when the test ends, whether it passed or not. Deferred
// actions run in reverse order.
func (c *Context) Defer(action func()) {
	c.deferred = append(c.deferred, action)
}

func (c *Context) Errorf(format string, args ...interface{}) {
	c.failed = true
	err := fmt.Errorf(format, args...)
	c.errors = append(c.errors, err)
	c.env.testLogger.TestError(c.id, reformatError(err))
}

func (c *Context) FailNow() {
	panic(c)
}

func (c *Context) Failed() bool {
	return c.failed
}

func (c *Context) Skip() {
	c.skipped = true
	panic(c)
}

func (c *Context) SkipWithReason(reason string) {
	c.skipReason = reason
	c.Skip()
}

func (c *Context) Debug(message string, args ...interface{}) {
	c.debugLogger.Printf(message, args...)
}

func (c *Context) DebugLogger() Logger {
	return &c.debugLogger
}

// Steps returns a context.Context for running steps in this test. Step events are written to
// the test's debug output, and captors registered with the event package are active.
func (c *Context) Steps() context.Context {
	return c.steps
}

// Firing returns the event firing of this test, for adding loggers or captors to it.
func (c *Context) Firing() *event.Firing {
	return c.firing
}
