package check

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/launchdarkly/go-fluent-steps/event"
	"github.com/launchdarkly/go-fluent-steps/matchers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeT struct {
	ctx    context.Context
	errors []string
	failed bool
}

func (f *fakeT) Errorf(format string, args ...interface{}) {
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
}

func (f *fakeT) FailNow() {
	f.failed = true
}

func (f *fakeT) Steps() context.Context {
	return f.ctx
}

type stepNames struct{ started []string }

func (s *stepNames) StepStarted(d string) { s.started = append(s.started, d) }
func (s *stepNames) ErrorThrown(error)    {}
func (s *stepNames) ValueReturned(any)    {}
func (s *stepNames) StepFinished()        {}

func TestVerifyPasses(t *testing.T) {
	err := Verify(context.Background(), "greeting", "hello world",
		Match(matchers.StartsWith("hello")),
		Eval("length", func(s string) int { return len(s) }, matchers.EqualTo(11)),
	)
	assert.NoError(t, err)
}

func TestVerifyCollectsAllMismatches(t *testing.T) {
	err := Verify(context.Background(), "greeting", "hello world",
		Match(matchers.StartsWith("bye")),
		Match(matchers.ContainsString("world")),
		Eval("length", func(s string) int { return len(s) }, matchers.EqualTo(3)),
	)
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Len(t, mismatch.Mismatches, 2)
	assert.Equal(t, strings.Join([]string{
		"List of mismatches:",
		`Expected: a string starting with "bye"`,
		`     but: was "hello world";`,
		"",
		"Evaluated value 'length'",
		"Expected: <3>",
		"     but: was <11>",
	}, "\n"), err.Error())
}

func TestVerifyFiresStep(t *testing.T) {
	names := &stepNames{}
	ctx := event.WithFiring(context.Background(), event.NewFiring().AddLoggers(names))
	require.NoError(t, VerifyValue(ctx, 42, Match(matchers.GreaterThan(0))))
	assert.Equal(t, []string{"Verify inspected value 42"}, names.started)
}

func TestVerifyRequiresDescriptionAndActions(t *testing.T) {
	assert.Panics(t, func() { _ = Verify(context.Background(), " ", 1, Match(matchers.EqualTo(1))) })
	assert.Panics(t, func() { _ = Verify[int](context.Background(), "number", 1) })
	assert.Panics(t, func() { Eval("", func(i int) int { return i }, matchers.EqualTo(1)) })
}

func TestRequireFailsTestWithMismatches(t *testing.T) {
	names := &stepNames{}
	ft := &fakeT{ctx: event.WithFiring(context.Background(), event.NewFiring().AddLoggers(names))}
	Require(ft, "number", 5, Match(matchers.EqualTo(5)))
	assert.False(t, ft.failed)

	Require(ft, "number", 5, Match(matchers.EqualTo(6)))
	assert.True(t, ft.failed)
	require.Len(t, ft.errors, 1)
	assert.Contains(t, ft.errors[0], "List of mismatches:")
	assert.Equal(t, []string{"Verify number", "Verify number"}, names.started)
}
