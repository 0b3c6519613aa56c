package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/launchdarkly/go-fluent-steps/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	lock   sync.Mutex
	events []string
}

func (r *recordingLogger) add(s string) {
	r.lock.Lock()
	r.events = append(r.events, s)
	r.lock.Unlock()
}

func (r *recordingLogger) StepStarted(d string)  { r.add("start " + d) }
func (r *recordingLogger) ErrorThrown(err error) { r.add("error " + err.Error()) }
func (r *recordingLogger) ValueReturned(v any)   { r.add("value " + event.Describe(v)) }
func (r *recordingLogger) StepFinished()         { r.add("finish") }
func (r *recordingLogger) Events() []string      { return append([]string(nil), r.events...) }

type recordingCaptor struct {
	captured []string
}

func (c *recordingCaptor) Captured(v any) (any, bool) {
	s, ok := v.(string)
	return s, ok
}

func (c *recordingCaptor) Capture(v any, message string) {
	c.captured = append(c.captured, fmt.Sprintf("%v|%s", v, message))
}

func withRecording() (context.Context, *recordingLogger, *recordingCaptor) {
	logger, captor := &recordingLogger{}, &recordingCaptor{}
	firing := event.NewFiring().AddLoggers(logger).AddCaptors(captor)
	return event.WithFiring(context.Background(), firing), logger, captor
}

type numbers struct {
	values []int
	pos    int
}

func nextNumber(_ context.Context, n *numbers) (int, error) {
	v := n.values[n.pos]
	if n.pos < len(n.values)-1 {
		n.pos++
	}
	return v, nil
}

func TestGetStepDescription(t *testing.T) {
	s := From("A number", nextNumber)
	assert.Equal(t, "A number", s.String())

	s.Criteria(isEven)
	assert.Equal(t, "A number with condition is even", s.String())

	s.Criteria(isPositive).Timeout(5 * time.Second)
	assert.Equal(t, "A number with condition (is even) AND (is positive). Time to get valuable result: 0:00:05:000",
		s.String())
}

func TestGetStepRetriesUntilCriteriaMatch(t *testing.T) {
	ctx, logger, _ := withRecording()
	src := &numbers{values: []int{1, 3, 5, 8, 9}}
	v, err := From("A number", nextNumber).
		Criteria(isEven).
		Timeout(time.Second).
		Polling(time.Millisecond).
		Get(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 8, v)
	assert.Equal(t, []string{
		"start A number with condition is even. Time to get valuable result: 0:00:01:000",
		"value 8",
		"finish",
	}, logger.Events())
}

func TestGetStepReturnsZeroWhenNothingFound(t *testing.T) {
	src := &numbers{values: []int{1}}
	v, err := From("A number", nextNumber).Criteria(isEven).Get(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestGetStepFailOnEmpty(t *testing.T) {
	ctx, logger, captor := withRecording()
	src := &numbers{values: []int{1}}
	step := From("A number", nextNumber).Criteria(isEven).FailOnEmpty()
	_, err := step.Get(ctx, src)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoValue)
	assert.Contains(t, err.Error(), "A number with condition is even")

	events := logger.Events()
	require.Len(t, events, 3)
	assert.True(t, strings.HasPrefix(events[1], "error "))
	assert.Empty(t, captor.captured)
}

func TestGetStepOnEmptyUsesCriteriaDescription(t *testing.T) {
	src := &numbers{values: []int{1}}
	step := From("A number", nextNumber).Criteria(isEven)
	step.OnEmpty(func() error { return fmt.Errorf("nothing that is %s", step.CriteriaDescription()) })
	_, err := step.Get(context.Background(), src)
	assert.EqualError(t, err, "nothing that is is even")
}

var errTransient = errors.New("transient")

func TestGetStepIgnoresConfiguredErrors(t *testing.T) {
	calls := 0
	source := func(context.Context, struct{}) (string, error) {
		calls++
		if calls < 3 {
			return "", fmt.Errorf("attempt %d: %w", calls, errTransient)
		}
		return "ready", nil
	}

	_, err := From("State", source).Get(context.Background(), struct{}{})
	assert.ErrorIs(t, err, errTransient)

	calls = 0
	v, err := From("State", source).IgnoreErrors(errTransient).
		Timeout(time.Second).Polling(time.Millisecond).
		Get(context.Background(), struct{}{})
	require.NoError(t, err)
	assert.Equal(t, "ready", v)
}

func TestGetStepConditionPanic(t *testing.T) {
	explosive := Condition("explodes", func(int) bool { panic("bad condition") })
	src := &numbers{values: []int{2}}

	_, err := From("A number", nextNumber).Criteria(explosive).Get(context.Background(), src)
	var condErr *ConditionError
	require.ErrorAs(t, err, &condErr)
	assert.Equal(t, "explodes", condErr.Criteria)

	v, err := From("A number", nextNumber).Criteria(explosive).IgnoreConditionFailures().
		Get(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestGetStepCaptures(t *testing.T) {
	ctx, _, captor := withRecording()
	source := func(context.Context, string) (string, error) { return "value", nil }

	_, err := From("Text", source).Get(ctx, "context")
	require.NoError(t, err)
	assert.Empty(t, captor.captured)

	_, err = From("Text", source).CaptureOnSuccess(true).Get(ctx, "context")
	require.NoError(t, err)
	assert.Equal(t, []string{"value|Text"}, captor.captured)

	captor.captured = nil
	failing := func(context.Context, string) (string, error) { return "", errors.New("no") }
	_, err = From("Text", failing).Get(ctx, "context")
	require.Error(t, err)
	assert.Equal(t, []string{"context|Text"}, captor.captured)
}

func TestFromListPicksFirstMatching(t *testing.T) {
	source := func(context.Context, struct{}) ([]int, error) { return []int{1, 3, 4, 6}, nil }
	v, err := FromList("Numbers", source).Criteria(isEven).Get(context.Background(), struct{}{})
	require.NoError(t, err)
	assert.Equal(t, 4, v)
}

func TestChainUsesPreviousResult(t *testing.T) {
	ctx, logger, _ := withRecording()
	words := From("Sentence", func(context.Context, struct{}) (string, error) {
		return "fluent steps in go", nil
	})
	lengths := Chain("Length", words, func(_ context.Context, s string) (int, error) {
		return len(s), nil
	}).Criteria(isEven)

	v, err := lengths.Get(ctx, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, 18, v)
	assert.Equal(t, []string{
		"start Length with condition is even",
		"start Sentence",
		`value "fluent steps in go"`,
		"finish",
		"value 18",
		"finish",
	}, logger.Events())
}

func TestChainOfEmptyResultIsEmpty(t *testing.T) {
	nothing := From("Nothing", func(context.Context, struct{}) (*int, error) { return nil, nil })
	called := false
	v, err := Chain("Deref", nothing, func(_ context.Context, p *int) (int, error) {
		called = true
		return *p, nil
	}).Get(context.Background(), struct{}{})
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	assert.False(t, called)
}

func TestListStepFiltersItems(t *testing.T) {
	source := func(context.Context, struct{}) ([]int, error) { return []int{-2, 1, 4, 7, 8}, nil }
	v, err := ListFrom("Numbers", source).Criteria(isEven, isPositive).Get(context.Background(), struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 8}, v)

	v, err = ListFrom("Numbers", source).Criteria(Condition("is huge", func(n int) bool { return n > 100 })).
		FailOnEmpty().Get(context.Background(), struct{}{})
	assert.ErrorIs(t, err, ErrNoValue)
	assert.Nil(t, v)
}

func TestChainListAndFirstOf(t *testing.T) {
	limit := From("Limit", func(context.Context, struct{}) (int, error) { return 5, nil })
	upTo := ChainList("Numbers up to limit", limit, func(_ context.Context, n int) ([]int, error) {
		var out []int
		for i := 1; i <= n; i++ {
			out = append(out, i)
		}
		return out, nil
	}).Criteria(isEven)

	all, err := upTo.Get(context.Background(), struct{}{})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, all)

	first, err := FirstOf(upTo).Get(context.Background(), struct{}{})
	require.NoError(t, err)
	assert.Equal(t, 2, first)
}
