package steps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter() (func(context.Context) (int, error), *int) {
	calls := 0
	return func(context.Context) (int, error) {
		calls++
		return calls, nil
	}, &calls
}

func TestPollReturnsFirstSuitableValue(t *testing.T) {
	get, calls := counter()
	v, ok, err := Poll(context.Background(), Wait{Timeout: time.Second, Polling: time.Millisecond}, get,
		func(n int) (bool, error) { return n == 3, nil })
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 3, *calls)
}

func TestPollWithZeroTimeoutStillUsesGraceWindow(t *testing.T) {
	get, calls := counter()
	started := time.Now()
	v, ok, err := Poll(context.Background(), Wait{}, get, func(int) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, *calls, v)
	assert.GreaterOrEqual(t, *calls, 2)
	assert.GreaterOrEqual(t, time.Since(started), timeoutGrace)
}

func TestPollStopsOnError(t *testing.T) {
	failure := errors.New("boom")
	_, ok, err := Poll(context.Background(), Wait{Timeout: time.Second},
		func(context.Context) (int, error) { return 0, failure },
		func(int) (bool, error) { return true, nil })
	assert.False(t, ok)
	assert.Equal(t, failure, err)
}

func TestPollHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	get, _ := counter()
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	started := time.Now()
	_, ok, err := Poll(ctx, Wait{Timeout: time.Minute, Polling: 5 * time.Millisecond}, get,
		func(int) (bool, error) { return false, nil })
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(started), 10*time.Second)
}

func TestPollPanicsOnNegativeTimeout(t *testing.T) {
	get, _ := counter()
	assert.Panics(t, func() {
		_, _, _ = Poll(context.Background(), Wait{Timeout: -time.Second}, get,
			func(int) (bool, error) { return true, nil })
	})
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:00:00:000", FormatDuration(0))
	assert.Equal(t, "0:00:05:000", FormatDuration(5*time.Second))
	assert.Equal(t, "1:02:03:004", FormatDuration(time.Hour+2*time.Minute+3*time.Second+4*time.Millisecond))
	assert.Equal(t, "26:00:00:000", FormatDuration(26*time.Hour))
}
