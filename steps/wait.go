package steps

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultPolling is the sleep between two attempts when no polling interval is set.
	DefaultPolling = 50 * time.Millisecond

	// timeoutGrace is added to every timeout so that a zero timeout still allows a second look.
	timeoutGrace = 100 * time.Millisecond
)

// Wait describes how long to keep trying and how long to sleep between attempts.
type Wait struct {
	Timeout time.Duration
	Polling time.Duration
}

func (w Wait) polling() time.Duration {
	if w.Polling <= 0 {
		return DefaultPolling
	}
	return w.Polling
}

// Poll calls get until till reports that the result is suitable, the timeout (plus a short
// grace period) elapses or the context is done. It always makes at least one attempt.
//
// It returns the last value obtained and whether it was suitable. An error from get or till
// ends polling immediately; callers that want to keep going on some errors should filter them
// inside get.
func Poll[T any](
	ctx context.Context,
	w Wait,
	get func(context.Context) (T, error),
	till func(T) (bool, error),
) (T, bool, error) {
	if w.Timeout < 0 {
		panic(fmt.Sprintf("timeout must not be negative, got %s", w.Timeout))
	}
	deadline := time.Now().Add(w.Timeout + timeoutGrace)
	polling := w.polling()

	var last T
	for {
		value, err := get(ctx)
		if err != nil {
			return value, false, err
		}
		last = value
		ok, err := till(value)
		if err != nil {
			return value, false, err
		}
		if ok {
			return value, true, nil
		}
		if !time.Now().Before(deadline) {
			return last, false, nil
		}

		timer := time.NewTimer(polling)
		select {
		case <-ctx.Done():
			timer.Stop()
			return last, false, ctx.Err()
		case <-timer.C:
		}
		if !time.Now().Before(deadline) {
			return last, false, nil
		}
	}
}

// FormatDuration renders a duration as H:mm:ss:SSS.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%d:%02d:%02d:%03d",
		ms/3600000,
		(ms/60000)%60,
		(ms/1000)%60,
		ms%1000,
	)
}
