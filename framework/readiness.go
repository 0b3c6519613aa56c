package framework

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/launchdarkly/go-fluent-steps/steps"
)

const readinessPolling = 100 * time.Millisecond

// AwaitService polls a URL until the service behind it answers with a status below 500, printing
// a dot for every attempt. It returns the last error when the service does not answer in time.
func AwaitService(ctx context.Context, url string, timeout time.Duration, output io.Writer) error {
	fmt.Fprintf(output, "Connecting to service at %s", url)
	defer fmt.Fprintln(output)

	var lastErr error
	status, ok, err := steps.Poll(ctx, steps.Wait{Timeout: timeout, Polling: readinessPolling},
		func(ctx context.Context) (int, error) {
			fmt.Fprintf(output, ".")
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return 0, err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				lastErr = err
				return 0, nil
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			return resp.StatusCode, nil
		},
		func(status int) (bool, error) { return status > 0 && status < 500, nil },
	)
	switch {
	case err != nil:
		return err
	case ok:
		return nil
	case status >= 500:
		return fmt.Errorf("service returned HTTP status %d", status)
	default:
		return fmt.Errorf("timed out, result of last query was: %w", lastErr)
	}
}
