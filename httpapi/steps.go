package httpapi

import (
	"context"
	"strings"

	"github.com/launchdarkly/go-fluent-steps/steps"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// ResponseOf sends the request on every attempt until the response meets the criteria.
func ResponseOf(r *Request) *steps.GetStep[*Context, *Response] {
	return steps.From("Response of "+r.String(), func(ctx context.Context, c *Context) (*Response, error) {
		return c.Send(ctx, r)
	})
}

// BodyOf sends the request on every attempt and decodes the body until the decoded value
// meets the criteria.
func BodyOf[T any](r *Request, decode func([]byte) (T, error)) *steps.GetStep[*Context, T] {
	return steps.From("Body of response of "+r.String(), func(ctx context.Context, c *Context) (T, error) {
		resp, err := c.Send(ctx, r)
		if err != nil {
			var zero T
			return zero, err
		}
		return decode(resp.Body)
	})
}

// JSONBodyOf is BodyOf for JSON bodies; a body that is not JSON counts as nothing found.
func JSONBodyOf(r *Request) *steps.GetStep[*Context, ldvalue.Value] {
	return BodyOf(r, func(data []byte) (ldvalue.Value, error) {
		return ldvalue.Parse(data), nil
	})
}

// JSONValueAt gets the value at a path of the JSON body, such as ("items", "0", "id").
func JSONValueAt(r *Request, path ...string) *steps.GetStep[*Context, ldvalue.Value] {
	return steps.From("Value at "+strings.Join(path, ".")+" of response of "+r.String(),
		func(ctx context.Context, c *Context) (ldvalue.Value, error) {
			resp, err := c.Send(ctx, r)
			if err != nil {
				return ldvalue.Null(), err
			}
			return ValueAt(resp.JSON(), path...), nil
		})
}
