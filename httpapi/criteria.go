package httpapi

import (
	"fmt"
	"strings"

	"github.com/launchdarkly/go-fluent-steps/matchers"
	"github.com/launchdarkly/go-fluent-steps/steps"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

func StatusCode(code int) steps.Criteria[*Response] {
	return steps.Condition(fmt.Sprintf("status code is %d", code), func(r *Response) bool {
		return r.StatusCode == code
	})
}

func BodyMatches(m matchers.Matcher[string]) steps.Criteria[*Response] {
	return steps.Condition("body is "+m.String(), func(r *Response) bool {
		return m.Matches(string(r.Body))
	})
}

func ResponseURI(uri string) steps.Criteria[*Response] {
	return steps.Condition(fmt.Sprintf("response URI is %s", uri), func(r *Response) bool {
		return r.URL != nil && r.URL.String() == uri
	})
}

// URIMatches matches responses whose URI contains the expression or matches it as a regular
// expression.
func URIMatches(expression string) steps.Criteria[*Response] {
	if strings.TrimSpace(expression) == "" {
		panic("URI expression must not be blank")
	}
	inner := steps.StringMatches(expression)
	return steps.Condition("response URI "+inner.String(), func(r *Response) bool {
		return r.URL != nil && inner.Test(r.URL.String())
	})
}

func HeaderValue(name, value string) steps.Criteria[*Response] {
	return steps.Condition(fmt.Sprintf("has header %s = %s", name, value), func(r *Response) bool {
		for _, v := range r.Header.Values(name) {
			if v == value {
				return true
			}
		}
		return false
	})
}

// JSONHas matches responses whose JSON body has the value at the dotted path.
func JSONHas(path string, value ldvalue.Value) steps.Criteria[*Response] {
	return steps.Condition(fmt.Sprintf("JSON body has %s = %s", path, value.JSONString()), func(r *Response) bool {
		return ValueAt(r.JSON(), SplitPath(path)...).Equal(value)
	})
}
