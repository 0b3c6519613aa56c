package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/launchdarkly/go-fluent-steps/matchers"
	"github.com/launchdarkly/go-fluent-steps/steps"
)

// Requests is a list step returning the requests an endpoint has received. Add criteria to keep
// only some of them and a timeout to wait for them to arrive.
func Requests() *steps.ListStep[*MockEndpoint, RecordedRequest] {
	return steps.ListFrom("Requests received", func(_ context.Context, e *MockEndpoint) ([]RecordedRequest, error) {
		return e.Requests(), nil
	})
}

// FirstRequest returns the first request matching the step's criteria.
func FirstRequest() *steps.GetStep[*MockEndpoint, RecordedRequest] {
	return steps.FromList("Request received", func(_ context.Context, e *MockEndpoint) ([]RecordedRequest, error) {
		return e.Requests(), nil
	})
}

// Header is one name/value pair of a recorded request.
type Header struct {
	Name  string
	Value string
}

func (h Header) String() string {
	return h.Name + ": " + h.Value
}

func headerPairs(r RecordedRequest) []Header {
	names := make([]string, 0, len(r.Header))
	for name := range r.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	var ret []Header
	for _, name := range names {
		for _, value := range r.Header[name] {
			ret = append(ret, Header{Name: name, Value: value})
		}
	}
	return ret
}

// HeaderPair matches a header whose name and value match. Names are compared in canonical form.
func HeaderPair(name, value matchers.Matcher[string]) matchers.Matcher[Header] {
	return matchers.New(fmt.Sprintf("header name %s and value %s", name, value), func(h Header) bool {
		return name.Matches(h.Name) && value.Matches(h.Value)
	})
}

func canonicalName(name string) matchers.Matcher[string] {
	return matchers.EqualIgnoringCase(name)
}

// RequestHasHeaders matches requests whose header pairs match m.
func RequestHasHeaders(m matchers.Matcher[[]Header]) matchers.Matcher[RecordedRequest] {
	return matchers.Diagnosing(fmt.Sprintf("request has headers %s", m), func(r RecordedRequest, mismatch *strings.Builder) bool {
		if r.Method == "" {
			mismatch.WriteString("Recorded request is empty")
			return false
		}
		pairs := headerPairs(r)
		if m.Matches(pairs) {
			return true
		}
		mismatch.WriteString(m.DescribeMismatch(pairs))
		return false
	})
}

// RequestHasHeader matches requests having a header with the given name and value.
func RequestHasHeader(name, value string) matchers.Matcher[RecordedRequest] {
	return RequestHasHeaders(matchers.HasItem(HeaderPair(canonicalName(name), matchers.EqualTo(value))))
}

// RequestHasHeaderMatching matches requests having a header with the given name whose value
// matches m.
func RequestHasHeaderMatching(name string, value matchers.Matcher[string]) matchers.Matcher[RecordedRequest] {
	return RequestHasHeaders(matchers.HasItem(HeaderPair(canonicalName(name), value)))
}

// RequestHasHeaderName matches requests having a header whose name matches m.
func RequestHasHeaderName(m matchers.Matcher[string]) matchers.Matcher[RecordedRequest] {
	return RequestHasHeaders(matchers.HasItem(HeaderPair(m, matchers.Anything[string]())))
}

// RequestHasHeaderValue matches requests having a header whose value matches m.
func RequestHasHeaderValue(m matchers.Matcher[string]) matchers.Matcher[RecordedRequest] {
	return RequestHasHeaders(matchers.HasItem(HeaderPair(matchers.Anything[string](), m)))
}

// RequestHasMethod matches requests sent with the given HTTP method.
func RequestHasMethod(method string) matchers.Matcher[RecordedRequest] {
	return matchers.New(fmt.Sprintf("request has method %q", method), func(r RecordedRequest) bool {
		return strings.EqualFold(r.Method, method)
	})
}

// RequestHasPath matches requests whose path below the endpoint matches m.
func RequestHasPath(m matchers.Matcher[string]) matchers.Matcher[RecordedRequest] {
	return matchers.Diagnosing(fmt.Sprintf("request has path %s", m), func(r RecordedRequest, mismatch *strings.Builder) bool {
		path := ""
		if r.URL != nil {
			path = r.URL.Path
		}
		if m.Matches(path) {
			return true
		}
		mismatch.WriteString("path " + m.DescribeMismatch(path))
		return false
	})
}

// RequestHasBody matches requests whose body, read as text, matches m.
func RequestHasBody(m matchers.Matcher[string]) matchers.Matcher[RecordedRequest] {
	return matchers.Diagnosing(fmt.Sprintf("request has body %s", m), func(r RecordedRequest, mismatch *strings.Builder) bool {
		body := string(r.Body)
		if m.Matches(body) {
			return true
		}
		mismatch.WriteString("body " + m.DescribeMismatch(body))
		return false
	})
}
