package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/launchdarkly/go-fluent-steps/check"
	"github.com/launchdarkly/go-fluent-steps/framework"
	"github.com/launchdarkly/go-fluent-steps/harness"
	"github.com/launchdarkly/go-fluent-steps/httpapi"
	"github.com/launchdarkly/go-fluent-steps/matchers"
	"github.com/launchdarkly/go-fluent-steps/steps"
	"github.com/launchdarkly/go-fluent-steps/suitedef"
)

// suiteRunner runs every case of a suite as a test. The harness is only needed by cases that
// expect callbacks.
type suiteRunner struct {
	suite   *suitedef.Suite
	baseURL string
	client  *httpapi.Context
	harness *harness.Harness
}

func (r *suiteRunner) Run(filter framework.Filter, logger framework.TestLogger) framework.Results {
	return framework.Run(filter, logger, func(c *framework.Context) {
		for _, tc := range r.suite.Cases {
			tc := tc
			c.Run(tc.Name, func(c *framework.Context) { r.runCase(c, tc) })
		}
	})
}

func (r *suiteRunner) runCase(c *framework.Context, tc suitedef.Case) {
	defaults := r.suite.Defaults

	var endpoint *harness.MockEndpoint
	callbackURL := ""
	if tc.Callback != nil {
		if r.harness == nil {
			c.SkipWithReason("callback listener is not running")
		}
		endpoint = r.harness.NewMockEndpoint(tc.Name+" callback", nil, c.DebugLogger())
		c.Defer(endpoint.Close)
		callbackURL = endpoint.BaseURL()
	}

	req := tc.Request(r.baseURL, defaults, callbackURL)
	c.Debug("request: %s", req.Curl())

	step := httpapi.ResponseOf(req).Timeout(tc.Timeout(defaults))
	if polling := tc.Polling(defaults); polling > 0 {
		step.Polling(polling)
	}
	if criteria := responseCriteria(tc.Expect); len(criteria) > 0 {
		step.Criteria(criteria...)
	}
	resp, err := step.Get(c.Steps(), r.client)
	require.NoError(c, err)
	if resp == nil {
		// nothing met the expectations in time; one more response shows every mismatch
		resp, err = httpapi.ResponseOf(req).Get(c.Steps(), r.client)
		require.NoError(c, err)
		require.NotNil(c, resp)
	}
	check.Require(c, "response of "+tc.Name, resp, responseChecks(tc.Expect)...)

	if tc.Callback != nil {
		r.checkCallback(c, endpoint, *tc.Callback)
	}
}

func (r *suiteRunner) checkCallback(c *framework.Context, endpoint *harness.MockEndpoint, cb suitedef.Callback) {
	step := harness.FirstRequest().Timeout(cb.Timeout(r.suite.Defaults))
	var criteria []steps.Criteria[harness.RecordedRequest]
	if cb.Method != "" {
		criteria = append(criteria, steps.Matches(harness.RequestHasMethod(cb.Method)))
	}
	if cb.Path != "" {
		criteria = append(criteria, steps.Matches(harness.RequestHasPath(matchers.EqualTo(cb.Path))))
	}
	for _, name := range sortedKeys(cb.Headers) {
		criteria = append(criteria, steps.Matches(harness.RequestHasHeader(name, cb.Headers[name])))
	}
	for _, s := range cb.BodyContains {
		criteria = append(criteria, steps.Matches(harness.RequestHasBody(matchers.ContainsString(s))))
	}
	if len(criteria) > 0 {
		step.Criteria(criteria...)
	}
	step.OnEmpty(func() error {
		return fmt.Errorf("no callback request %s was received; %d other requests were", describeCriteria(step.CriteriaDescription()), len(endpoint.Requests()))
	})
	_, err := step.Get(c.Steps(), endpoint)
	require.NoError(c, err)
}

func describeCriteria(description string) string {
	if description == "" {
		return "at all"
	}
	return "meeting '" + description + "'"
}

func responseCriteria(e suitedef.Expect) []steps.Criteria[*httpapi.Response] {
	var criteria []steps.Criteria[*httpapi.Response]
	if e.Status != nil {
		criteria = append(criteria, httpapi.StatusCode(*e.Status))
	}
	for _, name := range sortedKeys(e.Headers) {
		criteria = append(criteria, httpapi.HeaderValue(name, e.Headers[name]))
	}
	for _, s := range e.BodyContains {
		criteria = append(criteria, httpapi.BodyMatches(matchers.ContainsString(s)))
	}
	expected := e.JSONExpectations()
	for _, path := range sortedKeys(expected) {
		criteria = append(criteria, httpapi.JSONHas(path, expected[path]))
	}
	return criteria
}

// responseChecks verifies the same expectations as responseCriteria, but reports every
// mismatch. A case without expectations only requires a status below 400.
func responseChecks(e suitedef.Expect) []check.MatchAction[*httpapi.Response] {
	var actions []check.MatchAction[*httpapi.Response]
	status := func(r *httpapi.Response) int { return r.StatusCode }
	if e.Status != nil {
		actions = append(actions, check.Eval("status code", status, matchers.EqualTo(*e.Status)))
	}
	for _, name := range sortedKeys(e.Headers) {
		name := name
		actions = append(actions, check.Eval("header "+name,
			func(r *httpapi.Response) []string { return r.Header.Values(name) },
			matchers.HasItemEqualTo(e.Headers[name])))
	}
	for _, s := range e.BodyContains {
		actions = append(actions, check.Eval("body", (*httpapi.Response).Text, matchers.ContainsString(s)))
	}
	expected := e.JSONExpectations()
	for _, path := range sortedKeys(expected) {
		path := path
		actions = append(actions, check.Eval("JSON at "+path,
			func(r *httpapi.Response) ldvalue.Value { return httpapi.ValueAt(r.JSON(), httpapi.SplitPath(path)...) },
			jsonEqualTo(expected[path])))
	}
	if len(actions) == 0 {
		actions = append(actions, check.Eval("status code", status, matchers.LessThan(400)))
	}
	return actions
}

func jsonEqualTo(expected ldvalue.Value) matchers.Matcher[ldvalue.Value] {
	return matchers.Diagnosing(expected.JSONString(), func(actual ldvalue.Value, mismatch *strings.Builder) bool {
		if actual.Equal(expected) {
			return true
		}
		mismatch.WriteString("was " + actual.JSONString())
		return false
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
