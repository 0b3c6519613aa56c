// Package suitedef defines the YAML format of the HTTP test suites run by the command.
package suitedef

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
	"gopkg.in/yaml.v3"

	"github.com/launchdarkly/go-fluent-steps/httpapi"
)

// CallbackPlaceholder is replaced in a case's path, query, headers and body with the URL of a
// mock endpoint that the case's callback expectation watches.
const CallbackPlaceholder = "{{callbackUrl}}"

var ErrInvalidSuite = errors.New("invalid suite")

type Suite struct {
	BaseURL  string   `yaml:"baseUrl"`
	Defaults Defaults `yaml:"defaults"`
	Cases    []Case   `yaml:"cases"`
}

// Defaults apply to every case that does not set its own value.
type Defaults struct {
	TimeoutMS *int              `yaml:"timeoutMs"`
	PollingMS *int              `yaml:"pollingMs"`
	Headers   map[string]string `yaml:"headers"`
}

type Case struct {
	Name      string              `yaml:"name"`
	Method    string              `yaml:"method"`
	Path      string              `yaml:"path"`
	Query     map[string][]string `yaml:"query"`
	Headers   map[string]string   `yaml:"headers"`
	Body      any                 `yaml:"body"`
	Expect    Expect              `yaml:"expect"`
	Callback  *Callback           `yaml:"callback"`
	TimeoutMS *int                `yaml:"timeoutMs"`
	PollingMS *int                `yaml:"pollingMs"`
}

// Expect lists what the response must satisfy. JSON maps dotted paths to expected values.
type Expect struct {
	Status       *int              `yaml:"status"`
	Headers      map[string]string `yaml:"headers"`
	BodyContains []string          `yaml:"bodyContains"`
	JSON         map[string]any    `yaml:"json"`
}

// Callback expects the service under test to send a request to the callback URL.
type Callback struct {
	Method       string            `yaml:"method"`
	Path         string            `yaml:"path"`
	Headers      map[string]string `yaml:"headers"`
	BodyContains []string          `yaml:"bodyContains"`
	TimeoutMS    *int              `yaml:"timeoutMs"`
}

// Load reads and validates a suite file.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSuite, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Suite) Validate() error {
	if len(s.Cases) == 0 {
		return fmt.Errorf("%w: no cases", ErrInvalidSuite)
	}
	if negative(s.Defaults.TimeoutMS, s.Defaults.PollingMS) {
		return fmt.Errorf("%w: defaults have a negative duration", ErrInvalidSuite)
	}
	names := map[string]bool{}
	for i, c := range s.Cases {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: case %d has no name", ErrInvalidSuite, i+1)
		}
		if names[c.Name] {
			return fmt.Errorf("%w: duplicate case name %q", ErrInvalidSuite, c.Name)
		}
		names[c.Name] = true
		if c.Method != "" && !validMethods[strings.ToUpper(c.Method)] {
			return fmt.Errorf("%w: case %q has unknown method %q", ErrInvalidSuite, c.Name, c.Method)
		}
		if negative(c.TimeoutMS, c.PollingMS) {
			return fmt.Errorf("%w: case %q has a negative duration", ErrInvalidSuite, c.Name)
		}
		if c.Callback != nil && negative(c.Callback.TimeoutMS) {
			return fmt.Errorf("%w: callback of case %q has a negative timeout", ErrInvalidSuite, c.Name)
		}
	}
	return nil
}

func negative(values ...*int) bool {
	for _, ms := range values {
		if ms != nil && *ms < 0 {
			return true
		}
	}
	return false
}

var validMethods = map[string]bool{
	http.MethodGet: true, http.MethodHead: true, http.MethodPost: true, http.MethodPut: true,
	http.MethodPatch: true, http.MethodDelete: true, http.MethodOptions: true,
}

// NeedsCallbacks reports whether any case expects a callback.
func (s *Suite) NeedsCallbacks() bool {
	for _, c := range s.Cases {
		if c.Callback != nil {
			return true
		}
	}
	return false
}

func millis(own, def *int) time.Duration {
	return time.Duration(ldvalue.NewOptionalIntFromPointer(own).OrElse(
		ldvalue.NewOptionalIntFromPointer(def).OrElse(0))) * time.Millisecond
}

// Timeout is how long the case keeps sending its request until the response meets the
// expectations.
func (c Case) Timeout(d Defaults) time.Duration {
	return millis(c.TimeoutMS, d.TimeoutMS)
}

func (c Case) Polling(d Defaults) time.Duration {
	return millis(c.PollingMS, d.PollingMS)
}

func (cb Callback) Timeout(d Defaults) time.Duration {
	return millis(cb.TimeoutMS, d.TimeoutMS)
}

// Request builds the request of the case. The callback URL replaces the placeholder when it is
// not empty.
func (c Case) Request(baseURL string, d Defaults, callbackURL string) *httpapi.Request {
	replace := func(s string) string {
		if callbackURL == "" {
			return s
		}
		return strings.ReplaceAll(s, CallbackPlaceholder, callbackURL)
	}
	method := strings.ToUpper(c.Method)
	if method == "" {
		method = http.MethodGet
	}
	uri := strings.TrimSuffix(baseURL, "/")
	if c.Path != "" {
		uri += "/" + strings.TrimPrefix(replace(c.Path), "/")
	}
	r := httpapi.NewRequest(method, uri)

	headers := map[string]string{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	for k, v := range c.Headers {
		headers[k] = v
	}
	for _, k := range sortedKeys(headers) {
		r.SetHeader(k, replace(headers[k]))
	}
	for _, k := range sortedKeys(c.Query) {
		values := make([]any, 0, len(c.Query[k]))
		for _, v := range c.Query[k] {
			values = append(values, replace(v))
		}
		r.QueryParam(k, true, values...)
	}

	switch body := c.Body.(type) {
	case nil:
	case string:
		r.Body(httpapi.StringBody(replace(body)))
	default:
		r.Body(httpapi.BytesBody([]byte(replace(ldvalue.CopyArbitraryValue(body).JSONString())), "application/json"))
	}
	return r
}

// JSONExpectations converts the expected JSON values, keyed by dotted path.
func (e Expect) JSONExpectations() map[string]ldvalue.Value {
	if len(e.JSON) == 0 {
		return nil
	}
	ret := make(map[string]ldvalue.Value, len(e.JSON))
	for path, v := range e.JSON {
		ret[path] = ldvalue.CopyArbitraryValue(v)
	}
	return ret
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
