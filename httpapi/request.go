package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Request describes an HTTP request. Its methods modify it in place and return it for chaining;
// Build produces a new *http.Request each time.
type Request struct {
	method         string
	uri            string
	headers        http.Header
	query          []string
	body           Body
	timeout        time.Duration
	expectContinue bool
	tuners         []RequestTuner
	err            error
}

// NewRequest creates a request for an absolute URI.
func NewRequest(method, uri string) *Request {
	return &Request{method: strings.ToUpper(method), uri: uri, headers: make(http.Header)}
}

func GET(uri string) *Request     { return NewRequest(http.MethodGet, uri) }
func HEAD(uri string) *Request    { return NewRequest(http.MethodHead, uri) }
func DELETE(uri string) *Request  { return NewRequest(http.MethodDelete, uri) }
func OPTIONS(uri string) *Request { return NewRequest(http.MethodOptions, uri) }

func POST(uri string, body Body) *Request  { return NewRequest(http.MethodPost, uri).Body(body) }
func PUT(uri string, body Body) *Request   { return NewRequest(http.MethodPut, uri).Body(body) }
func PATCH(uri string, body Body) *Request { return NewRequest(http.MethodPatch, uri).Body(body) }

func (r *Request) Method() string {
	return r.method
}

func (r *Request) URI() string {
	return r.uri
}

// Header adds values to a header.
func (r *Request) Header(name string, values ...string) *Request {
	for _, v := range values {
		r.headers.Add(name, v)
	}
	return r
}

// SetHeader replaces the values of a header.
func (r *Request) SetHeader(name string, values ...string) *Request {
	r.headers.Del(name)
	return r.Header(name, values...)
}

// QueryParam adds a form-style query parameter: repeated when explode is true, otherwise one
// comma-separated value.
func (r *Request) QueryParam(name string, explode bool, values ...any) *Request {
	return r.QueryPairs(EncodeQuery(name, values, StyleForm, explode)...)
}

// QueryPairs appends already encoded "name=value" pairs to the query string.
func (r *Request) QueryPairs(pairs ...string) *Request {
	r.query = append(r.query, pairs...)
	return r
}

func (r *Request) Body(b Body) *Request {
	r.body = b
	return r
}

// Timeout limits the whole exchange, including reading the response body.
func (r *Request) Timeout(d time.Duration) *Request {
	if d < 0 {
		panic(fmt.Sprintf("request timeout must not be negative, got %s", d))
	}
	r.timeout = d
	return r
}

// ExpectContinue makes the request ask for a 100-continue response before sending the body.
func (r *Request) ExpectContinue(enabled bool) *Request {
	r.expectContinue = enabled
	return r
}

// Fail records a problem found while describing the request; Build reports it.
func (r *Request) Fail(err error) *Request {
	if r.err == nil {
		r.err = err
	}
	return r
}

// Tune adds tuners applied each time the request is built.
func (r *Request) Tune(tuners ...RequestTuner) *Request {
	r.tuners = append(r.tuners, tuners...)
	return r
}

func (r *Request) clone() *Request {
	c := *r
	c.headers = r.headers.Clone()
	c.query = append([]string(nil), r.query...)
	c.tuners = nil
	return &c
}

// tuned returns a copy with the tuners applied.
func (r *Request) tuned() *Request {
	c := r.clone()
	for _, t := range r.tuners {
		t.Tune(c)
	}
	return c
}

func (r *Request) target() string {
	if len(r.query) == 0 {
		return r.uri
	}
	sep := "?"
	if strings.Contains(r.uri, "?") {
		sep = "&"
	}
	return r.uri + sep + strings.Join(r.query, "&")
}

func (r *Request) String() string {
	return r.method + " " + r.tuned().target()
}

// Build creates the *http.Request. The timeout is not applied here; see Context.Send.
func (r *Request) Build(ctx context.Context) (*http.Request, error) {
	t := r.tuned()
	if t.err != nil {
		return nil, t.err
	}
	target := t.target()
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid request URI %q: %w", target, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("request URI %q is not absolute", target)
	}

	var body io.Reader
	contentType := ""
	if t.body != nil {
		data, ct, err := t.body.Encode()
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = ct
	}
	req, err := http.NewRequestWithContext(ctx, t.method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header = t.headers.Clone()
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	if t.expectContinue {
		req.Header.Set("Expect", "100-continue")
	}
	return req, nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
