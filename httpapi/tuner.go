package httpapi

import (
	"net/http"
	"time"
)

// RequestTuner adjusts a request before it is built.
type RequestTuner interface {
	Tune(r *Request)
}

// TunerFunc adapts a function to RequestTuner.
type TunerFunc func(r *Request)

func (f TunerFunc) Tune(r *Request) { f(r) }

// RequestSettings is a tuner that applies fixed headers, query parameters, a timeout and the
// expect-continue flag.
type RequestSettings struct {
	Headers        http.Header
	Query          map[string][]string
	Timeout        time.Duration
	ExpectContinue bool
}

func (s RequestSettings) Tune(r *Request) {
	for name, values := range s.Headers {
		r.SetHeader(name, values...)
	}
	for _, name := range sortedKeys(s.Query) {
		values := make([]any, 0, len(s.Query[name]))
		for _, v := range s.Query[name] {
			values = append(values, v)
		}
		r.QueryParam(name, true, values...)
	}
	if s.Timeout > 0 {
		r.Timeout(s.Timeout)
	}
	if s.ExpectContinue {
		r.ExpectContinue(true)
	}
}
