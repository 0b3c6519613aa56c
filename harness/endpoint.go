package harness

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/launchdarkly/go-fluent-steps/framework"
)

const (
	defaultAwaitRequestTimeout = time.Second * 5
	requestChannelSize         = 100
)

// RecordedRequest is a request received by a mock endpoint. URL contains only the subpath
// below the endpoint's base URL.
type RecordedRequest struct {
	ID     uuid.UUID
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte
	Time   time.Time
}

func (r RecordedRequest) String() string {
	return fmt.Sprintf("%s %s", r.Method, r.URL)
}

// MockEndpoint is an endpoint that can receive requests.
type MockEndpoint struct {
	owner       *Harness
	id          string
	description string
	basePath    string
	handler     http.Handler
	requests    []RecordedRequest
	newRequests chan RecordedRequest
	cancels     []*context.CancelFunc
	closed      bool
	logger      framework.Logger
	lock        sync.Mutex
	closing     sync.Once
}

// NewMockEndpoint adds a new endpoint that can receive requests.
//
// The handler is called for all incoming requests to the endpoint's base URL or any subpath of
// it. For instance, if BaseURL() is http://localhost:8111/endpoints/3, the endpoint also receives
// requests to http://localhost:8111/endpoints/3/some/subpath.
//
// The harness rewrites the request URL first so that the handler sees only the subpath. It also
// attaches a Context to the request whose Done channel is closed if Close is called on the
// endpoint.
func (h *Harness) NewMockEndpoint(description string, handler http.Handler, logger framework.Logger) *MockEndpoint {
	if handler == nil {
		handler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	}
	if logger == nil {
		logger = h.logger
	}
	e := &MockEndpoint{
		owner:       h,
		description: description,
		handler:     handler,
		newRequests: make(chan RecordedRequest, requestChannelSize),
		logger:      logger,
	}
	h.lock.Lock()
	h.lastEndpointID++
	e.id = strconv.Itoa(h.lastEndpointID)
	e.basePath = endpointPathPrefix + e.id
	h.endpoints[e.id] = e
	h.lock.Unlock()
	if e.description == "" {
		e.description = "endpoint " + e.id
	}
	return e
}

// NewProxyEndpoint adds an endpoint that records every request and forwards it to target, so
// that the endpoint's base URL can stand in for the target.
func (h *Harness) NewProxyEndpoint(description string, target string, logger framework.Logger) (*MockEndpoint, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("proxy target %q is not an absolute URL", target)
	}
	proxy := httputil.NewSingleHostReverseProxy(u)
	e := h.NewMockEndpoint(description, proxy, logger)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		e.logger.Printf("Proxying %s %s to %s failed: %s", r.Method, r.URL, target, err)
		w.WriteHeader(http.StatusBadGateway)
	}
	return e, nil
}

// BaseURL returns the base URL of the mock endpoint.
func (e *MockEndpoint) BaseURL() string {
	return e.owner.externalBaseURL + e.basePath
}

func (e *MockEndpoint) String() string {
	return e.description
}

// AwaitRequest waits for the next incoming request to the endpoint. A timeout of zero or less
// uses a default of 5 seconds.
func (e *MockEndpoint) AwaitRequest(timeout time.Duration) (RecordedRequest, error) {
	if timeout <= 0 {
		timeout = defaultAwaitRequestTimeout
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	select {
	case r, ok := <-e.newRequests:
		if !ok {
			return RecordedRequest{}, fmt.Errorf("%s was closed while waiting for a request", e.description)
		}
		return r, nil
	case <-deadline.C:
		return RecordedRequest{}, fmt.Errorf("timed out waiting for an incoming request to %s", e.description)
	}
}

// Requests returns every request received so far, oldest first.
func (e *MockEndpoint) Requests() []RecordedRequest {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]RecordedRequest(nil), e.requests...)
}

// Close unregisters the endpoint. Any subsequent requests to it receive 404 errors. It also
// cancels the Context for every active request to that endpoint.
func (e *MockEndpoint) Close() {
	e.closing.Do(func() {
		e.owner.lock.Lock()
		delete(e.owner.endpoints, e.id)
		e.owner.lock.Unlock()

		e.lock.Lock()
		cancellers := e.cancels
		e.cancels = nil
		e.closed = true
		close(e.newRequests)
		e.lock.Unlock()

		for _, cancel := range cancellers {
			(*cancel)()
		}
	})
}

func (e *MockEndpoint) record(req *http.Request, u *url.URL, body []byte) {
	r := RecordedRequest{
		ID:     uuid.New(),
		Method: req.Method,
		URL:    u,
		Header: req.Header.Clone(),
		Body:   body,
		Time:   time.Now(),
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.closed {
		return
	}
	e.requests = append(e.requests, r)
	select { // non-blocking push
	case e.newRequests <- r:
	default:
		e.logger.Printf("Incoming request channel was full for %s", e.description)
	}
}

// track attaches a cancellable context to a request; release must be called once the request
// has been handled.
func (e *MockEndpoint) track(parent context.Context) (context.Context, func()) {
	ctx, canceller := context.WithCancel(parent)
	cancellerPtr := &canceller
	e.lock.Lock()
	e.cancels = append(e.cancels, cancellerPtr)
	e.lock.Unlock()
	return ctx, func() {
		e.lock.Lock()
		for i, c := range e.cancels {
			if c == cancellerPtr { // functions are not comparable, pointers are
				e.cancels = append(e.cancels[:i], e.cancels[i+1:]...)
				break
			}
		}
		e.lock.Unlock()
		canceller()
	}
}
