// Package harness hosts mock HTTP endpoints that record the traffic they receive, so that steps
// can poll and verify what a system under test sent.
package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/launchdarkly/go-fluent-steps/framework"
	"github.com/launchdarkly/go-fluent-steps/steps"
)

const endpointPathPrefix = "/endpoints/"
const httpListenerTimeout = time.Second * 10

// Harness runs an HTTP listener and dispatches requests to its mock endpoints.
type Harness struct {
	externalBaseURL string
	server          *http.Server
	listener        net.Listener
	endpoints       map[string]*MockEndpoint
	lastEndpointID  int
	logger          framework.Logger
	lock            sync.Mutex
}

// New starts a harness listening on the specified port; port 0 picks a free one. The host name
// is the one that the system under test uses to reach the harness.
func New(ctx context.Context, externalHostname string, port int, debugLogger framework.Logger) (*Harness, error) {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	actualPort := listener.Addr().(*net.TCPAddr).Port

	h := &Harness{
		externalBaseURL: fmt.Sprintf("http://%s:%d", externalHostname, actualPort),
		listener:        listener,
		endpoints:       make(map[string]*MockEndpoint),
		logger:          debugLogger,
	}
	h.server = &http.Server{Handler: http.HandlerFunc(h.serveHTTP), ReadHeaderTimeout: httpListenerTimeout}
	go func() {
		if err := h.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Printf("Harness listener stopped: %s", err)
		}
	}()

	if err := awaitListener(ctx, fmt.Sprintf("http://localhost:%d", actualPort)); err != nil {
		_ = h.Close()
		return nil, err
	}
	return h, nil
}

// BaseURL returns the externally visible base URL of the harness.
func (h *Harness) BaseURL() string {
	return h.externalBaseURL
}

// Close stops the listener and closes every endpoint.
func (h *Harness) Close() error {
	h.lock.Lock()
	endpoints := make([]*MockEndpoint, 0, len(h.endpoints))
	for _, e := range h.endpoints {
		endpoints = append(endpoints, e)
	}
	h.lock.Unlock()
	for _, e := range endpoints {
		e.Close()
	}
	return h.server.Close()
}

func (h *Harness) serveHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method == http.MethodHead && req.URL.Path == "/" {
		w.WriteHeader(http.StatusOK) // readiness probe of the listener itself
		return
	}

	if !strings.HasPrefix(req.URL.Path, endpointPathPrefix) {
		h.logger.Printf("Received request for unrecognized URL path %s", req.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	path := strings.TrimPrefix(req.URL.Path, endpointPathPrefix)
	var endpointID string
	if slashPos := strings.Index(path, "/"); slashPos >= 0 {
		endpointID = path[0:slashPos]
		path = path[slashPos:]
	} else {
		endpointID = path
		path = ""
	}

	h.lock.Lock()
	e := h.endpoints[endpointID]
	h.lock.Unlock()
	if e == nil {
		h.logger.Printf("Received request for unrecognized endpoint %s", req.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var body []byte
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			h.logger.Printf("Unexpected error trying to read request body: %s", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		body = data
	}

	ctx, release := e.track(req.Context())
	defer release()

	u := *req.URL
	u.Path = path
	if u.RawPath != "" {
		u.RawPath = strings.TrimPrefix(u.RawPath, endpointPathPrefix+endpointID)
	}
	e.record(req, &u, body)

	transformedReq := req.WithContext(ctx)
	transformedReq.URL = &u
	transformedReq.Body = io.NopCloser(bytes.NewReader(body))
	e.handler.ServeHTTP(w, transformedReq)
}

// awaitListener polls the listener until it answers, so that no test starts before the harness
// is reachable.
func awaitListener(ctx context.Context, url string) error {
	client := &http.Client{Timeout: time.Second}
	_, ok, err := steps.Poll(ctx, steps.Wait{Timeout: httpListenerTimeout, Polling: 10 * time.Millisecond},
		func(ctx context.Context) (int, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
			if err != nil {
				return 0, err
			}
			resp, err := client.Do(req)
			if err != nil {
				return 0, nil
			}
			_ = resp.Body.Close()
			return resp.StatusCode, nil
		},
		func(status int) (bool, error) { return status == http.StatusOK, nil },
	)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("could not detect own listener at %s", url)
	}
	return nil
}
