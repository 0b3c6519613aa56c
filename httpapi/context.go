package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"
)

// Context owns the HTTP client used by HTTP steps.
type Context struct {
	lock   sync.Mutex
	client *http.Client
}

// NewContext creates a context whose client is configured by properties: the client timeout
// and whether cookies are kept.
func NewContext() *Context {
	client := &http.Client{Timeout: ClientTimeoutProperty.GetOrDefault(0)}
	if CookiesProperty.GetOrDefault(true) {
		client.Jar = newJar()
	}
	return &Context{client: client}
}

// NewContextWithClient uses the given client as is.
func NewContextWithClient(client *http.Client) *Context {
	if client == nil {
		panic("client must not be nil")
	}
	return &Context{client: client}
}

func newJar() http.CookieJar {
	jar, _ := cookiejar.New(nil) // only fails with options that set a public suffix list
	return jar
}

func (c *Context) Client() *http.Client {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.client
}

// Refresh forgets all cookies.
func (c *Context) Refresh() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.client.Jar != nil {
		client := *c.client
		client.Jar = newJar()
		c.client = &client
	}
}

// Send performs the request and reads the whole response body.
func (c *Context) Send(ctx context.Context, r *Request) (*Response, error) {
	if timeout := r.tuned().timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := r.Build(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := c.Client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", req.URL, err)
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		URL:        resp.Request.URL,
		Body:       body,
		Request:    r,
	}, nil
}
