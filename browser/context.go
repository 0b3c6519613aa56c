// Package browser drives a web browser through WebDriver with fluent steps: finding elements,
// waiting for alerts, navigating and capturing screenshots when steps succeed or fail.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tebeka/selenium"
)

// Driver is the part of selenium.WebDriver that the steps of this package use.
type Driver interface {
	Get(url string) error
	Back() error
	Forward() error
	Refresh() error
	CurrentURL() (string, error)
	Title() (string, error)
	PageSource() (string, error)
	CurrentWindowHandle() (string, error)
	WindowHandles() ([]string, error)
	SwitchWindow(name string) error
	SwitchFrame(frame interface{}) error
	FindElement(by, value string) (selenium.WebElement, error)
	FindElements(by, value string) ([]selenium.WebElement, error)
	AlertText() (string, error)
	AcceptAlert() error
	DismissAlert() error
	SetAlertText(text string) error
	DeleteAllCookies() error
	Screenshot() ([]byte, error)
	Quit() error
}

// Provider starts a new browser session.
type Provider func(ctx context.Context) (Driver, error)

// ErrNoProvider is returned when a context has neither a driver nor a way to start one.
var ErrNoProvider = errors.New("no web driver provider is configured")

// Context holds one browser session, which is started the first time a step needs it.
type Context struct {
	provider Provider
	driver   Driver
	lock     sync.Mutex
}

// NewContext creates a context that starts its browser with the provider.
func NewContext(provider Provider) *Context {
	return &Context{provider: provider}
}

// NewContextWithDriver creates a context around a running browser session.
func NewContextWithDriver(driver Driver) *Context {
	return &Context{driver: driver}
}

// Driver returns the browser session, starting it if necessary.
func (c *Context) Driver(ctx context.Context) (Driver, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.driver != nil {
		return c.driver, nil
	}
	if c.provider == nil {
		return nil, ErrNoProvider
	}
	d, err := c.provider(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not start web driver: %w", err)
	}
	c.driver = d
	return d, nil
}

// current returns the running session or nil; it never starts one.
func (c *Context) current() Driver {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.driver
}

// Refresh prepares a running session for the next test: cookies are deleted and the browser
// goes back to the start page when one is configured.
func (c *Context) Refresh(ctx context.Context) error {
	d := c.current()
	if d == nil {
		return nil
	}
	if err := d.DeleteAllCookies(); err != nil {
		return err
	}
	if start, ok, err := BaseURLProperty.Get(); err != nil {
		return err
	} else if ok {
		return d.Get(start.String())
	}
	return nil
}

// Quit ends the browser session. A later step starts a new one.
func (c *Context) Quit() error {
	c.lock.Lock()
	d := c.driver
	c.driver = nil
	c.lock.Unlock()
	if d == nil {
		return nil
	}
	return d.Quit()
}

func (c *Context) String() string {
	return "Browser"
}

// RemoteProvider starts sessions on the remote WebDriver server named by the web.driver.url
// property, using the browser named by web.driver.browser.
func RemoteProvider() Provider {
	return func(context.Context) (Driver, error) {
		serverURL, err := RemoteURLProperty.Value()
		if err != nil {
			return nil, err
		}
		name := BrowserProperty.GetOrDefault(Chrome)
		caps := selenium.Capabilities{"browserName": string(name)}
		return selenium.NewRemote(caps, serverURL.String())
	}
}

func withDriver[T any](f func(ctx context.Context, d Driver) (T, error)) func(ctx context.Context, c *Context) (T, error) {
	return func(ctx context.Context, c *Context) (T, error) {
		d, err := c.Driver(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		return f(ctx, d)
	}
}
