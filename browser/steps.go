package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tebeka/selenium"

	"github.com/launchdarkly/go-fluent-steps/steps"
)

var (
	ErrNoSuchElement = errors.New("no such element")
	ErrNoAlert       = errors.New("no alert present")
)

// Alert is a JavaScript alert, confirm or prompt dialog shown by the browser.
type Alert struct {
	Text   string
	driver Driver
}

func (a *Alert) Accept() error              { return a.driver.AcceptAlert() }
func (a *Alert) Dismiss() error             { return a.driver.DismissAlert() }
func (a *Alert) SendKeys(keys string) error { return a.driver.SetAlertText(keys) }

func (a *Alert) String() string {
	return fmt.Sprintf("alert %q", a.Text)
}

// isAbsent reports whether a WebDriver error only says that nothing is there yet.
func isAbsent(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no such alert") || strings.Contains(msg, "no alert")
}

// PresentAlert waits for an alert. The timeout comes from the waiting.alert.time properties.
func PresentAlert() *steps.GetStep[*Context, *Alert] {
	s := steps.From("Present alert", withDriver(func(_ context.Context, d Driver) (*Alert, error) {
		text, err := d.AlertText()
		if err != nil {
			if isAbsent(err) {
				return nil, nil
			}
			return nil, err
		}
		return &Alert{Text: text, driver: d}, nil
	}))
	s.Timeout(AlertWaitingProperty.GetOrDefault(defaultWaiting))
	return s.OnEmpty(func() error {
		if description := s.CriteriaDescription(); description != "" {
			return fmt.Errorf("%w: No alert that suits criteria '%s' has been found", ErrNoAlert, description)
		}
		return fmt.Errorf("%w: No alert has been found", ErrNoAlert)
	})
}

// AlertText is a criteria on the text of an alert.
func AlertText(criteria steps.Criteria[string]) steps.Criteria[*Alert] {
	return steps.Condition("text "+criteria.String(), func(a *Alert) bool {
		return criteria.Test(a.Text)
	})
}

func locatorDescription(by, value string) string {
	return fmt.Sprintf("located by %s '%s'", by, value)
}

func noSuchElement(description string, criteria func() string) func() error {
	return func() error {
		if c := criteria(); c != "" {
			return fmt.Errorf("%w: nothing %s that meets criteria '%s' has been found", ErrNoSuchElement, description, c)
		}
		return fmt.Errorf("%w: nothing %s has been found", ErrNoSuchElement, description)
	}
}

func findAll(by, value string) func(ctx context.Context, c *Context) ([]selenium.WebElement, error) {
	return withDriver(func(_ context.Context, d Driver) ([]selenium.WebElement, error) {
		return d.FindElements(by, value)
	})
}

// Elements finds every element located by the locator that meets the criteria.
func Elements(by, value string) *steps.ListStep[*Context, selenium.WebElement] {
	s := steps.ListFrom("Web elements "+locatorDescription(by, value), findAll(by, value))
	return s.Timeout(ElementsWaitingProperty.GetOrDefault(defaultWaiting))
}

// Element finds the first element located by the locator that meets the criteria. It fails with
// ErrNoSuchElement when the timeout elapses.
func Element(by, value string) *steps.GetStep[*Context, selenium.WebElement] {
	return element("Web element "+locatorDescription(by, value), findAll(by, value))
}

// ElementIn finds the first element inside the element found by parent.
func ElementIn(parent *steps.GetStep[*Context, selenium.WebElement], by, value string) *steps.GetStep[*Context, selenium.WebElement] {
	description := fmt.Sprintf("Web element %s inside %s", locatorDescription(by, value), parent)
	return element(description, func(ctx context.Context, c *Context) ([]selenium.WebElement, error) {
		p, err := parent.Get(ctx, c)
		if err != nil || p == nil {
			return nil, err
		}
		return p.FindElements(by, value)
	})
}

func element(description string, find func(ctx context.Context, c *Context) ([]selenium.WebElement, error)) *steps.GetStep[*Context, selenium.WebElement] {
	s := steps.FromList(description, find)
	s.Timeout(ElementsWaitingProperty.GetOrDefault(defaultWaiting))
	return s.OnEmpty(noSuchElement(strings.TrimPrefix(description, "Web element "), s.CriteriaDescription))
}

// CurrentURL returns the URL of the current page.
func CurrentURL() *steps.GetStep[*Context, string] {
	return steps.From("Current URL", withDriver(func(_ context.Context, d Driver) (string, error) {
		return d.CurrentURL()
	}))
}

// Title returns the title of the current page as reported by the browser.
func Title() *steps.GetStep[*Context, string] {
	return steps.From("Title of the page", withDriver(func(_ context.Context, d Driver) (string, error) {
		return d.Title()
	}))
}

// WindowHandles lists the handles of the open windows and tabs.
func WindowHandles() *steps.ListStep[*Context, string] {
	return steps.ListFrom("Window handles", withDriver(func(_ context.Context, d Driver) ([]string, error) {
		return d.WindowHandles()
	}))
}

// Window finds the first window handle that meets the criteria.
func Window() *steps.GetStep[*Context, string] {
	s := steps.FromList("Window", withDriver(func(_ context.Context, d Driver) ([]string, error) {
		return d.WindowHandles()
	}))
	return s.OnEmpty(func() error {
		return fmt.Errorf("no window that meets criteria '%s' has been found", s.CriteriaDescription())
	})
}

// PageLinks lists the links of the current page, read from its source.
func PageLinks() *steps.ListStep[*Context, Link] {
	return steps.ListFrom("Links of the page", withDriver(func(_ context.Context, d Driver) ([]Link, error) {
		source, err := d.PageSource()
		if err != nil {
			return nil, err
		}
		return ParseLinks(source)
	}))
}

// PageTitle returns the contents of the title element of the current page source.
func PageTitle() *steps.GetStep[*Context, string] {
	return steps.From("Title element of the page", withDriver(func(_ context.Context, d Driver) (string, error) {
		source, err := d.PageSource()
		if err != nil {
			return "", err
		}
		return ParseTitle(source)
	}))
}
