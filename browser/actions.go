package browser

import (
	"context"
	"fmt"
	"net/url"

	"github.com/tebeka/selenium"

	"github.com/launchdarkly/go-fluent-steps/steps"
)

type none = struct{}

func browserAction(description string, f func(d Driver) error) *steps.ActionStep[*Context, none] {
	return steps.Action(description, func(ctx context.Context, c *Context, _ none) error {
		d, err := c.Driver(ctx)
		if err != nil {
			return err
		}
		return f(d)
	}).OnValue(none{})
}

// Click clicks the element found by the step passed to On.
func Click() *steps.ActionStep[*Context, selenium.WebElement] {
	return steps.Action("Click", func(_ context.Context, _ *Context, e selenium.WebElement) error {
		return e.Click()
	})
}

// Edit clears the element and types the keys into it.
func Edit(keys string) *steps.ActionStep[*Context, selenium.WebElement] {
	return steps.Action(fmt.Sprintf("Edit value: %s", keys), func(_ context.Context, _ *Context, e selenium.WebElement) error {
		if err := e.Clear(); err != nil {
			return err
		}
		return e.SendKeys(keys)
	})
}

// Navigate opens the URL. A relative URL is resolved against base.web.driver.url.
func Navigate(target string) *steps.ActionStep[*Context, string] {
	return steps.Action("Navigate to "+target, func(ctx context.Context, c *Context, target string) error {
		resolved, err := resolveURL(target)
		if err != nil {
			return err
		}
		d, err := c.Driver(ctx)
		if err != nil {
			return err
		}
		return d.Get(resolved)
	}).OnValue(target)
}

func resolveURL(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return target, nil
	}
	base, err := BaseURLProperty.Value()
	if err != nil {
		return "", fmt.Errorf("relative URL %q needs a base URL: %w", target, err)
	}
	return base.ResolveReference(u).String(), nil
}

func Back() *steps.ActionStep[*Context, none] {
	return browserAction("Back", Driver.Back)
}

func Forward() *steps.ActionStep[*Context, none] {
	return browserAction("Forward", Driver.Forward)
}

func RefreshPage() *steps.ActionStep[*Context, none] {
	return browserAction("Refresh", Driver.Refresh)
}

// AcceptAlert waits for an alert and accepts it. Use On to pass an alert step with criteria.
func AcceptAlert() *steps.ActionStep[*Context, *Alert] {
	return steps.Action("Accept alert", func(_ context.Context, _ *Context, a *Alert) error {
		return a.Accept()
	}).On(PresentAlert())
}

func DismissAlert() *steps.ActionStep[*Context, *Alert] {
	return steps.Action("Dismiss alert", func(_ context.Context, _ *Context, a *Alert) error {
		return a.Dismiss()
	}).On(PresentAlert())
}

func SendKeysToAlert(keys string) *steps.ActionStep[*Context, *Alert] {
	return steps.Action(fmt.Sprintf("Send keys %s to alert", keys), func(_ context.Context, _ *Context, a *Alert) error {
		return a.SendKeys(keys)
	}).On(PresentAlert())
}

// SwitchToFrame switches to a frame given by index, name or id, or by a frame element.
func SwitchToFrame(frame any) *steps.ActionStep[*Context, none] {
	return browserAction(fmt.Sprintf("Switch to frame %v", frame), func(d Driver) error {
		return d.SwitchFrame(frame)
	})
}

// SwitchToFrameElement switches to the frame element found by the step passed to On.
func SwitchToFrameElement() *steps.ActionStep[*Context, selenium.WebElement] {
	return steps.Action("Switch to frame", func(ctx context.Context, c *Context, e selenium.WebElement) error {
		d, err := c.Driver(ctx)
		if err != nil {
			return err
		}
		return d.SwitchFrame(e)
	})
}

func SwitchToDefaultContent() *steps.ActionStep[*Context, none] {
	return browserAction("Switch to default content", func(d Driver) error {
		return d.SwitchFrame(nil)
	})
}

// SwitchToWindow switches to the window handle found by the step passed to On, or given by
// OnValue.
func SwitchToWindow() *steps.ActionStep[*Context, string] {
	return steps.Action("Switch to window", func(ctx context.Context, c *Context, handle string) error {
		d, err := c.Driver(ctx)
		if err != nil {
			return err
		}
		return d.SwitchWindow(handle)
	})
}
