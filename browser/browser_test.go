package browser

import (
	"context"
	"image"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebeka/selenium"

	"github.com/launchdarkly/go-fluent-steps/event"
	"github.com/launchdarkly/go-fluent-steps/matchers"
	"github.com/launchdarkly/go-fluent-steps/properties"
	"github.com/launchdarkly/go-fluent-steps/steps"
)

const page = `<html><head><title>Fake page</title></head><body>
<div id="form">
  <input name="login" value="guest">
  <input type="checkbox" name="remember" checked>
  <button class="primary" style="color: red">Sign in</button>
  <button disabled>Cancel</button>
</div>
<p hidden>secret</p>
<a href="/help">Help</a>
<a href="https://example.com/about"> About   us </a>
<a>No target</a>
</body></html>`

type shot struct {
	img     image.Image
	caption string
	step    string
}

type recordingSink struct {
	lock  sync.Mutex
	shots []shot
}

func (s *recordingSink) Save(img image.Image, caption, step string) error {
	s.lock.Lock()
	s.shots = append(s.shots, shot{img, caption, step})
	s.lock.Unlock()
	return nil
}

func (s *recordingSink) captions() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	var ret []string
	for _, sh := range s.shots {
		ret = append(ret, sh.caption)
	}
	return ret
}

func newBrowser() (*fakeDriver, *Context) {
	d := newFakeDriver(page)
	return d, NewContextWithDriver(d)
}

func withSink() (context.Context, *recordingSink) {
	sink := &recordingSink{}
	firing := event.NewFiring().AddCaptors(BrowserScreenshotCaptor{Sink: sink}, ElementScreenshotCaptor{Sink: sink})
	return event.WithFiring(context.Background(), firing), sink
}

func TestElementFound(t *testing.T) {
	_, b := newBrowser()
	e, err := Element(selenium.ByTagName, "button").
		Criteria(steps.Matches(HasText(matchers.EqualTo("Sign in")))).
		Get(context.Background(), b)
	require.NoError(t, err)
	require.NotNil(t, e)
	class, _ := e.GetAttribute("class")
	assert.Equal(t, "primary", class)
}

func TestElementNotFound(t *testing.T) {
	_, b := newBrowser()
	start := time.Now()
	e, err := Element(selenium.ByTagName, "fakeTag").Timeout(50*time.Millisecond).Get(context.Background(), b)
	assert.Nil(t, e)
	require.ErrorIs(t, err, ErrNoSuchElement)
	assert.Equal(t, "no such element: nothing located by tag name 'fakeTag' has been found", err.Error())
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	_, err = Element(selenium.ByTagName, "button").
		Criteria(steps.Matches(HasText(matchers.EqualTo("Register")))).
		Timeout(0).
		Get(context.Background(), b)
	require.ErrorIs(t, err, ErrNoSuchElement)
	assert.Contains(t, err.Error(), `that meets criteria 'has text "Register"'`)
}

func TestElementIn(t *testing.T) {
	_, b := newBrowser()
	form := Element(selenium.ByID, "form")
	e, err := ElementIn(form, selenium.ByName, "login").Get(context.Background(), b)
	require.NoError(t, err)
	matchers.Assert(t, e, HasValue(matchers.EqualTo("guest")))

	_, err = ElementIn(form, selenium.ByTagName, "a").Timeout(0).Get(context.Background(), b)
	assert.ErrorIs(t, err, ErrNoSuchElement)
}

func TestElements(t *testing.T) {
	_, b := newBrowser()
	buttons, err := Elements(selenium.ByTagName, "button").
		Criteria(steps.Matches(IsEnabled())).
		Get(context.Background(), b)
	require.NoError(t, err)
	assert.Len(t, buttons, 1)
}

func TestEdit(t *testing.T) {
	_, b := newBrowser()
	login := Element(selenium.ByName, "login")
	require.NoError(t, Edit("admin").On(login).Perform(context.Background(), b))

	e, err := login.Get(context.Background(), b)
	require.NoError(t, err)
	matchers.Assert(t, e, HasValue(matchers.EqualTo("admin")))
}

func TestElementMatchers(t *testing.T) {
	_, b := newBrowser()
	ctx := context.Background()
	button, err := Element(selenium.ByClassName, "primary").Get(ctx, b)
	require.NoError(t, err)
	checkbox, err := Element(selenium.ByName, "remember").Get(ctx, b)
	require.NoError(t, err)
	hidden, err := Element(selenium.ByTagName, "p").Get(ctx, b)
	require.NoError(t, err)

	assert.True(t, HasCSSProperty("color", matchers.EqualTo("red")).Matches(button))
	assert.True(t, HasAttribute("class", matchers.StartsWith("prim")).Matches(button))
	assert.True(t, IsSelected().Matches(checkbox))
	assert.False(t, IsSelected().Matches(button))
	assert.False(t, IsDisplayed().Matches(hidden))
	assert.Equal(t, "element is not displayed", IsDisplayed().DescribeMismatch(hidden))

	m := HasText(matchers.EqualTo("Cancel"))
	assert.Equal(t, `has text "Cancel"`, m.String())
	assert.Equal(t, `text was "Sign in"`, m.DescribeMismatch(button))
	assert.Equal(t, "element is null", m.DescribeMismatch(nil))
}

func TestClickCapturesElementAndBrowser(t *testing.T) {
	_, b := newBrowser()
	ctx, sink := withSink()

	err := Click().On(Element(selenium.ByTagName, "button")).Perform(ctx, b)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{ElementScreenshotCaption, BrowserScreenshotCaption}, sink.captions())
	for _, s := range sink.shots {
		assert.NotNil(t, s.img)
		assert.Equal(t, "Click", s.step)
	}
}

func TestFailedClickCapturesBrowserTwice(t *testing.T) {
	_, b := newBrowser()
	ctx, sink := withSink()

	err := Click().On(Element(selenium.ByTagName, "fakeTag").Timeout(10*time.Millisecond)).Perform(ctx, b)
	require.ErrorIs(t, err, ErrNoSuchElement)

	assert.Equal(t, []string{BrowserScreenshotCaption, BrowserScreenshotCaption}, sink.captions())
}

func TestFailedEditCapturesBrowserOnly(t *testing.T) {
	_, b := newBrowser()
	ctx, sink := withSink()

	err := Edit("x").On(Element(selenium.ByName, "nothing").Timeout(0)).Perform(ctx, b)
	require.Error(t, err)
	assert.Equal(t, []string{BrowserScreenshotCaption, BrowserScreenshotCaption}, sink.captions())
}

func TestCaptorIgnoresBrowserThatWasNotStarted(t *testing.T) {
	c := NewContext(func(context.Context) (Driver, error) { return newFakeDriver(page), nil })
	_, ok := BrowserScreenshotCaptor{}.Captured(c)
	assert.False(t, ok)

	_, err := c.Driver(context.Background())
	require.NoError(t, err)
	img, ok := BrowserScreenshotCaptor{}.Captured(c)
	require.True(t, ok)
	assert.Equal(t, 2, img.(image.Image).Bounds().Dx())
}

func TestAlert(t *testing.T) {
	d, b := newBrowser()
	go func() {
		time.Sleep(30 * time.Millisecond)
		d.showAlert("Hello there")
	}()

	a, err := PresentAlert().
		Criteria(AlertText(steps.StringMatches("Hello"))).
		Timeout(time.Second).
		Get(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "Hello there", a.Text)

	require.NoError(t, SendKeysToAlert("yes").Perform(context.Background(), b))
	assert.Equal(t, "yes", d.alertInput)
	require.NoError(t, AcceptAlert().Perform(context.Background(), b))
	assert.Nil(t, d.alert)
}

func TestNoAlert(t *testing.T) {
	d, b := newBrowser()
	_, err := PresentAlert().Timeout(0).Get(context.Background(), b)
	require.ErrorIs(t, err, ErrNoAlert)
	assert.Contains(t, err.Error(), "No alert has been found")

	d.showAlert("Hello")
	_, err = PresentAlert().Criteria(AlertText(steps.StringMatches("Bye"))).Timeout(0).Get(context.Background(), b)
	require.ErrorIs(t, err, ErrNoAlert)
	assert.Contains(t, err.Error(), "No alert that suits criteria 'text contains 'Bye' or meets regExp pattern 'Bye'' has been found")

	err = DismissAlert().On(PresentAlert().Criteria(AlertText(steps.StringMatches("Hello")))).Perform(context.Background(), b)
	require.NoError(t, err)
}

func TestAlertWaitingProperty(t *testing.T) {
	AlertWaitingProperty.Set("MILLIS", 20)
	defer AlertWaitingProperty.Unset()
	_, b := newBrowser()
	start := time.Now()
	_, err := PresentAlert().Get(context.Background(), b)
	require.ErrorIs(t, err, ErrNoAlert)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNegativeWaitingFallsBackToDefault(t *testing.T) {
	properties.Set("waiting.for.elements.time.value", "-5")
	defer properties.Unset("waiting.for.elements.time.value")
	properties.Set("waiting.alert.time.value", "-1s")
	defer properties.Unset("waiting.alert.time.value")

	assert.NotPanics(t, func() {
		Element(selenium.ByCSSSelector, "#x")
		Elements(selenium.ByCSSSelector, "#x")
		PresentAlert()
	})
}

func TestNavigation(t *testing.T) {
	d, b := newBrowser()
	ctx := context.Background()

	err := Navigate("/login").Perform(ctx, b)
	require.Error(t, err)

	BaseURLProperty.Set("https://example.com/app/")
	defer BaseURLProperty.Unset()
	require.NoError(t, Navigate("login").Perform(ctx, b))
	require.NoError(t, Navigate("https://other.example.com/").Perform(ctx, b))

	u, err := CurrentURL().Get(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com/", u)

	require.NoError(t, Back().Perform(ctx, b))
	assert.Equal(t, "https://example.com/app/login", d.url)
	require.NoError(t, Forward().Perform(ctx, b))
	require.NoError(t, RefreshPage().Perform(ctx, b))
}

func TestWindowsAndFrames(t *testing.T) {
	d, b := newBrowser()
	d.windows = append(d.windows, "popup")
	ctx := context.Background()

	handles, err := WindowHandles().Get(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "popup"}, handles)

	err = SwitchToWindow().On(Window().Criteria(steps.Condition("not main", func(h string) bool { return h != "main" }))).Perform(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "popup", d.window)

	require.NoError(t, SwitchToFrame(1).Perform(ctx, b))
	assert.Equal(t, 1, d.frame)
	require.NoError(t, SwitchToFrameElement().On(Element(selenium.ByID, "form")).Perform(ctx, b))
	assert.IsType(t, &fakeElement{}, d.frame)
	require.NoError(t, SwitchToDefaultContent().Perform(ctx, b))
	assert.Nil(t, d.frame)
}

func TestPageLinksAndTitle(t *testing.T) {
	_, b := newBrowser()
	ctx := context.Background()

	links, err := PageLinks().Get(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, []Link{{Text: "Help", Href: "/help"}, {Text: "About us", Href: "https://example.com/about"}}, links)

	title, err := PageTitle().Get(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "Fake page", title)
	title, err = Title().Get(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "Fake page", title)
}

func TestContextLifecycle(t *testing.T) {
	started := 0
	var last *fakeDriver
	c := NewContext(func(context.Context) (Driver, error) {
		started++
		last = newFakeDriver(page)
		return last, nil
	})
	ctx := context.Background()

	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, 0, started)

	_, err := Title().Get(ctx, c)
	require.NoError(t, err)
	_, err = Title().Get(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 1, started)

	BaseURLProperty.Set("https://example.com/start")
	defer BaseURLProperty.Unset()
	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, 0, last.cookies)
	assert.Equal(t, "https://example.com/start", last.url)

	require.NoError(t, c.Quit())
	assert.True(t, last.quit)
	_, err = Title().Get(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 2, started)

	_, err = NewContext(nil).Driver(ctx)
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestRemoteProviderNeedsURL(t *testing.T) {
	RemoteURLProperty.Unset()
	_, err := RemoteProvider()(context.Background())
	assert.Error(t, err)
}

func TestDirectorySink(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(event.ResetRegistry)
	ScreenshotDirProperty.Set(dir)
	defer ScreenshotDirProperty.Unset()
	require.NoError(t, RegisterScreenshotCaptors(nil))

	_, b := newBrowser()
	ctx := event.WithFiring(context.Background(), event.NewFiring())
	require.NoError(t, Click().On(Element(selenium.ByTagName, "button")).Perform(ctx, b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Regexp(t, `^(browser-screenshot|screenshot-taken-from-the-element)-click-.*\.png$`, e.Name())
	}
}
