package browser

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"

	"github.com/tebeka/selenium"
	"golang.org/x/net/html"
)

func pngBytes() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// fakeDriver serves a static page parsed with x/net/html.
type fakeDriver struct {
	lock        sync.Mutex
	source      string
	doc         *html.Node
	url         string
	history     []string
	alert       *string
	alertInput  string
	windows     []string
	window      string
	frame       interface{}
	cookies     int
	screenshots int
	quit        bool
}

func newFakeDriver(source string) *fakeDriver {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		panic(err)
	}
	return &fakeDriver{source: source, doc: doc, url: "about:blank", windows: []string{"main"}, window: "main", cookies: 1}
}

func (d *fakeDriver) Get(url string) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.history = append(d.history, d.url)
	d.url = url
	return nil
}

func (d *fakeDriver) Back() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if n := len(d.history); n > 0 {
		d.url = d.history[n-1]
		d.history = d.history[:n-1]
	}
	return nil
}

func (d *fakeDriver) Forward() error { return nil }
func (d *fakeDriver) Refresh() error { return nil }

func (d *fakeDriver) CurrentURL() (string, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.url, nil
}

func (d *fakeDriver) Title() (string, error)      { return ParseTitle(d.source) }
func (d *fakeDriver) PageSource() (string, error) { return d.source, nil }

func (d *fakeDriver) CurrentWindowHandle() (string, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.window, nil
}

func (d *fakeDriver) WindowHandles() ([]string, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]string(nil), d.windows...), nil
}

func (d *fakeDriver) SwitchWindow(name string) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	for _, w := range d.windows {
		if w == name {
			d.window = name
			return nil
		}
	}
	return errors.New("no such window")
}

func (d *fakeDriver) SwitchFrame(frame interface{}) error {
	d.lock.Lock()
	d.frame = frame
	d.lock.Unlock()
	return nil
}

func (d *fakeDriver) FindElement(by, value string) (selenium.WebElement, error) {
	found, _ := d.FindElements(by, value)
	if len(found) == 0 {
		return nil, errors.New("no such element")
	}
	return found[0], nil
}

func (d *fakeDriver) FindElements(by, value string) ([]selenium.WebElement, error) {
	return find(d, d.doc, by, value), nil
}

func (d *fakeDriver) showAlert(text string) {
	d.lock.Lock()
	d.alert = &text
	d.lock.Unlock()
}

func (d *fakeDriver) AlertText() (string, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.alert == nil {
		return "", errors.New("no such alert: no such alert")
	}
	return *d.alert, nil
}

func (d *fakeDriver) closeAlert() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.alert == nil {
		return errors.New("no such alert")
	}
	d.alert = nil
	return nil
}

func (d *fakeDriver) AcceptAlert() error  { return d.closeAlert() }
func (d *fakeDriver) DismissAlert() error { return d.closeAlert() }

func (d *fakeDriver) SetAlertText(text string) error {
	d.lock.Lock()
	d.alertInput = text
	d.lock.Unlock()
	return nil
}

func (d *fakeDriver) DeleteAllCookies() error {
	d.lock.Lock()
	d.cookies = 0
	d.lock.Unlock()
	return nil
}

func (d *fakeDriver) Screenshot() ([]byte, error) {
	d.lock.Lock()
	d.screenshots++
	d.lock.Unlock()
	return pngBytes(), nil
}

func (d *fakeDriver) Quit() error {
	d.quit = true
	return nil
}

// fakeElement is a selenium.WebElement over a node of the fake page.
type fakeElement struct {
	driver *fakeDriver
	node   *html.Node
	clicks int
}

func find(d *fakeDriver, root *html.Node, by, value string) []selenium.WebElement {
	var found []selenium.WebElement
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		walk(c, func(n *html.Node) bool {
			if n.Type == html.ElementNode && locates(n, by, value) {
				found = append(found, &fakeElement{driver: d, node: n})
			}
			return true
		})
	}
	return found
}

func locates(n *html.Node, by, value string) bool {
	switch by {
	case selenium.ByTagName:
		return n.Data == value
	case selenium.ByID:
		id, _ := attr(n, "id")
		return id == value
	case selenium.ByName:
		name, _ := attr(n, "name")
		return name == value
	case selenium.ByClassName:
		class, _ := attr(n, "class")
		for _, c := range strings.Fields(class) {
			if c == value {
				return true
			}
		}
	case selenium.ByLinkText:
		return n.Data == "a" && textOf(n) == value
	case selenium.ByCSSSelector:
		switch {
		case strings.HasPrefix(value, "#"):
			return locates(n, selenium.ByID, value[1:])
		case strings.HasPrefix(value, "."):
			return locates(n, selenium.ByClassName, value[1:])
		default:
			return n.Data == value
		}
	}
	return false
}

func (e *fakeElement) setAttr(name, value string) {
	for i, a := range e.node.Attr {
		if a.Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

func (e *fakeElement) Click() error {
	e.clicks++
	if _, ok := attr(e.node, "disabled"); ok {
		return errors.New("element not interactable")
	}
	return nil
}

func (e *fakeElement) SendKeys(keys string) error {
	v, _ := attr(e.node, "value")
	e.setAttr("value", v+keys)
	return nil
}

func (e *fakeElement) Submit() error { return nil }

func (e *fakeElement) Clear() error {
	e.setAttr("value", "")
	return nil
}

func (e *fakeElement) MoveTo(xOffset, yOffset int) error { return nil }

func (e *fakeElement) FindElement(by, value string) (selenium.WebElement, error) {
	found := find(e.driver, e.node, by, value)
	if len(found) == 0 {
		return nil, errors.New("no such element")
	}
	return found[0], nil
}

func (e *fakeElement) FindElements(by, value string) ([]selenium.WebElement, error) {
	return find(e.driver, e.node, by, value), nil
}

func (e *fakeElement) TagName() (string, error) { return e.node.Data, nil }
func (e *fakeElement) Text() (string, error)    { return textOf(e.node), nil }

func (e *fakeElement) IsSelected() (bool, error) {
	_, ok := attr(e.node, "checked")
	return ok, nil
}

func (e *fakeElement) IsEnabled() (bool, error) {
	_, ok := attr(e.node, "disabled")
	return !ok, nil
}

func (e *fakeElement) IsDisplayed() (bool, error) {
	_, ok := attr(e.node, "hidden")
	return !ok, nil
}

func (e *fakeElement) GetAttribute(name string) (string, error) {
	v, _ := attr(e.node, name)
	return v, nil
}

func (e *fakeElement) GetProperty(name string) (string, error) {
	return e.GetAttribute(name)
}

func (e *fakeElement) Location() (*selenium.Point, error)       { return &selenium.Point{}, nil }
func (e *fakeElement) LocationInView() (*selenium.Point, error) { return &selenium.Point{}, nil }
func (e *fakeElement) Size() (*selenium.Size, error)            { return &selenium.Size{Width: 2, Height: 2}, nil }

func (e *fakeElement) CSSProperty(name string) (string, error) {
	style, _ := attr(e.node, "style")
	for _, decl := range strings.Split(style, ";") {
		if k, v, ok := strings.Cut(decl, ":"); ok && strings.TrimSpace(k) == name {
			return strings.TrimSpace(v), nil
		}
	}
	return "", nil
}

func (e *fakeElement) Screenshot(scroll bool) ([]byte, error) { return pngBytes(), nil }

var _ selenium.WebElement = (*fakeElement)(nil)
var _ Driver = (*fakeDriver)(nil)
