package browser

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/tebeka/selenium"

	"github.com/launchdarkly/go-fluent-steps/event"
)

const (
	BrowserScreenshotCaption = "Browser screenshot"
	ElementScreenshotCaption = "Screenshot taken from the element"
)

// ScreenshotSink receives the screenshots taken by captors.
type ScreenshotSink interface {
	Save(img image.Image, caption, step string) error
}

// BrowserScreenshotCaptor takes a screenshot of the browser whenever a step offers a browser
// context. A context whose browser has not been started is ignored.
type BrowserScreenshotCaptor struct {
	Sink ScreenshotSink
}

func (b BrowserScreenshotCaptor) Captured(value any) (any, bool) {
	c, ok := value.(*Context)
	if !ok || c == nil {
		return nil, false
	}
	d := c.current()
	if d == nil {
		return nil, false
	}
	return decodeScreenshot(d.Screenshot())
}

func (b BrowserScreenshotCaptor) Capture(captured any, step string) {
	save(b.Sink, captured, BrowserScreenshotCaption, step)
}

// ElementScreenshotCaptor takes a screenshot of an element whenever a step offers one.
type ElementScreenshotCaptor struct {
	Sink ScreenshotSink
}

func (e ElementScreenshotCaptor) Captured(value any) (any, bool) {
	el, ok := value.(selenium.WebElement)
	if !ok || el == nil {
		return nil, false
	}
	return decodeScreenshot(el.Screenshot(true))
}

func (e ElementScreenshotCaptor) Capture(captured any, step string) {
	save(e.Sink, captured, ElementScreenshotCaption, step)
}

func decodeScreenshot(data []byte, err error) (any, bool) {
	if err != nil {
		slog.Warn("could not take screenshot", "error", err)
		return nil, false
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Warn("could not decode screenshot", "error", err)
		return nil, false
	}
	return img, true
}

func save(sink ScreenshotSink, captured any, caption, step string) {
	img, ok := captured.(image.Image)
	if !ok || sink == nil {
		return
	}
	if err := sink.Save(img, caption, step); err != nil {
		slog.Warn("could not save screenshot", "caption", caption, "step", step, "error", err)
	}
}

// RegisterScreenshotCaptors makes every new event firing capture browser and element
// screenshots into the sink. A nil sink writes to the directory named by
// web.driver.screenshots.dir.
func RegisterScreenshotCaptors(sink ScreenshotSink) error {
	if sink == nil {
		dir, err := ScreenshotDirProperty.Value()
		if err != nil {
			return err
		}
		sink = DirectorySink{Dir: dir}
	}
	event.RegisterCaptor(func() event.Captor { return BrowserScreenshotCaptor{Sink: sink} })
	event.RegisterCaptor(func() event.Captor { return ElementScreenshotCaptor{Sink: sink} })
	return nil
}

// DirectorySink writes each screenshot as a PNG file into a directory, creating it if needed.
type DirectorySink struct {
	Dir string
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func (s DirectorySink) Save(img image.Image, caption, step string) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	slug := strings.Trim(unsafeFileChars.ReplaceAllString(strings.ToLower(caption+" "+step), "-"), "-")
	if len(slug) > 80 {
		slug = slug[:80]
	}
	f, err := os.Create(filepath.Join(s.Dir, fmt.Sprintf("%s-%s.png", slug, uuid.NewString())))
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
