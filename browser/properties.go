package browser

import (
	"time"

	"github.com/launchdarkly/go-fluent-steps/properties"
)

// BrowserName is a browser that a remote WebDriver server can start.
type BrowserName string

const (
	Chrome  BrowserName = "chrome"
	Firefox BrowserName = "firefox"
	Edge    BrowserName = "MicrosoftEdge"
	Safari  BrowserName = "safari"
)

const defaultWaiting = time.Minute

var (
	RemoteURLProperty = properties.URL("web.driver.url")
	BrowserProperty   = properties.Enum("web.driver.browser", Chrome, Firefox, Edge, Safari)
	// BaseURLProperty is the start page; relative navigation targets are resolved against it.
	BaseURLProperty = properties.URL("base.web.driver.url")

	AlertWaitingProperty    = properties.Duration("waiting.alert.time.unit", "waiting.alert.time.value")
	ElementsWaitingProperty = properties.Duration("waiting.for.elements.time.unit", "waiting.for.elements.time.value")

	ScreenshotDirProperty = properties.String("web.driver.screenshots.dir")
)
