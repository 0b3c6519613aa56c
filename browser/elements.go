package browser

import (
	"fmt"
	"strings"

	"github.com/tebeka/selenium"

	"github.com/launchdarkly/go-fluent-steps/matchers"
)

func elementString(name string, read func(selenium.WebElement) (string, error), m matchers.Matcher[string]) matchers.Matcher[selenium.WebElement] {
	return matchers.Diagnosing(fmt.Sprintf("has %s %s", name, m), func(e selenium.WebElement, mismatch *strings.Builder) bool {
		if e == nil {
			mismatch.WriteString("element is null")
			return false
		}
		v, err := read(e)
		if err != nil {
			fmt.Fprintf(mismatch, "could not read %s: %s", name, err)
			return false
		}
		if m.Matches(v) {
			return true
		}
		fmt.Fprintf(mismatch, "%s %s", name, m.DescribeMismatch(v))
		return false
	})
}

func elementState(name string, read func(selenium.WebElement) (bool, error)) matchers.Matcher[selenium.WebElement] {
	return matchers.Diagnosing("is "+name, func(e selenium.WebElement, mismatch *strings.Builder) bool {
		if e == nil {
			mismatch.WriteString("element is null")
			return false
		}
		v, err := read(e)
		if err != nil {
			fmt.Fprintf(mismatch, "could not read whether the element is %s: %s", name, err)
			return false
		}
		if !v {
			mismatch.WriteString("element is not " + name)
		}
		return v
	})
}

// HasValue checks the value attribute of a form element.
func HasValue(m matchers.Matcher[string]) matchers.Matcher[selenium.WebElement] {
	return elementString("value", func(e selenium.WebElement) (string, error) {
		return e.GetAttribute("value")
	}, m)
}

// HasText checks the visible text of an element.
func HasText(m matchers.Matcher[string]) matchers.Matcher[selenium.WebElement] {
	return elementString("text", selenium.WebElement.Text, m)
}

func HasAttribute(name string, m matchers.Matcher[string]) matchers.Matcher[selenium.WebElement] {
	return elementString(fmt.Sprintf("attribute '%s'", name), func(e selenium.WebElement) (string, error) {
		return e.GetAttribute(name)
	}, m)
}

func HasCSSProperty(name string, m matchers.Matcher[string]) matchers.Matcher[selenium.WebElement] {
	return elementString(fmt.Sprintf("css property '%s'", name), func(e selenium.WebElement) (string, error) {
		return e.CSSProperty(name)
	}, m)
}

func IsDisplayed() matchers.Matcher[selenium.WebElement] {
	return elementState("displayed", selenium.WebElement.IsDisplayed)
}

func IsEnabled() matchers.Matcher[selenium.WebElement] {
	return elementState("enabled", selenium.WebElement.IsEnabled)
}

func IsSelected() matchers.Matcher[selenium.WebElement] {
	return elementState("selected", selenium.WebElement.IsSelected)
}
