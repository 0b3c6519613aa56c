package matchers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

func uriPart(description string, part func(*url.URL) string, m Matcher[string]) Matcher[*url.URL] {
	return Diagnosing(description+" "+m.String(), func(u *url.URL, mismatch *strings.Builder) bool {
		if u == nil {
			mismatch.WriteString("was null")
			return false
		}
		actual := part(u)
		if m.Matches(actual) {
			return true
		}
		fmt.Fprintf(mismatch, "%s %s", description, m.DescribeMismatch(actual))
		return false
	})
}

func URIHasScheme(scheme string) Matcher[*url.URL] {
	return uriPart("scheme", func(u *url.URL) string { return u.Scheme }, EqualIgnoringCase(scheme))
}

func URIHasHost(host string) Matcher[*url.URL] {
	return uriPart("host", (*url.URL).Hostname, EqualIgnoringCase(host))
}

// URIHasPort matches the explicit port, or the default port of http and https URLs.
func URIHasPort(port int) Matcher[*url.URL] {
	return uriPart("port", func(u *url.URL) string {
		if p := u.Port(); p != "" {
			return p
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "ws":
			return "80"
		case "https", "wss":
			return "443"
		}
		return ""
	}, EqualTo(strconv.Itoa(port)))
}

func URIHasPath(m Matcher[string]) Matcher[*url.URL] {
	return uriPart("path", func(u *url.URL) string { return u.Path }, m)
}

// URIHasQuery matches the raw (encoded) query string.
func URIHasQuery(m Matcher[string]) Matcher[*url.URL] {
	return uriPart("query", func(u *url.URL) string { return u.RawQuery }, m)
}
