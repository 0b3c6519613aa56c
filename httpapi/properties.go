package httpapi

import "github.com/launchdarkly/go-fluent-steps/properties"

var (
	// DefaultEndpointProperty is the base URL used by APIs created without one.
	DefaultEndpointProperty = properties.URL("end.point.of.target.api")

	// ClientTimeoutProperty limits every exchange made by a Context's client.
	ClientTimeoutProperty = properties.Duration("http.client.timeout.unit", "http.client.timeout.value")

	// CookiesProperty disables the cookie jar when false.
	CookiesProperty = properties.Bool("http.cookies")
)
