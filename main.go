package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/launchdarkly/go-fluent-steps/framework"
	"github.com/launchdarkly/go-fluent-steps/harness"
	"github.com/launchdarkly/go-fluent-steps/httpapi"
	"github.com/launchdarkly/go-fluent-steps/properties"
	"github.com/launchdarkly/go-fluent-steps/suitedef"
)

func main() {
	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}
	os.Exit(run(context.Background(), params))
}

func run(ctx context.Context, params commandParams) int {
	if params.propertiesPath != "" {
		if err := properties.UseFile(params.propertiesPath); err != nil {
			fmt.Fprintf(os.Stderr, "Properties error: %s\n", err)
			return 1
		}
	}

	suite, err := suitedef.Load(params.suitePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Suite error: %s\n", err)
		return 1
	}
	baseURL, err := targetURL(params, suite)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		return 1
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	if params.awaitTimeout > 0 {
		if err := framework.AwaitService(ctx, baseURL, params.awaitTimeout, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Service error: %s\n", err)
			return 1
		}
	}

	runner := &suiteRunner{suite: suite, baseURL: baseURL, client: httpapi.NewContext()}
	if suite.NeedsCallbacks() {
		h, err := harness.New(ctx, params.host, params.port, mainDebugLogger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Callback listener error: %s\n", err)
			return 1
		}
		defer func() { _ = h.Close() }()
		runner.harness = h
	}

	fmt.Println()
	framework.PrintFilterDescription(os.Stdout, params.filters)

	fmt.Println("Running test suite")

	testLogger := &ConsoleTestLogger{
		Out:                  os.Stdout,
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	results := runner.Run(params.filters.AsFilter, testLogger)

	fmt.Println()
	PrintResults(os.Stdout, results)
	if !results.OK() {
		return 1
	}
	return 0
}

// targetURL picks the base URL from the command line, then the suite, then the
// end.point.of.target.api property.
func targetURL(params commandParams, suite *suitedef.Suite) (string, error) {
	if params.targetURL != "" {
		return params.targetURL, nil
	}
	if suite.BaseURL != "" {
		return suite.BaseURL, nil
	}
	u, err := httpapi.DefaultEndpointProperty.Value()
	if err != nil {
		return "", fmt.Errorf("no base URL: use -url, baseUrl in the suite or the %s property: %w",
			httpapi.DefaultEndpointProperty.Name(), err)
	}
	return u.String(), nil
}
