package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/launchdarkly/go-fluent-steps/framework"
)

const (
	defaultPort         = 8111
	defaultAwaitTimeout = time.Second * 10
)

type commandParams struct {
	suitePath      string
	targetURL      string
	propertiesPath string
	port           int
	host           string
	filters        framework.RegexFilters
	awaitTimeout   time.Duration
	debug          bool
	debugAll       bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	fs.StringVar(&c.suitePath, "suite", "", "YAML file with the test suite")
	fs.StringVar(&c.targetURL, "url", "", "base URL of the service under test (overrides the suite and end.point.of.target.api)")
	fs.StringVar(&c.propertiesPath, "properties", "", "properties file (default: fluent-steps.yaml in the working or config directory)")
	fs.StringVar(&c.host, "host", "localhost", "external hostname of the callback listener")
	fs.IntVar(&c.port, "port", defaultPort, "port that the callback listener will listen on (0 for any)")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.DurationVar(&c.awaitTimeout, "await", defaultAwaitTimeout, "how long to wait for the service to answer before running tests (0 to not wait)")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}
	if c.suitePath == "" {
		fmt.Fprintln(os.Stderr, "-suite is required")
		fs.Usage()
		return false
	}
	return true
}
