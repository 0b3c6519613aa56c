package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/launchdarkly/go-fluent-steps/framework"
)

var (
	failedColor  = color.New(color.FgRed, color.Bold)
	skippedColor = color.New(color.FgYellow)
	passedColor  = color.New(color.FgGreen)
	debugColor   = color.New(color.Faint)
)

type ConsoleTestLogger struct {
	Out                  io.Writer
	DebugOutputOnFailure bool
	DebugOutputOnSuccess bool
}

func (c *ConsoleTestLogger) TestStarted(id framework.TestID) {
	fmt.Fprintf(c.Out, "[%s]\n", id)
}

func (c *ConsoleTestLogger) TestError(id framework.TestID, err error) {
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Fprintf(c.Out, "  %s\n", line)
	}
}

func (c *ConsoleTestLogger) TestFinished(id framework.TestID, failed bool, debugOutput framework.CapturedOutput) {
	if failed {
		failedColor.Fprintf(c.Out, "  FAILED: %s\n", id)
	}
	if len(debugOutput) > 0 &&
		((failed && c.DebugOutputOnFailure) || (!failed && c.DebugOutputOnSuccess)) {
		var b strings.Builder
		debugOutput.Dump(&b, "    DEBUG ")
		debugColor.Fprint(c.Out, b.String())
	}
}

func (c *ConsoleTestLogger) TestSkipped(id framework.TestID, reason string) {
	if reason == "" {
		skippedColor.Fprintf(c.Out, "  SKIPPED: %s\n", id)
	} else {
		skippedColor.Fprintf(c.Out, "  SKIPPED: %s (%s)\n", id, reason)
	}
}

// PrintResults writes the summary of a run: the failed tests and the counts.
func PrintResults(out io.Writer, results framework.Results) {
	if len(results.Failures) > 0 {
		failedColor.Fprintln(out, "FAILED TESTS:")
		for _, f := range results.Failures {
			fmt.Fprintf(out, "  %s\n", f.TestID)
		}
	}
	summary := fmt.Sprintf("%d passed, %d failed, %d skipped", results.Passed(), len(results.Failures), results.Skipped())
	if results.OK() {
		passedColor.Fprintln(out, summary)
	} else {
		failedColor.Fprintln(out, summary)
	}
}
