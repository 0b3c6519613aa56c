package framework

import "strings"

// Results accumulates the outcome of every test of a run.
type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
}

func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// Passed counts the named tests that ran without failing.
func (r Results) Passed() int {
	failed := map[string]bool{}
	for _, f := range r.Failures {
		failed[f.TestID.String()] = true
	}
	n := 0
	for _, t := range r.Tests {
		if len(t.TestID.Path) > 0 && !t.Skipped && !failed[t.TestID.String()] {
			n++
		}
	}
	return n
}

func (r Results) Skipped() int {
	n := 0
	for _, t := range r.Tests {
		if t.Skipped {
			n++
		}
	}
	return n
}

type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}
