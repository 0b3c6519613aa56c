package framework

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/launchdarkly/go-fluent-steps/matchers"
)

// Filter is a function that can determine whether to run a specific test or not.
type Filter func(TestID) bool

// RegexFilters selects tests by their full name, as given by -run and -skip.
type RegexFilters struct {
	MustMatch    RegexList
	MustNotMatch RegexList
}

func (r RegexFilters) AsFilter(id TestID) bool {
	return r.Matcher().Matches(id)
}

// Matcher describes the selection as a matcher over test ids.
func (r RegexFilters) Matcher() matchers.Matcher[TestID] {
	selected := matchers.Not(r.MustNotMatch.matcher())
	if r.MustMatch.IsDefined() {
		selected = matchers.AllOf(r.MustMatch.matcher(), selected)
	}
	return selected
}

// RegexList is a flag.Value collecting unanchored patterns.
type RegexList struct {
	patterns []*regexp.Regexp
}

func (r RegexList) String() string {
	var ss []string
	for _, p := range r.patterns {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set is called by the command line parser
func (r *RegexList) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex: %w", err)
	}
	r.patterns = append(r.patterns, rx)
	return nil
}

func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

func (r RegexList) AnyMatch(s string) bool {
	for _, p := range r.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

func (r RegexList) matcher() matchers.Matcher[TestID] {
	return matchers.New("name matching "+r.String(), func(id TestID) bool {
		return r.AnyMatch(id.String())
	})
}

// PrintFilterDescription tells the user which tests the filters will skip.
func PrintFilterDescription(out io.Writer, filters RegexFilters) {
	if !filters.MustMatch.IsDefined() && !filters.MustNotMatch.IsDefined() {
		return
	}
	fmt.Fprintln(out, "Some tests will be skipped based on the filter criteria for this test run:")
	if filters.MustMatch.IsDefined() {
		fmt.Fprintf(out, "  skip any not matching %s\n", filters.MustMatch)
	}
	if filters.MustNotMatch.IsDefined() {
		fmt.Fprintf(out, "  skip any matching %s\n", filters.MustNotMatch)
	}
	fmt.Fprintln(out)
}
