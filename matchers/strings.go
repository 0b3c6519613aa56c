package matchers

import (
	"fmt"
	"regexp"
	"strings"
)

func ContainsString(substring string) Matcher[string] {
	return New(fmt.Sprintf("a string containing %q", substring), func(s string) bool {
		return strings.Contains(s, substring)
	})
}

func StartsWith(prefix string) Matcher[string] {
	return New(fmt.Sprintf("a string starting with %q", prefix), func(s string) bool {
		return strings.HasPrefix(s, prefix)
	})
}

func EndsWith(suffix string) Matcher[string] {
	return New(fmt.Sprintf("a string ending with %q", suffix), func(s string) bool {
		return strings.HasSuffix(s, suffix)
	})
}

// MatchesPattern matches strings that fully match the regular expression. It panics if the
// expression does not compile.
func MatchesPattern(expression string) Matcher[string] {
	rx := regexp.MustCompile("^(?:" + expression + ")$")
	return New(fmt.Sprintf("a string matching the pattern %q", expression), rx.MatchString)
}

func EqualIgnoringCase(expected string) Matcher[string] {
	return New(fmt.Sprintf("%q ignoring case", expected), func(s string) bool {
		return strings.EqualFold(s, expected)
	})
}
