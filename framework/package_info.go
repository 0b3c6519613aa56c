// Package framework runs named tests outside of "go test", in the manner of Go's *testing.T.
//
// A Context identifies one test and accumulates its failures. It implements require.TestingT,
// so testify assertions, matchers and checks can be used with it, and its Steps() context
// sends the events of every step run in the test to the test's debug output.
//
// Subtests are started with Context.Run and can be selected with regular expression filters.
// The results of a run are reported to a TestLogger as each test finishes.
package framework
