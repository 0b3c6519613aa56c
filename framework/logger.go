package framework

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// Logger is the Printf-style logger used for debug output. *log.Logger satisfies it, and so
// does the event package's Printer, so step events can be written to any Logger.
type Logger interface {
	Printf(message string, args ...interface{})
}

// TestLogger hears about each test as it runs: TestStarted, then TestError for every failure,
// then either TestSkipped or TestFinished with the debug output, step events included.
type TestLogger interface {
	TestStarted(id TestID)
	TestError(id TestID, err error)
	TestFinished(id TestID, failed bool, debugOutput CapturedOutput)
	TestSkipped(id TestID, reason string)
}

type nullLogger struct{}

func (n nullLogger) Printf(message string, args ...interface{}) {}

func NullLogger() Logger { return nullLogger{} }

type CapturedMessage struct {
	Time    time.Time
	Message string
}

// CapturedOutput is the debug output of one test, in order.
type CapturedOutput []CapturedMessage

// CapturingLogger keeps every message so that the output of a test can be shown only if the
// test fails. It is safe for concurrent use, since steps may log from callback handlers.
type CapturingLogger struct {
	output []CapturedMessage
	lock   sync.Mutex
}

func (l *CapturingLogger) Printf(message string, args ...interface{}) {
	l.lock.Lock()
	l.output = append(l.output, CapturedMessage{Time: time.Now(), Message: fmt.Sprintf(message, args...)})
	l.lock.Unlock()
}

func (l *CapturingLogger) Output() CapturedOutput {
	l.lock.Lock()
	ret := append([]CapturedMessage(nil), l.output...)
	l.lock.Unlock()
	return ret
}

// Messages returns the text of the messages without their timestamps.
func (output CapturedOutput) Messages() []string {
	ret := make([]string, 0, len(output))
	for _, m := range output {
		ret = append(ret, m.Message)
	}
	return ret
}

// Dump writes one line per message. Messages spanning several lines, such as mismatch lists,
// keep the prefix on every line.
func (output CapturedOutput) Dump(dest io.Writer, prefix string) {
	for _, m := range output {
		stamp := m.Time.Format(timestampFormat)
		for i, line := range strings.Split(m.Message, "\n") {
			if i == 0 {
				fmt.Fprintf(dest, "%s[%s] %s\n", prefix, stamp, line)
			} else {
				fmt.Fprintf(dest, "%s%*s %s\n", prefix, len(stamp)+2, "", line)
			}
		}
	}
}
