package event

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lines struct{ out []string }

func (l *lines) Printf(message string, args ...interface{}) {
	l.out = append(l.out, fmt.Sprintf(message, args...))
}

type intCaptor struct{ got []string }

func (c *intCaptor) Captured(v any) (any, bool) {
	n, ok := v.(int)
	return n * 10, ok
}

func (c *intCaptor) Capture(v any, message string) {
	c.got = append(c.got, fmt.Sprintf("%v %s", v, message))
}

func TestFiringUsesRegisteredFactories(t *testing.T) {
	ResetRegistry()
	defer ResetRegistry()

	out := &lines{}
	captor := &intCaptor{}
	RegisterLogger(func() Logger { return NewPrintfLogger(out) })
	RegisterCaptor(func() Captor { return captor })

	f := NewFiring()
	f.StepStarted("outer")
	f.StepStarted("inner")
	f.ValueReturned(5)
	f.StepFinished()
	f.ErrorThrown(errors.New("bad"))
	f.StepFinished()
	f.Catch(4, "number")
	f.Catch("text", "ignored")
	f.Catch(nil, "ignored")

	assert.Equal(t, []string{"outer", "  inner", "    returned: 5", "  failed: bad"}, out.out)
	assert.Equal(t, []string{"40 number"}, captor.got)
}

func TestFiringCreatesLoggersOnce(t *testing.T) {
	ResetRegistry()
	defer ResetRegistry()
	created := 0
	RegisterLogger(func() Logger {
		created++
		return NewPrintfLogger(&lines{})
	})
	f := NewFiring()
	f.StepStarted("a")
	f.StepFinished()
	f.AddLoggers(NewPrintfLogger(&lines{}))
	assert.Equal(t, 1, created)
}

func TestNamedLoggersFromProperty(t *testing.T) {
	ResetRegistry()
	LoggersProperty.Set("stdout")
	defer LoggersProperty.Unset()
	f := NewFiring()
	assert.Len(t, f.currentLoggers(), 1)
}

func TestContextBinding(t *testing.T) {
	f := NewFiring()
	ctx := WithFiring(context.Background(), f)
	assert.Same(t, f, FromContext(ctx))
	assert.Same(t, defaultFiring, FromContext(context.Background()))
}

func TestSlogLoggerCorrelatesSteps(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l.StepStarted("outer")
	l.StepStarted("inner")
	l.ValueReturned("ok")
	l.StepFinished()
	l.StepFinished()

	records := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, records, 5)
	assert.Contains(t, records[0], `"msg":"outer"`)
	assert.Contains(t, records[1], `"parent_id"`)
	assert.Contains(t, records[2], `"value":"\"ok\""`)
	assert.Contains(t, records[4], `"elapsed"`)
}

func TestRedactingHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewRedactingHandler(slog.NewTextHandler(&buf, nil)))
	logger.Info("Send with Authorization: Bearer abc.def", "password", "hunter2", "note", "plain",
		slog.Group("headers", slog.String("cookie", "sid=1")))
	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "abc.def")
	assert.NotContains(t, out, "sid=1")
	assert.Contains(t, out, "note=plain")
	assert.Contains(t, out, Masked)
}

func TestRedactText(t *testing.T) {
	assert.Equal(t, Masked, RedactText("Basic dXNlcjpwYXNz"))
	assert.Equal(t, Masked, RedactText("eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.c2ln"))
	assert.Equal(t, "curl -H 'Authorization: "+Masked+"' http://x", RedactText("curl -H 'Authorization: Bearer token' http://x"))
	assert.Equal(t, "nothing secret", RedactText("nothing secret"))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "<nil>", Describe(nil))
	assert.Equal(t, `"x"`, Describe("x"))
	assert.Equal(t, "boom", Describe(errors.New("boom")))
	assert.Equal(t, "3", Describe(3))
}
