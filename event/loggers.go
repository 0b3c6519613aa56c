package event

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Printer is anything with a Printf method, such as a test's debug logger.
type Printer interface {
	Printf(message string, args ...interface{})
}

// PrintfLogger writes step events as indented lines.
type PrintfLogger struct {
	out   Printer
	lock  sync.Mutex
	depth int
}

func NewPrintfLogger(out Printer) *PrintfLogger {
	return &PrintfLogger{out: out}
}

func (l *PrintfLogger) indent() string {
	return strings.Repeat("  ", l.depth)
}

func (l *PrintfLogger) StepStarted(description string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.out.Printf("%s%s", l.indent(), description)
	l.depth++
}

func (l *PrintfLogger) ErrorThrown(err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.out.Printf("%sfailed: %s", l.indent(), err)
}

func (l *PrintfLogger) ValueReturned(value any) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.out.Printf("%sreturned: %s", l.indent(), Describe(value))
}

func (l *PrintfLogger) StepFinished() {
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.depth > 0 {
		l.depth--
	}
}

type openStep struct {
	id      string
	started time.Time
}

// SlogLogger writes step events as structured records. Every step gets a random ID so that
// nested steps can be correlated.
type SlogLogger struct {
	logger *slog.Logger
	lock   sync.Mutex
	open   []openStep
}

// NewSlogLogger creates a logger writing through the handler, wrapped so that sensitive
// attributes are masked. A nil handler means slog's default handler.
func NewSlogLogger(handler slog.Handler) *SlogLogger {
	return &SlogLogger{logger: slog.New(NewRedactingHandler(handler))}
}

func (l *SlogLogger) current() (openStep, int) {
	if len(l.open) == 0 {
		return openStep{}, 0
	}
	return l.open[len(l.open)-1], len(l.open)
}

func (l *SlogLogger) StepStarted(description string) {
	l.lock.Lock()
	parent, _ := l.current()
	step := openStep{id: uuid.NewString(), started: time.Now()}
	l.open = append(l.open, step)
	depth := len(l.open)
	l.lock.Unlock()

	attrs := []any{slog.String("step_id", step.id), slog.Int("depth", depth)}
	if parent.id != "" {
		attrs = append(attrs, slog.String("parent_id", parent.id))
	}
	l.logger.Info(description, attrs...)
}

func (l *SlogLogger) ErrorThrown(err error) {
	l.lock.Lock()
	step, _ := l.current()
	l.lock.Unlock()
	l.logger.Error("step failed", slog.String("step_id", step.id), slog.String("error", err.Error()))
}

func (l *SlogLogger) ValueReturned(value any) {
	l.lock.Lock()
	step, _ := l.current()
	l.lock.Unlock()
	l.logger.Info("step returned", slog.String("step_id", step.id), slog.String("value", Describe(value)))
}

func (l *SlogLogger) StepFinished() {
	l.lock.Lock()
	step, n := l.current()
	if n > 0 {
		l.open = l.open[:n-1]
	}
	l.lock.Unlock()
	if step.id == "" {
		return
	}
	l.logger.Debug("step finished", slog.String("step_id", step.id),
		slog.Duration("elapsed", time.Since(step.started)))
}

// Describe renders a value for logs; values with a String method use it.
func Describe(value any) string {
	switch v := value.(type) {
	case nil:
		return "<nil>"
	case string:
		return fmt.Sprintf("%q", v)
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	}
	return fmt.Sprintf("%v", value)
}
