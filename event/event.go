// Package event delivers step lifecycle events to loggers and hands values produced by steps to
// captors.
//
// Loggers and captors are contributed through a process-wide registry of factories. Each run of
// steps gets its own Firing, which instantiates the registered factories the first time it is
// used and can be extended with run-specific loggers and captors. A Firing travels with a
// context.Context.
package event

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/launchdarkly/go-fluent-steps/properties"
)

// Logger receives step lifecycle events.
type Logger interface {
	StepStarted(description string)
	ErrorThrown(err error)
	ValueReturned(value any)
	StepFinished()
}

// Captor captures values produced by steps, for instance by taking a screenshot of a browser.
type Captor interface {
	// Captured returns the object to capture if the captor can handle the value.
	Captured(value any) (any, bool)
	// Capture records the object returned by Captured.
	Capture(captured any, message string)
}

var registry struct {
	lock    sync.Mutex
	loggers []func() Logger
	captors []func() Captor
}

// RegisterLogger adds a logger factory used by every Firing initialized afterward.
func RegisterLogger(factory func() Logger) {
	registry.lock.Lock()
	registry.loggers = append(registry.loggers, factory)
	registry.lock.Unlock()
}

// RegisterCaptor adds a captor factory used by every Firing initialized afterward.
func RegisterCaptor(factory func() Captor) {
	registry.lock.Lock()
	registry.captors = append(registry.captors, factory)
	registry.lock.Unlock()
}

// ResetRegistry removes all registered factories.
func ResetRegistry() {
	registry.lock.Lock()
	registry.loggers = nil
	registry.captors = nil
	registry.lock.Unlock()
}

// NamedLoggers holds loggers that can be enabled by name with the event.loggers property.
var NamedLoggers = properties.NewRegistry[Logger]()

// LoggersProperty lists named loggers added to every Firing, e.g. "slog,stdout".
var LoggersProperty = properties.ObjectList("event.loggers", NamedLoggers)

func init() {
	NamedLoggers.Register("slog", func() (Logger, error) { return NewSlogLogger(nil), nil })
	NamedLoggers.Register("stdout", func() (Logger, error) {
		return NewPrintfLogger(log.New(os.Stdout, "[steps] ", log.LstdFlags)), nil
	})
}

// Firing holds the loggers and captors of one run of steps.
type Firing struct {
	lock        sync.Mutex
	initialized bool
	loggers     []Logger
	captors     []Captor
}

func NewFiring() *Firing {
	return &Firing{}
}

func (f *Firing) init() {
	if f.initialized {
		return
	}
	f.initialized = true
	registry.lock.Lock()
	loggerFactories := append([]func() Logger(nil), registry.loggers...)
	captorFactories := append([]func() Captor(nil), registry.captors...)
	registry.lock.Unlock()
	for _, factory := range loggerFactories {
		f.loggers = append(f.loggers, factory())
	}
	if named, ok, err := LoggersProperty.Get(); ok && err == nil {
		f.loggers = append(f.loggers, named...)
	}
	for _, factory := range captorFactories {
		f.captors = append(f.captors, factory())
	}
}

func (f *Firing) AddLoggers(loggers ...Logger) *Firing {
	f.lock.Lock()
	f.init()
	f.loggers = append(f.loggers, loggers...)
	f.lock.Unlock()
	return f
}

func (f *Firing) AddCaptors(captors ...Captor) *Firing {
	f.lock.Lock()
	f.init()
	f.captors = append(f.captors, captors...)
	f.lock.Unlock()
	return f
}

func (f *Firing) currentLoggers() []Logger {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.init()
	return append([]Logger(nil), f.loggers...)
}

func (f *Firing) currentCaptors() []Captor {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.init()
	return append([]Captor(nil), f.captors...)
}

func (f *Firing) StepStarted(description string) {
	for _, l := range f.currentLoggers() {
		l.StepStarted(description)
	}
}

func (f *Firing) ErrorThrown(err error) {
	for _, l := range f.currentLoggers() {
		l.ErrorThrown(err)
	}
}

func (f *Firing) ValueReturned(value any) {
	for _, l := range f.currentLoggers() {
		l.ValueReturned(value)
	}
}

func (f *Firing) StepFinished() {
	for _, l := range f.currentLoggers() {
		l.StepFinished()
	}
}

// Catch offers the value to every captor; each captor that can handle it captures it.
func (f *Firing) Catch(value any, message string) {
	if value == nil {
		return
	}
	for _, c := range f.currentCaptors() {
		if captured, ok := c.Captured(value); ok {
			c.Capture(captured, message)
		}
	}
}

type firingKey struct{}

var defaultFiring = NewFiring()

// WithFiring returns a context that carries the firing.
func WithFiring(ctx context.Context, f *Firing) context.Context {
	return context.WithValue(ctx, firingKey{}, f)
}

// FromContext returns the firing carried by the context, or the process-wide default firing.
func FromContext(ctx context.Context) *Firing {
	if ctx != nil {
		if f, ok := ctx.Value(firingKey{}).(*Firing); ok && f != nil {
			return f
		}
	}
	return defaultFiring
}
