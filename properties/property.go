package properties

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// ErrNotDefined is returned by Value for a property that has no value.
var ErrNotDefined = errors.New("property is not defined")

// ParseError means a property has a value that cannot be converted to its type.
type ParseError struct {
	Name  string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("property %s has invalid value %q: %s", e.Name, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Property is a named configuration value of type T.
type Property[T any] struct {
	name  string
	parse func(string) (T, error)
}

// New defines a property with a custom parser.
func New[T any](name string, parse func(string) (T, error)) Property[T] {
	if strings.TrimSpace(name) == "" {
		panic("property name must not be empty")
	}
	return Property[T]{name: name, parse: parse}
}

func (p Property[T]) Name() string {
	return p.name
}

// Get returns the value and whether the property is defined. A value that cannot be parsed is
// reported as a *ParseError.
func (p Property[T]) Get() (T, bool, error) {
	var zero T
	raw, ok := Lookup(p.name)
	if !ok || strings.TrimSpace(raw) == "" {
		return zero, false, nil
	}
	v, err := p.parse(strings.TrimSpace(raw))
	if err != nil {
		return zero, true, &ParseError{Name: p.name, Value: raw, Err: err}
	}
	return v, true, nil
}

// Value is like Get but treats an undefined property as an error.
func (p Property[T]) Value() (T, error) {
	v, ok, err := p.Get()
	if err == nil && !ok {
		err = fmt.Errorf("%w: %s", ErrNotDefined, p.name)
	}
	return v, err
}

// MustGet panics unless the property is defined and valid.
func (p Property[T]) MustGet() T {
	v, err := p.Value()
	if err != nil {
		panic(err)
	}
	return v
}

// GetOrDefault returns def when the property is undefined or invalid.
func (p Property[T]) GetOrDefault(def T) T {
	v, ok, err := p.Get()
	if !ok || err != nil {
		return def
	}
	return v
}

// Set overrides the raw value of the property.
func (p Property[T]) Set(value string) {
	Set(p.name, value)
}

// Unset removes the override of the property.
func (p Property[T]) Unset() {
	Unset(p.name)
}

func String(name string) Property[string] {
	return New(name, func(s string) (string, error) { return s, nil })
}

func Bool(name string) Property[bool] {
	return New(name, strconv.ParseBool)
}

func Int(name string) Property[int] {
	return New(name, strconv.Atoi)
}

func Float(name string) Property[float64] {
	return New(name, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// URL defines a property holding an absolute URL.
func URL(name string) Property[*url.URL] {
	return New(name, func(s string) (*url.URL, error) {
		u, err := url.Parse(s)
		if err != nil {
			return nil, err
		}
		if !u.IsAbs() {
			return nil, fmt.Errorf("not an absolute URL")
		}
		return u, nil
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// StringList defines a comma-separated list property.
func StringList(name string) Property[[]string] {
	return New(name, func(s string) ([]string, error) { return splitList(s), nil })
}

func parseEnum[E ~string](s string, allowed []E) (E, error) {
	for _, a := range allowed {
		if strings.EqualFold(string(a), s) {
			return a, nil
		}
	}
	names := make([]string, 0, len(allowed))
	for _, a := range allowed {
		names = append(names, string(a))
	}
	return "", fmt.Errorf("expected one of %s", strings.Join(names, ", "))
}

// Enum defines a property whose value must be one of the allowed values, ignoring case.
func Enum[E ~string](name string, allowed ...E) Property[E] {
	if len(allowed) == 0 {
		panic("enum property needs allowed values")
	}
	return New(name, func(s string) (E, error) { return parseEnum(s, allowed) })
}

// EnumList defines a comma-separated list of enum values.
func EnumList[E ~string](name string, allowed ...E) Property[[]E] {
	if len(allowed) == 0 {
		panic("enum property needs allowed values")
	}
	return New(name, func(s string) ([]E, error) {
		var out []E
		for _, part := range splitList(s) {
			v, err := parseEnum(part, allowed)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	})
}

// Registry maps names to factories, so that a property can name an implementation.
type Registry[T any] struct {
	lock      sync.RWMutex
	factories map[string]func() (T, error)
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{factories: map[string]func() (T, error){}}
}

func (r *Registry[T]) Register(name string, factory func() (T, error)) {
	r.lock.Lock()
	r.factories[name] = factory
	r.lock.Unlock()
}

// Create instantiates the implementation registered under the name.
func (r *Registry[T]) Create(name string) (T, error) {
	r.lock.RLock()
	factory, ok := r.factories[name]
	r.lock.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("nothing is registered as %q", name)
	}
	return factory()
}

// Object defines a property naming an implementation in the registry.
func Object[T any](name string, r *Registry[T]) Property[T] {
	return New(name, r.Create)
}

// ObjectList defines a comma-separated list of names in the registry.
func ObjectList[T any](name string, r *Registry[T]) Property[[]T] {
	return New(name, func(s string) ([]T, error) {
		var out []T
		for _, part := range splitList(s) {
			v, err := r.Create(part)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	})
}
