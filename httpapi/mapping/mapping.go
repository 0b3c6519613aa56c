// Package mapping implements HTTP APIs declared as structs of function fields.
//
// Each function field carries an http tag with the method and an optional path template, and
// returns *httpapi.Request. Its arguments are parameter structs whose tagged fields become path
// segments, query parameters, headers or the body:
//
//	type ItemsAPI struct {
//		Get  func(ItemID, Paging) *httpapi.Request `http:"GET items/{id}"`
//		Save func(NewItem) *httpapi.Request        `http:"POST items" headers:"X-Source=tests"`
//	}
//
//	type ItemID struct {
//		ID int `path:"id"`
//	}
//
//	type Paging struct {
//		Page  int      `query:"page"`
//		Sort  []string `query:"sort,explode=false"`
//		Trace string   `header:"X-Trace"`
//	}
//
// Create fills the function fields with implementations that build the requests.
package mapping

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/launchdarkly/go-fluent-steps/httpapi"
)

// ErrInvalidAPI is wrapped by every error about a malformed API declaration.
var ErrInvalidAPI = errors.New("invalid API definition")

var requestType = reflect.TypeOf((*httpapi.Request)(nil))

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidAPI, fmt.Sprintf(format, args...))
}

var tuners struct {
	lock       sync.RWMutex
	byType     map[reflect.Type][]httpapi.RequestTuner
	byInstance map[any][]httpapi.RequestTuner
}

func init() {
	tuners.byType = map[reflect.Type][]httpapi.RequestTuner{}
	tuners.byInstance = map[any][]httpapi.RequestTuner{}
}

// BindTuner applies tuners to requests of every instance of the API struct type.
func BindTuner[API any](ts ...httpapi.RequestTuner) {
	t := reflect.TypeOf((*API)(nil)).Elem()
	tuners.lock.Lock()
	tuners.byType[t] = append(tuners.byType[t], ts...)
	tuners.lock.Unlock()
}

// Use applies tuners to requests of one API instance, given as the pointer passed to Create.
func Use(api any, ts ...httpapi.RequestTuner) {
	tuners.lock.Lock()
	tuners.byInstance[api] = append(tuners.byInstance[api], ts...)
	tuners.lock.Unlock()
}

func tunersFor(api any, t reflect.Type) []httpapi.RequestTuner {
	tuners.lock.RLock()
	defer tuners.lock.RUnlock()
	out := append([]httpapi.RequestTuner(nil), tuners.byType[t]...)
	return append(out, tuners.byInstance[api]...)
}

// Create fills the function fields of the struct pointed to by api. Requests go to paths
// relative to baseURL.
func Create(api any, baseURL string) error {
	base, err := url.Parse(baseURL)
	if err != nil {
		return invalid("base URL %q: %s", baseURL, err)
	}
	if !base.IsAbs() {
		return invalid("base URL %q is not absolute", baseURL)
	}

	pv := reflect.ValueOf(api)
	if pv.Kind() != reflect.Ptr || pv.IsNil() || pv.Elem().Kind() != reflect.Struct {
		return invalid("expected a non-nil pointer to a struct, got %T", api)
	}
	sv := pv.Elem()
	st := sv.Type()

	implementations := make(map[int]reflect.Value)
	for i := 0; i < st.NumField(); i++ {
		sf := st.Field(i)
		if sf.Type.Kind() != reflect.Func {
			continue
		}
		if !sf.IsExported() {
			return invalid("%s.%s is not exported", st.Name(), sf.Name)
		}
		m, err := parseMethod(st, sf)
		if err != nil {
			return err
		}
		m.base = strings.TrimRight(base.String(), "/")
		implementations[i] = reflect.MakeFunc(sf.Type, m.implementation(api, st))
	}
	if len(implementations) == 0 {
		return invalid("%s declares no request functions", st.Name())
	}
	for i, fn := range implementations {
		sv.Field(i).Set(fn)
	}
	return nil
}

// CreateDefault is Create with the base URL from the end.point.of.target.api property.
func CreateDefault(api any) error {
	base, err := httpapi.DefaultEndpointProperty.Value()
	if err != nil {
		return err
	}
	return Create(api, base.String())
}
