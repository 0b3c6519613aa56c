package mapping

import (
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/launchdarkly/go-fluent-steps/httpapi"
)

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

// method is a parsed request function.
type method struct {
	name    string
	verb    string
	path    string
	base    string
	headers [][2]string
	params  []paramStruct
	hasBody bool
}

func parseMethod(api reflect.Type, sf reflect.StructField) (*method, error) {
	where := api.Name() + "." + sf.Name
	tag, ok := sf.Tag.Lookup("http")
	if !ok {
		return nil, invalid("%s has no http tag", where)
	}
	fields := strings.Fields(tag)
	if len(fields) == 0 || len(fields) > 2 {
		return nil, invalid("%s: http tag must be \"METHOD [path]\", got %q", where, tag)
	}
	m := &method{name: where, verb: strings.ToUpper(fields[0])}
	if len(fields) == 2 {
		m.path = strings.TrimLeft(fields[1], "/")
	}
	if !validVerb(m.verb) {
		return nil, invalid("%s: unknown HTTP method %q", where, fields[0])
	}

	if h, ok := sf.Tag.Lookup("headers"); ok {
		for _, pair := range strings.Split(h, ";") {
			if strings.TrimSpace(pair) == "" {
				continue
			}
			name, value, found := strings.Cut(pair, "=")
			if !found || strings.TrimSpace(name) == "" {
				return nil, invalid("%s: header %q must be Name=value", where, pair)
			}
			m.headers = append(m.headers, [2]string{strings.TrimSpace(name), strings.TrimSpace(value)})
		}
	}

	ft := sf.Type
	if ft.IsVariadic() {
		return nil, invalid("%s must not be variadic", where)
	}
	if ft.NumOut() != 1 || ft.Out(0) != requestType {
		return nil, invalid("%s must return only *httpapi.Request", where)
	}

	pathNames := map[string]bool{}
	var form, multipart bool
	for i := 0; i < ft.NumIn(); i++ {
		p, err := parseParamStruct(where, ft.In(i))
		if err != nil {
			return nil, err
		}
		for _, f := range p.fields {
			switch f.kind {
			case bodyParam:
				if m.hasBody {
					return nil, invalid("%s declares more than one body", where)
				}
				m.hasBody = true
			case formParam:
				form = true
			case multipartParam:
				multipart = true
			case pathParam:
				pathNames[f.name] = true
			}
		}
		m.params = append(m.params, p)
	}
	if (m.hasBody && (form || multipart)) || (form && multipart) {
		return nil, invalid("%s mixes body, form and multipart parameters", where)
	}

	inTemplate := map[string]bool{}
	for _, match := range placeholder.FindAllStringSubmatch(m.path, -1) {
		inTemplate[match[1]] = true
		if !pathNames[match[1]] {
			return nil, invalid("%s: no path parameter for {%s}", where, match[1])
		}
	}
	for name := range pathNames {
		if !inTemplate[name] {
			return nil, invalid("%s: path parameter %q does not appear in %q", where, name, m.path)
		}
	}
	return m, nil
}

func validVerb(v string) bool {
	switch v {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodOptions, http.MethodTrace, http.MethodConnect:
		return true
	}
	return false
}

func (m *method) implementation(api any, apiType reflect.Type) func([]reflect.Value) []reflect.Value {
	return func(args []reflect.Value) []reflect.Value {
		return []reflect.Value{reflect.ValueOf(m.build(args, tunersFor(api, apiType)))}
	}
}

func (m *method) build(args []reflect.Value, ts []httpapi.RequestTuner) *httpapi.Request {
	var (
		pathValues = map[string]string{}
		query      []string
		headers    [][2]string
		body       httpapi.Body
		form       url.Values
		parts      []httpapi.Part
		problem    error
	)
	for i, p := range m.params {
		for _, pv := range p.values(args[i]) {
			f, v := pv.field, pv.value
			switch f.kind {
			case pathParam:
				s, ok := scalarString(v)
				if !ok {
					problem = fmt.Errorf("%s: path parameter %q must be a non-nil scalar", m.name, f.name)
					continue
				}
				pathValues[f.name] = url.PathEscape(s)
			case queryParam:
				query = append(query, httpapi.EncodeQuery(f.name, v.Interface(), f.style, f.explode)...)
			case headerParam:
				for _, s := range stringValues(v) {
					headers = append(headers, [2]string{f.name, s})
				}
			case bodyParam:
				body = f.encodeBody(v)
			case formParam:
				if form == nil {
					form = url.Values{}
				}
				form[f.name] = append(form[f.name], stringValues(v)...)
			case multipartParam:
				parts = append(parts, f.part(v))
			}
		}
	}

	path := placeholder.ReplaceAllStringFunc(m.path, func(s string) string {
		if v, ok := pathValues[s[1:len(s)-1]]; ok {
			return v
		}
		if problem == nil {
			problem = fmt.Errorf("%s: no value for path parameter %s", m.name, s)
		}
		return s
	})

	r := httpapi.NewRequest(m.verb, m.base+"/"+path)
	for _, h := range m.headers {
		r.Header(h[0], h[1])
	}
	for _, h := range headers {
		r.Header(h[0], h[1])
	}
	r.QueryPairs(query...)
	switch {
	case body != nil:
		r.Body(body)
	case form != nil:
		r.Body(httpapi.FormBody(form))
	case parts != nil:
		r.Body(httpapi.MultipartBody(parts...))
	}
	if problem != nil {
		r.Fail(problem)
	}
	return r.Tune(ts...)
}
