package mapping

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/launchdarkly/go-fluent-steps/httpapi"
)

type paramKind int

const (
	queryParam paramKind = iota
	pathParam
	headerParam
	bodyParam
	formParam
	multipartParam
)

var paramTags = []struct {
	tag  string
	kind paramKind
}{
	{"query", queryParam},
	{"path", pathParam},
	{"header", headerParam},
	{"body", bodyParam},
	{"form", formParam},
	{"multipart", multipartParam},
}

type paramField struct {
	index   int
	kind    paramKind
	name    string
	style   httpapi.QueryStyle
	explode bool
	format  string // body format
	file    string // multipart file name
	ctype   string // multipart content type
}

// paramStruct is a parsed argument type of a request function.
type paramStruct struct {
	pointer bool
	fields  []paramField
}

type paramValue struct {
	field paramField
	value reflect.Value
}

func parseParamStruct(where string, t reflect.Type) (paramStruct, error) {
	var p paramStruct
	if t.Kind() == reflect.Ptr {
		p.pointer = true
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return p, invalid("%s: parameters must be structs, got %s", where, t)
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		f, found, err := parseParamField(sf)
		if err != nil {
			return p, invalid("%s: %s.%s: %s", where, t.Name(), sf.Name, err)
		}
		if !found {
			continue
		}
		if !sf.IsExported() {
			return p, invalid("%s: %s.%s is not exported", where, t.Name(), sf.Name)
		}
		f.index = i
		p.fields = append(p.fields, f)
	}
	return p, nil
}

func parseParamField(sf reflect.StructField) (paramField, bool, error) {
	var (
		f     paramField
		found bool
		tag   string
	)
	for _, candidate := range paramTags {
		if v, ok := sf.Tag.Lookup(candidate.tag); ok {
			if found {
				return f, false, fmt.Errorf("only one of query, path, header, body, form and multipart may be used")
			}
			found, f.kind, tag = true, candidate.kind, v
		}
	}
	if !found {
		return f, false, nil
	}

	parts := strings.Split(tag, ",")
	f.name = strings.TrimSpace(parts[0])
	if f.name == "" && f.kind != bodyParam {
		f.name = sf.Name
	}
	f.style, f.explode = httpapi.StyleForm, true

	switch f.kind {
	case bodyParam:
		switch f.name {
		case "", "json":
			f.format = "json"
		case "xml", "text", "bytes":
			f.format = f.name
		default:
			return f, false, fmt.Errorf("unknown body format %q", f.name)
		}
		if len(parts) > 1 {
			return f, false, fmt.Errorf("body tag takes no options")
		}
		return f, true, nil
	case queryParam, multipartParam:
	default:
		if len(parts) > 1 {
			return f, false, fmt.Errorf("tag %q takes no options", tag)
		}
		return f, true, nil
	}

	for _, option := range parts[1:] {
		key, value, _ := strings.Cut(strings.TrimSpace(option), "=")
		var err error
		switch {
		case f.kind == queryParam && key == "style":
			f.style, err = httpapi.ParseQueryStyle(value)
		case f.kind == queryParam && key == "explode":
			f.explode, err = strconv.ParseBool(value)
		case f.kind == multipartParam && key == "filename":
			f.file = value
		case f.kind == multipartParam && key == "contentType":
			f.ctype = value
		default:
			err = fmt.Errorf("unknown option %q", option)
		}
		if err != nil {
			return f, false, err
		}
	}
	return f, true, nil
}

// values returns the tagged fields of an argument, leaving out nil ones.
func (p paramStruct) values(arg reflect.Value) []paramValue {
	if p.pointer {
		if arg.IsNil() {
			return nil
		}
		arg = arg.Elem()
	}
	var out []paramValue
	for _, f := range p.fields {
		v := arg.Field(f.index)
		if isNil(v) {
			continue
		}
		out = append(out, paramValue{field: f, value: v})
	}
	return out
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return v.IsNil()
	}
	return false
}

func deref(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func scalarString(v reflect.Value) (string, bool) {
	v = deref(v)
	if !v.IsValid() {
		return "", false
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String(), true
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true
	}
	return "", false
}

// stringValues renders a scalar, or each item of a slice, as strings.
func stringValues(v reflect.Value) []string {
	v = deref(v)
	if !v.IsValid() {
		return nil
	}
	if (v.Kind() == reflect.Slice || v.Kind() == reflect.Array) && v.Type().Elem().Kind() != reflect.Uint8 {
		var out []string
		for i := 0; i < v.Len(); i++ {
			out = append(out, stringValues(v.Index(i))...)
		}
		return out
	}
	if s, ok := scalarString(v); ok {
		return []string{s}
	}
	if v.Kind() == reflect.Slice {
		return []string{string(v.Bytes())}
	}
	return []string{fmt.Sprint(v.Interface())}
}

func (f paramField) encodeBody(v reflect.Value) httpapi.Body {
	value := v.Interface()
	switch f.format {
	case "xml":
		return httpapi.XMLBody(value)
	case "text":
		return httpapi.StringBody(strings.Join(stringValues(v), "\n"))
	case "bytes":
		return httpapi.BytesBody(contentBytes(v), "")
	}
	return httpapi.JSONBody(value)
}

func (f paramField) part(v reflect.Value) httpapi.Part {
	return httpapi.Part{Name: f.name, FileName: f.file, ContentType: f.ctype, Content: contentBytes(v)}
}

func contentBytes(v reflect.Value) []byte {
	v = deref(v)
	if !v.IsValid() {
		return nil
	}
	if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
		return v.Bytes()
	}
	if v.Kind() == reflect.String {
		return []byte(v.String())
	}
	return []byte(strings.Join(stringValues(v), ","))
}
