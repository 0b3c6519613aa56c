package httpapi

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// QueryStyle is an OpenAPI serialization style for query parameters.
type QueryStyle string

const (
	StyleForm           QueryStyle = "form"
	StyleSpaceDelimited QueryStyle = "spaceDelimited"
	StylePipeDelimited  QueryStyle = "pipeDelimited"
	StyleDeepObject     QueryStyle = "deepObject"
)

// ParseQueryStyle accepts the style names case-insensitively; "" means form.
func ParseQueryStyle(s string) (QueryStyle, error) {
	if s == "" {
		return StyleForm, nil
	}
	for _, style := range []QueryStyle{StyleForm, StyleSpaceDelimited, StylePipeDelimited, StyleDeepObject} {
		if strings.EqualFold(s, string(style)) {
			return style, nil
		}
	}
	return "", fmt.Errorf("unknown query style %q", s)
}

func (s QueryStyle) delimiter() string {
	switch s {
	case StyleSpaceDelimited:
		return "%20"
	case StylePipeDelimited:
		return "%7C"
	}
	return ","
}

type nodeKind int

const (
	scalarNode nodeKind = iota
	listNode
	objectNode
)

type field struct {
	name  string
	value node
}

// node is a query value reduced to scalars, lists and objects.
type node struct {
	kind   nodeKind
	scalar string
	items  []node
	fields []field
}

// EncodeQuery serializes a value as query pairs ("name=value"), already percent-encoded.
// Nil values produce no pairs. Map keys are sorted; struct fields keep their declaration order
// and are named by their query or json tag.
func EncodeQuery(name string, value any, style QueryStyle, explode bool) []string {
	n, ok := toNode(reflect.ValueOf(value))
	if !ok {
		return nil
	}
	esc := url.QueryEscape
	switch n.kind {
	case scalarNode:
		return []string{esc(name) + "=" + esc(n.scalar)}

	case listNode:
		if explode {
			var pairs []string
			for _, item := range n.items {
				pairs = append(pairs, esc(name)+"="+strings.Join(flatten(item), ","))
			}
			return pairs
		}
		parts := make([]string, 0, len(n.items))
		for _, item := range n.items {
			parts = append(parts, strings.Join(flatten(item), ","))
		}
		return []string{esc(name) + "=" + strings.Join(parts, style.delimiter())}

	default:
		if style == StyleDeepObject {
			var pairs []string
			for _, f := range n.fields {
				if f.value.kind == scalarNode {
					pairs = append(pairs, esc(name)+"["+esc(f.name)+"]="+esc(f.value.scalar))
				}
			}
			return pairs
		}
		if explode {
			var pairs []string
			for _, f := range n.fields {
				pairs = append(pairs, esc(f.name)+"="+strings.Join(flatten(f.value), ","))
			}
			return pairs
		}
		var parts []string
		for _, f := range n.fields {
			if f.value.kind == objectNode {
				continue
			}
			parts = append(parts, esc(f.name), strings.Join(flatten(f.value), ","))
		}
		return []string{esc(name) + "=" + strings.Join(parts, style.delimiter())}
	}
}

// flatten renders a node as escaped scalars: lists are concatenated and objects become
// name, value pairs without their object-valued fields.
func flatten(n node) []string {
	switch n.kind {
	case scalarNode:
		return []string{url.QueryEscape(n.scalar)}
	case listNode:
		var out []string
		for _, item := range n.items {
			out = append(out, flatten(item)...)
		}
		return out
	}
	var out []string
	for _, f := range n.fields {
		if f.value.kind == objectNode {
			continue
		}
		out = append(out, url.QueryEscape(f.name))
		out = append(out, flatten(f.value)...)
	}
	return out
}

func toNode(v reflect.Value) (node, bool) {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return node{}, false
		}
		if s, ok := asStringer(v); ok {
			return node{kind: scalarNode, scalar: s}, true
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return node{}, false
	}
	if s, ok := asStringer(v); ok {
		return node{kind: scalarNode, scalar: s}, true
	}

	switch v.Kind() {
	case reflect.String:
		return node{kind: scalarNode, scalar: v.String()}, true
	case reflect.Bool:
		return node{kind: scalarNode, scalar: strconv.FormatBool(v.Bool())}, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return node{kind: scalarNode, scalar: strconv.FormatInt(v.Int(), 10)}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return node{kind: scalarNode, scalar: strconv.FormatUint(v.Uint(), 10)}, true
	case reflect.Float32:
		return node{kind: scalarNode, scalar: strconv.FormatFloat(v.Float(), 'f', -1, 32)}, true
	case reflect.Float64:
		return node{kind: scalarNode, scalar: strconv.FormatFloat(v.Float(), 'f', -1, 64)}, true

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return node{}, false
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return node{kind: scalarNode, scalar: string(bytesOf(v))}, true
		}
		n := node{kind: listNode}
		for i := 0; i < v.Len(); i++ {
			if item, ok := toNode(v.Index(i)); ok {
				n.items = append(n.items, item)
			}
		}
		return n, true

	case reflect.Map:
		if v.IsNil() {
			return node{}, false
		}
		keys := v.MapKeys()
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = fmt.Sprint(k.Interface())
		}
		order := make([]int, len(keys))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool { return names[order[a]] < names[order[b]] })
		n := node{kind: objectNode}
		for _, i := range order {
			if value, ok := toNode(v.MapIndex(keys[i])); ok {
				n.fields = append(n.fields, field{name: names[i], value: value})
			}
		}
		return n, true

	case reflect.Struct:
		n := node{kind: objectNode}
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			name := fieldName(sf)
			if name == "-" {
				continue
			}
			if value, ok := toNode(v.Field(i)); ok {
				n.fields = append(n.fields, field{name: name, value: value})
			}
		}
		return n, true
	}
	return node{kind: scalarNode, scalar: fmt.Sprint(v.Interface())}, true
}

func fieldName(sf reflect.StructField) string {
	for _, tag := range []string{"query", "json"} {
		if t, ok := sf.Tag.Lookup(tag); ok {
			if name := strings.Split(t, ",")[0]; name != "" {
				return name
			}
		}
	}
	return sf.Name
}

func asStringer(v reflect.Value) (string, bool) {
	if !v.CanInterface() {
		return "", false
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String(), true
	}
	return "", false
}

func bytesOf(v reflect.Value) []byte {
	if v.Kind() == reflect.Slice {
		return v.Bytes()
	}
	b := make([]byte, v.Len())
	for i := range b {
		b[i] = byte(v.Index(i).Uint())
	}
	return b
}
