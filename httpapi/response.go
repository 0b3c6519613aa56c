package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// Response is a received response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	URL        *url.URL
	Body       []byte
	Request    *Request
}

func (r *Response) String() string {
	if r == nil {
		return "<no response>"
	}
	return fmt.Sprintf("%d response to %s", r.StatusCode, r.Request)
}

func (r *Response) Text() string {
	return string(r.Body)
}

// JSON parses the body; a body that is not valid JSON gives a null value.
func (r *Response) JSON() ldvalue.Value {
	return ldvalue.Parse(r.Body)
}

// SplitPath splits a dotted JSON path such as "items.0.name".
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// ValueAt walks object keys and array indexes; a missing element gives a null value.
func ValueAt(v ldvalue.Value, path ...string) ldvalue.Value {
	for _, p := range path {
		switch v.Type() {
		case ldvalue.ObjectType:
			v = v.GetByKey(p)
		case ldvalue.ArrayType:
			i, err := strconv.Atoi(p)
			if err != nil {
				return ldvalue.Null()
			}
			v = v.GetByIndex(i)
		default:
			return ldvalue.Null()
		}
	}
	return v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
