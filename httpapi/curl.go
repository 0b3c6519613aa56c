package httpapi

import (
	"sort"
	"strings"

	"github.com/alessio/shellescape"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}

// Curl renders the request as an equivalent curl command line, for logs. Tuners are applied.
func (r *Request) Curl() string {
	t := r.tuned()
	var cmd commandBuilder
	cmd.add("curl", "-X", t.method)

	headers := t.headers.Clone()
	var data []byte
	if t.body != nil {
		encoded, contentType, err := t.body.Encode()
		if err == nil {
			data = encoded
			if headers.Get("Content-Type") == "" {
				headers.Set("Content-Type", contentType)
			}
		}
	}
	if t.expectContinue {
		headers.Set("Expect", "100-continue")
	}
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range headers[name] {
			cmd.add("-H", name+": "+v)
		}
	}
	if t.timeout > 0 {
		cmd.add("--max-time", formatSeconds(t.timeout))
	}
	if data != nil {
		cmd.add("--data-binary", string(data))
	}
	cmd.add(t.target())
	return cmd.String()
}
