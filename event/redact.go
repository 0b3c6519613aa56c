package event

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Masked replaces the values of sensitive attributes.
const Masked = "***REDACTED***"

var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"api_key":             true,
	"apikey":              true,
	"password":            true,
	"passwd":              true,
	"secret":              true,
	"token":               true,
	"access_token":        true,
	"refresh_token":       true,
	"session_id":          true,
	"jsessionid":          true,
	"credentials":         true,
}

var sensitiveValues = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
}

// inline matches credentials embedded in longer text, such as header lines in step descriptions.
var inline = regexp.MustCompile(`(?i)((?:authorization|cookie|x-api-key)\s*[:=]\s*)([^\s,;'"]+(?:\s+[A-Za-z0-9+/=._-]+)?)`)

type redactingHandler struct {
	next slog.Handler
}

// NewRedactingHandler wraps a handler so that sensitive attributes and credentials embedded in
// messages are masked. A nil handler means slog's default handler.
func NewRedactingHandler(next slog.Handler) slog.Handler {
	if next == nil {
		next = slog.Default().Handler()
	}
	return &redactingHandler{next: next}
}

func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, RedactText(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		redacted = append(redacted, redactAttr(a))
	}
	return &redactingHandler{next: h.next.WithAttrs(redacted)}
}

func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{next: h.next.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		redacted := make([]slog.Attr, 0, len(group))
		for _, g := range group {
			redacted = append(redacted, redactAttr(g))
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, Masked)
	}
	if a.Value.Kind() == slog.KindString {
		return slog.String(a.Key, RedactText(a.Value.String()))
	}
	return a
}

// RedactText masks a whole value that looks like a credential, or credentials that follow a
// sensitive header name inside the text.
func RedactText(s string) string {
	trimmed := strings.TrimSpace(s)
	for _, p := range sensitiveValues {
		if p.MatchString(trimmed) {
			return Masked
		}
	}
	return inline.ReplaceAllString(s, "${1}"+Masked)
}
