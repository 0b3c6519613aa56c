package httpapi

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
)

// Body produces the payload of a request. It is encoded on every send so that a polled
// request can be sent again.
type Body interface {
	Encode() (data []byte, contentType string, err error)
}

type bodyFunc func() ([]byte, string, error)

func (f bodyFunc) Encode() ([]byte, string, error) { return f() }

func JSONBody(v any) Body {
	return bodyFunc(func() ([]byte, string, error) {
		data, err := json.Marshal(v)
		return data, "application/json", err
	})
}

func XMLBody(v any) Body {
	return bodyFunc(func() ([]byte, string, error) {
		data, err := xml.Marshal(v)
		return data, "application/xml", err
	})
}

func StringBody(s string) Body {
	return bodyFunc(func() ([]byte, string, error) {
		return []byte(s), "text/plain; charset=utf-8", nil
	})
}

// BytesBody sends raw bytes; an empty content type means application/octet-stream.
func BytesBody(data []byte, contentType string) Body {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return bodyFunc(func() ([]byte, string, error) {
		return data, contentType, nil
	})
}

func FormBody(values url.Values) Body {
	return bodyFunc(func() ([]byte, string, error) {
		return []byte(values.Encode()), "application/x-www-form-urlencoded", nil
	})
}

// Part is one part of a multipart/form-data body.
type Part struct {
	Name        string
	FileName    string
	ContentType string
	Content     []byte
}

func MultipartBody(parts ...Part) Body {
	return bodyFunc(func() ([]byte, string, error) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, p := range parts {
			h := make(textproto.MIMEHeader)
			disposition := fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(p.Name))
			if p.FileName != "" {
				disposition += fmt.Sprintf(`; filename="%s"`, escapeQuotes(p.FileName))
			}
			h.Set("Content-Disposition", disposition)
			if p.ContentType != "" {
				h.Set("Content-Type", p.ContentType)
			} else if p.FileName != "" {
				h.Set("Content-Type", "application/octet-stream")
			}
			pw, err := w.CreatePart(h)
			if err != nil {
				return nil, "", err
			}
			if _, err := pw.Write(p.Content); err != nil {
				return nil, "", err
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), w.FormDataContentType(), nil
	})
}

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
