package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// File is one binary part of a mutation payload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// buildMultipart serializes data as a JSON "data" part followed by one
// "file" part per file, the exact two-field convention the backend expects.
func buildMultipart(data map[string]any, files []File) (body *bytes.Buffer, contentType string, err error) {
	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, "", fmt.Errorf("upstream: encode data part: %w", err)
	}
	if err := w.WriteField("data", string(encoded)); err != nil {
		return nil, "", fmt.Errorf("upstream: write data part: %w", err)
	}

	for _, f := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(f.Name)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		hdr.Set("Content-Type", ct)

		part, err := w.CreatePart(hdr)
		if err != nil {
			return nil, "", fmt.Errorf("upstream: create file part: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("upstream: write file part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("upstream: close multipart: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
