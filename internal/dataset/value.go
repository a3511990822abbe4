package dataset

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// DecodeValue parses a stored value as JSON and falls back to the raw text
// when the body is not valid JSON.
func DecodeValue(body []byte) any {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}

// JSONText serializes v compactly without HTML escaping. Map keys come out
// sorted.
func JSONText(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
