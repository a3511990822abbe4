// Package dataset holds the in-memory records a browsing session works on
// and the substring filter applied to them.
package dataset

import (
	"time"

	json "github.com/goccy/go-json"

	"github.com/oakwood-commons/kvbrowse/internal/kvstore"
)

// ExpirationLayout renders expirations as ISO-8601 UTC instants with
// millisecond precision.
const ExpirationLayout = "2006-01-02T15:04:05.000Z07:00"

// Namespace is a browsable partition of the store. Title is display-only and
// may repeat across namespaces.
type Namespace struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// FromStore converts store namespaces, preserving order.
func FromStore(in []kvstore.Namespace) []Namespace {
	out := make([]Namespace, len(in))
	for i, ns := range in {
		out[i] = Namespace{ID: ns.ID, Title: ns.Title}
	}
	return out
}

// Entry is one key's record as read at load time. Value holds the decoded
// store value: string, float64, bool, nil, []any or map[string]any.
type Entry struct {
	Key        string
	Value      any
	Expiration *time.Time
	Metadata   map[string]any
}

type entryJSON struct {
	Key        string         `json:"key"`
	Value      any            `json:"value"`
	Expiration *string        `json:"expiration"`
	Metadata   map[string]any `json:"metadata"`
}

// ExpirationText returns the ISO form of the expiration, or "" when absent.
func (e Entry) ExpirationText() string {
	if e.Expiration == nil {
		return ""
	}
	return e.Expiration.UTC().Format(ExpirationLayout)
}

// MarshalJSON encodes the entry with the expiration as an ISO instant and
// absent fields as null.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := entryJSON{Key: e.Key, Value: e.Value, Metadata: e.Metadata}
	if e.Expiration != nil {
		s := e.ExpirationText()
		out.Expiration = &s
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var in entryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = Entry{Key: in.Key, Value: in.Value, Metadata: in.Metadata}
	if in.Expiration != nil && *in.Expiration != "" {
		ts, err := time.Parse(time.RFC3339Nano, *in.Expiration)
		if err != nil {
			return err
		}
		e.Expiration = &ts
	}
	return nil
}

// Fields returns the entry as a generic map, the shape expression filters
// see. Absent expiration and metadata are nil.
func (e Entry) Fields() map[string]any {
	m := map[string]any{
		"key":        e.Key,
		"value":      e.Value,
		"expiration": nil,
		"metadata":   nil,
	}
	if e.Expiration != nil {
		m["expiration"] = e.ExpirationText()
	}
	if e.Metadata != nil {
		m["metadata"] = e.Metadata
	}
	return m
}

// ExpirationFromEpoch converts store epoch seconds; zero means no expiration.
func ExpirationFromEpoch(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	ts := time.Unix(sec, 0).UTC()
	return &ts
}
