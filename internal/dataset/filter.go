package dataset

import "strings"

// Filter keeps the entries where any field contains term, case-insensitive.
// Strings are matched directly, structured values through their JSON text.
// A blank term returns a copy of entries. The input is never modified.
func Filter(entries []Entry, term string) []Entry {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return append([]Entry(nil), entries...)
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if Matches(e, needle) {
			out = append(out, e)
		}
	}
	return out
}

// Matches reports whether any field of e contains needle, which must
// already be lower-cased. A null value matches as "null"; absent expiration
// and metadata never match.
func Matches(e Entry, needle string) bool {
	if strings.Contains(strings.ToLower(e.Key), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(searchText(e.Value)), needle) {
		return true
	}
	if e.Expiration != nil && strings.Contains(strings.ToLower(e.ExpirationText()), needle) {
		return true
	}
	if e.Metadata != nil && strings.Contains(strings.ToLower(JSONText(e.Metadata)), needle) {
		return true
	}
	return false
}

func searchText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return JSONText(v)
}
