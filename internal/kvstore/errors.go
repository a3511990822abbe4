package kvstore

import (
	"fmt"
	"strings"
)

// UpstreamError reports a store call that failed or did not report success.
type UpstreamError struct {
	Op         string   // list_namespaces, list_keys or get_value
	StatusCode int      // HTTP status, zero for transport failures
	Messages   []string // error messages from the response envelope
	Err        error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "upstream %s failed", e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": API error: %d", e.StatusCode)
	}
	if len(e.Messages) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Messages, "; "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
