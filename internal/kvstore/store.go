// Package kvstore defines the remote key-value store the browser reads from
// and a Cloudflare Workers KV client that implements it.
package kvstore

import (
	"context"
	"errors"
)

// MaxPageSize is the largest key page the Cloudflare API accepts.
const MaxPageSize = 1000

// ErrMissingCredentials is returned when a client is built without an
// account id or API token.
var ErrMissingCredentials = errors.New("kvstore: account id and api token are required")

// Namespace is a namespace as reported by the store.
type Namespace struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Key is one item of a key listing. Expiration is epoch seconds, zero when
// the key never expires.
type Key struct {
	Name       string         `json:"name"`
	Expiration int64          `json:"expiration,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// KeyPage is one page of a cursor-paginated key listing. An empty Cursor
// marks the last page.
type KeyPage struct {
	Keys   []Key
	Cursor string
}

// Store is the read-only surface of a remote key-value store.
type Store interface {
	ListNamespaces(ctx context.Context) ([]Namespace, error)
	ListKeys(ctx context.Context, namespaceID, cursor string, limit int) (KeyPage, error)
	GetValue(ctx context.Context, namespaceID, key string) ([]byte, error)
}
