// Package kvstoretest provides an in-memory kvstore.Store for tests.
package kvstoretest

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/oakwood-commons/kvbrowse/internal/kvstore"
)

// ErrNotFound is returned by GetValue for unknown keys.
var ErrNotFound = errors.New("kvstoretest: key not found")

type namespace struct {
	title  string
	keys   []kvstore.Key
	values map[string][]byte
}

// Memory is a thread-safe fake store. Keys are listed in insertion order,
// PageSize keys per page, with the cursor being the offset of the next page.
type Memory struct {
	mu         sync.Mutex
	order      []string
	namespaces map[string]*namespace

	// PageSize caps ListKeys pages independently of the requested limit.
	PageSize int
	// NamespacesErr, ListKeysErr and ValueErrs inject failures.
	NamespacesErr error
	ListKeysErr   error
	ValueErrs     map[string]error

	listKeysCalls int
	getValueCalls int
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{namespaces: make(map[string]*namespace)}
}

// AddNamespace registers a namespace.
func (m *Memory) AddNamespace(id, title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.namespaces[id]; ok {
		return
	}
	m.order = append(m.order, id)
	m.namespaces[id] = &namespace{title: title, values: make(map[string][]byte)}
}

// Put appends a key to a namespace, creating the namespace if needed.
func (m *Memory) Put(namespaceID string, key kvstore.Key, value []byte) {
	m.AddNamespace(namespaceID, namespaceID)
	m.mu.Lock()
	defer m.mu.Unlock()
	ns := m.namespaces[namespaceID]
	if _, ok := ns.values[key.Name]; !ok {
		ns.keys = append(ns.keys, key)
	}
	ns.values[key.Name] = append([]byte(nil), value...)
}

// ListNamespaces implements kvstore.Store.
func (m *Memory) ListNamespaces(_ context.Context) ([]kvstore.Namespace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.NamespacesErr != nil {
		return nil, m.NamespacesErr
	}
	out := make([]kvstore.Namespace, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, kvstore.Namespace{ID: id, Title: m.namespaces[id].title})
	}
	return out, nil
}

// ListKeys implements kvstore.Store.
func (m *Memory) ListKeys(ctx context.Context, namespaceID, cursor string, limit int) (kvstore.KeyPage, error) {
	if err := ctx.Err(); err != nil {
		return kvstore.KeyPage{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listKeysCalls++
	if m.ListKeysErr != nil {
		return kvstore.KeyPage{}, m.ListKeysErr
	}
	ns, ok := m.namespaces[namespaceID]
	if !ok {
		return kvstore.KeyPage{}, &kvstore.UpstreamError{Op: "list_keys", StatusCode: 404}
	}
	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return kvstore.KeyPage{}, &kvstore.UpstreamError{Op: "list_keys", StatusCode: 400, Err: err}
		}
		start = n
	}
	size := limit
	if m.PageSize > 0 && (size <= 0 || m.PageSize < size) {
		size = m.PageSize
	}
	if size <= 0 {
		size = kvstore.MaxPageSize
	}
	end := min(start+size, len(ns.keys))
	if start > end {
		start = end
	}
	page := kvstore.KeyPage{Keys: append([]kvstore.Key(nil), ns.keys[start:end]...)}
	if end < len(ns.keys) {
		page.Cursor = strconv.Itoa(end)
	}
	return page, nil
}

// GetValue implements kvstore.Store.
func (m *Memory) GetValue(ctx context.Context, namespaceID, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getValueCalls++
	if err, ok := m.ValueErrs[key]; ok {
		return nil, err
	}
	ns, ok := m.namespaces[namespaceID]
	if !ok {
		return nil, ErrNotFound
	}
	v, ok := ns.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// ListKeysCalls reports how many ListKeys calls were served.
func (m *Memory) ListKeysCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listKeysCalls
}

// GetValueCalls reports how many GetValue calls were served.
func (m *Memory) GetValueCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getValueCalls
}
