package server

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/kvbrowse/internal/aggregator"
	"github.com/oakwood-commons/kvbrowse/internal/kvstore"
	"github.com/oakwood-commons/kvbrowse/internal/kvstore/kvstoretest"
	"github.com/oakwood-commons/kvbrowse/internal/metrics"
)

func newTestServer(t *testing.T, mem *kvstoretest.Memory, opts ...Option) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(aggregator.New(mem), opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func seeded() *kvstoretest.Memory {
	mem := kvstoretest.NewMemory()
	mem.AddNamespace("ns1", "User Profiles")
	mem.Put("ns1", kvstore.Key{Name: "user:1", Expiration: 1700000000}, []byte(`{"name":"Ada","role":"admin"}`))
	mem.Put("ns1", kvstore.Key{Name: "user:2", Metadata: map[string]any{"src": "import"}}, []byte(`{"name":"Bob"}`))
	mem.Put("ns1", kvstore.Key{Name: "note"}, []byte("hello, world"))
	mem.AddNamespace("ns2", "Empty")
	return mem
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestListNamespaces(t *testing.T) {
	srv := newTestServer(t, seeded())

	resp, body := get(t, srv.URL+"/api/list-namespaces")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	assert.JSONEq(t, `[{"id":"ns1","title":"User Profiles"},{"id":"ns2","title":"Empty"}]`, string(body))
}

func TestListNamespacesFailure(t *testing.T) {
	mem := seeded()
	mem.NamespacesErr = errors.New("forbidden")
	srv := newTestServer(t, mem)

	resp, body := get(t, srv.URL+"/api/list-namespaces")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Failed to list KV namespaces"}`, string(body))
}

func TestEntries(t *testing.T) {
	srv := newTestServer(t, seeded())

	resp, body := get(t, srv.URL+"/api/kv-data/ns1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 3)
	assert.Equal(t, "user:1", got[0]["key"])
	assert.Equal(t, "2023-11-14T22:13:20.000Z", got[0]["expiration"])
	assert.Nil(t, got[0]["metadata"])
	assert.Equal(t, map[string]any{"src": "import"}, got[1]["metadata"])
	assert.Equal(t, "hello, world", got[2]["value"])
}

func TestEntriesEmptyNamespaceIsEmptyArray(t *testing.T) {
	srv := newTestServer(t, seeded())

	resp, body := get(t, srv.URL+"/api/kv-data/ns2")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", strings.TrimSpace(string(body)))
}

func TestEntriesErrors(t *testing.T) {
	mem := seeded()
	srv := newTestServer(t, mem)

	resp, body := get(t, srv.URL+"/api/kv-data/")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Namespace ID is required"}`, string(body))

	mem.ListKeysErr = errors.New("boom")
	resp, body = get(t, srv.URL+"/api/kv-data/ns1")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "Failed to get KV data: ")
	assert.Contains(t, string(body), "boom")
}

func TestUnknownAPIPath(t *testing.T) {
	srv := newTestServer(t, seeded())

	for _, path := range []string{"/api/nope", "/api/", "/api/kv-data/ns1/extra/more"} {
		resp, body := get(t, srv.URL+path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.JSONEq(t, `{"error":"Not found"}`, string(body), path)
		assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"), path)
	}
}

func TestNonGetMethodsDoNotFetch(t *testing.T) {
	mem := seeded()
	srv := newTestServer(t, mem)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		for _, path := range []string{"/api/list-namespaces", "/api/kv-data/ns1", "/api/kv-data/ns1/export.csv"} {
			req, err := http.NewRequest(method, srv.URL+path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			require.NoError(t, err)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, method+" "+path)
			assert.JSONEq(t, `{"error":"Not found"}`, string(body), method+" "+path)
		}
	}
	assert.Zero(t, mem.ListKeysCalls())
	assert.Zero(t, mem.GetValueCalls())
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t, seeded())

	resp, body := get(t, srv.URL+"/api/kv-data/ns1/export.csv?title=User%20Profiles")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename=User_Profiles_data.csv`, resp.Header.Get("Content-Disposition"))

	records, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"key", "name", "role", "expiration", "metadata"}, records[0])
	assert.Equal(t, []string{"user:1", "Ada", "admin", "2023-11-14T22:13:20.000Z", ""}, records[1])
	assert.Equal(t, []string{"note", "", "", "", ""}, records[3])
}

func TestExportCSVHonorsSearchAndWhere(t *testing.T) {
	srv := newTestServer(t, seeded())

	_, body := get(t, srv.URL+"/api/kv-data/ns1/export.csv?search=hello")
	assert.Equal(t, "key,value,expiration,metadata\nnote,\"hello, world\",,\n", string(body))

	resp, body := get(t, srv.URL+`/api/kv-data/ns1/export.csv?where=_.key.endsWith(%222%22)`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename=ns1_data.csv`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "key,name,expiration,metadata\nuser:2,Bob,,\"{\"\"src\"\":\"\"import\"\"}\"\n", string(body))

	resp, _ = get(t, srv.URL+"/api/kv-data/ns1/export.csv?where=_.key%20%2B")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsRoute(t *testing.T) {
	m := metrics.New()
	srv := newTestServer(t, seeded(), WithMetrics(m))

	get(t, srv.URL+"/api/list-namespaces")
	get(t, srv.URL+"/api/nope")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET /api/list-namespaces", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/", "404")))

	resp, body := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "kvbrowse_http_requests_total")
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s := New(aggregator.New(seeded()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
