// Package server exposes namespaces and their entries over HTTP.
//
//	GET /api/list-namespaces                      namespaces as JSON
//	GET /api/kv-data/{namespaceID}                entries as JSON
//	GET /api/kv-data/{namespaceID}/export.csv     entries as a CSV download
//	GET /metrics                                  Prometheus metrics
//
// Each request runs its own aggregation; the server keeps no state
// between requests.
package server

import (
	"bytes"
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	json "github.com/goccy/go-json"

	"github.com/oakwood-commons/kvbrowse/internal/cel"
	"github.com/oakwood-commons/kvbrowse/internal/dataset"
	"github.com/oakwood-commons/kvbrowse/internal/formatter"
	"github.com/oakwood-commons/kvbrowse/internal/metrics"
)

// Fetcher loads the data served by the API.
type Fetcher interface {
	FetchNamespaces(ctx context.Context) ([]dataset.Namespace, error)
	FetchEntries(ctx context.Context, namespaceID string) ([]dataset.Entry, error)
}

// Server routes API requests to a Fetcher.
type Server struct {
	fetcher Fetcher
	metrics *metrics.Metrics
	log     logr.Logger
	mux     *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records requests and serves /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the request logger.
func WithLogger(l logr.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// New builds a Server.
func New(f Fetcher, opts ...Option) *Server {
	s := &Server{fetcher: f, log: logr.Discard(), mux: http.NewServeMux()}
	for _, opt := range opts {
		opt(s)
	}
	s.mux.HandleFunc("GET /api/list-namespaces", s.handleListNamespaces)
	s.mux.HandleFunc("GET /api/kv-data/{$}", s.handleMissingNamespace)
	s.mux.HandleFunc("GET /api/kv-data/{id}", s.handleEntries)
	s.mux.HandleFunc("GET /api/kv-data/{id}/export.csv", s.handleExport)
	// Other methods and unknown paths under /api/ fall through to 404.
	s.mux.HandleFunc("/api/", s.handleNotFound)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	return s
}

// Handler returns the routed handler with no-cache headers, logging and
// request metrics applied.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		rec.Header().Set("Cache-Control", "no-cache")
		s.mux.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTP(route, strconv.Itoa(rec.status))
		s.log.V(1).Info("served request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", rec.status,
			"elapsed", time.Since(start).String(),
		)
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleListNamespaces(w http.ResponseWriter, r *http.Request) {
	namespaces, err := s.fetcher.FetchNamespaces(r.Context())
	if err != nil {
		s.log.Error(err, "list namespaces failed")
		writeError(w, http.StatusInternalServerError, "Failed to list KV namespaces")
		return
	}
	writeJSON(w, http.StatusOK, namespaces)
}

func (s *Server) handleMissingNamespace(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusBadRequest, "Namespace ID is required")
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entries, err := s.fetcher.FetchEntries(r.Context(), id)
	if err != nil {
		s.log.Error(err, "fetch entries failed", "namespace", id)
		writeError(w, http.StatusInternalServerError, "Failed to get KV data: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleExport mirrors the browser's export: the search term, when given,
// narrows the rows, and the title names the download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	q := r.URL.Query()

	entries, err := s.fetcher.FetchEntries(r.Context(), id)
	if err != nil {
		s.log.Error(err, "fetch entries failed", "namespace", id)
		writeError(w, http.StatusInternalServerError, "Failed to get KV data: "+err.Error())
		return
	}
	if term := q.Get("search"); strings.TrimSpace(term) != "" {
		entries = dataset.Filter(entries, term)
	}
	entries, err = cel.FilterEntries(entries, q.Get("where"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid where expression: "+err.Error())
		return
	}

	var buf bytes.Buffer
	if err := formatter.WriteCSV(&buf, entries); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export KV data")
		return
	}
	title := q.Get("title")
	if title == "" {
		title = id
	}
	w.Header().Set("Content-Type", formatter.CSVContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": formatter.ExportFilename(title),
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
