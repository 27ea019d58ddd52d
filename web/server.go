package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mailsonar/mailsonar/core"
	"github.com/mailsonar/mailsonar/mailstore"
	"github.com/mailsonar/mailsonar/metrics"
	"github.com/mailsonar/mailsonar/search"
)

// DialFunc opens a mail store for the credentials supplied in a request.
type DialFunc func(host, username, password string) (mailstore.Store, error)

// Server exposes mailbox fetch and semantic search over HTTP.
type Server struct {
	engine *search.Engine
	dial   DialFunc
	logger *slog.Logger
	topK   int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// WithTopK sets the default number of results when a request does not
// specify top_k.
func WithTopK(topK int) Option {
	return func(s *Server) {
		if topK > 0 {
			s.topK = topK
		}
	}
}

// NewServer creates an HTTP API server. The dial function opens an IMAP
// store per request; tests substitute a fake.
func NewServer(engine *search.Engine, dial DialFunc, opts ...Option) (*Server, error) {
	if engine == nil {
		return nil, errors.New("search engine is required")
	}
	if dial == nil {
		dial = func(host, username, password string) (mailstore.Store, error) {
			return mailstore.Dial(host, username, password)
		}
	}

	s := &Server{
		engine: engine,
		dial:   dial,
		logger: slog.Default().With("component", "web"),
		topK:   search.DefaultTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware())

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Post("/fetch", s.handleFetch)
	r.Post("/semantic-search", s.handleSearch)

	return r
}

// ListenAndServe runs the HTTP server until the context is canceled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("http server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "mailsonar",
		"model":   s.engine.ModelName(),
		"endpoints": map[string]string{
			"fetch":           "POST /fetch",
			"semantic_search": "POST /semantic-search",
			"health":          "GET /healthz",
			"metrics":         "GET /metrics",
		},
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	var req FetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.IMAPHost == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "imap_host, email and password are required")
		return
	}

	emails, err := s.fetchEmails(r.Context(), req.IMAPHost, req.Email, req.Password, req.Folder)
	if err != nil {
		metrics.FetchesTotal.WithLabelValues("error").Inc()
		s.logger.Error("fetch failed", "host", req.IMAPHost, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch emails: "+err.Error())
		return
	}
	metrics.FetchesTotal.WithLabelValues("ok").Inc()
	metrics.FetchedEmails.Observe(float64(len(emails)))

	items := make([]EmailItem, len(emails))
	for i, email := range emails {
		items[i] = emailToItem(email)
	}

	writeJSON(w, http.StatusOK, FetchResponse{Emails: items, Count: len(items)})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.IMAPHost == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "imap_host, email and password are required")
		return
	}
	if err := core.ValidateQuery(req.Query); err != nil {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	threshold := s.engine.Threshold()
	if req.MinThreshold != nil {
		if err := core.ValidateThreshold(*req.MinThreshold); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("min_threshold must be between 0 and 1, got %g", *req.MinThreshold))
			return
		}
		threshold = float32(*req.MinThreshold)
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	start := time.Now()
	emails, err := s.fetchEmails(r.Context(), req.IMAPHost, req.Email, req.Password, req.Folder)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("error").Inc()
		s.logger.Error("fetch failed", "host", req.IMAPHost, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch emails: "+err.Error())
		return
	}

	results, err := s.engine.FindSimilarWithMonitor(r.Context(), req.Query, emails, topK, threshold, &fallbackMonitor{})
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("error").Inc()
		s.logger.Error("search failed", "query", req.Query, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed: "+err.Error())
		return
	}
	metrics.SearchesTotal.WithLabelValues("ok").Inc()
	metrics.SearchDuration.Observe(time.Since(start).Seconds())

	items := make([]SearchResultItem, len(results))
	for i, result := range results {
		items[i] = resultToItem(result, req.IncludeScores)
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Query:   req.Query,
		Model:   s.engine.ModelName(),
		Results: items,
		Count:   len(items),
	})
}

func (s *Server) fetchEmails(ctx context.Context, host, username, password, folder string) ([]*core.Email, error) {
	store, err := s.dial(host, username, password)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return store.FetchAll(ctx, folder)
}

// fallbackMonitor counts searches that fell back to the single best match.
type fallbackMonitor struct{}

var _ search.SearchMonitor = (*fallbackMonitor)(nil)

func (m *fallbackMonitor) Start(_ string)                        {}
func (m *fallbackMonitor) AfterQueryEmbedding(_ []float32)       {}
func (m *fallbackMonitor) AfterCorpusEmbedding(_ int)            {}
func (m *fallbackMonitor) AfterThresholdFilter(_ int, _ float32) {}

func (m *fallbackMonitor) FallbackHit(_ *core.SearchResult) {
	metrics.SearchFallbacksTotal.Inc()
}

func (m *fallbackMonitor) Finish(_ []*core.SearchResult) {}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
