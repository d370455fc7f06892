// Package chi is the HTTP transport: a chi router over the answer
// pipeline with health, metrics and bearer auth.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/paddocklabs/regsearch/internal/domain"
	logpkg "github.com/paddocklabs/regsearch/internal/logger"
	"github.com/paddocklabs/regsearch/internal/metrics"
	"github.com/paddocklabs/regsearch/internal/usecase/pipeline"
)

// maxQueryLen bounds the accepted query body; regulation questions do
// not need more.
const maxQueryLen = 4096

// Pipeline answers one query end to end.
type Pipeline interface {
	Run(ctx context.Context, query, tenant string) (pipeline.Result, error)
}

// Server exposes the answer pipeline over HTTP.
type Server struct {
	pipeline      Pipeline
	defaultTenant string
	pinger        Pinger
	logger        *zap.Logger
}

// Pinger checks store connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewServer creates the HTTP API server.
func NewServer(p Pipeline, pinger Pinger, defaultTenant string, logger *zap.Logger) *Server {
	return &Server{
		pipeline:      p,
		defaultTenant: defaultTenant,
		pinger:        pinger,
		logger:        logger,
	}
}

// Router builds the chi router with middleware and routes.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(apiKeys))

	r.Post("/ask", s.handleAsk)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// requestLogger attaches a request-scoped logger carrying the request id;
// handlers pick it up via logpkg.FromContext.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLog := s.logger.With(zap.String("request_id", chimw.GetReqID(r.Context())))
		next.ServeHTTP(w, r.WithContext(logpkg.ContextWithLogger(r.Context(), reqLog)))
	})
}

type askRequest struct {
	Query  string `json:"query"`
	Tenant string `json:"tenant,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "query is required")
		return
	}
	if len(query) > maxQueryLen {
		writeError(w, http.StatusBadRequest, "bad_request", "query too long")
		return
	}

	tenant := req.Tenant
	if tenant == "" {
		tenant = s.defaultTenant
	}

	started := time.Now()
	res, err := s.pipeline.Run(r.Context(), query, tenant)
	if err != nil {
		s.handleError(w, logpkg.FromContext(r.Context()), err)
		return
	}

	status := "answered"
	if res.Refused {
		status = "refused"
	}
	metrics.PipelineQueriesTotal.WithLabelValues(string(res.Debug.Retrieval.Mode), status).Inc()
	metrics.PipelineQueryDuration.WithLabelValues(string(res.Debug.Retrieval.Mode)).
		Observe(time.Since(started).Seconds())

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			s.logger.Warn("Health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleError maps collaborator failures to HTTP statuses: provider
// errors are 502 (upstream broke), everything else is 500.
func (s *Server) handleError(w http.ResponseWriter, log *zap.Logger, err error) {
	metrics.PipelineQueriesTotal.WithLabelValues("unknown", "error").Inc()

	switch {
	case errors.Is(err, domain.ErrEmbeddingProviderError),
		errors.Is(err, domain.ErrGenerationProviderError),
		errors.Is(err, domain.ErrRerankProviderError):
		log.Error("Provider error", zap.Error(err))
		writeError(w, http.StatusBadGateway, "provider_error", "upstream provider failed")
	case errors.Is(err, domain.ErrVectorDimMismatch):
		log.Error("Vector dimension mismatch", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "vector dimension mismatch")
	default:
		log.Error("Query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
