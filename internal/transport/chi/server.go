// Package chi exposes the catalog search pipeline as an HTTP tool API.
package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/quarrydata/catalogscout/internal/domain"
	logpkg "github.com/quarrydata/catalogscout/internal/logger"
	"github.com/quarrydata/catalogscout/internal/metrics"
	cataloguc "github.com/quarrydata/catalogscout/internal/usecase/catalog"
)

// Server handles the tool invocation endpoints.
type Server struct {
	pipeline *cataloguc.Service
	logger   *zap.Logger
}

// NewServer creates the HTTP API server.
func NewServer(pipeline *cataloguc.Service, logger *zap.Logger) *Server {
	return &Server{pipeline: pipeline, logger: logger}
}

// Router assembles the chi router with middleware, auth, and routes.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogMiddleware(s.logger))
	r.Use(metrics.Middleware())
	r.Use(BearerAuthMiddleware(apiKeys))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/v1/catalog/search", s.handleSearch)
	r.Get("/v1/tools/search_data_catalog/schema", s.handleToolSchema)

	return r
}

// searchRequest is the tool invocation payload.
type searchRequest struct {
	UserID            uuid.UUID `json:"user_id"`
	SessionID         uuid.UUID `json:"session_id,omitempty"`
	UserRequest       string    `json:"user_request,omitempty"`
	SpecificQueries   []string  `json:"specific_queries,omitempty"`
	ExploratoryTopics []string  `json:"exploratory_topics,omitempty"`
	ValueSearchTerms  []string  `json:"value_search_terms,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logpkg.FromContext(r.Context()).Debug("Rejected malformed search request", zap.Error(err))
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if req.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	out := s.pipeline.Search(r.Context(), domain.SearchRequest{
		UserID:            req.UserID,
		SessionID:         req.SessionID,
		UserRequest:       req.UserRequest,
		SpecificQueries:   req.SpecificQueries,
		ExploratoryTopics: req.ExploratoryTopics,
		ValueSearchTerms:  req.ValueSearchTerms,
	})

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleToolSchema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(toolSchemaJSON))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogMiddleware emits a canonical log line per request, propagates
// X-Request-ID, and stores a request-scoped logger in the context.
func requestLogMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chimiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
