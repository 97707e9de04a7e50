// Package api exposes the HTTP interface for the court case fetcher.
// Notable routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/search to run a case-status query.
//   - GET /v1/history, DELETE /v1/history, GET /v1/history/{query_id}/raw.
//   - GET /v1/case-types for the accepted case-type codes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/court-case-fetcher/internal/casequery"
	"github.com/JakeFAU/court-case-fetcher/internal/metrics"
)

// Service is the query pipeline surface the server needs.
type Service interface {
	SubmitQuery(ctx context.Context, id casequery.CaseIdentifier) (casequery.QueryRecord, error)
	History(ctx context.Context) ([]casequery.QuerySummary, error)
	Record(ctx context.Context, id string) (casequery.QueryRecord, error)
	ClearHistory(ctx context.Context) (int64, error)
}

// Server wires HTTP handlers to the query pipeline.
type Server struct {
	router  chi.Router
	service Service
	logger  *zap.Logger
}

// searchTimeout bounds one end-to-end query including retries. It has to
// cover several navigation timeouts plus backoff waits.
const searchTimeout = 5 * time.Minute

// NewServer constructs a Server with middleware and routes.
func NewServer(service Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: service,
		logger:  logger.Named("api"),
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/search", s.search)
		r.Get("/case-types", s.caseTypes)
		r.Route("/history", func(r chi.Router) {
			r.Get("/", s.listHistory)
			r.Delete("/", s.clearHistory)
			r.Get("/{query_id}/raw", s.rawResponse)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type searchRequest struct {
	CaseType   string `json:"case_type"`
	CaseNumber string `json:"case_number"`
	FilingYear string `json:"filing_year"`
}

// search runs a query synchronously. The record is returned whatever its
// final status; only validation and ledger failures map to error responses.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	id, err := casequery.NewCaseIdentifier(req.CaseType, req.CaseNumber, req.FilingYear)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), searchTimeout)
	defer cancel()

	rec, err := s.service.SubmitQuery(ctx, id)
	if err != nil {
		var verr *casequery.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		var lerr *casequery.LedgerError
		if errors.As(err, &lerr) {
			s.logger.Error("search could not be recorded", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "search could not be recorded")
			return
		}
		s.logger.Error("search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": rec})
}

func (s *Server) caseTypes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"case_types": casequery.CaseTypes()})
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.service.History(r.Context())
	if err != nil {
		s.logger.Error("list history failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if summaries == nil {
		summaries = []casequery.QuerySummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"queries": summaries})
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	n, err := s.service.ClearHistory(r.Context())
	if err != nil {
		s.logger.Error("clear history failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"cleared": n})
}

// rawResponse serves the raw page capture of a stored query for audit.
func (s *Server) rawResponse(w http.ResponseWriter, r *http.Request) {
	queryID := chi.URLParam(r, "query_id")
	if _, err := uuid.Parse(queryID); err != nil {
		writeError(w, http.StatusBadRequest, "malformed query id")
		return
	}
	rec, err := s.service.Record(r.Context(), queryID)
	if err != nil {
		writeError(w, http.StatusNotFound, "query not found")
		return
	}
	raw := rec.RawResponse()
	if len(raw) == 0 {
		writeError(w, http.StatusNotFound, "no raw capture for this query")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		s.logger.Error("raw response write failed", zap.Error(err))
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("panic", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
