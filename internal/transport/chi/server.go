// Package chi implements the HTTP API on top of the chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/seekerlab/deepsearch/internal/domain"
	"github.com/seekerlab/deepsearch/internal/domain/search/mode"
	"github.com/seekerlab/deepsearch/internal/domain/search/request"
	"github.com/seekerlab/deepsearch/internal/usecase/analyze"
	healthuc "github.com/seekerlab/deepsearch/internal/usecase/health"
	searchuc "github.com/seekerlab/deepsearch/internal/usecase/search"
	"github.com/seekerlab/deepsearch/internal/version"
)

const defaultHistoryLimit = 50

// HistoryReader serves the recorded search event log.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]domain.SearchEvent, error)
	Count(ctx context.Context) (int, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search API over HTTP.
type Server struct {
	search        *searchuc.Service
	analyzer      *analyze.Analyzer
	health        *healthuc.Service
	history       HistoryReader
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. history may be nil when the service
// runs without persistence.
func NewServer(
	search *searchuc.Service,
	analyzer *analyze.Analyzer,
	health *healthuc.Service,
	history HistoryReader,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:   search,
		analyzer: analyzer,
		health:   health,
		history:  history,
		logger:   logger,
	}
	// Most specific sentinels first: the later ones wrap ErrInvalidRequest.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrPageOutOfRange, http.StatusBadRequest, codePageOutOfRange),
		sentinelHandler(domain.ErrNoUsableSources, http.StatusBadRequest, codeNoUsableSources),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeInvalidRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
	}
	return s
}

// Register mounts all routes on the given router.
func (s *Server) Register(r chi.Router) {
	r.Get("/", s.Root)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Post("/api/search", s.Search)
	r.Post("/api/analyze", s.Analyze)
	r.Get("/api/history", s.History)
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var dto searchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	page, pageSize := request.DefaultPage, request.DefaultPageSize
	if dto.Page != nil {
		page = *dto.Page
	}
	if dto.PageSize != nil {
		pageSize = *dto.PageSize
	}

	req, err := request.New(
		dto.Query, mode.Mode(dto.Mode), dto.Languages, dto.Sources,
		dto.MaxResults, page, pageSize,
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseToDTO(req.Query(), string(req.Mode()), resp))
}

// Analyze handles POST /api/analyze.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	var dto analyzeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if dto.Query == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "query is required")
		return
	}

	writeJSON(w, http.StatusOK, s.analyzer.Analyze(dto.Query))
}

// History handles GET /api/history.
func (s *Server) History(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusOK, historyResponseDTO{History: []domain.SearchEvent{}})
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	events, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if events == nil {
		events = []domain.SearchEvent{}
	}

	writeJSON(w, http.StatusOK, historyResponseDTO{History: events, Count: len(events)})
}

// Root handles GET / with a service banner.
func (s *Server) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "deepsearch",
		"version": version.Version,
		"status":  "running",
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponseDTO{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a message safe for the client. Domain sentinel
// chains are fully service-constructed, so their text passes through.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
