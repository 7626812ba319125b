// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/mdpsurvey/internal/adapters/repository"
	"github.com/okian/mdpsurvey/internal/domain/filter"
	"github.com/okian/mdpsurvey/internal/domain/model"
	"github.com/okian/mdpsurvey/internal/domain/stats"
	"github.com/okian/mdpsurvey/pkg/logger"
)

// ResponseDependencies stores and lists survey responses.
type ResponseDependencies interface {
	// Submit stores sub. A repeated non-empty key returns the earlier record
	// with duplicate set.
	Submit(ctx context.Context, key string, sub model.Submission) (rec model.Record, duplicate bool, err error)
	List(ctx context.Context, c filter.Criteria) ([]model.Record, error)
	Delete(ctx context.Context, id string) error
}

// ReportDependencies computes the dashboard views.
type ReportDependencies interface {
	Summary(ctx context.Context, c filter.Criteria) (stats.Summary, error)
	Options(ctx context.Context) (filter.Options, error)
	Profile(ctx context.Context, name string) (stats.MDPProfile, error)
	Compare(ctx context.Context, a, b string) (stats.Comparison, error)
}

// ExportDependencies renders downloadable reports.
type ExportDependencies interface {
	ExportCSV(ctx context.Context, w io.Writer, c filter.Criteria) error
	ExportPDF(ctx context.Context, w io.Writer, c filter.Criteria) error
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ResponseDependencies
	ReportDependencies
	ExportDependencies

	// Count reports the number of stored responses.
	Count(ctx context.Context) int
}

// Server wires HTTP routes for the business API.
type Server struct {
	responsesHandler *ResponsesHandler
	reportsHandler   *ReportsHandler
	exportHandler    *ExportHandler
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	dashboardHandler *dashboardHandler

	logger       logger.Logger
	maxBodyBytes int64
	production   bool
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(deps),
		maxBodyBytes:  defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	log := s.logger.Named("api")
	s.responsesHandler = NewResponsesHandler(deps, log)
	s.reportsHandler = NewReportsHandler(deps, log)
	s.exportHandler = NewExportHandler(deps, log)
	s.statsHandler = NewStatsHandler(statsProvider)
	s.dashboardHandler = newdashboardHandler()
	return s
}

// Middleware returns the chain every route runs behind, outermost first.
func (s *Server) Middleware() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		RequestID,
		Recoverer(s.logger.Named("http")),
		SecureHeaders(s.production),
		BodyLimit(s.maxBodyBytes),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	r.Get("/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Get("/dashboard", s.dashboardHandler.HandleDashboard)

	r.Route("/api", func(r chi.Router) {
		r.Get("/survey-responses", MetricsMiddleware(s.responsesHandler.HandleList, "list_responses"))
		r.Post("/survey-responses", MetricsMiddleware(s.responsesHandler.HandleSubmit, "submit_response"))
		r.Delete("/survey-responses/{id}", MetricsMiddleware(s.responsesHandler.HandleDelete, "delete_response"))

		r.Get("/survey-stats", MetricsMiddleware(s.reportsHandler.HandleSurveyStats, "survey_stats"))
		r.Get("/filter-options", MetricsMiddleware(s.reportsHandler.HandleFilterOptions, "filter_options"))
		r.Get("/mdps/{name}", MetricsMiddleware(s.reportsHandler.HandleProfile, "mdp_profile"))
		r.Get("/compare", MetricsMiddleware(s.reportsHandler.HandleCompare, "compare"))

		r.Get("/export.csv", MetricsMiddleware(s.exportHandler.HandleCSV, "export_csv"))
		r.Get("/export.pdf", MetricsMiddleware(s.exportHandler.HandlePDF, "export_pdf"))

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "not_found", NewKind("api.route", ErrNotFound))
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed",
				NewKind("api.route", errors.New(http.StatusText(http.StatusMethodNotAllowed))))
		})
	})
}

// Handler builds a router carrying the middleware chain and the API routes.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(s.Middleware()...)
	s.Register(ctx, r)
	return r
}

type errorResponse struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Fields  []model.FieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps a service error to its HTTP status.
func writeServiceError(ctx context.Context, log logger.Logger, w http.ResponseWriter, op string, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "validation_failed",
			Message: verr.Error(),
			Fields:  verr.Fields,
		})
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	default:
		log.Error(ctx, "request failed",
			logger.String("requestId", GetRequestID(ctx)),
			logger.Error(Wrap(op, err)),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", NewKind(op, ErrInternal))
	}
}

// isNotFound allows the API to translate upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrNotFound)
}
