package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/mdpsurvey/internal/domain/filter"
	"github.com/okian/mdpsurvey/internal/domain/stats"
	"github.com/okian/mdpsurvey/pkg/logger"
)

// compareResponse names both sides of a comparison.
type compareResponse struct {
	MDPA string `json:"mdpA"`
	MDPB string `json:"mdpB"`
	stats.Comparison
}

// ReportsHandler serves the dashboard views.
type ReportsHandler struct {
	deps   ReportDependencies
	logger logger.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps ReportDependencies, log logger.Logger) *ReportsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ReportsHandler{deps: deps, logger: log}
}

// HandleSurveyStats handles GET /api/survey-stats requests.
func (h *ReportsHandler) HandleSurveyStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.survey_stats"
	summary, err := h.deps.Summary(r.Context(), filter.FromQuery(r.URL.Query()))
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleFilterOptions handles GET /api/filter-options requests.
func (h *ReportsHandler) HandleFilterOptions(w http.ResponseWriter, r *http.Request) {
	const op = "api.filter_options"
	opts, err := h.deps.Options(r.Context())
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// HandleProfile handles GET /api/mdps/{name} requests.
func (h *ReportsHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.mdp_profile"
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing name")))
		return
	}
	profile, err := h.deps.Profile(r.Context(), name)
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleCompare handles GET /api/compare?a=&b= requests.
func (h *ReportsHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "api.compare"
	q := r.URL.Query()
	a, b := strings.TrimSpace(q.Get("a")), strings.TrimSpace(q.Get("b"))
	if a == "" || b == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("both a and b are required")))
		return
	}
	c, err := h.deps.Compare(r.Context(), a, b)
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, compareResponse{MDPA: a, MDPB: b, Comparison: c})
}
