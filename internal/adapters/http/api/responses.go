package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/mdpsurvey/internal/domain/filter"
	"github.com/okian/mdpsurvey/internal/domain/model"
	"github.com/okian/mdpsurvey/pkg/logger"
)

// IdempotencyKeyHeader lets a client retry a submission without storing it twice.
const IdempotencyKeyHeader = "Idempotency-Key"

// Messages returned on successful mutations.
const (
	msgSaved     = "Survey response saved successfully"
	msgDuplicate = "Survey response already recorded"
	msgDeleted   = "Survey response deleted successfully"
)

// submitResponse is returned by POST /api/survey-responses.
type submitResponse struct {
	Success        bool      `json:"success"`
	Message        string    `json:"message"`
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	CompositeScore float64   `json:"compositeScore"`
	Duplicate      bool      `json:"duplicate"`
}

// deleteResponse is returned by DELETE /api/survey-responses/{id}.
type deleteResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	DeletedID string `json:"deletedId"`
}

// ResponsesHandler handles survey response requests.
type ResponsesHandler struct {
	deps   ResponseDependencies
	logger logger.Logger
}

// NewResponsesHandler creates a new responses handler.
func NewResponsesHandler(deps ResponseDependencies, log logger.Logger) *ResponsesHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ResponsesHandler{deps: deps, logger: log}
}

// HandleList handles GET /api/survey-responses requests.
func (h *ResponsesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_responses"
	records, err := h.deps.List(r.Context(), filter.FromQuery(r.URL.Query()))
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleSubmit handles POST /api/survey-responses requests.
func (h *ResponsesHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_response"

	var sub model.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrBodyTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	rec, duplicate, err := h.deps.Submit(r.Context(), key, sub)
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}

	status, msg := http.StatusCreated, msgSaved
	if duplicate {
		status, msg = http.StatusOK, msgDuplicate
	}
	writeJSON(w, status, submitResponse{
		Success:        true,
		Message:        msg,
		ID:             rec.ID,
		Timestamp:      rec.Timestamp,
		CompositeScore: rec.CompositeScore,
		Duplicate:      duplicate,
	})
}

// HandleDelete handles DELETE /api/survey-responses/{id} requests.
func (h *ResponsesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_response"
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing id")))
		return
	}
	if err := h.deps.Delete(r.Context(), id); err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Success: true, Message: msgDeleted, DeletedID: id})
}
