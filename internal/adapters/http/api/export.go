package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/mdpsurvey/internal/domain/export"
	"github.com/okian/mdpsurvey/internal/domain/filter"
	"github.com/okian/mdpsurvey/pkg/logger"
)

// ExportHandler serves report downloads.
type ExportHandler struct {
	deps   ExportDependencies
	logger logger.Logger
	now    func() time.Time
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies, log logger.Logger) *ExportHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ExportHandler{deps: deps, logger: log, now: time.Now}
}

// HandleCSV handles GET /api/export.csv requests.
func (h *ExportHandler) HandleCSV(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.export_csv", "csv", "text/csv; charset=utf-8", h.deps.ExportCSV)
}

// HandlePDF handles GET /api/export.pdf requests.
func (h *ExportHandler) HandlePDF(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "api.export_pdf", "pdf", "application/pdf", h.deps.ExportPDF)
}

// serve renders into memory first so a failed export still gets a JSON error.
func (h *ExportHandler) serve(w http.ResponseWriter, r *http.Request, op, ext, contentType string,
	render func(context.Context, io.Writer, filter.Criteria) error,
) {
	var buf bytes.Buffer
	if err := render(r.Context(), &buf, filter.FromQuery(r.URL.Query())); err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}

	name := export.Filename("", ext, h.now())
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
