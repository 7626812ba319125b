package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/mdpsurvey/internal/adapters/http/api"
	"github.com/okian/mdpsurvey/internal/adapters/repository"
	service "github.com/okian/mdpsurvey/internal/app"
	"github.com/okian/mdpsurvey/internal/domain/filter"
	"github.com/okian/mdpsurvey/internal/domain/model"
	"github.com/okian/mdpsurvey/internal/domain/stats"
	"github.com/okian/mdpsurvey/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies records what the handlers asked for and replays canned answers.
type mockDependencies struct {
	submitted   []model.Submission
	keys        []string
	submitRec   model.Record
	submitDup   bool
	submitErr   error
	lastFilter  filter.Criteria
	records     []model.Record
	listErr     error
	deleted     []string
	deleteErr   error
	summary     stats.Summary
	options     filter.Options
	profileErr  error
	compareErr  error
	exportErr   error
	panicOnList bool
}

func (m *mockDependencies) Submit(_ context.Context, key string, sub model.Submission) (model.Record, bool, error) {
	m.submitted = append(m.submitted, sub)
	m.keys = append(m.keys, key)
	return m.submitRec, m.submitDup, m.submitErr
}

func (m *mockDependencies) List(_ context.Context, c filter.Criteria) ([]model.Record, error) {
	if m.panicOnList {
		panic("boom")
	}
	m.lastFilter = c
	return m.records, m.listErr
}

func (m *mockDependencies) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.deleteErr
}

func (m *mockDependencies) Summary(_ context.Context, c filter.Criteria) (stats.Summary, error) {
	m.lastFilter = c
	return m.summary, nil
}

func (m *mockDependencies) Options(context.Context) (filter.Options, error) {
	return m.options, nil
}

func (m *mockDependencies) Profile(_ context.Context, name string) (stats.MDPProfile, error) {
	if m.profileErr != nil {
		return stats.MDPProfile{}, m.profileErr
	}
	return stats.Profile(name, m.records), nil
}

func (m *mockDependencies) Compare(_ context.Context, a, b string) (stats.Comparison, error) {
	if m.compareErr != nil {
		return stats.Comparison{}, m.compareErr
	}
	return stats.Compare(stats.Profile(a, m.records).Records, stats.Profile(b, m.records).Records), nil
}

func (m *mockDependencies) ExportCSV(_ context.Context, w io.Writer, c filter.Criteria) error {
	m.lastFilter = c
	if m.exportErr != nil {
		_, _ = w.Write([]byte("partial"))
		return m.exportErr
	}
	_, err := w.Write([]byte("MDP Name\n"))
	return err
}

func (m *mockDependencies) ExportPDF(_ context.Context, w io.Writer, c filter.Criteria) error {
	m.lastFilter = c
	_, err := w.Write([]byte("%PDF-1.3"))
	return err
}

func (m *mockDependencies) Count(context.Context) int {
	return len(m.records)
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func record(id, name string, fn model.Function, ratings ...int) model.Record {
	r := model.NewRecord(model.Submission{
		MDPName:       name,
		Function:      fn,
		ManagerName:   "Bob",
		Rotation:      "1",
		JobKnowledge:  model.Rating(ratings[0]),
		QualityOfWork: model.Rating(ratings[1]),
		Communication: model.Rating(ratings[2]),
		Initiative:    model.Rating(ratings[3]),
	})
	return r.Stamp(id, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), time.UTC)
}

func newHandler(deps *mockDependencies, opts ...api.ServerOption) http.Handler {
	opts = append([]api.ServerOption{api.WithLogger(logger.Nop())}, opts...)
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...)
	return server.Handler(context.Background())
}

func do(h http.Handler, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

const validBody = `{"mdpName":"Ann","function":"Planning","managerName":"Bob","rotation":2,
	"jobKnowledge":"4","qualityOfWork":3,"communication":2,"initiative":1}`

func TestServer_Register(t *testing.T) {
	Convey("Given a server built with its own logger and no global one", t, func() {
		build := func() {
			_ = api.NewServer(&mockDependencies{}, &mockStatsProvider{}, api.WithLogger(logger.Nop()))
		}

		Convey("Then construction does not touch the global logger", func() {
			So(build, ShouldNotPanic)
		})
	})

	Convey("Given a new API server", t, func() {
		deps := &mockDependencies{}
		server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}},
			api.WithLogger(logger.Nop()))
		r := chi.NewRouter()

		Convey("When registering routes", func() {
			server.Register(context.Background(), r)

			Convey("Then health endpoint should be accessible", func() {
				w := do(r, http.MethodGet, "/health", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["status"], ShouldEqual, "healthy")
				So(body["version"], ShouldEqual, api.Version)
				So(body["responses"], ShouldEqual, 0.0)
			})

			Convey("And metrics endpoint should expose Prometheus text", func() {
				w := do(r, http.MethodGet, "/metrics", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "# HELP")
			})

			Convey("And stats endpoint should return the service stats", func() {
				w := do(r, http.MethodGet, "/stats", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["started"], ShouldEqual, true)
			})

			Convey("And dashboard should be served", func() {
				w := do(r, http.MethodGet, "/dashboard", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(w.Body.String(), ShouldContainSubstring, "MDP Performance Dashboard")
			})

			Convey("And unknown API paths should return JSON 404", func() {
				w := do(r, http.MethodGet, "/api/nope", "")
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decode(w)["code"], ShouldEqual, "not_found")
			})

			Convey("And wrong methods should return JSON 405", func() {
				w := do(r, http.MethodPut, "/api/survey-responses", "{}")
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(decode(w)["code"], ShouldEqual, "method_not_allowed")
			})
		})
	})
}

func TestResponsesHandler(t *testing.T) {
	Convey("Given an API with a stored record", t, func() {
		stored := record("mdp_1", "Ann", model.FunctionPlanning, 4, 3, 2, 1)
		deps := &mockDependencies{submitRec: stored, records: []model.Record{stored}}
		h := newHandler(deps)

		Convey("When posting a valid submission", func() {
			w := do(h, http.MethodPost, "/api/survey-responses", validBody)

			Convey("Then it is created", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				body := decode(w)
				So(body["success"], ShouldEqual, true)
				So(body["id"], ShouldEqual, "mdp_1")
				So(body["compositeScore"], ShouldAlmostEqual, 3.05, 1e-9)
				So(body["duplicate"], ShouldEqual, false)
				So(body["message"], ShouldEqual, "Survey response saved successfully")
			})

			Convey("And string and numeric ratings are both accepted", func() {
				So(len(deps.submitted), ShouldEqual, 1)
				So(deps.submitted[0].JobKnowledge, ShouldEqual, model.Rating(4))
				So(deps.submitted[0].Rotation, ShouldEqual, model.Label("2"))
			})
		})

		Convey("When posting with an Idempotency-Key that was seen before", func() {
			deps.submitDup = true
			w := do(h, http.MethodPost, "/api/survey-responses", validBody, api.IdempotencyKeyHeader, " abc ")

			Convey("Then the stored record is returned with 200", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["duplicate"], ShouldEqual, true)
				So(deps.keys[0], ShouldEqual, "abc")
			})
		})

		Convey("When the submission fails validation", func() {
			deps.submitErr = &model.ValidationError{Fields: []model.FieldError{{Field: "mdpName", Reason: "is required"}}}
			w := do(h, http.MethodPost, "/api/survey-responses", validBody)

			Convey("Then a 400 lists the failing fields", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				body := decode(w)
				So(body["code"], ShouldEqual, "validation_failed")
				fields := body["fields"].([]interface{})
				So(len(fields), ShouldEqual, 1)
				So(fields[0].(map[string]interface{})["field"], ShouldEqual, "mdpName")
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(h, http.MethodPost, "/api/survey-responses", "{nope")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "bad_request")
			So(len(deps.submitted), ShouldEqual, 0)
		})

		Convey("When the body exceeds the limit", func() {
			small := newHandler(deps, api.WithMaxBodyBytes(16))
			w := do(small, http.MethodPost, "/api/survey-responses", validBody)
			So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
		})

		Convey("When the store fails", func() {
			deps.submitErr = fmt.Errorf("%w: disk full", repository.ErrStorage)
			w := do(h, http.MethodPost, "/api/survey-responses", validBody)

			Convey("Then a 500 without internals is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldNotContainSubstring, "disk full")
			})

			Convey("And the cause is logged tagged with the operation", func() {
				var logs bytes.Buffer
				logged := newHandler(deps, api.WithLogger(logger.New(&logs, false)))
				w := do(logged, http.MethodPost, "/api/survey-responses", validBody)

				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(logs.String(), ShouldContainSubstring, "api.submit_response: storage fault: disk full")
			})
		})

		Convey("When listing with filters", func() {
			w := do(h, http.MethodGet, "/api/survey-responses?function=Planning&search=an", "")

			Convey("Then the criteria reach the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastFilter, ShouldResemble, filter.Criteria{Function: "Planning", Search: "an"})
				var records []model.Record
				So(json.Unmarshal(w.Body.Bytes(), &records), ShouldBeNil)
				So(len(records), ShouldEqual, 1)
			})
		})

		Convey("When deleting a record", func() {
			w := do(h, http.MethodDelete, "/api/survey-responses/mdp_1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["deletedId"], ShouldEqual, "mdp_1")
			So(deps.deleted, ShouldResemble, []string{"mdp_1"})
		})

		Convey("When deleting an unknown record", func() {
			deps.deleteErr = repository.ErrNotFound
			w := do(h, http.MethodDelete, "/api/survey-responses/missing", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(decode(w)["code"], ShouldEqual, "not_found")
		})

		Convey("When a handler panics", func() {
			deps.panicOnList = true
			w := do(h, http.MethodGet, "/api/survey-responses", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(decode(w)["code"], ShouldEqual, "internal_error")
		})
	})
}

func TestReportsHandler(t *testing.T) {
	Convey("Given an API over a few records", t, func() {
		deps := &mockDependencies{
			records: []model.Record{
				record("mdp_1", "Ann", model.FunctionPlanning, 3, 3, 3, 3),
				record("mdp_2", "Ben", model.FunctionPlanning, 5, 5, 5, 5),
			},
			summary: stats.Aggregate(nil),
			options: filter.Options{Functions: []string{"Planning"}, MDPNames: []string{"Ann", "Ben"}},
		}
		h := newHandler(deps)

		Convey("When requesting stats", func() {
			w := do(h, http.MethodGet, "/api/survey-stats?manager=Bob", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastFilter.Manager, ShouldEqual, "Bob")
			So(decode(w)["topPerformer"], ShouldEqual, stats.NoPerformer)
		})

		Convey("When requesting filter options", func() {
			w := do(h, http.MethodGet, "/api/filter-options", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["mdpNames"], ShouldResemble, []interface{}{"Ann", "Ben"})
		})

		Convey("When requesting a profile", func() {
			w := do(h, http.MethodGet, "/api/mdps/Ann", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["name"], ShouldEqual, "Ann")
		})

		Convey("When requesting an unknown profile", func() {
			deps.profileErr = fmt.Errorf("%w: Nobody", service.ErrUnknownMDP)
			w := do(h, http.MethodGet, "/api/mdps/Nobody", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When comparing two participants", func() {
			w := do(h, http.MethodGet, "/api/compare?a=Ann&b=Ben", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["mdpA"], ShouldEqual, "Ann")
			So(body["averageDelta"], ShouldAlmostEqual, 2.0, 1e-9)
		})

		Convey("When a side of the comparison is missing", func() {
			w := do(h, http.MethodGet, "/api/compare?a=Ann", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestExportHandler(t *testing.T) {
	Convey("Given an API", t, func() {
		deps := &mockDependencies{}
		h := newHandler(deps)

		Convey("When downloading CSV", func() {
			w := do(h, http.MethodGet, "/api/export.csv?rotation=3", "")

			Convey("Then an attachment is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "text/csv")
				So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, `filename="mdp-evaluations-`)
				So(w.Header().Get("Content-Disposition"), ShouldEndWith, `.csv"`)
				So(deps.lastFilter.Rotation, ShouldEqual, "3")
			})
		})

		Convey("When downloading PDF", func() {
			w := do(h, http.MethodGet, "/api/export.pdf", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/pdf")
			So(strings.HasPrefix(w.Body.String(), "%PDF"), ShouldBeTrue)
		})

		Convey("When the export fails midway", func() {
			deps.exportErr = errors.New("writer broke")
			w := do(h, http.MethodGet, "/api/export.csv", "")

			Convey("Then no partial file is sent", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Header().Get("Content-Disposition"), ShouldBeEmpty)
				So(w.Body.String(), ShouldNotContainSubstring, "partial")
			})
		})
	})
}

func TestMiddleware(t *testing.T) {
	Convey("Given the middleware chain", t, func() {
		h := newHandler(&mockDependencies{}, api.WithProduction(true))

		Convey("When no request id is sent", func() {
			w := do(h, http.MethodGet, "/health", "")
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
		})

		Convey("When a request id is sent", func() {
			w := do(h, http.MethodGet, "/health", "", api.RequestIDHeader, "req-42")
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "req-42")
		})

		Convey("Then security headers are set", func() {
			w := do(h, http.MethodGet, "/health", "")
			So(w.Header().Get("X-Content-Type-Options"), ShouldEqual, "nosniff")
			So(w.Header().Get("X-Frame-Options"), ShouldEqual, "DENY")
			So(w.Header().Get("Content-Security-Policy"), ShouldContainSubstring, "cdn.jsdelivr.net")
			So(w.Header().Get("Strict-Transport-Security"), ShouldNotBeEmpty)
		})

		Convey("Then GetRequestID reads the stored id", func() {
			var seen string
			inner := api.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = api.GetRequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.Header.Set(api.RequestIDHeader, "abc")
			inner.ServeHTTP(httptest.NewRecorder(), req)
			So(seen, ShouldEqual, "abc")
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("eof")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)

		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "api.op: bad request: eof")
		So(api.Wrap("api.op", nil), ShouldBeNil)
		So(api.NewKind("api.op", api.ErrNotFound).Error(), ShouldEqual, "api.op: not found")
	})
}

func TestAPIWithService(t *testing.T) {
	Convey("Given the API over a real service", t, func() {
		svc := service.New(
			service.WithDataFile(filepath.Join(t.TempDir(), "data.json")),
			service.WithLogger(logger.Nop()),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		h := api.NewServer(svc, svc, api.WithLogger(logger.Nop())).Handler(context.Background())

		Convey("When the same form is posted twice with one key", func() {
			first := do(h, http.MethodPost, "/api/survey-responses", validBody, api.IdempotencyKeyHeader, "form-1")
			second := do(h, http.MethodPost, "/api/survey-responses", validBody, api.IdempotencyKeyHeader, "form-1")

			Convey("Then one record exists", func() {
				So(first.Code, ShouldEqual, http.StatusCreated)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(decode(second)["id"], ShouldEqual, decode(first)["id"])

				stats := decode(do(h, http.MethodGet, "/api/survey-stats", ""))
				So(stats["totalResponses"], ShouldEqual, 1.0)
				So(stats["averageScore"], ShouldAlmostEqual, 3.05, 1e-9)
			})

			Convey("And it can be deleted once", func() {
				id := decode(first)["id"].(string)
				So(do(h, http.MethodDelete, "/api/survey-responses/"+id, "").Code, ShouldEqual, http.StatusOK)
				So(do(h, http.MethodDelete, "/api/survey-responses/"+id, "").Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When an invalid form is posted", func() {
			w := do(h, http.MethodPost, "/api/survey-responses",
				`{"mdpName":" ","function":"Planning","managerName":"Bob","rotation":"1",
				  "jobKnowledge":9,"qualityOfWork":3,"communication":2,"initiative":1}`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "validation_failed")
			So(bytes.Contains(w.Body.Bytes(), []byte("jobKnowledge")), ShouldBeTrue)
		})

		Convey("When a function-specific rating is not a whole number", func() {
			w := do(h, http.MethodPost, "/api/survey-responses",
				`{"mdpName":"Ann","function":"Planning","managerName":"Bob","rotation":"1",
				  "jobKnowledge":4,"qualityOfWork":3,"communication":2,"initiative":1,
				  "functionSpecific1":"abc","functionSpecific2":3.5}`)

			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "validation_failed")
			So(bytes.Contains(w.Body.Bytes(), []byte("functionSpecific1")), ShouldBeTrue)
			So(bytes.Contains(w.Body.Bytes(), []byte("functionSpecific2")), ShouldBeTrue)
			So(svc.Count(context.Background()), ShouldEqual, 0)
		})
	})
}
