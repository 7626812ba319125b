package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	app "github.com/okian/mdpsurvey/internal/app"
	"github.com/okian/mdpsurvey/internal/config"
	"github.com/okian/mdpsurvey/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("MDP_ADDR", ":8080")
			_ = os.Setenv("MDP_IDEMPOTENCY_SIZE", "1000")
			defer func() {
				_ = os.Unsetenv("MDP_ADDR")
				_ = os.Unsetenv("MDP_IDEMPOTENCY_SIZE")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.IdempotencySize, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("MDP_ADDR", "")
			defer func() { _ = os.Unsetenv("MDP_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestNewRouter(t *testing.T) {
	convey.Convey("Given a router over a started service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		cfg := config.New()
		cfg.DataFile = filepath.Join(t.TempDir(), "data.json")

		svc := app.New(app.WithDataFile(cfg.DataFile), app.WithLogger(logger.Nop()))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		h := newRouter(ctx, cfg, svc, logger.Nop())

		get := func(path string) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			return rec
		}

		convey.Convey("Then the survey form is served at the root", func() {
			rec := get("/")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, "<form")
		})

		convey.Convey("And the API answers under /api", func() {
			rec := get("/api/survey-stats")
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)

			var body map[string]any
			convey.So(json.Unmarshal(rec.Body.Bytes(), &body), convey.ShouldBeNil)
			convey.So(body["totalResponses"], convey.ShouldEqual, 0.0)
		})

		convey.Convey("And health, docs and dashboard are reachable", func() {
			convey.So(get("/health").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/dashboard").Code, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("And every response carries the middleware headers", func() {
			rec := get("/health")
			convey.So(rec.Header().Get("X-Request-ID"), convey.ShouldNotBeEmpty)
			convey.So(rec.Header().Get("X-Content-Type-Options"), convey.ShouldEqual, "nosniff")
		})

		convey.Convey("And oversized submissions are rejected", func() {
			cfg.MaxBodyBytes = 16
			small := newRouter(ctx, cfg, svc, logger.Nop())

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/survey-responses",
				strings.NewReader(`{"mdpName":"`+strings.Repeat("a", 64)+`"}`))
			small.ServeHTTP(rec, req)

			convey.So(rec.Code, convey.ShouldEqual, http.StatusRequestEntityTooLarge)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When running the system metrics updater until cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("When running the service metrics updater until cancelled", func() {
			svc := app.New()
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("When updating metrics directly", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(app.New()) }, convey.ShouldNotPanic)
		})
	})
}
