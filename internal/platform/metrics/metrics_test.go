package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/wardflow/wardflow/internal/platform/apperror"
)

func TestMiddleware_CountsRequests(t *testing.T) {
	collector, reg := NewCollector("wardflow")

	e := echo.New()
	e.Use(collector.Middleware())
	e.GET("/beds", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/metrics", Handler(reg))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/beds", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "wardflow_http_requests_total") {
		t.Errorf("expected request counter in output:\n%s", body)
	}
	if !strings.Contains(body, `path="/beds"`) {
		t.Error("expected /beds label in output")
	}
}

func TestMiddleware_ErrorStatusLabel(t *testing.T) {
	collector, reg := NewCollector("wardflow")

	e := echo.New()
	e.Use(collector.Middleware())
	e.GET("/beds/:id", func(c echo.Context) error {
		return apperror.NotFound("bed", c.Param("id"))
	})
	e.GET("/metrics", Handler(reg))

	req := httptest.NewRequest(http.MethodGet, "/beds/b-1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// The counter must carry the status the error maps to, not the
	// pre-handler default of 200.
	body := rec.Body.String()
	if !strings.Contains(body, `status="404"`) {
		t.Errorf("expected 404 label for failed request:\n%s", body)
	}
	if strings.Contains(body, `path="/beds/:id",status="200"`) {
		t.Error("failed request must not be counted as 200")
	}
}

func TestNewCollector_IndependentRegistries(t *testing.T) {
	// Two collectors must not collide on registration.
	_, _ = NewCollector("wardflow")
	_, _ = NewCollector("wardflow")
}
