package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/applications/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	for _, path := range []string{"/applications/1", "/applications/2"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/applications/:id", "204")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
}

func TestDomainCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Registration("created")
	m.Registration("conflict")
	m.Login("ok")
	m.ApplicationWrite("create")
	m.ApplicationWrite("create")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.registration.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.applications.WithLabelValues("create")))

	var disabled *Metrics
	disabled.Login("ok")
}
