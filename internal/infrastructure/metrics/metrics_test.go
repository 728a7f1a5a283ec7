package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsByRouteTemplate(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/applications/:application_id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/applications/:application_id", "204"))
	for _, id := range []string{"a1", "a2"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/applications/"+id, nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/applications/:application_id", "204"))
	assert.Equal(t, before+2, after)
}

func TestRecordTransitionAndTask(t *testing.T) {
	before := testutil.ToFloat64(statusTransitions.WithLabelValues("under_review", "approved"))
	RecordTransition("under_review", "approved")
	assert.Equal(t, before+1, testutil.ToFloat64(statusTransitions.WithLabelValues("under_review", "approved")))

	RecordTask("notification.send", "done", 20*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.ToFloat64(taskRuns.WithLabelValues("notification.send", "done")), 1.0)
}

func TestHandler_ExposesRegistry(t *testing.T) {
	RecordTransitionFailure("invalid_transition")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "loan_origination_applications_status_update_failures_total"))
}
