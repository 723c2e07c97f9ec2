package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounters(t *testing.T) {
	r := New()

	r.Applications.WithLabelValues(OutcomeSuccess).Inc()
	r.Applications.WithLabelValues(OutcomeSuccess).Inc()
	r.Applications.WithLabelValues(OutcomeFull).Inc()
	r.Completions.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Applications.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Applications.WithLabelValues(OutcomeFull)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Completions))
}

func TestHandlerExposesNamespace(t *testing.T) {
	r := New()
	r.Ratings.WithLabelValues("ORGANIZATION_TO_VOLUNTEER").Inc()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `volunnet_ratings_total{direction="ORGANIZATION_TO_VOLUNTEER"} 1`)
}
