package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRouteTemplate(t *testing.T) {
	rec := New()
	router := mux.NewRouter()
	router.Use(rec.Middleware)
	router.HandleFunc("/api/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Methods(http.MethodGet)

	for _, id := range []string{"a", "b", "c"} {
		res := httptest.NewRecorder()
		router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/items/"+id, nil))
		require.Equal(t, http.StatusTeapot, res.Code)
	}

	got := testutil.ToFloat64(rec.requests.WithLabelValues(http.MethodGet, "/api/items/{id}", "418"))
	assert.Equal(t, 3.0, got)
	assert.Equal(t, 0.0, testutil.ToFloat64(rec.inFlight))

	series, err := testutil.GatherAndCount(rec.Registry(), "finadvisor_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series)
}

func TestAuthAttempt(t *testing.T) {
	rec := New()
	rec.AuthAttempt("login", true)
	rec.AuthAttempt("login", false)
	rec.AuthAttempt("login", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.authOutcomes.WithLabelValues("login", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.authOutcomes.WithLabelValues("login", "failure")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	rec := New()
	rec.AuthAttempt("register", true)

	res := httptest.NewRecorder()
	rec.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, res.Code)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `finadvisor_auth_attempts_total{action="register",outcome="success"} 1`))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}
