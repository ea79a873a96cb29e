package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_UsesRouteTemplate(t *testing.T) {
	m := New(prometheus.NewRegistry())

	router := mux.NewRouter()
	router.Use(m.Middleware)
	router.HandleFunc("/api/v1/invoices/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/invoices/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	count := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/invoices/{id}", "404"))
	assert.Equal(t, float64(2), count)
}

func TestObserveSweep(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveSweep("ok", time.Now().Add(-time.Second))
	m.ObserveSweep("locked", time.Now())

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SweepRuns.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SweepRuns.WithLabelValues("locked")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SweepDuration))
}

func TestNew_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) }, "registering twice on one registry must collide")
}
