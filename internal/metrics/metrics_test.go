package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Idempotent(t *testing.T) {
	Init()
	Init()
	require.NotNil(t, runsTotal)
	require.NotNil(t, stageFailuresTotal)
	require.NotNil(t, stageDurationSeconds)
	require.NotNil(t, pagesLabeledTotal)
}

func TestObserveRun(t *testing.T) {
	Init()
	beforeOK := testutil.ToFloat64(runsTotal.WithLabelValues("success"))
	beforeFail := testutil.ToFloat64(stageFailuresTotal.WithLabelValues("fetching", "fetch"))

	ObserveRun("done", "")
	ObserveRun("fetching", "fetch")

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(runsTotal.WithLabelValues("success")))
	assert.Equal(t, beforeFail+1, testutil.ToFloat64(stageFailuresTotal.WithLabelValues("fetching", "fetch")))
}

func TestObservePages(t *testing.T) {
	Init()
	before := testutil.ToFloat64(pagesLabeledTotal)
	ObservePages(3)
	ObservePages(0)
	assert.Equal(t, before+3, testutil.ToFloat64(pagesLabeledTotal))
}

func TestObserveStage(t *testing.T) {
	ObserveStage("labeling", 20*time.Millisecond)
	assert.Positive(t, testutil.CollectAndCount(stageDurationSeconds))
}

func TestMiddleware_RecordsStatus(t *testing.T) {
	Init()
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/teapot", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "418"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "418")))
}
