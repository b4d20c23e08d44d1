package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "GET /api/accounts", 200, 10*time.Millisecond)
	m.ObserveHTTP("GET", "GET /api/accounts", 200, 20*time.Millisecond)
	m.EventPublished("transaction.created", nil)
	m.EventPublished("transaction.created", errors.New("broker down"))
	m.AlertTriggered("spending_threshold")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "GET /api/accounts", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsPublished.WithLabelValues("transaction.created", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.alertsTriggered.WithLabelValues("spending_threshold")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.EventConsumed(nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `wallet_events_consumed_total{outcome="ok"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	m.EventPublished("x", nil)
	m.EventConsumed(nil)
	m.AlertTriggered("x")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}
