package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freelance-orders/internal/pkg/apperror"
)

func TestRecordOperation_LabelsByCode(t *testing.T) {
	m := New()

	m.RecordOperation("order.deliver", nil)
	m.RecordOperation("order.deliver", apperror.New(apperror.ErrCodeInvalidTransition, "нельзя сдать работу"))
	m.RecordOperation("order.deliver", errors.New("db down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("order.deliver", "ok", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("order.deliver", "error", "invalid_status_transition")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("order.deliver", "error", "internal_error")))
}

func TestRecordJob(t *testing.T) {
	m := New()

	m.RecordJob("proposal_sweep", 3, nil)
	m.RecordJob("proposal_sweep", 0, errors.New("timeout"))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.jobAffected.WithLabelValues("proposal_sweep")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("proposal_sweep", "error")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "/api/orders/:id", http.StatusOK, 20*time.Millisecond)
	m.RecordNotification("kafka", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `freelance_orders_http_requests_total{method="GET",path="/api/orders/:id",status="200"} 1`)
	assert.Contains(t, string(body), `freelance_orders_notifications_sent_total{result="ok",sink="kafka"} 1`)
}
