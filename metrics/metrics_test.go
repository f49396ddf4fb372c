package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetricsServer_ObserveWorkOrder(t *testing.T) {
	m, err := New("tee-workorder-service", "")
	require.NoError(t, err)

	m.ObserveWorkOrder("serialized", "success", 3*time.Millisecond)
	m.ObserveWorkOrder("parsed", "error", time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `tee_workorder_service_workorder_requests_total{outcome="success",stage="serialized"} 1`)
	require.Contains(t, string(body), `tee_workorder_service_workorder_requests_total{outcome="error",stage="parsed"} 1`)
	require.Contains(t, string(body), "tee_workorder_service_workorder_duration_seconds_count")
}

func TestNew_EmptyNamespace(t *testing.T) {
	_, err := New("", ":0")
	require.Error(t, err)
}
