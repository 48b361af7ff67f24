package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposition(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := New()
	m.DeploymentStarted()
	m.DeploymentFinished(true)
	m.DeploymentFinished(false)
	m.TenantDataOp("list_records")
	m.TenantDataOp("list_records")

	router := gin.New()
	router.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, `autodrop_deployments_started_total 1`)
	assert.Contains(t, body, `autodrop_deployments_finished_total{outcome="live"} 1`)
	assert.Contains(t, body, `autodrop_deployments_finished_total{outcome="failed"} 1`)
	assert.Contains(t, body, `autodrop_tenant_data_operations_total{operation="list_records"} 2`)
}
