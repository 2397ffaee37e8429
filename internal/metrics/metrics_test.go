package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New("product-service")

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/products/1", "/products/2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/products/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestRecorderCounters(t *testing.T) {
	m := New("product-service")

	m.ProductOperation("create", "success")
	m.ProductOperation("create", "success")
	m.ProductOperation("create", "validation")
	m.MediaFailure("upload")
	m.MessageConsumed("stock.adjusted", "ack")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProductOpsTotal.WithLabelValues("create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProductOpsTotal.WithLabelValues("create", "validation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MediaFailuresTotal.WithLabelValues("upload")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesTotal.WithLabelValues("stock.adjusted", "ack")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New("product-service")
	m.MediaFailure("remove")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `inventory_product_service_media_failures_total{operation="remove"} 1`)
}
