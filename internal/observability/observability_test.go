package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("storefront")

	c.CacheOperation("get", "hit")
	c.CacheOperation("get", "hit")
	c.CacheOperation("get", "miss")
	c.StoreFailure("product.find")
	c.OrphansSwept(3)
	c.ObserveRequest(http.MethodGet, "/api/products", http.StatusOK, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.CacheOperations.WithLabelValues("get", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheOperations.WithLabelValues("get", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreFailures.WithLabelValues("product.find")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.CartOrphansSwept))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/api/products", "200")))
}

func TestCollector_IndependentRegistries(t *testing.T) {
	a := NewCollector("storefront")
	b := NewCollector("storefront")

	a.OrphansSwept(1)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CartOrphansSwept))
	assert.NotSame(t, a.Registry(), b.Registry())
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("storefront")
	c.CacheOperation("set", "ok")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `storefront_cache_operations_total{op="set",result="ok"} 1`))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(-1))

	logger, err = NewLogger(LogConfig{Level: "WARN"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(0))

	_, err = NewLogger(LogConfig{Level: "loud"})
	assert.Error(t, err)
}
