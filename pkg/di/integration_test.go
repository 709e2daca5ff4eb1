package di

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-storefront/cache"
	"github.com/goliatone/go-storefront/domain"
)

type client struct {
	t       *testing.T
	handler http.Handler
	token   string
}

func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

// login registers an account and returns a client carrying its token.
func login(t *testing.T, handler http.Handler, email, role string) *client {
	t.Helper()

	anon := &client{t: t, handler: handler}
	status := anon.do(http.MethodPost, "/api/auth/register", map[string]any{
		"name":     "Test User",
		"email":    email,
		"password": "s3cret-pass",
		"userType": role,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	var session struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}
	status = anon.do(http.MethodPost, "/api/auth/login", map[string]any{
		"email":    email,
		"password": "s3cret-pass",
	}, &session)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, role, session.User.Role)

	return &client{t: t, handler: handler, token: session.Token}
}

type cartEnvelope struct {
	Message string          `json:"message"`
	Cart    domain.CartView `json:"cart"`
}

// The Widget walk-through: add, merge, delete the product, observe the
// self-healed empty cart. Runs on SQLite with a Redis cache.
func TestEndToEndWidgetScenario(t *testing.T) {
	server := miniredis.RunT(t)
	cfg := sqliteConfig()
	cfg.Cache.Backend = cache.BackendRedis
	cfg.Cache.RedisURL = "redis://" + server.Addr()
	container := newTestContainer(t, cfg)
	handler := container.Handler()

	admin := login(t, handler, "admin@example.com", domain.RoleAdmin)
	shopper := login(t, handler, "shopper@example.com", domain.RoleCustomer)

	var widget domain.Product
	status := admin.do(http.MethodPost, "/api/products", map[string]any{
		"name":         "Widget",
		"description":  "A small widget",
		"price":        "10",
		"brand":        "Acme",
		"category":     "Tools",
		"countInStock": 5,
	}, &widget)
	require.Equal(t, http.StatusCreated, status)

	var env cartEnvelope
	status = shopper.do(http.MethodPost, "/api/cart/add", map[string]any{"productId": widget.ID, "quantity": 1}, &env)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, env.Cart.Items, 1)
	assert.Equal(t, 1, env.Cart.Items[0].Quantity)
	assert.Equal(t, "10", env.Cart.TotalPrice.String())

	status = shopper.do(http.MethodPost, "/api/cart/add", map[string]any{"productId": widget.ID, "quantity": 2}, &env)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, env.Cart.Items[0].Quantity)
	assert.Equal(t, "30", env.Cart.TotalPrice.String())

	// the read-through write-back for the product must land before the
	// delete invalidates it
	container.Cache().Flush()
	require.True(t, server.Exists(cache.ProductKey(widget.ID)))

	status = admin.do(http.MethodDelete, "/api/products/"+widget.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, status)
	container.Cache().Flush()
	assert.False(t, server.Exists(cache.ProductKey(widget.ID)))

	var view domain.CartView
	status = shopper.do(http.MethodGet, "/api/cart", nil, &view)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0, view.TotalItems)
	assert.True(t, view.TotalPrice.IsZero())

	metrics := container.Metrics()
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CartOrphansSwept))

	// the sweep was persisted, so a second read finds nothing to clean
	status = shopper.do(http.MethodGet, "/api/cart", nil, &view)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CartOrphansSwept))
}

func TestEndToEndProductReadsHitCache(t *testing.T) {
	container := newTestContainer(t, sqliteConfig())
	handler := container.Handler()
	admin := login(t, handler, "admin@example.com", domain.RoleAdmin)
	anon := &client{t: t, handler: handler}

	var created domain.Product
	require.Equal(t, http.StatusCreated, admin.do(http.MethodPost, "/api/products", map[string]any{
		"name": "Gadget", "description": "d", "price": "24.50", "brand": "Acme", "category": "Tools", "countInStock": 1,
	}, &created))

	hits := container.Metrics().CacheOperations.WithLabelValues("get", "hit")
	misses := container.Metrics().CacheOperations.WithLabelValues("get", "miss")

	path := "/api/products/" + created.ID.String()
	require.Equal(t, http.StatusOK, anon.do(http.MethodGet, path, nil, nil))
	container.Cache().Flush()
	assert.Equal(t, 1.0, testutil.ToFloat64(misses))
	assert.Equal(t, 0.0, testutil.ToFloat64(hits))

	var cached domain.Product
	require.Equal(t, http.StatusOK, anon.do(http.MethodGet, path, nil, &cached))
	assert.Equal(t, 1.0, testutil.ToFloat64(hits))
	assert.Equal(t, created.ID, cached.ID)

	// an update invalidates, so the next read misses and sees the change
	var updated domain.Product
	require.Equal(t, http.StatusOK, admin.do(http.MethodPut, path, map[string]any{"name": "Gadget Pro"}, &updated))
	container.Cache().Flush()
	require.Equal(t, http.StatusOK, anon.do(http.MethodGet, path, nil, &cached))
	assert.Equal(t, "Gadget Pro", cached.Name)
	assert.Equal(t, 2.0, testutil.ToFloat64(misses))
}

func TestEndToEndHealthAndMetrics(t *testing.T) {
	container := newTestContainer(t, testConfig())
	anon := &client{t: t, handler: container.Handler()}

	var health struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.Equal(t, http.StatusOK, anon.do(http.MethodGet, "/health", nil, &health))
	assert.Equal(t, "ok", health.Status)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	container.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_http_requests_total")
}

func TestEndToEndAdminRegistrationDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.AllowAdminRegistration = false
	container := newTestContainer(t, cfg)
	handler := container.Handler()
	anon := &client{t: t, handler: handler}

	var registered struct {
		UserType string `json:"userType"`
	}
	require.Equal(t, http.StatusCreated, anon.do(http.MethodPost, "/api/auth/register", map[string]any{
		"name": "Mallory", "email": "mallory@example.com", "password": "s3cret-pass", "userType": "admin",
	}, &registered))
	assert.Equal(t, domain.RoleCustomer, registered.UserType)

	var session struct {
		Token string `json:"token"`
	}
	require.Equal(t, http.StatusOK, anon.do(http.MethodPost, "/api/auth/login", map[string]any{
		"email": "mallory@example.com", "password": "s3cret-pass",
	}, &session))

	mallory := &client{t: t, handler: handler, token: session.Token}
	status := mallory.do(http.MethodPost, "/api/products", map[string]any{
		"name": "Fake", "description": "d", "price": "1", "brand": "b", "category": "c", "countInStock": 1,
	}, nil)
	assert.Equal(t, http.StatusForbidden, status)
}
