package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/models"
)

func TestListProductsPaging(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 5; i++ {
		e.product(fmt.Sprintf("Runner %d", i), 10+float64(i))
	}

	w := e.do(http.MethodGet, "/api/products?limit=2&offset=1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["products"], 2)
	assert.Equal(t, 5.0, body["total"])
	assert.Equal(t, true, body["hasMore"])

	w = e.do(http.MethodGet, "/api/products?limit=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListProductsIsCached(t *testing.T) {
	e := newEnv(t)
	_, admin := e.user("admin@example.com", models.RoleAdmin)
	e.product("Runner", 10)

	w := e.do(http.MethodGet, "/api/products", nil, "")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	w = e.do(http.MethodGet, "/api/products", nil, "")
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	w = e.do(http.MethodPost, "/api/products", map[string]any{"title": "Loafer", "price": 20}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = e.do(http.MethodGet, "/api/products", nil, "")
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, 2.0, decode(t, w)["total"])
}

func TestProductLookups(t *testing.T) {
	e := newEnv(t)
	p := e.product("Runner", 10)

	w := e.do(http.MethodGet, fmt.Sprintf("/api/products/%d", p.ID), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Runner", decode(t, w)["title"])

	w = e.do(http.MethodGet, "/api/products/9999", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "product not found", decode(t, w)["message"])

	w = e.do(http.MethodGet, "/api/products/categories", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"Shoes"}, decode(t, w)["categories"])

	w = e.do(http.MethodGet, "/api/products/category/shoes", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["total"])

	for _, path := range []string{"/api/products/featured", "/api/products/trending"} {
		w = e.do(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestProductWritesRequireAdmin(t *testing.T) {
	e := newEnv(t)
	_, customer := e.user("c@example.com", models.RoleCustomer)

	w := e.do(http.MethodPost, "/api/products", map[string]any{"title": "X", "price": 1}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/api/products", map[string]any{"title": "X", "price": 1}, customer)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "admin access required", decode(t, w)["message"])
}

func TestAdminProductLifecycle(t *testing.T) {
	e := newEnv(t)
	_, admin := e.user("admin@example.com", models.RoleAdmin)

	w := e.do(http.MethodPost, "/api/products", map[string]any{"title": "Runner", "price": 0}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/products", map[string]any{"title": "Runner", "price": 49.5, "tags": []string{"sport"}}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := uint(decode(t, w)["id"].(float64))

	w = e.do(http.MethodPost, "/api/products", map[string]any{"title": "runner", "price": 10}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPut, fmt.Sprintf("/api/products/%d", id), map[string]any{"price": 39.5, "stock": 3}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, 39.5, body["price"])
	assert.Equal(t, "Runner", body["title"])

	w = e.do(http.MethodDelete, fmt.Sprintf("/api/products/%d", id), nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodDelete, fmt.Sprintf("/api/products/%d", id), nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
