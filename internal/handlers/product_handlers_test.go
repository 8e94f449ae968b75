package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nstepanov/shop-backend/internal/models"
	"github.com/nstepanov/shop-backend/internal/transport"
)

func TestCreateProduct(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginAs("admin", models.RoleAdmin)

	rec := env.do(http.MethodPost, "/products", map[string]any{
		"name":        "keyboard",
		"description": "mechanical keyboard",
		"price":       "59.99",
		"stock":       5,
	}, admin...)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp transport.ProductResponse
	decodeJSON(t, rec, &resp)
	require.Equal(t, "keyboard", resp.Name)
	require.True(t, resp.Price.Equal(mustDecimal(t, "59.99")))
	require.True(t, resp.InStock)
	require.EqualValues(t, 1, env.countRows(&models.Product{}))
}

func TestCreateProductRejectsNonPositivePrice(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginAs("admin", models.RoleAdmin)

	for _, price := range []string{"0", "-10.50"} {
		rec := env.do(http.MethodPost, "/products", map[string]any{
			"name":        "broken",
			"description": "should not persist",
			"price":       price,
			"stock":       1,
		}, admin...)
		require.Equal(t, http.StatusBadRequest, rec.Code, "price %s", price)
	}
	require.EqualValues(t, 0, env.countRows(&models.Product{}))
}

func TestProductWritePermissions(t *testing.T) {
	env := newTestEnv(t)
	user := env.loginAs("shopper", models.RoleUser)

	body := map[string]any{"name": "x", "description": "y", "price": "1.00", "stock": 1}

	rec := env.do(http.MethodPost, "/products", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/products", body, user...)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.EqualValues(t, 0, env.countRows(&models.Product{}))
}

func TestDeleteProductPermissions(t *testing.T) {
	env := newTestEnv(t)
	user := env.loginAs("shopper", models.RoleUser)
	admin := env.loginAs("admin", models.RoleAdmin)

	env.seedProduct("mouse", "19.99", 3)

	rec := env.do(http.MethodDelete, "/products/1", nil, user...)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.EqualValues(t, 1, env.countRows(&models.Product{}))

	rec = env.do(http.MethodDelete, "/products/1", nil, admin...)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.EqualValues(t, 0, env.countRows(&models.Product{}))

	// already gone
	rec = env.do(http.MethodDelete, "/products/1", nil, admin...)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetProduct(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct("monitor", "249.00", 0)

	rec := env.do(http.MethodGet, "/products/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp transport.ProductResponse
	decodeJSON(t, rec, &resp)
	require.Equal(t, "monitor", resp.Name)
	require.False(t, resp.InStock)

	rec = env.do(http.MethodGet, "/products/999", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchProduct(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginAs("admin", models.RoleAdmin)
	env.seedProduct("lamp", "10.00", 2)

	rec := env.do(http.MethodPatch, "/products/1", map[string]any{"price": "12.50"}, admin...)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp transport.ProductResponse
	decodeJSON(t, rec, &resp)
	require.Equal(t, "lamp", resp.Name)
	require.True(t, resp.Price.Equal(mustDecimal(t, "12.50")))
	require.EqualValues(t, 2, resp.Stock)

	rec = env.do(http.MethodPatch, "/products/1", map[string]any{"price": "0"}, admin...)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

type productListResponse struct {
	Data []transport.ProductResponse `json:"data"`
	Meta struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

func TestListProductsFilters(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct("Red Chair", "49.99", 4)
	env.seedProduct("Blue Chair", "79.99", 0)
	env.seedProduct("Desk", "149.99", 2)

	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{"name exact is case-insensitive", "?name=red+chair", []string{"Red Chair"}},
		{"name contains", "?name_contains=chair", []string{"Red Chair", "Blue Chair"}},
		{"search over name and description", "?search=desk", []string{"Desk"}},
		{"price greater than", "?price_gt=70", []string{"Blue Chair", "Desk"}},
		{"price less than", "?price_lt=50", []string{"Red Chair"}},
		{"price exact", "?price=149.99", []string{"Desk"}},
		{"price range", "?price_range=40,100", []string{"Red Chair", "Blue Chair"}},
		{"in stock only", "?in_stock=true", []string{"Red Chair", "Desk"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, "/products"+tc.query, nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp productListResponse
			decodeJSON(t, rec, &resp)

			var names []string
			for _, p := range resp.Data {
				names = append(names, p.Name)
			}
			require.ElementsMatch(t, tc.want, names)
		})
	}
}

func TestListProductsOrdering(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct("b-item", "20.00", 1)
	env.seedProduct("a-item", "30.00", 2)
	env.seedProduct("c-item", "10.00", 3)

	rec := env.do(http.MethodGet, "/products?ordering=-price", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp productListResponse
	decodeJSON(t, rec, &resp)
	require.Len(t, resp.Data, 3)
	require.Equal(t, "a-item", resp.Data[0].Name)
	require.Equal(t, "c-item", resp.Data[2].Name)

	rec = env.do(http.MethodGet, "/products?ordering=name", nil)
	decodeJSON(t, rec, &resp)
	require.Equal(t, "a-item", resp.Data[0].Name)
	require.Equal(t, "c-item", resp.Data[2].Name)
}

func TestListProductsPagination(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 15; i++ {
		env.seedProduct("item", "5.00", 1)
	}

	rec := env.do(http.MethodGet, "/products?page=2&size=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp productListResponse
	decodeJSON(t, rec, &resp)
	require.Len(t, resp.Data, 5)
	require.EqualValues(t, 15, resp.Meta.Total)
}

func TestProductsInfo(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct("cheap", "2.50", 1)
	env.seedProduct("mid", "10.00", 1)
	env.seedProduct("expensive", "99.99", 1)

	rec := env.do(http.MethodGet, "/products/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp transport.ProductsInfoResponse
	decodeJSON(t, rec, &resp)
	require.EqualValues(t, 3, resp.Count)
	require.Len(t, resp.Products, 3)
	require.True(t, resp.MinPrice.Equal(mustDecimal(t, "2.50")))
	require.True(t, resp.MaxPrice.Equal(mustDecimal(t, "99.99")))
}
