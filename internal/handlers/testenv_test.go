package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nstepanov/shop-backend/internal/config"
	"github.com/nstepanov/shop-backend/internal/handlers"
	"github.com/nstepanov/shop-backend/internal/hash"
	authmw "github.com/nstepanov/shop-backend/internal/middleware/auth"
	"github.com/nstepanov/shop-backend/internal/models"
	"github.com/nstepanov/shop-backend/internal/repo"
	"github.com/nstepanov/shop-backend/internal/service/order"
	"github.com/nstepanov/shop-backend/internal/service/token"
	httpserver "github.com/nstepanov/shop-backend/internal/transport/http"
)

type testEnv struct {
	T    *testing.T
	E    *echo.Echo
	DB   *gorm.DB
	Repo *repo.GormRepo
}

func newTestEnv(t *testing.T, opts ...func(*httpserver.Deps)) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	store := repo.New(db)
	tokens := &token.Service{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())

	deps := httpserver.Deps{
		AuthHandler:    &handlers.AuthHandler{Repo: store, Tokens: tokens},
		ProductHandler: &handlers.ProductHandler{Repo: store},
		OrderHandler:   &handlers.OrderHandler{Svc: order.New(store), Repo: store},
		UserHandler:    &handlers.UserHandler{Repo: store},
		AuthMW:         authmw.New(tokens),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	httpserver.Register(e, &deps)

	return &testEnv{T: t, E: e, DB: db, Repo: store}
}

func (env *testEnv) do(method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	env.T.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) seedUser(username, password, role string) *models.User {
	env.T.Helper()

	hashed, err := hash.HashPassword(password)
	require.NoError(env.T, err)

	user := &models.User{Username: username, PasswordHash: hashed, Role: role}
	require.NoError(env.T, env.DB.Create(user).Error)
	return user
}

func (env *testEnv) login(username, password string) []*http.Cookie {
	env.T.Helper()

	rec := env.do(http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(env.T, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.NotEmpty(env.T, cookies)
	return cookies
}

func (env *testEnv) loginAs(username, role string) []*http.Cookie {
	env.T.Helper()
	env.seedUser(username, "password", role)
	return env.login(username, "password")
}

func (env *testEnv) seedProduct(name string, price string, stock uint) *models.Product {
	env.T.Helper()

	product := &models.Product{
		Name:        name,
		Description: name + " description",
		Price:       mustDecimal(env.T, price),
		Stock:       stock,
	}
	require.NoError(env.T, env.DB.Create(product).Error)
	return product
}

func (env *testEnv) countRows(model interface{}) int64 {
	env.T.Helper()

	var n int64
	require.NoError(env.T, env.DB.Model(model).Count(&n).Error)
	return n
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
