package auth

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/nstepanov/shop-backend/internal/service/token"
)

type Middleware struct {
	Tokens *token.Service
}

func New(ts *token.Service) *Middleware {
	return &Middleware{Tokens: ts}
}

// authenticate resolves the caller from the access cookie, transparently
// rotating via the refresh cookie when the access token is gone or expired.
func (m *Middleware) authenticate(c echo.Context) (jwt.MapClaims, error) {
	if ck, err := c.Cookie(AccessCookie); err == nil {
		claims, err := m.Tokens.ValidateAccess(ck.Value)
		if err == nil {
			return claims, nil
		}
	}

	rfCookie, err := c.Cookie(RefreshCookie)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	newAccess, newRefresh, claims, err := m.Tokens.Rotate(rfCookie.Value)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	c.SetCookie(CreateCookie(AccessCookie, newAccess, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(CreateCookie(RefreshCookie, newRefresh, "/", time.Now().Add(token.RefreshTTL)))
	return claims, nil
}

// RequireLogin rejects unauthenticated requests with 401.
func (m *Middleware) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := m.authenticate(c)
		if err != nil {
			return err
		}
		if err := setUserContext(c, claims); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		return next(c)
	}
}

// AdminOnly rejects unauthenticated requests with 401 and authenticated
// non-admins with 403.
func (m *Middleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := m.authenticate(c)
		if err != nil {
			return err
		}
		if err := setUserContext(c, claims); err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
		if !IsAdmin(c) {
			return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
		}
		return next(c)
	}
}
