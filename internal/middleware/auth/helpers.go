package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/nstepanov/shop-backend/internal/models"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

func CreateCookie(name, value, path string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func setUserContext(c echo.Context, claims jwt.MapClaims) error {
	sub, ok := claims["sub"].(float64)
	if !ok {
		return errors.New("token missing sub claim")
	}
	role, ok := claims["role"].(string)
	if !ok {
		return errors.New("token missing role claim")
	}
	c.Set("userID", uint(sub))
	c.Set("role", role)
	return nil
}

// UserID returns the authenticated user id placed in the context by the auth
// middleware.
func UserID(c echo.Context) (uint, error) {
	id, ok := c.Get("userID").(uint)
	if !ok {
		return 0, errors.New("unauthenticated")
	}
	return id, nil
}

func IsAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == models.RoleAdmin
}
