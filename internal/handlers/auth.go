package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/nstepanov/shop-backend/internal/hash"
	"github.com/nstepanov/shop-backend/internal/logging"
	authmw "github.com/nstepanov/shop-backend/internal/middleware/auth"
	"github.com/nstepanov/shop-backend/internal/models"
	"github.com/nstepanov/shop-backend/internal/mykafka"
	"github.com/nstepanov/shop-backend/internal/repo"
	"github.com/nstepanov/shop-backend/internal/service/token"
	"github.com/nstepanov/shop-backend/internal/transport"
)

type AuthHandler struct {
	Repo     *repo.GormRepo
	Tokens   *token.Service
	Producer *mykafka.Producer
}

func publish(c echo.Context, producer *mykafka.Producer, topic, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := producer.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka_publish_error", "topic", topic, "error", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Username == "" || req.Password == "" {
		l.Warn("register_error", "status", 400, "reason", "username and password required")
		return echo.NewHTTPError(http.StatusBadRequest, "username and password required")
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash password", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot hash password")
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hashed,
		Role:         models.RoleUser,
	}
	if _, err := h.Repo.CreateUser(ctx, user); err != nil {
		// uniqueness is enforced by the username constraint, not a prior lookup
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			l.Warn("register_error", "status", 400, "reason", "user already exists")
			return echo.NewHTTPError(http.StatusBadRequest, "user already exists")
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create user")
	}

	publish(c, h.Producer, mykafka.TopicUserEvents, fmt.Sprint(user.ID), map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		l.Warn("login_error", "status", 401, "reason", "invalid credentials")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_error", "status", 401, "reason", "invalid credentials")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	access, refresh, err := h.Tokens.IssueFor(user)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot issue tokens", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot issue tokens")
	}

	c.SetCookie(authmw.CreateCookie(authmw.AccessCookie, access, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(authmw.CreateCookie(authmw.RefreshCookie, refresh, "/", time.Now().Add(token.RefreshTTL)))

	publish(c, h.Producer, mykafka.TopicUserEvents, fmt.Sprint(user.ID), map[string]any{
		"type":     "user_logged_in",
		"user_id":  user.ID,
		"username": user.Username,
	})

	l.Info("login_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  access,
		"refresh_token": refresh,
		"is_admin":      user.IsAdmin(),
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	refreshCookie, err := c.Cookie(authmw.RefreshCookie)
	if err != nil {
		l.Warn("logout_error", "status", 400, "reason", "no refresh cookie")
		return echo.NewHTTPError(http.StatusBadRequest, "no refresh cookie")
	}

	if err := h.Tokens.Revoke(refreshCookie.Value); err != nil {
		l.Error("logout_error", "status", 500, "reason", "cannot revoke token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot revoke token")
	}

	expired := time.Now().Add(-1 * time.Hour)
	c.SetCookie(authmw.CreateCookie(authmw.AccessCookie, "", "/", expired))
	c.SetCookie(authmw.CreateCookie(authmw.RefreshCookie, "", "/", expired))

	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
