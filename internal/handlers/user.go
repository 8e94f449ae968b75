package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nstepanov/shop-backend/internal/logging"
	"github.com/nstepanov/shop-backend/internal/repo"
)

type UserHandler struct {
	Repo *repo.GormRepo
}

// GetUsers lists every account. Admin only; no pagination.
func (h *UserHandler) GetUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.get_users")

	users, err := h.Repo.ListUsers(ctx)
	if err != nil {
		l.Error("get_users_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list users")
	}

	l.Info("get_users_success", "count", len(users))
	return c.JSON(http.StatusOK, users)
}
