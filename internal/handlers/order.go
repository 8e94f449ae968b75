package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nstepanov/shop-backend/internal/logging"
	authmw "github.com/nstepanov/shop-backend/internal/middleware/auth"
	"github.com/nstepanov/shop-backend/internal/mykafka"
	"github.com/nstepanov/shop-backend/internal/repo"
	"github.com/nstepanov/shop-backend/internal/service/order"
	"github.com/nstepanov/shop-backend/internal/transport"
)

type OrderHandler struct {
	Svc      *order.Service
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
}

func actorFrom(c echo.Context) (order.Actor, error) {
	userID, err := authmw.UserID(c)
	if err != nil {
		return order.Actor{}, err
	}
	return order.Actor{UserID: userID, Admin: authmw.IsAdmin(c)}, nil
}

func orderIDParam(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

func mapServiceError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, order.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, order.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	actor, err := actorFrom(c)
	if err != nil {
		l.Warn("create_order_error", "status", 401, "reason", "unauthenticated")
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	created, err := h.Svc.Create(ctx, req, actor.UserID)
	if err != nil {
		he := mapServiceError(err)
		l.Warn("create_order_error", "status", he.Code, "error", err)
		return he
	}

	publish(c, h.Producer, mykafka.TopicOrderEvents, created.ID.String(), map[string]any{
		"type":     "order_created",
		"order_id": created.ID,
		"user_id":  created.UserID,
	})

	l.Info("create_order_success", "order_id", created.ID)
	return c.JSON(http.StatusCreated, transport.NewOrderResponse(created))
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	actor, err := actorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	orderID, err := orderIDParam(c)
	if err != nil {
		l.Warn("get_order_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	found, err := h.Svc.Get(ctx, orderID, actor)
	if err != nil {
		he := mapServiceError(err)
		l.Warn("get_order_error", "status", he.Code, "error", err)
		return he
	}
	return c.JSON(http.StatusOK, transport.NewOrderResponse(found))
}

// GetOrders lists every order for admins, the caller's own otherwise.
func (h *OrderHandler) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_orders")

	actor, err := actorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	orders, err := h.Svc.List(ctx, actor)
	if err != nil {
		l.Error("get_orders_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list orders")
	}

	l.Info("get_orders_success", "count", len(orders))
	return c.JSON(http.StatusOK, transport.NewOrderResponses(orders))
}

// GetUserOrders always returns the caller's own orders.
func (h *OrderHandler) GetUserOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_user_orders")

	actor, err := actorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	orders, err := h.Svc.ListOwn(ctx, actor)
	if err != nil {
		l.Error("get_user_orders_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list orders")
	}

	l.Info("get_user_orders_success", "count", len(orders))
	return c.JSON(http.StatusOK, transport.NewOrderResponses(orders))
}

func (h *OrderHandler) UpdateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_order")

	actor, err := actorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	orderID, err := orderIDParam(c)
	if err != nil {
		l.Warn("update_order_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	var req transport.UpdateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	updated, err := h.Svc.Update(ctx, orderID, req, actor)
	if err != nil {
		he := mapServiceError(err)
		l.Warn("update_order_error", "status", he.Code, "error", err)
		return he
	}

	publish(c, h.Producer, mykafka.TopicOrderEvents, updated.ID.String(), map[string]any{
		"type":     "order_updated",
		"order_id": updated.ID,
		"status":   updated.Status,
	})

	l.Info("update_order_success", "order_id", updated.ID)
	return c.JSON(http.StatusOK, transport.NewOrderResponse(updated))
}

func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete_order")

	actor, err := actorFrom(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	orderID, err := orderIDParam(c)
	if err != nil {
		l.Warn("delete_order_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	if err := h.Svc.Delete(ctx, orderID, actor); err != nil {
		he := mapServiceError(err)
		l.Warn("delete_order_error", "status", he.Code, "error", err)
		return he
	}

	publish(c, h.Producer, mykafka.TopicOrderEvents, orderID.String(), map[string]any{
		"type":     "order_deleted",
		"order_id": orderID,
	})

	l.Info("delete_order_success", "order_id", orderID)
	return c.NoContent(http.StatusNoContent)
}

// GetOrderItems serves the flat item listing.
func (h *OrderHandler) GetOrderItems(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order_items")

	items, err := h.Repo.ListOrderItems(ctx)
	if err != nil {
		l.Error("get_order_items_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list order items")
	}

	out := make([]transport.OrderItemResponse, len(items))
	for i, item := range items {
		out[i] = transport.NewOrderItemResponse(item)
	}
	return c.JSON(http.StatusOK, out)
}
