package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nstepanov/shop-backend/internal/handlers"
	authmw "github.com/nstepanov/shop-backend/internal/middleware/auth"
)

type Deps struct {
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	OrderHandler   *handlers.OrderHandler
	UserHandler    *handlers.UserHandler
	SearchHandler  *handlers.SearchHandler
	AuthMW         *authmw.Middleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/logout", d.AuthHandler.Logout)

	products := e.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/info", d.ProductHandler.GetProductsInfo)
	if d.SearchHandler != nil {
		products.GET("/search", d.SearchHandler.Search)
	}
	products.GET("/:id", d.ProductHandler.GetProduct)

	products.POST("", d.ProductHandler.CreateProduct, d.AuthMW.AdminOnly)
	products.PUT("/:id", d.ProductHandler.PutProduct, d.AuthMW.AdminOnly)
	products.PATCH("/:id", d.ProductHandler.PatchProduct, d.AuthMW.AdminOnly)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, d.AuthMW.AdminOnly)

	orders := e.Group("/orders", d.AuthMW.RequireLogin)
	orders.GET("", d.OrderHandler.GetOrders)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PUT("/:id", d.OrderHandler.UpdateOrder)
	orders.PATCH("/:id", d.OrderHandler.UpdateOrder)
	orders.DELETE("/:id", d.OrderHandler.DeleteOrder)

	e.GET("/user-orders", d.OrderHandler.GetUserOrders, d.AuthMW.RequireLogin)
	e.GET("/order-items", d.OrderHandler.GetOrderItems)

	e.GET("/users", d.UserHandler.GetUsers, d.AuthMW.AdminOnly)
}
