package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/nstepanov/shop-backend/internal/cache"
	"github.com/nstepanov/shop-backend/internal/logging"
	"github.com/nstepanov/shop-backend/internal/models"
	"github.com/nstepanov/shop-backend/internal/mykafka"
	"github.com/nstepanov/shop-backend/internal/repo"
	"github.com/nstepanov/shop-backend/internal/transport"
	"github.com/nstepanov/shop-backend/internal/util"
)

const productsInfoKey = "products:info"

type ProductHandler struct {
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
	Cache    *cache.Cache
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func parseDecimalParam(c echo.Context, name string) (*decimal.Decimal, error) {
	s := c.QueryParam(name)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%s is not a number", name)
	}
	return &d, nil
}

func parseProductFilter(c echo.Context) (repo.ProductFilter, error) {
	f := repo.ProductFilter{
		Name:         c.QueryParam("name"),
		NameContains: c.QueryParam("name_contains"),
		Search:       c.QueryParam("search"),
		Ordering:     c.QueryParam("ordering"),
	}

	var err error
	if f.Price, err = parseDecimalParam(c, "price"); err != nil {
		return f, err
	}
	if f.PriceLt, err = parseDecimalParam(c, "price_lt"); err != nil {
		return f, err
	}
	if f.PriceGt, err = parseDecimalParam(c, "price_gt"); err != nil {
		return f, err
	}

	if r := c.QueryParam("price_range"); r != "" {
		parts := strings.SplitN(r, ",", 2)
		if len(parts) != 2 {
			return f, fmt.Errorf("price_range must be min,max")
		}
		min, err := decimal.NewFromString(strings.TrimSpace(parts[0]))
		if err != nil {
			return f, fmt.Errorf("price_range must be min,max")
		}
		max, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return f, fmt.Errorf("price_range must be min,max")
		}
		f.PriceMin, f.PriceMax = &min, &max
	}

	if v := c.QueryParam("in_stock"); v != "" {
		f.InStock, _ = strconv.ParseBool(v)
	}
	return f, nil
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	filter, err := parseProductFilter(c)
	if err != nil {
		l.Warn("get_products_error", "status", 400, "reason", "invalid filter", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Repo.ListProducts(ctx, filter, offset, limit)
	if err != nil {
		l.Error("get_products_error", "status", 500, "reason", "cannot list products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list products")
	}

	l.Info("get_products_success", "total", total)
	return c.JSON(http.StatusOK, map[string]any{
		"data": transport.NewProductResponses(items),
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("get_product_error", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	product, err := h.Repo.GetProduct(ctx, uint(id))
	if err != nil {
		if repo.IsNotFound(err) {
			l.Warn("get_product_error", "status", 404, "reason", "product not found")
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("get_product_error", "status", 500, "reason", "cannot get product", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get product")
	}

	return c.JSON(http.StatusOK, transport.NewProductResponse(*product))
}

func validatePrice(price decimal.Decimal) error {
	if price.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("price must be greater than 0")
	}
	return nil
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := validatePrice(req.Price); err != nil {
		l.Warn("product_create_error", "status", 400, "reason", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if _, err := h.Repo.CreateProduct(ctx, product); err != nil {
		l.Error("product_create_error", "status", 500, "reason", "cannot create product", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create product")
	}

	h.Cache.Delete(ctx, productsInfoKey)
	publish(c, h.Producer, mykafka.TopicProductEvents, fmt.Sprint(product.ID), map[string]any{
		"type":       "product_created",
		"product_id": product.ID,
		"name":       product.Name,
	})

	l.Info("create_product_success", "product_id", product.ID)
	return c.JSON(http.StatusCreated, transport.NewProductResponse(*product))
}

func (h *ProductHandler) PutProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.put_product")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("product_put_error", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_put_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := validatePrice(req.Price); err != nil {
		l.Warn("product_put_error", "status", 400, "reason", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	product, err := h.Repo.GetProduct(ctx, uint(id))
	if err != nil {
		if repo.IsNotFound(err) {
			l.Warn("product_put_error", "status", 404, "reason", "product not found")
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("product_put_error", "status", 500, "reason", "cannot get product", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get product")
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.Stock = req.Stock

	if _, err := h.Repo.SaveProduct(ctx, product); err != nil {
		l.Error("product_put_error", "status", 500, "reason", "cannot save product", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save product")
	}

	h.Cache.Delete(ctx, productsInfoKey)
	publish(c, h.Producer, mykafka.TopicProductEvents, fmt.Sprint(product.ID), map[string]any{
		"type":       "product_updated",
		"product_id": product.ID,
		"name":       product.Name,
	})

	l.Info("put_product_success", "product_id", product.ID)
	return c.JSON(http.StatusOK, transport.NewProductResponse(*product))
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch_product")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("product_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			l.Warn("product_patch_error", "status", 400, "reason", err.Error())
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	product, err := h.Repo.GetProduct(ctx, uint(id))
	if err != nil {
		if repo.IsNotFound(err) {
			l.Warn("product_patch_error", "status", 404, "reason", "product not found")
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("product_patch_error", "status", 500, "reason", "cannot get product", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get product")
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}

	if _, err := h.Repo.SaveProduct(ctx, product); err != nil {
		l.Error("product_patch_error", "status", 500, "reason", "cannot save product", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot save product")
	}

	h.Cache.Delete(ctx, productsInfoKey)
	publish(c, h.Producer, mykafka.TopicProductEvents, fmt.Sprint(product.ID), map[string]any{
		"type":       "product_updated",
		"product_id": product.ID,
		"name":       product.Name,
	})

	l.Info("patch_product_success", "product_id", product.ID)
	return c.JSON(http.StatusOK, transport.NewProductResponse(*product))
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		l.Warn("product_delete_error", "status", 400, "reason", "id is not integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not integer")
	}

	if err := h.Repo.DeleteProduct(ctx, uint(id)); err != nil {
		if repo.IsNotFound(err) {
			l.Warn("product_delete_error", "status", 404, "reason", "product not found")
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		l.Error("product_delete_error", "status", 500, "reason", "cannot delete product", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete product")
	}

	h.Cache.Delete(ctx, productsInfoKey)
	publish(c, h.Producer, mykafka.TopicProductEvents, fmt.Sprint(id), map[string]any{
		"type":       "product_deleted",
		"product_id": id,
	})

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

// GetProductsInfo serves the catalog aggregate stats, cached for a short TTL.
func (h *ProductHandler) GetProductsInfo(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products_info")

	if data, ok := h.Cache.Get(ctx, productsInfoKey); ok {
		return c.JSONBlob(http.StatusOK, data)
	}

	products, stats, err := h.Repo.ProductStats(ctx)
	if err != nil {
		l.Error("get_products_info_error", "status", 500, "reason", "cannot aggregate products", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot aggregate products")
	}

	info := transport.ProductsInfoResponse{
		Products: transport.NewProductResponses(products),
		Count:    stats.Count,
		MaxPrice: stats.MaxPrice,
		MinPrice: stats.MinPrice,
	}

	if data, err := json.Marshal(info); err == nil {
		h.Cache.Set(ctx, productsInfoKey, data)
	}

	l.Info("get_products_info_success", "count", stats.Count)
	return c.JSON(http.StatusOK, info)
}
