package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nstepanov/shop-backend/internal/models"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       uint            `json:"stock"`
}

type PatchProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *uint            `json:"stock"`
}

type ProductResponse struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       uint            `json:"stock"`
	InStock     bool            `json:"in_stock"`
}

func NewProductResponse(p models.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		InStock:     p.InStock(),
	}
}

func NewProductResponses(products []models.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = NewProductResponse(p)
	}
	return out
}

type ProductsInfoResponse struct {
	Products []ProductResponse `json:"products"`
	Count    int64             `json:"count"`
	MaxPrice decimal.Decimal   `json:"max_price"`
	MinPrice decimal.Decimal   `json:"min_price"`
}

type OrderItemSpec struct {
	ProductID uint `json:"product_id"`
	Quantity  uint `json:"quantity"`
}

type CreateOrderRequest struct {
	Status string          `json:"status"`
	Items  []OrderItemSpec `json:"items"`
}

// UpdateOrderRequest distinguishes an omitted items field (nil, leave the set
// untouched) from an empty one (replace with nothing).
type UpdateOrderRequest struct {
	Status *string          `json:"status"`
	Items  *[]OrderItemSpec `json:"items"`
}

type OrderItemResponse struct {
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     uint            `json:"quantity"`
	ItemSubtotal decimal.Decimal `json:"item_subtotal"`
}

type OrderResponse struct {
	OrderID    uuid.UUID           `json:"order_id"`
	UserID     uint                `json:"user_id"`
	CreatedAt  time.Time           `json:"created_at"`
	Status     string              `json:"status"`
	Items      []OrderItemResponse `json:"items"`
	TotalPrice decimal.Decimal     `json:"total_price"`
}

func NewOrderItemResponse(item models.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ProductID:    item.ProductID,
		ProductName:  item.Product.Name,
		ProductPrice: item.Product.Price,
		Quantity:     item.Quantity,
		ItemSubtotal: item.Subtotal(),
	}
}

func NewOrderResponse(order *models.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = NewOrderItemResponse(item)
	}
	return OrderResponse{
		OrderID:    order.ID,
		UserID:     order.UserID,
		CreatedAt:  order.CreatedAt,
		Status:     order.Status,
		Items:      items,
		TotalPrice: order.TotalPrice(),
	}
}

func NewOrderResponses(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = NewOrderResponse(&orders[i])
	}
	return out
}
