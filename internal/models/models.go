package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"
)

// ValidOrderStatus reports whether s is one of the known order statuses.
// Transitions between statuses are not constrained, only membership.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCancelled:
		return true
	}
	return false
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"unique;not null"     json:"token"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	Name        string          `gorm:"not null"                    json:"name"`
	Description string          `gorm:"not null"                    json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock       uint            `json:"stock"`
}

func (p *Product) InStock() bool {
	return p.Stock > 0
}

type Order struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey"     json:"order_id"`
	UserID    uint        `gorm:"index;not null"           json:"user_id"`
	CreatedAt time.Time   `gorm:"not null"                 json:"created_at"`
	Status    string      `gorm:"not null;default:pending" json:"status"`
	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

type OrderItem struct {
	ID        uint      `gorm:"primaryKey"                  json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null"    json:"order_id"`
	ProductID uint      `gorm:"index;not null"              json:"product_id"`
	Product   Product   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Quantity  uint      `gorm:"not null;check:quantity>0"   json:"quantity"`
}

// Subtotal is quantity × unit price. Requires Product to be preloaded.
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// TotalPrice sums the subtotals of all items. Requires Items.Product preloaded.
func (o *Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].Subtotal())
	}
	return total
}
