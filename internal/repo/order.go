package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nstepanov/shop-backend/internal/models"
)

type OrderItemSpec struct {
	ProductID uint
	Quantity  uint
}

// CreateOrder persists the order header and all items in one transaction.
// A missing product aborts the whole write, including the header.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order, specs []OrderItemSpec) (*models.Order, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		return insertItems(tx, order.ID, specs)
	})
	if err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, order.ID)
}

// UpdateOrder overwrites the header status when status is non-nil and, when
// replaceItems is set, deletes every existing item and recreates the set from
// specs. Header and item writes share one transaction: any failure leaves the
// prior state intact.
func (r *GormRepo) UpdateOrder(ctx context.Context, orderID uuid.UUID, status *string, specs []OrderItemSpec, replaceItems bool) (*models.Order, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return err
		}

		if status != nil {
			if err := tx.Model(&order).Update("status", *status).Error; err != nil {
				return err
			}
		}

		if replaceItems {
			if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
				return err
			}
			if err := insertItems(tx, orderID, specs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetOrder(ctx, orderID)
}

func insertItems(tx *gorm.DB, orderID uuid.UUID, specs []OrderItemSpec) error {
	for _, spec := range specs {
		var product models.Product
		if err := tx.First(&product, spec.ProductID).Error; err != nil {
			if IsNotFound(err) {
				return fmt.Errorf("%w: product %d", ErrProductMissing, spec.ProductID)
			}
			return err
		}

		item := models.OrderItem{
			OrderID:   orderID,
			ProductID: product.ID,
			Quantity:  spec.Quantity,
		}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
	}
	return nil
}

// DeleteOrder removes the order and its items as one unit. The item delete is
// explicit rather than left to the schema cascade.
func (r *GormRepo) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, "id = ?", orderID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// GetOrder loads an order with items and their products eagerly joined, so
// subtotals never trigger per-item product lookups.
func (r *GormRepo) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items.Product").
		First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns all orders, or only those of userID when it is non-nil.
func (r *GormRepo) ListOrders(ctx context.Context, userID *uint) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Preload("Items.Product")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) ListOrderItems(ctx context.Context) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.DB.WithContext(ctx).Preload("Product").Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
