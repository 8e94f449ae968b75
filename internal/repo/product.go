package repo

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nstepanov/shop-backend/internal/models"
)

// ProductFilter mirrors the catalog listing query parameters. Nil/zero fields
// are skipped.
type ProductFilter struct {
	Name         string
	NameContains string
	Search       string

	Price    *decimal.Decimal
	PriceLt  *decimal.Decimal
	PriceGt  *decimal.Decimal
	PriceMin *decimal.Decimal
	PriceMax *decimal.Decimal

	InStock  bool
	Ordering string
}

var productOrderings = map[string]string{
	"name":  "name",
	"price": "price",
	"stock": "stock",
}

func (f ProductFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Name != "" {
		q = q.Where("LOWER(name) = LOWER(?)", f.Name)
	}
	if f.NameContains != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+f.NameContains+"%")
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where("LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
	}
	if f.Price != nil {
		q = q.Where("price = ?", f.Price)
	}
	if f.PriceLt != nil {
		q = q.Where("price < ?", f.PriceLt)
	}
	if f.PriceGt != nil {
		q = q.Where("price > ?", f.PriceGt)
	}
	if f.PriceMin != nil && f.PriceMax != nil {
		q = q.Where("price BETWEEN ? AND ?", f.PriceMin, f.PriceMax)
	}
	if f.InStock {
		q = q.Where("stock > 0")
	}
	return q
}

func (f ProductFilter) orderClause() string {
	field := f.Ordering
	desc := strings.HasPrefix(field, "-")
	if desc {
		field = field[1:]
	}
	col, ok := productOrderings[field]
	if !ok {
		return "id ASC"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter, offset, limit int) (int64, []models.Product, error) {
	q := f.apply(r.DB.WithContext(ctx).Model(&models.Product{}))

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := q.Order(f.orderClause()).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.DB.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *GormRepo) SaveProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.DB.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product and, through the FK cascade, every order
// item referencing it.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

type ProductStats struct {
	Count    int64
	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
}

func (r *GormRepo) ProductStats(ctx context.Context) ([]models.Product, ProductStats, error) {
	var products []models.Product
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&products).Error; err != nil {
		return nil, ProductStats{}, err
	}

	var row struct {
		MinPrice decimal.NullDecimal
		MaxPrice decimal.NullDecimal
	}
	if err := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Select("MIN(price) AS min_price, MAX(price) AS max_price").
		Scan(&row).Error; err != nil {
		return nil, ProductStats{}, err
	}

	stats := ProductStats{Count: int64(len(products))}
	if row.MinPrice.Valid {
		stats.MinPrice = row.MinPrice.Decimal
	}
	if row.MaxPrice.Valid {
		stats.MaxPrice = row.MaxPrice.Decimal
	}
	return products, stats, nil
}
