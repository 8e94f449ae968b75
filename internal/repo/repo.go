package repo

import (
	"errors"

	"gorm.io/gorm"
)

// ErrProductMissing is returned from inside an aggregate transaction when an
// item references a product that does not exist. The whole transaction is
// rolled back.
var ErrProductMissing = errors.New("referenced product does not exist")

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
