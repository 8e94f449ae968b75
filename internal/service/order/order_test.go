package order_test

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nstepanov/shop-backend/internal/config"
	"github.com/nstepanov/shop-backend/internal/models"
	"github.com/nstepanov/shop-backend/internal/repo"
	"github.com/nstepanov/shop-backend/internal/service/order"
	"github.com/nstepanov/shop-backend/internal/transport"
)

func setup(t *testing.T) (*gorm.DB, *order.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	return db, order.New(repo.New(db))
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string, stock uint) *models.Product {
	t.Helper()

	d, err := decimal.NewFromString(price)
	require.NoError(t, err)

	p := &models.Product{Name: name, Description: name, Price: d, Stock: stock}
	require.NoError(t, db.Create(p).Error)
	return p
}

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestCreatePersistsHeaderAndAllItems(t *testing.T) {
	db, svc := setup(t)
	seedProduct(t, db, "widget", "19.99", 5)
	seedProduct(t, db, "gadget", "5.50", 5)

	created, err := svc.Create(context.Background(), transport.CreateOrderRequest{
		Items: []transport.OrderItemSpec{
			{ProductID: 1, Quantity: 3},
			{ProductID: 2, Quantity: 2},
		},
	}, 1)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusPending, created.Status)
	require.EqualValues(t, 1, created.UserID)
	require.NotEqual(t, "00000000-0000-0000-0000-000000000000", created.ID.String())
	require.Len(t, created.Items, 2)

	require.EqualValues(t, 1, count(t, db, &models.Order{}))
	require.EqualValues(t, 2, count(t, db, &models.OrderItem{}))
}

func TestCreateMissingProductPersistsNothing(t *testing.T) {
	db, svc := setup(t)
	seedProduct(t, db, "widget", "19.99", 5)

	_, err := svc.Create(context.Background(), transport.CreateOrderRequest{
		Items: []transport.OrderItemSpec{
			{ProductID: 1, Quantity: 1},
			{ProductID: 42, Quantity: 1},
		},
	}, 1)
	require.ErrorIs(t, err, order.ErrValidation)

	require.EqualValues(t, 0, count(t, db, &models.Order{}))
	require.EqualValues(t, 0, count(t, db, &models.OrderItem{}))
}

func TestCreateRejectsZeroQuantityAndUnknownStatus(t *testing.T) {
	db, svc := setup(t)
	seedProduct(t, db, "widget", "19.99", 5)

	_, err := svc.Create(context.Background(), transport.CreateOrderRequest{
		Items: []transport.OrderItemSpec{{ProductID: 1, Quantity: 0}},
	}, 1)
	require.ErrorIs(t, err, order.ErrValidation)

	_, err = svc.Create(context.Background(), transport.CreateOrderRequest{
		Status: "shipped",
		Items:  []transport.OrderItemSpec{{ProductID: 1, Quantity: 1}},
	}, 1)
	require.ErrorIs(t, err, order.ErrValidation)

	require.EqualValues(t, 0, count(t, db, &models.Order{}))
}

func TestTotalPriceIsExactDecimalSum(t *testing.T) {
	db, svc := setup(t)
	seedProduct(t, db, "widget", "19.99", 5)
	seedProduct(t, db, "gadget", "0.10", 5)

	created, err := svc.Create(context.Background(), transport.CreateOrderRequest{
		Items: []transport.OrderItemSpec{
			{ProductID: 1, Quantity: 3},
			{ProductID: 2, Quantity: 3},
		},
	}, 1)
	require.NoError(t, err)

	// 3 × 19.99 + 3 × 0.10 = 60.27, exactly
	want, _ := decimal.NewFromString("60.27")
	require.True(t, created.TotalPrice().Equal(want), "total = %s", created.TotalPrice())
}

func TestUpdateReplacesWholeItemSet(t *testing.T) {
	db, svc := setup(t)
	seedProduct(t, db, "widget", "19.99", 5)
	seedProduct(t, db, "gadget", "5.50", 5)

	created, err := svc.Create(context.Background(), transport.CreateOrderRequest{
		Items: []transport.OrderItemSpec{
			{ProductID: 1, Quantity: 1},
			{ProductID: 2, Quantity: 1},
		},
	}, 1)
	require.NoError(t, err)

	actor := order.Actor{UserID: 1}
	newSet := []transport.OrderItemSpec{{ProductID: 2, Quantity: 7}}

	updated, err := svc.Update(context.Background(), created.ID, transport.UpdateOrderRequest{
		Items: &newSet,
	}, actor)
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	require.EqualValues(t, 2, updated.Items[0].ProductID)
	require.EqualValues(t, 7, updated.Items[0].Quantity)
	require.EqualValues(t, 1, count(t, db, &models.OrderItem{}))

	empty := []transport.OrderItemSpec{}
	updated, err = svc.Update(context.Background(), created.ID, transport.UpdateOrderRequest{
		Items: &empty,
	}, actor)
	require.NoError(t, err)
	require.Empty(t, updated.Items)
	require.EqualValues(t, 0, count(t, db, &models.OrderItem{}))
}

func TestUpdateWithoutItemsLeavesSetUntouched(t *testing.T) {
	db, svc := setup(t)
	seedProduct(t, db, "widget", "19.99", 5)

	created, err := svc.Create(context.Background(), transport.CreateOrderRequest{
		Items: []transport.OrderItemSpec{{ProductID: 1, Quantity: 2}},
	}, 1)
	require.NoError(t, err)

	status := models.OrderStatusConfirmed
	updated, err := svc.Update(context.Background(), created.ID, transport.UpdateOrderRequest{
		Status: &status,
	}, order.Actor{UserID: 1})
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusConfirmed, updated.Status)
	require.Len(t, updated.Items, 1)
	require.EqualValues(t, 2, updated.Items[0].Quantity)
	require.EqualValues(t, 1, count(t, db, &models.OrderItem{}))
}

func TestUpdateFailureRollsBackHeader(t *testing.T) {
	db, svc := setup(t)
	seedProduct(t, db, "widget", "19.99", 5)

	created, err := svc.Create(context.Background(), transport.CreateOrderRequest{
		Items: []transport.OrderItemSpec{{ProductID: 1, Quantity: 2}},
	}, 1)
	require.NoError(t, err)

	status := models.OrderStatusConfirmed
	badSet := []transport.OrderItemSpec{{ProductID: 42, Quantity: 1}}

	_, err = svc.Update(context.Background(), created.ID, transport.UpdateOrderRequest{
		Status: &status,
		Items:  &badSet,
	}, order.Actor{UserID: 1})
	require.ErrorIs(t, err, order.ErrValidation)

	var reloaded models.Order
	require.NoError(t, db.Preload("Items").First(&reloaded, "id = ?", created.ID).Error)
	require.Equal(t, models.OrderStatusPending, reloaded.Status)
	require.Len(t, reloaded.Items, 1)
	require.EqualValues(t, 1, reloaded.Items[0].ProductID)
}

func TestOwnershipEnforcement(t *testing.T) {
	db, svc := setup(t)
	seedProduct(t, db, "widget", "19.99", 5)

	created, err := svc.Create(context.Background(), transport.CreateOrderRequest{
		Items: []transport.OrderItemSpec{{ProductID: 1, Quantity: 1}},
	}, 1)
	require.NoError(t, err)

	stranger := order.Actor{UserID: 2}
	admin := order.Actor{UserID: 3, Admin: true}

	_, err = svc.Get(context.Background(), created.ID, stranger)
	require.ErrorIs(t, err, order.ErrForbidden)

	err = svc.Delete(context.Background(), created.ID, stranger)
	require.ErrorIs(t, err, order.ErrForbidden)

	_, err = svc.Get(context.Background(), created.ID, admin)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID, admin))
	require.EqualValues(t, 0, count(t, db, &models.Order{}))
	require.EqualValues(t, 0, count(t, db, &models.OrderItem{}))
}

func TestListScopesByActor(t *testing.T) {
	db, svc := setup(t)
	seedProduct(t, db, "widget", "19.99", 5)

	for _, userID := range []uint{1, 1, 2, 2} {
		_, err := svc.Create(context.Background(), transport.CreateOrderRequest{
			Items: []transport.OrderItemSpec{{ProductID: 1, Quantity: 1}},
		}, userID)
		require.NoError(t, err)
	}

	own, err := svc.List(context.Background(), order.Actor{UserID: 2})
	require.NoError(t, err)
	require.Len(t, own, 2)
	for _, o := range own {
		require.EqualValues(t, 2, o.UserID)
	}

	all, err := svc.List(context.Background(), order.Actor{UserID: 9, Admin: true})
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.EqualValues(t, 4, count(t, db, &models.Order{}))
}
