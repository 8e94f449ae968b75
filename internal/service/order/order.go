package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nstepanov/shop-backend/internal/models"
	"github.com/nstepanov/shop-backend/internal/repo"
	"github.com/nstepanov/shop-backend/internal/transport"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrForbidden  = errors.New("forbidden")  // 403
)

// Actor is the authenticated identity performing an operation.
type Actor struct {
	UserID uint
	Admin  bool
}

func (a Actor) canTouch(order *models.Order) bool {
	return a.Admin || order.UserID == a.UserID
}

// Service maintains the Order+OrderItems aggregate as a single consistency
// unit. All multi-row writes go through one repository transaction.
type Service struct {
	Repo *repo.GormRepo
}

func New(r *repo.GormRepo) *Service {
	return &Service{Repo: r}
}

func toSpecs(items []transport.OrderItemSpec) ([]repo.OrderItemSpec, error) {
	specs := make([]repo.OrderItemSpec, 0, len(items))
	for _, item := range items {
		if item.ProductID == 0 {
			return nil, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if item.Quantity == 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
		specs = append(specs, repo.OrderItemSpec{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return specs, nil
}

func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrProductMissing):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	case repo.IsNotFound(err):
		return fmt.Errorf("%w: order", ErrNotFound)
	default:
		return err
	}
}

// Create writes the header and all items atomically. The caller becomes the
// owner; status defaults to pending.
func (svc *Service) Create(ctx context.Context, req transport.CreateOrderRequest, userID uint) (*models.Order, error) {
	status := req.Status
	if status == "" {
		status = models.OrderStatusPending
	}
	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	specs, err := toSpecs(req.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		Status:    status,
	}

	created, err := svc.Repo.CreateOrder(ctx, order, specs)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return created, nil
}

// Update overwrites the status when supplied and replaces the whole item set
// when items is present, including an explicit empty set. An omitted items
// field leaves the existing items untouched.
func (svc *Service) Update(ctx context.Context, orderID uuid.UUID, req transport.UpdateOrderRequest, actor Actor) (*models.Order, error) {
	existing, err := svc.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !actor.canTouch(existing) {
		return nil, fmt.Errorf("%w: not the order owner", ErrForbidden)
	}

	if req.Status != nil && !models.ValidOrderStatus(*req.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *req.Status)
	}

	var specs []repo.OrderItemSpec
	replace := req.Items != nil
	if replace {
		if specs, err = toSpecs(*req.Items); err != nil {
			return nil, err
		}
	}

	updated, err := svc.Repo.UpdateOrder(ctx, orderID, req.Status, specs, replace)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return updated, nil
}

func (svc *Service) Get(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.Order, error) {
	order, err := svc.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !actor.canTouch(order) {
		return nil, fmt.Errorf("%w: not the order owner", ErrForbidden)
	}
	return order, nil
}

// List returns every order for admins and only the actor's own otherwise.
func (svc *Service) List(ctx context.Context, actor Actor) ([]models.Order, error) {
	if actor.Admin {
		return svc.Repo.ListOrders(ctx, nil)
	}
	return svc.Repo.ListOrders(ctx, &actor.UserID)
}

// ListOwn always scopes to the actor, regardless of role.
func (svc *Service) ListOwn(ctx context.Context, actor Actor) ([]models.Order, error) {
	return svc.Repo.ListOrders(ctx, &actor.UserID)
}

func (svc *Service) Delete(ctx context.Context, orderID uuid.UUID, actor Actor) error {
	order, err := svc.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return mapRepoError(err)
	}
	if !actor.canTouch(order) {
		return fmt.Errorf("%w: not the order owner", ErrForbidden)
	}
	return mapRepoError(svc.Repo.DeleteOrder(ctx, orderID))
}
