package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/polkiloo/marketplace/internal/domain/errors"
	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/domain/repository"
)

// OrderUseCase coordinates order placement and lifecycle transitions.
// It is the only path that creates or mutates orders.
type OrderUseCase struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository, products repository.ProductRepository) *OrderUseCase {
	return &OrderUseCase{orders: orders, products: products}
}

// PlaceOrderInput carries the explicit, typed fields of an order request.
type PlaceOrderInput struct {
	Lines          []LineInput
	Shipping       model.ShippingAddress
	ShippingMethod string
	PaymentMethod  string
	Notes          string
}

// Place validates the request, resolves prices and hands the fully priced
// order to the repository, which reserves stock and persists it in one
// transaction. On any failure no stock changes and no rows exist.
func (u *OrderUseCase) Place(ctx context.Context, userID int64, in PlaceOrderInput) (*model.Order, error) {
	if err := ValidateLines(in.Lines); err != nil {
		return nil, err
	}

	products := make(map[int64]*model.Product, len(in.Lines))
	for _, line := range in.Lines {
		if _, ok := products[line.ProductID]; ok {
			continue
		}
		product, err := u.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: %d", domainErrors.ErrProductNotFound, line.ProductID)
			}
			return nil, err
		}
		products[line.ProductID] = product
	}

	lines, total, err := PriceLines(in.Lines, products)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		UserID:         userID,
		Number:         GenerateOrderNumber(),
		Status:         model.OrderStatusPending,
		TotalAmount:    total,
		Shipping:       in.Shipping,
		ShippingMethod: in.ShippingMethod,
		PaymentMethod:  in.PaymentMethod,
		PaymentStatus:  model.PaymentStatusUnpaid,
		Notes:          in.Notes,
		Lines:          lines,
	}

	return u.orders.Create(ctx, order)
}

// Get returns the order with lines when it belongs to the requesting user.
func (u *OrderUseCase) Get(ctx context.Context, requestingUser, orderID int64) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != requestingUser {
		return nil, domainErrors.ErrUnauthorized
	}
	return order, nil
}

// ListByUser returns all orders of the user, newest first.
func (u *OrderUseCase) ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]model.Order, int64, error) {
	return u.orders.ListByUser(ctx, userID, nil, page, pageSize)
}

// History returns the user's completed orders.
func (u *OrderUseCase) History(ctx context.Context, userID int64, page, pageSize int) ([]model.Order, int64, error) {
	return u.orders.ListByUser(ctx, userID, []model.OrderStatus{model.OrderStatusCompleted}, page, pageSize)
}

// Pending returns the user's orders still in flight.
func (u *OrderUseCase) Pending(ctx context.Context, userID int64, page, pageSize int) ([]model.Order, int64, error) {
	return u.orders.ListByUser(ctx, userID,
		[]model.OrderStatus{model.OrderStatusPending, model.OrderStatusProcessing}, page, pageSize)
}

// UpdateStatus moves the order along the lifecycle graph. Cancellation is
// rejected here: it must go through Cancel so stock compensation runs in the
// same transaction as the status flip.
func (u *OrderUseCase) UpdateStatus(ctx context.Context, requestingUser, orderID int64, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, domainErrors.ErrInvalidStatus
	}

	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != requestingUser {
		return nil, domainErrors.ErrUnauthorized
	}
	if status == model.OrderStatusCancelled {
		return nil, fmt.Errorf("%w: use cancel to release stock", domainErrors.ErrIllegalTransition)
	}
	if !order.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", domainErrors.ErrIllegalTransition, order.Status, status)
	}

	// The repository re-validates the transition under a row lock; the check
	// above only gives the caller a fast answer.
	return u.orders.UpdateStatus(ctx, orderID, status)
}

// Cancel cancels the order and restores stock for every line. The repository
// re-reads the status under a row lock, so a concurrent second cancel fails
// without releasing stock twice.
func (u *OrderUseCase) Cancel(ctx context.Context, requestingUser, orderID int64) (*model.Order, error) {
	order, err := u.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != requestingUser {
		return nil, domainErrors.ErrUnauthorized
	}
	if !order.Status.Cancellable() {
		return nil, domainErrors.ErrOrderNotCancellable
	}
	return u.orders.Cancel(ctx, orderID)
}

// ExpiredPending returns unpaid pending orders created before the cutoff.
func (u *OrderUseCase) ExpiredPending(ctx context.Context, olderThan time.Time, limit int) ([]model.Order, error) {
	return u.orders.SelectExpiredPending(ctx, olderThan, limit)
}

// CancelExpired cancels an order on behalf of the system, bypassing the
// ownership check. Used only by the expiry worker.
func (u *OrderUseCase) CancelExpired(ctx context.Context, orderID int64) (*model.Order, error) {
	return u.orders.Cancel(ctx, orderID)
}
